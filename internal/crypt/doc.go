// Package crypt orchestrates the external encryption tool (sops) and detects
// encryption state at rest.
//
// daybook never implements cryptography itself. Detection inspects file
// content for textual markers without forking the tool; the Capability type
// memoizes the expensive subprocess checks (availability, round-trip test)
// once per invocation. Ambiguous detection results are reported, never
// guessed.
package crypt
