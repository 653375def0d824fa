// Package utils provides filesystem and terminal helpers shared across
// daybook commands: unique backup naming, permission-preserving copies,
// and interactive prompts.
package utils
