// Package watch keeps journal entry freshness timestamps current.
//
// A ChangeSource (event-driven fsnotify or a periodic poll) yields paths of
// changed entries; the Reconciler re-opens each one, transparently
// decrypting when needed, rewrites its `updated:` field, and re-commits it
// with the same staged-write-then-rename discipline used at creation. The
// two source implementations are interchangeable, so the reconciliation
// state machine is testable with a plain channel.
package watch
