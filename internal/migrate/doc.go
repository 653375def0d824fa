// Package migrate batch-converts a directory of plaintext journal entries
// into encrypted form with per-file backup and rollback. Re-running over an
// already-migrated directory is a no-op: encrypted files are counted, never
// re-processed.
package migrate
