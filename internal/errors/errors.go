package errors

import "errors"

// Encryption errors indicate failures while orchestrating the external
// encryption tool.
var (
	// ErrToolNotFound indicates the encryption tool is not installed or not on PATH.
	ErrToolNotFound = errors.New("encryption tool not found")

	// ErrRoundTripFailed indicates the encrypt-then-decrypt verification failed.
	ErrRoundTripFailed = errors.New("encryption round-trip test failed")

	// ErrEncryptFailed indicates the tool failed to encrypt a file.
	ErrEncryptFailed = errors.New("failed to encrypt file")

	// ErrDecryptFailed indicates the tool failed to decrypt a file.
	ErrDecryptFailed = errors.New("failed to decrypt file")

	// ErrNoMatchingRule indicates no creation rule in the encryption config
	// matches the file being encrypted.
	ErrNoMatchingRule = errors.New("no creation rule matches file")

	// ErrNoAccessibleKey indicates the tool could not obtain a usable key
	// from any configured key backend.
	ErrNoAccessibleKey = errors.New("no accessible encryption key")
)

// Config errors indicate issues with the encryption configuration or the
// persisted daybook configuration.
var (
	// ErrConfigNotFound indicates the encryption config file could not be located.
	ErrConfigNotFound = errors.New("encryption config not found")

	// ErrConfigInvalid indicates the encryption config is structurally invalid.
	ErrConfigInvalid = errors.New("encryption config is invalid")

	// ErrInvalidStartDate indicates the start date could not be parsed.
	ErrInvalidStartDate = errors.New("invalid start date")

	// ErrTemplateNotFound indicates a custom template file could not be read.
	ErrTemplateNotFound = errors.New("template file not found")

	// ErrTemplateEmpty indicates the template resolved to empty content.
	ErrTemplateEmpty = errors.New("template is empty")
)

// Entry errors indicate issues with journal entry files.
var (
	// ErrNotAnEntry indicates the file lacks the journal metadata block.
	ErrNotAnEntry = errors.New("file is not a journal entry")

	// ErrNoFilesFound indicates no files matched the provided patterns.
	ErrNoFilesFound = errors.New("no matching files found")
)

// Service errors indicate issues with the long-running watcher.
var (
	// ErrWatchDirGone indicates the watched directory no longer exists.
	ErrWatchDirGone = errors.New("watched directory no longer exists")

	// ErrChangeSourceClosed indicates the change source terminated unexpectedly.
	ErrChangeSourceClosed = errors.New("change source terminated")
)
