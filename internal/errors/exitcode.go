package errors

import "errors"

// Process exit codes, one range per error category.
const (
	ExitOK         = 0
	ExitGeneral    = 1
	ExitEncryption = 2
	ExitConfig     = 3
	ExitService    = 4
)

var encryptionErrors = []error{
	ErrToolNotFound,
	ErrRoundTripFailed,
	ErrEncryptFailed,
	ErrDecryptFailed,
	ErrNoMatchingRule,
	ErrNoAccessibleKey,
}

var configErrors = []error{
	ErrConfigNotFound,
	ErrConfigInvalid,
	ErrInvalidStartDate,
	ErrTemplateNotFound,
	ErrTemplateEmpty,
}

var serviceErrors = []error{
	ErrWatchDirGone,
	ErrChangeSourceClosed,
}

// ExitCode maps an error to its process exit code. Nil maps to ExitOK and
// unrecognized errors to ExitGeneral.
func ExitCode(err error) int {
	if err == nil {
		return ExitOK
	}
	for _, e := range encryptionErrors {
		if errors.Is(err, e) {
			return ExitEncryption
		}
	}
	for _, e := range configErrors {
		if errors.Is(err, e) {
			return ExitConfig
		}
	}
	for _, e := range serviceErrors {
		if errors.Is(err, e) {
			return ExitService
		}
	}
	return ExitGeneral
}
