package migrate

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/bmatcuk/doublestar/v4"

	"github.com/fernvale/daybook/internal/crypt"
	kerrors "github.com/fernvale/daybook/internal/errors"
	logger "github.com/fernvale/daybook/internal/logging"
	"github.com/fernvale/daybook/internal/utils"
)

// managedExtension is the only file type the engine touches.
const managedExtension = ".md"

// Outcome classifies what happened to one file.
type Outcome int

const (
	// OutcomeAlreadyEncrypted means the file carried an encryption marker
	// and was not re-processed.
	OutcomeAlreadyEncrypted Outcome = iota

	// OutcomeEncrypted means the file was newly encrypted.
	OutcomeEncrypted

	// OutcomeSkipped means the file was left alone (empty, unreadable
	// state, pattern mismatch resolved upstream).
	OutcomeSkipped

	// OutcomeFailed means encryption failed; the original was restored
	// from its backup.
	OutcomeFailed
)

func (o Outcome) String() string {
	switch o {
	case OutcomeAlreadyEncrypted:
		return "already encrypted"
	case OutcomeEncrypted:
		return "encrypted"
	case OutcomeSkipped:
		return "skipped"
	case OutcomeFailed:
		return "failed"
	default:
		return "unknown"
	}
}

// FileResult is the per-file outcome with the diagnostic reason for
// skips and failures.
type FileResult struct {
	Path    string
	Outcome Outcome
	Reason  string
}

// Report aggregates one migration run. Discarded after being printed.
type Report struct {
	Results          []FileResult
	AlreadyEncrypted int
	Encrypted        int
	Skipped          int
	Failed           int
}

func (r *Report) add(path string, outcome Outcome, reason string) {
	r.Results = append(r.Results, FileResult{Path: path, Outcome: outcome, Reason: reason})
	switch outcome {
	case OutcomeAlreadyEncrypted:
		r.AlreadyEncrypted++
	case OutcomeEncrypted:
		r.Encrypted++
	case OutcomeSkipped:
		r.Skipped++
	case OutcomeFailed:
		r.Failed++
	}
}

// Total is the number of files considered.
func (r *Report) Total() int {
	return len(r.Results)
}

// Options configures one migration run.
type Options struct {
	// Dir is the directory whose entries are converted. Non-recursive.
	Dir string

	// Patterns optionally narrows the files considered, matched against
	// basenames with doublestar. Empty means every managed file.
	Patterns []string

	// Capability gates the run and supplies the encryption tool.
	Capability *crypt.Capability

	Log logger.Logger
}

// Run batch-converts the plaintext entries in Dir to encrypted form.
//
// Preconditions (tool available, config present and structurally valid,
// round-trip passing) are enforced before any file is touched; failing one
// aborts with zero files modified. Each file is processed independently:
// backup, encrypt in place, verify, delete backup - or restore from backup
// on failure. A crash mid-loop therefore cannot corrupt any file beyond the
// one currently being processed.
func Run(ctx context.Context, opts Options) (*Report, error) {
	if err := opts.Capability.EncryptionReady(ctx); err != nil {
		return nil, fmt.Errorf("migration preconditions not met: %w", err)
	}

	files, err := enumerate(opts.Dir, opts.Patterns)
	if err != nil {
		return nil, err
	}
	if len(files) == 0 {
		return nil, fmt.Errorf("%w: no %s files in %s", kerrors.ErrNoFilesFound, managedExtension, opts.Dir)
	}

	tool := opts.Capability.Tool()
	report := &Report{}

	for _, path := range files {
		outcome, reason := migrateFile(ctx, tool, path, opts.Log)
		report.add(path, outcome, reason)
	}

	return report, nil
}

// enumerate lists the regular managed files directly inside dir, optionally
// filtered by basename patterns.
func enumerate(dir string, patterns []string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("failed to read directory %s: %w", dir, err)
	}

	var files []string
	for _, entry := range entries {
		if entry.IsDir() || !entry.Type().IsRegular() {
			continue
		}
		name := entry.Name()
		if !strings.HasSuffix(name, managedExtension) {
			continue
		}
		if len(patterns) > 0 && !matchesAny(name, patterns) {
			continue
		}
		files = append(files, filepath.Join(dir, name))
	}
	return files, nil
}

func matchesAny(name string, patterns []string) bool {
	for _, pattern := range patterns {
		if ok, err := doublestar.Match(pattern, name); err == nil && ok {
			return true
		}
	}
	return false
}

// migrateFile converts a single file, never leaving it in a state different
// from when it started unless it was successfully and verifiably encrypted.
func migrateFile(ctx context.Context, tool *crypt.Tool, path string, log logger.Logger) (Outcome, string) {
	info, err := os.Stat(path)
	if err != nil {
		return OutcomeFailed, fmt.Sprintf("stat failed: %v", err)
	}
	if info.Size() == 0 {
		return OutcomeSkipped, "empty file"
	}
	if !utils.IsWritable(path) {
		return OutcomeFailed, "not writable"
	}

	detection, err := crypt.Detect(path)
	if err != nil {
		return OutcomeFailed, fmt.Sprintf("unreadable: %v", err)
	}
	if detection == crypt.DetectedEncrypted {
		log.Debugf("%s already encrypted, leaving untouched", path)
		return OutcomeAlreadyEncrypted, ""
	}

	backup := utils.BackupPath(path)
	if err := utils.CopyFile(path, backup); err != nil {
		return OutcomeFailed, fmt.Sprintf("backup failed: %v", err)
	}

	if err := tool.EncryptInPlace(ctx, path); err != nil {
		restore(path, backup, log)
		return OutcomeFailed, err.Error()
	}

	// Verify the tool produced a recognizable encrypted file before
	// discarding the backup.
	detection, derr := crypt.Detect(path)
	if derr != nil || detection != crypt.DetectedEncrypted {
		restore(path, backup, log)
		return OutcomeFailed, "encryption produced no recognizable marker"
	}

	if err := os.Remove(backup); err != nil {
		log.WarnfAlways("failed to remove backup %s: %v", backup, err)
	}
	return OutcomeEncrypted, ""
}

// restore puts the original back atomically; the backup is a pristine copy,
// so a rename over the possibly-corrupted original recovers it.
func restore(path, backup string, log logger.Logger) {
	if err := os.Rename(backup, path); err != nil {
		log.Errorf("failed to restore %s from backup %s: %v", path, backup, err)
	}
}
