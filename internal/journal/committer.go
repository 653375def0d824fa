package journal

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/google/uuid"

	"github.com/fernvale/daybook/internal/utils"
)

// Encryptor encrypts a file in place by invoking the external tool.
// crypt.Tool satisfies it; tests substitute fakes to inject failures.
type Encryptor interface {
	EncryptInPlace(ctx context.Context, path string) error
}

// CollisionPolicy decides what happens when the target entry already exists.
type CollisionPolicy int

const (
	// PolicyPrompt asks for confirmation before overwriting.
	PolicyPrompt CollisionPolicy = iota

	// PolicyForce overwrites silently (after taking a backup).
	PolicyForce

	// PolicyQuiet treats an existing entry as a silent no-op success.
	PolicyQuiet
)

// Outcome reports what Create did.
type Outcome int

const (
	// OutcomeCreated means a new entry was published.
	OutcomeCreated Outcome = iota

	// OutcomeOverwritten means an existing entry was replaced (backup taken).
	OutcomeOverwritten

	// OutcomeSkipped means the existing entry was left alone.
	OutcomeSkipped
)

func (o Outcome) String() string {
	switch o {
	case OutcomeCreated:
		return "created"
	case OutcomeOverwritten:
		return "overwritten"
	case OutcomeSkipped:
		return "skipped"
	default:
		return "unknown"
	}
}

// CreateRequest describes one entry-creation transaction.
type CreateRequest struct {
	// Path is the target entry path. Its directory must exist.
	Path string

	// Content is the rendered entry text.
	Content string

	// Encryptor, when non-nil, encrypts the staged file before publish.
	Encryptor Encryptor

	// Policy applies when Path already exists.
	Policy CollisionPolicy

	// Confirm is consulted by PolicyPrompt. Nil means decline.
	Confirm func(prompt string) (bool, error)
}

// CreateResult reports the outcome and the backup path taken before an
// overwrite, if any.
type CreateResult struct {
	Outcome    Outcome
	BackupPath string
}

// Create runs the entry-creation transaction: collision check, staged write,
// optional encryption, atomic publish. On any failure before the final
// rename the target path is left exactly as it was.
func Create(ctx context.Context, req CreateRequest) (*CreateResult, error) {
	result := &CreateResult{Outcome: OutcomeCreated}

	if utils.FileExists(req.Path) {
		switch req.Policy {
		case PolicyQuiet:
			result.Outcome = OutcomeSkipped
			return result, nil
		case PolicyPrompt:
			if req.Confirm == nil {
				result.Outcome = OutcomeSkipped
				return result, nil
			}
			ok, err := req.Confirm(fmt.Sprintf("%s already exists. Overwrite?", req.Path))
			if err != nil {
				return nil, fmt.Errorf("overwrite confirmation failed: %w", err)
			}
			if !ok {
				result.Outcome = OutcomeSkipped
				return result, nil
			}
		case PolicyForce:
			// Overwrite without asking.
		}

		backup := utils.BackupPath(req.Path)
		if err := utils.CopyFile(req.Path, backup); err != nil {
			return nil, fmt.Errorf("failed to back up existing entry: %w", err)
		}
		result.Outcome = OutcomeOverwritten
		result.BackupPath = backup
	}

	if err := CommitFile(ctx, req.Path, []byte(req.Content), req.Encryptor); err != nil {
		// The target was never touched, so the pre-overwrite backup is a
		// stray artifact; a failed transaction leaves nothing behind.
		if result.BackupPath != "" {
			os.Remove(result.BackupPath)
		}
		return nil, err
	}

	return result, nil
}

// CommitFile writes content to a staging file next to target, optionally
// encrypts it in place, and publishes it with an atomic rename. The staging
// file keeps the target's basename so encryption-rule path patterns match.
// The rename is the single point after which the entry exists; any earlier
// failure leaves the target untouched.
func CommitFile(ctx context.Context, target string, content []byte, enc Encryptor) error {
	dir := filepath.Dir(target)
	stageDir := filepath.Join(dir, ".daybook-stage-"+uuid.NewString())
	if err := os.MkdirAll(stageDir, 0700); err != nil {
		return fmt.Errorf("failed to create staging directory: %w", err)
	}
	defer os.RemoveAll(stageDir)

	stage := filepath.Join(stageDir, filepath.Base(target))
	if err := os.WriteFile(stage, content, 0644); err != nil {
		return fmt.Errorf("failed to stage entry: %w", err)
	}

	if enc != nil {
		if err := enc.EncryptInPlace(ctx, stage); err != nil {
			return err
		}
	}

	if err := os.Rename(stage, target); err != nil {
		return fmt.Errorf("failed to publish entry: %w", err)
	}

	return nil
}
