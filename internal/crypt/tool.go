package crypt

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"

	kerrors "github.com/fernvale/daybook/internal/errors"
)

// DefaultBinary is the encryption tool daybook orchestrates.
const DefaultBinary = "sops"

// Tool invokes the external encryption tool as a subprocess. The zero value
// is not usable; construct with NewTool.
type Tool struct {
	// Binary is the tool executable, looked up on PATH unless absolute.
	Binary string

	// ConfigPath, when non-empty, is passed as --config so an explicitly
	// resolved encryption config wins over the tool's own discovery.
	ConfigPath string

	// Env is appended to the subprocess environment.
	Env []string
}

// NewTool returns a Tool for the default binary with the given encryption
// config path (may be empty to rely on the tool's own config discovery).
func NewTool(configPath string) *Tool {
	return &Tool{Binary: DefaultBinary, ConfigPath: configPath}
}

// Available reports whether the tool is usable and returns its version
// string for diagnostics. Never fatal on its own: systems lacking the tool
// fall back to plaintext mode.
func (t *Tool) Available() (string, bool) {
	path, err := exec.LookPath(t.Binary)
	if err != nil {
		return "", false
	}

	out, err := exec.Command(path, "--version").CombinedOutput()
	if err != nil {
		return "", false
	}

	version := strings.TrimSpace(string(out))
	if i := strings.IndexByte(version, '\n'); i >= 0 {
		version = version[:i]
	}
	return version, true
}

// EncryptInPlace encrypts path in place. On failure the tool's stderr is
// classified and preserved on the returned ToolError; the file may have been
// left modified by the tool, so callers own backup/restore.
func (t *Tool) EncryptInPlace(ctx context.Context, path string) error {
	if _, err := t.run(ctx, path, "--encrypt", "--in-place"); err != nil {
		return err.(*ToolError).withOp("encrypt")
	}
	return nil
}

// Decrypt returns the plaintext of the encrypted file at path without
// modifying it.
func (t *Tool) Decrypt(ctx context.Context, path string) ([]byte, error) {
	out, err := t.run(ctx, path, "--decrypt")
	if err != nil {
		return nil, err.(*ToolError).withOp("decrypt")
	}
	return out, nil
}

// Edit opens path in the tool's interactive edit flow (decrypt, $EDITOR,
// re-encrypt), inheriting the caller's terminal.
func (t *Tool) Edit(path string) error {
	cmd := exec.Command(t.Binary, t.withConfig(path)...)
	cmd.Stdin = os.Stdin
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr
	cmd.Env = append(os.Environ(), t.Env...)
	if err := cmd.Run(); err != nil {
		return fmt.Errorf("%s edit failed for %s: %w", t.Binary, path, err)
	}
	return nil
}

func (t *Tool) withConfig(args ...string) []string {
	if t.ConfigPath == "" {
		return args
	}
	config := t.ConfigPath
	// The subprocess may run with a different working directory, so a
	// relative config path must be pinned down before it is handed over.
	if abs, err := filepath.Abs(config); err == nil {
		config = abs
	}
	return append([]string{"--config", config}, args...)
}

// run executes the tool on path with the subprocess working directory set to
// the file's directory, so the tool's own config discovery starts next to
// the file being processed. Both the file and the config are passed as
// absolute paths; argv must stay valid under the changed working directory.
func (t *Tool) run(ctx context.Context, path string, args ...string) ([]byte, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, &ToolError{Path: path, Kind: FailureOther, err: err}
	}

	cmd := exec.CommandContext(ctx, t.Binary, append(t.withConfig(args...), abs)...)
	cmd.Dir = filepath.Dir(abs)
	cmd.Env = append(os.Environ(), t.Env...)

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		return nil, &ToolError{
			Path:   path,
			Kind:   classifyStderr(stderr.String()),
			Stderr: strings.TrimSpace(stderr.String()),
			err:    err,
		}
	}

	return stdout.Bytes(), nil
}

// FailureKind classifies a non-zero tool exit by its stderr text.
type FailureKind int

const (
	// FailureOther is any unclassified tool failure.
	FailureOther FailureKind = iota

	// FailureNoMatchingRule means no creation rule matched the file path.
	FailureNoMatchingRule

	// FailureNoAccessibleKey means key material could not be obtained.
	FailureNoAccessibleKey

	// FailureConfigNotFound means the tool could not locate its config.
	FailureConfigNotFound

	// FailurePermissionDenied means a filesystem permission error.
	FailurePermissionDenied
)

func classifyStderr(stderr string) FailureKind {
	lower := strings.ToLower(stderr)
	switch {
	case strings.Contains(lower, "no matching creation rules"):
		return FailureNoMatchingRule
	case strings.Contains(lower, "could not retrieve data key") ||
		strings.Contains(lower, "failed to get the data key") ||
		strings.Contains(lower, "no key could be obtained"):
		return FailureNoAccessibleKey
	case strings.Contains(lower, "config file not found") ||
		strings.Contains(lower, "no such config"):
		return FailureConfigNotFound
	case strings.Contains(lower, "permission denied"):
		return FailurePermissionDenied
	default:
		return FailureOther
	}
}

// ToolError preserves the tool's diagnostic output for callers to classify
// and report.
type ToolError struct {
	Op     string // "encrypt" or "decrypt"
	Path   string
	Kind   FailureKind
	Stderr string
	err    error
}

func (e *ToolError) withOp(op string) *ToolError {
	e.Op = op
	return e
}

func (e *ToolError) Error() string {
	if e.Stderr != "" {
		return fmt.Sprintf("%s %s: %v: %s", e.Op, e.Path, e.err, e.Stderr)
	}
	return fmt.Sprintf("%s %s: %v", e.Op, e.Path, e.err)
}

// Unwrap maps the classified failure onto the error taxonomy so callers can
// test with errors.Is and main can derive the exit code.
func (e *ToolError) Unwrap() error {
	switch e.Kind {
	case FailureNoMatchingRule:
		return kerrors.ErrNoMatchingRule
	case FailureNoAccessibleKey:
		return kerrors.ErrNoAccessibleKey
	case FailureConfigNotFound:
		return kerrors.ErrConfigNotFound
	default:
		if e.Op == "decrypt" {
			return kerrors.ErrDecryptFailed
		}
		return kerrors.ErrEncryptFailed
	}
}
