package crypt

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	kerrors "github.com/fernvale/daybook/internal/errors"
)

// stubToolScript mimics the encryption tool closely enough for subprocess
// tests: --version prints a banner, --encrypt --in-place wraps the file in a
// marker envelope, --decrypt unwraps it.
const stubToolScript = `#!/bin/sh
mode=""
file=""
while [ $# -gt 0 ]; do
    case "$1" in
        --config) shift 2 ;;
        --version) echo "sops 3.9.0 (stub)"; exit 0 ;;
        --encrypt) mode=encrypt; shift ;;
        --decrypt) mode=decrypt; shift ;;
        --in-place) shift ;;
        *) file="$1"; shift ;;
    esac
done
case "$mode" in
    encrypt)
        b64=$(base64 < "$file" | tr -d '\n')
        printf 'data: %s\nsops:\n    version: stub\n' "$b64" > "$file"
        ;;
    decrypt)
        sed -n 's/^data: //p' "$file" | base64 -d
        ;;
    *)
        echo "stub: unknown mode" >&2
        exit 1
        ;;
esac
`

// strictStubScript additionally insists that the file and config arguments
// resolve from the subprocess working directory, the way the real tool does.
const strictStubScript = `#!/bin/sh
mode=""
file=""
config=""
while [ $# -gt 0 ]; do
    case "$1" in
        --config) config="$2"; shift 2 ;;
        --version) echo "sops 3.9.0 (stub)"; exit 0 ;;
        --encrypt) mode=encrypt; shift ;;
        --decrypt) mode=decrypt; shift ;;
        --in-place) shift ;;
        *) file="$1"; shift ;;
    esac
done
if [ -n "$config" ] && [ ! -f "$config" ]; then
    echo "config file not found: $config" >&2
    exit 2
fi
if [ ! -f "$file" ]; then
    echo "cannot open $file: No such file" >&2
    exit 2
fi
case "$mode" in
    encrypt)
        b64=$(base64 < "$file" | tr -d '\n')
        printf 'data: %s\nsops:\n    version: stub\n' "$b64" > "$file"
        ;;
    decrypt)
        sed -n 's/^data: //p' "$file" | base64 -d
        ;;
esac
`

// writeStubTool installs the stub as an executable and returns its path.
func writeStubTool(t *testing.T, script string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "sops")
	if err := os.WriteFile(path, []byte(script), 0755); err != nil {
		t.Fatalf("Failed to write stub tool: %v", err)
	}
	return path
}

// chdir switches the working directory for one test.
func chdir(t *testing.T, dir string) {
	t.Helper()
	old, err := os.Getwd()
	if err != nil {
		t.Fatalf("Getwd failed: %v", err)
	}
	if err := os.Chdir(dir); err != nil {
		t.Fatalf("Chdir failed: %v", err)
	}
	t.Cleanup(func() {
		if err := os.Chdir(old); err != nil {
			t.Fatalf("Chdir back failed: %v", err)
		}
	})
}

func TestToolAvailable(t *testing.T) {
	tool := &Tool{Binary: writeStubTool(t, stubToolScript)}

	version, ok := tool.Available()
	if !ok {
		t.Fatal("Expected stub tool to be available")
	}
	if version != "sops 3.9.0 (stub)" {
		t.Errorf("Expected stub version banner, got %q", version)
	}
}

func TestToolAvailableMissingBinary(t *testing.T) {
	tool := &Tool{Binary: filepath.Join(t.TempDir(), "no-such-tool")}

	if _, ok := tool.Available(); ok {
		t.Fatal("Expected missing binary to be unavailable")
	}
}

func TestToolEncryptDecryptRoundTrip(t *testing.T) {
	tool := &Tool{Binary: writeStubTool(t, stubToolScript)}
	path := filepath.Join(t.TempDir(), "journal.daily.2024.03.15.md")
	original := "---\nupdated: 2024-03-15T08:00:00Z\n---\nbody\n"
	if err := os.WriteFile(path, []byte(original), 0644); err != nil {
		t.Fatalf("WriteFile failed: %v", err)
	}

	if err := tool.EncryptInPlace(context.Background(), path); err != nil {
		t.Fatalf("EncryptInPlace failed: %v", err)
	}

	detection, err := Detect(path)
	if err != nil {
		t.Fatalf("Detect failed: %v", err)
	}
	if detection != DetectedEncrypted {
		t.Fatalf("Expected encrypted file after EncryptInPlace, got %v", detection)
	}

	plaintext, err := tool.Decrypt(context.Background(), path)
	if err != nil {
		t.Fatalf("Decrypt failed: %v", err)
	}
	if string(plaintext) != original {
		t.Errorf("Expected round-tripped plaintext %q, got %q", original, string(plaintext))
	}
}

func TestToolRelativePaths(t *testing.T) {
	base := t.TempDir()
	if err := os.Mkdir(filepath.Join(base, "journal"), 0755); err != nil {
		t.Fatalf("Mkdir failed: %v", err)
	}

	original := "---\nupdated: 2024-03-15T08:00:00Z\n---\nbody\n"
	if err := os.WriteFile(filepath.Join(base, "journal", "a.md"), []byte(original), 0644); err != nil {
		t.Fatalf("WriteFile failed: %v", err)
	}
	if err := os.WriteFile(filepath.Join(base, "journal", ".sops.yaml"), []byte("creation_rules: []\n"), 0644); err != nil {
		t.Fatalf("WriteFile failed: %v", err)
	}

	binary := writeStubTool(t, strictStubScript)
	chdir(t, base)

	// Both the file and the config are relative to the working directory,
	// which is not the file's own directory.
	tool := &Tool{Binary: binary, ConfigPath: filepath.Join("journal", ".sops.yaml")}

	if err := tool.EncryptInPlace(context.Background(), filepath.Join("journal", "a.md")); err != nil {
		t.Fatalf("EncryptInPlace with a relative path failed: %v", err)
	}

	detection, err := Detect(filepath.Join("journal", "a.md"))
	if err != nil {
		t.Fatalf("Detect failed: %v", err)
	}
	if detection != DetectedEncrypted {
		t.Fatalf("Expected encrypted file, got %v", detection)
	}

	plaintext, err := tool.Decrypt(context.Background(), filepath.Join("journal", "a.md"))
	if err != nil {
		t.Fatalf("Decrypt with a relative path failed: %v", err)
	}
	if string(plaintext) != original {
		t.Errorf("Expected round-tripped plaintext %q, got %q", original, string(plaintext))
	}
}

func TestToolEncryptFailureClassified(t *testing.T) {
	failing := `#!/bin/sh
case "$*" in
    *--version*) echo "sops 3.9.0 (stub)"; exit 0 ;;
esac
echo "error: no matching creation rules found" >&2
exit 1
`
	tool := &Tool{Binary: writeStubTool(t, failing)}
	path := filepath.Join(t.TempDir(), "entry.md")
	if err := os.WriteFile(path, []byte("x\n"), 0644); err != nil {
		t.Fatalf("WriteFile failed: %v", err)
	}

	err := tool.EncryptInPlace(context.Background(), path)
	if err == nil {
		t.Fatal("Expected EncryptInPlace to fail")
	}

	var toolErr *ToolError
	if !errors.As(err, &toolErr) {
		t.Fatalf("Expected a ToolError, got %T", err)
	}
	if toolErr.Kind != FailureNoMatchingRule {
		t.Errorf("Expected FailureNoMatchingRule, got %v", toolErr.Kind)
	}
	if !errors.Is(err, kerrors.ErrNoMatchingRule) {
		t.Errorf("Expected error to match ErrNoMatchingRule, got %v", err)
	}
	if !strings.Contains(toolErr.Stderr, "no matching creation rules") {
		t.Errorf("Expected stderr to be preserved, got %q", toolErr.Stderr)
	}
}

func TestClassifyStderr(t *testing.T) {
	tests := []struct {
		name   string
		stderr string
		want   FailureKind
	}{
		{"no matching rule", "Error: no matching creation rules found in config", FailureNoMatchingRule},
		{"data key", "Could not retrieve data key from any source", FailureNoAccessibleKey},
		{"data key alt", "Failed to get the data key required to decrypt", FailureNoAccessibleKey},
		{"no key obtained", "no key could be obtained for recipient", FailureNoAccessibleKey},
		{"config missing", "config file not found at /x/.sops.yaml", FailureConfigNotFound},
		{"permission", "open /x: permission denied", FailurePermissionDenied},
		{"other", "something unexpected happened", FailureOther},
		{"empty", "", FailureOther},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := classifyStderr(tt.stderr); got != tt.want {
				t.Errorf("Expected %v, got %v", tt.want, got)
			}
		})
	}
}

func TestToolErrorUnwrapByOp(t *testing.T) {
	encErr := &ToolError{Op: "encrypt", Kind: FailureOther, err: errors.New("exit 1")}
	if !errors.Is(encErr, kerrors.ErrEncryptFailed) {
		t.Error("Expected unclassified encrypt failure to match ErrEncryptFailed")
	}

	decErr := &ToolError{Op: "decrypt", Kind: FailureOther, err: errors.New("exit 1")}
	if !errors.Is(decErr, kerrors.ErrDecryptFailed) {
		t.Error("Expected unclassified decrypt failure to match ErrDecryptFailed")
	}

	keyErr := &ToolError{Op: "encrypt", Kind: FailureNoAccessibleKey, err: errors.New("exit 1")}
	if !errors.Is(keyErr, kerrors.ErrNoAccessibleKey) {
		t.Error("Expected key failure to match ErrNoAccessibleKey")
	}
}
