package utils

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestFileExists(t *testing.T) {
	dir := t.TempDir()

	if FileExists(filepath.Join(dir, "nope")) {
		t.Error("Expected false for a missing file")
	}
	if FileExists(dir) {
		t.Error("Expected false for a directory")
	}

	path := filepath.Join(dir, "file")
	if err := os.WriteFile(path, []byte("x"), 0644); err != nil {
		t.Fatalf("WriteFile failed: %v", err)
	}
	if !FileExists(path) {
		t.Error("Expected true for a regular file")
	}
}

func TestCopyFile(t *testing.T) {
	dir := t.TempDir()
	src := filepath.Join(dir, "src")
	dst := filepath.Join(dir, "dst")

	if err := os.WriteFile(src, []byte("content\n"), 0600); err != nil {
		t.Fatalf("WriteFile failed: %v", err)
	}

	if err := CopyFile(src, dst); err != nil {
		t.Fatalf("CopyFile failed: %v", err)
	}

	data, err := os.ReadFile(dst)
	if err != nil {
		t.Fatalf("ReadFile failed: %v", err)
	}
	if string(data) != "content\n" {
		t.Errorf("Expected %q, got %q", "content\n", string(data))
	}

	info, err := os.Stat(dst)
	if err != nil {
		t.Fatalf("Stat failed: %v", err)
	}
	if info.Mode().Perm() != 0600 {
		t.Errorf("Expected permissions 0600, got %v", info.Mode().Perm())
	}
}

func TestCopyFileMissingSource(t *testing.T) {
	dir := t.TempDir()
	if err := CopyFile(filepath.Join(dir, "nope"), filepath.Join(dir, "dst")); err == nil {
		t.Fatal("Expected an error for a missing source")
	}
}

func TestCopyFileRejectsDirectory(t *testing.T) {
	dir := t.TempDir()
	if err := CopyFile(dir, filepath.Join(dir, "dst")); err == nil {
		t.Fatal("Expected an error for a directory source")
	}
}

func TestBackupPath(t *testing.T) {
	path := "/journal/entry.md"

	first := BackupPath(path)
	second := BackupPath(path)

	if !strings.HasPrefix(first, path+".") || !strings.HasSuffix(first, ".bak") {
		t.Errorf("Unexpected backup path shape: %q", first)
	}
	if first == second {
		t.Error("Expected backup paths to be unique per call")
	}
}

func TestIsWritableMissingFile(t *testing.T) {
	if IsWritable(filepath.Join(t.TempDir(), "nope")) {
		t.Error("Expected false for a missing file")
	}
}

func TestIsWritableRegularFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "file")
	if err := os.WriteFile(path, []byte("x"), 0644); err != nil {
		t.Fatalf("WriteFile failed: %v", err)
	}
	if !IsWritable(path) {
		t.Error("Expected true for a writable file")
	}
}

func TestEnsureDir(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "a", "b", "c")

	if err := EnsureDir(dir); err != nil {
		t.Fatalf("EnsureDir failed: %v", err)
	}

	info, err := os.Stat(dir)
	if err != nil || !info.IsDir() {
		t.Errorf("Expected directory to exist, stat: %v", err)
	}

	// Idempotent.
	if err := EnsureDir(dir); err != nil {
		t.Fatalf("EnsureDir on existing directory failed: %v", err)
	}
}
