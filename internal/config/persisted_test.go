package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	kerrors "github.com/fernvale/daybook/internal/errors"
)

func TestLoadPersistedNonExistent(t *testing.T) {
	useTempSettings(t)

	cfg, err := LoadPersisted()
	if err != nil {
		t.Fatalf("LoadPersisted failed: %v", err)
	}
	if cfg == nil {
		t.Fatal("Expected config to not be nil")
	}
	if cfg.Journal.StartDate != "" {
		t.Errorf("Expected empty start date, got %q", cfg.Journal.StartDate)
	}
}

func TestSaveAndLoadPersisted(t *testing.T) {
	useTempSettings(t)

	cfg := &Persisted{}
	cfg.Journal.StartDate = "2024-01-15"
	if err := SavePersisted(cfg); err != nil {
		t.Fatalf("SavePersisted failed: %v", err)
	}

	loaded, err := LoadPersisted()
	if err != nil {
		t.Fatalf("LoadPersisted failed: %v", err)
	}
	if loaded.Journal.StartDate != "2024-01-15" {
		t.Errorf("Expected start date %q, got %q", "2024-01-15", loaded.Journal.StartDate)
	}
}

func TestSetStartDate(t *testing.T) {
	useTempSettings(t)

	date := time.Date(2024, 2, 29, 0, 0, 0, 0, time.UTC)
	if err := SetStartDate(date); err != nil {
		t.Fatalf("SetStartDate failed: %v", err)
	}

	loaded, err := LoadPersisted()
	if err != nil {
		t.Fatalf("LoadPersisted failed: %v", err)
	}

	got, err := loaded.StartDate()
	if err != nil {
		t.Fatalf("StartDate failed: %v", err)
	}
	if !got.Equal(date) {
		t.Errorf("Expected %v, got %v", date, got)
	}
}

func TestStartDateEmpty(t *testing.T) {
	cfg := &Persisted{}
	got, err := cfg.StartDate()
	if err != nil {
		t.Fatalf("StartDate failed: %v", err)
	}
	if !got.IsZero() {
		t.Errorf("Expected zero time, got %v", got)
	}
}

func TestStartDateInvalid(t *testing.T) {
	cfg := &Persisted{}
	cfg.Journal.StartDate = "15/01/2024"

	_, err := cfg.StartDate()
	if !errors.Is(err, kerrors.ErrInvalidStartDate) {
		t.Fatalf("Expected ErrInvalidStartDate, got %v", err)
	}
}

func TestLoadPersistedMalformed(t *testing.T) {
	useTempSettings(t)

	path := filepath.Join(Settings.ConfigDir, "config.toml")
	if err := os.WriteFile(path, []byte("journal = [broken\n"), 0644); err != nil {
		t.Fatalf("WriteFile failed: %v", err)
	}

	if _, err := LoadPersisted(); err == nil {
		t.Fatal("Expected an error for a malformed config file")
	}
}
