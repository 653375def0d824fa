package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	kerrors "github.com/fernvale/daybook/internal/errors"
)

// DateLayout is the on-disk and CLI format for dates.
const DateLayout = "2006-01-02"

// Persisted is the daybook config file. It currently carries a single
// semantic value: the journal start date used for day counts.
type Persisted struct {
	Journal JournalConfig `toml:"journal"`
}

type JournalConfig struct {
	StartDate string `toml:"start_date"`
}

func configPath() string {
	return filepath.Join(Settings.ConfigDir, "config.toml")
}

// LoadPersisted loads the daybook config file. A missing file yields the
// zero value, not an error.
func LoadPersisted() (*Persisted, error) {
	cfg := &Persisted{}

	path := configPath()
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return cfg, nil
	}

	if err := LoadTOML(path, cfg); err != nil {
		return nil, fmt.Errorf("failed to load daybook config: %w", err)
	}

	return cfg, nil
}

// SavePersisted saves the daybook config file.
func SavePersisted(cfg *Persisted) error {
	if err := SaveTOML(configPath(), cfg); err != nil {
		return fmt.Errorf("failed to save daybook config: %w", err)
	}
	return nil
}

// StartDate returns the persisted start date, or a zero time if none is set.
func (p *Persisted) StartDate() (time.Time, error) {
	if p.Journal.StartDate == "" {
		return time.Time{}, nil
	}
	t, err := time.Parse(DateLayout, p.Journal.StartDate)
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: %q", kerrors.ErrInvalidStartDate, p.Journal.StartDate)
	}
	return t, nil
}

// SetStartDate persists a new start date for all future runs.
func SetStartDate(date time.Time) error {
	cfg, err := LoadPersisted()
	if err != nil {
		return err
	}
	cfg.Journal.StartDate = date.Format(DateLayout)
	return SavePersisted(cfg)
}
