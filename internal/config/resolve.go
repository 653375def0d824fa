package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	kerrors "github.com/fernvale/daybook/internal/errors"
	"github.com/fernvale/daybook/internal/utils"
)

// EnvSopsConfig overrides encryption config auto-detection.
const EnvSopsConfig = "DAYBOOK_SOPS_CONFIG"

// sopsConfigNames are the canonical filenames probed during auto-detection.
var sopsConfigNames = []string{".sops.yaml", ".sops.yml"}

// Options carries the caller-supplied overrides for one invocation.
type Options struct {
	// Date overrides the entry date. Zero means today.
	Date time.Time

	// StartDate explicitly sets (and persists) the journal start date.
	StartDate time.Time

	// OutputDir is the directory entries are written to. Empty means the
	// current directory.
	OutputDir string

	// OutputFile is an explicit entry filename overriding the derived name.
	OutputFile string

	// TemplatePath is an external template file. Empty means the embedded
	// default template.
	TemplatePath string

	// SopsConfig is an explicit encryption config path.
	SopsConfig string

	// Quiet suppresses the interactive start-date prompt.
	Quiet bool

	// Prompt reads one line of user input. Nil means non-interactive.
	Prompt func(prompt string) (string, error)

	// Now is the clock, overridable in tests. Nil means time.Now.
	Now func() time.Time
}

// Config is the fully-resolved configuration threaded through one invocation.
type Config struct {
	OutputDir      string
	OutputPath     string
	TemplateSource string // path of an external template, "" for the embedded default
	EntryDate      time.Time
	StartDate      time.Time
	SopsConfigPath string // "" when no encryption config resolved
}

// EntryFileName derives the deterministic entry filename for a date.
func EntryFileName(date time.Time) string {
	return fmt.Sprintf("journal.daily.%04d.%02d.%02d.md", date.Year(), int(date.Month()), date.Day())
}

// Resolve produces a fully-resolved Config from overrides, persisted state,
// and auto-detection. It may create the output directory and persist a
// start date; it performs no network I/O.
func Resolve(opts Options) (*Config, error) {
	now := time.Now
	if opts.Now != nil {
		now = opts.Now
	}

	entryDate := opts.Date
	if entryDate.IsZero() {
		entryDate = now()
	}

	startDate, err := resolveStartDate(opts, now)
	if err != nil {
		return nil, err
	}

	outputDir := opts.OutputDir
	if outputDir == "" {
		outputDir = "."
	}
	if err := utils.EnsureDir(outputDir); err != nil {
		return nil, err
	}

	fileName := opts.OutputFile
	if fileName == "" {
		fileName = EntryFileName(entryDate)
	}

	if opts.TemplatePath != "" {
		if _, err := os.Stat(opts.TemplatePath); err != nil {
			return nil, fmt.Errorf("%w: %s", kerrors.ErrTemplateNotFound, opts.TemplatePath)
		}
	}

	sopsPath, err := ResolveSopsConfig(opts.SopsConfig, outputDir)
	if err != nil {
		return nil, err
	}

	return &Config{
		OutputDir:      outputDir,
		OutputPath:     filepath.Join(outputDir, fileName),
		TemplateSource: opts.TemplatePath,
		EntryDate:      entryDate,
		StartDate:      startDate,
		SopsConfigPath: sopsPath,
	}, nil
}

// resolveStartDate applies the resolution order: explicit set > persisted >
// interactive prompt > today. Prompted and explicit values are persisted.
func resolveStartDate(opts Options, now func() time.Time) (time.Time, error) {
	if !opts.StartDate.IsZero() {
		if err := SetStartDate(opts.StartDate); err != nil {
			return time.Time{}, err
		}
		return opts.StartDate, nil
	}

	persisted, err := LoadPersisted()
	if err != nil {
		return time.Time{}, err
	}
	if date, err := persisted.StartDate(); err != nil {
		return time.Time{}, err
	} else if !date.IsZero() {
		return date, nil
	}

	if opts.Prompt != nil && !opts.Quiet {
		answer, err := opts.Prompt(fmt.Sprintf("Journal start date [%s]: ", now().Format(DateLayout)))
		if err != nil {
			return time.Time{}, fmt.Errorf("failed to read start date: %w", err)
		}
		date := now()
		if answer != "" {
			date, err = time.Parse(DateLayout, answer)
			if err != nil {
				return time.Time{}, fmt.Errorf("%w: %q", kerrors.ErrInvalidStartDate, answer)
			}
		}
		if err := SetStartDate(date); err != nil {
			return time.Time{}, err
		}
		return date, nil
	}

	return now(), nil
}

// ResolveSopsConfig applies the resolution order: explicit path > environment
// override > probing canonical filenames in the output directory and the
// current directory. An explicit path that is not a readable file is a
// config error; failed auto-detection just means "no encryption".
func ResolveSopsConfig(explicit, outputDir string) (string, error) {
	if explicit != "" {
		if err := readable(explicit); err != nil {
			return "", fmt.Errorf("%w: %s: %v", kerrors.ErrConfigNotFound, explicit, err)
		}
		return explicit, nil
	}

	if env := os.Getenv(EnvSopsConfig); env != "" {
		if err := readable(env); err != nil {
			return "", fmt.Errorf("%w: %s (from %s): %v", kerrors.ErrConfigNotFound, env, EnvSopsConfig, err)
		}
		return env, nil
	}

	for _, dir := range []string{outputDir, "."} {
		for _, name := range sopsConfigNames {
			candidate := filepath.Join(dir, name)
			if readable(candidate) == nil {
				return candidate, nil
			}
		}
	}

	return "", nil
}

func readable(path string) error {
	f, err := os.Open(path)
	if err != nil {
		return err
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return err
	}
	if !info.Mode().IsRegular() {
		return fmt.Errorf("not a regular file")
	}
	return nil
}
