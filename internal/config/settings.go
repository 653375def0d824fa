package config

import (
	"log"
	"os"
	"path/filepath"
)

// UserSettings holds the user-level paths daybook persists state under.
type UserSettings struct {
	// ConfigDir is where the persisted config file lives.
	ConfigDir string
}

// Settings is the active user settings. Tests override it to point at a
// temporary directory.
var Settings *UserSettings

func init() {
	configDir, err := os.UserConfigDir()
	if err != nil {
		log.Fatalf("error getting config directory: %s", err)
	}

	// Independent of what directory you run in, so it is ok to init here.
	Settings = &UserSettings{
		ConfigDir: filepath.Join(configDir, "daybook"),
	}
}
