package app

import (
	"fmt"
	"os"
	"path/filepath"
)

// Environment variables that override the default locations.
const (
	EnvConfigPath = "LAI_CONFIG_PATH"
	EnvHome       = "LAI_HOME"
	EnvPassphrase = "LAI_PASSPHRASE"
)

// Defaults are the locations used when no config file says otherwise.
type Defaults struct {
	ConfigPath string
	BaseDir    string
	LogDir     string
}

// GetDefaults returns application default paths, checking environment variables first:
// LAI_CONFIG_PATH (default ~/.config/lai.toml) and LAI_HOME (default ~/.local/share/lai).
func GetDefaults() (*Defaults, error) {
	configPath := os.Getenv(EnvConfigPath)
	baseDir := os.Getenv(EnvHome)

	if configPath == "" || baseDir == "" {
		homeDir, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("cannot determine home directory: %w", err)
		}
		if configPath == "" {
			configPath = filepath.Join(homeDir, ".config", "lai.toml")
		}
		if baseDir == "" {
			baseDir = filepath.Join(homeDir, ".local", "share", "lai")
		}
	}

	return &Defaults{
		ConfigPath: configPath,
		BaseDir:    baseDir,
		LogDir:     filepath.Join(baseDir, "log"),
	}, nil
}
