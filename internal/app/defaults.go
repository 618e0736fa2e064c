package app

import (
	"fmt"
	"os"
	"path/filepath"
)

const (
	envConfigPath = "PGBACKUP_CONFIG_PATH"
	envHome       = "PGBACKUP_HOME"
)

// GetDefaults locates the config file and the data directory pgbackup uses
// when nothing else is configured. Keys are config_path, base_dir and
// log_dir.
//
// PGBACKUP_CONFIG_PATH overrides ~/.config/pgbackup.toml and PGBACKUP_HOME
// overrides ~/.local/share/pgbackup. The log directory always sits under the
// data directory.
func GetDefaults() (map[string]string, error) {
	configPath, err := envOrHome(envConfigPath, ".config", "pgbackup.toml")
	if err != nil {
		return nil, err
	}
	baseDir, err := envOrHome(envHome, ".local", "share", "pgbackup")
	if err != nil {
		return nil, err
	}

	return map[string]string{
		"config_path": configPath,
		"base_dir":    baseDir,
		"log_dir":     filepath.Join(baseDir, "log"),
	}, nil
}

// envOrHome returns the value of env, or rel joined under the user's home
// directory when env is unset or empty.
func envOrHome(env string, rel ...string) (string, error) {
	if v := os.Getenv(env); v != "" {
		return v, nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("resolving default for %s: %w", env, err)
	}
	return filepath.Join(append([]string{home}, rel...)...), nil
}
