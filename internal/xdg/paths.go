// Package xdg resolves the per-user paths tmplcheck uses, following the XDG
// Base Directory conventions.
package xdg

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/cockroachdb/errors"
)

const appName = "tmplcheck"

// ConfigHome returns $XDG_CONFIG_HOME or ~/.config.
func ConfigHome() string {
	return baseDir("XDG_CONFIG_HOME", ".config")
}

// StateHome returns $XDG_STATE_HOME or ~/.local/state.
func StateHome() string {
	return baseDir("XDG_STATE_HOME", ".local", "state")
}

func baseDir(env string, fallback ...string) string {
	if v := os.Getenv(env); v != "" {
		return v
	}

	home, err := os.UserHomeDir()
	if err != nil {
		home = "~"
	}

	return filepath.Join(append([]string{home}, fallback...)...)
}

// ConfigDir returns ConfigHome()/tmplcheck.
func ConfigDir() string {
	return filepath.Join(ConfigHome(), appName)
}

// StateDir returns StateHome()/tmplcheck.
func StateDir() string {
	return filepath.Join(StateHome(), appName)
}

// SettingsFile returns ConfigDir()/settings.toml.
func SettingsFile() string {
	return filepath.Join(ConfigDir(), "settings.toml")
}

// SecretsEnvFile returns ConfigDir()/secrets.env.
func SecretsEnvFile() string {
	return filepath.Join(ConfigDir(), "secrets.env")
}

// LogFile returns StateDir()/tmplcheck.log.
func LogFile() string {
	return filepath.Join(StateDir(), "tmplcheck.log")
}

// BackupDir returns StateDir()/backups.
func BackupDir() string {
	return filepath.Join(StateDir(), "backups")
}

// ExpandPath resolves a ~ prefix to the user's home directory.
// Returns error for invalid tilde usage like "~foo".
func ExpandPath(path string) (string, error) {
	if path == "" || path[0] != '~' {
		return path, nil
	}

	home, err := os.UserHomeDir()
	if err != nil {
		return "", errors.Wrap(err, "failed to get home directory")
	}

	switch {
	case path == "~":
		return home, nil
	case strings.HasPrefix(path, "~/"):
		return filepath.Join(home, path[2:]), nil
	default:
		return "", errors.Newf("paths starting with ~ must be either ~ or ~/subdir, got %q", path)
	}
}
