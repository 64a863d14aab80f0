// Package config loads tmplcheck's own settings.
package config

import (
	"os"
	"strings"

	"github.com/cockroachdb/errors"
	tomlparser "github.com/knadh/koanf/parsers/toml/v2"
	"github.com/knadh/koanf/providers/confmap"
	"github.com/knadh/koanf/providers/env/v2"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"

	"github.com/smykla-skalski/tmplcheck/internal/secrets"
	"github.com/smykla-skalski/tmplcheck/internal/xdg"
)

// EnvPrefix prefixes every environment override.
const EnvPrefix = "TMPLCHECK_"

// ErrInvalidPermissions is returned when the settings file is world-writable.
var ErrInvalidPermissions = errors.New("settings file has insecure permissions")

// envKeys maps environment suffixes to settings keys. Keys themselves
// contain underscores, so the mapping cannot be derived.
var envKeys = map[string]string{
	"TEMPLATE":             "template",
	"CONFIG":               "config",
	"NO_TUI":               "no_tui",
	"ACCESSIBLE":           "accessible",
	"BACKUP_ENABLED":       "backup.enabled",
	"BACKUP_MAX_SNAPSHOTS": "backup.max_snapshots",
	"BACKUP_DIR":           "backup.dir",
	"SECRETS_NAMES":        "secrets.names",
	"SECRETS_ENV_FILE":     "secrets.env_file",
	"SECRETS_SCOPE":        "secrets.scope",
	"LOG_FILE":             "log.file",
}

// pathKeys are expanded for a leading ~.
var pathKeys = []string{"template", "config", "backup.dir", "secrets.env_file", "log.file"}

// Loader loads Settings with precedence, lowest first:
// defaults, settings file, TMPLCHECK_* environment, CLI flags.
type Loader struct {
	settingsPath string
	environ      func() []string
}

// NewLoader creates a Loader reading the XDG settings file.
func NewLoader() *Loader {
	return NewLoaderWithPath(xdg.SettingsFile(), nil)
}

// NewLoaderWithPath creates a Loader with a custom settings file and
// environment source (for testing). A nil environ uses os.Environ.
func NewLoaderWithPath(settingsPath string, environ func() []string) *Loader {
	return &Loader{settingsPath: settingsPath, environ: environ}
}

// SettingsPath returns the settings file the loader reads.
func (l *Loader) SettingsPath() string {
	return l.settingsPath
}

// Load merges every source and validates the result. flags holds only the
// flags the user set, keyed by settings key.
func (l *Loader) Load(flags map[string]any) (*Settings, error) {
	k := koanf.New(".")

	if err := k.Load(confmap.Provider(defaultsToMap(), "."), nil); err != nil {
		return nil, errors.Wrap(err, "failed to load defaults")
	}

	if err := l.loadTOMLFile(k); err != nil && !os.IsNotExist(err) {
		return nil, errors.Wrapf(err, "failed to load settings file %s", l.settingsPath)
	}

	envOpt := env.Opt{
		Prefix:        EnvPrefix,
		TransformFunc: envTransform,
		EnvironFunc:   l.environ,
	}

	if err := k.Load(env.Provider(".", envOpt), nil); err != nil {
		return nil, errors.Wrap(err, "failed to load env vars")
	}

	if len(flags) > 0 {
		if err := k.Load(confmap.Provider(flags, "."), nil); err != nil {
			return nil, errors.Wrap(err, "failed to load flags")
		}
	}

	for _, key := range pathKeys {
		expanded, err := xdg.ExpandPath(k.String(key))
		if err != nil {
			return nil, errors.Wrapf(err, "setting %s", key)
		}

		if err := k.Set(key, expanded); err != nil {
			return nil, errors.Wrapf(err, "setting %s", key)
		}
	}

	var s Settings
	if err := k.UnmarshalWithConf("", &s, koanf.UnmarshalConf{Tag: "koanf"}); err != nil {
		return nil, errors.Wrap(err, "failed to unmarshal settings")
	}

	if err := s.Validate(); err != nil {
		return nil, err
	}

	return &s, nil
}

// loadTOMLFile loads the settings file, rejecting world-writable files.
func (l *Loader) loadTOMLFile(k *koanf.Koanf) error {
	info, err := os.Stat(l.settingsPath)
	if err != nil {
		return err
	}

	if info.Mode().Perm()&0o002 != 0 {
		return errors.Wrapf(
			ErrInvalidPermissions,
			"%s is world-writable (mode: %s)",
			l.settingsPath,
			info.Mode().Perm(),
		)
	}

	return k.Load(file.Provider(l.settingsPath), tomlparser.Parser())
}

// envTransform maps TMPLCHECK_BACKUP_MAX_SNAPSHOTS to backup.max_snapshots.
// Unknown variables are dropped; list values are comma separated.
func envTransform(key, value string) (string, any) {
	mapped, ok := envKeys[strings.TrimPrefix(key, EnvPrefix)]
	if !ok {
		return "", nil
	}

	if mapped == "secrets.names" {
		return mapped, splitList(value)
	}

	return mapped, value
}

func splitList(value string) []string {
	var out []string

	for item := range strings.SplitSeq(value, ",") {
		if item = strings.TrimSpace(item); item != "" {
			out = append(out, item)
		}
	}

	return out
}

func defaultsToMap() map[string]any {
	return map[string]any{
		"template":             DefaultTemplatePath,
		"config":               DefaultConfigPath,
		"no_tui":               false,
		"accessible":           false,
		"backup.enabled":       true,
		"backup.max_snapshots": DefaultMaxSnapshots,
		"backup.dir":           xdg.BackupDir(),
		"secrets.names":        secrets.DefaultNames,
		"secrets.env_file":     xdg.SecretsEnvFile(),
		"secrets.scope":        secrets.ScopeUser,
		"log.file":             xdg.LogFile(),
	}
}
