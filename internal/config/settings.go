package config

import (
	"github.com/cockroachdb/errors"

	"github.com/smykla-skalski/tmplcheck/internal/secrets"
)

// Default values for Settings.
const (
	DefaultTemplatePath = "utils/.config.template.toml"
	DefaultConfigPath   = "config.toml"
	DefaultMaxSnapshots = 5
)

// ErrInvalidSettings is returned by Validate.
var ErrInvalidSettings = errors.New("invalid settings")

// Settings configures a tmplcheck run.
type Settings struct {
	// Template is the path of the rule template.
	Template string `koanf:"template"`

	// Config is the path of the configuration document to reconcile.
	Config string `koanf:"config"`

	// NoTUI forces line prompts even on a terminal.
	NoTUI bool `koanf:"no_tui"`

	// Accessible runs forms as numbered, line-by-line prompts.
	Accessible bool `koanf:"accessible"`

	Backup  BackupSettings  `koanf:"backup"`
	Secrets SecretsSettings `koanf:"secrets"`
	Log     LogSettings     `koanf:"log"`
}

// BackupSettings controls snapshots taken before overwriting the config.
type BackupSettings struct {
	Enabled      bool `koanf:"enabled"`
	MaxSnapshots int  `koanf:"max_snapshots"`

	// Dir overrides the XDG backup directory.
	Dir string `koanf:"dir"`
}

// SecretsSettings controls the secret check.
type SecretsSettings struct {
	// Names lists the secrets to check; empty means the built-in list.
	Names []string `koanf:"names"`

	// EnvFile is the dotenv file used outside Windows.
	EnvFile string `koanf:"env_file"`

	// Scope is the Windows environment scope, User or Machine.
	Scope string `koanf:"scope"`
}

// LogSettings controls the log file.
type LogSettings struct {
	File string `koanf:"file"`
}

// Validate checks settings after loading.
func (s *Settings) Validate() error {
	var errs error

	if s.Template == "" {
		errs = errors.CombineErrors(errs, errors.Wrap(ErrInvalidSettings, "template path is empty"))
	}

	if s.Config == "" {
		errs = errors.CombineErrors(errs, errors.Wrap(ErrInvalidSettings, "config path is empty"))
	}

	if s.Backup.Enabled && s.Backup.MaxSnapshots <= 0 {
		errs = errors.CombineErrors(errs, errors.Wrapf(ErrInvalidSettings,
			"backup.max_snapshots must be positive, got %d", s.Backup.MaxSnapshots))
	}

	if err := secrets.ValidateScope(s.Secrets.Scope); err != nil {
		errs = errors.CombineErrors(errs, errors.Mark(err, ErrInvalidSettings))
	}

	for _, name := range s.Secrets.Names {
		if err := secrets.ValidateName(name); err != nil {
			errs = errors.CombineErrors(errs, errors.Mark(err, ErrInvalidSettings))
		}
	}

	return errs
}
