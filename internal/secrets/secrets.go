// Package secrets checks that required secrets are present in the
// environment and collects and persists the missing ones.
package secrets

import (
	"context"
	"os"
	"regexp"

	"github.com/cockroachdb/errors"

	"github.com/smykla-skalski/tmplcheck/pkg/logger"
)

var (
	// ErrBlankSecret is returned when a blank value is entered for a secret.
	ErrBlankSecret = errors.New("secret must not be blank")

	// ErrUnknownSecret is returned when a secret is not set anywhere.
	ErrUnknownSecret = errors.New("secret is not set")

	// ErrInvalidName is returned for names that are not valid variable names.
	ErrInvalidName = errors.New("invalid secret name")
)

// DefaultNames are the secrets checked when settings name none.
var DefaultNames = []string{
	"REDDIT_CLIENT_ID",
	"REDDIT_CLIENT_SECRET",
	"REDDIT_USER",
	"REDDIT_PASSWORD",
	"TIKTOK_SESSIONID",
}

var validName = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)

// ValidateName rejects names that cannot be environment variables.
func ValidateName(name string) error {
	if !validName.MatchString(name) {
		return errors.Wrapf(ErrInvalidName, "%q", name)
	}

	return nil
}

// Lookup finds secret values.
type Lookup interface {
	// Exists reports whether name is set to a non-blank value.
	Exists(name string) bool

	// Get returns the value of name.
	Get(name string) (string, bool)
}

// Persister stores a secret so later sessions see it.
type Persister interface {
	SetPersistentSecret(ctx context.Context, name, value string) error
}

// Asker collects a secret value from the user.
type Asker interface {
	AskSecret(ctx context.Context, name, description string) (string, error)
}

// Status is the outcome of checking one secret.
type Status string

const (
	// StatusPresent means the secret was already set.
	StatusPresent Status = "present"

	// StatusSet means the secret was missing and has been stored.
	StatusSet Status = "set"

	// StatusFailed means the secret was missing and could not be stored.
	StatusFailed Status = "failed"
)

// Result is the outcome for one secret.
type Result struct {
	Name   string
	Status Status
	Err    error
}

// Checker checks a fixed list of secrets.
type Checker struct {
	names     []string
	lookup    Lookup
	persister Persister
	asker     Asker
	log       logger.Logger
}

// NewChecker creates a Checker. An empty names list means DefaultNames.
func NewChecker(names []string, lookup Lookup, persister Persister, asker Asker, log logger.Logger) *Checker {
	if len(names) == 0 {
		names = DefaultNames
	}

	return &Checker{
		names:     names,
		lookup:    lookup,
		persister: persister,
		asker:     asker,
		log:       log,
	}
}

// CheckAll checks every secret in order, prompting for and persisting the
// missing ones. One failure does not stop the others.
func (c *Checker) CheckAll(ctx context.Context) []Result {
	results := make([]Result, 0, len(c.names))

	for _, name := range c.names {
		if c.lookup.Exists(name) {
			c.log.Debug("secret present", "name", name)
			results = append(results, Result{Name: name, Status: StatusPresent})

			continue
		}

		if err := c.PromptAndPersist(ctx, name); err != nil {
			c.log.Error("secret not stored", "name", name, "error", err)
			results = append(results, Result{Name: name, Status: StatusFailed, Err: err})

			continue
		}

		c.log.Info("secret stored", "name", name)
		results = append(results, Result{Name: name, Status: StatusSet})
	}

	return results
}

// PromptAndPersist asks for a value of name and persists it. On success the
// value is also exported to the current process.
func (c *Checker) PromptAndPersist(ctx context.Context, name string) error {
	if err := ValidateName(name); err != nil {
		return err
	}

	value, err := c.asker.AskSecret(ctx, name, "Please enter "+name)
	if err != nil {
		return errors.Wrapf(err, "reading secret %s", name)
	}

	if value == "" {
		return errors.Wrapf(ErrBlankSecret, "%s", name)
	}

	if err := c.persister.SetPersistentSecret(ctx, name, value); err != nil {
		return errors.Wrapf(err, "setting secret %s", name)
	}

	if err := os.Setenv(name, value); err != nil {
		return errors.Wrapf(err, "exporting secret %s", name)
	}

	return nil
}

// Get returns the value of name or ErrUnknownSecret.
func (c *Checker) Get(name string) (string, error) {
	value, ok := c.lookup.Get(name)
	if !ok {
		return "", errors.Wrapf(ErrUnknownSecret, "%s", name)
	}

	return value, nil
}

// Failed reports whether any result failed.
func Failed(results []Result) bool {
	for _, r := range results {
		if r.Status == StatusFailed {
			return true
		}
	}

	return false
}
