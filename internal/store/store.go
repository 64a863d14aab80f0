// Package store loads and persists TOML documents as ordered trees.
package store

import (
	"io/fs"
	"os"

	"github.com/cockroachdb/errors"

	"github.com/smykla-skalski/tmplcheck/internal/fsutil"
	"github.com/smykla-skalski/tmplcheck/pkg/rules"
	"github.com/smykla-skalski/tmplcheck/pkg/tree"
)

var (
	// ErrNotFound is returned when the configuration file does not exist.
	ErrNotFound = errors.New("config not found")

	// ErrCorrupt is returned when the configuration file is not valid TOML.
	ErrCorrupt = errors.New("config is not valid TOML")

	// ErrTemplate is returned when the template cannot be loaded.
	ErrTemplate = errors.New("invalid template")

	// ErrPersist is returned when the configuration cannot be written.
	ErrPersist = errors.New("failed to persist config")
)

// Load reads the configuration document at path.
func Load(path string) (*tree.Tree, error) {
	data, err := os.ReadFile(path) //nolint:gosec // path is user-provided by design
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, errors.Wrapf(ErrNotFound, "%s", path)
		}

		return nil, errors.Wrapf(err, "reading %s", path)
	}

	t, err := Decode(data)
	if err != nil {
		return nil, errors.Mark(errors.Wrapf(err, "%s", path), ErrCorrupt)
	}

	return t, nil
}

// LoadTemplate reads the template at path and checks that every leaf parses
// as a rule set.
func LoadTemplate(path string) (*tree.Tree, error) {
	data, err := os.ReadFile(path) //nolint:gosec // path is user-provided by design
	if err != nil {
		return nil, errors.Mark(errors.Wrapf(err, "loading template %s", path), ErrTemplate)
	}

	t, err := DecodeTemplate(data)
	if err != nil {
		return nil, errors.Mark(errors.Wrapf(err, "loading template %s", path), ErrTemplate)
	}

	err = tree.Walk(t, rules.IsLeaf, func(leaf tree.Path, value any) error {
		sub, ok := value.(*tree.Tree)
		if !ok {
			return errors.Wrapf(rules.ErrInvalidRuleSet, "leaf %s is a %T, not a table", leaf, value)
		}

		if _, err := rules.FromTree(sub); err != nil {
			return errors.Wrapf(err, "leaf %s", leaf)
		}

		return nil
	})
	if err != nil {
		return nil, errors.Mark(errors.Wrapf(err, "loading template %s", path), ErrTemplate)
	}

	return t, nil
}

// Persist writes t to path atomically.
func Persist(path string, t *tree.Tree) error {
	data, err := Encode(t)
	if err != nil {
		return errors.Mark(errors.Wrapf(err, "encoding %s", path), ErrPersist)
	}

	if err := fsutil.AtomicWriteFile(path, data); err != nil {
		return errors.Mark(errors.Wrapf(err, "writing %s", path), ErrPersist)
	}

	return nil
}

// Reset replaces the file at path with an empty document.
func Reset(path string) error {
	if err := fsutil.AtomicWriteFile(path, nil); err != nil {
		return errors.Mark(errors.Wrapf(err, "resetting %s", path), ErrPersist)
	}

	return nil
}
