package reconcile

import (
	"context"
	"fmt"
	"io"

	"github.com/cockroachdb/errors"

	"github.com/smykla-skalski/tmplcheck/internal/backup"
	"github.com/smykla-skalski/tmplcheck/internal/color"
	"github.com/smykla-skalski/tmplcheck/internal/store"
	"github.com/smykla-skalski/tmplcheck/pkg/logger"
	"github.com/smykla-skalski/tmplcheck/pkg/tree"
)

// ErrOverwriteDeclined is returned when a corrupt config may not be replaced.
var ErrOverwriteDeclined = errors.New("overwrite of unreadable config declined")

// Confirmer asks yes/no questions.
type Confirmer interface {
	Confirm(ctx context.Context, question string, defaultValue bool) (bool, error)
}

// Snapshotter copies a file aside before it is replaced.
type Snapshotter interface {
	Snapshot(source string) (*backup.Snapshot, error)
}

// Session runs one check of a config file against a template.
type Session struct {
	Reconciler *Reconciler
	Confirmer  Confirmer

	// Backups is nil when snapshots are disabled.
	Backups Snapshotter

	// AutoApprove overwrites corrupt configs without asking.
	AutoApprove bool

	Out   io.Writer
	Theme color.Theme
	Log   logger.Logger
}

// Run loads both documents, repairs the config and writes it back.
// Nothing is written when reconciliation fails.
func (s *Session) Run(ctx context.Context, templatePath, configPath string) (*Report, error) {
	tmpl, err := store.LoadTemplate(templatePath)
	if err != nil {
		return nil, err
	}

	cfg, err := s.loadConfig(ctx, configPath)
	if err != nil {
		return nil, err
	}

	cfg, report, err := s.Reconciler.Reconcile(ctx, cfg, tmpl)
	if err != nil {
		return report, err
	}

	if err := s.snapshot(configPath); err != nil {
		return report, err
	}

	if err := store.Persist(configPath, cfg); err != nil {
		return report, err
	}

	s.Log.Info("config persisted", "path", configPath, "repaired", len(report.Repaired()))

	return report, nil
}

func (s *Session) loadConfig(ctx context.Context, path string) (*tree.Tree, error) {
	cfg, err := store.Load(path)

	switch {
	case err == nil:
		return cfg, nil
	case errors.Is(err, store.ErrNotFound):
		s.println(s.Theme.Warning.Render(fmt.Sprintf("Couldn't find %s Creating it now.", path)))
		s.Log.Info("config missing", "path", path)

		if err := store.Reset(path); err != nil {
			return nil, err
		}

		return tree.New(), nil
	case errors.Is(err, store.ErrCorrupt):
		return s.replaceCorrupt(ctx, path, err)
	default:
		return nil, err
	}
}

func (s *Session) replaceCorrupt(ctx context.Context, path string, cause error) (*tree.Tree, error) {
	s.Log.Error("config unreadable", "path", path, "error", cause.Error())

	approved := s.AutoApprove
	if !approved {
		var err error

		approved, err = s.Confirmer.Confirm(ctx, fmt.Sprintf("Couldn't read %s. Overwrite it?", path), false)
		if err != nil {
			return nil, errors.Wrap(err, "confirming overwrite")
		}
	}

	if !approved {
		return nil, errors.WithSecondaryError(errors.Wrapf(ErrOverwriteDeclined, "%s", path), cause)
	}

	if err := s.snapshot(path); err != nil {
		return nil, err
	}

	if err := store.Reset(path); err != nil {
		return nil, err
	}

	return tree.New(), nil
}

func (s *Session) snapshot(path string) error {
	if s.Backups == nil {
		return nil
	}

	snap, err := s.Backups.Snapshot(path)
	if err != nil {
		return errors.Wrapf(err, "backing up %s", path)
	}

	if snap != nil {
		s.Log.Debug("snapshot taken", "path", snap.Path, "checksum", snap.Checksum)
	}

	return nil
}

func (s *Session) println(line string) {
	if s.Out != nil {
		_, _ = fmt.Fprintln(s.Out, line)
	}
}
