package backup

import (
	"os"

	"github.com/cockroachdb/errors"
)

// Prune removes the snapshots of source beyond the newest maxSnapshots and
// returns what it removed.
func (m *Manager) Prune(source string) ([]Snapshot, error) {
	snapshots, err := m.List(source)
	if err != nil {
		return nil, err
	}

	if len(snapshots) <= m.maxSnapshots {
		return nil, nil
	}

	removed := snapshots[m.maxSnapshots:]

	var errs error

	for _, snap := range removed {
		if err := os.Remove(snap.Path); err != nil {
			errs = errors.CombineErrors(errs, errors.Wrapf(err, "removing %s", snap.Path))
		}
	}

	return removed, errs
}
