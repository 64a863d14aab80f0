package backup

import (
	"io/fs"
	"os"
	"path/filepath"
	"slices"
	"time"

	"github.com/cockroachdb/errors"

	"github.com/smykla-skalski/tmplcheck/internal/fsutil"
)

// DirPerm is the permission for the backup directory.
const DirPerm fs.FileMode = 0o700

// Manager stores snapshots of files in one directory.
type Manager struct {
	dir          string
	maxSnapshots int
	now          func() time.Time
}

// Option configures a Manager.
type Option func(*Manager)

// WithClock replaces the time source.
func WithClock(now func() time.Time) Option {
	return func(m *Manager) {
		m.now = now
	}
}

// NewManager creates a Manager keeping at most maxSnapshots copies per source.
func NewManager(dir string, maxSnapshots int, opts ...Option) (*Manager, error) {
	if maxSnapshots <= 0 {
		return nil, ErrInvalidMaxSnapshots
	}

	m := &Manager{
		dir:          dir,
		maxSnapshots: maxSnapshots,
		now:          time.Now,
	}

	for _, opt := range opts {
		opt(m)
	}

	return m, nil
}

// Dir returns the backup directory.
func (m *Manager) Dir() string {
	return m.dir
}

// Snapshot copies source into the backup directory and prunes old copies.
// A missing source yields (nil, nil). When the newest copy already holds the
// same content it is returned and nothing is written.
func (m *Manager) Snapshot(source string) (*Snapshot, error) {
	data, err := os.ReadFile(source) //nolint:gosec // source is the managed config file
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, nil
		}

		return nil, errors.Wrapf(err, "reading %s", source)
	}

	checksum := ComputeContentHash(data)
	stem := sourceStem(source)

	existing, err := m.List(source)
	if err != nil {
		return nil, err
	}

	if len(existing) > 0 && existing[0].Checksum == checksum {
		return &existing[0], nil
	}

	if err := os.MkdirAll(m.dir, DirPerm); err != nil {
		return nil, errors.Wrap(err, "failed to create backup directory")
	}

	ts := m.now().UTC()
	path := filepath.Join(m.dir, snapshotName(stem, ts))

	if err := fsutil.AtomicWriteFile(path, data); err != nil {
		return nil, errors.Wrap(err, "failed to write snapshot")
	}

	snap := &Snapshot{
		Path:      path,
		Source:    stem,
		Timestamp: ts,
		Size:      int64(len(data)),
		Checksum:  checksum,
	}

	if _, err := m.Prune(source); err != nil {
		return snap, err
	}

	return snap, nil
}

// List returns the snapshots of source, newest first.
func (m *Manager) List(source string) ([]Snapshot, error) {
	entries, err := os.ReadDir(m.dir)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, nil
		}

		return nil, errors.Wrap(err, "failed to read backup directory")
	}

	stem := sourceStem(source)
	snapshots := make([]Snapshot, 0, len(entries))

	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}

		ts, ok := parseSnapshotName(stem, entry.Name())
		if !ok {
			continue
		}

		path := filepath.Join(m.dir, entry.Name())

		data, err := os.ReadFile(path) //nolint:gosec // path is inside the backup dir
		if err != nil {
			return nil, errors.Wrapf(err, "reading snapshot %s", entry.Name())
		}

		snapshots = append(snapshots, Snapshot{
			Path:      path,
			Source:    stem,
			Timestamp: ts,
			Size:      int64(len(data)),
			Checksum:  ComputeContentHash(data),
		})
	}

	slices.SortFunc(snapshots, func(a, b Snapshot) int {
		return b.Timestamp.Compare(a.Timestamp)
	})

	return snapshots, nil
}

// Restore copies snap back over target.
func (m *Manager) Restore(snap Snapshot, target string) error {
	data, err := readVerified(snap)
	if err != nil {
		return err
	}

	return fsutil.AtomicWriteFile(target, data)
}

// RestoreWithBackup snapshots target and then restores snap over it. The
// snapshot content is read first, so pruning by the safety copy cannot lose
// it. The safety snapshot is returned, nil when target did not exist.
func (m *Manager) RestoreWithBackup(snap Snapshot, target string) (*Snapshot, error) {
	data, err := readVerified(snap)
	if err != nil {
		return nil, err
	}

	safety, err := m.Snapshot(target)
	if err != nil {
		return nil, errors.Wrap(err, "safety snapshot")
	}

	if err := fsutil.AtomicWriteFile(target, data); err != nil {
		return safety, err
	}

	return safety, nil
}

func readVerified(snap Snapshot) ([]byte, error) {
	data, err := os.ReadFile(snap.Path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, errors.Wrapf(ErrSnapshotNotFound, "%s", snap.Path)
		}

		return nil, errors.Wrapf(err, "reading snapshot %s", snap.Path)
	}

	if ComputeContentHash(data) != snap.Checksum {
		return nil, errors.Newf("snapshot %s changed since it was listed", snap.Path)
	}

	return data, nil
}
