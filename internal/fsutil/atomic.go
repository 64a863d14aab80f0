// Package fsutil provides file helpers shared by the store and backups.
package fsutil

import (
	"os"
	"path/filepath"

	"github.com/cockroachdb/errors"
)

const (
	// DirPermissions is used for directories created on demand.
	DirPermissions = 0o750

	// FilePermissions is used for new files.
	FilePermissions = 0o600
)

// AtomicWriteFile writes data to path through a temp file in the same
// directory and a rename. An existing file keeps its permissions.
func AtomicWriteFile(path string, data []byte) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, DirPermissions); err != nil {
		return errors.Wrap(err, "failed to create directory")
	}

	perm := os.FileMode(FilePermissions)
	if info, err := os.Stat(path); err == nil {
		perm = info.Mode().Perm()
	}

	tmp, err := os.CreateTemp(dir, "."+filepath.Base(path)+".*.tmp")
	if err != nil {
		return errors.Wrap(err, "failed to create temp file")
	}

	tmpPath := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmpPath)

		return errors.Wrap(err, "failed to write temp file")
	}

	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmpPath)

		return errors.Wrap(err, "failed to close temp file")
	}

	if err := os.Chmod(tmpPath, perm); err != nil {
		_ = os.Remove(tmpPath)

		return errors.Wrap(err, "failed to set temp file permissions")
	}

	if err := os.Rename(tmpPath, path); err != nil {
		_ = os.Remove(tmpPath)

		return errors.Wrap(err, "failed to rename temp file")
	}

	return nil
}

// Exists reports whether path exists.
func Exists(path string) bool {
	_, err := os.Stat(path)

	return err == nil
}
