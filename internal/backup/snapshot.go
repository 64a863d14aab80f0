// Package backup keeps timestamped copies of configuration files before
// they are overwritten.
package backup

import (
	"crypto/sha256"
	"encoding/hex"
	"path/filepath"
	"strings"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/dustin/go-humanize"
)

var (
	// ErrSnapshotNotFound is returned when a snapshot is not found.
	ErrSnapshotNotFound = errors.New("snapshot not found")

	// ErrInvalidMaxSnapshots is returned when the retention count is not positive.
	ErrInvalidMaxSnapshots = errors.New("max snapshots must be positive")
)

const (
	// timestampLayout sorts lexically in creation order.
	timestampLayout = "20060102T150405.000000000Z"

	snapshotExt = ".toml"
)

// Snapshot is one stored copy of a source file.
type Snapshot struct {
	// Path is where the copy is stored.
	Path string

	// Source is the stem of the file that was copied.
	Source string

	// Timestamp is when the copy was taken (UTC).
	Timestamp time.Time

	// Size is the size of the copy in bytes.
	Size int64

	// Checksum is the SHA256 of the copy.
	Checksum string
}

// HumanSize renders Size for listings.
func (s Snapshot) HumanSize() string {
	return humanize.IBytes(uint64(max(s.Size, 0)))
}

// Age renders how long ago the snapshot was taken.
func (s Snapshot) Age(now time.Time) string {
	return humanize.RelTime(s.Timestamp, now, "ago", "from now")
}

// ComputeContentHash computes the SHA256 hash of content.
func ComputeContentHash(content []byte) string {
	hash := sha256.Sum256(content)

	return hex.EncodeToString(hash[:])
}

// sourceStem turns "/home/u/config.toml" into "config".
func sourceStem(source string) string {
	base := filepath.Base(source)

	return strings.TrimSuffix(base, filepath.Ext(base))
}

func snapshotName(stem string, ts time.Time) string {
	return stem + "." + ts.UTC().Format(timestampLayout) + snapshotExt
}

// parseSnapshotName returns the timestamp encoded in name when name belongs
// to stem.
func parseSnapshotName(stem, name string) (time.Time, bool) {
	rest, ok := strings.CutPrefix(name, stem+".")
	if !ok {
		return time.Time{}, false
	}

	rest, ok = strings.CutSuffix(rest, snapshotExt)
	if !ok {
		return time.Time{}, false
	}

	ts, err := time.Parse(timestampLayout, rest)
	if err != nil {
		return time.Time{}, false
	}

	return ts, true
}
