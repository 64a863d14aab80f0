package backup_test

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/cockroachdb/errors"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/smykla-skalski/tmplcheck/internal/backup"
)

func TestBackup(t *testing.T) {
	RegisterFailHandler(Fail)
	RunSpecs(t, "Backup Suite")
}

var _ = Describe("Manager", func() {
	var (
		dir     string
		source  string
		clock   time.Time
		manager *backup.Manager
	)

	tick := func() time.Time {
		clock = clock.Add(time.Second)

		return clock
	}

	writeSource := func(content string) {
		Expect(os.WriteFile(source, []byte(content), 0o600)).To(Succeed())
	}

	BeforeEach(func() {
		root := GinkgoT().TempDir()
		dir = filepath.Join(root, "backups")
		source = filepath.Join(root, "config.toml")
		clock = time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)

		var err error

		manager, err = backup.NewManager(dir, 2, backup.WithClock(tick))
		Expect(err).NotTo(HaveOccurred())
	})

	It("rejects a non-positive retention count", func() {
		_, err := backup.NewManager(dir, 0)
		Expect(err).To(MatchError(backup.ErrInvalidMaxSnapshots))
	})

	It("does nothing for a missing source", func() {
		snap, err := manager.Snapshot(source)
		Expect(err).NotTo(HaveOccurred())
		Expect(snap).To(BeNil())
	})

	It("stores a named, timestamped copy", func() {
		writeSource("= broken")

		snap, err := manager.Snapshot(source)
		Expect(err).NotTo(HaveOccurred())
		Expect(filepath.Base(snap.Path)).To(Equal("config.20260102T030406.000000000Z.toml"))
		Expect(snap.Size).To(Equal(int64(8)))
		Expect(snap.HumanSize()).To(Equal("8 B"))

		data, err := os.ReadFile(snap.Path)
		Expect(err).NotTo(HaveOccurred())
		Expect(string(data)).To(Equal("= broken"))
	})

	It("skips unchanged content", func() {
		writeSource("a = 1\n")

		first, err := manager.Snapshot(source)
		Expect(err).NotTo(HaveOccurred())

		second, err := manager.Snapshot(source)
		Expect(err).NotTo(HaveOccurred())
		Expect(second.Path).To(Equal(first.Path))

		list, err := manager.List(source)
		Expect(err).NotTo(HaveOccurred())
		Expect(list).To(HaveLen(1))
	})

	It("lists newest first and prunes beyond the limit", func() {
		for _, content := range []string{"a = 1\n", "a = 2\n", "a = 3\n"} {
			writeSource(content)

			_, err := manager.Snapshot(source)
			Expect(err).NotTo(HaveOccurred())
		}

		list, err := manager.List(source)
		Expect(err).NotTo(HaveOccurred())
		Expect(list).To(HaveLen(2))
		Expect(list[0].Timestamp.After(list[1].Timestamp)).To(BeTrue())

		data, err := os.ReadFile(list[1].Path)
		Expect(err).NotTo(HaveOccurred())
		Expect(string(data)).To(Equal("a = 2\n"))
	})

	It("ignores files of other sources", func() {
		Expect(os.MkdirAll(dir, 0o700)).To(Succeed())
		Expect(os.WriteFile(filepath.Join(dir, "other.20260101T000000.000000000Z.toml"), nil, 0o600)).To(Succeed())
		Expect(os.WriteFile(filepath.Join(dir, "config.notes.toml"), nil, 0o600)).To(Succeed())

		list, err := manager.List(source)
		Expect(err).NotTo(HaveOccurred())
		Expect(list).To(BeEmpty())
	})

	It("restores a snapshot", func() {
		writeSource("a = 1\n")

		snap, err := manager.Snapshot(source)
		Expect(err).NotTo(HaveOccurred())

		writeSource("a = 2\n")
		Expect(manager.Restore(*snap, source)).To(Succeed())

		data, err := os.ReadFile(source)
		Expect(err).NotTo(HaveOccurred())
		Expect(string(data)).To(Equal("a = 1\n"))
	})

	It("restores the oldest snapshot even when the safety copy prunes it", func() {
		writeSource("a = 1\n")
		oldest, err := manager.Snapshot(source)
		Expect(err).NotTo(HaveOccurred())

		writeSource("a = 2\n")
		_, err = manager.Snapshot(source)
		Expect(err).NotTo(HaveOccurred())

		writeSource("a = 3\n")

		safety, err := manager.RestoreWithBackup(*oldest, source)
		Expect(err).NotTo(HaveOccurred())
		Expect(safety).NotTo(BeNil())

		data, err := os.ReadFile(source)
		Expect(err).NotTo(HaveOccurred())
		Expect(string(data)).To(Equal("a = 1\n"))

		list, err := manager.List(source)
		Expect(err).NotTo(HaveOccurred())
		Expect(list).To(HaveLen(2))
		Expect(list[0].Checksum).To(Equal(backup.ComputeContentHash([]byte("a = 3\n"))))
	})

	It("reports a missing snapshot", func() {
		err := manager.Restore(backup.Snapshot{Path: filepath.Join(dir, "gone.toml")}, source)
		Expect(errors.Is(err, backup.ErrSnapshotNotFound)).To(BeTrue())
	})
})

var _ = Describe("Snapshot", func() {
	It("renders its age", func() {
		now := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
		snap := backup.Snapshot{Timestamp: now.Add(-2 * time.Hour)}

		Expect(snap.Age(now)).To(Equal("2 hours ago"))
	})
})
