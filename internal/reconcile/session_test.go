package reconcile_test

import (
	"bytes"
	"context"
	"os"
	"path/filepath"

	"github.com/cockroachdb/errors"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"go.uber.org/mock/gomock"

	"github.com/smykla-skalski/tmplcheck/internal/backup"
	"github.com/smykla-skalski/tmplcheck/internal/color"
	"github.com/smykla-skalski/tmplcheck/internal/prompt"
	"github.com/smykla-skalski/tmplcheck/internal/reconcile"
	"github.com/smykla-skalski/tmplcheck/internal/store"
	"github.com/smykla-skalski/tmplcheck/pkg/logger"
)

type fakeConfirmer struct {
	answer    bool
	err       error
	questions []string
}

func (f *fakeConfirmer) Confirm(_ context.Context, question string, _ bool) (bool, error) {
	f.questions = append(f.questions, question)

	return f.answer, f.err
}

var _ = Describe("Session", func() {
	var (
		ctrl      *gomock.Controller
		asker     *prompt.MockAsker
		confirmer *fakeConfirmer
		backups   *backup.Manager
		out       *bytes.Buffer
		session   *reconcile.Session
		dir       string
		tmplPath  string
		cfgPath   string
	)

	BeforeEach(func() {
		ctrl = gomock.NewController(GinkgoT())
		asker = prompt.NewMockAsker(ctrl)
		confirmer = &fakeConfirmer{}
		out = &bytes.Buffer{}
		dir = GinkgoT().TempDir()

		var err error

		backups, err = backup.NewManager(filepath.Join(dir, "backups"), 3)
		Expect(err).NotTo(HaveOccurred())

		tmplPath = filepath.Join(dir, "template.toml")
		cfgPath = filepath.Join(dir, "config.toml")

		Expect(os.WriteFile(tmplPath, []byte("[name]\ntype = 'str'\n"), 0o600)).To(Succeed())

		session = &reconcile.Session{
			Reconciler: reconcile.New(asker, logger.NewNoOpLogger()),
			Confirmer:  confirmer,
			Backups:    backups,
			Out:        out,
			Theme:      color.Theme{},
			Log:        logger.NewNoOpLogger(),
		}
	})

	readConfig := func() string {
		GinkgoHelper()

		data, err := os.ReadFile(cfgPath)
		Expect(err).NotTo(HaveOccurred())

		return string(data)
	}

	It("creates a missing config and fills it in", func() {
		asker.EXPECT().Ask(gomock.Any(), named("name")).Return("x", nil)

		rep, err := session.Run(context.Background(), tmplPath, cfgPath)
		Expect(err).NotTo(HaveOccurred())
		Expect(rep.Repaired()).To(HaveLen(1))

		Expect(out.String()).To(Equal("Couldn't find " + cfgPath + " Creating it now.\n"))
		Expect(readConfig()).To(Equal("name = 'x'\n"))
	})

	It("rewrites a conforming config unchanged and snapshots it once", func() {
		Expect(os.WriteFile(cfgPath, []byte("name = 'x'\n"), 0o600)).To(Succeed())

		for range 2 {
			_, err := session.Run(context.Background(), tmplPath, cfgPath)
			Expect(err).NotTo(HaveOccurred())
		}

		Expect(readConfig()).To(Equal("name = 'x'\n"))

		snaps, err := backups.List(cfgPath)
		Expect(err).NotTo(HaveOccurred())
		Expect(snaps).To(HaveLen(1))
	})

	Context("with an unreadable config", func() {
		BeforeEach(func() {
			Expect(os.WriteFile(cfgPath, []byte("name = = 1\n"), 0o600)).To(Succeed())
		})

		It("keeps the file when the overwrite is declined", func() {
			_, err := session.Run(context.Background(), tmplPath, cfgPath)
			Expect(errors.Is(err, reconcile.ErrOverwriteDeclined)).To(BeTrue())

			Expect(confirmer.questions).To(Equal([]string{"Couldn't read " + cfgPath + ". Overwrite it?"}))
			Expect(readConfig()).To(Equal("name = = 1\n"))
		})

		It("backs the file up and starts over when approved", func() {
			confirmer.answer = true
			asker.EXPECT().Ask(gomock.Any(), named("name")).Return("fresh", nil)

			_, err := session.Run(context.Background(), tmplPath, cfgPath)
			Expect(err).NotTo(HaveOccurred())
			Expect(readConfig()).To(Equal("name = 'fresh'\n"))

			snaps, err := backups.List(cfgPath)
			Expect(err).NotTo(HaveOccurred())
			Expect(snaps).NotTo(BeEmpty())

			oldest, err := os.ReadFile(snaps[len(snaps)-1].Path)
			Expect(err).NotTo(HaveOccurred())
			Expect(string(oldest)).To(Equal("name = = 1\n"))
		})

		It("skips the question with auto-approve", func() {
			session.AutoApprove = true
			asker.EXPECT().Ask(gomock.Any(), gomock.Any()).Return("y", nil)

			_, err := session.Run(context.Background(), tmplPath, cfgPath)
			Expect(err).NotTo(HaveOccurred())
			Expect(confirmer.questions).To(BeEmpty())
		})

		It("reports a failed confirmation", func() {
			confirmer.err = prompt.ErrInvalidInput

			_, err := session.Run(context.Background(), tmplPath, cfgPath)
			Expect(errors.Is(err, prompt.ErrInvalidInput)).To(BeTrue())
		})
	})

	It("persists nothing when a prompt fails", func() {
		Expect(os.WriteFile(cfgPath, []byte("other = 1\n"), 0o600)).To(Succeed())
		asker.EXPECT().Ask(gomock.Any(), gomock.Any()).Return(nil, context.Canceled)

		_, err := session.Run(context.Background(), tmplPath, cfgPath)
		Expect(errors.Is(err, context.Canceled)).To(BeTrue())
		Expect(readConfig()).To(Equal("other = 1\n"))
	})

	It("fails on a broken template before touching the config", func() {
		Expect(os.WriteFile(tmplPath, []byte("[x]\ntype = 3\n"), 0o600)).To(Succeed())

		_, err := session.Run(context.Background(), tmplPath, cfgPath)
		Expect(errors.Is(err, store.ErrTemplate)).To(BeTrue())

		_, statErr := os.Stat(cfgPath)
		Expect(os.IsNotExist(statErr)).To(BeTrue())
	})

	It("works without backups", func() {
		session.Backups = nil
		Expect(os.WriteFile(cfgPath, []byte("name = 'x'\n"), 0o600)).To(Succeed())

		_, err := session.Run(context.Background(), tmplPath, cfgPath)
		Expect(err).NotTo(HaveOccurred())

		_, statErr := os.Stat(backups.Dir())
		Expect(os.IsNotExist(statErr)).To(BeTrue())
	})
})
