package reconcile_test

import (
	"bytes"
	"context"
	"strings"
	"testing"

	"github.com/cockroachdb/errors"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"go.uber.org/mock/gomock"

	"github.com/smykla-skalski/tmplcheck/internal/color"
	"github.com/smykla-skalski/tmplcheck/internal/prompt"
	"github.com/smykla-skalski/tmplcheck/internal/reconcile"
	"github.com/smykla-skalski/tmplcheck/internal/report"
	"github.com/smykla-skalski/tmplcheck/internal/store"
	"github.com/smykla-skalski/tmplcheck/pkg/logger"
	"github.com/smykla-skalski/tmplcheck/pkg/rules"
	"github.com/smykla-skalski/tmplcheck/pkg/tree"
)

func TestReconcile(t *testing.T) {
	RegisterFailHandler(Fail)
	RunSpecs(t, "Reconcile Suite")
}

func decode(doc string) *tree.Tree {
	GinkgoHelper()

	t, err := store.Decode([]byte(doc))
	Expect(err).NotTo(HaveOccurred())

	return t
}

func encode(t *tree.Tree) string {
	GinkgoHelper()

	data, err := store.Encode(t)
	Expect(err).NotTo(HaveOccurred())

	return string(data)
}

func named(name string) gomock.Matcher {
	return gomock.Cond(func(req prompt.Request) bool {
		return req.Name == name
	})
}

var _ = Describe("Reconciler", func() {
	var (
		ctrl  *gomock.Controller
		asker *prompt.MockAsker
		r     *reconcile.Reconciler
		ctx   context.Context
	)

	BeforeEach(func() {
		ctrl = gomock.NewController(GinkgoT())
		asker = prompt.NewMockAsker(ctrl)
		r = reconcile.New(asker, logger.NewNoOpLogger())
		ctx = context.Background()
	})

	const dbTemplate = `
[db.host]
type = "str"

[db.port]
type = "int"
nmin = 1
nmax = 65535
`

	It("leaves a conforming config alone without asking", func() {
		cfg := decode("[db]\nhost = 'localhost'\nport = 5432\n")
		before := encode(cfg)

		out, rep, err := r.Reconcile(ctx, cfg, decode(dbTemplate))
		Expect(err).NotTo(HaveOccurred())
		Expect(encode(out)).To(Equal(before))
		Expect(rep.Entries).To(HaveLen(2))
		Expect(rep.Repaired()).To(BeEmpty())
		Expect(rep.Passed()).To(Equal(2))
	})

	It("repairs a port of the wrong type", func() {
		asker.EXPECT().
			Ask(gomock.Any(), named("port")).
			DoAndReturn(func(_ context.Context, req prompt.Request) (any, error) {
				Expect(req.Message).To(Equal("Non-optional port="))
				Expect(req.Kind).To(Equal(rules.KindInt))
				Expect(*req.Max).To(Equal(65535.0))

				return int64(5432), nil
			})

		cfg := decode("[db]\nhost = 'localhost'\nport = 'abc'\n")

		out, rep, err := r.Reconcile(ctx, cfg, decode(dbTemplate))
		Expect(err).NotTo(HaveOccurred())
		Expect(encode(out)).To(Equal("[db]\nhost = 'localhost'\nport = 5432\n"))

		repaired := rep.Repaired()
		Expect(repaired).To(HaveLen(1))
		Expect(repaired[0].Path.String()).To(Equal("db.port"))
		Expect(repaired[0].Reason).To(Equal(rules.ReasonType))
		Expect(repaired[0].Before).To(Equal("abc"))
		Expect(repaired[0].After).To(Equal(int64(5432)))
	})

	It("coerces conforming values to the declared type", func() {
		cfg := decode("[db]\nhost = 'localhost'\nport = '5432'\n")

		out, rep, err := r.Reconcile(ctx, cfg, decode(dbTemplate))
		Expect(err).NotTo(HaveOccurred())
		Expect(rep.Repaired()).To(BeEmpty())

		port, _ := out.Lookup(tree.Path{"db", "port"})
		Expect(port).To(Equal(int64(5432)))
	})

	It("asks when a value is not among the options", func() {
		asker.EXPECT().
			Ask(gomock.Any(), named("mode")).
			DoAndReturn(func(_ context.Context, req prompt.Request) (any, error) {
				Expect(req.Options).To(Equal([]any{"dev", "prod"}))
				Expect(req.Message).To(Equal("Example: dev\nNon-optional mode="))

				return "prod", nil
			})

		tmpl := decode("[mode]\noptions = ['dev', 'prod']\nexample = 'dev'\n")

		out, rep, err := r.Reconcile(ctx, decode("mode = 'test'\n"), tmpl)
		Expect(err).NotTo(HaveOccurred())
		Expect(encode(out)).To(Equal("mode = 'prod'\n"))
		Expect(rep.Repaired()[0].Reason).To(Equal(rules.ReasonOptions))
	})

	It("asks for leaves in template order", func() {
		gomock.InOrder(
			asker.EXPECT().Ask(gomock.Any(), named("host")).Return("db.local", nil),
			asker.EXPECT().Ask(gomock.Any(), named("port")).Return(int64(5432), nil),
		)

		out, rep, err := r.Reconcile(ctx, tree.New(), decode(dbTemplate))
		Expect(err).NotTo(HaveOccurred())
		Expect(encode(out)).To(Equal("[db]\nhost = 'db.local'\nport = 5432\n"))
		Expect(rep.Entries[0].Reason).To(Equal(rules.ReasonEmpty))
	})

	It("is idempotent once repaired", func() {
		asker.EXPECT().Ask(gomock.Any(), named("host")).Return("localhost", nil)
		asker.EXPECT().Ask(gomock.Any(), named("port")).Return(int64(80), nil)

		tmpl := decode(dbTemplate)

		first, _, err := r.Reconcile(ctx, decode("[db]\nport = 0\n"), tmpl)
		Expect(err).NotTo(HaveOccurred())
		firstText := encode(first)

		second, rep, err := r.Reconcile(ctx, decode(firstText), tmpl)
		Expect(err).NotTo(HaveOccurred())
		Expect(rep.Repaired()).To(BeEmpty())
		Expect(encode(second)).To(Equal(firstText))
	})

	It("keeps keys the template does not mention", func() {
		cfg := decode("extra = 1\n\n[db]\nhost = 'localhost'\nport = 22\nlegacy = true\n\n[other]\nx = 'y'\n")
		before := encode(cfg)

		out, _, err := r.Reconcile(ctx, cfg, decode(dbTemplate))
		Expect(err).NotTo(HaveOccurred())
		Expect(encode(out)).To(Equal(before))
	})

	It("replaces a scalar standing where a table belongs", func() {
		asker.EXPECT().Ask(gomock.Any(), named("host")).Return("h", nil)
		asker.EXPECT().Ask(gomock.Any(), named("port")).Return(int64(1), nil)

		out, _, err := r.Reconcile(ctx, decode("db = 'oops'\n"), decode(dbTemplate))
		Expect(err).NotTo(HaveOccurred())

		sub, ok := out.Subtree("db")
		Expect(ok).To(BeTrue())
		Expect(sub.Keys()).To(Equal([]string{"host", "port"}))
	})

	It("skips optional leaves without a value", func() {
		tmpl := decode("[nickname]\ntype = 'str'\noptional = true\n")

		out, rep, err := r.Reconcile(ctx, tree.New(), tmpl)
		Expect(err).NotTo(HaveOccurred())
		Expect(encode(out)).To(Equal("[nickname]\n"))
		Expect(rep.Repaired()).To(BeEmpty())
	})

	It("still checks optional leaves that hold a value", func() {
		asker.EXPECT().Ask(gomock.Any(), named("retries")).
			DoAndReturn(func(_ context.Context, req prompt.Request) (any, error) {
				Expect(req.Message).To(Equal("Optional retries="))

				return tree.Empty(), nil
			})

		tmpl := decode("[retries]\ntype = 'int'\noptional = true\nnmax = 5\n")

		out, _, err := r.Reconcile(ctx, decode("retries = 9\n"), tmpl)
		Expect(err).NotTo(HaveOccurred())
		Expect(encode(out)).To(Equal("[retries]\n"))
	})

	It("accepts an empty template leaf as any value", func() {
		out, rep, err := r.Reconcile(ctx, decode("note = [1, 2]\n"), decode("[note]\n"))
		Expect(err).NotTo(HaveOccurred())
		Expect(rep.Repaired()).To(BeEmpty())
		Expect(encode(out)).To(Equal("note = [1, 2]\n"))
	})

	It("stops at the first failed prompt", func() {
		asker.EXPECT().Ask(gomock.Any(), named("host")).Return(nil, errors.New("EOF"))

		_, rep, err := r.Reconcile(ctx, tree.New(), decode(dbTemplate))
		Expect(err).To(MatchError(ContainSubstring("db.host")))
		Expect(err).To(MatchError(ContainSubstring("EOF")))
		Expect(rep.Entries).To(BeEmpty())
	})

	It("rejects templates with invalid rule sets", func() {
		_, _, err := r.Reconcile(ctx, tree.New(), decode("[port]\ntype = 'complex'\n"))
		Expect(errors.Is(err, rules.ErrInvalidRuleSet)).To(BeTrue())
	})

	It("rejects an invalid rule set before asking for earlier leaves", func() {
		tmpl := decode("[host]\ntype = 'str'\n\n[port]\nregex = 5\n")

		_, _, err := r.Reconcile(ctx, tree.New(), tmpl)
		Expect(errors.Is(err, rules.ErrInvalidRuleSet)).To(BeTrue())
		Expect(err).To(MatchError(ContainSubstring("leaf port")))
	})

	It("substitutes the default on blank input through a line asker", func() {
		var out bytes.Buffer

		lines := prompt.NewLineAsker(prompt.NewPrompter(strings.NewReader("\n"), &out), color.Theme{})
		r = reconcile.New(lines, logger.NewNoOpLogger())

		tmpl := decode("[workers]\ntype = 'int'\ndefault = '4'\n")

		cfg, _, err := r.Reconcile(ctx, tree.New(), tmpl)
		Expect(err).NotTo(HaveOccurred())
		Expect(encode(cfg)).To(Equal("workers = 4\n"))
		Expect(out.String()).To(ContainSubstring("Non-optional workers= [4] "))
	})

	Describe("scenarios through a line asker", func() {
		var out *bytes.Buffer

		withInput := func(input string) {
			out = &bytes.Buffer{}
			lines := prompt.NewLineAsker(prompt.NewPrompter(strings.NewReader(input), out), color.Theme{})
			r = reconcile.New(lines, logger.NewNoOpLogger())
		}

		It("stores the integer default for an absent port on blank input", func() {
			withInput("\n")

			tmpl := decode("[db.port]\ntype = 'int'\nnmin = 1\nnmax = 65535\ndefault = 5432\n")

			cfg, _, err := r.Reconcile(ctx, tree.New(), tmpl)
			Expect(err).NotTo(HaveOccurred())

			port, _ := cfg.Lookup(tree.Path{"db", "port"})
			Expect(port).To(Equal(int64(5432)))
		})

		It("asks until the mode is one of the options", func() {
			withInput("quick\nslow\nfast\n")

			tmpl := decode("[mode]\noptions = ['fast', 'safe']\n")

			cfg, _, err := r.Reconcile(ctx, decode("mode = 'quick'\n"), tmpl)
			Expect(err).NotTo(HaveOccurred())
			Expect(encode(cfg)).To(Equal("mode = 'fast'\n"))
			Expect(strings.Count(out.String(), rules.DefaultInputError)).To(Equal(2))
		})
	})

	Describe("Rows", func() {
		It("converts entries for the table renderer", func() {
			asker.EXPECT().Ask(gomock.Any(), named("port")).Return(int64(1), nil)

			_, rep, err := r.Reconcile(ctx, decode("[db]\nhost = 'h'\n"), decode(dbTemplate))
			Expect(err).NotTo(HaveOccurred())

			Expect(rep.Rows()).To(Equal([]report.Row{
				{Status: report.StatusPass, Name: "db.host", Message: "ok"},
				{Status: report.StatusRepaired, Name: "db.port", Message: "repaired: missing"},
			}))
		})
	})
})

var _ = Describe("Message", func() {
	It("prefixes examples and marks optional leaves", func() {
		Expect(reconcile.Message("port", rules.RuleSet{})).To(Equal("Non-optional port="))
		Expect(reconcile.Message("port", rules.RuleSet{Example: int64(80), HasExample: true})).
			To(Equal("Example: 80\nNon-optional port="))
		Expect(reconcile.Message("tags", rules.RuleSet{Optional: true})).To(Equal("Optional tags="))
	})
})

var _ = Describe("Check", func() {
	It("lists failing leaves without changing the config", func() {
		tmpl := decode("[db.host]\ntype = 'str'\n\n[db.port]\ntype = 'int'\nnmax = 10\n\n[opt]\noptional = true\n")
		cfg := decode("[db]\nport = 99\n")
		before := encode(cfg)

		failures, err := reconcile.Check(cfg, tmpl)
		Expect(err).NotTo(HaveOccurred())
		Expect(encode(cfg)).To(Equal(before))

		Expect(failures).To(HaveLen(2))
		Expect(failures[0].Path.String()).To(Equal("db.host"))
		Expect(failures[0].Reason).To(Equal(rules.ReasonEmpty))
		Expect(failures[1].Reason).To(Equal(rules.ReasonBounds))
		Expect(failures[1].Message).To(Equal(rules.DefaultOOBError))

		rows := reconcile.FailureRows(failures)
		Expect(rows[1]).To(Equal(report.Row{Status: report.StatusFail, Name: "db.port", Message: rules.DefaultOOBError}))
	})

	It("treats a scalar in place of a table as missing leaves", func() {
		failures, err := reconcile.Check(decode("db = 1\n"), decode("[db]\nhost = {}\n"))
		Expect(err).NotTo(HaveOccurred())
		Expect(failures).To(HaveLen(1))
	})
})
