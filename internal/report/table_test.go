package report_test

import (
	"strings"
	"testing"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/smykla-skalski/tmplcheck/internal/color"
	"github.com/smykla-skalski/tmplcheck/internal/report"
)

func TestReport(t *testing.T) {
	RegisterFailHandler(Fail)
	RunSpecs(t, "Report Suite")
}

func sampleRows() []report.Row {
	return []report.Row{
		{Status: report.StatusPass, Name: "db.host", Message: "ok"},
		{Status: report.StatusRepaired, Name: "db.port", Message: "Value is not of type int"},
		{Status: report.StatusFail, Name: "REDDIT_CLIENT_ID", Message: "not set"},
	}
}

var _ = Describe("Row", func() {
	It("maps statuses to single-width icons", func() {
		rows := sampleRows()

		Expect(rows[0].Icon()).To(Equal("✓"))
		Expect(rows[1].Icon()).To(Equal("~"))
		Expect(rows[2].Icon()).To(Equal("✗"))
		Expect(report.Row{Status: report.Status(42)}.Icon()).To(Equal("?"))
	})

	It("renders plain icons with a zero theme", func() {
		Expect(sampleRows()[0].StyledIcon(color.NewTheme(false))).To(Equal("✓"))
	})
})

var _ = Describe("RenderTable", func() {
	theme := color.NewTheme(false)

	It("returns nothing for no rows", func() {
		Expect(report.RenderTableWidth(80, nil, "Key", theme)).To(BeEmpty())
	})

	It("draws a rounded table with every row", func() {
		out := report.RenderTableWidth(0, sampleRows(), "Key", theme)

		Expect(out).To(HavePrefix("╭"))
		Expect(out).To(HaveSuffix("╯"))
		Expect(out).To(ContainSubstring("db.port"))
		Expect(out).To(ContainSubstring("REDDIT_CLIENT_ID"))
		Expect(strings.ToUpper(out)).To(ContainSubstring("KEY"))
	})

	It("keeps every line within the terminal width", func() {
		rows := []report.Row{{
			Status:  report.StatusFail,
			Name:    "server.listen",
			Message: strings.Repeat("word ", 40),
		}}

		out := report.RenderTableWidth(60, rows, "Key", theme)
		for line := range strings.SplitSeq(out, "\n") {
			Expect(len([]rune(line))).To(BeNumerically("<=", 60))
		}
	})
})

var _ = Describe("CalcColumnWidths", func() {
	It("gives up on narrow or unknown terminals", func() {
		Expect(report.CalcColumnWidths(0, sampleRows(), "Key")).To(BeNil())
		Expect(report.CalcColumnWidths(30, sampleRows(), "Key")).To(BeNil())
	})

	It("sizes the name column to the widest name", func() {
		widths := report.CalcColumnWidths(80, sampleRows(), "Key")

		Expect(widths[0]).To(Equal(1))
		Expect(widths[1]).To(Equal(len("REDDIT_CLIENT_ID")))
		Expect(widths[0] + widths[1] + widths[2]).To(Equal(80 - 3*3 - 1))
	})
})

var _ = Describe("PadToWidth", func() {
	It("pads by visible width and ignores ANSI codes", func() {
		Expect(report.PadToWidth("ab", 4)).To(Equal("ab  "))
		Expect(report.PadToWidth("\x1b[31mab\x1b[0m", 3)).To(Equal("\x1b[31mab\x1b[0m "))
		Expect(report.PadToWidth("abcd", 2)).To(Equal("abcd"))
	})
})

var _ = Describe("RenderSummary", func() {
	It("counts rows per status", func() {
		out := report.RenderSummary(sampleRows(), color.NewTheme(false))

		Expect(out).To(Equal("Summary: 1 ok, 1 repaired, 1 failed"))
	})

	It("omits the repaired count when nothing was repaired", func() {
		rows := []report.Row{{Status: report.StatusPass, Name: "a"}}

		Expect(report.RenderSummary(rows, color.NewTheme(false))).To(Equal("Summary: 1 ok, 0 failed"))
	})
})
