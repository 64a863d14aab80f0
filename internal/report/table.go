// Package report renders run results as terminal tables.
package report

import (
	"bytes"
	"fmt"
	"os"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/x/ansi"
	"github.com/mattn/go-runewidth"
	"github.com/olekukonko/tablewriter"
	"github.com/olekukonko/tablewriter/renderer"
	"github.com/olekukonko/tablewriter/tw"
	"golang.org/x/term"

	"github.com/smykla-skalski/tmplcheck/internal/color"
)

// Status is the state of one row.
type Status int

const (
	// StatusPass means nothing had to change.
	StatusPass Status = iota

	// StatusRepaired means a value was replaced or added.
	StatusRepaired

	// StatusFail means the item still does not conform.
	StatusFail
)

// Row is one line of a report table.
type Row struct {
	Status  Status
	Name    string
	Message string
}

// Icon returns a single-width status character.
func (r Row) Icon() string {
	switch r.Status {
	case StatusPass:
		return "✓"
	case StatusRepaired:
		return "~"
	case StatusFail:
		return "✗"
	default:
		return "?"
	}
}

// StyledIcon returns Icon colored by theme.
func (r Row) StyledIcon(theme color.Theme) string {
	switch r.Status {
	case StatusPass:
		return theme.Pass.Render(r.Icon())
	case StatusRepaired:
		return theme.Warning.Render(r.Icon())
	case StatusFail:
		return theme.Fail.Render(r.Icon())
	default:
		return r.Icon()
	}
}

// RenderTable draws rows in a rounded table with the given name column
// title. Long messages wrap when the terminal width is known.
func RenderTable(rows []Row, nameTitle string, theme color.Theme) string {
	return renderTableWidth(termWidth(), rows, nameTitle, theme)
}

func renderTableWidth(width int, rows []Row, nameTitle string, theme color.Theme) string {
	if len(rows) == 0 {
		return ""
	}

	colWidths := calcColumnWidths(width, rows, nameTitle)

	var buf bytes.Buffer

	opts := []tablewriter.Option{
		tablewriter.WithRenderer(renderer.NewBlueprint(tw.Rendition{
			Symbols: tw.NewSymbols(tw.StyleRounded),
		})),
		tablewriter.WithPadding(tw.Padding{Left: " ", Right: " "}),
		tablewriter.WithConfig(tablewriter.NewConfigBuilder().
			WithTrimSpace(tw.Off).
			Row().Formatting().WithAutoWrap(tw.WrapNormal).Build().
			Build().Build()),
	}

	if colWidths != nil {
		opts = append(opts, tablewriter.WithColumnWidths(toCellWidths(colWidths)))
	}

	t := tablewriter.NewTable(&buf, opts...)
	t.Header([]string{"", nameTitle, "Message"})

	for _, r := range rows {
		row := []string{r.StyledIcon(theme), theme.Label.Render(r.Name), r.Message}

		if colWidths != nil {
			for i, cell := range row {
				if w, ok := colWidths[i]; ok {
					row[i] = padToWidth(cell, w)
				}
			}
		}

		_ = t.Append(row)
	}

	_ = t.Render()

	return dimBorders(strings.TrimRight(buf.String(), "\n"), theme)
}

// RenderSummary returns a colored one-line count of rows per status.
func RenderSummary(rows []Row, theme color.Theme) string {
	var passed, repaired, failed int

	for _, r := range rows {
		switch r.Status {
		case StatusPass:
			passed++
		case StatusRepaired:
			repaired++
		case StatusFail:
			failed++
		}
	}

	parts := []string{theme.Pass.Render(fmt.Sprintf("%d ok", passed))}

	if repaired > 0 {
		parts = append(parts, styleIf(fmt.Sprintf("%d repaired", repaired), true, theme.Warning))
	}

	parts = append(parts, styleIf(fmt.Sprintf("%d failed", failed), failed > 0, theme.Fail))

	return "Summary: " + strings.Join(parts, ", ")
}

func styleIf(text string, active bool, style lipgloss.Style) string {
	if active {
		return style.Render(text)
	}

	return text
}

// calcColumnWidths fits the message column to the terminal. It returns nil
// when the width is unknown or too narrow for a table.
func calcColumnWidths(w int, rows []Row, nameTitle string) map[int]int {
	const (
		minTableW = 40
		minMsgW   = 20
		minNameW  = 5
		iconW     = 1
		numCols   = 3

		// border + left pad + right pad
		colOverhead = 3
	)

	if w < minTableW {
		return nil
	}

	nameW := max(runewidth.StringWidth(nameTitle), minNameW)
	for _, r := range rows {
		nameW = max(nameW, runewidth.StringWidth(r.Name))
	}

	available := w - numCols*colOverhead - 1 - iconW
	if available < minMsgW+minNameW {
		return nil
	}

	nameW = min(nameW, available-minMsgW)

	return map[int]int{
		0: iconW,
		1: nameW,
		2: available - nameW,
	}
}

func toCellWidths(contentWidths map[int]int) tw.Mapper[int, int] {
	const padW = 2

	m := make(tw.Mapper[int, int], len(contentWidths))
	for col, w := range contentWidths {
		m[col] = w + padW
	}

	return m
}

// padToWidth right-pads s to display width w, ignoring ANSI escapes.
func padToWidth(s string, w int) string {
	visible := runewidth.StringWidth(ansi.Strip(s))
	if visible >= w {
		return s
	}

	return s + strings.Repeat(" ", w-visible)
}

func dimBorders(s string, theme color.Theme) string {
	for _, ch := range []string{"╭", "╮", "╰", "╯", "│", "─", "┬", "┴", "├", "┤", "┼"} {
		s = strings.ReplaceAll(s, ch, theme.Muted.Render(ch))
	}

	return s
}

func termWidth() int {
	for _, f := range []*os.File{os.Stdout, os.Stderr} {
		if w, _, err := term.GetSize(int(f.Fd())); err == nil && w > 0 { //nolint:gosec // fd fits int
			return w
		}
	}

	return 0
}
