// Package color decides whether output is styled and holds the styles.
package color

import (
	"os"

	"github.com/charmbracelet/lipgloss"
	"golang.org/x/term"
)

// Enabled reports whether styled output should be used.
//
// Color is off when the --no-color flag is set, NO_COLOR is present
// (https://no-color.org), CLICOLOR=0 or TERM=dumb.
func Enabled(noColorFlag bool) bool {
	if noColorFlag {
		return false
	}

	if _, ok := os.LookupEnv("NO_COLOR"); ok {
		return false
	}

	if os.Getenv("CLICOLOR") == "0" {
		return false
	}

	return os.Getenv("TERM") != "dumb"
}

// IsTerminal returns true if f is attached to a terminal.
func IsTerminal(f *os.File) bool {
	return term.IsTerminal(int(f.Fd())) //nolint:gosec // fd fits in int
}

// Theme holds lipgloss styles for prompts and reports.
type Theme struct {
	Pass    lipgloss.Style
	Fail    lipgloss.Style
	Warning lipgloss.Style
	Info    lipgloss.Style
	Header  lipgloss.Style
	Label   lipgloss.Style
	Muted   lipgloss.Style
}

// NewTheme creates a Theme. When color is false, all styles are empty.
func NewTheme(color bool) Theme {
	if !color {
		return Theme{}
	}

	return Theme{
		Pass:    lipgloss.NewStyle().Foreground(lipgloss.Color("10")),
		Fail:    lipgloss.NewStyle().Foreground(lipgloss.Color("9")).Bold(true),
		Warning: lipgloss.NewStyle().Foreground(lipgloss.Color("11")),
		Info:    lipgloss.NewStyle().Foreground(lipgloss.Color("12")),
		Header:  lipgloss.NewStyle().Foreground(lipgloss.Color("14")).Bold(true),
		Label:   lipgloss.NewStyle().Bold(true),
		Muted:   lipgloss.NewStyle().Foreground(lipgloss.Color("8")),
	}
}

// ForOutput returns the theme for f, honoring the flag, the environment
// and whether f is a terminal.
func ForOutput(f *os.File, noColorFlag bool) Theme {
	return NewTheme(Enabled(noColorFlag) && IsTerminal(f))
}
