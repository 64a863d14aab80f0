package tui

import (
	"os"

	"golang.org/x/term"

	"github.com/smykla-skalski/tmplcheck/internal/color"
)

// New returns a HuhUI on a terminal and a FallbackUI otherwise.
func New(theme color.Theme) UI {
	if IsTerminal() {
		return NewHuhUI()
	}

	return NewFallbackUI(theme)
}

// NewWithFallback returns a FallbackUI when noTUI is set. Otherwise a
// terminal gets an accessible HuhUI when accessible is set, and New decides.
func NewWithFallback(noTUI, accessible bool, theme color.Theme) UI {
	if noTUI {
		return NewFallbackUI(theme)
	}

	if accessible && IsTerminal() {
		return NewAccessibleHuhUI(os.Stdin, os.Stdout)
	}

	return New(theme)
}

// IsTerminal checks if stdin and stdout are connected to a terminal.
func IsTerminal() bool {
	//nolint:gosec // G115: file descriptors are always small positive integers; uintptr→int is safe
	return term.IsTerminal(int(os.Stdin.Fd())) && term.IsTerminal(int(os.Stdout.Fd()))
}
