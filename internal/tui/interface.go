// Package tui provides terminal user interface components.
package tui

import (
	"context"

	"github.com/cockroachdb/errors"

	"github.com/smykla-skalski/tmplcheck/internal/prompt"
)

// ErrAborted is returned when the user quits an interactive form.
var ErrAborted = errors.New("aborted by user")

// UI abstracts the interactive (huh) and fallback (line prompt) front ends.
type UI interface {
	prompt.Asker

	// Confirm asks a yes/no question.
	Confirm(ctx context.Context, question string, defaultValue bool) (bool, error)

	// AskSecret asks once for a secret value. Blank input yields "".
	AskSecret(ctx context.Context, name, description string) (string, error)

	// IsInteractive returns true if running in an interactive terminal.
	IsInteractive() bool
}
