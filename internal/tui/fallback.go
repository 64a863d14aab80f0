package tui

import (
	"context"

	"github.com/cockroachdb/errors"

	"github.com/smykla-skalski/tmplcheck/internal/color"
	"github.com/smykla-skalski/tmplcheck/internal/prompt"
)

// FallbackUI implements UI using simple stdin/stdout prompts.
// This is used when the terminal is not interactive (CI, piped input, etc.).
type FallbackUI struct {
	*prompt.LineAsker

	prompter prompt.Prompter
	theme    color.Theme
}

// NewFallbackUI creates a FallbackUI on stdin and stdout.
func NewFallbackUI(theme color.Theme) *FallbackUI {
	return NewFallbackUIWithPrompter(prompt.NewStdPrompter(), theme)
}

// NewFallbackUIWithPrompter creates a FallbackUI with a custom prompter.
func NewFallbackUIWithPrompter(p prompt.Prompter, theme color.Theme) *FallbackUI {
	return &FallbackUI{
		LineAsker: prompt.NewLineAsker(p, theme),
		prompter:  p,
		theme:     theme,
	}
}

// IsInteractive returns false as FallbackUI is for non-interactive terminals.
func (*FallbackUI) IsInteractive() bool {
	return false
}

// Confirm asks until the answer parses as yes or no.
func (f *FallbackUI) Confirm(ctx context.Context, question string, defaultValue bool) (bool, error) {
	for {
		if err := ctx.Err(); err != nil {
			return false, errors.Wrap(err, "prompt cancelled")
		}

		answer, err := f.prompter.Confirm(question, defaultValue)
		if err == nil {
			return answer, nil
		}

		if !errors.Is(err, prompt.ErrInvalidInput) {
			return false, err
		}

		if perr := f.prompter.Println(f.theme.Fail.Render("Please answer y or n")); perr != nil {
			return false, perr
		}
	}
}

// AskSecret asks once for a secret. Input is echoed; blank input is
// returned as "" for the caller to reject.
func (f *FallbackUI) AskSecret(ctx context.Context, name, description string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", errors.Wrap(err, "prompt cancelled")
	}

	if description != "" {
		if err := f.prompter.Println(f.theme.Info.Render(description)); err != nil {
			return "", err
		}
	}

	return f.prompter.Line(f.theme.Label.Render(name+"=") + " ")
}
