package tui

import (
	"context"
	"io"
	"strings"

	"github.com/charmbracelet/huh"
	"github.com/cockroachdb/errors"

	"github.com/smykla-skalski/tmplcheck/internal/prompt"
)

// ErrNoAcceptableOption is returned when none of a leaf's options satisfies
// its other rules, so no selection could ever be accepted.
var ErrNoAcceptableOption = errors.New("no option satisfies the leaf's rules")

const leaveEmpty = "(leave empty)"

// HuhUI implements UI using charmbracelet/huh.
type HuhUI struct {
	accessible bool
	in         io.Reader
	out        io.Writer
}

// NewHuhUI creates a new HuhUI instance.
func NewHuhUI() *HuhUI {
	return &HuhUI{}
}

// NewAccessibleHuhUI creates a HuhUI running forms in huh's accessible
// mode: numbered options and plain line prompts on in and out.
func NewAccessibleHuhUI(in io.Reader, out io.Writer) *HuhUI {
	return &HuhUI{accessible: true, in: in, out: out}
}

// IsInteractive returns true as HuhUI is for interactive terminals.
func (*HuhUI) IsInteractive() bool {
	return true
}

// Ask shows a select for leaves with options and a validated input otherwise.
// Only options the leaf accepts are offered.
func (h *HuhUI) Ask(ctx context.Context, req prompt.Request) (any, error) {
	var raw string

	field, err := buildLeafField(req, &raw)
	if err != nil {
		return nil, err
	}

	if err := h.runForm(ctx, field); err != nil {
		return nil, err
	}

	return req.Accept(strings.TrimSpace(raw))
}

// Confirm asks a yes/no question.
func (h *HuhUI) Confirm(ctx context.Context, question string, defaultValue bool) (bool, error) {
	answer := defaultValue

	field := huh.NewConfirm().
		Title(question).
		Affirmative("Yes").
		Negative("No").
		Value(&answer)

	if err := h.runForm(ctx, field); err != nil {
		return false, err
	}

	return answer, nil
}

// AskSecret asks once for a secret with masked input. Blank input is
// returned as "" for the caller to reject.
func (h *HuhUI) AskSecret(ctx context.Context, name, description string) (string, error) {
	var value string

	field := huh.NewInput().
		Title(name).
		Description(description).
		EchoMode(huh.EchoModePassword).
		Value(&value)

	if err := h.runForm(ctx, field); err != nil {
		return "", err
	}

	return strings.TrimSpace(value), nil
}

func buildLeafField(req prompt.Request, raw *string) (huh.Field, error) {
	validate := func(s string) error {
		_, err := req.Accept(strings.TrimSpace(s))

		return err
	}

	if len(req.Options) == 0 {
		return huh.NewInput().
			Title(req.Message).
			Description(req.Explanation).
			Placeholder(req.DefaultText()).
			Validate(validate).
			Value(raw), nil
	}

	opts := make([]huh.Option[string], 0, len(req.Options)+1)

	for _, text := range req.OptionTexts() {
		if validate(text) == nil {
			opts = append(opts, huh.NewOption(text, text))
		}
	}

	if len(opts) == 0 {
		return nil, errors.Wrapf(ErrNoAcceptableOption, "%s", req.Name)
	}

	if (req.Optional || req.HasDefault) && validate("") == nil {
		opts = append(opts, huh.NewOption(leaveEmpty, ""))
	}

	return huh.NewSelect[string]().
		Title(req.Message).
		Description(req.Explanation).
		Options(opts...).
		Validate(validate).
		Value(raw), nil
}

func (h *HuhUI) runForm(ctx context.Context, field huh.Field) error {
	if err := ctx.Err(); err != nil {
		return errors.Wrap(err, "prompt cancelled")
	}

	form := huh.NewForm(huh.NewGroup(field)).
		WithTheme(huh.ThemeCharm()).
		WithShowHelp(true).
		WithKeyMap(huh.NewDefaultKeyMap())

	if h.accessible {
		form = form.WithAccessible(true).WithInput(h.in).WithOutput(h.out)
	}

	if err := form.RunWithContext(ctx); err != nil {
		if errors.Is(err, huh.ErrUserAborted) {
			return ErrAborted
		}

		return errors.Wrap(err, "form failed")
	}

	return nil
}
