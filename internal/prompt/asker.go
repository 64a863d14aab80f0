package prompt

//go:generate mockgen -source=asker.go -destination=asker_mock.go -package=prompt

import (
	"context"
	"fmt"
	"strings"

	"github.com/cockroachdb/errors"
	"github.com/spf13/cast"

	"github.com/smykla-skalski/tmplcheck/internal/color"
	"github.com/smykla-skalski/tmplcheck/pkg/rules"
	"github.com/smykla-skalski/tmplcheck/pkg/tree"
)

// Asker solicits one accepted value for a leaf. Implementations loop until
// the input satisfies the request; they fail only when input itself fails
// (EOF, abort, cancelled context).
type Asker interface {
	Ask(ctx context.Context, req Request) (any, error)
}

// Request describes one repair prompt.
type Request struct {
	// Name is the leaf key shown to the user.
	Name string

	// Message is the prompt text, ending with "<name>=".
	Message string

	// Explanation is optional help text shown above the prompt.
	Explanation string

	// Kind is the coercion applied to raw input.
	Kind rules.Kind

	// Pattern must match the start of the input.
	Pattern string

	// Min and Max bound the value, or its length for strings.
	Min *float64
	Max *float64

	// Options lists the admissible values.
	Options []any

	// Default is used on blank input when HasDefault is set.
	Default    any
	HasDefault bool

	// Optional accepts blank input as the empty sentinel.
	Optional bool

	// InputError is shown when input fails any check but bounds.
	InputError string

	// OOBError is shown when input is out of bounds.
	OOBError string

	// Rules re-checks raw input with the same evaluator used on stored values.
	Rules rules.RuleSet
}

// NewRequest builds a Request for leaf name from its rule set.
func NewRequest(name, message string, rs rules.RuleSet) Request {
	return Request{
		Name:        name,
		Message:     message,
		Explanation: rs.Explanation,
		Kind:        rs.Kind,
		Pattern:     rs.Pattern,
		Min:         rs.Min,
		Max:         rs.Max,
		Options:     rs.Options,
		Default:     rs.Default,
		HasDefault:  rs.HasDefault,
		Optional:    rs.Optional,
		InputError:  rs.InputErrorText(),
		OOBError:    rs.OOBErrorText(),
		Rules:       rs,
	}
}

// RejectedError reports why an input line was not accepted.
type RejectedError struct {
	Reason  rules.Reason
	Message string
}

func (e *RejectedError) Error() string {
	return e.Message
}

// Accept turns one raw input line into an accepted value or a rejection.
// Blank input yields the default, or the empty sentinel for optional leaves.
func (r Request) Accept(raw string) (any, error) {
	if raw == "" {
		switch {
		case r.HasDefault:
			return r.defaultValue(), nil
		case r.Optional:
			return tree.Empty(), nil
		default:
			return nil, r.reject(rules.ReasonEmpty)
		}
	}

	res := rules.Evaluate(raw, r.Rules)
	if res.OK() {
		return res.Value, nil
	}

	if res.Reason == rules.ReasonOptions && r.Kind == rules.KindNone {
		if opt, ok := r.matchOption(raw); ok {
			return opt, nil
		}
	}

	return nil, r.reject(res.Reason)
}

// DefaultText renders the default for display, or "" when there is none.
func (r Request) DefaultText() string {
	if !r.HasDefault {
		return ""
	}

	return cast.ToString(r.Default)
}

// OptionTexts renders the options for display.
func (r Request) OptionTexts() []string {
	texts := make([]string, len(r.Options))
	for i, opt := range r.Options {
		texts[i] = cast.ToString(opt)
	}

	return texts
}

func (r Request) defaultValue() any {
	v, err := r.Kind.Coerce(r.Default)
	if err != nil {
		return r.Default
	}

	return v
}

// matchOption lets untyped leaves with non-string options accept the
// option's textual form, so "2" selects the integer option 2.
func (r Request) matchOption(raw string) (any, bool) {
	for _, opt := range r.Options {
		if cast.ToString(opt) != raw {
			continue
		}

		if rules.Evaluate(opt, r.Rules).OK() {
			return opt, true
		}
	}

	return nil, false
}

func (r Request) reject(reason rules.Reason) error {
	msg := r.InputError
	if reason == rules.ReasonBounds {
		msg = r.OOBError
	}

	if msg == "" {
		msg = reason.Message(r.Rules)
	}

	return &RejectedError{Reason: reason, Message: msg}
}

// LineAsker implements Asker with line-based prompts.
type LineAsker struct {
	prompter Prompter
	theme    color.Theme
}

// NewLineAsker creates a LineAsker. A zero theme renders plain text.
func NewLineAsker(p Prompter, theme color.Theme) *LineAsker {
	return &LineAsker{prompter: p, theme: theme}
}

// Ask prints the request and reads lines until one is accepted.
func (a *LineAsker) Ask(ctx context.Context, req Request) (any, error) {
	if err := a.intro(req); err != nil {
		return nil, err
	}

	label := a.theme.Label.Render(req.Message)
	if def := req.DefaultText(); def != "" {
		label += a.theme.Muted.Render(fmt.Sprintf(" [%s]", def))
	}

	for {
		if err := ctx.Err(); err != nil {
			return nil, errors.Wrap(err, "prompt cancelled")
		}

		raw, err := a.prompter.Line(label + " ")
		if err != nil {
			return nil, err
		}

		value, err := req.Accept(raw)
		if err == nil {
			return value, nil
		}

		if perr := a.prompter.Println(a.theme.Fail.Render(err.Error())); perr != nil {
			return nil, perr
		}
	}
}

func (a *LineAsker) intro(req Request) error {
	var lines []string

	if req.Explanation != "" {
		lines = append(lines, a.theme.Info.Render(req.Explanation))
	}

	if len(req.Options) > 0 {
		lines = append(lines, a.theme.Muted.Render("Options: "+strings.Join(req.OptionTexts(), ", ")))
	}

	for _, line := range lines {
		if err := a.prompter.Println(line); err != nil {
			return err
		}
	}

	return nil
}
