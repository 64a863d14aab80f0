// Package prompt provides utilities for interactive user prompts.
package prompt

//go:generate mockgen -source=prompt.go -destination=prompt_mock.go -package=prompt

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/cockroachdb/errors"
)

// ErrInvalidInput is returned when the user provides invalid input.
var ErrInvalidInput = errors.New("invalid input")

// Prompter defines the interface for interactive prompts.
type Prompter interface {
	// Confirm prompts for a yes/no confirmation.
	Confirm(prompt string, defaultValue bool) (bool, error)

	// Line writes prompt verbatim and returns the next trimmed line.
	Line(prompt string) (string, error)

	// Println writes one line of text.
	Println(text string) error
}

// StdPrompter is the standard implementation of Prompter using stdin/stdout.
type StdPrompter struct {
	reader *bufio.Reader
	writer io.Writer
}

// NewStdPrompter creates a new StdPrompter.
func NewStdPrompter() *StdPrompter {
	return &StdPrompter{
		reader: bufio.NewReader(os.Stdin),
		writer: os.Stdout,
	}
}

// NewPrompter creates a new Prompter with custom reader and writer (for testing).
func NewPrompter(reader io.Reader, writer io.Writer) *StdPrompter {
	return &StdPrompter{
		reader: bufio.NewReader(reader),
		writer: writer,
	}
}

// Confirm prompts for a yes/no confirmation.
func (p *StdPrompter) Confirm(prompt string, defaultValue bool) (bool, error) {
	defaultStr := "y/N"
	if defaultValue {
		defaultStr = "Y/n"
	}

	input, err := p.Line(fmt.Sprintf("%s [%s]: ", prompt, defaultStr))
	if err != nil {
		return false, err
	}

	switch strings.ToLower(input) {
	case "":
		return defaultValue, nil
	case "y", "yes":
		return true, nil
	case "n", "no":
		return false, nil
	default:
		return false, errors.Wrapf(ErrInvalidInput, "expected y/n, got %q", input)
	}
}

// Line writes prompt verbatim and returns the next line without surrounding
// whitespace. A final line without a newline is still returned; io.EOF is
// reported only when nothing was read.
func (p *StdPrompter) Line(prompt string) (string, error) {
	if _, err := io.WriteString(p.writer, prompt); err != nil {
		return "", errors.Wrap(err, "failed to write prompt")
	}

	input, err := p.reader.ReadString('\n')
	if err != nil && (!errors.Is(err, io.EOF) || input == "") {
		return "", errors.Wrap(err, "failed to read input")
	}

	return strings.TrimSpace(input), nil
}

// Println writes one line of text.
func (p *StdPrompter) Println(text string) error {
	if _, err := fmt.Fprintln(p.writer, text); err != nil {
		return errors.Wrap(err, "failed to write output")
	}

	return nil
}
