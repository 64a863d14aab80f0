// Package exec provides abstractions for executing external commands.
package exec

//go:generate mockgen -source=command.go -destination=command_mock.go -package=exec

import (
	"bytes"
	"context"
	"io"
	"os/exec"
	"strings"

	"github.com/cockroachdb/errors"
)

// CommandResult contains the result of a command execution.
type CommandResult struct {
	Stdout   string
	Stderr   string
	ExitCode int
	Err      error
}

// Success reports whether the command ran and exited with status 0.
func (r *CommandResult) Success() bool {
	return r.Err == nil && r.ExitCode == 0
}

// Failed is the negation of Success.
func (r *CommandResult) Failed() bool {
	return !r.Success()
}

// Message returns the most useful description of a failure.
func (r *CommandResult) Message() string {
	if msg := strings.TrimSpace(r.Stderr); msg != "" {
		return msg
	}

	if r.Err != nil {
		return r.Err.Error()
	}

	return ""
}

// CommandRunner executes external commands with output capture.
type CommandRunner interface {
	// Run executes a command and returns the result.
	Run(ctx context.Context, name string, args ...string) *CommandResult

	// RunWithStdin executes a command with stdin input.
	RunWithStdin(ctx context.Context, stdin io.Reader, name string, args ...string) *CommandResult
}

// commandRunner implements CommandRunner on os/exec.
type commandRunner struct{}

// NewCommandRunner creates a new CommandRunner.
func NewCommandRunner() CommandRunner {
	return &commandRunner{}
}

// Run executes a command and returns the result.
func (r *commandRunner) Run(ctx context.Context, name string, args ...string) *CommandResult {
	return r.RunWithStdin(ctx, nil, name, args...)
}

// RunWithStdin executes a command with stdin input.
func (*commandRunner) RunWithStdin(
	ctx context.Context,
	stdin io.Reader,
	name string,
	args ...string,
) *CommandResult {
	cmd := exec.CommandContext(ctx, name, args...)
	cmd.Stdin = stdin

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	err := cmd.Run()

	result := &CommandResult{
		Stdout: stdout.String(),
		Stderr: stderr.String(),
	}

	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		result.ExitCode = exitErr.ExitCode()
	}

	if err != nil {
		result.Err = errors.Wrapf(err, "executing %s", name)
	}

	return result
}
