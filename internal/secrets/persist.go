package secrets

import (
	"context"
	"fmt"
	"io/fs"
	"slices"
	"strconv"
	"strings"

	"github.com/cockroachdb/errors"
	"github.com/joho/godotenv"

	"github.com/smykla-skalski/tmplcheck/internal/exec"
	"github.com/smykla-skalski/tmplcheck/internal/fsutil"
)

// Scopes accepted by PowerShellPersister.
const (
	ScopeUser    = "User"
	ScopeMachine = "Machine"
)

// ErrInvalidScope is returned for scopes other than User and Machine.
var ErrInvalidScope = errors.New("invalid secret scope")

// ValidateScope checks a PowerShell environment scope.
func ValidateScope(scope string) error {
	switch scope {
	case ScopeUser, ScopeMachine:
		return nil
	default:
		return errors.Wrapf(ErrInvalidScope, "%q (want %s or %s)", scope, ScopeUser, ScopeMachine)
	}
}

// DotenvPersister stores secrets in a dotenv file readable by EnvLookup.
type DotenvPersister struct {
	path string
}

// NewDotenvPersister creates a DotenvPersister writing to path.
func NewDotenvPersister(path string) *DotenvPersister {
	return &DotenvPersister{path: path}
}

// SetPersistentSecret adds or replaces name in the file.
func (p *DotenvPersister) SetPersistentSecret(ctx context.Context, name, value string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	values, err := godotenv.Read(p.path)
	if err != nil {
		if !errors.Is(err, fs.ErrNotExist) {
			return errors.Wrapf(err, "reading %s", p.path)
		}

		values = make(map[string]string)
	}

	values[name] = value

	content, err := marshalDotenv(values)
	if err != nil {
		return errors.Wrap(err, "encoding dotenv file")
	}

	return fsutil.AtomicWriteFile(p.path, []byte(content))
}

var dotenvEscaper = strings.NewReplacer(
	`\`, `\\`,
	"\n", `\n`,
	"\r", `\r`,
	`"`, `\"`,
	"!", `\!`,
	"$", `\$`,
	"`", "\\`",
)

// marshalDotenv is godotenv.Marshal, except that numeric-looking values which
// would not survive as integers ("007", "+1") are quoted.
func marshalDotenv(values map[string]string) (string, error) {
	plain := make(map[string]string, len(values))
	quoted := make([]string, 0)

	for k, v := range values {
		if d, err := strconv.Atoi(v); err == nil && strconv.Itoa(d) != v {
			quoted = append(quoted, k+`="`+dotenvEscaper.Replace(v)+`"`)

			continue
		}

		plain[k] = v
	}

	content, err := godotenv.Marshal(plain)
	if err != nil {
		return "", err
	}

	lines := quoted
	if content != "" {
		lines = append(lines, strings.Split(content, "\n")...)
	}

	slices.Sort(lines)

	return strings.Join(lines, "\n") + "\n", nil
}

// PowerShellPersister stores secrets as Windows environment variables.
type PowerShellPersister struct {
	runner exec.CommandRunner
	tool   string
	scope  string
}

// NewPowerShellPersister creates a persister running tool (pwsh or
// powershell) with the given scope.
func NewPowerShellPersister(runner exec.CommandRunner, tool, scope string) *PowerShellPersister {
	return &PowerShellPersister{runner: runner, tool: tool, scope: scope}
}

// SetPersistentSecret runs SetEnvironmentVariable. The value is passed on
// stdin so it never appears in the process list.
func (p *PowerShellPersister) SetPersistentSecret(ctx context.Context, name, value string) error {
	if err := ValidateName(name); err != nil {
		return err
	}

	if err := ValidateScope(p.scope); err != nil {
		return err
	}

	script := fmt.Sprintf(
		"[Environment]::SetEnvironmentVariable('%s', [Console]::In.ReadToEnd(), '%s')",
		name, p.scope,
	)

	result := p.runner.RunWithStdin(ctx, strings.NewReader(value), p.tool,
		"-NoProfile", "-NonInteractive", "-Command", script)
	if result.Failed() {
		return errors.Newf("%s exited with %d: %s", p.tool, result.ExitCode, result.Message())
	}

	return nil
}

// NewPlatformPersister picks PowerShell on Windows and the dotenv file
// elsewhere.
func NewPlatformPersister(goos string, runner exec.CommandRunner, envFile, scope string) (Persister, error) {
	if goos != "windows" {
		return NewDotenvPersister(envFile), nil
	}

	tool, err := exec.FindTool("pwsh", "powershell")
	if err != nil {
		return nil, err
	}

	return NewPowerShellPersister(runner, tool, scope), nil
}
