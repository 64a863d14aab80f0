package secrets

import (
	"os"
	"strings"

	"github.com/joho/godotenv"
)

// EnvLookup reads the process environment, then an optional dotenv file.
type EnvLookup struct {
	envFile string
}

// NewEnvLookup creates an EnvLookup. An empty envFile disables the file.
func NewEnvLookup(envFile string) *EnvLookup {
	return &EnvLookup{envFile: envFile}
}

// Exists reports whether name is set to a non-blank value.
func (l *EnvLookup) Exists(name string) bool {
	value, ok := l.Get(name)

	return ok && strings.TrimSpace(value) != ""
}

// Get returns the value of name.
func (l *EnvLookup) Get(name string) (string, bool) {
	if value, ok := os.LookupEnv(name); ok {
		return value, true
	}

	if l.envFile == "" {
		return "", false
	}

	values, err := godotenv.Read(l.envFile)
	if err != nil {
		return "", false
	}

	value, ok := values[name]

	return value, ok
}
