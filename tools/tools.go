//go:build tools

// Package tools pins code generators in go.mod so `go install` uses the
// same versions everywhere.
package tools

import (
	_ "go.uber.org/mock/mockgen"
)
