// Package rules defines per-leaf rule sets and the evaluator that checks a
// single value against one.
package rules

import (
	"time"

	"github.com/cockroachdb/errors"
	"github.com/dlclark/regexp2"
	"github.com/spf13/cast"

	"github.com/smykla-skalski/tmplcheck/pkg/tree"
)

// Rule set keys recognised in a template leaf.
const (
	KeyType        = "type"
	KeyOptions     = "options"
	KeyRegex       = "regex"
	KeyMin         = "nmin"
	KeyMax         = "nmax"
	KeyOptional    = "optional"
	KeyDefault     = "default"
	KeyExample     = "example"
	KeyExplanation = "explanation"
	KeyInputError  = "input_error"
	KeyOOBError    = "oob_error"
)

const (
	// DefaultInputError is shown when a value fails any check but bounds.
	DefaultInputError = "Incorrect input"

	// DefaultOOBError is shown when a value fails the bounds check.
	DefaultOOBError = "Input out of bounds(Value too high/low/long/short)"

	// patternTimeout bounds a single backtracking match.
	patternTimeout = time.Second
)

// ErrInvalidRuleSet is returned when a template leaf cannot be parsed.
var ErrInvalidRuleSet = errors.New("invalid rule set")

// RuleSet holds the constraints and prompt metadata for one leaf.
type RuleSet struct {
	Kind        Kind
	Options     []any
	Pattern     string
	Min         *float64
	Max         *float64
	Optional    bool
	Default     any
	HasDefault  bool
	Example     any
	HasExample  bool
	Explanation string
	InputError  string
	OOBError    string

	compiled *regexp2.Regexp
}

// IsLeaf reports whether a template table is a rule set rather than a
// branch. Branches hold only tables; a rule set holds at least one scalar
// or array, or nothing at all.
func IsLeaf(t *tree.Tree) bool {
	if t.Len() == 0 {
		return true
	}

	leaf := false

	t.Each(func(_ string, value any) bool {
		if _, ok := value.(*tree.Tree); !ok {
			leaf = true
		}

		return !leaf
	})

	return leaf
}

// FromTree parses a template leaf table.
func FromTree(t *tree.Tree) (RuleSet, error) {
	var rs RuleSet

	if v, ok := t.Get(KeyType); ok {
		name, isStr := v.(string)
		if !isStr {
			return rs, errors.Wrapf(ErrInvalidRuleSet, "%s must be a string, got %T", KeyType, v)
		}

		kind, err := ParseKind(name)
		if err != nil {
			return rs, errors.Wrapf(ErrInvalidRuleSet, "%s: %v", KeyType, err)
		}

		rs.Kind = kind
	}

	if v, ok := t.Get(KeyOptions); ok {
		opts, isSlice := v.([]any)
		if !isSlice {
			return rs, errors.Wrapf(ErrInvalidRuleSet, "%s must be an array, got %T", KeyOptions, v)
		}

		rs.Options = opts
	}

	if v, ok := t.Get(KeyRegex); ok {
		pattern, isStr := v.(string)
		if !isStr {
			return rs, errors.Wrapf(ErrInvalidRuleSet, "%s must be a string, got %T", KeyRegex, v)
		}

		re, err := compilePattern(pattern)
		if err != nil {
			return rs, errors.Wrapf(ErrInvalidRuleSet, "%s %q: %v", KeyRegex, pattern, err)
		}

		rs.Pattern = pattern
		rs.compiled = re
	}

	var err error

	if rs.Min, err = boundFrom(t, KeyMin); err != nil {
		return rs, err
	}

	if rs.Max, err = boundFrom(t, KeyMax); err != nil {
		return rs, err
	}

	if v, ok := t.Get(KeyOptional); ok {
		optional, isBool := v.(bool)
		if !isBool {
			return rs, errors.Wrapf(ErrInvalidRuleSet, "%s must be a boolean, got %T", KeyOptional, v)
		}

		rs.Optional = optional
	}

	rs.Default, rs.HasDefault = t.Get(KeyDefault)
	rs.Example, rs.HasExample = t.Get(KeyExample)
	rs.Explanation = stringFrom(t, KeyExplanation)
	rs.InputError = stringFrom(t, KeyInputError)
	rs.OOBError = stringFrom(t, KeyOOBError)

	return rs, nil
}

func boundFrom(t *tree.Tree, key string) (*float64, error) {
	v, ok := t.Get(key)
	if !ok {
		return nil, nil
	}

	f, err := cast.ToFloat64E(v)
	if err != nil {
		return nil, errors.Wrapf(ErrInvalidRuleSet, "%s must be a number, got %T", key, v)
	}

	return &f, nil
}

func stringFrom(t *tree.Tree, key string) string {
	v, ok := t.Get(key)
	if !ok {
		return ""
	}

	return cast.ToString(v)
}

func compilePattern(pattern string) (*regexp2.Regexp, error) {
	re, err := regexp2.Compile(`\A(?:`+pattern+`)`, regexp2.None)
	if err != nil {
		return nil, err
	}

	re.MatchTimeout = patternTimeout

	return re, nil
}

// InputErrorText returns the template's input error or the default text.
func (rs RuleSet) InputErrorText() string {
	if rs.InputError != "" {
		return rs.InputError
	}

	return DefaultInputError
}

// OOBErrorText returns the template's out-of-bounds error or the default.
func (rs RuleSet) OOBErrorText() string {
	if rs.OOBError != "" {
		return rs.OOBError
	}

	return DefaultOOBError
}

// HasBounds reports whether either bound is set.
func (rs RuleSet) HasBounds() bool {
	return rs.Min != nil || rs.Max != nil
}

// MatchString reports whether s matches the pattern from its start.
func (rs RuleSet) MatchString(s string) (bool, error) {
	re := rs.compiled
	if re == nil {
		var err error

		re, err = compilePattern(rs.Pattern)
		if err != nil {
			return false, err
		}
	}

	return re.MatchString(s)
}
