package rules

import (
	"reflect"
	"unicode/utf8"

	"github.com/spf13/cast"

	"github.com/smykla-skalski/tmplcheck/pkg/tree"
)

// Reason names the check a value failed.
type Reason int

const (
	// ReasonNone means every applicable check passed.
	ReasonNone Reason = iota

	// ReasonEmpty means no value is present yet.
	ReasonEmpty

	// ReasonType means the value could not be coerced to the rule's type.
	ReasonType

	// ReasonOptions means the value is not one of the allowed options.
	ReasonOptions

	// ReasonPattern means the value is not a string matching the pattern.
	ReasonPattern

	// ReasonBounds means the value, or its length, is out of bounds.
	ReasonBounds
)

// String returns a short name for the reason.
func (r Reason) String() string {
	switch r {
	case ReasonNone:
		return "ok"
	case ReasonEmpty:
		return "missing"
	case ReasonType:
		return "type"
	case ReasonOptions:
		return "options"
	case ReasonPattern:
		return "pattern"
	case ReasonBounds:
		return "bounds"
	default:
		return "unknown"
	}
}

// Message returns the user-facing error text for the reason.
func (r Reason) Message(rs RuleSet) string {
	switch r {
	case ReasonNone:
		return ""
	case ReasonBounds:
		return rs.OOBErrorText()
	default:
		return rs.InputErrorText()
	}
}

// Result is the outcome of Evaluate.
type Result struct {
	// Value is the working value, coerced when the rule set has a type.
	Value any

	// Reason is ReasonNone on success.
	Reason Reason
}

// OK reports whether the value passed.
func (r Result) OK() bool {
	return r.Reason == ReasonNone
}

// Evaluate checks value against rs. Checks run in a fixed order and stop at
// the first failure: emptiness, type coercion, options, pattern, bounds.
func Evaluate(value any, rs RuleSet) Result {
	if tree.IsEmpty(value) {
		return Result{Value: value, Reason: ReasonEmpty}
	}

	coerced, err := rs.Kind.Coerce(value)
	if err != nil {
		return Result{Value: value, Reason: ReasonType}
	}

	value = coerced

	if rs.Options != nil && !contains(rs.Options, value) {
		return Result{Value: value, Reason: ReasonOptions}
	}

	if rs.Pattern != "" && !matches(rs, value) {
		return Result{Value: value, Reason: ReasonPattern}
	}

	if rs.HasBounds() && !inBounds(rs, value) {
		return Result{Value: value, Reason: ReasonBounds}
	}

	return Result{Value: value}
}

func matches(rs RuleSet, value any) bool {
	s, ok := value.(string)
	if !ok {
		return false
	}

	matched, err := rs.MatchString(s)

	return err == nil && matched
}

func inBounds(rs RuleSet, value any) bool {
	measure, ok := Length(value)
	if !ok {
		f, err := cast.ToFloat64E(value)
		if err != nil {
			return false
		}

		measure = f
	}

	if rs.Min != nil && measure < *rs.Min {
		return false
	}

	if rs.Max != nil && measure > *rs.Max {
		return false
	}

	return true
}

// Length returns the length of sequence-like values: strings (in runes),
// arrays and tables. Other values report false.
func Length(value any) (float64, bool) {
	switch v := value.(type) {
	case string:
		return float64(utf8.RuneCountInString(v)), true
	case []any:
		return float64(len(v)), true
	case *tree.Tree:
		return float64(v.Len()), true
	}

	rv := reflect.ValueOf(value)

	switch rv.Kind() {
	case reflect.Slice, reflect.Array, reflect.Map:
		return float64(rv.Len()), true
	default:
		return 0, false
	}
}

func contains(options []any, value any) bool {
	for _, opt := range options {
		if Equal(opt, value) {
			return true
		}
	}

	return false
}

// Equal compares two values, treating numbers of different Go types as equal
// when they hold the same numeric value.
func Equal(a, b any) bool {
	if isNumber(a) && isNumber(b) {
		return cast.ToFloat64(a) == cast.ToFloat64(b)
	}

	return reflect.DeepEqual(a, b)
}

func isNumber(v any) bool {
	switch v.(type) {
	case int, int8, int16, int32, int64,
		uint, uint8, uint16, uint32, uint64,
		float32, float64:
		return true
	default:
		return false
	}
}
