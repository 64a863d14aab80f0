package rules

import (
	"strconv"
	"strings"

	"github.com/cockroachdb/errors"
	"github.com/spf13/cast"
)

// ErrUnknownKind is returned when a template names a type outside the
// supported set.
var ErrUnknownKind = errors.New("unknown type")

// Kind is the coercion applied to a value before the remaining checks.
type Kind int

const (
	// KindNone applies no coercion.
	KindNone Kind = iota

	// KindString coerces to a string.
	KindString

	// KindInt coerces to a 64-bit integer.
	KindInt

	// KindFloat coerces to a 64-bit float.
	KindFloat

	// KindBool coerces to a boolean.
	KindBool
)

var kindNames = map[string]Kind{
	"":        KindNone,
	"str":     KindString,
	"string":  KindString,
	"int":     KindInt,
	"integer": KindInt,
	"float":   KindFloat,
	"bool":    KindBool,
	"boolean": KindBool,
}

// ParseKind maps a template type tag to a Kind.
func ParseKind(name string) (Kind, error) {
	kind, ok := kindNames[strings.ToLower(strings.TrimSpace(name))]
	if !ok {
		return KindNone, errors.Wrapf(ErrUnknownKind, "%q", name)
	}

	return kind, nil
}

// String returns the canonical tag.
func (k Kind) String() string {
	switch k {
	case KindString:
		return "str"
	case KindInt:
		return "int"
	case KindFloat:
		return "float"
	case KindBool:
		return "bool"
	default:
		return ""
	}
}

// Coerce converts v to the kind. KindNone returns v unchanged.
func (k Kind) Coerce(v any) (any, error) {
	switch k {
	case KindNone:
		return v, nil
	case KindString:
		return cast.ToStringE(v)
	case KindInt:
		return toInt(v)
	case KindFloat:
		return cast.ToFloat64E(v)
	case KindBool:
		return toBool(v)
	default:
		return nil, errors.Wrapf(ErrUnknownKind, "kind %d", int(k))
	}
}

// toInt parses strings as base 10, so "010" is 10 and "0x10" is rejected.
func toInt(v any) (int64, error) {
	s, ok := v.(string)
	if !ok {
		return cast.ToInt64E(v)
	}

	n, err := strconv.ParseInt(strings.TrimSpace(s), 10, 64)
	if err != nil {
		return 0, errors.Wrapf(err, "unable to cast %q to int64", s)
	}

	return n, nil
}

func toBool(v any) (bool, error) {
	if s, ok := v.(string); ok {
		switch strings.ToLower(strings.TrimSpace(s)) {
		case "yes", "y", "on":
			return true, nil
		case "no", "n", "off":
			return false, nil
		}
	}

	return cast.ToBoolE(v)
}
