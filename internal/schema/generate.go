// Package schema describes a rule template as JSON Schema.
package schema

import (
	"encoding/json"
	"math"
	"strconv"

	"github.com/cockroachdb/errors"
	"github.com/invopop/jsonschema"

	"github.com/smykla-skalski/tmplcheck/pkg/rules"
	"github.com/smykla-skalski/tmplcheck/pkg/tree"
)

const (
	schemaURI = "https://json-schema.org/draft/2020-12/schema"
	title     = "tmplcheck configuration"
)

// Generate builds a schema for configs conforming to tmpl. Properties keep
// template order; leaves that are not optional are required.
func Generate(tmpl *tree.Tree) (*jsonschema.Schema, error) {
	s, _, err := object(tmpl, nil)
	if err != nil {
		return nil, err
	}

	s.Version = schemaURI
	s.Title = title

	return s, nil
}

// GenerateJSON produces the schema as bytes.
// When indent is true, the output is pretty-printed.
func GenerateJSON(tmpl *tree.Tree, indent bool) ([]byte, error) {
	s, err := Generate(tmpl)
	if err != nil {
		return nil, err
	}

	var data []byte

	if indent {
		data, err = json.MarshalIndent(s, "", "  ")
	} else {
		data, err = json.Marshal(s)
	}

	if err != nil {
		return nil, errors.Wrap(err, "marshaling schema to JSON")
	}

	return append(data, '\n'), nil
}

// object converts a branch and reports whether any leaf below it is required.
func object(branch *tree.Tree, prefix tree.Path) (*jsonschema.Schema, bool, error) {
	s := &jsonschema.Schema{
		Type:       "object",
		Properties: jsonschema.NewProperties(),
	}

	var err error

	branch.Each(func(key string, value any) bool {
		path := prefix.Child(key)

		sub, ok := value.(*tree.Tree)
		if !ok {
			err = errors.Wrapf(rules.ErrInvalidRuleSet, "leaf %s is a %T, not a table", path, value)

			return false
		}

		var (
			child    *jsonschema.Schema
			required bool
		)

		if rules.IsLeaf(sub) {
			child, required, err = leaf(sub, path)
		} else {
			child, required, err = object(sub, path)
		}

		if err != nil {
			return false
		}

		s.Properties.Set(key, child)

		if required {
			s.Required = append(s.Required, key)
		}

		return true
	})

	if err != nil {
		return nil, false, err
	}

	return s, len(s.Required) > 0, nil
}

func leaf(t *tree.Tree, path tree.Path) (*jsonschema.Schema, bool, error) {
	rs, err := rules.FromTree(t)
	if err != nil {
		return nil, false, errors.Wrapf(err, "leaf %s", path)
	}

	s := &jsonschema.Schema{
		Type:        jsonType(rs.Kind),
		Enum:        rs.Options,
		Description: rs.Explanation,
	}

	if rs.Pattern != "" {
		// Patterns match at the start of the value.
		s.Pattern = "^(?:" + rs.Pattern + ")"
	}

	if rs.HasDefault {
		s.Default = rs.Default
		if v, cerr := rs.Kind.Coerce(rs.Default); cerr == nil {
			s.Default = v
		}
	}

	if rs.HasExample {
		s.Examples = []any{rs.Example}
	}

	setBounds(s, rs)

	return s, !rs.Optional, nil
}

// setBounds emits numeric and length bounds. Untyped leaves get both, since
// each keyword only applies to its own JSON type.
func setBounds(s *jsonschema.Schema, rs rules.RuleSet) {
	numeric := rs.Kind == rules.KindNone || rs.Kind == rules.KindInt || rs.Kind == rules.KindFloat
	length := rs.Kind == rules.KindNone || rs.Kind == rules.KindString

	if rs.Min != nil {
		if numeric {
			s.Minimum = number(*rs.Min)
		}

		if length {
			s.MinLength = lengthBound(math.Ceil(*rs.Min))
		}
	}

	if rs.Max != nil {
		if numeric {
			s.Maximum = number(*rs.Max)
		}

		if length {
			s.MaxLength = lengthBound(math.Floor(*rs.Max))
		}
	}
}

func jsonType(k rules.Kind) string {
	switch k {
	case rules.KindString:
		return "string"
	case rules.KindInt:
		return "integer"
	case rules.KindFloat:
		return "number"
	case rules.KindBool:
		return "boolean"
	default:
		return ""
	}
}

func number(f float64) json.Number {
	return json.Number(strconv.FormatFloat(f, 'f', -1, 64))
}

func lengthBound(f float64) *uint64 {
	n := uint64(max(f, 0))

	return &n
}
