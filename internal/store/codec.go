package store

import (
	"bytes"
	"regexp"
	"strings"

	"github.com/cockroachdb/errors"
	"github.com/pelletier/go-toml/v2"
	"github.com/pelletier/go-toml/v2/unstable"

	"github.com/smykla-skalski/tmplcheck/pkg/tree"
)

var bareKey = regexp.MustCompile(`^[A-Za-z0-9_-]+$`)

var keyEscaper = strings.NewReplacer(
	`\`, `\\`,
	`"`, `\"`,
	"\n", `\n`,
	"\r", `\r`,
	"\t", `\t`,
)

// Decode parses a TOML document into a tree that keeps the document's key
// order.
func Decode(data []byte) (*tree.Tree, error) {
	var m map[string]any

	if err := toml.Unmarshal(data, &m); err != nil {
		return nil, describe(err)
	}

	order, err := keyOrder(data)
	if err != nil {
		return nil, describe(err)
	}

	return tree.FromMapOrdered(m, order), nil
}

// DecodeTemplate parses a template. Empty tables declared with a [header]
// are branches without leaves and are dropped; an empty inline table stays
// as a rule set without constraints.
func DecodeTemplate(data []byte) (*tree.Tree, error) {
	t, err := Decode(data)
	if err != nil {
		return nil, err
	}

	inline, err := inlineTables(data)
	if err != nil {
		return nil, describe(err)
	}

	return dropEmptySections(t, nil, inline), nil
}

func dropEmptySections(t *tree.Tree, prefix tree.Path, inline map[string]bool) *tree.Tree {
	out := tree.New()

	t.Each(func(key string, value any) bool {
		path := prefix.Child(key)

		if sub, ok := value.(*tree.Tree); ok {
			sub = dropEmptySections(sub, path, inline)
			if sub.Len() == 0 && !inline[pathKey(path)] {
				return true
			}

			value = sub
		}

		out.Set(key, value)

		return true
	})

	return out
}

// inlineTables lists the paths of inline tables, nested ones included.
func inlineTables(data []byte) (map[string]bool, error) {
	var (
		p      unstable.Parser
		prefix tree.Path
	)

	inline := make(map[string]bool)

	p.Reset(data)

	for p.NextExpression() {
		expr := p.Expression()

		switch expr.Kind {
		case unstable.Table, unstable.ArrayTable:
			prefix = keyPath(nil, expr.Key())
		case unstable.KeyValue:
			markInline(inline, prefix, expr)
		default:
		}
	}

	return inline, p.Error()
}

func markInline(inline map[string]bool, prefix tree.Path, kv *unstable.Node) {
	value := kv.Value()
	if value.Kind != unstable.InlineTable {
		return
	}

	path := keyPath(prefix, kv.Key())
	inline[pathKey(path)] = true

	it := value.Children()
	for it.Next() {
		markInline(inline, path, it.Node())
	}
}

// pathKey flattens path into a map key.
func pathKey(path tree.Path) string {
	return strings.Join(path, "\x00")
}

// keyOrder lists every key path in document order: table headers, dotted
// keys and keys inside inline tables.
func keyOrder(data []byte) ([]tree.Path, error) {
	var (
		p      unstable.Parser
		order  []tree.Path
		prefix tree.Path
	)

	p.Reset(data)

	for p.NextExpression() {
		expr := p.Expression()

		switch expr.Kind {
		case unstable.Table, unstable.ArrayTable:
			prefix = keyPath(nil, expr.Key())
			order = append(order, prefix)
		case unstable.KeyValue:
			order = appendKeyValue(order, prefix, expr)
		default:
		}
	}

	return order, p.Error()
}

func appendKeyValue(order []tree.Path, prefix tree.Path, kv *unstable.Node) []tree.Path {
	path := keyPath(prefix, kv.Key())
	order = append(order, path)

	if value := kv.Value(); value.Kind == unstable.InlineTable {
		it := value.Children()
		for it.Next() {
			order = appendKeyValue(order, path, it.Node())
		}
	}

	return order
}

func keyPath(prefix tree.Path, it unstable.Iterator) tree.Path {
	path := make(tree.Path, len(prefix), len(prefix)+1)
	copy(path, prefix)

	for it.Next() {
		path = append(path, string(it.Node().Data))
	}

	return path
}

// Encode renders t as TOML in key order. Scalars and arrays of a table come
// before its sub-tables; an empty table is written as a bare header.
func Encode(t *tree.Tree) ([]byte, error) {
	var buf bytes.Buffer

	if err := encodeTable(&buf, t, nil); err != nil {
		return nil, err
	}

	return buf.Bytes(), nil
}

func encodeTable(buf *bytes.Buffer, t *tree.Tree, path tree.Path) error {
	var tables []string

	for _, key := range t.Keys() {
		value, _ := t.Get(key)

		if _, ok := value.(*tree.Tree); ok {
			tables = append(tables, key)

			continue
		}

		if err := encodeKeyValue(buf, key, value); err != nil {
			return errors.Wrapf(err, "encoding %s", path.Child(key))
		}
	}

	for _, key := range tables {
		sub, _ := t.Subtree(key)
		subPath := path.Child(key)

		if sub.Len() == 0 || hasValues(sub) {
			if buf.Len() > 0 {
				buf.WriteByte('\n')
			}

			buf.WriteString("[" + headerKey(subPath) + "]\n")
		}

		if err := encodeTable(buf, sub, subPath); err != nil {
			return err
		}
	}

	return nil
}

func encodeKeyValue(buf *bytes.Buffer, key string, value any) error {
	enc := toml.NewEncoder(buf).
		SetTablesInline(true).
		SetIndentTables(false)

	return enc.Encode(map[string]any{key: plain(value)})
}

// plain converts nested trees inside arrays into maps the encoder accepts.
func plain(value any) any {
	switch v := value.(type) {
	case *tree.Tree:
		return v.ToMap()
	case []any:
		out := make([]any, len(v))
		for i, item := range v {
			out[i] = plain(item)
		}

		return out
	default:
		return v
	}
}

func hasValues(t *tree.Tree) bool {
	found := false

	t.Each(func(_ string, value any) bool {
		_, isTable := value.(*tree.Tree)
		found = !isTable

		return !found
	})

	return found
}

func headerKey(path tree.Path) string {
	parts := make([]string, len(path))
	for i, key := range path {
		parts[i] = quoteKey(key)
	}

	return strings.Join(parts, ".")
}

func quoteKey(key string) string {
	if bareKey.MatchString(key) {
		return key
	}

	return `"` + keyEscaper.Replace(key) + `"`
}

// describe adds line and column to TOML decode errors.
func describe(err error) error {
	var decodeErr *toml.DecodeError
	if errors.As(err, &decodeErr) {
		row, col := decodeErr.Position()

		return errors.Wrapf(err, "line %d, column %d", row, col)
	}

	return err
}
