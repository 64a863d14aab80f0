// Package tree provides the ordered key/value tree shared by templates and
// configuration documents.
package tree

import (
	"strings"

	orderedmap "github.com/wk8/go-ordered-map/v2"
)

// Tree is an ordered, string-keyed table. Values are scalars, []any
// sequences, or nested *Tree tables. Iteration follows insertion order.
type Tree struct {
	m *orderedmap.OrderedMap[string, any]
}

// New creates an empty Tree.
func New() *Tree {
	return &Tree{m: orderedmap.New[string, any]()}
}

// Empty returns the sentinel meaning "no value supplied yet" for a leaf.
// It is an empty table, so it survives a round trip through TOML.
func Empty() *Tree {
	return New()
}

// IsEmpty reports whether v is the empty sentinel (nil or an empty table).
func IsEmpty(v any) bool {
	switch t := v.(type) {
	case nil:
		return true
	case *Tree:
		return t == nil || t.Len() == 0
	default:
		return false
	}
}

// Len returns the number of keys.
func (t *Tree) Len() int {
	if t == nil || t.m == nil {
		return 0
	}

	return t.m.Len()
}

// Get returns the value stored at key.
func (t *Tree) Get(key string) (any, bool) {
	if t == nil || t.m == nil {
		return nil, false
	}

	return t.m.Get(key)
}

// Set stores value at key. Existing keys keep their position.
func (t *Tree) Set(key string, value any) {
	if t.m == nil {
		t.m = orderedmap.New[string, any]()
	}

	t.m.Set(key, value)
}

// Keys returns the keys in order.
func (t *Tree) Keys() []string {
	keys := make([]string, 0, t.Len())

	t.Each(func(key string, _ any) bool {
		keys = append(keys, key)

		return true
	})

	return keys
}

// Each calls fn for every key in order until fn returns false.
func (t *Tree) Each(fn func(key string, value any) bool) {
	if t == nil || t.m == nil {
		return
	}

	for pair := t.m.Oldest(); pair != nil; pair = pair.Next() {
		if !fn(pair.Key, pair.Value) {
			return
		}
	}
}

// Subtree returns the table stored at key, if the value is a table.
func (t *Tree) Subtree(key string) (*Tree, bool) {
	v, ok := t.Get(key)
	if !ok {
		return nil, false
	}

	sub, ok := v.(*Tree)

	return sub, ok
}

// Lookup follows path and returns the value found there.
func (t *Tree) Lookup(path Path) (any, bool) {
	var cur any = t

	for _, key := range path {
		sub, ok := cur.(*Tree)
		if !ok {
			return nil, false
		}

		cur, ok = sub.Get(key)
		if !ok {
			return nil, false
		}
	}

	return cur, true
}

// SetPath stores value at path, creating intermediate tables. Non-table
// values found on the way are replaced by tables.
func (t *Tree) SetPath(path Path, value any) {
	if len(path) == 0 {
		return
	}

	cur := t

	for _, key := range path[:len(path)-1] {
		sub, ok := cur.Subtree(key)
		if !ok {
			sub = New()
			cur.Set(key, sub)
		}

		cur = sub
	}

	cur.Set(path[len(path)-1], value)
}

// ToMap converts the tree into plain nested maps, dropping order.
func (t *Tree) ToMap() map[string]any {
	out := make(map[string]any, t.Len())

	t.Each(func(key string, value any) bool {
		out[key] = toPlain(value)

		return true
	})

	return out
}

func toPlain(v any) any {
	switch val := v.(type) {
	case *Tree:
		return val.ToMap()
	case []any:
		out := make([]any, len(val))
		for i, item := range val {
			out[i] = toPlain(item)
		}

		return out
	default:
		return v
	}
}

// Path identifies one node by the sequence of keys leading to it.
type Path []string

// Child returns a new path with key appended. The receiver is never shared
// with the result.
func (p Path) Child(key string) Path {
	out := make(Path, len(p), len(p)+1)
	copy(out, p)

	return append(out, key)
}

// Last returns the final key, or "" for the root path.
func (p Path) Last() string {
	if len(p) == 0 {
		return ""
	}

	return p[len(p)-1]
}

// String joins the keys with dots.
func (p Path) String() string {
	return strings.Join(p, ".")
}
