package tree

import (
	"slices"
	"strings"
)

// keySeparator joins path segments in the order index. TOML keys may
// contain dots, so a byte that cannot appear in a bare or quoted key is used.
const keySeparator = "\x00"

// orderIndex maps a parent path to its child keys in first-seen order.
type orderIndex map[string][]string

func newOrderIndex(order []Path) orderIndex {
	idx := make(orderIndex)
	seen := make(map[string]bool)

	for _, path := range order {
		for i := range path {
			parent := strings.Join(path[:i], keySeparator)
			full := parent + keySeparator + path[i]

			if seen[full] {
				continue
			}

			seen[full] = true
			idx[parent] = append(idx[parent], path[i])
		}
	}

	return idx
}

func (idx orderIndex) children(prefix Path) []string {
	if idx == nil {
		return nil
	}

	return idx[strings.Join(prefix, keySeparator)]
}

// FromMapOrdered builds a tree from plain nested maps, inserting keys in the
// order they appear in order. Keys that order does not mention follow in
// sorted order.
func FromMapOrdered(m map[string]any, order []Path) *Tree {
	return fromMap(m, nil, newOrderIndex(order))
}

func fromMap(m map[string]any, prefix Path, idx orderIndex) *Tree {
	out := New()

	for _, key := range orderedKeys(m, idx.children(prefix)) {
		out.Set(key, fromValue(m[key], prefix.Child(key), idx))
	}

	return out
}

func fromValue(v any, path Path, idx orderIndex) any {
	switch val := v.(type) {
	case map[string]any:
		return fromMap(val, path, idx)
	case []any:
		out := make([]any, len(val))
		for i, item := range val {
			out[i] = fromValue(item, path, idx)
		}

		return out
	default:
		return v
	}
}

func orderedKeys(m map[string]any, known []string) []string {
	keys := make([]string, 0, len(m))
	used := make(map[string]bool, len(m))

	for _, key := range known {
		if _, ok := m[key]; ok && !used[key] {
			keys = append(keys, key)
			used[key] = true
		}
	}

	rest := make([]string, 0, len(m)-len(keys))

	for key := range m {
		if !used[key] {
			rest = append(rest, key)
		}
	}

	slices.Sort(rest)

	return append(keys, rest...)
}
