package tree

// LeafFunc decides whether a table is a leaf rather than a branch.
type LeafFunc func(t *Tree) bool

// WalkFunc is called for every leaf with a path owned by the callee.
type WalkFunc func(path Path, value any) error

// Walk visits every leaf of t depth-first in key order. Non-table values are
// always leaves; tables are leaves when isLeaf says so. A nil isLeaf treats
// every table as a branch. The first error from fn ends the walk.
func Walk(t *Tree, isLeaf LeafFunc, fn WalkFunc) error {
	return walk(t, nil, isLeaf, fn)
}

func walk(t *Tree, prefix Path, isLeaf LeafFunc, fn WalkFunc) error {
	var err error

	t.Each(func(key string, value any) bool {
		path := prefix.Child(key)

		sub, isTable := value.(*Tree)
		if isTable && (isLeaf == nil || !isLeaf(sub)) {
			err = walk(sub, path, isLeaf, fn)
		} else {
			err = fn(path, value)
		}

		return err == nil
	})

	return err
}

// Leaves returns every leaf path of t in walk order.
func Leaves(t *Tree, isLeaf LeafFunc) []Path {
	var paths []Path

	_ = Walk(t, isLeaf, func(path Path, _ any) error {
		paths = append(paths, path)

		return nil
	})

	return paths
}
