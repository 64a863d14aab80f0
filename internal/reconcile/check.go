package reconcile

import (
	"github.com/smykla-skalski/tmplcheck/pkg/rules"
	"github.com/smykla-skalski/tmplcheck/pkg/tree"
)

// Failure is a leaf that would need repair.
type Failure struct {
	Path    tree.Path
	Reason  rules.Reason
	Value   any
	Message string
}

// Check lists the leaves of cfg that do not satisfy tmpl, without asking
// anything or changing cfg.
func Check(cfg, tmpl *tree.Tree) ([]Failure, error) {
	leaves, err := ruleSets(tmpl)
	if err != nil {
		return nil, err
	}

	var failures []Failure

	for _, leaf := range leaves {
		current := lookup(cfg, leaf.path)

		if reason := check(current, leaf.rules); reason != rules.ReasonNone {
			failures = append(failures, Failure{
				Path:    leaf.path,
				Reason:  reason,
				Value:   current,
				Message: reason.Message(leaf.rules),
			})
		}
	}

	return failures, nil
}
