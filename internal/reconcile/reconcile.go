// Package reconcile walks a rule template and repairs the matching
// configuration tree leaf by leaf.
package reconcile

import (
	"context"
	"fmt"
	"strings"

	"github.com/cockroachdb/errors"
	"github.com/spf13/cast"

	"github.com/smykla-skalski/tmplcheck/internal/prompt"
	"github.com/smykla-skalski/tmplcheck/pkg/logger"
	"github.com/smykla-skalski/tmplcheck/pkg/rules"
	"github.com/smykla-skalski/tmplcheck/pkg/tree"
)

// Reconciler repairs configuration trees against templates.
type Reconciler struct {
	asker prompt.Asker
	log   logger.Logger
}

// New creates a Reconciler asking asker for replacement values.
func New(asker prompt.Asker, log logger.Logger) *Reconciler {
	return &Reconciler{asker: asker, log: log}
}

// Reconcile brings cfg in line with tmpl, in template key order. Missing
// tables are created and non-table values in their place are replaced; keys
// the template does not mention are kept. cfg is modified in place and
// returned; a nil cfg starts from an empty tree. Every leaf of tmpl is parsed
// before the first prompt.
func (r *Reconciler) Reconcile(ctx context.Context, cfg, tmpl *tree.Tree) (*tree.Tree, *Report, error) {
	if cfg == nil {
		cfg = tree.New()
	}

	report := &Report{}

	leaves, err := ruleSets(tmpl)
	if err != nil {
		return cfg, report, err
	}

	for _, leaf := range leaves {
		if err := r.reconcilePath(ctx, cfg, leaf, report); err != nil {
			return cfg, report, err
		}
	}

	return cfg, report, nil
}

func (r *Reconciler) reconcilePath(ctx context.Context, cfg *tree.Tree, leaf leafRules, report *Report) error {
	current := lookup(cfg, leaf.path)
	reason := check(current, leaf.rules)

	value, err := r.ReconcileLeaf(ctx, current, leaf.rules, leaf.path.Last())
	if err != nil {
		return errors.Wrapf(err, "leaf %s", leaf.path)
	}

	cfg.SetPath(leaf.path, value)

	if reason == rules.ReasonNone {
		r.log.Debug("leaf ok", "path", leaf.path.String())
		report.add(Entry{Path: leaf.path, Outcome: OutcomePassed, Before: current, After: value})

		return nil
	}

	r.log.Info("leaf repaired", "path", leaf.path.String(), "reason", reason.String())
	report.add(Entry{Path: leaf.path, Outcome: OutcomeRepaired, Reason: reason, Before: current, After: value})

	return nil
}

// leafRules is a template leaf with its parsed rule set.
type leafRules struct {
	path  tree.Path
	rules rules.RuleSet
}

// ruleSets parses every leaf of tmpl in walk order.
func ruleSets(tmpl *tree.Tree) ([]leafRules, error) {
	paths := tree.Leaves(tmpl, rules.IsLeaf)
	leaves := make([]leafRules, 0, len(paths))

	for _, path := range paths {
		value, _ := tmpl.Lookup(path)

		table, ok := value.(*tree.Tree)
		if !ok {
			return nil, errors.Wrapf(rules.ErrInvalidRuleSet, "leaf %s is a %T, not a table", path, value)
		}

		rs, err := rules.FromTree(table)
		if err != nil {
			return nil, errors.Wrapf(err, "leaf %s", path)
		}

		leaves = append(leaves, leafRules{path: path, rules: rs})
	}

	return leaves, nil
}

// lookup returns the value at path, or the empty sentinel when the path is
// missing or runs through a non-table value.
func lookup(cfg *tree.Tree, path tree.Path) any {
	if current, ok := cfg.Lookup(path); ok {
		return current
	}

	return tree.Empty()
}

// ReconcileLeaf returns value when it satisfies rs, coerced to the rule
// set's type, and otherwise asks for a replacement. An optional leaf without
// a value stays empty. Errors come only from the asker.
func (r *Reconciler) ReconcileLeaf(ctx context.Context, value any, rs rules.RuleSet, name string) (any, error) {
	res := rules.Evaluate(value, rs)
	if res.OK() {
		return res.Value, nil
	}

	if rs.Optional && tree.IsEmpty(value) {
		return tree.Empty(), nil
	}

	accepted, err := r.asker.Ask(ctx, prompt.NewRequest(name, Message(name, rs), rs))
	if err != nil {
		return nil, errors.Wrapf(err, "asking for %s", name)
	}

	return accepted, nil
}

// Message builds the prompt text for a leaf:
//
//	Example: 5432
//	Non-optional port=
func Message(name string, rs rules.RuleSet) string {
	var b strings.Builder

	if rs.HasExample {
		fmt.Fprintf(&b, "Example: %s\n", display(rs.Example))
	}

	if rs.Optional {
		b.WriteString("Optional ")
	} else {
		b.WriteString("Non-optional ")
	}

	b.WriteString(name)
	b.WriteString("=")

	return b.String()
}

func display(v any) string {
	if s, err := cast.ToStringE(v); err == nil {
		return s
	}

	return fmt.Sprint(v)
}

// check classifies value like ReconcileLeaf does, without asking.
func check(value any, rs rules.RuleSet) rules.Reason {
	res := rules.Evaluate(value, rs)
	if !res.OK() && rs.Optional && tree.IsEmpty(value) {
		return rules.ReasonNone
	}

	return res.Reason
}
