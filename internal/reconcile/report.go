package reconcile

import (
	"github.com/smykla-skalski/tmplcheck/internal/report"
	"github.com/smykla-skalski/tmplcheck/pkg/rules"
	"github.com/smykla-skalski/tmplcheck/pkg/tree"
)

// Outcome tells what happened to one leaf.
type Outcome string

const (
	// OutcomePassed means the stored value already conformed.
	OutcomePassed Outcome = "ok"

	// OutcomeRepaired means a replacement was asked for.
	OutcomeRepaired Outcome = "repaired"
)

// Entry records one leaf of a run.
type Entry struct {
	Path    tree.Path
	Outcome Outcome

	// Reason is why the stored value failed; ReasonNone when it passed.
	Reason rules.Reason

	Before any
	After  any
}

// Report lists every template leaf in walk order.
type Report struct {
	Entries []Entry
}

func (r *Report) add(e Entry) {
	r.Entries = append(r.Entries, e)
}

// Repaired returns the entries that needed input.
func (r *Report) Repaired() []Entry {
	var out []Entry

	for _, e := range r.Entries {
		if e.Outcome == OutcomeRepaired {
			out = append(out, e)
		}
	}

	return out
}

// Passed counts the entries that conformed already.
func (r *Report) Passed() int {
	return len(r.Entries) - len(r.Repaired())
}

// Rows converts the report for table rendering.
func (r *Report) Rows() []report.Row {
	rows := make([]report.Row, 0, len(r.Entries))

	for _, e := range r.Entries {
		row := report.Row{Status: report.StatusPass, Name: e.Path.String(), Message: "ok"}

		if e.Outcome == OutcomeRepaired {
			row.Status = report.StatusRepaired
			row.Message = "repaired: " + e.Reason.String()
		}

		rows = append(rows, row)
	}

	return rows
}

// FailureRows converts Check output for table rendering.
func FailureRows(failures []Failure) []report.Row {
	rows := make([]report.Row, 0, len(failures))

	for _, f := range failures {
		rows = append(rows, report.Row{Status: report.StatusFail, Name: f.Path.String(), Message: f.Message})
	}

	return rows
}

// RepairedRows is Rows limited to repaired entries.
func (r *Report) RepairedRows() []report.Row {
	var rows []report.Row

	for _, row := range r.Rows() {
		if row.Status == report.StatusRepaired {
			rows = append(rows, row)
		}
	}

	return rows
}
