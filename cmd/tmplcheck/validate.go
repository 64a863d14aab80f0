package main

import (
	"fmt"

	"github.com/cockroachdb/errors"
	"github.com/spf13/cobra"

	"github.com/smykla-skalski/tmplcheck/internal/reconcile"
	"github.com/smykla-skalski/tmplcheck/internal/report"
	"github.com/smykla-skalski/tmplcheck/internal/store"
)

// ErrNonConforming is returned by validate when a leaf fails its rules.
var ErrNonConforming = errors.New("config does not conform to template")

var validateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Check the config without asking or writing",
	Long: `Check the config against the template without asking for input.

Failing leaves are listed with the reason they fail. The command exits
non-zero when any leaf fails or the config cannot be read.`,
	Args: cobra.NoArgs,
	RunE: runValidate,
}

func init() {
	rootCmd.AddCommand(validateCmd)
}

func runValidate(cmd *cobra.Command, _ []string) error {
	a, err := setup(cmd)
	if err != nil {
		return err
	}
	defer a.log.Close()

	tmpl, err := store.LoadTemplate(a.settings.Template)
	if err != nil {
		return err
	}

	cfg, err := store.Load(a.settings.Config)
	if err != nil {
		return err
	}

	failures, err := reconcile.Check(cfg, tmpl)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()

	if len(failures) == 0 {
		fmt.Fprintln(out, a.theme.Pass.Render(a.settings.Config+" conforms to "+a.settings.Template))

		return nil
	}

	rows := reconcile.FailureRows(failures)
	fmt.Fprintln(out, report.RenderTable(rows, "Key", a.theme))
	fmt.Fprintln(out, report.RenderSummary(rows, a.theme))

	a.log.Info("validation failed", "failures", len(failures))

	return errors.Wrapf(ErrNonConforming, "%d leaves", len(failures))
}
