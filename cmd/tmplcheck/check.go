package main

import (
	"fmt"
	"runtime"

	"github.com/cockroachdb/errors"
	"github.com/spf13/cobra"

	"github.com/smykla-skalski/tmplcheck/internal/backup"
	"github.com/smykla-skalski/tmplcheck/internal/exec"
	"github.com/smykla-skalski/tmplcheck/internal/reconcile"
	"github.com/smykla-skalski/tmplcheck/internal/report"
	"github.com/smykla-skalski/tmplcheck/internal/secrets"
)

var (
	yesFlag          bool
	checkSecretsFlag bool
	verboseFlag      bool
)

// ErrSecretsFailed is returned when a secret could not be stored.
var ErrSecretsFailed = errors.New("some secrets could not be stored")

func init() {
	rootCmd.Flags().BoolVarP(&yesFlag, "yes", "y", false, "Overwrite an unreadable config without asking")
	rootCmd.Flags().BoolVar(&checkSecretsFlag, "check-secrets", false, "Check required secrets after the config")
	rootCmd.Flags().BoolVar(&verboseFlag, "verbose", false, "List every checked leaf, not only repaired ones")
}

func runCheck(cmd *cobra.Command, _ []string) error {
	a, err := setup(cmd)
	if err != nil {
		return err
	}
	defer a.log.Close()

	out := cmd.OutOrStdout()
	ctx := cmd.Context()

	fmt.Fprintln(out, a.theme.Header.Render("Checking TOML configuration"))
	hint := "If you are asked for a value, enter it and press Enter. Leave it blank to use the default."
	if a.ui.IsInteractive() {
		hint += " Press Ctrl+C to abort."
	}

	fmt.Fprintln(out, a.theme.Muted.Render(hint))

	backups, err := newBackups(a)
	if err != nil {
		return err
	}

	session := &reconcile.Session{
		Reconciler:  reconcile.New(a.ui, a.log),
		Confirmer:   a.ui,
		AutoApprove: yesFlag,
		Out:         out,
		Theme:       a.theme,
		Log:         a.log,
	}

	if backups != nil {
		session.Backups = backups
	}

	rep, err := session.Run(ctx, a.settings.Template, a.settings.Config)
	if err != nil {
		a.log.Error("check failed", "error", err.Error())

		return err
	}

	rows := rep.Rows()
	if !verboseFlag {
		rows = rep.RepairedRows()
	}

	if len(rows) > 0 {
		fmt.Fprintln(out, report.RenderTable(rows, "Key", a.theme))
	}

	fmt.Fprintln(out, report.RenderSummary(rep.Rows(), a.theme))

	if checkSecretsFlag {
		return checkSecrets(cmd, a)
	}

	return nil
}

// newBackups returns nil when backups are disabled.
func newBackups(a *app) (*backup.Manager, error) {
	if !a.settings.Backup.Enabled {
		return nil, nil
	}

	return backup.NewManager(a.settings.Backup.Dir, a.settings.Backup.MaxSnapshots)
}

func newChecker(a *app) (*secrets.Checker, error) {
	persister, err := secrets.NewPlatformPersister(
		runtime.GOOS,
		exec.NewCommandRunner(),
		a.settings.Secrets.EnvFile,
		a.settings.Secrets.Scope,
	)
	if err != nil {
		return nil, err
	}

	return secrets.NewChecker(
		a.settings.Secrets.Names,
		secrets.NewEnvLookup(a.settings.Secrets.EnvFile),
		persister,
		a.ui,
		a.log,
	), nil
}

func checkSecrets(cmd *cobra.Command, a *app) error {
	checker, err := newChecker(a)
	if err != nil {
		return err
	}

	results := checker.CheckAll(cmd.Context())

	rows := secretRows(results)
	fmt.Fprintln(cmd.OutOrStdout(), report.RenderTable(rows, "Secret", a.theme))
	fmt.Fprintln(cmd.OutOrStdout(), report.RenderSummary(rows, a.theme))

	if secrets.Failed(results) {
		return ErrSecretsFailed
	}

	return nil
}

func secretRows(results []secrets.Result) []report.Row {
	rows := make([]report.Row, 0, len(results))

	for _, r := range results {
		row := report.Row{Name: r.Name, Message: string(r.Status)}

		switch r.Status {
		case secrets.StatusPresent:
			row.Status = report.StatusPass
		case secrets.StatusSet:
			row.Status = report.StatusRepaired
		case secrets.StatusFailed:
			row.Status = report.StatusFail
			row.Message = r.Err.Error()
		}

		rows = append(rows, row)
	}

	return rows
}
