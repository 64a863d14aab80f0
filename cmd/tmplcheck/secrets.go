package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

var secretsCmd = &cobra.Command{
	Use:   "secrets",
	Short: "Check required secrets",
	Long: `Check that every required secret is set.

Missing secrets are asked for and stored: in the dotenv file under the
tmplcheck config directory, or on Windows in the user or machine
environment. Secrets already present in the process environment or the
dotenv file are left alone.`,
	Args: cobra.NoArgs,
	RunE: runSecrets,
}

var secretsGetCmd = &cobra.Command{
	Use:   "get NAME",
	Short: "Print the value of a secret",
	Args:  cobra.ExactArgs(1),
	RunE:  runSecretsGet,
}

func init() {
	secretsCmd.AddCommand(secretsGetCmd)
	rootCmd.AddCommand(secretsCmd)
}

func runSecrets(cmd *cobra.Command, _ []string) error {
	a, err := setup(cmd)
	if err != nil {
		return err
	}
	defer a.log.Close()

	return checkSecrets(cmd, a)
}

func runSecretsGet(cmd *cobra.Command, args []string) error {
	a, err := setup(cmd)
	if err != nil {
		return err
	}
	defer a.log.Close()

	checker, err := newChecker(a)
	if err != nil {
		return err
	}

	value, err := checker.Get(args[0])
	if err != nil {
		return err
	}

	fmt.Fprintln(cmd.OutOrStdout(), value)

	return nil
}
