package main

import (
	"github.com/cockroachdb/errors"
	"github.com/spf13/cobra"

	"github.com/smykla-skalski/tmplcheck/internal/fsutil"
	"github.com/smykla-skalski/tmplcheck/internal/schema"
	"github.com/smykla-skalski/tmplcheck/internal/store"
)

var (
	schemaOutput  string
	schemaCompact bool
)

var schemaCmd = &cobra.Command{
	Use:   "schema",
	Short: "Print a JSON Schema for configs matching the template",
	Long: `Print a JSON Schema (draft 2020-12) describing configs that satisfy the
template. Editors can use it to validate and complete the config.

Examples:
  tmplcheck schema                      # Print to stdout
  tmplcheck schema -o config.schema.json
  tmplcheck schema --compact`,
	Args: cobra.NoArgs,
	RunE: runSchema,
}

func init() {
	schemaCmd.Flags().StringVarP(&schemaOutput, "output", "o", "", "Write the schema to a file")
	schemaCmd.Flags().BoolVar(&schemaCompact, "compact", false, "Do not indent the output")
	rootCmd.AddCommand(schemaCmd)
}

func runSchema(cmd *cobra.Command, _ []string) error {
	a, err := setup(cmd)
	if err != nil {
		return err
	}
	defer a.log.Close()

	tmpl, err := store.LoadTemplate(a.settings.Template)
	if err != nil {
		return err
	}

	data, err := schema.GenerateJSON(tmpl, !schemaCompact)
	if err != nil {
		return err
	}

	if schemaOutput == "" {
		_, err = cmd.OutOrStdout().Write(data)

		return errors.Wrap(err, "writing schema")
	}

	if err := fsutil.AtomicWriteFile(schemaOutput, data); err != nil {
		return errors.Wrapf(err, "writing %s", schemaOutput)
	}

	a.log.Info("schema written", "path", schemaOutput)

	return nil
}
