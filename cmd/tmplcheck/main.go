// Package main provides the CLI entry point for tmplcheck.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/smykla-skalski/tmplcheck/internal/color"
	"github.com/smykla-skalski/tmplcheck/internal/config"
	"github.com/smykla-skalski/tmplcheck/internal/tui"
	"github.com/smykla-skalski/tmplcheck/pkg/logger"
)

var (
	templatePath   string
	configPath     string
	noTUIFlag      bool
	accessibleFlag bool
	debugMode      bool
	traceMode      bool
	noColorFlag    bool
)

func main() {
	os.Exit(mainWithExitCode())
}

func mainWithExitCode() int {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)

		return 1
	}

	return 0
}

var rootCmd = &cobra.Command{
	Use:   "tmplcheck",
	Short: "Check a TOML config against a rule template",
	Long: `Check a TOML config against a rule template.

Every leaf of the template describes the value expected at the same path in
the config: its type, admissible options, a pattern, bounds, a default and
whether it may be left empty. Values that do not conform are asked for
interactively and the repaired config is written back.`,
	PersistentPreRun: func(_ *cobra.Command, _ []string) {
		checkVersionFlag()
	},
	RunE:              runCheck,
	SilenceUsage:      true,
	SilenceErrors:     true,
	CompletionOptions: cobra.CompletionOptions{DisableDefaultCmd: true},
}

func init() {
	flags := rootCmd.PersistentFlags()

	flags.StringVarP(&templatePath, "template", "t", "",
		"Path to the rule template (default: "+config.DefaultTemplatePath+")")
	flags.StringVarP(&configPath, "config", "c", "",
		"Path to the config to check (default: "+config.DefaultConfigPath+")")
	flags.BoolVar(&noTUIFlag, "no-tui", false, "Use line prompts instead of interactive forms")
	flags.BoolVar(&accessibleFlag, "accessible", false, "Use screen reader friendly forms")
	flags.BoolVar(&debugMode, "debug", false, "Enable debug logging")
	flags.BoolVar(&traceMode, "trace", false, "Enable trace logging")
	flags.BoolVar(&noColorFlag, "no-color", false, "Disable colored output")
}

// app holds what every command needs once settings are loaded.
type app struct {
	settings *config.Settings
	log      *logger.SlogAdapter
	theme    color.Theme
	ui       tui.UI
}

// setup loads settings and opens the log file. Callers must close a.log.
func setup(cmd *cobra.Command) (*app, error) {
	settings, err := config.NewLoader().Load(buildFlagsMap(cmd))
	if err != nil {
		return nil, err
	}

	log, err := logger.NewFileLogger(settings.Log.File, debugMode, traceMode)
	if err != nil {
		return nil, err
	}

	theme := color.ForOutput(os.Stdout, noColorFlag)

	log.Debug("settings loaded",
		"template", settings.Template,
		"config", settings.Config,
		"no_tui", settings.NoTUI,
		"accessible", settings.Accessible,
	)

	return &app{
		settings: settings,
		log:      log,
		theme:    theme,
		ui:       tui.NewWithFallback(settings.NoTUI, settings.Accessible, theme),
	}, nil
}

// buildFlagsMap converts explicitly set flags to settings keys.
func buildFlagsMap(cmd *cobra.Command) map[string]any {
	flags := make(map[string]any)

	if cmd.Flags().Changed("template") {
		flags["template"] = templatePath
	}

	if cmd.Flags().Changed("config") {
		flags["config"] = configPath
	}

	if cmd.Flags().Changed("no-tui") {
		flags["no_tui"] = noTUIFlag
	}

	if cmd.Flags().Changed("accessible") {
		flags["accessible"] = accessibleFlag
	}

	return flags
}
