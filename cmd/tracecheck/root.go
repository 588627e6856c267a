package main

import (
	"fmt"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/ShayCichocki/tracecheck/internal/config"
	"github.com/ShayCichocki/tracecheck/internal/grammar"
	"github.com/ShayCichocki/tracecheck/internal/logging"
	"github.com/ShayCichocki/tracecheck/internal/report"
	"github.com/ShayCichocki/tracecheck/internal/trace"
	"github.com/ShayCichocki/tracecheck/internal/validation"
)

// app carries state shared by every command of one invocation.
type app struct {
	verbose    bool
	configPath string

	cfg    *config.Config
	logger *zap.Logger
}

func newRootCmd() *cobra.Command {
	a := &app{logger: zap.NewNop()}

	rootCmd := &cobra.Command{
		Use:   "tracecheck",
		Short: "Validate the structure of execution event traces",
		Long: `tracecheck checks traces written by an instrumentation agent.

A trace is a flat list of start and end markers for nested runtime events.
Two checks are run:
- Nesting: every end closes the innermost open event, and nothing is left open
- Grammar: the tree of control-flow, statement and sub-statement groups
  follows the allowed parent/child rules

Configuration is read from ~/.config/tracecheck/config.yaml, a project
.tracecheck.yaml, and TRACECHECK_* environment variables.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return a.setup(true)
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			_ = a.logger.Sync()
		},
	}

	rootCmd.PersistentFlags().BoolVarP(&a.verbose, "verbose", "v", false, "Enable debug logging")
	rootCmd.PersistentFlags().StringVar(&a.configPath, "config", "", "Config file (default is ~/.config/tracecheck/config.yaml)")

	rootCmd.AddCommand(newCheckCmd(a))
	rootCmd.AddCommand(newTreeCmd(a))
	rootCmd.AddCommand(newViewCmd(a))
	rootCmd.AddCommand(newWatchCmd(a))
	rootCmd.AddCommand(newHistoryCmd(a))
	rootCmd.AddCommand(newConfigCmd(a))
	rootCmd.AddCommand(newVersionCmd())

	return rootCmd
}

// setup loads configuration and builds the logger.
func (a *app) setup(validate bool) error {
	var (
		cfg *config.Config
		err error
	)
	if a.configPath != "" {
		cfg, err = config.LoadFromPath(a.configPath)
	} else {
		cfg, err = config.Load()
	}
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	if validate {
		if err := cfg.Validate(); err != nil {
			return fmt.Errorf("invalid config: %w", err)
		}
	}
	a.cfg = cfg

	logger, err := logging.New(cfg.Log.Level, a.verbose)
	if err != nil {
		if validate {
			return err
		}
		logger = zap.NewNop()
	}
	a.logger = logger
	a.logger.Debug("Configuration loaded",
		zap.String("config", a.configPath),
		zap.String("mode", cfg.Grammar.Mode),
		zap.String("format", cfg.Report.Format))
	return nil
}

func (a *app) loader() *trace.Loader {
	return trace.NewLoader(a.cfg.Trace.Field)
}

func (a *app) renderer() *report.Renderer {
	return report.New(a.cfg.Report.Color && !color.NoColor)
}

// mode resolves a --mode flag against the configured default.
func (a *app) mode(flag string) (grammar.Mode, error) {
	if flag != "" {
		return grammar.ParseMode(flag)
	}
	return grammar.ParseMode(a.cfg.Grammar.Mode)
}

func (a *app) validator(opts validation.Options) *validation.Validator {
	if opts.GroupType == "" {
		opts.GroupType = a.cfg.Grammar.GroupType
	}
	return validation.NewValidator(opts, a.logger)
}

// printStatus prints a colored status symbol followed by a message.
func printStatus(cmd *cobra.Command, symbol, message string, colorAttr color.Attribute) {
	c := color.New(colorAttr)
	fmt.Fprintf(cmd.OutOrStdout(), "%s %s\n", c.Sprint(symbol), message)
}
