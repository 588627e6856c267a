package main

import (
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/ShayCichocki/tracecheck/internal/report"
	"github.com/ShayCichocki/tracecheck/internal/state"
	"github.com/ShayCichocki/tracecheck/internal/validation"
)

type checkOptions struct {
	only      string
	mode      string
	format    string
	fail      bool
	noHistory bool
}

func newCheckCmd(a *app) *cobra.Command {
	opts := &checkOptions{}

	cmd := &cobra.Command{
		Use:   "check <trace>",
		Short: "Run the nesting and grammar checks on a trace",
		Long: `Check a trace file.

The nesting check prints one line per end marker that closes the wrong event,
and a final line listing events never closed. The grammar check prints true
or false, followed by the offending node paths.

Results are advisory: the exit code is 0 unless --fail is given and a check
failed.`,
		Example: `  tracecheck check eventTrace.json
  tracecheck check --only grammar --mode strict eventTrace.json
  tracecheck check --format json --fail eventTrace.json`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runCheck(cmd, a, opts, args[0])
		},
	}

	cmd.Flags().StringVar(&opts.only, "only", "", "Run a single check: nesting or grammar")
	cmd.Flags().StringVar(&opts.mode, "mode", "", "Grammar mode: first-child or strict (default from config)")
	cmd.Flags().StringVarP(&opts.format, "format", "o", "", "Output format: text, json or yaml (default from config)")
	cmd.Flags().BoolVar(&opts.fail, "fail", false, "Exit with status 1 when a check fails")
	cmd.Flags().BoolVar(&opts.noHistory, "no-history", false, "Do not record this run in the history database")

	return cmd
}

func runCheck(cmd *cobra.Command, a *app, opts *checkOptions, path string) error {
	mode, err := a.mode(opts.mode)
	if err != nil {
		return err
	}

	format := opts.format
	if format == "" {
		format = a.cfg.Report.Format
	}
	f, err := report.ParseFormat(format)
	if err != nil {
		return err
	}

	vopts := validation.Options{Mode: mode}
	switch opts.only {
	case "":
	case "nesting":
		vopts.SkipGrammar = true
	case "grammar":
		vopts.SkipNesting = true
	default:
		return fmt.Errorf("unknown check %q (want nesting or grammar)", opts.only)
	}

	result, err := a.validator(vopts).ValidateFile(cmd.Context(), a.loader(), path)
	if err != nil {
		return err
	}

	if err := a.renderer().Write(cmd.OutOrStdout(), result, f); err != nil {
		return err
	}

	if a.cfg.History.Enabled && !opts.noHistory {
		a.record(result, string(mode))
	}

	if opts.fail && !result.AllPassed {
		return &ExitError{Code: 1, Message: result.FailureReason}
	}
	return nil
}

// record stores a run in the history database. Failures are logged and
// otherwise ignored.
func (a *app) record(result *validation.Result, mode string) {
	db, err := state.OpenAndMigrate(a.cfg.HistoryPath())
	if err != nil {
		a.logger.Warn("Could not open history", zap.Error(err))
		return
	}
	defer db.Close()

	if err := db.CreateRun(state.RunFromResult(result, mode)); err != nil {
		a.logger.Warn("Could not record run", zap.Error(err))
		return
	}
	a.logger.Debug("Recorded run", zap.String("run", result.RunID), zap.String("db", db.Path()))
}
