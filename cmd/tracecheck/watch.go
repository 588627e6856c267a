package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/ShayCichocki/tracecheck/internal/validation"
	"github.com/ShayCichocki/tracecheck/internal/watch"
)

func newWatchCmd(a *app) *cobra.Command {
	var mode string

	cmd := &cobra.Command{
		Use:   "watch <trace>",
		Short: "Re-check a trace every time it changes",
		Long: `Check a trace, then keep checking it whenever the file is written.

Bursts of writes within the configured debounce window (watch.debounce)
trigger a single run. Stop with Ctrl+C.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			return runWatch(ctx, cmd, a, mode, args[0])
		},
	}

	cmd.Flags().StringVar(&mode, "mode", "", "Grammar mode: first-child or strict (default from config)")

	return cmd
}

func runWatch(ctx context.Context, cmd *cobra.Command, a *app, modeFlag, path string) error {
	mode, err := a.mode(modeFlag)
	if err != nil {
		return err
	}
	validator := a.validator(validation.Options{Mode: mode})
	renderer := a.renderer()
	loader := a.loader()

	w, err := watch.New(path, a.cfg.Watch.Debounce, a.logger)
	if err != nil {
		return err
	}
	defer w.Close()

	check := func(ctx context.Context) {
		result, err := validator.ValidateFile(ctx, loader, path)
		if err != nil {
			if ctx.Err() == nil {
				printStatus(cmd, "✗", err.Error(), color.FgRed)
			}
			return
		}
		if err := renderer.Text(cmd.OutOrStdout(), result); err != nil {
			a.logger.Warn("Could not render result", zap.Error(err))
		}
		fmt.Fprintln(cmd.OutOrStdout())
	}

	check(ctx)
	printStatus(cmd, "👀", fmt.Sprintf("Watching %s (Ctrl+C to stop)", w.Path()), color.FgCyan)
	return w.Run(ctx, check)
}
