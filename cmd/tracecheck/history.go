package main

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/ShayCichocki/tracecheck/internal/state"
)

func newHistoryCmd(a *app) *cobra.Command {
	var (
		limit  int
		source string
		prune  time.Duration
	)

	cmd := &cobra.Command{
		Use:   "history [run-id]",
		Short: "Show recorded validation runs",
		Long: `List recent runs from the history database, newest first.

With a run id (or a unique prefix shown in the list), prints that run's
layer output. --prune deletes runs older than the given age first.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			path := a.cfg.HistoryPath()
			if _, err := os.Stat(path); errors.Is(err, os.ErrNotExist) {
				printStatus(cmd, "⚠", "No history yet", color.FgYellow)
				return nil
			}

			db, err := state.OpenAndMigrate(path)
			if err != nil {
				return err
			}
			defer db.Close()

			if prune > 0 {
				n, err := db.PurgeOldRuns(prune)
				if err != nil {
					return err
				}
				printStatus(cmd, "✓", fmt.Sprintf("Pruned %d run(s) older than %s", n, prune), color.FgGreen)
			}

			if len(args) == 1 {
				return showRun(cmd, db, args[0])
			}
			return listRuns(cmd, db, state.RunFilter{Source: source, Limit: limit})
		},
	}

	cmd.Flags().IntVarP(&limit, "limit", "n", 20, "Maximum number of runs to list")
	cmd.Flags().StringVar(&source, "source", "", "Only list runs of this trace path")
	cmd.Flags().DurationVar(&prune, "prune", 0, "Delete runs older than this age (e.g. 720h)")

	return cmd
}

func listRuns(cmd *cobra.Command, store state.RunStore, filter state.RunFilter) error {
	runs, err := store.ListRuns(filter)
	if err != nil {
		return err
	}
	if len(runs) == 0 {
		printStatus(cmd, "⚠", "No runs recorded", color.FgYellow)
		return nil
	}

	green := color.New(color.FgGreen)
	red := color.New(color.FgRed)

	t := table.New().
		BorderTop(false).
		BorderBottom(false).
		BorderLeft(false).
		BorderRight(false).
		BorderHeader(false).
		BorderColumn(false).
		StyleFunc(func(row, col int) lipgloss.Style {
			return lipgloss.NewStyle().PaddingRight(2)
		}).
		Headers("ID", "CHECKED", "RESULT", "MODE", "RECORDS", "SOURCE")
	for _, r := range runs {
		result := red.Sprint("FAIL")
		if r.AllPassed {
			result = green.Sprint("PASS")
		}
		t.Row(shortID(r.ID), r.CheckedAt.Local().Format("2006-01-02 15:04:05"), result,
			r.Mode, strconv.Itoa(r.Records), r.Source)
	}
	_, err = fmt.Fprintln(cmd.OutOrStdout(), t.String())
	return err
}

func showRun(cmd *cobra.Command, db *state.DB, id string) error {
	run, err := db.GetRun(id)
	if errors.Is(err, state.ErrRunNotFound) {
		run, err = findByPrefix(db, id)
	}
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "Run %s\n", run.ID)
	fmt.Fprintf(out, "  Source:   %s\n", run.Source)
	fmt.Fprintf(out, "  Checked:  %s\n", run.CheckedAt.Local().Format(time.RFC3339))
	fmt.Fprintf(out, "  Mode:     %s\n", run.Mode)
	fmt.Fprintf(out, "  Records:  %d\n", run.Records)
	fmt.Fprintf(out, "  Duration: %s\n\n", run.Duration)

	for _, layer := range run.Layers {
		if layer.Passed {
			printStatus(cmd, "✓", layer.Name, color.FgGreen)
		} else {
			printStatus(cmd, "✗", layer.Name, color.FgRed)
		}
		if layer.Error != "" {
			fmt.Fprintf(out, "    error: %s\n", layer.Error)
		}
		if layer.Output != "" {
			for _, line := range strings.Split(layer.Output, "\n") {
				fmt.Fprintf(out, "    %s\n", line)
			}
		}
	}
	return nil
}

// findByPrefix resolves an id prefix against recent runs.
func findByPrefix(db *state.DB, prefix string) (*state.Run, error) {
	runs, err := db.ListRuns(state.RunFilter{Limit: 1000})
	if err != nil {
		return nil, err
	}
	var match string
	for _, r := range runs {
		if len(r.ID) >= len(prefix) && r.ID[:len(prefix)] == prefix {
			if match != "" {
				return nil, fmt.Errorf("run id prefix %q is ambiguous", prefix)
			}
			match = r.ID
		}
	}
	if match == "" {
		return nil, fmt.Errorf("%w: %s", state.ErrRunNotFound, prefix)
	}
	return db.GetRun(match)
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}
