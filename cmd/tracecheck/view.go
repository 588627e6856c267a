package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/ShayCichocki/tracecheck/internal/tui"
)

func newViewCmd(a *app) *cobra.Command {
	var mode string

	cmd := &cobra.Command{
		Use:   "view <trace>",
		Short: "Browse the group tree interactively",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			tree, verdict, err := a.buildTree(args[0], mode)
			if err != nil {
				return err
			}

			program, _ := tui.NewViewerProgram(args[0], tree, verdict)
			if _, err := program.Run(); err != nil {
				return fmt.Errorf("run viewer: %w", err)
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&mode, "mode", "", "Grammar mode used to mark violations (default from config)")

	return cmd
}
