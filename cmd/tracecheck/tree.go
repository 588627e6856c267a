package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/ShayCichocki/tracecheck/internal/grammar"
	"github.com/ShayCichocki/tracecheck/internal/report"
)

func newTreeCmd(a *app) *cobra.Command {
	var (
		mode   string
		format string
	)

	cmd := &cobra.Command{
		Use:   "tree <trace>",
		Short: "Print the group tree rebuilt from a trace",
		Long: `Rebuild the tree of group events from a trace and print it.

Nodes that break the grammar are marked with ✗. Use --format json or yaml to
print the tree structure instead.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			tree, verdict, err := a.buildTree(args[0], mode)
			if err != nil {
				return err
			}

			f, err := report.ParseFormat(format)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			switch f {
			case report.FormatJSON:
				return report.JSON(out, tree)
			case report.FormatYAML:
				return report.YAML(out, tree)
			default:
				return a.renderer().Tree(out, tree, verdict)
			}
		},
	}

	cmd.Flags().StringVar(&mode, "mode", "", "Grammar mode used to mark violations (default from config)")
	cmd.Flags().StringVarP(&format, "format", "o", "text", "Output format: text, json or yaml")

	return cmd
}

// buildTree loads a trace, rebuilds its group tree and verifies it.
func (a *app) buildTree(path, modeFlag string) (*grammar.Tree, *grammar.Verdict, error) {
	mode, err := a.mode(modeFlag)
	if err != nil {
		return nil, nil, err
	}

	records, err := a.loader().Load(path)
	if err != nil {
		return nil, nil, err
	}

	tree, err := grammar.BuildFromTrace(records, a.cfg.Grammar.GroupType)
	if err != nil {
		return nil, nil, fmt.Errorf("build group tree: %w", err)
	}
	return tree, grammar.Verify(tree.Root, mode), nil
}
