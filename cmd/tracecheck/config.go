package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/ShayCichocki/tracecheck/internal/config"
)

func newConfigCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "config [key] [value]",
		Short: "Manage configuration",
		Long: `View or modify tracecheck configuration.

Without arguments, displays current configuration.
With one argument (key), displays the value for that key.
With two arguments (key value), sets the configuration value.

Configuration is stored at ~/.config/tracecheck/config.yaml, or in the file
given by --config. Project-specific overrides can be placed in .tracecheck.yaml`,
		Args: cobra.MaximumNArgs(2),
		// An invalid config must still be fixable with config set.
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return a.setup(false)
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			out := cmd.OutOrStdout()
			switch len(args) {
			case 0:
				for _, key := range config.Keys() {
					value, err := config.Get(a.cfg, key)
					if err != nil {
						return err
					}
					fmt.Fprintf(out, "%s: %s\n", key, value)
				}
				return nil

			case 1:
				value, err := config.Get(a.cfg, args[0])
				if err != nil {
					return err
				}
				fmt.Fprintln(out, value)
				return nil

			default:
				if err := config.Set(a.cfg, args[0], args[1]); err != nil {
					return err
				}
				path := a.configPath
				if path == "" {
					if err := config.Save(a.cfg); err != nil {
						return err
					}
					path = config.GetUserConfigPath()
				} else if err := config.SaveToPath(a.cfg, path); err != nil {
					return err
				}
				fmt.Fprintf(out, "Set %s = %s (%s)\n", args[0], args[1], path)
				return nil
			}
		},
	}
}
