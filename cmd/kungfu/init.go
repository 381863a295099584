// Init and version commands for the kungfu CLI.
package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/mesh-intelligence/kungfu/internal/sqlite"
)

func (a *app) initCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "init",
		Short: "Create the configuration and data directories",
		Args:  userArgs(cobra.NoArgs),
		RunE: func(cmd *cobra.Command, args []string) error {
			// PersistentPreRunE has already written config.yaml.
			configDir, err := a.resolveConfigDir()
			if err != nil {
				return err
			}
			dataDir, err := a.resolveDataDir()
			if err != nil {
				return err
			}
			// Attach creates the data directory and the JSONL files.
			if err := a.withStore(func(*sqlite.Backend) error { return nil }); err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			fmt.Fprintln(out, "kungfu initialized successfully")
			fmt.Fprintln(out, "  config:", configDir)
			fmt.Fprintln(out, "  data:  ", dataDir)
			return nil
		},
	}
}

func (a *app) versionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the kungfu version",
		Args:  userArgs(cobra.NoArgs),
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintln(cmd.OutOrStdout(), "kungfu", Version)
		},
	}
}
