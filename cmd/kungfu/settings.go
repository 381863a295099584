// Settings commands for the kungfu CLI.
package main

import (
	"github.com/spf13/cobra"

	"github.com/mesh-intelligence/kungfu/internal/sqlite"
	"github.com/mesh-intelligence/kungfu/pkg/types"
)

func (a *app) settingsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "settings",
		Short: "Show or change the side panel settings",
	}

	get := &cobra.Command{
		Use:   "get",
		Short: "Show the effective settings",
		Args:  userArgs(cobra.NoArgs),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.withStore(func(store *sqlite.Backend) error {
				settings, err := store.Settings()
				if err != nil {
					return err
				}
				return printJSON(cmd.OutOrStdout(), settings)
			})
		},
	}

	var theme, language string
	var autoSummary bool
	set := &cobra.Command{
		Use:   "set",
		Short: "Change settings; flags not given keep their value",
		Args:  userArgs(cobra.NoArgs),
		RunE: func(cmd *cobra.Command, args []string) error {
			var patch types.SettingsPatch
			flags := cmd.Flags()
			if flags.Changed("theme") {
				patch.Theme = &theme
			}
			if flags.Changed("auto-summary") {
				patch.AutoSummary = &autoSummary
			}
			if flags.Changed("language") {
				patch.TranscriptionLanguage = &language
			}
			if patch == (types.SettingsPatch{}) {
				return usageErrorf("nothing to set: pass --theme, --auto-summary or --language")
			}
			return a.withStore(func(store *sqlite.Backend) error {
				settings, err := store.SetSettings(patch)
				if err != nil {
					return err
				}
				return printJSON(cmd.OutOrStdout(), settings)
			})
		},
	}
	set.Flags().StringVar(&theme, "theme", "", "light, dark or system")
	set.Flags().BoolVar(&autoSummary, "auto-summary", false, "summarize pages automatically")
	set.Flags().StringVar(&language, "language", "", "transcription language, e.g. en-US")

	cmd.AddCommand(get, set)
	return cmd
}
