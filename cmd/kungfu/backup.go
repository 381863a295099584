// Export, import and clear commands for the kungfu CLI.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/mesh-intelligence/kungfu/internal/backup"
	"github.com/mesh-intelligence/kungfu/internal/sqlite"
)

func (a *app) exportCmd() *cobra.Command {
	var outPath string
	cmd := &cobra.Command{
		Use:   "export",
		Short: "Write every record and the settings as one JSON document",
		Args:  userArgs(cobra.NoArgs),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.withStore(func(store *sqlite.Backend) error {
				doc, err := backup.Export(store)
				if err != nil {
					return err
				}
				if outPath == "" {
					return backup.Write(cmd.OutOrStdout(), doc)
				}
				data, err := backup.Marshal(doc)
				if err != nil {
					return err
				}
				if err := os.WriteFile(outPath, append(data, '\n'), 0o644); err != nil {
					return fmt.Errorf("writing %s: %w", outPath, err)
				}
				log := logger()
				log.Info().Str("path", outPath).Int("notes", len(doc.Notes)).
					Int("screenshots", len(doc.Screenshots)).
					Int("transcriptions", len(doc.Transcriptions)).
					Int("summaries", len(doc.Summaries)).Msg("exported")
				return nil
			})
		},
	}
	cmd.Flags().StringVar(&outPath, "out", "", "write to this file instead of stdout")
	return cmd
}

func (a *app) importCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "import <file|->",
		Short: "Merge an exported JSON document into the store",
		Long: `Import upserts every record of an export document by id and merges its
settings. Records already stored but absent from the document are kept.
Malformed records are skipped and listed in the report.`,
		Args: userArgs(cobra.ExactArgs(1)),
		RunE: func(cmd *cobra.Command, args []string) error {
			var data []byte
			var err error
			if args[0] == "-" {
				data, err = readAll(cmd)
			} else {
				data, err = os.ReadFile(args[0])
			}
			if err != nil {
				return usageErrorf("reading %s: %v", args[0], err)
			}
			return a.withStore(func(store *sqlite.Backend) error {
				report, err := backup.Import(store, data, logger())
				if report != nil {
					if perr := printJSON(cmd.OutOrStdout(), report); perr != nil && err == nil {
						err = perr
					}
				}
				return err
			})
		},
	}
}

func (a *app) clearCmd() *cobra.Command {
	var yes bool
	cmd := &cobra.Command{
		Use:   "clear",
		Short: "Delete every record and reset the settings",
		Args:  userArgs(cobra.NoArgs),
		RunE: func(cmd *cobra.Command, args []string) error {
			if !yes {
				return usageErrorf("clear deletes all data; pass --yes to confirm")
			}
			return a.withStore(func(store *sqlite.Backend) error {
				return store.ClearAll()
			})
		},
	}
	cmd.Flags().BoolVar(&yes, "yes", false, "confirm deleting all data")
	return cmd
}
