// Transcription commands for the kungfu CLI.
package main

import (
	"bufio"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/mesh-intelligence/kungfu/internal/features"
	"github.com/mesh-intelligence/kungfu/internal/sqlite"
	"github.com/mesh-intelligence/kungfu/pkg/types"
)

func (a *app) transcribeCmd() *cobra.Command {
	var language string
	cmd := &cobra.Command{
		Use:   "transcribe",
		Short: "Record recognized speech from stdin as a transcription",
		Long: `Start a live transcription of the current page and read recognized
speech from stdin, one final result per line. At end of input the
transcription is stopped and stored.`,
		Args: userArgs(cobra.NoArgs),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.withStore(func(store *sqlite.Backend) error {
				tr := features.NewTranscriber(store, a.page(), features.WithLogger(logger()))
				if _, err := tr.Start(language); err != nil {
					return err
				}

				scanner := bufio.NewScanner(cmd.InOrStdin())
				for scanner.Scan() {
					line := strings.TrimSpace(scanner.Text())
					if line == "" {
						continue
					}
					if err := tr.Append(line, ""); err != nil {
						return err
					}
				}
				if err := scanner.Err(); err != nil {
					return fmt.Errorf("reading speech input: %w", err)
				}

				rec, err := tr.Stop()
				if err != nil {
					return err
				}
				return printJSON(cmd.OutOrStdout(), rec)
			})
		},
	}
	cmd.Flags().StringVar(&language, "lang", "", "recognition language (default: transcriptionLanguage setting)")
	return cmd
}

func (a *app) transcriptionsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "transcriptions",
		Short: "List and manage stored transcriptions",
	}

	withTranscriber := func(fn func(tr *features.Transcriber) error) error {
		return a.withStore(func(store *sqlite.Backend) error {
			return fn(features.NewTranscriber(store, a.page(), features.WithLogger(logger())))
		})
	}

	var currentPage bool
	list := &cobra.Command{
		Use:   "list",
		Short: "List transcriptions, most recent first",
		Args:  userArgs(cobra.NoArgs),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withTranscriber(func(tr *features.Transcriber) error {
				var recs []*types.Transcription
				var err error
				if currentPage {
					recs, err = tr.ForCurrentPage()
				} else {
					recs, err = tr.All()
				}
				if err != nil {
					return err
				}
				return printJSON(cmd.OutOrStdout(), recs)
			})
		},
	}
	list.Flags().BoolVar(&currentPage, "page", false, "only transcriptions of the page given by --url")

	get := &cobra.Command{
		Use:   "get <id>",
		Short: "Show a transcription",
		Args:  userArgs(cobra.ExactArgs(1)),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withTranscriber(func(tr *features.Transcriber) error {
				rec, err := tr.Get(args[0])
				if err != nil {
					return err
				}
				return printJSON(cmd.OutOrStdout(), rec)
			})
		},
	}

	del := &cobra.Command{
		Use:   "delete <id>",
		Short: "Delete a transcription",
		Args:  userArgs(cobra.ExactArgs(1)),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withTranscriber(func(tr *features.Transcriber) error {
				return tr.Delete(args[0])
			})
		},
	}

	cmd.AddCommand(list, get, del)
	return cmd
}
