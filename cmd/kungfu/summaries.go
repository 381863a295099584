// Summary commands for the kungfu CLI.
package main

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/mesh-intelligence/kungfu/internal/features"
	"github.com/mesh-intelligence/kungfu/internal/sqlite"
)

func (a *app) summariesCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "summaries",
		Short: "Store and look up page summaries",
	}

	withSummaries := func(fn func(s *features.Summaries) error) error {
		return a.withStore(func(store *sqlite.Backend) error {
			return fn(features.NewSummaries(store, a.page(), features.WithLogger(logger())))
		})
	}

	add := &cobra.Command{
		Use:   "add <text|->",
		Short: "Store a summary of the current page (- reads stdin)",
		Args:  userArgs(cobra.ExactArgs(1)),
		RunE: func(cmd *cobra.Command, args []string) error {
			text := args[0]
			if text == "-" {
				data, err := io.ReadAll(cmd.InOrStdin())
				if err != nil {
					return fmt.Errorf("reading summary: %w", err)
				}
				text = string(data)
			}
			return withSummaries(func(s *features.Summaries) error {
				sum, err := s.Save(text)
				if err != nil {
					return err
				}
				return printJSON(cmd.OutOrStdout(), sum)
			})
		},
	}

	list := &cobra.Command{
		Use:   "list",
		Short: "List summaries, most recent first",
		Args:  userArgs(cobra.NoArgs),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withSummaries(func(s *features.Summaries) error {
				sums, err := s.All()
				if err != nil {
					return err
				}
				return printJSON(cmd.OutOrStdout(), sums)
			})
		},
	}

	get := &cobra.Command{
		Use:   "get <id>",
		Short: "Show a summary",
		Args:  userArgs(cobra.ExactArgs(1)),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withSummaries(func(s *features.Summaries) error {
				sum, err := s.Get(args[0])
				if err != nil {
					return err
				}
				return printJSON(cmd.OutOrStdout(), sum)
			})
		},
	}

	current := &cobra.Command{
		Use:   "current",
		Short: "Show the latest summary of the page given by --url",
		Args:  userArgs(cobra.NoArgs),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withSummaries(func(s *features.Summaries) error {
				sum, err := s.ForCurrentPage()
				if err != nil {
					return fmt.Errorf("summary for %q: %w", a.flagURL, err)
				}
				return printJSON(cmd.OutOrStdout(), sum)
			})
		},
	}

	del := &cobra.Command{
		Use:   "delete <id>",
		Short: "Delete a summary",
		Args:  userArgs(cobra.ExactArgs(1)),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withSummaries(func(s *features.Summaries) error {
				return s.Delete(args[0])
			})
		},
	}

	cmd.AddCommand(add, list, get, current, del)
	return cmd
}
