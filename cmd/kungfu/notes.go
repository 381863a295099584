// Notes commands for the kungfu CLI.
package main

import (
	"github.com/spf13/cobra"

	"github.com/mesh-intelligence/kungfu/internal/features"
	"github.com/mesh-intelligence/kungfu/internal/sqlite"
	"github.com/mesh-intelligence/kungfu/pkg/types"
)

func (a *app) notesCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "notes",
		Short: "Create, list and search notes",
	}

	withNotes := func(fn func(n *features.Notes) error) error {
		return a.withStore(func(store *sqlite.Backend) error {
			return fn(features.NewNotes(store, a.page(), features.WithLogger(logger())))
		})
	}

	var tags []string
	add := &cobra.Command{
		Use:   "add <title> <content>",
		Short: "Create a note on the current page",
		Args:  userArgs(cobra.ExactArgs(2)),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withNotes(func(n *features.Notes) error {
				note, err := n.Create(args[0], args[1], tags...)
				if err != nil {
					return err
				}
				return printJSON(cmd.OutOrStdout(), note)
			})
		},
	}
	add.Flags().StringSliceVar(&tags, "tag", nil, "tag to attach (repeatable)")

	var currentPage bool
	list := &cobra.Command{
		Use:   "list",
		Short: "List notes, most recent first",
		Args:  userArgs(cobra.NoArgs),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withNotes(func(n *features.Notes) error {
				var notes []*types.Note
				var err error
				if currentPage {
					notes, err = n.ForCurrentPage()
				} else {
					notes, err = n.All()
				}
				if err != nil {
					return err
				}
				return printJSON(cmd.OutOrStdout(), notes)
			})
		},
	}
	list.Flags().BoolVar(&currentPage, "page", false, "only notes of the page given by --url")

	get := &cobra.Command{
		Use:   "get <id>",
		Short: "Show a note",
		Args:  userArgs(cobra.ExactArgs(1)),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withNotes(func(n *features.Notes) error {
				note, err := n.Get(args[0])
				if err != nil {
					return err
				}
				return printJSON(cmd.OutOrStdout(), note)
			})
		},
	}

	var newTitle, newContent, newURL string
	var newTags []string
	update := &cobra.Command{
		Use:   "update <id>",
		Short: "Change the title, content, url or tags of a note",
		Args:  userArgs(cobra.ExactArgs(1)),
		RunE: func(cmd *cobra.Command, args []string) error {
			var patch types.NotePatch
			flags := cmd.Flags()
			if flags.Changed("set-title") {
				patch.Title = &newTitle
			}
			if flags.Changed("content") {
				patch.Content = &newContent
			}
			if flags.Changed("set-url") {
				patch.URL = &newURL
			}
			if flags.Changed("tags") {
				patch.Tags = &newTags
			}
			if patch.IsEmpty() {
				return usageErrorf("nothing to update: pass --set-title, --content, --set-url or --tags")
			}
			return withNotes(func(n *features.Notes) error {
				note, err := n.Update(args[0], patch)
				if err != nil {
					return err
				}
				return printJSON(cmd.OutOrStdout(), note)
			})
		},
	}
	update.Flags().StringVar(&newTitle, "set-title", "", "new title")
	update.Flags().StringVar(&newContent, "content", "", "new content")
	update.Flags().StringVar(&newURL, "set-url", "", "new url")
	update.Flags().StringSliceVar(&newTags, "tags", nil, "replacement tags (comma separated)")

	del := &cobra.Command{
		Use:   "delete <id>",
		Short: "Delete a note",
		Args:  userArgs(cobra.ExactArgs(1)),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withNotes(func(n *features.Notes) error {
				return n.Delete(args[0])
			})
		},
	}

	search := &cobra.Command{
		Use:   "search <query>",
		Short: "Find notes whose title, content or tags contain query",
		Args:  userArgs(cobra.ExactArgs(1)),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withNotes(func(n *features.Notes) error {
				notes, err := n.Search(args[0])
				if err != nil {
					return err
				}
				return printJSON(cmd.OutOrStdout(), notes)
			})
		},
	}

	cmd.AddCommand(add, list, get, update, del, search)
	return cmd
}
