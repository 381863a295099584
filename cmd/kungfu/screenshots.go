// Screenshot commands for the kungfu CLI.
package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/mesh-intelligence/kungfu/internal/features"
	"github.com/mesh-intelligence/kungfu/internal/sqlite"
	"github.com/mesh-intelligence/kungfu/pkg/types"
)

func (a *app) screenshotsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "screenshots",
		Short: "Store and retrieve page screenshots",
	}

	withShots := func(fn func(s *features.Screenshots) error) error {
		return a.withStore(func(store *sqlite.Backend) error {
			return fn(features.NewScreenshots(store, a.page(), features.WithLogger(logger())))
		})
	}

	var area bool
	var width, height int
	add := &cobra.Command{
		Use:   "add <file.png>",
		Short: "Store a PNG capture of the current page",
		Long: `Store a PNG file as a screenshot of the page given by --url and --title.

Without --area the capture is a full-tab screenshot and its size is read
from the PNG. With --area, --width and --height give the selected size.`,
		Args: userArgs(cobra.ExactArgs(1)),
		RunE: func(cmd *cobra.Command, args []string) error {
			data, err := os.ReadFile(args[0])
			if err != nil {
				return usageErrorf("reading %s: %v", args[0], err)
			}
			dataURL := features.EncodePNG(data)
			return withShots(func(s *features.Screenshots) error {
				var shot *types.Screenshot
				if area {
					if width <= 0 || height <= 0 {
						return usageErrorf("--area needs positive --width and --height")
					}
					shot, err = s.SaveArea(dataURL, types.Dimensions{Width: width, Height: height})
				} else {
					shot, err = s.SaveFull(dataURL)
				}
				if err != nil {
					return err
				}
				return printJSON(cmd.OutOrStdout(), summarizeShot(shot))
			})
		},
	}
	add.Flags().BoolVar(&area, "area", false, "the capture is a selected area")
	add.Flags().IntVar(&width, "width", 0, "area width in pixels")
	add.Flags().IntVar(&height, "height", 0, "area height in pixels")

	var kind string
	var currentPage bool
	list := &cobra.Command{
		Use:   "list",
		Short: "List screenshots, most recent first",
		Args:  userArgs(cobra.NoArgs),
		RunE: func(cmd *cobra.Command, args []string) error {
			if kind != "" && kind != types.ScreenshotFull && kind != types.ScreenshotArea {
				return usageErrorf("--type must be %s or %s", types.ScreenshotFull, types.ScreenshotArea)
			}
			return withShots(func(s *features.Screenshots) error {
				var shots []*types.Screenshot
				var err error
				if currentPage {
					shots, err = s.ForCurrentPage()
				} else {
					shots, err = s.All(kind)
				}
				if err != nil {
					return err
				}
				out := make([]shotInfo, 0, len(shots))
				for _, shot := range shots {
					out = append(out, summarizeShot(shot))
				}
				return printJSON(cmd.OutOrStdout(), out)
			})
		},
	}
	list.Flags().StringVar(&kind, "type", "", "only full or area captures")
	list.Flags().BoolVar(&currentPage, "page", false, "only screenshots of the page given by --url")

	var outPath string
	get := &cobra.Command{
		Use:   "get <id>",
		Short: "Show a screenshot or save its PNG",
		Args:  userArgs(cobra.ExactArgs(1)),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withShots(func(s *features.Screenshots) error {
				shot, err := s.Get(args[0])
				if err != nil {
					return err
				}
				if outPath == "" {
					return printJSON(cmd.OutOrStdout(), shot)
				}
				data, err := features.DecodePNG(shot.DataURL)
				if err != nil {
					return err
				}
				target := outPath
				if info, err := os.Stat(outPath); err == nil && info.IsDir() {
					target = filepath.Join(outPath, features.DownloadName(shot))
				}
				if err := os.WriteFile(target, data, 0o644); err != nil {
					return fmt.Errorf("writing %s: %w", target, err)
				}
				_, err = fmt.Fprintln(cmd.OutOrStdout(), target)
				return err
			})
		},
	}
	get.Flags().StringVar(&outPath, "out", "", "write the PNG to this file or directory")

	del := &cobra.Command{
		Use:   "delete <id>",
		Short: "Delete a screenshot",
		Args:  userArgs(cobra.ExactArgs(1)),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withShots(func(s *features.Screenshots) error {
				return s.Delete(args[0])
			})
		},
	}

	cmd.AddCommand(add, list, get, del)
	return cmd
}

// shotInfo is a screenshot without its image payload.
type shotInfo struct {
	types.Envelope
	Type       string            `json:"type"`
	Dimensions *types.Dimensions `json:"dimensions,omitempty"`
	Bytes      int               `json:"bytes"`
}

func summarizeShot(s *types.Screenshot) shotInfo {
	return shotInfo{
		Envelope:   s.Envelope,
		Type:       s.Type,
		Dimensions: s.Dimensions,
		Bytes:      len(s.DataURL),
	}
}
