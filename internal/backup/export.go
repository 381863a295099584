// Package backup converts a whole page-notes store to and from the portable
// JSON export document.
package backup

import (
	"fmt"
	"io"

	"github.com/goccy/go-json"
	"golang.org/x/sync/errgroup"

	"github.com/mesh-intelligence/kungfu/pkg/types"
)

// Export reads every table and the effective settings into an export
// document. Tables are read concurrently; the store is not modified.
func Export(store types.Store) (*types.ExportDocument, error) {
	doc := &types.ExportDocument{}

	g := new(errgroup.Group)
	g.Go(func() (err error) {
		doc.Notes, err = collect[*types.Note](store, types.NotesTable)
		return err
	})
	g.Go(func() (err error) {
		doc.Screenshots, err = collect[*types.Screenshot](store, types.ScreenshotsTable)
		return err
	})
	g.Go(func() (err error) {
		doc.Transcriptions, err = collect[*types.Transcription](store, types.TranscriptionsTable)
		return err
	})
	g.Go(func() (err error) {
		doc.Summaries, err = collect[*types.Summary](store, types.SummariesTable)
		return err
	})
	g.Go(func() error {
		settings, err := store.Settings()
		if err != nil {
			return fmt.Errorf("reading settings: %w", err)
		}
		doc.Settings = &settings
		return nil
	})

	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("export: %w", err)
	}
	return doc, nil
}

func collect[T any](store types.Store, table string) ([]T, error) {
	tbl, err := store.GetTable(table)
	if err != nil {
		return nil, fmt.Errorf("opening %s: %w", table, err)
	}
	records, err := types.Collect[T](tbl, nil)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", table, err)
	}
	return records, nil
}

// Marshal encodes doc as indented JSON.
func Marshal(doc *types.ExportDocument) ([]byte, error) {
	data, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("encoding export document: %w", err)
	}
	return data, nil
}

// Write encodes doc as indented JSON to w, followed by a newline.
func Write(w io.Writer, doc *types.ExportDocument) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(doc); err != nil {
		return fmt.Errorf("writing export document: %w", err)
	}
	return nil
}
