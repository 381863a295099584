package sqlite

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/mesh-intelligence/kungfu/pkg/types"
)

// setupBackend attaches a Backend to a fresh temp directory and detaches it
// when the test ends.
func setupBackend(t *testing.T) (*Backend, string) {
	t.Helper()
	dir := t.TempDir()
	b := NewBackend()
	require.NoError(t, b.Attach(types.Config{Backend: types.BackendSQLite, DataDir: dir}))
	t.Cleanup(func() { b.Detach() })
	return b, dir
}

func mustTable(t *testing.T, b *Backend, name string) types.Table {
	t.Helper()
	tbl, err := b.GetTable(name)
	require.NoError(t, err)
	return tbl
}

func note(id, url, title string, ts int64) *types.Note {
	return &types.Note{
		Envelope: types.Envelope{ID: id, URL: url, Title: title, Timestamp: ts},
		Content:  "content of " + id,
	}
}

func noteIDs(t *testing.T, entities []any) []string {
	t.Helper()
	ids := make([]string, 0, len(entities))
	for _, e := range entities {
		n, ok := e.(*types.Note)
		require.True(t, ok, "expected *types.Note, got %T", e)
		ids = append(ids, n.ID)
	}
	return ids
}
