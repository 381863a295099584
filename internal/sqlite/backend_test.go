package sqlite

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mesh-intelligence/kungfu/pkg/types"
)

func TestBackend_Attach(t *testing.T) {
	tmpDir := t.TempDir()

	b := NewBackend()
	config := types.Config{
		Backend: types.BackendSQLite,
		DataDir: tmpDir,
	}

	require.NoError(t, b.Attach(config))
	defer b.Detach()

	_, err := os.Stat(filepath.Join(tmpDir, dbFileName))
	assert.NoError(t, err, "kungfu.db should be created")

	for _, s := range schemas {
		info, err := os.Stat(filepath.Join(tmpDir, s.file))
		require.NoError(t, err, "%s should be created", s.file)
		assert.Zero(t, info.Size(), "%s should start empty", s.file)
	}

	_, err = os.Stat(filepath.Join(tmpDir, settingsFileName))
	assert.True(t, errors.Is(err, os.ErrNotExist), "settings.json must not be created on attach")

	assert.ErrorIs(t, b.Attach(config), types.ErrAlreadyAttached)
}

func TestBackend_AttachInvalidConfig(t *testing.T) {
	b := NewBackend()
	err := b.Attach(types.Config{Backend: "postgres", DataDir: t.TempDir()})
	assert.ErrorIs(t, err, types.ErrBackendUnknown)
}

func TestBackend_Detach(t *testing.T) {
	b := NewBackend()
	require.NoError(t, b.Attach(types.Config{Backend: types.BackendSQLite, DataDir: t.TempDir()}))
	notes := mustTable(t, b, types.NotesTable)

	require.NoError(t, b.Detach())
	require.NoError(t, b.Detach(), "second Detach should not error")

	_, err := b.GetTable(types.NotesTable)
	assert.ErrorIs(t, err, types.ErrStoreDetached)
	assert.ErrorIs(t, err, types.ErrStorageUnavailable)

	_, err = notes.Fetch(nil)
	assert.ErrorIs(t, err, types.ErrStoreDetached)
	_, err = notes.Set("", note("n1", "", "T", 1))
	assert.ErrorIs(t, err, types.ErrStoreDetached)
	_, err = b.Settings()
	assert.ErrorIs(t, err, types.ErrStoreDetached)
	assert.ErrorIs(t, b.ClearAll(), types.ErrStoreDetached)
}

func TestBackend_GetTable(t *testing.T) {
	b, _ := setupBackend(t)

	for _, name := range types.StandardTableNames {
		tbl, err := b.GetTable(name)
		require.NoError(t, err, name)
		assert.NotNil(t, tbl)
	}

	_, err := b.GetTable("bookmarks")
	assert.ErrorIs(t, err, types.ErrTableNotFound)
}

func TestBackend_SurvivesRestart(t *testing.T) {
	dir := t.TempDir()
	cfg := types.Config{Backend: types.BackendSQLite, DataDir: dir}

	b := NewBackend()
	require.NoError(t, b.Attach(cfg))
	notes := mustTable(t, b, types.NotesTable)
	_, err := notes.Set("", note("n1", "http://a", "T", 1000))
	require.NoError(t, err)
	shots := mustTable(t, b, types.ScreenshotsTable)
	_, err = shots.Set("", &types.Screenshot{
		Envelope:   types.Envelope{ID: "s1", URL: "http://a", Title: "Shot", Timestamp: 2000},
		DataURL:    types.PNGDataURLPrefix + "AAAA",
		Type:       types.ScreenshotArea,
		Dimensions: &types.Dimensions{Width: 10, Height: 20},
	})
	require.NoError(t, err)
	require.NoError(t, b.Detach())

	for cycle := 0; cycle < 3; cycle++ {
		b2 := NewBackend()
		require.NoError(t, b2.Attach(cfg), "cycle %d", cycle)

		got, err := mustTable(t, b2, types.NotesTable).Get("n1")
		require.NoError(t, err)
		assert.Equal(t, "T", got.(*types.Note).Title)

		shot, err := mustTable(t, b2, types.ScreenshotsTable).Get("s1")
		require.NoError(t, err)
		assert.Equal(t, &types.Dimensions{Width: 10, Height: 20}, shot.(*types.Screenshot).Dimensions)

		require.NoError(t, b2.Detach())
	}
}

func TestBackend_ClearAll(t *testing.T) {
	b, dir := setupBackend(t)

	for _, name := range types.StandardTableNames {
		tbl := mustTable(t, b, name)
		var rec any
		switch name {
		case types.NotesTable:
			rec = note("n1", "http://a", "T", 1)
		case types.ScreenshotsTable:
			rec = &types.Screenshot{Envelope: types.Envelope{ID: "s1", Timestamp: 1}, DataURL: types.PNGDataURLPrefix + "AA", Type: types.ScreenshotFull}
		case types.TranscriptionsTable:
			rec = &types.Transcription{Envelope: types.Envelope{ID: "t1", Timestamp: 1}, Text: "hello"}
		case types.SummariesTable:
			rec = &types.Summary{Envelope: types.Envelope{ID: "m1", Timestamp: 1}, Summary: "short"}
		}
		_, err := tbl.Set("", rec)
		require.NoError(t, err, name)
	}
	dark := types.ThemeDark
	_, err := b.SetSettings(types.SettingsPatch{Theme: &dark})
	require.NoError(t, err)

	require.NoError(t, b.ClearAll())

	for _, name := range types.StandardTableNames {
		all, err := mustTable(t, b, name).Fetch(nil)
		require.NoError(t, err)
		assert.Empty(t, all, name)
	}
	for _, s := range schemas {
		data, err := os.ReadFile(filepath.Join(dir, s.file))
		require.NoError(t, err)
		assert.Empty(t, data, s.file)
	}
	_, err = os.Stat(filepath.Join(dir, settingsFileName))
	assert.True(t, errors.Is(err, os.ErrNotExist), "settings.json should be removed")

	settings, err := b.Settings()
	require.NoError(t, err)
	assert.Equal(t, types.DefaultSettings(), settings)
}

func TestSyncStrategy_ImmediateDefault(t *testing.T) {
	b, dir := setupBackend(t)
	assert.Equal(t, types.SyncImmediate, b.syncStrategy)

	_, err := mustTable(t, b, types.NotesTable).Set("", note("n1", "", "T", 1))
	require.NoError(t, err)

	data, err := os.ReadFile(filepath.Join(dir, "notes.jsonl"))
	require.NoError(t, err)
	assert.NotEmpty(t, data, "notes.jsonl should be written before Set returns")
}

func TestSyncStrategy_OnCloseDefersWrites(t *testing.T) {
	dir := t.TempDir()
	b := NewBackend()
	require.NoError(t, b.Attach(types.Config{
		Backend:      types.BackendSQLite,
		DataDir:      dir,
		SQLiteConfig: &types.SQLiteConfig{SyncStrategy: types.SyncOnClose},
	}))

	notes := mustTable(t, b, types.NotesTable)
	for _, id := range []string{"n1", "n2", "n3"} {
		_, err := notes.Set("", note(id, "", "T", 1))
		require.NoError(t, err)
	}

	path := filepath.Join(dir, "notes.jsonl")
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Empty(t, data, "writes should be deferred until Detach")

	b.batchMu.Lock()
	pending := len(b.pendingWrites)
	b.batchMu.Unlock()
	assert.Equal(t, 1, pending, "writes to one table coalesce into one pending write")

	require.NoError(t, b.Detach())

	lines := readLines(t, path)
	assert.Len(t, lines, 3)
}

func TestSyncStrategy_BatchFlushAtThreshold(t *testing.T) {
	dir := t.TempDir()
	b := NewBackend()
	require.NoError(t, b.Attach(types.Config{
		Backend: types.BackendSQLite,
		DataDir: dir,
		SQLiteConfig: &types.SQLiteConfig{
			SyncStrategy:  types.SyncBatch,
			BatchSize:     3,
			BatchInterval: 3600,
		},
	}))
	defer b.Detach()

	notes := mustTable(t, b, types.NotesTable)
	path := filepath.Join(dir, "notes.jsonl")

	for _, id := range []string{"n1", "n2"} {
		_, err := notes.Set("", note(id, "", "T", 1))
		require.NoError(t, err)
	}
	assert.Empty(t, readLines(t, path), "below threshold nothing is written")

	_, err := notes.Set("", note("n3", "", "T", 1))
	require.NoError(t, err)
	assert.Len(t, readLines(t, path), 3, "reaching the threshold flushes")
}

func TestBackend_BulkCoalescesWrites(t *testing.T) {
	b, dir := setupBackend(t)
	path := filepath.Join(dir, "notes.jsonl")

	err := b.Bulk(func(tables types.Tables) error {
		notes, err := tables.GetTable(types.NotesTable)
		if err != nil {
			return err
		}
		for _, id := range []string{"n1", "n2", "n3"} {
			if _, err := notes.Set("", note(id, "", "T", 1)); err != nil {
				return err
			}
		}
		assert.Empty(t, readLines(t, path), "nothing is written inside Bulk")
		return nil
	})
	require.NoError(t, err)
	assert.Len(t, readLines(t, path), 3)
}

func TestBackend_BulkReturnsCallbackError(t *testing.T) {
	b, dir := setupBackend(t)
	boom := errors.New("boom")

	err := b.Bulk(func(tables types.Tables) error {
		notes, err := tables.GetTable(types.NotesTable)
		if err != nil {
			return err
		}
		if _, err := notes.Set("", note("n1", "", "T", 1)); err != nil {
			return err
		}
		return boom
	})
	assert.ErrorIs(t, err, boom)
	assert.Len(t, readLines(t, filepath.Join(dir, "notes.jsonl")), 1,
		"writes made before the error are still persisted")
}

func TestBackend_BulkDoesNotDeferOtherWriters(t *testing.T) {
	b, dir := setupBackend(t)
	outside := mustTable(t, b, types.SummariesTable)
	summaries := filepath.Join(dir, "summaries.jsonl")

	err := b.Bulk(func(tables types.Tables) error {
		notes, err := tables.GetTable(types.NotesTable)
		if err != nil {
			return err
		}
		if _, err := notes.Set("", note("n1", "", "T", 1)); err != nil {
			return err
		}

		_, err = outside.Set("", &types.Summary{
			Envelope: types.Envelope{ID: "m1", Timestamp: 1},
			Summary:  "brief",
		})
		require.NoError(t, err)
		assert.Len(t, readLines(t, summaries), 1, "writes outside Bulk persist immediately")
		return nil
	})
	require.NoError(t, err)
	assert.Len(t, readLines(t, filepath.Join(dir, "notes.jsonl")), 1)
}

func TestBackend_BulkTablesErrors(t *testing.T) {
	b, _ := setupBackend(t)

	err := b.Bulk(func(tables types.Tables) error {
		_, err := tables.GetTable("nope")
		return err
	})
	assert.ErrorIs(t, err, types.ErrTableNotFound)
}

func TestSyncStrategy_ImmediateRetriesFailedWrite(t *testing.T) {
	b, dir := setupBackend(t)
	notes := mustTable(t, b, types.NotesTable)
	summaries := mustTable(t, b, types.SummariesTable)
	path := filepath.Join(dir, "notes.jsonl")

	// A directory in place of the JSONL file makes the rename fail.
	require.NoError(t, os.Remove(path))
	require.NoError(t, os.Mkdir(path, 0o755))

	_, err := notes.Set("", note("n1", "", "T", 1))
	assert.ErrorIs(t, err, types.ErrStorageUnavailable)

	require.NoError(t, os.Remove(path))
	_, err = summaries.Set("", &types.Summary{
		Envelope: types.Envelope{ID: "m1", Timestamp: 1},
		Summary:  "brief",
	})
	require.NoError(t, err)
	assert.Len(t, readLines(t, path), 1, "the failed notes write is retried by the next change")
}
