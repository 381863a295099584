package features

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mesh-intelligence/kungfu/pkg/types"
)

func TestNotes_Create(t *testing.T) {
	f := newFixture(t)
	notes := NewNotes(f.store, f, f.options()...)

	n, err := notes.Create("My note", "# hello")
	require.NoError(t, err)
	assert.Equal(t, "id-01", n.ID)
	assert.Equal(t, "My note", n.Title)
	assert.Equal(t, "https://example.com/a", n.URL)
	assert.Equal(t, int64(1_001_000), n.Timestamp)
	assert.Nil(t, n.Tags, "no tags are stored as nil")

	got, err := notes.Get(n.ID)
	require.NoError(t, err)
	assert.Equal(t, n, got)
}

func TestNotes_CreateTitleFallback(t *testing.T) {
	f := newFixture(t)
	notes := NewNotes(f.store, f, f.options()...)

	n, err := notes.Create("", "body")
	require.NoError(t, err)
	assert.Equal(t, "Example", n.Title, "empty title uses the page title")

	f.navigate("", "")
	n, err = notes.Create("", "body")
	require.NoError(t, err)
	assert.Equal(t, types.DefaultTitle, n.Title)
	assert.Empty(t, n.URL)
}

func TestNotes_CreatePageError(t *testing.T) {
	f := newFixture(t)
	notes := NewNotes(f.store, failingPage{})

	_, err := notes.Create("t", "c")
	assert.ErrorIs(t, err, errNoTab)
}

func TestNotes_UpdatePartial(t *testing.T) {
	f := newFixture(t)
	notes := NewNotes(f.store, f, f.options()...)

	n, err := notes.Create("Title", "old", "a", "b")
	require.NoError(t, err)

	content := "x"
	updated, err := notes.Update(n.ID, types.NotePatch{Content: &content})
	require.NoError(t, err)

	got, err := notes.Get(n.ID)
	require.NoError(t, err)
	assert.Equal(t, updated, got)
	assert.Equal(t, "x", got.Content)
	assert.Equal(t, n.Title, got.Title)
	assert.Equal(t, n.URL, got.URL)
	assert.Equal(t, n.Timestamp, got.Timestamp)
	assert.Equal(t, n.Tags, got.Tags)
}

func TestNotes_UpdateTagsAndTitle(t *testing.T) {
	f := newFixture(t)
	notes := NewNotes(f.store, f, f.options()...)

	n, err := notes.Create("Title", "body", "a")
	require.NoError(t, err)

	title := "Renamed"
	tags := []string{"go", "sqlite"}
	_, err = notes.Update(n.ID, types.NotePatch{Title: &title, Tags: &tags})
	require.NoError(t, err)

	got, err := notes.Get(n.ID)
	require.NoError(t, err)
	assert.Equal(t, "Renamed", got.Title)
	assert.Equal(t, []string{"go", "sqlite"}, got.Tags)
	assert.Equal(t, "body", got.Content)
}

func TestNotes_UpdateNotFound(t *testing.T) {
	f := newFixture(t)
	notes := NewNotes(f.store, f, f.options()...)

	content := "x"
	_, err := notes.Update("missing", types.NotePatch{Content: &content})
	assert.ErrorIs(t, err, types.ErrNotFound)

	all, err := notes.All()
	require.NoError(t, err)
	assert.Empty(t, all, "a failed update must not create a note")
}

func TestNotes_ForCurrentPageAndDelete(t *testing.T) {
	f := newFixture(t)
	notes := NewNotes(f.store, f, f.options()...)

	a1, err := notes.Create("a1", "")
	require.NoError(t, err)
	a2, err := notes.Create("a2", "")
	require.NoError(t, err)
	f.navigate("https://example.com/b", "B")
	_, err = notes.Create("b1", "")
	require.NoError(t, err)

	f.navigate("https://example.com/a", "A")
	onA, err := notes.ForCurrentPage()
	require.NoError(t, err)
	require.Len(t, onA, 2)
	assert.Equal(t, a2.ID, onA[0].ID, "most recent first")
	assert.Equal(t, a1.ID, onA[1].ID)

	require.NoError(t, notes.Delete(a2.ID))
	require.NoError(t, notes.Delete(a2.ID))

	all, err := notes.All()
	require.NoError(t, err)
	assert.Len(t, all, 2)
}

func TestNotes_Search(t *testing.T) {
	f := newFixture(t)
	notes := NewNotes(f.store, f, f.options()...)

	_, err := notes.Create("Go concurrency", "channels and goroutines")
	require.NoError(t, err)
	_, err = notes.Create("Recipes", "Pasta with GARLIC")
	require.NoError(t, err)
	_, err = notes.Create("Misc", "nothing here", "Golang", "tips")
	require.NoError(t, err)

	tests := []struct {
		query string
		want  []string
	}{
		{"go", []string{"Misc", "Go concurrency"}},
		{"garlic", []string{"Recipes"}},
		{"TIPS", []string{"Misc"}},
		{"absent", []string{}},
		{"", []string{"Misc", "Recipes", "Go concurrency"}},
	}
	for _, tt := range tests {
		t.Run(tt.query, func(t *testing.T) {
			got, err := notes.Search(tt.query)
			require.NoError(t, err)
			titles := []string{}
			for _, n := range got {
				titles = append(titles, n.Title)
			}
			assert.Equal(t, tt.want, titles)
		})
	}
}
