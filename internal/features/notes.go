package features

import (
	"fmt"
	"slices"
	"strings"

	"github.com/mesh-intelligence/kungfu/pkg/types"
)

// Notes creates, edits and searches notes.
type Notes struct {
	base
}

// NewNotes returns a Notes service over store.
func NewNotes(store types.Store, page PageContext, opts ...Option) *Notes {
	return &Notes{base: newBase(store, page, opts)}
}

// Create stores a new note on the current page. An empty title falls back
// to the page title.
func (n *Notes) Create(title, content string, tags ...string) (*types.Note, error) {
	p, err := n.currentPage()
	if err != nil {
		return nil, err
	}
	if title == "" {
		title = p.Title
	}
	note := &types.Note{
		Envelope: n.envelope(p),
		Content:  content,
		Tags:     slices.Clone(tags),
	}
	note.Title = title

	tbl, err := n.table(types.NotesTable)
	if err != nil {
		return nil, err
	}
	if _, err := tbl.Set(note.ID, note); err != nil {
		return nil, fmt.Errorf("saving note: %w", err)
	}
	n.logger.Debug().Str("id", note.ID).Str("url", note.URL).Msg("note created")
	return note, nil
}

// Get returns the note with the given id.
func (n *Notes) Get(id string) (*types.Note, error) {
	tbl, err := n.table(types.NotesTable)
	if err != nil {
		return nil, err
	}
	rec, err := tbl.Get(id)
	if err != nil {
		return nil, err
	}
	return rec.(*types.Note), nil
}

// Update merges patch into an existing note and stores the result. The id
// and timestamp never change. Returns types.ErrNotFound for unknown ids.
func (n *Notes) Update(id string, patch types.NotePatch) (*types.Note, error) {
	existing, err := n.Get(id)
	if err != nil {
		return nil, fmt.Errorf("updating note %s: %w", id, err)
	}
	if patch.IsEmpty() {
		return existing, nil
	}
	updated := patch.Apply(*existing)

	tbl, err := n.table(types.NotesTable)
	if err != nil {
		return nil, err
	}
	if _, err := tbl.Set(id, &updated); err != nil {
		return nil, fmt.Errorf("saving note %s: %w", id, err)
	}
	return &updated, nil
}

// Delete removes a note. Unknown ids are ignored.
func (n *Notes) Delete(id string) error {
	return remove(&n.base, types.NotesTable, id)
}

// All returns every note, most recent first.
func (n *Notes) All() ([]*types.Note, error) {
	return list[*types.Note](&n.base, types.NotesTable, nil)
}

// ForCurrentPage returns the notes taken on the current page.
func (n *Notes) ForCurrentPage() ([]*types.Note, error) {
	return forCurrentPage[*types.Note](&n.base, types.NotesTable, false)
}

// Search returns the notes whose title, content or any tag contains query,
// ignoring case, most recent first.
func (n *Notes) Search(query string) ([]*types.Note, error) {
	all, err := n.All()
	if err != nil {
		return nil, err
	}
	q := strings.ToLower(query)
	contains := func(s string) bool { return strings.Contains(strings.ToLower(s), q) }

	matches := []*types.Note{}
	for _, note := range all {
		if contains(note.Title) || contains(note.Content) || slices.ContainsFunc(note.Tags, contains) {
			matches = append(matches, note)
		}
	}
	return matches, nil
}
