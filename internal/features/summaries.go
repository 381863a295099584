package features

import (
	"errors"
	"fmt"
	"strings"

	"github.com/mesh-intelligence/kungfu/pkg/types"
)

// ErrEmptySummary is returned when saving a blank summary.
var ErrEmptySummary = errors.New("summary text must not be empty")

// Summaries stores page summaries produced by the summarizer.
type Summaries struct {
	base
}

// NewSummaries returns a Summaries service over store.
func NewSummaries(store types.Store, page PageContext, opts ...Option) *Summaries {
	return &Summaries{base: newBase(store, page, opts)}
}

// Save stores text, trimmed, as a summary of the current page.
func (s *Summaries) Save(text string) (*types.Summary, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil, fmt.Errorf("%w: %w", types.ErrInvalidData, ErrEmptySummary)
	}
	p, err := s.currentPage()
	if err != nil {
		return nil, err
	}
	sum := &types.Summary{Envelope: s.envelope(p), Summary: text}

	tbl, err := s.table(types.SummariesTable)
	if err != nil {
		return nil, err
	}
	if _, err := tbl.Set(sum.ID, sum); err != nil {
		return nil, fmt.Errorf("saving summary: %w", err)
	}
	return sum, nil
}

// Get returns the summary with the given id.
func (s *Summaries) Get(id string) (*types.Summary, error) {
	tbl, err := s.table(types.SummariesTable)
	if err != nil {
		return nil, err
	}
	rec, err := tbl.Get(id)
	if err != nil {
		return nil, err
	}
	return rec.(*types.Summary), nil
}

// ForCurrentPage returns the most recent summary of the current page.
// Returns types.ErrNotFound when the page has no url or no summary.
func (s *Summaries) ForCurrentPage() (*types.Summary, error) {
	found, err := forCurrentPage[*types.Summary](&s.base, types.SummariesTable, true)
	if err != nil {
		return nil, err
	}
	if len(found) == 0 {
		return nil, types.ErrNotFound
	}
	return found[0], nil
}

// All returns every summary, most recent first.
func (s *Summaries) All() ([]*types.Summary, error) {
	return list[*types.Summary](&s.base, types.SummariesTable, nil)
}

// Delete removes a summary. Unknown ids are ignored.
func (s *Summaries) Delete(id string) error {
	return remove(&s.base, types.SummariesTable, id)
}
