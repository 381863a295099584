// Package features builds page records the way the side panel does: it
// stamps them with the current page, an id and a creation time, and stores
// them through a types.Store.
package features

import (
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/mesh-intelligence/kungfu/pkg/types"
)

// Page identifies the page the user is looking at.
type Page struct {
	URL   string `json:"url"`
	Title string `json:"title"`
}

// PageContext reports the current page. In the browser this is the active
// tab; the command line passes it in with flags.
type PageContext interface {
	CurrentPage() (Page, error)
}

// StaticPage is a PageContext that always reports the same page.
type StaticPage Page

// CurrentPage implements PageContext.
func (p StaticPage) CurrentPage() (Page, error) { return Page(p), nil }

// Option configures a feature service.
type Option func(*base)

// WithClock sets the time source used for record timestamps.
func WithClock(now func() time.Time) Option {
	return func(b *base) { b.now = now }
}

// WithIDs sets the generator used for record ids.
func WithIDs(newID func() string) Option {
	return func(b *base) { b.newID = newID }
}

// WithLogger sets the logger for service events.
func WithLogger(logger zerolog.Logger) Option {
	return func(b *base) { b.logger = logger }
}

// base carries the collaborators shared by every service.
type base struct {
	store  types.Store
	page   PageContext
	now    func() time.Time
	newID  func() string
	logger zerolog.Logger
}

func newBase(store types.Store, page PageContext, opts []Option) base {
	b := base{
		store:  store,
		page:   page,
		now:    time.Now,
		newID:  types.NewID,
		logger: zerolog.Nop(),
	}
	for _, opt := range opts {
		opt(&b)
	}
	return b
}

// currentPage returns the page, with an empty title replaced by
// types.DefaultTitle.
func (b *base) currentPage() (Page, error) {
	p, err := b.page.CurrentPage()
	if err != nil {
		return Page{}, fmt.Errorf("reading current page: %w", err)
	}
	if p.Title == "" {
		p.Title = types.DefaultTitle
	}
	return p, nil
}

// envelope stamps a new record created on p now.
func (b *base) envelope(p Page) types.Envelope {
	return types.Envelope{
		ID:        b.newID(),
		URL:       p.URL,
		Title:     p.Title,
		Timestamp: b.now().UnixMilli(),
	}
}

func (b *base) table(name string) (types.Table, error) {
	return b.store.GetTable(name)
}

// list returns every record of a table, most recent first.
func list[T any](b *base, table string, filter types.Filter) ([]T, error) {
	tbl, err := b.table(table)
	if err != nil {
		return nil, err
	}
	return types.Collect[T](tbl, filter)
}

// forCurrentPage lists the records of the current page. When skipNoURL is
// set and the page has no url, nothing is returned.
func forCurrentPage[T any](b *base, table string, skipNoURL bool) ([]T, error) {
	p, err := b.page.CurrentPage()
	if err != nil {
		return nil, fmt.Errorf("reading current page: %w", err)
	}
	if skipNoURL && p.URL == "" {
		return []T{}, nil
	}
	return list[T](b, table, types.Filter{types.FilterURL: p.URL})
}

func remove(b *base, table, id string) error {
	tbl, err := b.table(table)
	if err != nil {
		return err
	}
	return tbl.Delete(id)
}
