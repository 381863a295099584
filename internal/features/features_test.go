package features

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	"image/png"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/mesh-intelligence/kungfu/internal/sqlite"
	"github.com/mesh-intelligence/kungfu/pkg/types"
)

// fixture wires services to a fresh backend with a controllable clock and
// predictable ids.
type fixture struct {
	store types.Store
	page  *StaticPage
	now   time.Time
	seq   int
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	b := sqlite.NewBackend()
	require.NoError(t, b.Attach(types.Config{Backend: types.BackendSQLite, DataDir: t.TempDir()}))
	t.Cleanup(func() { b.Detach() })
	return &fixture{
		store: b,
		page:  &StaticPage{URL: "https://example.com/a", Title: "Example"},
		now:   time.UnixMilli(1_000_000),
	}
}

// CurrentPage reads the fixture's page at call time so tests can navigate.
func (f *fixture) CurrentPage() (Page, error) { return Page(*f.page), nil }

func (f *fixture) options() []Option {
	return []Option{
		WithClock(func() time.Time {
			f.now = f.now.Add(time.Second)
			return f.now
		}),
		WithIDs(func() string {
			f.seq++
			return fmt.Sprintf("id-%02d", f.seq)
		}),
	}
}

func (f *fixture) navigate(url, title string) {
	f.page.URL, f.page.Title = url, title
}

// pngDataURL returns a data URL for a blank w x h PNG.
func pngDataURL(t *testing.T, w, h int) string {
	t.Helper()
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, image.NewRGBA(image.Rect(0, 0, w, h))))
	return EncodePNG(buf.Bytes())
}

// failingPage is a PageContext that always fails.
type failingPage struct{}

var errNoTab = errors.New("no active tab")

func (failingPage) CurrentPage() (Page, error) { return Page{}, errNoTab }
