package features

import (
	"bytes"
	"encoding/base64"
	"errors"
	"fmt"
	"image/png"
	"strings"

	"github.com/mesh-intelligence/kungfu/pkg/types"
)

// ErrNotPNGDataURL is returned for payloads that are not base64 PNG data URLs.
var ErrNotPNGDataURL = errors.New("not a base64 PNG data URL")

// Screenshots stores captures of the visible tab or a selected area.
type Screenshots struct {
	base
}

// NewScreenshots returns a Screenshots service over store.
func NewScreenshots(store types.Store, page PageContext, opts ...Option) *Screenshots {
	return &Screenshots{base: newBase(store, page, opts)}
}

// SaveFull stores a capture of the whole visible tab. Its dimensions are
// read from the PNG header.
func (s *Screenshots) SaveFull(dataURL string) (*types.Screenshot, error) {
	dims, err := PNGDimensions(dataURL)
	if err != nil {
		return nil, fmt.Errorf("reading capture: %w", err)
	}
	return s.save(dataURL, types.ScreenshotFull, dims)
}

// SaveArea stores a capture of a selected area with the size reported by
// the selection overlay.
func (s *Screenshots) SaveArea(dataURL string, dims types.Dimensions) (*types.Screenshot, error) {
	if !strings.HasPrefix(dataURL, types.PNGDataURLPrefix) {
		return nil, ErrNotPNGDataURL
	}
	return s.save(dataURL, types.ScreenshotArea, dims)
}

func (s *Screenshots) save(dataURL, kind string, dims types.Dimensions) (*types.Screenshot, error) {
	p, err := s.currentPage()
	if err != nil {
		return nil, err
	}
	shot := &types.Screenshot{
		Envelope:   s.envelope(p),
		DataURL:    dataURL,
		Type:       kind,
		Dimensions: &dims,
	}
	tbl, err := s.table(types.ScreenshotsTable)
	if err != nil {
		return nil, err
	}
	if _, err := tbl.Set(shot.ID, shot); err != nil {
		return nil, fmt.Errorf("saving screenshot: %w", err)
	}
	s.logger.Debug().Str("id", shot.ID).Str("type", kind).
		Int("width", dims.Width).Int("height", dims.Height).Msg("screenshot saved")
	return shot, nil
}

// Get returns the screenshot with the given id.
func (s *Screenshots) Get(id string) (*types.Screenshot, error) {
	tbl, err := s.table(types.ScreenshotsTable)
	if err != nil {
		return nil, err
	}
	rec, err := tbl.Get(id)
	if err != nil {
		return nil, err
	}
	return rec.(*types.Screenshot), nil
}

// All returns every screenshot, most recent first. A non-empty kind limits
// the result to full or area captures.
func (s *Screenshots) All(kind string) ([]*types.Screenshot, error) {
	var filter types.Filter
	if kind != "" {
		filter = types.Filter{types.FilterType: kind}
	}
	return list[*types.Screenshot](&s.base, types.ScreenshotsTable, filter)
}

// ForCurrentPage returns the screenshots of the current page, or none when
// the page has no url.
func (s *Screenshots) ForCurrentPage() ([]*types.Screenshot, error) {
	return forCurrentPage[*types.Screenshot](&s.base, types.ScreenshotsTable, true)
}

// Delete removes a screenshot. Unknown ids are ignored.
func (s *Screenshots) Delete(id string) error {
	return remove(&s.base, types.ScreenshotsTable, id)
}

// DecodePNG returns the PNG bytes carried by a data URL.
func DecodePNG(dataURL string) ([]byte, error) {
	payload, ok := strings.CutPrefix(dataURL, types.PNGDataURLPrefix)
	if !ok {
		return nil, ErrNotPNGDataURL
	}
	data, err := base64.StdEncoding.DecodeString(payload)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrNotPNGDataURL, err)
	}
	return data, nil
}

// EncodePNG wraps PNG bytes in a data URL.
func EncodePNG(data []byte) string {
	return types.PNGDataURLPrefix + base64.StdEncoding.EncodeToString(data)
}

// PNGDimensions returns the width and height recorded in a PNG data URL.
func PNGDimensions(dataURL string) (types.Dimensions, error) {
	data, err := DecodePNG(dataURL)
	if err != nil {
		return types.Dimensions{}, err
	}
	cfg, err := png.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		return types.Dimensions{}, fmt.Errorf("%w: %w", ErrNotPNGDataURL, err)
	}
	return types.Dimensions{Width: cfg.Width, Height: cfg.Height}, nil
}

// DownloadName is the file name a screenshot is saved under.
func DownloadName(s *types.Screenshot) string {
	return fmt.Sprintf("kungfu-screenshot-%d.png", s.Timestamp)
}
