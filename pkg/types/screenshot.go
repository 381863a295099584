package types

import (
	"errors"
	"strings"
)

// Screenshot capture types.
const (
	ScreenshotFull = "full"
	ScreenshotArea = "area"
)

// PNGDataURLPrefix prefixes every screenshot payload.
const PNGDataURLPrefix = "data:image/png;base64,"

// Screenshot validation errors.
var (
	ErrInvalidScreenshotType = errors.New("screenshot type must be full or area")
	ErrMissingDataURL        = errors.New("screenshot data URL must not be empty")
)

// Dimensions is the pixel size of a captured image.
type Dimensions struct {
	Width  int `json:"width"`
	Height int `json:"height"`
}

// Screenshot is a PNG capture of the whole visible tab or of a selected
// area. Screenshots are immutable after creation.
type Screenshot struct {
	Envelope
	DataURL    string      `json:"dataUrl"`
	Type       string      `json:"type"`
	Dimensions *Dimensions `json:"dimensions,omitempty"`
}

// Validate checks the capture type and that a payload is present.
func (s *Screenshot) Validate() error {
	if s.Type != ScreenshotFull && s.Type != ScreenshotArea {
		return ErrInvalidScreenshotType
	}
	if strings.TrimSpace(s.DataURL) == "" {
		return ErrMissingDataURL
	}
	return nil
}
