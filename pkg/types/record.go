package types

import (
	"time"

	"github.com/google/uuid"
)

// DefaultTitle is the display name of a record whose page had no title.
const DefaultTitle = "Untitled"

// Envelope holds the fields shared by every page record.
type Envelope struct {
	ID        string `json:"id"`        // generated on creation, never reassigned
	URL       string `json:"url"`       // originating page; may be empty
	Title     string `json:"title"`     // display name
	Timestamp int64  `json:"timestamp"` // creation time, ms since epoch
}

// Meta returns the envelope itself so that every record type embedding it
// satisfies Record through its pointer.
func (e *Envelope) Meta() *Envelope { return e }

// Record is implemented by *Note, *Screenshot, *Transcription and *Summary.
type Record interface {
	Meta() *Envelope
	Validate() error
}

// NewID returns a new unique record ID (UUID v7, time ordered).
func NewID() string {
	id, err := uuid.NewV7()
	if err != nil {
		// Fallback to UUID v4 if v7 generation fails
		return uuid.New().String()
	}
	return id.String()
}

// NowMillis returns the current time in milliseconds since the epoch.
func NowMillis() int64 {
	return time.Now().UnixMilli()
}
