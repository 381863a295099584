package types

// Transcription is recognized speech captured while a page was open.
// It is mutable only while IsLive is true, before it is first stored.
type Transcription struct {
	Envelope
	Text   string `json:"text"`
	IsLive bool   `json:"isLive"`
}

// Validate reports whether the transcription can be stored.
func (t *Transcription) Validate() error { return nil }
