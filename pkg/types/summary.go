package types

// Summary is generated text summarizing a page. By convention the first
// summary returned for a url is the page's current summary.
type Summary struct {
	Envelope
	Summary string `json:"summary"`
}

// Validate reports whether the summary can be stored.
func (s *Summary) Validate() error { return nil }
