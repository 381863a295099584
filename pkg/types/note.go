package types

// Note is a markdown note taken on a page. Title, content and tags may be
// changed after creation through a NotePatch.
type Note struct {
	Envelope
	Content string   `json:"content"`
	Tags    []string `json:"tags,omitempty"`
}

// Validate reports whether the note can be stored. Notes carry no
// constraints beyond the envelope.
func (n *Note) Validate() error { return nil }

// NotePatch carries the fields of a partial note update. Nil fields are
// left unchanged. ID and Timestamp cannot be patched.
type NotePatch struct {
	Title   *string   `json:"title,omitempty"`
	Content *string   `json:"content,omitempty"`
	URL     *string   `json:"url,omitempty"`
	Tags    *[]string `json:"tags,omitempty"`
}

// Apply returns a copy of n with the non-nil patch fields merged over it.
func (p NotePatch) Apply(n Note) Note {
	if p.Title != nil {
		n.Title = *p.Title
	}
	if p.Content != nil {
		n.Content = *p.Content
	}
	if p.URL != nil {
		n.URL = *p.URL
	}
	if p.Tags != nil {
		n.Tags = append([]string(nil), (*p.Tags)...)
	}
	return n
}

// IsEmpty reports whether the patch changes nothing.
func (p NotePatch) IsEmpty() bool {
	return p.Title == nil && p.Content == nil && p.URL == nil && p.Tags == nil
}
