package features

import (
	"fmt"
	"strings"
	"sync"

	"github.com/mesh-intelligence/kungfu/pkg/types"
)

// TranscriptionState is the phase of a Transcriber.
type TranscriptionState int

// Transcriber states. A session moves Idle -> Listening -> Finalizing -> Idle.
const (
	StateIdle TranscriptionState = iota
	StateListening
	StateFinalizing
)

func (s TranscriptionState) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateListening:
		return "listening"
	case StateFinalizing:
		return "finalizing"
	default:
		return fmt.Sprintf("TranscriptionState(%d)", int(s))
	}
}

// Transcriber accumulates recognized speech into one live transcription at
// a time and stores it when stopped. Speech recognition itself happens
// elsewhere and reports results through Append.
type Transcriber struct {
	base

	mu       sync.Mutex
	state    TranscriptionState
	current  *types.Transcription
	interim  string
	language string
}

// NewTranscriber returns an idle Transcriber over store.
func NewTranscriber(store types.Store, page PageContext, opts ...Option) *Transcriber {
	return &Transcriber{base: newBase(store, page, opts)}
}

// Start begins a live transcription on the current page and returns its
// id. An empty language selects the transcription language from settings.
// Returns types.ErrAlreadyRunning unless the transcriber is idle.
func (t *Transcriber) Start(language string) (string, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.state != StateIdle {
		return "", types.ErrAlreadyRunning
	}

	if language == "" {
		settings, err := t.store.Settings()
		if err != nil {
			return "", fmt.Errorf("reading transcription language: %w", err)
		}
		language = settings.TranscriptionLanguage
	}
	p, err := t.currentPage()
	if err != nil {
		return "", err
	}

	t.current = &types.Transcription{Envelope: t.envelope(p), IsLive: true}
	t.interim = ""
	t.language = language
	t.state = StateListening

	t.logger.Debug().Str("id", t.current.ID).Str("language", language).Msg("transcription started")
	return t.current.ID, nil
}

// Append records a recognition result. Final text is appended to the
// transcript followed by a space; interim text replaces the previous
// interim text and is shown by Text until the next result.
// Returns types.ErrNotRunning unless listening.
func (t *Transcriber) Append(final, interim string) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.state != StateListening {
		return types.ErrNotRunning
	}
	if final != "" {
		t.current.Text += final + " "
	}
	t.interim = interim
	return nil
}

// Text returns the transcript so far followed by the pending interim text.
func (t *Transcriber) Text() string {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.current == nil {
		return ""
	}
	return t.current.Text + t.interim
}

// State returns the current state.
func (t *Transcriber) State() TranscriptionState {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.state
}

// Session returns the id of the live transcription, or "" when idle.
func (t *Transcriber) Session() string {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.current == nil {
		return ""
	}
	return t.current.ID
}

// Language returns the language of the live transcription.
func (t *Transcriber) Language() string {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.language
}

// Stop ends the live transcription, stores it with isLive false and
// returns it. Pending interim text is dropped. Stop returns nil, nil when
// there is nothing to stop. If storing fails the transcriber keeps
// listening so Stop can be retried.
func (t *Transcriber) Stop() (*types.Transcription, error) {
	t.mu.Lock()
	if t.state != StateListening {
		t.mu.Unlock()
		return nil, nil
	}
	t.state = StateFinalizing
	rec := *t.current
	t.mu.Unlock()

	rec.IsLive = false
	rec.Text = strings.TrimSpace(rec.Text)
	err := t.persist(&rec)

	t.mu.Lock()
	defer t.mu.Unlock()
	if err != nil {
		t.state = StateListening
		return nil, fmt.Errorf("saving transcription %s: %w", rec.ID, err)
	}
	t.state = StateIdle
	t.current = nil
	t.interim = ""
	t.logger.Debug().Str("id", rec.ID).Int("chars", len(rec.Text)).Msg("transcription stopped")
	return &rec, nil
}

func (t *Transcriber) persist(rec *types.Transcription) error {
	tbl, err := t.table(types.TranscriptionsTable)
	if err != nil {
		return err
	}
	_, err = tbl.Set(rec.ID, rec)
	return err
}

// Get returns the transcription with the given id.
func (t *Transcriber) Get(id string) (*types.Transcription, error) {
	tbl, err := t.table(types.TranscriptionsTable)
	if err != nil {
		return nil, err
	}
	rec, err := tbl.Get(id)
	if err != nil {
		return nil, err
	}
	return rec.(*types.Transcription), nil
}

// All returns every stored transcription, most recent first.
func (t *Transcriber) All() ([]*types.Transcription, error) {
	return list[*types.Transcription](&t.base, types.TranscriptionsTable, nil)
}

// ForCurrentPage returns the transcriptions of the current page, or none
// when the page has no url.
func (t *Transcriber) ForCurrentPage() ([]*types.Transcription, error) {
	return forCurrentPage[*types.Transcription](&t.base, types.TranscriptionsTable, true)
}

// Delete removes a stored transcription. Unknown ids are ignored.
func (t *Transcriber) Delete(id string) error {
	return remove(&t.base, types.TranscriptionsTable, id)
}
