package backup

import (
	"bytes"
	"errors"
	"fmt"

	"github.com/goccy/go-json"
	"github.com/rs/zerolog"

	"github.com/mesh-intelligence/kungfu/pkg/types"
)

// settingsSection is the key of the settings object in an export document.
const settingsSection = "settings"

// Report describes the outcome of an Import: the records written per
// section, whether settings were merged, and what was skipped.
type Report struct {
	Imported map[string]int `json:"imported"`
	Settings bool           `json:"settings"`
	Failures []RecordError  `json:"failures,omitempty"`
}

// Total returns the number of records written.
func (r *Report) Total() int {
	n := 0
	for _, c := range r.Imported {
		n += c
	}
	return n
}

// RecordError identifies a record, or a whole section when Index is -1,
// that was skipped during import.
type RecordError struct {
	Section string `json:"section"`
	Index   int    `json:"index"`
	ID      string `json:"id,omitempty"`
	Reason  string `json:"reason"`
	Err     error  `json:"-"`
}

func (e RecordError) Error() string {
	if e.Index < 0 {
		return fmt.Sprintf("%s: %s", e.Section, e.Reason)
	}
	if e.ID != "" {
		return fmt.Sprintf("%s[%d] %s: %s", e.Section, e.Index, e.ID, e.Reason)
	}
	return fmt.Sprintf("%s[%d]: %s", e.Section, e.Index, e.Reason)
}

func (e RecordError) Unwrap() error { return e.Err }

// Record import errors.
var (
	ErrMissingID        = errors.New("missing id")
	ErrMissingTimestamp = errors.New("missing timestamp")
	ErrNotArray         = errors.New("section is not an array")
	ErrNotObject        = errors.New("settings is not an object")
)

// section binds an export document key to its table and record type.
type section struct {
	name      string
	newRecord func() types.Record
}

var sections = []section{
	{types.NotesTable, func() types.Record { return &types.Note{} }},
	{types.ScreenshotsTable, func() types.Record { return &types.Screenshot{} }},
	{types.TranscriptionsTable, func() types.Record { return &types.Transcription{} }},
	{types.SummariesTable, func() types.Record { return &types.Summary{} }},
}

// Import upserts the records of an export document into store and merges
// its settings. Records already in the store are overwritten by id; records
// not in the document are left alone. Sections may be absent.
//
// A document whose top level is not a JSON object fails with ErrFormat and
// writes nothing. Records that cannot be decoded or lack an id or timestamp
// are skipped and listed in the report. A storage failure stops the import
// and is returned together with the report so far.
func Import(store types.Store, data []byte, logger zerolog.Logger) (*Report, error) {
	var top map[string]json.RawMessage
	if err := json.Unmarshal(data, &top); err != nil {
		return nil, fmt.Errorf("%w: %v", types.ErrFormat, err)
	}
	if top == nil {
		return nil, fmt.Errorf("%w: document is null", types.ErrFormat)
	}

	report := &Report{Imported: make(map[string]int, len(sections))}
	skip := func(e RecordError) {
		e.Reason = e.Err.Error()
		report.Failures = append(report.Failures, e)
		logger.Warn().Str("section", e.Section).Int("index", e.Index).Str("id", e.ID).
			Err(e.Err).Msg("skipping import record")
	}

	err := store.Bulk(func(tables types.Tables) error {
		for _, s := range sections {
			raw, ok := top[s.name]
			if !ok || isNull(raw) {
				continue
			}
			if err := importSection(tables, s, raw, report, skip); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return report, fmt.Errorf("import: %w", err)
	}

	if raw, ok := top[settingsSection]; ok && !isNull(raw) {
		var patch types.SettingsPatch
		if err := json.Unmarshal(raw, &patch); err != nil {
			skip(RecordError{Section: settingsSection, Index: -1, Err: fmt.Errorf("%w: %v", ErrNotObject, err)})
		} else if _, err := store.SetSettings(patch); err != nil {
			if !errors.Is(err, types.ErrInvalidData) {
				return report, fmt.Errorf("import settings: %w", err)
			}
			skip(RecordError{Section: settingsSection, Index: -1, Err: err})
		} else {
			report.Settings = true
		}
	}

	logger.Info().Int("records", report.Total()).Bool("settings", report.Settings).
		Int("skipped", len(report.Failures)).Msg("import finished")
	return report, nil
}

func importSection(tables types.Tables, s section, raw json.RawMessage, report *Report, skip func(RecordError)) error {
	var items []json.RawMessage
	if err := json.Unmarshal(raw, &items); err != nil {
		skip(RecordError{Section: s.name, Index: -1, Err: ErrNotArray})
		return nil
	}

	tbl, err := tables.GetTable(s.name)
	if err != nil {
		return err
	}

	for i, item := range items {
		rec := s.newRecord()
		if err := json.Unmarshal(item, rec); err != nil {
			skip(RecordError{Section: s.name, Index: i, Err: fmt.Errorf("%w: %v", types.ErrInvalidData, err)})
			continue
		}
		meta := rec.Meta()
		if err := checkRequired(rec); err != nil {
			skip(RecordError{Section: s.name, Index: i, ID: meta.ID, Err: err})
			continue
		}
		if _, err := tbl.Set(meta.ID, rec); err != nil {
			if errors.Is(err, types.ErrInvalidData) {
				skip(RecordError{Section: s.name, Index: i, ID: meta.ID, Err: err})
				continue
			}
			return err
		}
		report.Imported[s.name]++
	}
	return nil
}

// checkRequired rejects records the store would otherwise complete with a
// new id or the current time.
func checkRequired(rec types.Record) error {
	meta := rec.Meta()
	if meta.ID == "" {
		return ErrMissingID
	}
	if meta.Timestamp <= 0 {
		return ErrMissingTimestamp
	}
	if err := rec.Validate(); err != nil {
		return fmt.Errorf("%w: %w", types.ErrInvalidData, err)
	}
	return nil
}

func isNull(raw json.RawMessage) bool {
	return bytes.Equal(bytes.TrimSpace(raw), []byte("null"))
}
