package sqlite

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/mesh-intelligence/kungfu/pkg/types"
)

// rowScanner is satisfied by *sql.Row and *sql.Rows.
type rowScanner interface {
	Scan(dest ...any) error
}

// entitySchema ties a record kind to its SQLite table, its JSONL file, and
// the functions that move a record between Go and SQL.
type entitySchema struct {
	table   string
	file    string
	columns []string          // envelope columns first: id, url, title, timestamp
	filters map[string]string // Fetch filter key -> column

	owns      func(data any) bool
	newEntity func() types.Record
	values    func(rec types.Record) ([]any, error)
	scan      func(row rowScanner) (types.Record, error)
}

var envelopeColumns = []string{"id", "url", "title", "timestamp"}

func (s *entitySchema) columnList() string {
	return strings.Join(s.columns, ", ")
}

func (s *entitySchema) upsertSQL() string {
	placeholders := make([]string, len(s.columns))
	for i := range placeholders {
		placeholders[i] = "?"
	}
	return fmt.Sprintf("INSERT OR REPLACE INTO %s (%s) VALUES (%s)",
		s.table, s.columnList(), strings.Join(placeholders, ", "))
}

// schemas lists every record kind in export order.
var schemas = []*entitySchema{notesSchema, screenshotsSchema, transcriptionsSchema, summariesSchema}

func envelopeValues(e *types.Envelope) []any {
	return []any{e.ID, e.URL, e.Title, e.Timestamp}
}

func envelopeDest(e *types.Envelope) []any {
	return []any{&e.ID, &e.URL, &e.Title, &e.Timestamp}
}

// nullableJSON encodes v as JSON text, or NULL when isNil.
func nullableJSON(v any, isNil bool) (any, error) {
	if isNil {
		return nil, nil
	}
	data, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	return string(data), nil
}

var notesSchema = &entitySchema{
	table:   types.NotesTable,
	file:    "notes.jsonl",
	columns: append(append([]string{}, envelopeColumns...), "content", "tags"),
	filters: map[string]string{types.FilterURL: "url"},
	owns: func(data any) bool {
		_, ok := data.(*types.Note)
		return ok
	},
	newEntity: func() types.Record { return &types.Note{} },
	values: func(rec types.Record) ([]any, error) {
		n := rec.(*types.Note)
		tags, err := nullableJSON(n.Tags, len(n.Tags) == 0)
		if err != nil {
			return nil, fmt.Errorf("encoding note tags: %w", err)
		}
		return append(envelopeValues(&n.Envelope), n.Content, tags), nil
	},
	scan: func(row rowScanner) (types.Record, error) {
		var n types.Note
		var tags sql.NullString
		dest := append(envelopeDest(&n.Envelope), &n.Content, &tags)
		if err := row.Scan(dest...); err != nil {
			return nil, err
		}
		if tags.Valid {
			if err := json.Unmarshal([]byte(tags.String), &n.Tags); err != nil {
				return nil, fmt.Errorf("parsing note tags: %w", err)
			}
		}
		return &n, nil
	},
}

var screenshotsSchema = &entitySchema{
	table:   types.ScreenshotsTable,
	file:    "screenshots.jsonl",
	columns: append(append([]string{}, envelopeColumns...), "data_url", "type", "dimensions"),
	filters: map[string]string{types.FilterURL: "url", types.FilterType: "type"},
	owns: func(data any) bool {
		_, ok := data.(*types.Screenshot)
		return ok
	},
	newEntity: func() types.Record { return &types.Screenshot{} },
	values: func(rec types.Record) ([]any, error) {
		s := rec.(*types.Screenshot)
		dims, err := nullableJSON(s.Dimensions, s.Dimensions == nil)
		if err != nil {
			return nil, fmt.Errorf("encoding screenshot dimensions: %w", err)
		}
		return append(envelopeValues(&s.Envelope), s.DataURL, s.Type, dims), nil
	},
	scan: func(row rowScanner) (types.Record, error) {
		var s types.Screenshot
		var dims sql.NullString
		dest := append(envelopeDest(&s.Envelope), &s.DataURL, &s.Type, &dims)
		if err := row.Scan(dest...); err != nil {
			return nil, err
		}
		if dims.Valid {
			s.Dimensions = &types.Dimensions{}
			if err := json.Unmarshal([]byte(dims.String), s.Dimensions); err != nil {
				return nil, fmt.Errorf("parsing screenshot dimensions: %w", err)
			}
		}
		return &s, nil
	},
}

var transcriptionsSchema = &entitySchema{
	table:   types.TranscriptionsTable,
	file:    "transcriptions.jsonl",
	columns: append(append([]string{}, envelopeColumns...), "text", "is_live"),
	filters: map[string]string{types.FilterURL: "url"},
	owns: func(data any) bool {
		_, ok := data.(*types.Transcription)
		return ok
	},
	newEntity: func() types.Record { return &types.Transcription{} },
	values: func(rec types.Record) ([]any, error) {
		t := rec.(*types.Transcription)
		live := 0
		if t.IsLive {
			live = 1
		}
		return append(envelopeValues(&t.Envelope), t.Text, live), nil
	},
	scan: func(row rowScanner) (types.Record, error) {
		var t types.Transcription
		var live int64
		dest := append(envelopeDest(&t.Envelope), &t.Text, &live)
		if err := row.Scan(dest...); err != nil {
			return nil, err
		}
		t.IsLive = live != 0
		return &t, nil
	},
}

var summariesSchema = &entitySchema{
	table:   types.SummariesTable,
	file:    "summaries.jsonl",
	columns: append(append([]string{}, envelopeColumns...), "summary"),
	filters: map[string]string{types.FilterURL: "url"},
	owns: func(data any) bool {
		_, ok := data.(*types.Summary)
		return ok
	},
	newEntity: func() types.Record { return &types.Summary{} },
	values: func(rec types.Record) ([]any, error) {
		s := rec.(*types.Summary)
		return append(envelopeValues(&s.Envelope), s.Summary), nil
	},
	scan: func(row rowScanner) (types.Record, error) {
		var s types.Summary
		dest := append(envelopeDest(&s.Envelope), &s.Summary)
		if err := row.Scan(dest...); err != nil {
			return nil, err
		}
		return &s, nil
	},
}
