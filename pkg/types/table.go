package types

import (
	"errors"
	"fmt"
)

// Filter selects records in Table.Fetch. Supported keys:
//
//	"url"    string  exact match on the record url
//	"type"   string  screenshot capture type (screenshots table only)
//	"limit"  int     maximum number of records returned
//	"offset" int     records skipped after ordering
//
// A nil or empty filter returns every record in the table.
type Filter map[string]any

// Filter keys.
const (
	FilterURL    = "url"
	FilterType   = "type"
	FilterLimit  = "limit"
	FilterOffset = "offset"
)

// Table provides uniform storage operations for a single record kind.
// Get and Fetch return any; callers type-assert to the concrete record
// pointer (*Note, *Screenshot, *Transcription, *Summary) or use Collect.
type Table interface {
	// Get retrieves the record with the given ID.
	// Returns ErrNotFound if no record exists with that ID.
	Get(id string) (any, error)

	// Set inserts or fully replaces the record keyed by id. When id is
	// empty the record's own ID is used, and when that is empty too a new
	// ID is generated. Returns the ID used.
	Set(id string, data any) (string, error)

	// Delete removes the record with the given ID. Deleting an absent
	// record is not an error.
	Delete(id string) error

	// Fetch returns the records matching the filter, most recent first.
	// Never returns nil.
	Fetch(filter Filter) ([]any, error)
}

// Collect fetches records from t and converts them to the concrete type T.
// It returns ErrInvalidData if the table holds records of another type.
func Collect[T any](t Table, filter Filter) ([]T, error) {
	entities, err := t.Fetch(filter)
	if err != nil {
		return nil, err
	}
	out := make([]T, 0, len(entities))
	for _, e := range entities {
		v, ok := e.(T)
		if !ok {
			return nil, fmt.Errorf("%w: unexpected record type %T", ErrInvalidData, e)
		}
		out = append(out, v)
	}
	return out, nil
}

// Table operation errors.
var (
	ErrNotFound      = errors.New("record not found")
	ErrInvalidID     = errors.New("invalid record ID")
	ErrInvalidData   = errors.New("invalid record data")
	ErrInvalidFilter = errors.New("invalid filter")
)
