package sqlite

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"maps"
	"path/filepath"
	"slices"
	"strings"

	"github.com/mesh-intelligence/kungfu/pkg/types"
)

// Compile-time interface check: table must implement Table.
var _ types.Table = (*table)(nil)

// table implements types.Table for one record kind. Each operation moves
// records between SQLite rows and typed structs and schedules the kind's
// JSONL file for persistence after a change.
type table struct {
	backend *Backend
	schema  *entitySchema
	bulk    *bulkScope // set for tables handed out by Bulk
}

func newTable(b *Backend, s *entitySchema) *table {
	return &table{backend: b, schema: s}
}

// unavailable wraps a storage-layer failure so callers can match it with
// types.ErrStorageUnavailable.
func unavailable(op string, err error) error {
	return fmt.Errorf("%s: %w: %w", op, types.ErrStorageUnavailable, err)
}

// Get retrieves a record by ID.
// Returns ErrInvalidID if id is empty, ErrNotFound if absent.
func (t *table) Get(id string) (any, error) {
	if id == "" {
		return nil, types.ErrInvalidID
	}
	b := t.backend
	b.mu.RLock()
	defer b.mu.RUnlock()
	if !b.attached {
		return nil, types.ErrStoreDetached
	}

	row := b.db.QueryRow(
		fmt.Sprintf("SELECT %s FROM %s WHERE id = ?", t.schema.columnList(), t.schema.table), id)
	rec, err := t.schema.scan(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, types.ErrNotFound
	}
	if err != nil {
		return nil, unavailable(fmt.Sprintf("getting %s %s", t.schema.table, id), err)
	}
	return rec, nil
}

// Set inserts or fully replaces a record. An empty id falls back to the
// record's own ID, then to a newly generated one. A zero timestamp keeps
// the stored record's timestamp, or is set to now for a new record. An
// empty title becomes "Untitled". The caller's struct is updated with the
// values stored.
func (t *table) Set(id string, data any) (string, error) {
	if !t.schema.owns(data) {
		return "", fmt.Errorf("%w: %T is not a %s record", types.ErrInvalidData, data, t.schema.table)
	}
	rec := data.(types.Record)
	meta := rec.Meta()

	if id == "" {
		id = meta.ID
	}
	if id == "" {
		id = types.NewID()
	}
	meta.ID = id
	if meta.Timestamp < 0 {
		return "", fmt.Errorf("%w: negative timestamp", types.ErrInvalidData)
	}
	if meta.Title == "" {
		meta.Title = types.DefaultTitle
	}
	if err := rec.Validate(); err != nil {
		return "", fmt.Errorf("%w: %w", types.ErrInvalidData, err)
	}

	b := t.backend
	b.mu.Lock()
	defer b.mu.Unlock()
	if !b.attached {
		return "", types.ErrStoreDetached
	}

	if meta.Timestamp == 0 {
		ts, err := t.storedTimestamp(id)
		if err != nil {
			return "", err
		}
		meta.Timestamp = ts
	}
	values, err := t.schema.values(rec)
	if err != nil {
		return "", fmt.Errorf("%w: %w", types.ErrInvalidData, err)
	}

	if _, err := b.db.Exec(t.schema.upsertSQL(), values...); err != nil {
		return "", unavailable(fmt.Sprintf("writing %s %s", t.schema.table, id), err)
	}
	if err := t.persist(); err != nil {
		return "", err
	}
	return id, nil
}

// storedTimestamp returns the creation timestamp of an existing record, or
// the current time when id is new. The caller must hold b.mu.
func (t *table) storedTimestamp(id string) (int64, error) {
	var ts int64
	err := t.backend.db.QueryRow(
		fmt.Sprintf("SELECT timestamp FROM %s WHERE id = ?", t.schema.table), id).Scan(&ts)
	if errors.Is(err, sql.ErrNoRows) {
		return types.NowMillis(), nil
	}
	if err != nil {
		return 0, unavailable(fmt.Sprintf("reading %s %s", t.schema.table, id), err)
	}
	return ts, nil
}

// persist schedules the table's JSONL write. Inside Bulk with the
// immediate strategy the write waits for Bulk to return. The caller must
// hold b.mu.
func (t *table) persist() error {
	b := t.backend
	if t.bulk != nil && b.shouldPersistImmediately() {
		t.bulk.touched[t.schema.table] = t.schema
		return nil
	}
	return b.persist(t.schema)
}

// Delete removes a record by ID. Deleting an absent record succeeds
// without touching the JSONL file.
func (t *table) Delete(id string) error {
	if id == "" {
		return types.ErrInvalidID
	}
	b := t.backend
	b.mu.Lock()
	defer b.mu.Unlock()
	if !b.attached {
		return types.ErrStoreDetached
	}

	res, err := b.db.Exec(fmt.Sprintf("DELETE FROM %s WHERE id = ?", t.schema.table), id)
	if err != nil {
		return unavailable(fmt.Sprintf("deleting %s %s", t.schema.table, id), err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return unavailable(fmt.Sprintf("deleting %s %s", t.schema.table, id), err)
	}
	if n == 0 {
		return nil
	}
	return t.persist()
}

// Fetch returns records matching the filter ordered by timestamp
// descending, ties broken by id descending.
func (t *table) Fetch(filter types.Filter) ([]any, error) {
	query, args, err := buildFetchQuery(t.schema, filter)
	if err != nil {
		return nil, err
	}

	b := t.backend
	b.mu.RLock()
	defer b.mu.RUnlock()
	if !b.attached {
		return nil, types.ErrStoreDetached
	}

	rows, err := b.db.Query(query, args...)
	if err != nil {
		return nil, unavailable("fetching "+t.schema.table, err)
	}
	defer rows.Close()

	results := []any{}
	for rows.Next() {
		rec, err := t.schema.scan(rows)
		if err != nil {
			return nil, unavailable("scanning "+t.schema.table, err)
		}
		results = append(results, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, unavailable("iterating "+t.schema.table, err)
	}
	return results, nil
}

// buildFetchQuery translates a filter into SQL. Keys are applied in sorted
// order so the generated statement is stable.
func buildFetchQuery(s *entitySchema, filter types.Filter) (string, []any, error) {
	var conditions []string
	var args []any
	limit, offset := 0, 0

	for _, key := range slices.Sorted(maps.Keys(filter)) {
		v := filter[key]
		switch key {
		case types.FilterLimit, types.FilterOffset:
			n, ok := v.(int)
			if !ok || n < 0 {
				return "", nil, fmt.Errorf("%w: %s must be a non-negative int", types.ErrInvalidFilter, key)
			}
			if key == types.FilterLimit {
				limit = n
			} else {
				offset = n
			}
		default:
			col, ok := s.filters[key]
			if !ok {
				return "", nil, fmt.Errorf("%w: %s does not support %q", types.ErrInvalidFilter, s.table, key)
			}
			str, ok := v.(string)
			if !ok {
				return "", nil, fmt.Errorf("%w: %s must be a string", types.ErrInvalidFilter, key)
			}
			conditions = append(conditions, col+" = ?")
			args = append(args, str)
		}
	}

	query := fmt.Sprintf("SELECT %s FROM %s", s.columnList(), s.table)
	if len(conditions) > 0 {
		query += " WHERE " + strings.Join(conditions, " AND ")
	}
	query += " ORDER BY timestamp DESC, id DESC"

	switch {
	case limit > 0:
		query += " LIMIT ?"
		args = append(args, limit)
	case offset > 0:
		query += " LIMIT -1"
	}
	if offset > 0 {
		query += " OFFSET ?"
		args = append(args, offset)
	}
	return query, args, nil
}

// persistAll reads every record of a kind from SQLite, oldest first, and
// writes them to the kind's JSONL file atomically. The caller must hold
// b.mu.
func (b *Backend) persistAll(s *entitySchema) error {
	rows, err := b.db.Query(fmt.Sprintf(
		"SELECT %s FROM %s ORDER BY timestamp ASC, id ASC", s.columnList(), s.table))
	if err != nil {
		return unavailable("querying "+s.table+" for JSONL", err)
	}
	defer rows.Close()

	var records []json.RawMessage
	for rows.Next() {
		rec, err := s.scan(rows)
		if err != nil {
			return unavailable("scanning "+s.table+" for JSONL", err)
		}
		data, err := json.Marshal(rec)
		if err != nil {
			return unavailable("marshaling "+s.table+" for JSONL", err)
		}
		records = append(records, data)
	}
	if err := rows.Err(); err != nil {
		return unavailable("iterating "+s.table+" for JSONL", err)
	}

	if err := writeJSONL(filepath.Join(b.dataDir, s.file), records); err != nil {
		return unavailable("persisting "+s.file, err)
	}
	return nil
}
