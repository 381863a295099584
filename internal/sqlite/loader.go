package sqlite

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"path/filepath"

	"github.com/rs/zerolog"
)

// loadAllJSONL reads each kind's JSONL file from dataDir and inserts the
// records into SQLite inside one transaction: all load or the database
// stays empty. Malformed lines, records without an id and records that
// fail validation are skipped and logged. Unknown fields are ignored, and
// when an id appears twice the later line wins.
func loadAllJSONL(db *sql.DB, dataDir string, logger zerolog.Logger) error {
	tx, err := db.Begin()
	if err != nil {
		return unavailable("beginning load transaction", err)
	}
	defer tx.Rollback()

	for _, s := range schemas {
		records, malformed, err := readJSONL(filepath.Join(dataDir, s.file))
		if err != nil {
			return unavailable("reading "+s.file, err)
		}

		loaded, invalid, err := insertRecords(tx, s, records)
		if err != nil {
			return fmt.Errorf("loading %s into %s: %w", s.file, s.table, err)
		}

		if malformed+invalid > 0 {
			logger.Warn().
				Str("file", s.file).
				Int("malformed", malformed).
				Int("invalid", invalid).
				Msg("skipped unreadable records")
		}
		logger.Debug().Str("table", s.table).Int("records", loaded).Msg("loaded")
	}

	if err := tx.Commit(); err != nil {
		return unavailable("committing load transaction", err)
	}
	return nil
}

// insertRecords decodes raw JSONL records into the schema's entity type and
// upserts them. It returns how many were loaded and how many were skipped.
func insertRecords(tx *sql.Tx, s *entitySchema, records []json.RawMessage) (loaded, skipped int, err error) {
	stmt, err := tx.Prepare(s.upsertSQL())
	if err != nil {
		return 0, 0, unavailable("preparing insert for "+s.table, err)
	}
	defer stmt.Close()

	for _, raw := range records {
		rec := s.newEntity()
		if err := json.Unmarshal(raw, rec); err != nil {
			skipped++
			continue
		}
		if rec.Meta().ID == "" || rec.Validate() != nil {
			skipped++
			continue
		}
		args, err := s.values(rec)
		if err != nil {
			skipped++
			continue
		}
		if _, err := stmt.Exec(args...); err != nil {
			return loaded, skipped, unavailable("inserting into "+s.table, err)
		}
		loaded++
	}
	return loaded, skipped, nil
}
