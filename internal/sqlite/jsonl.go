package sqlite

import (
	"bufio"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
)

// maxJSONLLine bounds a single JSONL record. Screenshot lines embed a
// base64 PNG and routinely exceed bufio's 64 KiB default.
const maxJSONLLine = 64 << 20

// readJSONL reads a JSONL file and returns each non-empty, parseable line as
// a json.RawMessage. Malformed lines are skipped and counted. A missing
// file reads as empty.
func readJSONL(path string) (records []json.RawMessage, skipped int, err error) {
	f, err := os.Open(path)
	if errors.Is(err, os.ErrNotExist) {
		return nil, 0, nil
	}
	if err != nil {
		return nil, 0, fmt.Errorf("opening %s: %w", path, err)
	}
	defer f.Close()

	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 0, 64*1024), maxJSONLLine)
	for scanner.Scan() {
		line := scanner.Bytes()
		if len(line) == 0 {
			continue
		}
		if !json.Valid(line) {
			skipped++
			continue
		}
		cp := make([]byte, len(line))
		copy(cp, line)
		records = append(records, json.RawMessage(cp))
	}
	if err := scanner.Err(); err != nil {
		return nil, skipped, fmt.Errorf("scanning %s: %w", path, err)
	}
	return records, skipped, nil
}

// writeJSONL atomically replaces path with one record per line.
func writeJSONL(path string, records []json.RawMessage) error {
	return writeFileAtomic(path, func(w *bufio.Writer) error {
		for _, rec := range records {
			if _, err := w.Write(rec); err != nil {
				return fmt.Errorf("writing record: %w", err)
			}
			if err := w.WriteByte('\n'); err != nil {
				return fmt.Errorf("writing newline: %w", err)
			}
		}
		return nil
	})
}

// writeFileAtomic writes through a temp file in the target directory, then
// fsyncs and renames it over path, so readers never see a partial file.
func writeFileAtomic(path string, write func(w *bufio.Writer) error) error {
	dir := filepath.Dir(path)
	tmp, err := os.CreateTemp(dir, "."+filepath.Base(path)+"-*.tmp")
	if err != nil {
		return fmt.Errorf("creating temp file: %w", err)
	}
	tmpName := tmp.Name()
	fail := func(err error) error {
		tmp.Close()
		os.Remove(tmpName)
		return err
	}

	w := bufio.NewWriter(tmp)
	if err := write(w); err != nil {
		return fail(err)
	}
	if err := w.Flush(); err != nil {
		return fail(fmt.Errorf("flushing buffer: %w", err))
	}
	if err := tmp.Sync(); err != nil {
		return fail(fmt.Errorf("syncing temp file: %w", err))
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("closing temp file: %w", err)
	}
	if err := os.Rename(tmpName, path); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("renaming temp file: %w", err)
	}
	return nil
}
