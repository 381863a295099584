// Package sqlite implements the SQLite storage backend for the page-notes
// store. JSONL files in the data directory are the source of truth; SQLite
// is rebuilt from them on Attach and serves every query.
package sqlite

import (
	"database/sql"
	"errors"
	"fmt"
	"maps"
	"os"
	"path/filepath"
	"slices"
	"sync"
	"time"

	"github.com/rs/zerolog"
	_ "modernc.org/sqlite"

	"github.com/mesh-intelligence/kungfu/pkg/types"
)

const dbFileName = "kungfu.db"

// Compile-time interface check: Backend must implement Store.
var _ types.Store = (*Backend)(nil)

// Backend implements the Store interface using SQLite as the query engine
// and JSONL files as the source of truth.
type Backend struct {
	mu       sync.RWMutex
	attached bool
	config   types.Config
	dataDir  string
	db       *sql.DB
	tables   map[string]*table
	logger   zerolog.Logger

	// Sync strategy state
	syncStrategy  string                  // immediate, on_close, batch
	batchSize     int                     // writes before a batch flush
	batchInterval time.Duration           // time between batch flushes
	pendingWrites map[string]pendingWrite // coalesced per table
	writeCount    int                     // writes since the last flush
	batchTimer    *time.Timer             // timer for interval-based batch flush
	batchMu       sync.Mutex              // protects the fields above
}

// pendingWrite is a deferred JSONL write for one table.
type pendingWrite struct {
	tableName string
	persist   func() error
}

// Option configures a Backend.
type Option func(*Backend)

// WithLogger sets the logger used for load warnings and background flush
// failures. The default discards everything.
func WithLogger(logger zerolog.Logger) Option {
	return func(b *Backend) { b.logger = logger }
}

// NewBackend creates a new SQLite backend instance.
// The backend is not attached; call Attach with a Config to initialize.
func NewBackend(opts ...Option) *Backend {
	b := &Backend{
		tables:        make(map[string]*table),
		pendingWrites: make(map[string]pendingWrite),
		logger:        zerolog.Nop(),
	}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// GetTable returns the Table for the given name.
// Returns ErrTableNotFound for unknown names and ErrStoreDetached when the
// backend is not attached.
func (b *Backend) GetTable(name string) (types.Table, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	if !b.attached {
		return nil, types.ErrStoreDetached
	}

	t, ok := b.tables[name]
	if !ok {
		return nil, types.ErrTableNotFound
	}
	return t, nil
}

// Attach initializes the backend with the given configuration.
// Creates DataDir if it does not exist, builds a fresh SQLite database, and
// loads every JSONL file into it.
// Returns ErrAlreadyAttached if already attached.
func (b *Backend) Attach(config types.Config) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.attached {
		return types.ErrAlreadyAttached
	}

	if err := config.Validate(); err != nil {
		return err
	}

	dataDir := config.DataDir
	if dataDir == "" {
		dataDir = "."
	}
	if err := os.MkdirAll(dataDir, 0o755); err != nil {
		return unavailable("creating data dir", err)
	}

	// The database is a cache of the JSONL files; rebuild it every time.
	dbPath := filepath.Join(dataDir, dbFileName)
	_ = os.Remove(dbPath)

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return unavailable("opening database", err)
	}
	db.SetMaxOpenConns(1)

	for _, ddl := range append(slices.Clone(schemaDDL), indexDDL...) {
		if _, err := db.Exec(ddl); err != nil {
			db.Close()
			return unavailable("creating schema", err)
		}
	}

	if err := initJSONLFiles(dataDir); err != nil {
		db.Close()
		return err
	}

	if err := loadAllJSONL(db, dataDir, b.logger); err != nil {
		db.Close()
		return fmt.Errorf("load JSONL: %w", err)
	}

	b.db = db
	b.config = config
	b.dataDir = dataDir

	b.syncStrategy = config.SQLiteConfig.GetSyncStrategy()
	b.batchSize = config.SQLiteConfig.GetBatchSize()
	b.batchInterval = time.Duration(config.SQLiteConfig.GetBatchInterval()) * time.Second
	b.pendingWrites = make(map[string]pendingWrite)
	b.writeCount = 0

	b.attached = true

	for _, s := range schemas {
		b.tables[s.table] = newTable(b, s)
	}

	if b.syncStrategy == types.SyncBatch && b.batchInterval > 0 {
		b.startBatchTimer()
	}

	b.logger.Debug().Str("data_dir", dataDir).Str("sync", b.syncStrategy).Msg("store attached")
	return nil
}

// Detach flushes pending writes and closes the SQLite connection. After
// Detach, all operations return ErrStoreDetached. Detach is idempotent.
func (b *Backend) Detach() error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if !b.attached {
		return nil
	}

	b.stopBatchTimer()

	if err := b.flushPendingWritesLocked(); err != nil {
		return fmt.Errorf("flush pending writes: %w", err)
	}

	if b.db != nil {
		if err := b.db.Close(); err != nil {
			return unavailable("closing database", err)
		}
		b.db = nil
	}

	b.attached = false
	b.tables = make(map[string]*table)

	b.logger.Debug().Str("data_dir", b.dataDir).Msg("store detached")
	return nil
}

// ClearAll empties every table, rewrites empty JSONL files and removes the
// settings document. Pending writes are discarded.
func (b *Backend) ClearAll() error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if !b.attached {
		return types.ErrStoreDetached
	}

	tx, err := b.db.Begin()
	if err != nil {
		return unavailable("beginning clear", err)
	}
	defer tx.Rollback()
	for _, s := range schemas {
		if _, err := tx.Exec("DELETE FROM " + s.table); err != nil {
			return unavailable("clearing "+s.table, err)
		}
	}
	if err := tx.Commit(); err != nil {
		return unavailable("committing clear", err)
	}

	b.batchMu.Lock()
	b.pendingWrites = make(map[string]pendingWrite)
	b.writeCount = 0
	b.batchMu.Unlock()

	for _, s := range schemas {
		if err := writeJSONL(filepath.Join(b.dataDir, s.file), nil); err != nil {
			return unavailable("truncating "+s.file, err)
		}
	}
	if err := os.Remove(b.settingsPath()); err != nil && !errors.Is(err, os.ErrNotExist) {
		return unavailable("removing settings", err)
	}
	return nil
}

// Bulk runs fn with JSONL persistence deferred for the tables handed to
// fn. With the immediate strategy every table written through them is
// persisted once after fn returns; other strategies keep their own
// schedule. Writes through b.GetTable are not deferred.
func (b *Backend) Bulk(fn func(tables types.Tables) error) error {
	scope := &bulkScope{backend: b, touched: make(map[string]*entitySchema)}
	fnErr := fn(scope)

	b.mu.Lock()
	defer b.mu.Unlock()
	if !b.attached || len(scope.touched) == 0 {
		return fnErr
	}

	b.batchMu.Lock()
	defer b.batchMu.Unlock()
	for _, s := range scope.touched {
		b.queueLocked(s)
	}
	return errors.Join(fnErr, b.flushPendingWritesBatchLocked())
}

// bulkScope hands out tables whose immediate writes are collected until
// the enclosing Bulk call returns. touched is guarded by the backend's mu.
type bulkScope struct {
	backend *Backend
	touched map[string]*entitySchema
}

func (s *bulkScope) GetTable(name string) (types.Table, error) {
	b := s.backend
	b.mu.RLock()
	defer b.mu.RUnlock()

	if !b.attached {
		return nil, types.ErrStoreDetached
	}
	t, ok := b.tables[name]
	if !ok {
		return nil, types.ErrTableNotFound
	}
	return &table{backend: b, schema: t.schema, bulk: s}, nil
}

// initJSONLFiles creates an empty JSONL file for every kind that has none.
func initJSONLFiles(dataDir string) error {
	for _, s := range schemas {
		path := filepath.Join(dataDir, s.file)
		if _, err := os.Stat(path); err == nil {
			continue
		} else if !errors.Is(err, os.ErrNotExist) {
			return unavailable("checking "+s.file, err)
		}
		if err := os.WriteFile(path, nil, 0o644); err != nil {
			return unavailable("creating "+s.file, err)
		}
	}
	return nil
}

// Sync strategy methods

// shouldPersistImmediately returns true if JSONL writes happen on every
// change.
func (b *Backend) shouldPersistImmediately() bool {
	return b.syncStrategy == types.SyncImmediate || b.syncStrategy == ""
}

// persist writes the table's JSONL file now or queues it, according to the
// sync strategy. The caller must hold b.mu.
//
// With the immediate strategy the table is queued and every queued table
// is flushed at once, so a file that failed to write earlier is retried by
// the next change.
func (b *Backend) persist(s *entitySchema) error {
	b.batchMu.Lock()
	defer b.batchMu.Unlock()

	b.queueLocked(s)
	if b.shouldPersistImmediately() {
		return b.flushPendingWritesBatchLocked()
	}

	b.writeCount++
	if b.syncStrategy == types.SyncBatch && b.batchSize > 0 && b.writeCount >= b.batchSize {
		return b.flushPendingWritesBatchLocked()
	}
	return nil
}

// queueLocked schedules a JSONL write for the table. The caller must hold
// b.batchMu.
func (b *Backend) queueLocked(s *entitySchema) {
	b.pendingWrites[s.table] = pendingWrite{
		tableName: s.table,
		persist:   func() error { return b.persistAll(s) },
	}
}

// flushPendingWritesLocked flushes all pending writes to JSONL files.
// The caller must hold b.mu.
func (b *Backend) flushPendingWritesLocked() error {
	b.batchMu.Lock()
	defer b.batchMu.Unlock()

	return b.flushPendingWritesBatchLocked()
}

// flushPendingWritesBatchLocked executes the pending writes in table-name
// order. A failed write stays queued so the next flush retries it; the
// remaining tables are still written. The caller must hold b.batchMu.
func (b *Backend) flushPendingWritesBatchLocked() error {
	if len(b.pendingWrites) == 0 {
		return nil
	}

	var errs []error
	for _, name := range slices.Sorted(maps.Keys(b.pendingWrites)) {
		pw := b.pendingWrites[name]
		if err := pw.persist(); err != nil {
			errs = append(errs, fmt.Errorf("flush %s: %w", pw.tableName, err))
			continue
		}
		delete(b.pendingWrites, name)
	}
	if len(errs) > 0 {
		return errors.Join(errs...)
	}

	b.writeCount = 0
	return nil
}

// startBatchTimer starts the batch interval timer for periodic flushes.
func (b *Backend) startBatchTimer() {
	b.batchMu.Lock()
	defer b.batchMu.Unlock()

	if b.batchTimer != nil {
		return
	}

	b.batchTimer = time.AfterFunc(b.batchInterval, func() {
		b.mu.Lock()
		defer b.mu.Unlock()

		if !b.attached {
			return
		}

		if err := b.flushPendingWritesLocked(); err != nil {
			b.logger.Error().Err(err).Msg("batch flush failed")
		}

		b.batchMu.Lock()
		if b.batchTimer != nil && b.attached {
			b.batchTimer.Reset(b.batchInterval)
		}
		b.batchMu.Unlock()
	})
}

// stopBatchTimer stops the batch interval timer if running.
func (b *Backend) stopBatchTimer() {
	b.batchMu.Lock()
	defer b.batchMu.Unlock()

	if b.batchTimer != nil {
		b.batchTimer.Stop()
		b.batchTimer = nil
	}
}
