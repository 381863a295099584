package types

import "errors"

// Store defines backend-agnostic access to the page-notes store. Callers
// attach to a backend, access tables by name, read and merge settings, and
// detach when done.
type Store interface {
	Tables

	// Attach connects the Store to the backend described by config.
	// Creates the DataDir if it does not exist. Returns ErrAlreadyAttached
	// if called while already attached.
	Attach(config Config) error

	// Detach releases backend resources after flushing pending writes.
	// Idempotent. After Detach, operations return ErrStoreDetached.
	Detach() error

	// Settings returns the persisted settings, or the defaults when none
	// were ever written. It never writes the defaults back.
	Settings() (Settings, error)

	// SetSettings merges patch over the current settings, persists the
	// result and returns it.
	SetSettings(patch SettingsPatch) (Settings, error)

	// ClearAll empties every table and removes the settings document.
	ClearAll() error

	// Bulk runs fn with table persistence coalesced. Only writes made
	// through the tables passed to fn are deferred; each table they touch
	// is persisted once, after fn returns. Writes through the Store's own
	// tables keep the configured sync strategy, even while fn runs.
	Bulk(fn func(tables Tables) error) error
}

// Tables gives access to the store's tables by name.
type Tables interface {
	// GetTable returns the Table for the given name.
	// Returns ErrTableNotFound if the name is not a standard table.
	GetTable(name string) (Table, error)
}

// Store lifecycle and availability errors. ErrStoreDetached matches
// ErrStorageUnavailable under errors.Is.
var (
	ErrStorageUnavailable = errors.New("storage unavailable")
	ErrStoreDetached      = &wrapped{msg: "store is detached", err: ErrStorageUnavailable}
	ErrAlreadyAttached    = errors.New("store is already attached")
	ErrTableNotFound      = errors.New("table not found")
	ErrFormat             = errors.New("invalid import data format")
	ErrAlreadyRunning     = errors.New("transcription is already running")
	ErrNotRunning         = errors.New("transcription is not running")
)

// wrapped is a sentinel error that also matches a broader sentinel.
type wrapped struct {
	msg string
	err error
}

func (w *wrapped) Error() string { return w.msg }
func (w *wrapped) Unwrap() error { return w.err }
