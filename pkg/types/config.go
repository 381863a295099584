package types

import "errors"

// Config holds backend selection and parameters for Store.Attach.
type Config struct {
	Backend      string        `json:"backend" yaml:"backend"`
	DataDir      string        `json:"data_dir" yaml:"data_dir"`
	SQLiteConfig *SQLiteConfig `json:"sqlite_config,omitempty" yaml:"sqlite_config,omitempty"`
}

// Supported backend names.
const (
	BackendSQLite = "sqlite"
)

// Sync strategies control when table changes reach the JSONL files.
const (
	SyncImmediate = "immediate" // persist before each write returns
	SyncOnClose   = "on_close"  // persist at Detach
	SyncBatch     = "batch"     // persist every BatchSize writes or BatchInterval seconds
)

// Defaults for the batch sync strategy.
const (
	DefaultBatchSize     = 10
	DefaultBatchInterval = 5
)

// SQLiteConfig holds SQLite backend options. A nil *SQLiteConfig selects
// the defaults.
type SQLiteConfig struct {
	SyncStrategy  string `json:"sync_strategy" yaml:"sync_strategy"`
	BatchSize     int    `json:"batch_size" yaml:"batch_size"`
	BatchInterval int    `json:"batch_interval" yaml:"batch_interval"` // seconds
}

// GetSyncStrategy returns the configured strategy or SyncImmediate.
func (c *SQLiteConfig) GetSyncStrategy() string {
	if c == nil || c.SyncStrategy == "" {
		return SyncImmediate
	}
	return c.SyncStrategy
}

// GetBatchSize returns the configured batch size or DefaultBatchSize.
func (c *SQLiteConfig) GetBatchSize() int {
	if c == nil || c.BatchSize == 0 {
		return DefaultBatchSize
	}
	return c.BatchSize
}

// GetBatchInterval returns the configured batch interval in seconds or
// DefaultBatchInterval.
func (c *SQLiteConfig) GetBatchInterval() int {
	if c == nil || c.BatchInterval == 0 {
		return DefaultBatchInterval
	}
	return c.BatchInterval
}

// Config validation errors.
var (
	ErrBackendEmpty         = errors.New("backend must not be empty")
	ErrBackendUnknown       = errors.New("unknown backend")
	ErrSyncStrategyUnknown  = errors.New("unknown sync strategy")
	ErrBatchSizeInvalid     = errors.New("batch size must be positive")
	ErrBatchIntervalInvalid = errors.New("batch interval must be positive")
)

var knownBackends = map[string]bool{
	BackendSQLite: true,
}

var knownSyncStrategies = map[string]bool{
	SyncImmediate: true,
	SyncOnClose:   true,
	SyncBatch:     true,
}

// Validate checks that the Config is well-formed. It returns a sentinel
// error from this package on failure.
func (c Config) Validate() error {
	if c.Backend == "" {
		return ErrBackendEmpty
	}
	if !knownBackends[c.Backend] {
		return ErrBackendUnknown
	}
	if c.SQLiteConfig == nil {
		return nil
	}
	if c.SQLiteConfig.SyncStrategy != "" && !knownSyncStrategies[c.SQLiteConfig.SyncStrategy] {
		return ErrSyncStrategyUnknown
	}
	if c.SQLiteConfig.BatchSize < 0 {
		return ErrBatchSizeInvalid
	}
	if c.SQLiteConfig.BatchInterval < 0 {
		return ErrBatchIntervalInvalid
	}
	return nil
}
