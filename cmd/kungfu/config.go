// Config loading for the kungfu CLI.
package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/viper"

	"github.com/mesh-intelligence/kungfu/pkg/types"
)

const (
	configFileName = "config"
	configFileType = "yaml"
	configFileExt  = "config.yaml"

	cfgKeyBackend       = "backend"
	cfgKeyDataDir       = "data_dir"
	cfgKeySyncStrategy  = "sync_strategy"
	cfgKeyBatchSize     = "batch_size"
	cfgKeyBatchInterval = "batch_interval"
	cfgKeyLogLevel      = "log_level"

	defaultLogLevel = "warn"
)

// defaultConfigYAML is the content written to config.yaml on first run.
const defaultConfigYAML = `# kungfu CLI configuration

# Backend selection
backend: sqlite

# Data directory (optional; overridable by --data-dir flag)
# data_dir:

# When table changes reach the JSONL files: immediate, on_close or batch
sync_strategy: immediate
# batch_size: 10
# batch_interval: 5

# Log level: debug, info, warn, error
log_level: warn
`

// appConfig is the decoded config.yaml.
type appConfig struct {
	Backend       string
	DataDir       string
	SyncStrategy  string
	BatchSize     int
	BatchInterval int
	LogLevel      string
}

// storeConfig returns the types.Config used to attach a backend to dataDir.
func (c appConfig) storeConfig(dataDir string) types.Config {
	return types.Config{
		Backend: c.Backend,
		DataDir: dataDir,
		SQLiteConfig: &types.SQLiteConfig{
			SyncStrategy:  c.SyncStrategy,
			BatchSize:     c.BatchSize,
			BatchInterval: c.BatchInterval,
		},
	}
}

// loadConfig reads config.yaml from configDir using Viper. It creates the
// directory and a default config.yaml on first run. A missing config.yaml
// is not an error.
func loadConfig(configDir string) (appConfig, error) {
	if err := ensureConfigDir(configDir); err != nil {
		return appConfig{}, fmt.Errorf("ensure config dir: %w", err)
	}

	if err := ensureDefaultConfigFile(configDir); err != nil {
		return appConfig{}, fmt.Errorf("ensure default config: %w", err)
	}

	v := viper.New()
	v.SetDefault(cfgKeyBackend, types.BackendSQLite)
	v.SetDefault(cfgKeySyncStrategy, types.SyncImmediate)
	v.SetDefault(cfgKeyBatchSize, types.DefaultBatchSize)
	v.SetDefault(cfgKeyBatchInterval, types.DefaultBatchInterval)
	v.SetDefault(cfgKeyLogLevel, defaultLogLevel)
	v.SetConfigName(configFileName)
	v.SetConfigType(configFileType)
	v.AddConfigPath(configDir)

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return appConfig{}, fmt.Errorf("read config: %w", err)
		}
	}

	return appConfig{
		Backend:       v.GetString(cfgKeyBackend),
		DataDir:       v.GetString(cfgKeyDataDir),
		SyncStrategy:  v.GetString(cfgKeySyncStrategy),
		BatchSize:     v.GetInt(cfgKeyBatchSize),
		BatchInterval: v.GetInt(cfgKeyBatchInterval),
		LogLevel:      v.GetString(cfgKeyLogLevel),
	}, nil
}

// ensureConfigDir creates the config directory if it does not exist.
func ensureConfigDir(configDir string) error {
	return os.MkdirAll(configDir, 0o755)
}

// ensureDefaultConfigFile creates a default config.yaml if the file does not
// exist in the config directory.
func ensureDefaultConfigFile(configDir string) error {
	path := filepath.Join(configDir, configFileExt)

	_, err := os.Stat(path)
	if err == nil {
		return nil
	}
	if !os.IsNotExist(err) {
		return fmt.Errorf("stat config file: %w", err)
	}

	return os.WriteFile(path, []byte(defaultConfigYAML), 0o644)
}
