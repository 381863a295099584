// Package paths resolves configuration and data directory locations.
package paths

import (
	"os"
	"path/filepath"
	"runtime"
)

// appName is the directory name used under the platform base directories.
const appName = "kungfu"

// Environment variable names for directory overrides.
const (
	EnvConfigDir = "KUNGFU_CONFIG_DIR"
	EnvDataDir   = "KUNGFU_DATA_DIR"
)

// platformDir holds platform-detection functions that can be overridden in tests.
var platformDir = struct {
	goos          string
	homeDir       func() (string, error)
	userConfigDir func() (string, error)
}{
	goos:          runtime.GOOS,
	homeDir:       os.UserHomeDir,
	userConfigDir: os.UserConfigDir,
}

// baseDir returns xdgEnv when set on Linux, else ~/<linuxHome...>. Other
// platforms use os.UserConfigDir for both configuration and data.
func baseDir(xdgEnv string, linuxHome ...string) (string, error) {
	if platformDir.goos != "linux" {
		// ~/Library/Application Support on macOS, %APPDATA% on Windows.
		dir, err := platformDir.userConfigDir()
		if err != nil {
			return "", err
		}
		return filepath.Join(dir, appName), nil
	}
	if xdg := os.Getenv(xdgEnv); xdg != "" {
		return filepath.Join(xdg, appName), nil
	}
	home, err := platformDir.homeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(append(append([]string{home}, linuxHome...), appName)...), nil
}

// DefaultConfigDir returns the platform-specific default configuration directory.
//
// Linux:   $XDG_CONFIG_HOME/kungfu (fallback ~/.config/kungfu)
// macOS:   ~/Library/Application Support/kungfu
// Windows: %APPDATA%/kungfu
func DefaultConfigDir() (string, error) {
	return baseDir("XDG_CONFIG_HOME", ".config")
}

// DefaultDataDir returns the platform-specific default data directory.
//
// Linux:   $XDG_DATA_HOME/kungfu (fallback ~/.local/share/kungfu)
// macOS:   ~/Library/Application Support/kungfu
// Windows: %APPDATA%/kungfu
func DefaultDataDir() (string, error) {
	return baseDir("XDG_DATA_HOME", ".local", "share")
}

// ResolveConfigDir returns the configuration directory following the
// precedence chain: flag > KUNGFU_CONFIG_DIR env > DefaultConfigDir().
func ResolveConfigDir(flag string) (string, error) {
	return resolve(DefaultConfigDir, flag, os.Getenv(EnvConfigDir))
}

// ResolveDataDir returns the data directory following the precedence chain:
// flag > data_dir from config.yaml > KUNGFU_DATA_DIR env > DefaultDataDir().
func ResolveDataDir(flag, configYAMLValue string) (string, error) {
	return resolve(DefaultDataDir, flag, configYAMLValue, os.Getenv(EnvDataDir))
}

// resolve returns the first non-empty candidate made absolute, or the
// default.
func resolve(def func() (string, error), candidates ...string) (string, error) {
	for _, c := range candidates {
		if c != "" {
			return filepath.Abs(c)
		}
	}
	return def()
}
