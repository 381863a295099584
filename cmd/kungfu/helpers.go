// Shared helpers for kungfu CLI commands.
package main

import (
	"errors"
	"fmt"
	"io"

	"github.com/goccy/go-json"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/mesh-intelligence/kungfu/internal/features"
	"github.com/mesh-intelligence/kungfu/internal/sqlite"
	"github.com/mesh-intelligence/kungfu/pkg/types"
)

// usageError marks an error caused by the user's input.
type usageError struct{ msg string }

func (e *usageError) Error() string { return e.msg }

func usageErrorf(format string, args ...any) error {
	return &usageError{msg: fmt.Sprintf(format, args...)}
}

// userErrors are the store errors that report bad input rather than a
// failing system.
var userErrors = []error{
	types.ErrNotFound,
	types.ErrInvalidID,
	types.ErrInvalidData,
	types.ErrInvalidFilter,
	types.ErrFormat,
	types.ErrAlreadyRunning,
	types.ErrNotRunning,
	features.ErrNotPNGDataURL,
}

// exitCode maps an error to the process exit status.
func exitCode(err error) int {
	if err == nil {
		return exitSuccess
	}
	var ue *usageError
	if errors.As(err, &ue) {
		return exitUserError
	}
	for _, target := range userErrors {
		if errors.Is(err, target) {
			return exitUserError
		}
	}
	return exitSysError
}

// userArgs wraps a cobra argument validator so its failures count as user errors.
func userArgs(validate cobra.PositionalArgs) cobra.PositionalArgs {
	return func(cmd *cobra.Command, a []string) error {
		if err := validate(cmd, a); err != nil {
			return &usageError{msg: err.Error()}
		}
		return nil
	}
}

// attachBackend resolves the data directory, creates a SQLite backend, and
// attaches it. The caller must defer backend.Detach().
func (a *app) attachBackend() (*sqlite.Backend, error) {
	dataDir, err := a.resolveDataDir()
	if err != nil {
		return nil, fmt.Errorf("resolve data dir: %w", err)
	}

	backend := sqlite.NewBackend(sqlite.WithLogger(log.Logger))
	if err := backend.Attach(a.cfg.storeConfig(dataDir)); err != nil {
		if errors.Is(err, types.ErrBackendUnknown) || errors.Is(err, types.ErrSyncStrategyUnknown) {
			return nil, usageErrorf("config: %v", err)
		}
		return nil, fmt.Errorf("attach backend: %w", err)
	}
	return backend, nil
}

// withStore attaches a backend, runs fn and detaches, reporting the first
// error.
func (a *app) withStore(fn func(store *sqlite.Backend) error) (err error) {
	backend, err := a.attachBackend()
	if err != nil {
		return err
	}
	defer func() {
		if derr := backend.Detach(); derr != nil && err == nil {
			err = fmt.Errorf("detach backend: %w", derr)
		}
	}()
	return fn(backend)
}

// page returns the current page given by --url and --title.
func (a *app) page() features.StaticPage {
	return features.StaticPage{URL: a.flagURL, Title: a.flagTitle}
}

// printJSON writes v to w as indented JSON.
func printJSON(w io.Writer, v any) error {
	out, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal output: %w", err)
	}
	_, err = fmt.Fprintln(w, string(out))
	return err
}

// readAll reads the command's stdin.
func readAll(cmd *cobra.Command) ([]byte, error) {
	return io.ReadAll(cmd.InOrStdin())
}
