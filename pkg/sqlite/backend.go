// Package sqlite provides the public API for the SQLite page-notes backend.
// This package exposes the factory function for creating SQLite backends
// while keeping implementation details internal.
package sqlite

import (
	"github.com/rs/zerolog"

	"github.com/mesh-intelligence/kungfu/internal/sqlite"
	"github.com/mesh-intelligence/kungfu/pkg/types"
)

// NewBackend creates a new SQLite backend instance.
// The backend is not attached; call Attach with a Config to initialize.
//
// Example:
//
//	backend := sqlite.NewBackend()
//	err := backend.Attach(types.Config{
//	    Backend: types.BackendSQLite,
//	    DataDir: ".kungfu",
//	})
//	defer backend.Detach()
func NewBackend() types.Store {
	return sqlite.NewBackend()
}

// NewBackendWithLogger is NewBackend with load warnings and background
// flush failures reported to logger.
func NewBackendWithLogger(logger zerolog.Logger) types.Store {
	return sqlite.NewBackend(sqlite.WithLogger(logger))
}
