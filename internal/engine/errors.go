package engine

import (
	"gopkg.in/src-d/go-errors.v1"

	"github.com/tuannm99/novalogic/internal/catalog"
)

var (
	ErrNestedRuntime  = errors.NewKind("cannot block on a runtime from within itself")
	ErrRuntimeClosed  = errors.NewKind("runtime is closed")
	ErrDatabaseClosed = errors.NewKind("database is closed")
)

// Catalog error kinds, re-exported for callers of the engine.
var (
	ErrTableNotFound         = catalog.ErrTableNotFound
	ErrTableExists           = catalog.ErrTableExists
	ErrColumnNotFound        = catalog.ErrColumnNotFound
	ErrTypeMismatch          = catalog.ErrTypeMismatch
	ErrNotNull               = catalog.ErrNotNull
	ErrNoTransaction         = catalog.ErrNoTransaction
	ErrTransactionInProgress = catalog.ErrTransactionInProgress
	ErrIndexNotFound         = catalog.ErrIndexNotFound
	ErrIndexExists           = catalog.ErrIndexExists
	ErrFunctionNotFound      = catalog.ErrFunctionNotFound
)
