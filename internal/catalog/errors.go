package catalog

import "gopkg.in/src-d/go-errors.v1"

// Error kinds shared by the planner, storage and executor. Callers match
// them with Kind.Is.
var (
	ErrTableNotFound         = errors.NewKind("table not found: %s")
	ErrTableExists           = errors.NewKind("table already exists: %s")
	ErrColumnNotFound        = errors.NewKind("column not found: %s")
	ErrColumnExists          = errors.NewKind("column already exists: %s")
	ErrIndexNotFound         = errors.NewKind("index not found: %s")
	ErrIndexExists           = errors.NewKind("index already exists: %s")
	ErrFunctionNotFound      = errors.NewKind("function not found: %s")
	ErrTypeMismatch          = errors.NewKind("type mismatch: cannot store %v in %s column %s")
	ErrNotNull               = errors.NewKind("NOT NULL constraint failed: %s.%s")
	ErrColumnCount           = errors.NewKind("table %s has %d columns but %d values were supplied")
	ErrUnsupportedType       = errors.NewKind("unsupported column type: %s")
	ErrNoTransaction         = errors.NewKind("no transaction is active")
	ErrTransactionInProgress = errors.NewKind("a transaction is already active")
)
