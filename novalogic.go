// Package novalogic is the top-level facade: open an adapter session on an
// engine and run sqllogictest scripts against it.
package novalogic

import (
	"github.com/tuannm99/novalogic/internal/logictest"
	"github.com/tuannm99/novalogic/internal/slt"
)

type (
	DB         = logictest.DB
	Options    = logictest.Options
	DBOutput   = logictest.DBOutput
	ColumnType = logictest.ColumnType
)

const (
	EngineNovaSQL = logictest.EngineNovaSQL
	EngineSQLite  = logictest.EngineSQLite
)

// Open starts a fresh session on the named engine.
func Open(engine string, opts Options) (DB, error) {
	return logictest.Open(engine, opts)
}

// RunFile runs one script in a fresh session and closes it.
func RunFile(engine, path string, opts Options) error {
	db, err := Open(engine, opts)
	if err != nil {
		return err
	}
	defer func() { _ = db.Close() }()

	var ro slt.Options
	if opts.Logger != nil {
		ro.Logger = opts.Logger
	}
	_, err = slt.NewRunner(db, ro).RunFile(path)
	return err
}
