package engine

import (
	"github.com/sirupsen/logrus"

	"github.com/tuannm99/novalogic/internal/payload"
	"github.com/tuannm99/novalogic/internal/sql/executor"
	"github.com/tuannm99/novalogic/internal/storage"
)

// Database is an in-memory NovaSQL session. It is a handle: not safe for
// concurrent use, and meant to be moved between goroutines rather than
// shared.
type Database struct {
	store  *storage.Store
	exec   *executor.Executor
	closed bool
}

// NewDatabase returns an empty session.
func NewDatabase() *Database {
	store := storage.NewStore()
	return &Database{
		store: store,
		exec:  executor.NewExecutor(store),
	}
}

// ExecuteAsync schedules sql on rt. The future yields one payload per
// ';'-separated statement.
func (db *Database) ExecuteAsync(rt *Runtime, sql string) *Future[[]payload.Payload] {
	return Spawn(rt, func() ([]payload.Payload, error) {
		if db.closed {
			return nil, ErrDatabaseClosed.New()
		}
		out, err := db.exec.ExecSQL(sql)
		if err != nil {
			logrus.WithError(err).Debugf("engine: statement failed: %s", sql)
			return nil, err
		}
		return out, nil
	})
}

// Execute runs sql to completion on a private runtime.
func (db *Database) Execute(sql string) ([]payload.Payload, error) {
	rt := NewRuntime()
	defer rt.Close()
	return BlockOn(rt, db.ExecuteAsync(rt, sql))
}

// Tables lists the tables of the session in name order.
func (db *Database) Tables() []string {
	return db.store.TableNames()
}

// InTransaction reports whether BEGIN is pending.
func (db *Database) InTransaction() bool {
	return db.store.InTransaction()
}

func (db *Database) Close() error {
	db.closed = true
	return nil
}
