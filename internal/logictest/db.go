package logictest

import (
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

const (
	EngineNovaSQL = "novasql"
	EngineSQLite  = "sqlite"
)

// DB is the synchronous contract the script runner drives: one statement in,
// one outcome out.
type DB interface {
	Run(sql string) (DBOutput, error)
	EngineName() string
	Close() error
}

// Options configures an adapter session.
type Options struct {
	Resolution TypeResolution
	Classifier ClassifierMode
	// Logger defaults to the standard logrus logger.
	Logger *logrus.Logger
}

func (o Options) withDefaults() Options {
	if o.Resolution == "" {
		o.Resolution = ResolveValues
	}
	if o.Classifier == "" {
		o.Classifier = ClassifyAuto
	}
	if o.Logger == nil {
		o.Logger = logrus.StandardLogger()
	}
	return o
}

// sessionLogger tags every entry of one session.
func sessionLogger(l *logrus.Logger, engine string) *logrus.Entry {
	return l.WithFields(logrus.Fields{
		"engine":  engine,
		"session": uuid.NewString(),
	})
}

// Open starts a fresh session on the named engine.
func Open(engine string, opts Options) (DB, error) {
	switch strings.ToLower(engine) {
	case EngineNovaSQL:
		return NewNovaSQL(opts), nil
	case EngineSQLite:
		return NewSQLite(opts)
	}
	return nil, fmt.Errorf("unknown engine %q (want %s or %s)", engine, EngineNovaSQL, EngineSQLite)
}
