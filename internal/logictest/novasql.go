package logictest

import (
	"github.com/sirupsen/logrus"

	"github.com/tuannm99/novalogic/internal/engine"
)

// NovaSQL adapts the asynchronous NovaSQL engine to the synchronous runner
// contract.
type NovaSQL struct {
	bridge     *Bridge
	classifier Classifier
	resolution TypeResolution
	log        *logrus.Entry
}

var _ DB = (*NovaSQL)(nil)

func NewNovaSQL(opts Options) *NovaSQL {
	opts = opts.withDefaults()
	log := sessionLogger(opts.Logger, EngineNovaSQL)
	return &NovaSQL{
		bridge:     NewBridge(func() Handle { return engine.NewDatabase() }, opts.Resolution, log),
		classifier: NewClassifier(opts.Classifier, opts.Resolution, log),
		resolution: opts.Resolution,
		log:        log,
	}
}

func (n *NovaSQL) EngineName() string { return EngineNovaSQL }

// Recoveries reports how many times the engine had to be replaced.
func (n *NovaSQL) Recoveries() int { return n.bridge.Recoveries() }

// Run classifies, executes and translates one statement. Every failure is
// an *AdapterError.
func (n *NovaSQL) Run(sql string) (DBOutput, error) {
	cl, err := n.classifier.Classify(sql)
	if err != nil {
		return DBOutput{}, wrap(EngineNovaSQL, err)
	}

	var table string
	if n.resolution == ResolveSchema && cl.Kind == KindRead {
		table = cl.Table
	}

	n.log.WithFields(logrus.Fields{"kind": cl.Kind, "table": table}).Debugf("run: %s", sql)
	res, err := n.bridge.Execute(sql, table)
	if err != nil {
		return DBOutput{}, wrap(EngineNovaSQL, err)
	}

	if _, isRows := res.(Rows); isRows != (cl.Kind == KindRead) {
		n.log.WithField("kind", cl.Kind).Debugf("run: outcome disagrees with classification: %s", sql)
	}
	return ToRunnerOutput(res), nil
}

func (n *NovaSQL) Close() error {
	return n.bridge.Close()
}
