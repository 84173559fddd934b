package logictest

import (
	"fmt"

	sqllogictest "github.com/dolthub/sqllogictest/go/logictest"
)

// Harness runs sqllogictest files through the upstream Go runner on top of
// an adapter. Init opens a fresh session for every test file.
type Harness struct {
	engine string
	opts   Options
	db     DB
}

var _ sqllogictest.Harness = (*Harness)(nil)

func NewHarness(engine string, opts Options) *Harness {
	return &Harness{engine: engine, opts: opts}
}

// EngineStr is matched against skipif/onlyif conditions.
func (h *Harness) EngineStr() string {
	return h.engine
}

func (h *Harness) Init() error {
	if h.db != nil {
		_ = h.db.Close()
		h.db = nil
	}
	db, err := Open(h.engine, h.opts)
	if err != nil {
		return err
	}
	h.db = db
	return nil
}

func (h *Harness) ExecuteStatement(statement string) error {
	if h.db == nil {
		return fmt.Errorf("harness: Init was not called")
	}
	_, err := h.db.Run(statement)
	return err
}

// ExecuteQuery returns the schema string and the flattened result values,
// one value per column of each row.
func (h *Harness) ExecuteQuery(statement string) (schema string, results []string, err error) {
	if h.db == nil {
		return "", nil, fmt.Errorf("harness: Init was not called")
	}
	out, err := h.db.Run(statement)
	if err != nil {
		return "", nil, err
	}
	if out.Complete {
		return "", nil, fmt.Errorf("harness: statement returned no rows: %s", statement)
	}

	for _, row := range out.Rows {
		for i, v := range row {
			results = append(results, FormatValue(out.Types[i], v))
		}
	}
	return TypeString(out.Types), results, nil
}

// Close ends the current session.
func (h *Harness) Close() error {
	if h.db == nil {
		return nil
	}
	return h.db.Close()
}
