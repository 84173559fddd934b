package logictest

import (
	"database/sql"
	"fmt"
	"strings"

	"github.com/sirupsen/logrus"
	_ "modernc.org/sqlite"
)

// SQLite is the reference adapter over an in-memory SQLite database. SQLite
// is synchronous, so statements run directly on the caller's goroutine.
type SQLite struct {
	db         *sql.DB
	classifier Classifier
	log        *logrus.Entry
}

var _ DB = (*SQLite)(nil)

func NewSQLite(opts Options) (*SQLite, error) {
	opts = opts.withDefaults()

	db, err := sql.Open("sqlite", ":memory:")
	if err != nil {
		return nil, wrap(EngineSQLite, err)
	}
	// every connection to :memory: is a separate database
	db.SetMaxOpenConns(1)
	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, wrap(EngineSQLite, err)
	}

	return &SQLite{
		db:         db,
		classifier: LexicalClassifier{},
		log:        sessionLogger(opts.Logger, EngineSQLite),
	}, nil
}

func (s *SQLite) EngineName() string { return EngineSQLite }

func (s *SQLite) Run(query string) (DBOutput, error) {
	cl, err := s.classifier.Classify(query)
	if err != nil {
		return DBOutput{}, wrap(EngineSQLite, err)
	}
	s.log.WithField("kind", cl.Kind).Debugf("run: %s", query)

	var res QueryResult
	if cl.Kind == KindRead {
		res, err = s.query(query)
	} else {
		res, err = s.exec(query)
	}
	if err != nil {
		return DBOutput{}, wrap(EngineSQLite, err)
	}
	return ToRunnerOutput(res), nil
}

func (s *SQLite) query(query string) (QueryResult, error) {
	rows, err := s.db.Query(query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	cols, err := rows.ColumnTypes()
	if err != nil {
		return nil, err
	}
	types := make([]ColumnType, len(cols))
	for i, c := range cols {
		t, ok := ColumnTypeFromSQL(c.DatabaseTypeName())
		if !ok {
			s.log.WithFields(logrus.Fields{
				"column": c.Name(),
				"type":   c.DatabaseTypeName(),
			}).Warn("type resolution: column type not found, using Any")
			t = Any
		}
		types[i] = t
	}

	out := Rows{Types: types}
	vals := make([]any, len(cols))
	ptrs := make([]any, len(cols))
	for i := range vals {
		ptrs[i] = &vals[i]
	}
	for rows.Next() {
		if err := rows.Scan(ptrs...); err != nil {
			return nil, err
		}
		row := make(Row, len(vals))
		for i, v := range vals {
			row[i] = renderSQLite(types[i], v)
		}
		out.Rows = append(out.Rows, row)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

// renderSQLite reads a value the way its declared column type says to.
func renderSQLite(t ColumnType, v any) string {
	switch x := v.(type) {
	case float64:
		if t == Integer {
			return fmt.Sprint(int64(x))
		}
	case []byte:
		return string(x)
	}
	return RenderCell(v)
}

// countingStatements report RowsAffected; SQLite leaves the counter stale
// for everything else.
var countingStatements = map[string]bool{
	"INSERT":  true,
	"UPDATE":  true,
	"DELETE":  true,
	"REPLACE": true,
}

func (s *SQLite) exec(query string) (QueryResult, error) {
	res, err := s.db.Exec(query)
	if err != nil {
		return nil, err
	}

	first := strings.ToUpper(strings.Fields(query)[0])
	if !countingStatements[first] {
		return Effect{}, nil
	}
	n, err := res.RowsAffected()
	if err != nil {
		return nil, fmt.Errorf("rows affected: %w", err)
	}
	return Effect{Affected: uint64(n)}, nil
}

func (s *SQLite) Close() error {
	return s.db.Close()
}
