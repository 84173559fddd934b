package logictest

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func requireAdapterError(t *testing.T, err error) *AdapterError {
	t.Helper()
	require.Error(t, err)
	var ae *AdapterError
	require.True(t, errors.As(err, &ae), "got %T: %v", err, err)
	return ae
}

func TestNovaSQL_UnsupportedPayload(t *testing.T) {
	db := NewNovaSQL(testOptions(ResolveValues))
	defer db.Close()

	_, err := db.Run("SHOW VERSION")
	ae := requireAdapterError(t, err)
	assert.Equal(t, EngineNovaSQL, ae.Engine)
	assert.True(t, ErrUnsupportedPayload.Is(ae.Cause))
	assert.EqualError(t, err, "novasql error: unsupported payload: ShowVariable")
}

func TestNovaSQL_EngineErrors(t *testing.T) {
	db := NewNovaSQL(testOptions(ResolveValues))
	defer db.Close()

	_, err := db.Run("SELECT a FROM missing")
	requireAdapterError(t, err)

	_, err = db.Run("CREATE TABLE t (a INT)")
	require.NoError(t, err)
	_, err = db.Run("CREATE TABLE t (a INT)")
	ae := requireAdapterError(t, err)
	assert.Contains(t, ae.Error(), "novasql error: ")

	_, err = db.Run("")
	ae = requireAdapterError(t, err)
	assert.True(t, ErrEmptyStatement.Is(ae.Cause))

	// the session survives failures
	out, err := db.Run("INSERT INTO t VALUES (7)")
	require.NoError(t, err)
	assert.Equal(t, uint64(1), out.Count)
	assert.Equal(t, 0, db.Recoveries())
}

func TestNovaSQL_EffectCounts(t *testing.T) {
	db := NewNovaSQL(testOptions(ResolveValues))
	defer db.Close()

	for _, tc := range []struct {
		sql  string
		want DBOutput
	}{
		{"CREATE TABLE a (x INT)", DBOutput{Complete: true}},
		{"CREATE TABLE b (x INT)", DBOutput{Complete: true}},
		{"CREATE INDEX ax ON a (x)", DBOutput{Complete: true}},
		{"BEGIN", DBOutput{Complete: true}},
		{"INSERT INTO a VALUES (1), (2), (3)", DBOutput{Complete: true, Count: 3}},
		{"UPDATE a SET x = x + 1 WHERE x > 1", DBOutput{Complete: true, Count: 2}},
		{"COMMIT", DBOutput{Complete: true}},
		{"DROP INDEX ax", DBOutput{Complete: true}},
		{"ALTER TABLE b ADD COLUMN y TEXT", DBOutput{Complete: true}},
		{"DROP TABLE a, b", DBOutput{Complete: true, Count: 2}},
	} {
		assert.Equal(t, tc.want, runOK(t, db, tc.sql), tc.sql)
	}
}

func TestNovaSQL_Expressions(t *testing.T) {
	db := NewNovaSQL(testOptions(ResolveValues))
	defer db.Close()

	assert.Equal(t, DBOutput{
		Types: []ColumnType{Integer, FloatingPoint, Text, Any},
		Rows:  [][]string{{"3", "2.5", "ab", "NULL"}},
	}, runOK(t, db, "SELECT 1 + 2, 5.0 / 2, 'a' || 'b', NULL"))
}

func TestNovaSQL_SchemalessTable(t *testing.T) {
	db := NewNovaSQL(testOptions(ResolveValues))
	defer db.Close()

	runOK(t, db, "CREATE TABLE docs")
	assert.Equal(t, uint64(2), runOK(t, db, "INSERT INTO docs (id, name) VALUES (1, 'x'), (2, 'y')").Count)

	assert.Equal(t, DBOutput{
		Types: []ColumnType{Integer, Text},
		Rows:  [][]string{{"1", "x"}, {"2", "y"}},
	}, runOK(t, db, "SELECT * FROM docs"))

	assert.Equal(t, DBOutput{Types: nil, Rows: [][]string{}},
		runOK(t, db, "SELECT * FROM docs WHERE id > 5"))
}

func TestNovaSQL_SchemaResolution(t *testing.T) {
	db := NewNovaSQL(testOptions(ResolveSchema))
	defer db.Close()

	runOK(t, db, "CREATE TABLE t (i INT, f DOUBLE, s VARCHAR(8))")
	runOK(t, db, "INSERT INTO t VALUES (NULL, NULL, NULL)")

	// declared types win over all-NULL values
	assert.Equal(t, []ColumnType{Integer, FloatingPoint, Text},
		runOK(t, db, "SELECT i, f, s FROM t").Types)

	// computed columns are not table columns
	assert.Equal(t, []ColumnType{Any}, runOK(t, db, "SELECT i + 1 FROM t").Types)

	// no FROM: falls back to values
	assert.Equal(t, []ColumnType{Integer}, runOK(t, db, "SELECT 1").Types)
}

func TestNovaSQL_SchemaResolutionWithLexicalClassifier(t *testing.T) {
	opts := testOptions(ResolveSchema)
	opts.Classifier = ClassifyLexical
	db := NewNovaSQL(opts)
	defer db.Close()

	runOK(t, db, "CREATE TABLE t (i INT, s TEXT)")
	runOK(t, db, "INSERT INTO t VALUES (NULL, NULL)")
	assert.Equal(t, []ColumnType{Integer, Text}, runOK(t, db, "SELECT i, s FROM t").Types)
}
