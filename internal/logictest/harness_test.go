package logictest

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHarness(t *testing.T) {
	h := NewHarness(EngineNovaSQL, testOptions(ResolveValues))
	defer h.Close()

	assert.Equal(t, EngineNovaSQL, h.EngineStr())
	require.Error(t, h.ExecuteStatement("CREATE TABLE t (a INT)"))

	require.NoError(t, h.Init())
	require.NoError(t, h.ExecuteStatement("CREATE TABLE t (a INT, f FLOAT, s TEXT)"))
	require.NoError(t, h.ExecuteStatement("INSERT INTO t VALUES (1, 2.5, ''), (2, NULL, 'x')"))

	schema, results, err := h.ExecuteQuery("SELECT a, f, s FROM t")
	require.NoError(t, err)
	assert.Equal(t, "IRT", schema)
	assert.Equal(t, []string{"1", "2.500", "(empty)", "2", "NULL", "x"}, results)

	_, _, err = h.ExecuteQuery("INSERT INTO t VALUES (3, 1, 'y')")
	require.Error(t, err)

	// Init starts over
	require.NoError(t, h.Init())
	_, _, err = h.ExecuteQuery("SELECT a FROM t")
	require.Error(t, err)
}

func TestHarness_SQLite(t *testing.T) {
	h := NewHarness(EngineSQLite, testOptions(ResolveValues))
	defer h.Close()

	require.NoError(t, h.Init())
	require.NoError(t, h.ExecuteStatement("CREATE TABLE t (a INTEGER, b TEXT)"))
	require.NoError(t, h.ExecuteStatement("INSERT INTO t VALUES (1, 'one')"))

	schema, results, err := h.ExecuteQuery("SELECT a, b FROM t")
	require.NoError(t, err)
	assert.Equal(t, "IT", schema)
	assert.Equal(t, []string{"1", "one"}, results)
}
