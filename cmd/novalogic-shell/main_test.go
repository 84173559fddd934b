package main

import (
	"bytes"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tuannm99/novalogic/internal/logictest"
)

func TestStatementComplete(t *testing.T) {
	assert.True(t, statementComplete("SELECT 1;"))
	assert.False(t, statementComplete("SELECT 1"))
	assert.False(t, statementComplete("SELECT ';'"))
	assert.True(t, statementComplete("SELECT ';' ;"))
	assert.True(t, statementComplete("SELECT 'it''s';"))
}

func TestTrimStatement(t *testing.T) {
	assert.Equal(t, "SELECT 1", trimStatement("  SELECT 1;  "))
	assert.Equal(t, "SELECT 1", trimStatement("SELECT 1"))
}

func TestPrintOutput(t *testing.T) {
	var b bytes.Buffer
	printOutput(&b, logictest.DBOutput{Complete: true, Count: 2}, true)
	assert.Equal(t, "OK (2 affected)\n", b.String())

	b.Reset()
	out := logictest.DBOutput{
		Types: []logictest.ColumnType{logictest.Integer, logictest.Text},
		Rows:  [][]string{{"1", "hello"}, {"22", "NULL"}},
	}
	printOutput(&b, out, true)
	assert.Equal(t, ""+
		"I  | T    \n"+
		"---+------\n"+
		"1  | hello\n"+
		"22 | NULL \n"+
		"(2 rows)\n", b.String())

	b.Reset()
	printOutput(&b, out, false)
	assert.Equal(t, "1  | hello\n22 | NULL \n(2 rows)\n", b.String())
}

func TestHistory(t *testing.T) {
	path := filepath.Join(t.TempDir(), "sub", "history")

	h := NewHistory(path)
	require.NoError(t, h.Load(10))
	require.NoError(t, h.Append("SELECT\n  1;"))
	require.NoError(t, h.Append("   "))
	require.NoError(t, h.Append("SELECT 2;"))

	reloaded := NewHistory(path)
	require.NoError(t, reloaded.Load(1))
	assert.Equal(t, []string{"SELECT 2;"}, reloaded.lines)

	var b bytes.Buffer
	h.Print(&b, 0)
	assert.Equal(t, "    1  SELECT 1;\n    2  SELECT 2;\n", b.String())
}
