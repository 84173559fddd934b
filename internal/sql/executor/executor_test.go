package executor

import (
	"math"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/tuannm99/novalogic/internal/catalog"
	"github.com/tuannm99/novalogic/internal/payload"
	"github.com/tuannm99/novalogic/internal/storage"
)

func newTestExecutor(t *testing.T, setup ...string) *Executor {
	t.Helper()
	ex := NewExecutor(storage.NewStore())
	for _, sql := range setup {
		_, err := ex.ExecSQL(sql)
		require.NoError(t, err, sql)
	}
	return ex
}

func execOne(t *testing.T, ex *Executor, sql string) payload.Payload {
	t.Helper()
	out, err := ex.ExecSQL(sql)
	require.NoError(t, err, sql)
	require.Len(t, out, 1)
	return out[0]
}

func TestExecutor_InsertUpdateDeleteCounts(t *testing.T) {
	ex := newTestExecutor(t, "CREATE TABLE Foo (a INTEGER, b TEXT)")

	require.Equal(t, payload.Insert{N: 1}, execOne(t, ex, "INSERT INTO Foo VALUES (1, 'a')"))
	require.Equal(t, payload.Insert{N: 2}, execOne(t, ex, "INSERT INTO Foo VALUES (2, 'b'), (3, 'c')"))

	require.Equal(t, payload.Select{
		Labels: []string{"a", "b"},
		Rows:   [][]payload.Value{{int64(1), "a"}, {int64(2), "b"}, {int64(3), "c"}},
	}, execOne(t, ex, "SELECT * FROM Foo"))

	require.Equal(t, payload.Update{N: 1}, execOne(t, ex, "UPDATE Foo SET a = 10 WHERE a = 1"))
	require.Equal(t, payload.Delete{N: 1}, execOne(t, ex, "DELETE FROM Foo WHERE a = 10"))

	require.Equal(t, payload.Select{
		Labels: []string{"a", "b"},
		Rows:   [][]payload.Value{{int64(2), "b"}, {int64(3), "c"}},
	}, execOne(t, ex, "SELECT * FROM Foo"))
}

func TestExecutor_WhereThreeValued(t *testing.T) {
	ex := newTestExecutor(t,
		"CREATE TABLE t (a INT, b INT)",
		"INSERT INTO t VALUES (1, NULL), (2, 5), (NULL, 7)",
	)

	p := execOne(t, ex, "SELECT a FROM t WHERE b > 1")
	require.Equal(t, [][]payload.Value{{int64(2)}, {nil}}, p.(payload.Select).Rows)

	p = execOne(t, ex, "SELECT a FROM t WHERE NOT b = 5")
	require.Equal(t, [][]payload.Value{{nil}}, p.(payload.Select).Rows)

	p = execOne(t, ex, "SELECT a FROM t WHERE b IS NULL OR a = 2")
	require.Equal(t, [][]payload.Value{{int64(1)}, {int64(2)}}, p.(payload.Select).Rows)
}

func TestExecutor_ProjectionOrderLimit(t *testing.T) {
	ex := newTestExecutor(t,
		"CREATE TABLE t (a INT, f FLOAT, s TEXT)",
		"INSERT INTO t VALUES (3, 1.5, 'x'), (1, 2, 'y'), (NULL, 0.25, 'z')",
	)

	p := execOne(t, ex, "SELECT a * 2 AS d, f + a, s || '!' FROM t ORDER BY d DESC LIMIT 2")
	sel := p.(payload.Select)
	require.Equal(t, []string{"d", "f + a", "s || '!'"}, sel.Labels)
	require.Equal(t, [][]payload.Value{
		{int64(6), 4.5, "x!"},
		{int64(2), 3.0, "y!"},
	}, sel.Rows)

	// NULL sorts first ascending
	p = execOne(t, ex, "SELECT a FROM t ORDER BY a")
	require.Equal(t, [][]payload.Value{{nil}, {int64(1)}, {int64(3)}}, p.(payload.Select).Rows)
}

func TestExecutor_SelectWithoutFrom(t *testing.T) {
	ex := newTestExecutor(t)
	p := execOne(t, ex, "SELECT 1, 7 / 2, 7.0 / 2, 1 / 0, TRUE, 'a' || 1")
	require.Equal(t, payload.Select{
		Labels: []string{"1", "7 / 2", "7 / 2", "1 / 0", "TRUE", "'a' || 1"},
		Rows:   [][]payload.Value{{int64(1), int64(3), 3.5, nil, true, "a1"}},
	}, p)
}

func TestExecutor_IntegerOverflow(t *testing.T) {
	ex := newTestExecutor(t)
	for _, sql := range []string{
		"SELECT 9223372036854775807 + 1",
		"SELECT -9223372036854775808 - 1",
		"SELECT 4611686018427387904 * 2",
		"SELECT -1 * -9223372036854775808",
		"SELECT -9223372036854775808 / -1",
		"SELECT -(-9223372036854775808)",
	} {
		_, err := ex.ExecSQL(sql)
		require.Error(t, err, sql)
		require.Contains(t, err.Error(), "out of range", sql)
	}

	p := execOne(t, ex, "SELECT -9223372036854775808, 9223372036854775806 + 1, -4611686018427387904 * 2")
	require.Equal(t, [][]payload.Value{{int64(math.MinInt64), int64(math.MaxInt64), int64(math.MinInt64)}},
		p.(payload.Select).Rows)
}

func TestExecutor_Coercion(t *testing.T) {
	ex := newTestExecutor(t, "CREATE TABLE t (i INT, f FLOAT, b BOOL, s TEXT NOT NULL)")

	execOne(t, ex, "INSERT INTO t VALUES (TRUE, 2, 1, 'x')")
	p := execOne(t, ex, "SELECT * FROM t")
	require.Equal(t, [][]payload.Value{{int64(1), 2.0, true, "x"}}, p.(payload.Select).Rows)

	_, err := ex.ExecSQL("INSERT INTO t VALUES (1.5, 1, TRUE, 'x')")
	require.True(t, catalog.ErrTypeMismatch.Is(err))

	_, err = ex.ExecSQL("INSERT INTO t VALUES (1, 1, TRUE, 5)")
	require.True(t, catalog.ErrTypeMismatch.Is(err))

	_, err = ex.ExecSQL("INSERT INTO t (i) VALUES (1)")
	require.True(t, catalog.ErrNotNull.Is(err))

	_, err = ex.ExecSQL("UPDATE t SET s = NULL")
	require.True(t, catalog.ErrNotNull.Is(err))
}

func TestExecutor_DDLPayloads(t *testing.T) {
	ex := newTestExecutor(t)

	require.Equal(t, payload.Create{}, execOne(t, ex, "CREATE TABLE a (x INT)"))
	require.Equal(t, payload.CreateIndex{}, execOne(t, ex, "CREATE INDEX ix ON a (x)"))
	require.Equal(t, payload.DropIndex{}, execOne(t, ex, "DROP INDEX ix"))
	require.Equal(t, payload.AlterTable{}, execOne(t, ex, "ALTER TABLE a ADD COLUMN y TEXT"))
	require.Equal(t, payload.AlterTable{}, execOne(t, ex, "ALTER TABLE a RENAME TO b"))
	require.Equal(t, payload.ShowColumns{Columns: []payload.ColumnInfo{
		{Name: "x", Type: "INTEGER"},
		{Name: "y", Type: "TEXT"},
	}}, execOne(t, ex, "SHOW COLUMNS FROM b"))
	require.Equal(t, payload.ShowVariable{Name: "TABLES", Value: "b"}, execOne(t, ex, "SHOW TABLES"))
	require.Equal(t, payload.DropTable{N: 1}, execOne(t, ex, "DROP TABLE IF EXISTS b, missing"))
	require.Equal(t, payload.DropFunction{}, execOne(t, ex, "DROP FUNCTION IF EXISTS f"))

	_, err := ex.ExecSQL("DROP FUNCTION f")
	require.True(t, catalog.ErrFunctionNotFound.Is(err))

	v := execOne(t, ex, "SHOW VERSION").(payload.ShowVariable)
	require.Equal(t, Version, v.Value)
}

func TestExecutor_Transactions(t *testing.T) {
	ex := newTestExecutor(t, "CREATE TABLE t (a INT)")

	require.Equal(t, payload.StartTransaction{}, execOne(t, ex, "BEGIN"))
	execOne(t, ex, "INSERT INTO t VALUES (1)")
	require.Equal(t, payload.Rollback{}, execOne(t, ex, "ROLLBACK"))

	p := execOne(t, ex, "SELECT * FROM t")
	require.Empty(t, p.(payload.Select).Rows)

	execOne(t, ex, "START TRANSACTION")
	execOne(t, ex, "INSERT INTO t VALUES (2)")
	require.Equal(t, payload.Commit{}, execOne(t, ex, "COMMIT"))

	p = execOne(t, ex, "SELECT * FROM t")
	require.Equal(t, [][]payload.Value{{int64(2)}}, p.(payload.Select).Rows)

	_, err := ex.ExecSQL("COMMIT")
	require.True(t, catalog.ErrNoTransaction.Is(err))
}

func TestExecutor_Schemaless(t *testing.T) {
	ex := newTestExecutor(t,
		"CREATE TABLE docs",
		"INSERT INTO docs (k, v) VALUES (1, 'a'), (2, 'b')",
		"INSERT INTO docs (k, w) VALUES (3, 2.5)",
	)

	p := execOne(t, ex, "SELECT * FROM docs WHERE k >= 2 ORDER BY k DESC")
	require.Equal(t, payload.SelectMap{Rows: []map[string]payload.Value{
		{"k": int64(3), "w": 2.5},
		{"k": int64(2), "v": "b"},
	}}, p)

	p = execOne(t, ex, "SELECT k, v FROM docs")
	require.Equal(t, payload.Select{
		Labels: []string{"k", "v"},
		Rows:   [][]payload.Value{{int64(1), "a"}, {int64(2), "b"}, {int64(3), nil}},
	}, p)

	require.Equal(t, payload.Update{N: 1}, execOne(t, ex, "UPDATE docs SET v = 'z' WHERE k = 3"))
	require.Equal(t, payload.Delete{N: 2}, execOne(t, ex, "DELETE FROM docs WHERE k < 3"))

	p = execOne(t, ex, "SELECT * FROM docs")
	require.Equal(t, payload.SelectMap{Rows: []map[string]payload.Value{
		{"k": int64(3), "w": 2.5, "v": "z"},
	}}, p)
}

func TestExecutor_Batch(t *testing.T) {
	ex := newTestExecutor(t)
	out, err := ex.ExecSQL("CREATE TABLE t (a INT); INSERT INTO t VALUES (1); SELECT a FROM t")
	require.NoError(t, err)
	require.Len(t, out, 3)
	require.Equal(t, payload.Insert{N: 1}, out[1])

	_, err = ex.ExecSQL("SELECT * FROM missing")
	require.True(t, catalog.ErrTableNotFound.Is(err))
}
