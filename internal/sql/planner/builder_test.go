package planner

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/tuannm99/novalogic/internal/catalog"
	"github.com/tuannm99/novalogic/internal/record"
	"github.com/tuannm99/novalogic/internal/sql/parser"
)

type fakeCatalog map[string]*catalog.TableMeta

func (f fakeCatalog) Table(name string) (*catalog.TableMeta, bool) {
	m, ok := f[strings.ToLower(name)]
	return m, ok
}

func testCatalog() fakeCatalog {
	return fakeCatalog{
		"foo": {
			Name: "Foo",
			Schema: record.Schema{Cols: []record.Column{
				{Name: "a", Type: record.ColInt64, Nullable: true},
				{Name: "b", Type: record.ColText, Nullable: true},
			}},
		},
		"docs": {Name: "docs", Schemaless: true},
	}
}

func mustParse(t *testing.T, sql string) parser.Statement {
	t.Helper()
	stmt, err := parser.Parse(sql)
	require.NoError(t, err)
	return stmt
}

func TestBuildPlan_CreateTable_NoCatalogNeeded(t *testing.T) {
	stmt := &parser.CreateTableStmt{
		TableName: "users",
		Columns: []parser.ColumnDef{
			{Name: "id", Type: "BIGINT", NotNull: true},
			{Name: "name", Type: "varchar"},
			{Name: "active", Type: "BOOL"},
			{Name: "score", Type: "REAL"},
		},
	}

	p, err := BuildPlan(stmt, nil)
	require.NoError(t, err)

	plan, ok := p.(*CreateTablePlan)
	require.True(t, ok)
	require.Equal(t, "users", plan.TableName)
	require.False(t, plan.Schemaless)

	require.Len(t, plan.Schema.Cols, 4)
	require.Equal(t, record.ColInt64, plan.Schema.Cols[0].Type)
	require.False(t, plan.Schema.Cols[0].Nullable)
	require.Equal(t, record.ColText, plan.Schema.Cols[1].Type)
	require.True(t, plan.Schema.Cols[1].Nullable)
	require.Equal(t, record.ColBool, plan.Schema.Cols[2].Type)
	require.Equal(t, record.ColFloat64, plan.Schema.Cols[3].Type)
}

func TestBuildPlan_CreateTable_Schemaless(t *testing.T) {
	p, err := BuildPlan(mustParse(t, "CREATE TABLE docs"), nil)
	require.NoError(t, err)
	require.True(t, p.(*CreateTablePlan).Schemaless)
}

func TestBuildPlan_CreateTable_Errors(t *testing.T) {
	_, err := BuildPlan(mustParse(t, "CREATE TABLE t (a BLOB)"), nil)
	require.True(t, catalog.ErrUnsupportedType.Is(err))

	_, err = BuildPlan(mustParse(t, "CREATE TABLE t (a INT, A TEXT)"), nil)
	require.True(t, catalog.ErrColumnExists.Is(err))
}

func TestBuildPlan_AlterAddColumnIsNullable(t *testing.T) {
	p, err := BuildPlan(mustParse(t, "ALTER TABLE Foo ADD COLUMN c INT NOT NULL"), nil)
	require.NoError(t, err)
	plan := p.(*AlterTablePlan)
	require.NotNil(t, plan.AddColumn)
	require.True(t, plan.AddColumn.Nullable)
}

func TestBuildPlan_DMLNeedsCatalog(t *testing.T) {
	_, err := BuildPlan(mustParse(t, "SELECT * FROM Foo"), nil)
	require.Error(t, err)
}

func TestBuildPlan_Insert(t *testing.T) {
	cat := testCatalog()

	p, err := BuildPlan(mustParse(t, "INSERT INTO Foo VALUES (1, 'a')"), cat)
	require.NoError(t, err)
	require.Equal(t, []int{0, 1}, p.(*InsertPlan).Targets)

	p, err = BuildPlan(mustParse(t, "INSERT INTO Foo (B, a) VALUES ('a', 1)"), cat)
	require.NoError(t, err)
	require.Equal(t, []int{1, 0}, p.(*InsertPlan).Targets)

	_, err = BuildPlan(mustParse(t, "INSERT INTO Foo VALUES (1)"), cat)
	require.True(t, catalog.ErrColumnCount.Is(err))

	_, err = BuildPlan(mustParse(t, "INSERT INTO Foo (z) VALUES (1)"), cat)
	require.True(t, catalog.ErrColumnNotFound.Is(err))

	_, err = BuildPlan(mustParse(t, "INSERT INTO Missing VALUES (1)"), cat)
	require.True(t, catalog.ErrTableNotFound.Is(err))

	p, err = BuildPlan(mustParse(t, "INSERT INTO docs (x, y) VALUES (1, 'a')"), cat)
	require.NoError(t, err)
	require.Nil(t, p.(*InsertPlan).Targets)

	_, err = BuildPlan(mustParse(t, "INSERT INTO docs VALUES (1)"), cat)
	require.Error(t, err)
}

func TestBuildPlan_Select(t *testing.T) {
	cat := testCatalog()

	p, err := BuildPlan(mustParse(t, "SELECT a AS x FROM Foo WHERE b IS NULL ORDER BY x"), cat)
	require.NoError(t, err)
	plan := p.(*SelectPlan)
	require.Equal(t, "Foo", plan.Table.Name)

	_, err = BuildPlan(mustParse(t, "SELECT nope FROM Foo"), cat)
	require.True(t, catalog.ErrColumnNotFound.Is(err))

	// no FROM: constants only
	p, err = BuildPlan(mustParse(t, "SELECT 1 + 1"), cat)
	require.NoError(t, err)
	require.Nil(t, p.(*SelectPlan).Table)

	_, err = BuildPlan(mustParse(t, "SELECT a"), cat)
	require.True(t, catalog.ErrColumnNotFound.Is(err))

	// schemaless tables accept any key
	_, err = BuildPlan(mustParse(t, "SELECT anything FROM docs"), cat)
	require.NoError(t, err)
}

func TestBuildPlan_UpdateDeleteShow(t *testing.T) {
	cat := testCatalog()

	p, err := BuildPlan(mustParse(t, "UPDATE Foo SET b = 'z' WHERE a = 1"), cat)
	require.NoError(t, err)
	require.Equal(t, []int{1}, p.(*UpdatePlan).Targets)

	_, err = BuildPlan(mustParse(t, "UPDATE Foo SET c = 1"), cat)
	require.True(t, catalog.ErrColumnNotFound.Is(err))

	p, err = BuildPlan(mustParse(t, "DELETE FROM Foo WHERE a = 10"), cat)
	require.NoError(t, err)
	require.IsType(t, &DeletePlan{}, p)

	p, err = BuildPlan(mustParse(t, "SHOW COLUMNS FROM foo"), cat)
	require.NoError(t, err)
	require.Equal(t, "Foo", p.(*ShowColumnsPlan).Table.Name)
}
