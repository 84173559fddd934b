package planner

import (
	"fmt"
	"strings"

	"github.com/tuannm99/novalogic/internal/catalog"
	"github.com/tuannm99/novalogic/internal/record"
	"github.com/tuannm99/novalogic/internal/sql/parser"
)

// Catalog resolves table metadata for DML planning.
type Catalog interface {
	Table(name string) (*catalog.TableMeta, bool)
}

// BuildPlan builds a physical plan from an AST Statement. DDL and
// transaction statements do not touch cat, so it may be nil for them.
func BuildPlan(stmt parser.Statement, cat Catalog) (Plan, error) {
	switch s := stmt.(type) {
	case *parser.CreateTableStmt:
		return buildCreateTablePlan(s)
	case *parser.DropTableStmt:
		return &DropTablePlan{TableNames: s.TableNames, IfExists: s.IfExists}, nil
	case *parser.AlterTableStmt:
		return buildAlterTablePlan(s)
	case *parser.CreateIndexStmt:
		return &CreateIndexPlan{
			TableName: s.TableName,
			Index:     catalog.IndexMeta{Name: s.IndexName, KeyColumn: s.Column},
		}, nil
	case *parser.DropIndexStmt:
		return &DropIndexPlan{TableName: s.TableName, IndexName: s.IndexName}, nil
	case *parser.DropFunctionStmt:
		return &DropFunctionPlan{Name: s.Name, IfExists: s.IfExists}, nil
	case *parser.BeginStmt:
		return &BeginPlan{}, nil
	case *parser.CommitStmt:
		return &CommitPlan{}, nil
	case *parser.RollbackStmt:
		return &RollbackPlan{}, nil
	case *parser.ShowVariableStmt:
		return &ShowVariablePlan{Name: s.Name}, nil
	}

	if cat == nil {
		return nil, fmt.Errorf("planner: %T needs a catalog", stmt)
	}

	switch s := stmt.(type) {
	case *parser.InsertStmt:
		return buildInsertPlan(s, cat)
	case *parser.SelectStmt:
		return buildSelectPlan(s, cat)
	case *parser.UpdateStmt:
		return buildUpdatePlan(s, cat)
	case *parser.DeleteStmt:
		meta, err := lookup(cat, s.TableName)
		if err != nil {
			return nil, err
		}
		if err := checkColumns(meta, nil, s.Where); err != nil {
			return nil, err
		}
		return &DeletePlan{Table: meta, Where: s.Where}, nil
	case *parser.ShowColumnsStmt:
		meta, err := lookup(cat, s.TableName)
		if err != nil {
			return nil, err
		}
		return &ShowColumnsPlan{Table: meta}, nil
	default:
		return nil, fmt.Errorf("planner: unsupported statement type %T", stmt)
	}
}

func lookup(cat Catalog, name string) (*catalog.TableMeta, error) {
	meta, ok := cat.Table(name)
	if !ok {
		return nil, catalog.ErrTableNotFound.New(name)
	}
	return meta, nil
}

func buildCreateTablePlan(s *parser.CreateTableStmt) (Plan, error) {
	var cols []record.Column
	for _, c := range s.Columns {
		col, err := columnFromDef(c)
		if err != nil {
			return nil, err
		}
		for _, prev := range cols {
			if strings.EqualFold(prev.Name, col.Name) {
				return nil, catalog.ErrColumnExists.New(col.Name)
			}
		}
		cols = append(cols, col)
	}
	return &CreateTablePlan{
		TableName:   s.TableName,
		Schema:      record.Schema{Cols: cols},
		Schemaless:  len(cols) == 0,
		IfNotExists: s.IfNotExists,
	}, nil
}

func buildAlterTablePlan(s *parser.AlterTableStmt) (Plan, error) {
	p := &AlterTablePlan{TableName: s.TableName, RenameTo: s.RenameTo}
	if s.AddColumn != nil {
		col, err := columnFromDef(*s.AddColumn)
		if err != nil {
			return nil, err
		}
		// existing rows get NULL for the new column
		col.Nullable = true
		p.AddColumn = &col
	}
	return p, nil
}

func columnFromDef(c parser.ColumnDef) (record.Column, error) {
	colType, err := mapSQLType(c.Type)
	if err != nil {
		return record.Column{}, err
	}
	return record.Column{
		Name:     c.Name,
		Type:     colType,
		Nullable: !c.NotNull,
	}, nil
}

func buildInsertPlan(s *parser.InsertStmt, cat Catalog) (Plan, error) {
	meta, err := lookup(cat, s.TableName)
	if err != nil {
		return nil, err
	}

	p := &InsertPlan{Table: meta, Columns: s.Columns, Rows: s.Rows}
	if meta.Schemaless {
		if len(s.Columns) == 0 {
			return nil, fmt.Errorf("planner: INSERT into schemaless table %s needs a column list", meta.Name)
		}
	} else if len(s.Columns) == 0 {
		p.Targets = make([]int, meta.Schema.NumCols())
		for i := range p.Targets {
			p.Targets[i] = i
		}
	} else {
		p.Targets, err = positions(meta, s.Columns)
		if err != nil {
			return nil, err
		}
	}

	want := len(p.Targets)
	if meta.Schemaless {
		want = len(p.Columns)
	}
	for _, row := range s.Rows {
		if len(row) != want {
			return nil, catalog.ErrColumnCount.New(meta.Name, want, len(row))
		}
		if err := checkColumns(meta, nil, row...); err != nil {
			return nil, err
		}
	}
	return p, nil
}

func buildSelectPlan(s *parser.SelectStmt, cat Catalog) (Plan, error) {
	p := &SelectPlan{Items: s.Items, Where: s.Where, OrderBy: s.OrderBy, Limit: s.Limit}
	if s.TableName != "" {
		meta, err := lookup(cat, s.TableName)
		if err != nil {
			return nil, err
		}
		p.Table = meta
	}

	var aliases []string
	for _, it := range s.Items {
		if it.Star {
			if p.Table == nil {
				return nil, fmt.Errorf("planner: SELECT * needs a FROM clause")
			}
			continue
		}
		if err := checkColumns(p.Table, nil, it.Expr); err != nil {
			return nil, err
		}
		if it.Alias != "" {
			aliases = append(aliases, it.Alias)
		}
	}
	if err := checkColumns(p.Table, nil, s.Where); err != nil {
		return nil, err
	}
	for _, o := range s.OrderBy {
		if err := checkColumns(p.Table, aliases, o.Expr); err != nil {
			return nil, err
		}
	}
	return p, nil
}

func buildUpdatePlan(s *parser.UpdateStmt, cat Catalog) (Plan, error) {
	meta, err := lookup(cat, s.TableName)
	if err != nil {
		return nil, err
	}

	p := &UpdatePlan{Table: meta, Assignments: s.Assignments, Where: s.Where}
	if !meta.Schemaless {
		names := make([]string, len(s.Assignments))
		for i, a := range s.Assignments {
			names[i] = a.Column
		}
		if p.Targets, err = positions(meta, names); err != nil {
			return nil, err
		}
	}
	for _, a := range s.Assignments {
		if err := checkColumns(meta, nil, a.Value); err != nil {
			return nil, err
		}
	}
	if err := checkColumns(meta, nil, s.Where); err != nil {
		return nil, err
	}
	return p, nil
}

func positions(meta *catalog.TableMeta, names []string) ([]int, error) {
	out := make([]int, len(names))
	for i, n := range names {
		pos := meta.Schema.ColPos(n)
		if pos < 0 {
			return nil, catalog.ErrColumnNotFound.New(n)
		}
		out[i] = pos
	}
	return out, nil
}

// checkColumns verifies that every column reference resolves. Schemaless
// tables accept any name; missing document keys read as NULL.
func checkColumns(meta *catalog.TableMeta, extra []string, exprs ...parser.Expr) error {
	for _, e := range exprs {
		var err error
		walkExpr(e, func(ref *parser.ColumnRef) {
			if err != nil {
				return
			}
			if meta != nil && (meta.Schemaless || meta.Schema.ColPos(ref.Name) >= 0) {
				return
			}
			for _, a := range extra {
				if strings.EqualFold(a, ref.Name) {
					return
				}
			}
			err = catalog.ErrColumnNotFound.New(ref.Name)
		})
		if err != nil {
			return err
		}
	}
	return nil
}

func walkExpr(e parser.Expr, fn func(*parser.ColumnRef)) {
	switch x := e.(type) {
	case *parser.ColumnRef:
		fn(x)
	case *parser.BinaryExpr:
		walkExpr(x.Left, fn)
		walkExpr(x.Right, fn)
	case *parser.UnaryExpr:
		walkExpr(x.X, fn)
	case *parser.IsNullExpr:
		walkExpr(x.X, fn)
	}
}

func mapSQLType(t string) (record.ColumnType, error) {
	switch strings.ToUpper(t) {
	case "INT", "INTEGER", "BIGINT", "SMALLINT", "TINYINT":
		return record.ColInt64, nil
	case "FLOAT", "REAL", "DOUBLE", "DECIMAL", "NUMERIC":
		return record.ColFloat64, nil
	case "TEXT", "VARCHAR", "CHAR", "STRING":
		return record.ColText, nil
	case "BOOL", "BOOLEAN":
		return record.ColBool, nil
	default:
		return 0, catalog.ErrUnsupportedType.New(t)
	}
}
