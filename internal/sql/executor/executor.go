package executor

import (
	"fmt"
	"sort"
	"strings"

	"github.com/tuannm99/novalogic/internal/catalog"
	"github.com/tuannm99/novalogic/internal/payload"
	"github.com/tuannm99/novalogic/internal/record"
	"github.com/tuannm99/novalogic/internal/sql/parser"
	"github.com/tuannm99/novalogic/internal/sql/planner"
	"github.com/tuannm99/novalogic/internal/storage"
)

// Version is reported by SHOW VERSION.
const Version = "novasql 0.3.0"

// executorStore is a small seam for unit-testing Executor without a real store.
type executorStore interface {
	planner.Catalog
	TableNames() []string

	CreateTable(meta *catalog.TableMeta, ifNotExists bool) error
	DropTable(name string, ifExists bool) (bool, error)
	RenameTable(from, to string) error
	AddColumn(name string, col record.Column) error
	CreateIndex(name string, idx catalog.IndexMeta) error
	DropIndex(tableName, indexName string) error

	Rows(name string) ([][]any, error)
	Insert(name string, rows [][]any) error
	ReplaceRows(name string, rows [][]any) error
	Docs(name string) ([]storage.Doc, error)
	InsertDocs(name string, docs []storage.Doc) error
	ReplaceDocs(name string, docs []storage.Doc) error

	Begin() error
	Commit() error
	Rollback() error
}

var _ executorStore = (*storage.Store)(nil)

// Executor executes plans against a session store.
type Executor struct {
	Store executorStore
}

func NewExecutor(store executorStore) *Executor {
	return &Executor{Store: store}
}

// ExecSQL is the top-level entry: a batch of ';'-separated statements ->
// one payload per statement. Statements before a failing one stay applied.
func (e *Executor) ExecSQL(sql string) ([]payload.Payload, error) {
	stmts, err := parser.ParseAll(sql)
	if err != nil {
		return nil, err
	}

	out := make([]payload.Payload, 0, len(stmts))
	for _, stmt := range stmts {
		plan, err := planner.BuildPlan(stmt, e.Store)
		if err != nil {
			return nil, err
		}
		p, err := e.execPlan(plan)
		if err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, nil
}

func (e *Executor) execPlan(p planner.Plan) (payload.Payload, error) {
	switch plan := p.(type) {
	case *planner.CreateTablePlan:
		return e.execCreateTable(plan)
	case *planner.DropTablePlan:
		return e.execDropTable(plan)
	case *planner.AlterTablePlan:
		return e.execAlterTable(plan)
	case *planner.CreateIndexPlan:
		if err := e.Store.CreateIndex(plan.TableName, plan.Index); err != nil {
			return nil, err
		}
		return payload.CreateIndex{}, nil
	case *planner.DropIndexPlan:
		if err := e.Store.DropIndex(plan.TableName, plan.IndexName); err != nil {
			return nil, err
		}
		return payload.DropIndex{}, nil
	case *planner.DropFunctionPlan:
		// there are no user-defined functions
		if !plan.IfExists {
			return nil, catalog.ErrFunctionNotFound.New(plan.Name)
		}
		return payload.DropFunction{}, nil

	case *planner.InsertPlan:
		return e.execInsert(plan)
	case *planner.SelectPlan:
		return e.execSelect(plan)
	case *planner.UpdatePlan:
		return e.execUpdate(plan)
	case *planner.DeletePlan:
		return e.execDelete(plan)

	case *planner.BeginPlan:
		if err := e.Store.Begin(); err != nil {
			return nil, err
		}
		return payload.StartTransaction{}, nil
	case *planner.CommitPlan:
		if err := e.Store.Commit(); err != nil {
			return nil, err
		}
		return payload.Commit{}, nil
	case *planner.RollbackPlan:
		if err := e.Store.Rollback(); err != nil {
			return nil, err
		}
		return payload.Rollback{}, nil

	case *planner.ShowColumnsPlan:
		cols := make([]payload.ColumnInfo, 0, plan.Table.Schema.NumCols())
		for _, c := range plan.Table.Schema.Cols {
			cols = append(cols, payload.ColumnInfo{Name: c.Name, Type: c.Type.String()})
		}
		return payload.ShowColumns{Columns: cols}, nil
	case *planner.ShowVariablePlan:
		switch plan.Name {
		case "VERSION":
			return payload.ShowVariable{Name: plan.Name, Value: Version}, nil
		case "TABLES":
			return payload.ShowVariable{Name: plan.Name, Value: strings.Join(e.Store.TableNames(), ",")}, nil
		}
		return nil, fmt.Errorf("executor: unknown variable %s", plan.Name)

	default:
		return nil, fmt.Errorf("executor: unsupported plan type %T", p)
	}
}

func (e *Executor) execCreateTable(p *planner.CreateTablePlan) (payload.Payload, error) {
	meta := &catalog.TableMeta{
		Name:       p.TableName,
		Schema:     p.Schema,
		Schemaless: p.Schemaless,
	}
	if err := e.Store.CreateTable(meta, p.IfNotExists); err != nil {
		return nil, err
	}
	return payload.Create{}, nil
}

func (e *Executor) execDropTable(p *planner.DropTablePlan) (payload.Payload, error) {
	n := 0
	for _, name := range p.TableNames {
		dropped, err := e.Store.DropTable(name, p.IfExists)
		if err != nil {
			return nil, err
		}
		if dropped {
			n++
		}
	}
	return payload.DropTable{N: n}, nil
}

func (e *Executor) execAlterTable(p *planner.AlterTablePlan) (payload.Payload, error) {
	if p.AddColumn != nil {
		if err := e.Store.AddColumn(p.TableName, *p.AddColumn); err != nil {
			return nil, err
		}
	}
	if p.RenameTo != "" {
		if err := e.Store.RenameTable(p.TableName, p.RenameTo); err != nil {
			return nil, err
		}
	}
	return payload.AlterTable{}, nil
}

func (e *Executor) execInsert(p *planner.InsertPlan) (payload.Payload, error) {
	if p.Table.Schemaless {
		docs := make([]storage.Doc, 0, len(p.Rows))
		for _, row := range p.Rows {
			doc := make(storage.Doc, len(p.Columns))
			for i, expr := range row {
				v, err := eval(expr, noRow{})
				if err != nil {
					return nil, err
				}
				doc[p.Columns[i]] = v
			}
			docs = append(docs, doc)
		}
		if err := e.Store.InsertDocs(p.Table.Name, docs); err != nil {
			return nil, err
		}
		return payload.Insert{N: len(docs)}, nil
	}

	schema := p.Table.Schema
	rows := make([][]any, 0, len(p.Rows))
	for _, exprs := range p.Rows {
		vals := make([]any, schema.NumCols())
		for i, expr := range exprs {
			v, err := eval(expr, noRow{})
			if err != nil {
				return nil, err
			}
			pos := p.Targets[i]
			if vals[pos], err = coerceValue(schema.Cols[pos], v); err != nil {
				return nil, err
			}
		}
		if err := checkNotNull(p.Table, vals); err != nil {
			return nil, err
		}
		rows = append(rows, vals)
	}
	if err := e.Store.Insert(p.Table.Name, rows); err != nil {
		return nil, err
	}
	return payload.Insert{N: len(rows)}, nil
}

func (e *Executor) execUpdate(p *planner.UpdatePlan) (payload.Payload, error) {
	n := 0
	if p.Table.Schemaless {
		docs, err := e.Store.Docs(p.Table.Name)
		if err != nil {
			return nil, err
		}
		for i, doc := range docs {
			ok, err := matches(p.Where, docRow(doc))
			if err != nil {
				return nil, err
			}
			if !ok {
				continue
			}
			updated := make(storage.Doc, len(doc)+len(p.Assignments))
			for k, v := range doc {
				updated[k] = v
			}
			for _, a := range p.Assignments {
				v, err := eval(a.Value, docRow(doc))
				if err != nil {
					return nil, err
				}
				updated[a.Column] = v
			}
			docs[i] = updated
			n++
		}
		if err := e.Store.ReplaceDocs(p.Table.Name, docs); err != nil {
			return nil, err
		}
		return payload.Update{N: n}, nil
	}

	schema := p.Table.Schema
	names := schema.Names()
	rows, err := e.Store.Rows(p.Table.Name)
	if err != nil {
		return nil, err
	}
	for i, row := range rows {
		old := typedRow{names: names, vals: row}
		ok, err := matches(p.Where, old)
		if err != nil {
			return nil, err
		}
		if !ok {
			continue
		}
		updated := append([]any(nil), row...)
		for j, a := range p.Assignments {
			v, err := eval(a.Value, old)
			if err != nil {
				return nil, err
			}
			pos := p.Targets[j]
			if updated[pos], err = coerceValue(schema.Cols[pos], v); err != nil {
				return nil, err
			}
		}
		if err := checkNotNull(p.Table, updated); err != nil {
			return nil, err
		}
		rows[i] = updated
		n++
	}
	if err := e.Store.ReplaceRows(p.Table.Name, rows); err != nil {
		return nil, err
	}
	return payload.Update{N: n}, nil
}

func (e *Executor) execDelete(p *planner.DeletePlan) (payload.Payload, error) {
	if p.Table.Schemaless {
		docs, err := e.Store.Docs(p.Table.Name)
		if err != nil {
			return nil, err
		}
		kept := docs[:0]
		for _, doc := range docs {
			ok, err := matches(p.Where, docRow(doc))
			if err != nil {
				return nil, err
			}
			if !ok {
				kept = append(kept, doc)
			}
		}
		if err := e.Store.ReplaceDocs(p.Table.Name, kept); err != nil {
			return nil, err
		}
		return payload.Delete{N: len(docs) - len(kept)}, nil
	}

	rows, err := e.Store.Rows(p.Table.Name)
	if err != nil {
		return nil, err
	}
	names := p.Table.Schema.Names()
	total := len(rows)
	kept := rows[:0]
	for _, row := range rows {
		ok, err := matches(p.Where, typedRow{names: names, vals: row})
		if err != nil {
			return nil, err
		}
		if !ok {
			kept = append(kept, row)
		}
	}
	if err := e.Store.ReplaceRows(p.Table.Name, kept); err != nil {
		return nil, err
	}
	return payload.Delete{N: total - len(kept)}, nil
}

// coerceValue converts an evaluated value into the storage type of col.
// Integers widen into FLOAT columns and booleans narrow into INTEGER columns;
// TEXT only accepts text.
func coerceValue(col record.Column, v any) (any, error) {
	if v == nil {
		return nil, nil
	}
	switch col.Type {
	case record.ColInt64:
		switch x := v.(type) {
		case int64:
			return x, nil
		case bool:
			return boolInt(x), nil
		}
	case record.ColFloat64:
		switch x := v.(type) {
		case float64:
			return x, nil
		case int64:
			return float64(x), nil
		}
	case record.ColBool:
		switch x := v.(type) {
		case bool:
			return x, nil
		case int64:
			return x != 0, nil
		}
	case record.ColText:
		if s, ok := v.(string); ok {
			return s, nil
		}
	}
	return nil, catalog.ErrTypeMismatch.New(render(v), col.Type, col.Name)
}

func checkNotNull(meta *catalog.TableMeta, vals []any) error {
	for i, col := range meta.Schema.Cols {
		if vals[i] == nil && !col.Nullable {
			return catalog.ErrNotNull.New(meta.Name, col.Name)
		}
	}
	return nil
}

// sortRows orders rows by keys, stable so ties keep scan order.
func sortRows[T any](rows []T, keys [][]any, order []parser.OrderItem) error {
	idx := make([]int, len(rows))
	for i := range idx {
		idx[i] = i
	}

	var sortErr error
	sort.SliceStable(idx, func(a, b int) bool {
		ka, kb := keys[idx[a]], keys[idx[b]]
		for i, o := range order {
			c, err := compareNullsFirst(ka[i], kb[i])
			if err != nil {
				sortErr = err
				return false
			}
			if c == 0 {
				continue
			}
			if o.Desc {
				return c > 0
			}
			return c < 0
		}
		return false
	})
	if sortErr != nil {
		return sortErr
	}

	sorted := make([]T, len(rows))
	for i, j := range idx {
		sorted[i] = rows[j]
	}
	copy(rows, sorted)
	return nil
}
