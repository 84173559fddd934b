package executor

import (
	"fmt"

	"github.com/tuannm99/novalogic/internal/payload"
	"github.com/tuannm99/novalogic/internal/sql/planner"
	"github.com/tuannm99/novalogic/internal/storage"
)

func (e *Executor) execSelect(p *planner.SelectPlan) (payload.Payload, error) {
	if p.Table != nil && p.Table.Schemaless {
		return e.execSelectDocs(p)
	}

	var (
		names  []string
		source [][]any
	)
	if p.Table == nil {
		source = [][]any{nil}
	} else {
		names = p.Table.Schema.Names()
		rows, err := e.Store.Rows(p.Table.Name)
		if err != nil {
			return nil, err
		}
		source = rows
	}

	var labels []string
	for _, it := range p.Items {
		switch {
		case it.Star:
			labels = append(labels, names...)
		case it.Alias != "":
			labels = append(labels, it.Alias)
		default:
			labels = append(labels, exprLabel(it.Expr))
		}
	}

	var (
		out  [][]payload.Value
		keys [][]any
	)
	for _, vals := range source {
		row := typedRow{names: names, vals: vals}
		ok, err := matches(p.Where, row)
		if err != nil {
			return nil, err
		}
		if !ok {
			continue
		}

		projected := make([]payload.Value, 0, len(labels))
		for _, it := range p.Items {
			if it.Star {
				projected = append(projected, vals...)
				continue
			}
			v, err := eval(it.Expr, row)
			if err != nil {
				return nil, err
			}
			projected = append(projected, v)
		}

		if len(p.OrderBy) > 0 {
			k, err := orderKeys(p, chain{typedRow{names: labels, vals: projected}, row})
			if err != nil {
				return nil, err
			}
			keys = append(keys, k)
		}
		out = append(out, projected)
	}

	if len(p.OrderBy) > 0 {
		if err := sortRows(out, keys, p.OrderBy); err != nil {
			return nil, err
		}
	}
	return payload.Select{Labels: labels, Rows: applyLimit(out, p.Limit)}, nil
}

// execSelectDocs serves SELECT on schemaless tables. A lone * returns the
// documents themselves; any other projection returns labelled rows.
func (e *Executor) execSelectDocs(p *planner.SelectPlan) (payload.Payload, error) {
	docs, err := e.Store.Docs(p.Table.Name)
	if err != nil {
		return nil, err
	}

	starOnly := len(p.Items) == 1 && p.Items[0].Star
	if !starOnly {
		for _, it := range p.Items {
			if it.Star {
				return nil, fmt.Errorf("executor: * must be the only select item on schemaless table %s", p.Table.Name)
			}
		}
	}

	var (
		kept []storage.Doc
		keys [][]any
	)
	for _, doc := range docs {
		ok, err := matches(p.Where, docRow(doc))
		if err != nil {
			return nil, err
		}
		if !ok {
			continue
		}
		if len(p.OrderBy) > 0 {
			k, err := orderKeys(p, docRow(doc))
			if err != nil {
				return nil, err
			}
			keys = append(keys, k)
		}
		kept = append(kept, doc)
	}

	if len(p.OrderBy) > 0 {
		if err := sortRows(kept, keys, p.OrderBy); err != nil {
			return nil, err
		}
	}
	kept = applyLimit(kept, p.Limit)

	if starOnly {
		rows := make([]map[string]payload.Value, len(kept))
		for i, d := range kept {
			rows[i] = d
		}
		return payload.SelectMap{Rows: rows}, nil
	}

	labels := make([]string, len(p.Items))
	for i, it := range p.Items {
		labels[i] = it.Alias
		if labels[i] == "" {
			labels[i] = exprLabel(it.Expr)
		}
	}
	out := make([][]payload.Value, 0, len(kept))
	for _, d := range kept {
		projected := make([]payload.Value, len(p.Items))
		for i, it := range p.Items {
			if projected[i], err = eval(it.Expr, docRow(d)); err != nil {
				return nil, err
			}
		}
		out = append(out, projected)
	}
	return payload.Select{Labels: labels, Rows: out}, nil
}

func orderKeys(p *planner.SelectPlan, row env) ([]any, error) {
	k := make([]any, len(p.OrderBy))
	for i, o := range p.OrderBy {
		v, err := eval(o.Expr, row)
		if err != nil {
			return nil, err
		}
		k[i] = v
	}
	return k, nil
}

func applyLimit[T any](rows []T, limit *int64) []T {
	if limit != nil && int64(len(rows)) > *limit {
		return rows[:*limit]
	}
	return rows
}
