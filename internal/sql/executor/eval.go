package executor

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/tuannm99/novalogic/internal/catalog"
	"github.com/tuannm99/novalogic/internal/sql/parser"
)

// env resolves column references for one row.
type env interface {
	lookup(name string) (any, bool)
}

type noRow struct{}

func (noRow) lookup(string) (any, bool) { return nil, false }

type typedRow struct {
	names []string
	vals  []any
}

func (r typedRow) lookup(name string) (any, bool) {
	for i, n := range r.names {
		if strings.EqualFold(n, name) {
			return r.vals[i], true
		}
	}
	return nil, false
}

// docRow reads missing keys as NULL.
type docRow map[string]any

func (d docRow) lookup(name string) (any, bool) {
	if v, ok := d[name]; ok {
		return v, true
	}
	for k, v := range d {
		if strings.EqualFold(k, name) {
			return v, true
		}
	}
	return nil, true
}

// chain tries each env in order; used to let ORDER BY see select aliases.
type chain []env

func (c chain) lookup(name string) (any, bool) {
	for _, e := range c {
		if v, ok := e.lookup(name); ok {
			return v, true
		}
	}
	return nil, false
}

func eval(e parser.Expr, row env) (any, error) {
	switch x := e.(type) {
	case *parser.LiteralExpr:
		return x.Value, nil

	case *parser.ColumnRef:
		v, ok := row.lookup(x.Name)
		if !ok {
			return nil, catalog.ErrColumnNotFound.New(x.Name)
		}
		return v, nil

	case *parser.IsNullExpr:
		v, err := eval(x.X, row)
		if err != nil {
			return nil, err
		}
		return (v == nil) != x.Not, nil

	case *parser.UnaryExpr:
		v, err := eval(x.X, row)
		if err != nil || v == nil {
			return nil, err
		}
		if x.Op == "NOT" {
			b, null, err := truth(v)
			if err != nil || null {
				return nil, err
			}
			return !b, nil
		}
		switch n := v.(type) {
		case int64:
			if n == math.MinInt64 {
				return nil, errIntegerOverflow("-", 0, n)
			}
			return -n, nil
		case float64:
			return -n, nil
		case bool:
			return -boolInt(n), nil
		}
		return nil, fmt.Errorf("executor: cannot negate %s", typeName(v))

	case *parser.BinaryExpr:
		switch x.Op {
		case "AND", "OR":
			return evalLogic(x, row)
		}
		l, err := eval(x.Left, row)
		if err != nil {
			return nil, err
		}
		r, err := eval(x.Right, row)
		if err != nil {
			return nil, err
		}
		if l == nil || r == nil {
			return nil, nil
		}
		switch x.Op {
		case "||":
			return render(l) + render(r), nil
		case "=", "<>", "<", "<=", ">", ">=":
			c, err := compare(l, r)
			if err != nil {
				return nil, err
			}
			return cmpResult(x.Op, c), nil
		default:
			return arith(x.Op, l, r)
		}
	}
	return nil, fmt.Errorf("executor: unsupported expression %T", e)
}

// evalLogic implements SQL three-valued AND/OR.
func evalLogic(x *parser.BinaryExpr, row env) (any, error) {
	lv, err := eval(x.Left, row)
	if err != nil {
		return nil, err
	}
	l, lnull, err := truth(lv)
	if err != nil {
		return nil, err
	}
	if !lnull {
		if x.Op == "AND" && !l {
			return false, nil
		}
		if x.Op == "OR" && l {
			return true, nil
		}
	}

	rv, err := eval(x.Right, row)
	if err != nil {
		return nil, err
	}
	r, rnull, err := truth(rv)
	if err != nil {
		return nil, err
	}
	if !rnull {
		if x.Op == "AND" && !r {
			return false, nil
		}
		if x.Op == "OR" && r {
			return true, nil
		}
	}
	if lnull || rnull {
		return nil, nil
	}
	return r, nil
}

// truth converts v to a boolean; null reports SQL NULL.
func truth(v any) (b bool, null bool, err error) {
	switch x := v.(type) {
	case nil:
		return false, true, nil
	case bool:
		return x, false, nil
	case int64:
		return x != 0, false, nil
	case float64:
		return x != 0, false, nil
	}
	return false, false, fmt.Errorf("executor: %s is not a boolean", typeName(v))
}

// matches reports whether a WHERE clause keeps the row. NULL filters out.
func matches(where parser.Expr, row env) (bool, error) {
	if where == nil {
		return true, nil
	}
	v, err := eval(where, row)
	if err != nil {
		return false, err
	}
	b, null, err := truth(v)
	if err != nil {
		return false, err
	}
	return b && !null, nil
}

func errIntegerOverflow(op string, l, r int64) error {
	if op == "-" && l == 0 {
		return fmt.Errorf("executor: BIGINT value is out of range in -(%d)", r)
	}
	return fmt.Errorf("executor: BIGINT value is out of range in (%d %s %d)", l, op, r)
}

func arith(op string, l, r any) (any, error) {
	if b, ok := l.(bool); ok {
		l = boolInt(b)
	}
	if b, ok := r.(bool); ok {
		r = boolInt(b)
	}

	li, lok := l.(int64)
	ri, rok := r.(int64)
	if lok && rok {
		switch op {
		case "+":
			sum := li + ri
			if (sum > li) != (ri > 0) {
				return nil, errIntegerOverflow(op, li, ri)
			}
			return sum, nil
		case "-":
			diff := li - ri
			if (diff < li) != (ri > 0) {
				return nil, errIntegerOverflow(op, li, ri)
			}
			return diff, nil
		case "*":
			prod := li * ri
			if li != 0 && (prod/li != ri || (li == -1 && ri == math.MinInt64)) {
				return nil, errIntegerOverflow(op, li, ri)
			}
			return prod, nil
		case "/":
			if ri == 0 {
				return nil, nil
			}
			if li == math.MinInt64 && ri == -1 {
				return nil, errIntegerOverflow(op, li, ri)
			}
			return li / ri, nil
		case "%":
			if ri == 0 {
				return nil, nil
			}
			return li % ri, nil
		}
		return nil, fmt.Errorf("executor: unsupported operator %s", op)
	}

	lf, lok := toFloat(l)
	rf, rok := toFloat(r)
	if !lok || !rok {
		return nil, fmt.Errorf("executor: cannot apply %s to %s and %s", op, typeName(l), typeName(r))
	}
	switch op {
	case "+":
		return lf + rf, nil
	case "-":
		return lf - rf, nil
	case "*":
		return lf * rf, nil
	case "/":
		if rf == 0 {
			return nil, nil
		}
		return lf / rf, nil
	case "%":
		if rf == 0 {
			return nil, nil
		}
		return math.Mod(lf, rf), nil
	}
	return nil, fmt.Errorf("executor: unsupported operator %s", op)
}

// compare orders two non-null values. Numbers compare across int and float.
func compare(l, r any) (int, error) {
	if b, ok := l.(bool); ok {
		l = boolInt(b)
	}
	if b, ok := r.(bool); ok {
		r = boolInt(b)
	}

	if li, ok := l.(int64); ok {
		if ri, ok := r.(int64); ok {
			return cmpOrdered(li, ri), nil
		}
	}
	if lf, ok := toFloat(l); ok {
		if rf, ok := toFloat(r); ok {
			return cmpOrdered(lf, rf), nil
		}
	}
	if ls, ok := l.(string); ok {
		if rs, ok := r.(string); ok {
			return strings.Compare(ls, rs), nil
		}
	}
	return 0, fmt.Errorf("executor: cannot compare %s with %s", typeName(l), typeName(r))
}

// compareNullsFirst is the ORDER BY ordering: NULL sorts before everything.
func compareNullsFirst(l, r any) (int, error) {
	switch {
	case l == nil && r == nil:
		return 0, nil
	case l == nil:
		return -1, nil
	case r == nil:
		return 1, nil
	}
	return compare(l, r)
}

func cmpOrdered[T int64 | float64](a, b T) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	}
	return 0
}

func cmpResult(op string, c int) bool {
	switch op {
	case "=":
		return c == 0
	case "<>":
		return c != 0
	case "<":
		return c < 0
	case "<=":
		return c <= 0
	case ">":
		return c > 0
	default:
		return c >= 0
	}
}

func toFloat(v any) (float64, bool) {
	switch x := v.(type) {
	case int64:
		return float64(x), true
	case float64:
		return x, true
	}
	return 0, false
}

func boolInt(b bool) int64 {
	if b {
		return 1
	}
	return 0
}

func render(v any) string {
	switch x := v.(type) {
	case string:
		return x
	case int64:
		return strconv.FormatInt(x, 10)
	case float64:
		return strconv.FormatFloat(x, 'f', -1, 64)
	case bool:
		return strconv.FormatInt(boolInt(x), 10)
	}
	return fmt.Sprint(v)
}

func typeName(v any) string {
	switch v.(type) {
	case nil:
		return "NULL"
	case int64:
		return "INTEGER"
	case float64:
		return "FLOAT"
	case string:
		return "TEXT"
	case bool:
		return "BOOLEAN"
	}
	return fmt.Sprintf("%T", v)
}

// exprLabel renders an expression as a result column label.
func exprLabel(e parser.Expr) string {
	switch x := e.(type) {
	case *parser.LiteralExpr:
		switch v := x.Value.(type) {
		case nil:
			return "NULL"
		case string:
			return "'" + strings.ReplaceAll(v, "'", "''") + "'"
		case bool:
			if v {
				return "TRUE"
			}
			return "FALSE"
		}
		return render(x.Value)
	case *parser.ColumnRef:
		return x.Name
	case *parser.UnaryExpr:
		if x.Op == "NOT" {
			return "NOT " + exprLabel(x.X)
		}
		return x.Op + exprLabel(x.X)
	case *parser.IsNullExpr:
		if x.Not {
			return exprLabel(x.X) + " IS NOT NULL"
		}
		return exprLabel(x.X) + " IS NULL"
	case *parser.BinaryExpr:
		return exprLabel(x.Left) + " " + x.Op + " " + exprLabel(x.Right)
	}
	return "?"
}
