package record

import "strings"

type ColumnType uint8

const (
	ColInt64 ColumnType = iota
	ColBool
	ColFloat64
	ColText // UTF-8
)

// String returns the declared type name reported by SHOW COLUMNS.
func (t ColumnType) String() string {
	switch t {
	case ColInt64:
		return "INTEGER"
	case ColBool:
		return "BOOLEAN"
	case ColFloat64:
		return "FLOAT"
	case ColText:
		return "TEXT"
	default:
		return "UNKNOWN"
	}
}

type Column struct {
	Name     string     `json:"name"`
	Type     ColumnType `json:"type"`
	Nullable bool       `json:"nullable"`
}

type Schema struct {
	Cols []Column `json:"cols"`
}

func (s Schema) NumCols() int { return len(s.Cols) }

// ColPos returns the position of the named column or -1. Names compare
// case-insensitively.
func (s Schema) ColPos(name string) int {
	for i := range s.Cols {
		if strings.EqualFold(s.Cols[i].Name, name) {
			return i
		}
	}
	return -1
}

// Names returns the column names in schema order.
func (s Schema) Names() []string {
	out := make([]string, len(s.Cols))
	for i, c := range s.Cols {
		out[i] = c.Name
	}
	return out
}

// WithColumn returns a copy of s with col appended.
func (s Schema) WithColumn(col Column) Schema {
	cols := make([]Column, 0, len(s.Cols)+1)
	cols = append(cols, s.Cols...)
	cols = append(cols, col)
	return Schema{Cols: cols}
}
