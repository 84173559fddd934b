package logictest

import (
	"fmt"
	"strconv"

	"github.com/tuannm99/novalogic/internal/payload"
)

// NullText is how NULL cells are displayed.
const NullText = "NULL"

// Row is one result row of display strings.
type Row []string

// QueryResult is the outcome of one statement: Rows or Effect.
type QueryResult interface {
	queryResult()
}

// Rows is a row-producing outcome. Every row has len(Types) cells.
type Rows struct {
	Types []ColumnType
	Rows  []Row
}

// Effect is a modification outcome. Affected is 0 when the engine does not
// report a count.
type Effect struct {
	Affected uint64
}

func (Rows) queryResult()   {}
func (Effect) queryResult() {}

// DBOutput is what the script runner compares against expectations. A
// completed statement has Complete set and carries Count; a query carries
// Types and Rows.
type DBOutput struct {
	Complete bool
	Count    uint64
	Types    []ColumnType
	Rows     [][]string
}

// ToRunnerOutput converts a QueryResult for the runner. It is total.
func ToRunnerOutput(r QueryResult) DBOutput {
	switch r := r.(type) {
	case Effect:
		return DBOutput{Complete: true, Count: r.Affected}
	case Rows:
		rows := make([][]string, len(r.Rows))
		for i, row := range r.Rows {
			rows[i] = []string(row)
		}
		return DBOutput{Types: r.Types, Rows: rows}
	}
	return DBOutput{Complete: true}
}

// RenderCell returns the display string of an engine value: integers and
// booleans as decimal text, floats in shortest form, text verbatim.
func RenderCell(v payload.Value) string {
	switch x := v.(type) {
	case nil:
		return NullText
	case string:
		return x
	case int64:
		return strconv.FormatInt(x, 10)
	case int:
		return strconv.Itoa(x)
	case bool:
		if x {
			return "1"
		}
		return "0"
	case float64:
		return strconv.FormatFloat(x, 'f', -1, 64)
	case []byte:
		return string(x)
	}
	return fmt.Sprint(v)
}

func renderRow(vals []payload.Value) Row {
	row := make(Row, len(vals))
	for i, v := range vals {
		row[i] = RenderCell(v)
	}
	return row
}

// FormatValue normalizes one display string for comparison with a script's
// expected values: floats print with three decimals, integers drop any
// fraction, empty strings print as "(empty)".
func FormatValue(t ColumnType, v string) string {
	switch {
	case v == NullText:
		return v
	case v == "":
		return "(empty)"
	}
	switch t {
	case FloatingPoint:
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			return strconv.FormatFloat(f, 'f', 3, 64)
		}
	case Integer:
		if _, err := strconv.ParseInt(v, 10, 64); err == nil {
			return v
		}
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			return strconv.FormatInt(int64(f), 10)
		}
	}
	return v
}
