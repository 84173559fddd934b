package slt

import (
	"crypto/md5"
	"encoding/hex"
	"fmt"
	"io"
	"slices"
	"sort"
	"strings"

	"github.com/tuannm99/novalogic/internal/logictest"
)

// resultValues normalizes and orders the rows of out for comparison. Values
// are formatted by the column types the query header declares.
func resultValues(q *Query, out logictest.DBOutput) [][]string {
	rows := make([][]string, len(out.Rows))
	for i, row := range out.Rows {
		vals := make([]string, len(row))
		for j, v := range row {
			t := logictest.Text
			if j < len(q.Types) {
				t = q.Types[j]
			}
			vals[j] = strings.TrimSpace(logictest.FormatValue(t, v))
		}
		rows[i] = vals
	}

	if q.Sort == RowSort {
		sort.SliceStable(rows, func(a, b int) bool {
			return slices.Compare(rows[a], rows[b]) < 0
		})
	}
	return rows
}

func flatten(rows [][]string) []string {
	var vals []string
	for _, row := range rows {
		vals = append(vals, row...)
	}
	return vals
}

// hashValues is the md5 of every value followed by a newline.
func hashValues(vals []string) string {
	h := md5.New()
	for _, v := range vals {
		_, _ = io.WriteString(h, v)
		_, _ = io.WriteString(h, "\n")
	}
	return hex.EncodeToString(h.Sum(nil))
}

func hashSummary(n int, hash string) string {
	return fmt.Sprintf("%d values hashing to %s", n, hash)
}

// matchExpected compares actual rows with the expected lines. Lines are
// compared value by value first, so scripts that list one value per line
// pass; scripts that list a whole row per line, separated by spaces, pass
// too.
func matchExpected(rows [][]string, vals, expected []string) bool {
	if slices.Equal(vals, expected) {
		return true
	}
	if len(rows) != len(expected) {
		return false
	}
	for i, row := range rows {
		if strings.Join(row, " ") != strings.Join(strings.Fields(expected[i]), " ") {
			return false
		}
	}
	return true
}

// checkTypes validates the resolved column types against the header. Any
// matches every code, since it means the adapter could not resolve the
// column.
func checkTypes(q *Query, out logictest.DBOutput, strict bool) error {
	if len(out.Types) == 0 {
		// no rows to take columns from
		return nil
	}
	if len(out.Types) != len(q.Types) {
		return fmt.Errorf("expected %d columns, got %d", len(q.Types), len(out.Types))
	}
	if !strict {
		return nil
	}
	for i, t := range out.Types {
		if t != logictest.Any && t != q.Types[i] {
			return fmt.Errorf("column %d: expected type %c, got %c (%s)",
				i+1, q.Types[i].Char(), t.Char(), logictest.TypeString(out.Types))
		}
	}
	return nil
}

func mismatch(expected, actual []string) error {
	return fmt.Errorf("query result mismatch:\n[expected]\n%s\n[actual]\n%s",
		strings.Join(expected, "\n"), strings.Join(actual, "\n"))
}
