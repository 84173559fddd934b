package logictest

import (
	"fmt"
	"strings"

	"github.com/sirupsen/logrus"

	"github.com/tuannm99/novalogic/internal/payload"
)

// TypeResolution selects how result column types are derived.
type TypeResolution string

const (
	// ResolveValues scans result values.
	ResolveValues TypeResolution = "values"
	// ResolveSchema asks the engine to describe the target table.
	ResolveSchema TypeResolution = "schema"
)

func ParseTypeResolution(s string) (TypeResolution, error) {
	switch TypeResolution(strings.ToLower(s)) {
	case ResolveValues:
		return ResolveValues, nil
	case ResolveSchema:
		return ResolveSchema, nil
	}
	return "", fmt.Errorf("unknown type resolution %q (want values or schema)", s)
}

// InferTypes resolves each column from its first non-null value. Columns
// that are all NULL, or result sets without rows, resolve to Any.
func InferTypes(labels []string, rows [][]payload.Value) []ColumnType {
	mustHaveColumns(labels)

	types := make([]ColumnType, len(labels))
	for col := range labels {
		types[col] = Any
		for _, row := range rows {
			if col >= len(row) || row[col] == nil {
				continue
			}
			types[col] = valueType(row[col])
			break
		}
	}
	return types
}

func valueType(v payload.Value) ColumnType {
	switch v.(type) {
	case int64, int, bool:
		return Integer
	case float64:
		return FloatingPoint
	case string:
		return Text
	}
	return Any
}

// IntrospectTypes maps each label to the declared type of the matching
// described column. Labels that are not table columns, and declared types
// the lookup table does not know, resolve to Any with a warning.
func IntrospectTypes(log logrus.FieldLogger, labels []string, described []payload.ColumnInfo) []ColumnType {
	mustHaveColumns(labels)

	types := make([]ColumnType, len(labels))
	for i, label := range labels {
		types[i] = Any

		info, ok := findColumn(described, label)
		if !ok {
			log.WithField("column", label).Warn("type resolution: column not described, using Any")
			continue
		}
		t, ok := ColumnTypeFromSQL(info.Type)
		if !ok {
			log.WithFields(logrus.Fields{
				"column": label,
				"type":   info.Type,
			}).Warn("type resolution: unrecognized column type, using Any")
			continue
		}
		types[i] = t
	}
	return types
}

func findColumn(described []payload.ColumnInfo, name string) (payload.ColumnInfo, bool) {
	for _, c := range described {
		if strings.EqualFold(c.Name, name) {
			return c, true
		}
	}
	return payload.ColumnInfo{}, false
}

// mustHaveColumns guards an engine invariant: every row-producing statement
// has at least one column.
func mustHaveColumns(labels []string) {
	if len(labels) == 0 {
		panic("logictest: row-producing statement returned zero columns")
	}
}
