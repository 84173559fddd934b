package logictest

import "strings"

// ColumnType is the display type of one result column, written in test files
// as a single character.
type ColumnType uint8

const (
	Text ColumnType = iota
	Integer
	FloatingPoint
	// Any is the unresolved sentinel.
	Any
)

var typeChars = [...]byte{
	Text:          'T',
	Integer:       'I',
	FloatingPoint: 'R',
	Any:           '?',
}

// Char returns the type code used by sqllogictest scripts.
func (t ColumnType) Char() byte {
	if int(t) < len(typeChars) {
		return typeChars[t]
	}
	return '?'
}

func (t ColumnType) String() string {
	switch t {
	case Text:
		return "Text"
	case Integer:
		return "Integer"
	case FloatingPoint:
		return "FloatingPoint"
	default:
		return "Any"
	}
}

// ColumnTypeFromChar maps a type code back to a ColumnType. Unknown codes
// map to Any.
func ColumnTypeFromChar(c byte) ColumnType {
	for t, ch := range typeChars {
		if ch == c {
			return ColumnType(t)
		}
	}
	return Any
}

// sqlTypes maps declared column type names, as reported by an engine's
// describe-columns operation, to display types.
var sqlTypes = map[string]ColumnType{
	"TEXT":    Text,
	"VARCHAR": Text,
	"CHAR":    Text,
	"STRING":  Text,

	"INTEGER":  Integer,
	"INT":      Integer,
	"BIGINT":   Integer,
	"SMALLINT": Integer,
	"TINYINT":  Integer,
	"BOOLEAN":  Integer,
	"BOOL":     Integer,

	"FLOAT":   FloatingPoint,
	"REAL":    FloatingPoint,
	"DOUBLE":  FloatingPoint,
	"DECIMAL": FloatingPoint,
	"NUMERIC": FloatingPoint,
}

// ColumnTypeFromSQL looks up a declared type name, case-insensitively. Size
// arguments such as VARCHAR(10) are ignored. ok is false for unknown names.
func ColumnTypeFromSQL(name string) (t ColumnType, ok bool) {
	name = strings.ToUpper(strings.TrimSpace(name))
	if i := strings.IndexByte(name, '('); i >= 0 {
		name = strings.TrimSpace(name[:i])
	}
	t, ok = sqlTypes[name]
	return t, ok
}

// TypeString renders types as the compact schema string used by script
// headers and the upstream harness, e.g. "IT".
func TypeString(types []ColumnType) string {
	var b strings.Builder
	for _, t := range types {
		b.WriteByte(t.Char())
	}
	return b.String()
}
