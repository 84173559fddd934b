// Package payload defines the result of executing one SQL statement on the
// engine. Every statement kind maps to exactly one payload variant.
package payload

import "fmt"

// Payload is a closed sum type; only the types in this package implement it.
type Payload interface {
	payload()
}

// Value is a single cell: nil, int64, float64, string or bool.
type Value = any

type (
	// Select is returned by SELECT on typed tables and by SELECT without FROM.
	Select struct {
		Labels []string
		Rows   [][]Value
	}

	// SelectMap is returned by SELECT * on schemaless tables.
	SelectMap struct {
		Rows []map[string]Value
	}

	Insert    struct{ N int }
	Delete    struct{ N int }
	Update    struct{ N int }
	DropTable struct{ N int }

	Create           struct{}
	AlterTable       struct{}
	CreateIndex      struct{}
	DropIndex        struct{}
	StartTransaction struct{}
	Commit           struct{}
	Rollback         struct{}
	DropFunction     struct{}

	// ShowColumns describes the columns of one table.
	ShowColumns struct {
		Columns []ColumnInfo
	}

	// ShowVariable answers SHOW VERSION and SHOW TABLES.
	ShowVariable struct {
		Name  string
		Value string
	}
)

// ColumnInfo is one row of a ShowColumns payload.
type ColumnInfo struct {
	Name string
	Type string
}

func (Select) payload()           {}
func (SelectMap) payload()        {}
func (Insert) payload()           {}
func (Delete) payload()           {}
func (Update) payload()           {}
func (DropTable) payload()        {}
func (Create) payload()           {}
func (AlterTable) payload()       {}
func (CreateIndex) payload()      {}
func (DropIndex) payload()        {}
func (StartTransaction) payload() {}
func (Commit) payload()           {}
func (Rollback) payload()         {}
func (DropFunction) payload()     {}
func (ShowColumns) payload()      {}
func (ShowVariable) payload()     {}

// Name returns the variant name, used in diagnostics.
func Name(p Payload) string {
	switch p.(type) {
	case Select:
		return "Select"
	case SelectMap:
		return "SelectMap"
	case Insert:
		return "Insert"
	case Delete:
		return "Delete"
	case Update:
		return "Update"
	case DropTable:
		return "DropTable"
	case Create:
		return "Create"
	case AlterTable:
		return "AlterTable"
	case CreateIndex:
		return "CreateIndex"
	case DropIndex:
		return "DropIndex"
	case StartTransaction:
		return "StartTransaction"
	case Commit:
		return "Commit"
	case Rollback:
		return "Rollback"
	case DropFunction:
		return "DropFunction"
	case ShowColumns:
		return "ShowColumns"
	case ShowVariable:
		return "ShowVariable"
	default:
		return fmt.Sprintf("%T", p)
	}
}
