package catalog

import (
	"github.com/tuannm99/novalogic/internal/record"
)

// TableMeta describes one table of a session catalog. A schemaless table has
// no columns; its rows are JSON documents.
type TableMeta struct {
	Name       string        `json:"name"`
	Schema     record.Schema `json:"schema"`
	Schemaless bool          `json:"schemaless"`
	Indexes    []IndexMeta   `json:"indexes"`
}

// IndexMeta is catalog-only: indexes are accepted and tracked but scans do not
// use them.
type IndexMeta struct {
	Name      string `json:"name"`
	KeyColumn string `json:"key_column"`
}

// Clone returns a deep copy of the metadata.
func (m *TableMeta) Clone() *TableMeta {
	cp := *m
	cp.Schema = record.Schema{Cols: append([]record.Column(nil), m.Schema.Cols...)}
	cp.Indexes = append([]IndexMeta(nil), m.Indexes...)
	return &cp
}
