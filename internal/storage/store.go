package storage

import (
	"sort"
	"strings"

	"github.com/tuannm99/novalogic/internal/catalog"
	"github.com/tuannm99/novalogic/internal/record"
)

type table struct {
	meta *catalog.TableMeta
	rows [][]byte // encoded with record.EncodeRow, or JSON documents when schemaless
}

// Store is the in-memory catalog and row data of one session. It is not safe
// for concurrent use; the engine handle serializes access.
//
// Table metadata and row slices are never mutated in place, so a
// transaction snapshot is a shallow copy of the table map.
type Store struct {
	tables   map[string]*table
	snapshot map[string]*table // non-nil while a transaction is active
}

func NewStore() *Store {
	return &Store{tables: make(map[string]*table)}
}

func key(name string) string { return strings.ToLower(name) }

func (s *Store) get(name string) (*table, error) {
	t, ok := s.tables[key(name)]
	if !ok {
		return nil, catalog.ErrTableNotFound.New(name)
	}
	return t, nil
}

// Table returns the metadata of name. The result must be treated as
// read-only.
func (s *Store) Table(name string) (*catalog.TableMeta, bool) {
	t, ok := s.tables[key(name)]
	if !ok {
		return nil, false
	}
	return t.meta, true
}

// TableNames lists the tables in name order.
func (s *Store) TableNames() []string {
	out := make([]string, 0, len(s.tables))
	for _, t := range s.tables {
		out = append(out, t.meta.Name)
	}
	sort.Strings(out)
	return out
}

func (s *Store) CreateTable(meta *catalog.TableMeta, ifNotExists bool) error {
	if _, ok := s.tables[key(meta.Name)]; ok {
		if ifNotExists {
			return nil
		}
		return catalog.ErrTableExists.New(meta.Name)
	}
	s.tables[key(meta.Name)] = &table{meta: meta.Clone()}
	return nil
}

// DropTable reports whether the table existed.
func (s *Store) DropTable(name string, ifExists bool) (bool, error) {
	if _, ok := s.tables[key(name)]; !ok {
		if ifExists {
			return false, nil
		}
		return false, catalog.ErrTableNotFound.New(name)
	}
	delete(s.tables, key(name))
	return true, nil
}

func (s *Store) RenameTable(from, to string) error {
	t, err := s.get(from)
	if err != nil {
		return err
	}
	if _, ok := s.tables[key(to)]; ok && key(from) != key(to) {
		return catalog.ErrTableExists.New(to)
	}
	meta := t.meta.Clone()
	meta.Name = to
	delete(s.tables, key(from))
	s.tables[key(to)] = &table{meta: meta, rows: t.rows}
	return nil
}

// AddColumn appends col to a typed table; existing rows read NULL for it.
func (s *Store) AddColumn(name string, col record.Column) error {
	t, err := s.get(name)
	if err != nil {
		return err
	}
	if t.meta.Schemaless {
		// documents have no fixed shape; nothing to migrate
		return nil
	}
	if t.meta.Schema.ColPos(col.Name) >= 0 {
		return catalog.ErrColumnExists.New(col.Name)
	}

	old := t.meta.Schema
	meta := t.meta.Clone()
	meta.Schema = old.WithColumn(col)

	rows := make([][]byte, len(t.rows))
	for i, buf := range t.rows {
		vals, err := record.DecodeRow(old, buf)
		if err != nil {
			return err
		}
		if rows[i], err = record.EncodeRow(meta.Schema, append(vals, nil)); err != nil {
			return err
		}
	}
	s.tables[key(name)] = &table{meta: meta, rows: rows}
	return nil
}

func (s *Store) CreateIndex(name string, idx catalog.IndexMeta) error {
	t, err := s.get(name)
	if err != nil {
		return err
	}
	if !t.meta.Schemaless && t.meta.Schema.ColPos(idx.KeyColumn) < 0 {
		return catalog.ErrColumnNotFound.New(idx.KeyColumn)
	}
	for _, other := range s.tables {
		for _, existing := range other.meta.Indexes {
			if strings.EqualFold(existing.Name, idx.Name) {
				return catalog.ErrIndexExists.New(idx.Name)
			}
		}
	}
	meta := t.meta.Clone()
	meta.Indexes = append(meta.Indexes, idx)
	s.tables[key(name)] = &table{meta: meta, rows: t.rows}
	return nil
}

// DropIndex removes an index. An empty table name searches every table.
func (s *Store) DropIndex(tableName, indexName string) error {
	for k, t := range s.tables {
		if tableName != "" && k != key(tableName) {
			continue
		}
		for i, idx := range t.meta.Indexes {
			if !strings.EqualFold(idx.Name, indexName) {
				continue
			}
			meta := t.meta.Clone()
			meta.Indexes = append(meta.Indexes[:i], meta.Indexes[i+1:]...)
			s.tables[k] = &table{meta: meta, rows: t.rows}
			return nil
		}
	}
	return catalog.ErrIndexNotFound.New(indexName)
}

// Rows decodes every row of a typed table in insertion order.
func (s *Store) Rows(name string) ([][]any, error) {
	t, err := s.get(name)
	if err != nil {
		return nil, err
	}
	out := make([][]any, len(t.rows))
	for i, buf := range t.rows {
		if out[i], err = record.DecodeRow(t.meta.Schema, buf); err != nil {
			return nil, err
		}
	}
	return out, nil
}

// Insert encodes and appends rows to a typed table. Either every row is
// stored or none is.
func (s *Store) Insert(name string, rows [][]any) error {
	t, err := s.get(name)
	if err != nil {
		return err
	}
	enc, err := encodeAll(t.meta.Schema, rows)
	if err != nil {
		return err
	}
	s.tables[key(name)] = &table{meta: t.meta, rows: append(t.rows[:len(t.rows):len(t.rows)], enc...)}
	return nil
}

// ReplaceRows swaps the whole content of a typed table.
func (s *Store) ReplaceRows(name string, rows [][]any) error {
	t, err := s.get(name)
	if err != nil {
		return err
	}
	enc, err := encodeAll(t.meta.Schema, rows)
	if err != nil {
		return err
	}
	s.tables[key(name)] = &table{meta: t.meta, rows: enc}
	return nil
}

func encodeAll(schema record.Schema, rows [][]any) ([][]byte, error) {
	out := make([][]byte, len(rows))
	for i, r := range rows {
		buf, err := record.EncodeRow(schema, r)
		if err != nil {
			return nil, err
		}
		out[i] = buf
	}
	return out, nil
}

// ----- transactions -----

func (s *Store) InTransaction() bool { return s.snapshot != nil }

func (s *Store) Begin() error {
	if s.snapshot != nil {
		return catalog.ErrTransactionInProgress.New()
	}
	s.snapshot = make(map[string]*table, len(s.tables))
	for k, t := range s.tables {
		s.snapshot[k] = t
	}
	return nil
}

func (s *Store) Commit() error {
	if s.snapshot == nil {
		return catalog.ErrNoTransaction.New()
	}
	s.snapshot = nil
	return nil
}

func (s *Store) Rollback() error {
	if s.snapshot == nil {
		return catalog.ErrNoTransaction.New()
	}
	s.tables = s.snapshot
	s.snapshot = nil
	return nil
}
