package storage

import (
	"bytes"
	"fmt"

	"github.com/goccy/go-json"
)

// Doc is one row of a schemaless table.
type Doc = map[string]any

// Docs decodes every document of a schemaless table in insertion order.
// JSON numbers come back as int64 when integral, float64 otherwise.
func (s *Store) Docs(name string) ([]Doc, error) {
	t, err := s.get(name)
	if err != nil {
		return nil, err
	}
	if !t.meta.Schemaless {
		return nil, fmt.Errorf("storage: table %s is not schemaless", t.meta.Name)
	}
	out := make([]Doc, len(t.rows))
	for i, buf := range t.rows {
		if out[i], err = decodeDoc(buf); err != nil {
			return nil, fmt.Errorf("storage: decode row %d of %s: %w", i, t.meta.Name, err)
		}
	}
	return out, nil
}

func (s *Store) InsertDocs(name string, docs []Doc) error {
	t, err := s.get(name)
	if err != nil {
		return err
	}
	enc, err := encodeDocs(docs)
	if err != nil {
		return err
	}
	s.tables[key(name)] = &table{meta: t.meta, rows: append(t.rows[:len(t.rows):len(t.rows)], enc...)}
	return nil
}

func (s *Store) ReplaceDocs(name string, docs []Doc) error {
	t, err := s.get(name)
	if err != nil {
		return err
	}
	enc, err := encodeDocs(docs)
	if err != nil {
		return err
	}
	s.tables[key(name)] = &table{meta: t.meta, rows: enc}
	return nil
}

func encodeDocs(docs []Doc) ([][]byte, error) {
	out := make([][]byte, len(docs))
	for i, d := range docs {
		buf, err := json.Marshal(d)
		if err != nil {
			return nil, fmt.Errorf("storage: encode document: %w", err)
		}
		out[i] = buf
	}
	return out, nil
}

func decodeDoc(buf []byte) (Doc, error) {
	dec := json.NewDecoder(bytes.NewReader(buf))
	dec.UseNumber()

	var raw map[string]any
	if err := dec.Decode(&raw); err != nil {
		return nil, err
	}
	for k, v := range raw {
		n, ok := v.(json.Number)
		if !ok {
			continue
		}
		if i, err := n.Int64(); err == nil {
			raw[k] = i
		} else if f, err := n.Float64(); err == nil {
			raw[k] = f
		} else {
			return nil, fmt.Errorf("bad number %q for key %s", n, k)
		}
	}
	return raw, nil
}
