package memory

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"kpiboard/internal/core"
	"kpiboard/internal/sources"
)

// Store serves tables from memory, optionally seeded from JSON fixture files.
type Store struct {
	mu     sync.Mutex
	dir    string
	tables map[string][]core.Record
}

// Ensure interface conformance
var _ sources.RecordSource = (*Store)(nil)

// New returns a store holding the given tables.
func New(tables map[string][]core.Record) *Store {
	s := &Store{tables: make(map[string][]core.Record, len(tables))}
	for name, recs := range tables {
		s.tables[name] = append([]core.Record(nil), recs...)
	}
	return s
}

// NewFromFiles returns a store that reads <base>/<table>.json on demand.
// A missing file means the table has no records.
func NewFromFiles(base string) *Store {
	return &Store{dir: base, tables: make(map[string][]core.Record)}
}

// Put replaces the records of a table.
func (s *Store) Put(table string, recs []core.Record) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.tables[table] = append([]core.Record(nil), recs...)
}

// FetchRecords returns a copy of the table's records.
func (s *Store) FetchRecords(_ context.Context, table string) ([]core.Record, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if recs, ok := s.tables[table]; ok {
		return append([]core.Record(nil), recs...), nil
	}
	if s.dir == "" {
		return nil, nil
	}

	recs, err := readFixture(filepath.Join(s.dir, table+".json"))
	if err != nil {
		return nil, err
	}
	s.tables[table] = recs
	return append([]core.Record(nil), recs...), nil
}

// readFixture accepts either a bare array of field maps or an Airtable-shaped
// {"records":[{"fields":{...}}]} document.
func readFixture(path string) ([]core.Record, error) {
	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read fixture: %w", err)
	}

	data = bytes.TrimSpace(data)
	if len(data) == 0 {
		return nil, nil
	}

	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	if data[0] == '[' {
		var recs []core.Record
		if err := dec.Decode(&recs); err != nil {
			return nil, fmt.Errorf("decode fixture %s: %w", path, err)
		}
		return recs, nil
	}

	var doc struct {
		Records []struct {
			Fields core.Record `json:"fields"`
		} `json:"records"`
	}
	if err := dec.Decode(&doc); err != nil {
		return nil, fmt.Errorf("decode fixture %s: %w", path, err)
	}
	out := make([]core.Record, 0, len(doc.Records))
	for _, r := range doc.Records {
		if r.Fields == nil {
			r.Fields = core.Record{}
		}
		out = append(out, r.Fields)
	}
	return out, nil
}
