// Package memstore is an in-process store.Store, used by the "memory"
// driver and by tests.
package memstore

import (
	"context"
	"fmt"
	"sync"

	"github.com/google/uuid"
	"github.com/raywall/fast-crud-toolkit/schema"
	"github.com/raywall/fast-crud-toolkit/store"
)

type table struct {
	rows map[any]schema.Record
	seq  int64
}

// Store keeps records in memory, one table per model reference.
type Store struct {
	mu     sync.RWMutex
	tables map[schema.Ref]*table
}

// New returns an empty store.
func New() *Store {
	return &Store{tables: make(map[schema.Ref]*table)}
}

func (s *Store) table(ref schema.Ref) *table {
	t, ok := s.tables[ref]
	if !ok {
		t = &table{rows: make(map[any]schema.Record)}
		s.tables[ref] = t
	}
	return t
}

func (s *Store) List(ctx context.Context, model *schema.Model, filter store.Filter) ([]schema.Record, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	t, ok := s.tables[model.Ref()]
	if !ok {
		return []schema.Record{}, nil
	}
	out := make([]schema.Record, 0, len(t.rows))
	for _, rec := range t.rows {
		if filter.Match(rec) {
			out = append(out, rec.Clone())
		}
	}
	store.SortByKey(model, out)
	return out, nil
}

func (s *Store) Get(ctx context.Context, model *schema.Model, key any) (schema.Record, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	t, ok := s.tables[model.Ref()]
	if !ok {
		return nil, store.ErrNotFound
	}
	rec, ok := t.rows[key]
	if !ok {
		return nil, store.ErrNotFound
	}
	return rec.Clone(), nil
}

func (s *Store) Insert(ctx context.Context, model *schema.Model, rec schema.Record) (schema.Record, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	t := s.table(model.Ref())
	pk := model.PrimaryKey()
	rec = rec.Clone()
	if pk.Auto {
		switch pk.Type {
		case schema.TypeInteger:
			t.seq++
			rec[pk.Name] = t.seq
		case schema.TypeUUID:
			rec[pk.Name] = uuid.NewString()
		}
	}
	key := rec[pk.Name]
	if key == nil {
		return nil, fmt.Errorf("memstore: %s: missing primary key %q", model.Ref(), pk.Name)
	}
	if _, exists := t.rows[key]; exists {
		return nil, fmt.Errorf("memstore: %s: %w %v", model.Ref(), store.ErrDuplicateKey, key)
	}
	if n, ok := key.(int64); ok && n > t.seq {
		t.seq = n
	}
	t.rows[key] = rec
	return rec.Clone(), nil
}

func (s *Store) Update(ctx context.Context, model *schema.Model, key any, rec schema.Record) (schema.Record, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	t, ok := s.tables[model.Ref()]
	if !ok {
		return nil, store.ErrNotFound
	}
	if _, ok := t.rows[key]; !ok {
		return nil, store.ErrNotFound
	}
	rec = rec.Clone()
	rec[model.PrimaryKey().Name] = key
	t.rows[key] = rec
	return rec.Clone(), nil
}

func (s *Store) Delete(ctx context.Context, model *schema.Model, key any) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	t, ok := s.tables[model.Ref()]
	if !ok {
		return store.ErrNotFound
	}
	if _, ok := t.rows[key]; !ok {
		return store.ErrNotFound
	}
	delete(t.rows, key)
	return nil
}

var _ store.Store = (*Store)(nil)
