package schema

import (
	"errors"
	"fmt"
	"sort"
	"sync"
)

// ErrModelNotFound is returned when a reference cannot be resolved.
var ErrModelNotFound = errors.New("schema: model not found")

// Registry resolves model references to their metadata.
// It is safe for concurrent use; Replace swaps the whole set atomically.
type Registry struct {
	mu     sync.RWMutex
	models map[Ref]*Model
}

// NewRegistry builds a registry from the given models.
func NewRegistry(models ...Model) (*Registry, error) {
	r := &Registry{models: make(map[Ref]*Model)}
	if err := r.Replace(models); err != nil {
		return nil, err
	}
	return r, nil
}

// Register adds one model. Registering the same reference twice is an error.
func (r *Registry) Register(m Model) error {
	if err := m.Check(); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.models == nil {
		r.models = make(map[Ref]*Model)
	}
	ref := m.Ref()
	if _, exists := r.models[ref]; exists {
		return fmt.Errorf("schema: model %s already registered", ref)
	}
	r.models[ref] = &m
	return nil
}

// Replace swaps the registered set for models. On error nothing changes.
func (r *Registry) Replace(models []Model) error {
	next := make(map[Ref]*Model, len(models))
	for i := range models {
		m := models[i]
		if err := m.Check(); err != nil {
			return err
		}
		ref := m.Ref()
		if _, exists := next[ref]; exists {
			return fmt.Errorf("schema: model %s declared twice", ref)
		}
		next[ref] = &m
	}
	r.mu.Lock()
	r.models = next
	r.mu.Unlock()
	return nil
}

// Resolve returns a copy of the model registered under ref.
func (r *Registry) Resolve(ref Ref) (*Model, error) {
	ref = NewRef(ref.App, ref.Name)
	r.mu.RLock()
	m, ok := r.models[ref]
	r.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrModelNotFound, ref)
	}
	cp := *m
	cp.Fields = append([]Field(nil), m.Fields...)
	return &cp, nil
}

// Refs lists the registered references sorted by their string form.
func (r *Registry) Refs() []Ref {
	r.mu.RLock()
	refs := make([]Ref, 0, len(r.models))
	for ref := range r.models {
		refs = append(refs, ref)
	}
	r.mu.RUnlock()
	sort.Slice(refs, func(i, j int) bool { return refs[i].String() < refs[j].String() })
	return refs
}
