// Package store defines the storage collaborator behind generated endpoints.
//
// Implementations live in the sub-packages (memstore, pgstore, dynstore,
// redisstore). They receive the resolved *schema.Model on every call, so one
// backend instance serves every registered model.
package store

import (
	"context"
	"errors"
	"sort"
	"time"

	"github.com/raywall/fast-crud-toolkit/schema"
)

// ErrNotFound is returned when no record exists for a key.
var ErrNotFound = errors.New("store: record not found")

// ErrDuplicateKey is returned by Insert when the key is already taken.
var ErrDuplicateKey = errors.New("store: duplicate key")

// Store persists records of any registered model.
type Store interface {
	// List returns every record of the model that satisfies filter.
	List(ctx context.Context, model *schema.Model, filter Filter) ([]schema.Record, error)
	// Get returns the record identified by key or ErrNotFound.
	Get(ctx context.Context, model *schema.Model, key any) (schema.Record, error)
	// Insert persists a new record and returns it with generated values.
	Insert(ctx context.Context, model *schema.Model, rec schema.Record) (schema.Record, error)
	// Update replaces the non-key fields of an existing record.
	Update(ctx context.Context, model *schema.Model, key any, rec schema.Record) (schema.Record, error)
	// Delete removes the record permanently.
	Delete(ctx context.Context, model *schema.Model, key any) error
}

// Condition is an exact-match predicate on one field.
type Condition struct {
	Field string
	Value any
}

// Filter is a conjunction of conditions. The zero value matches everything.
type Filter struct {
	Conditions []Condition
}

// Empty reports whether the filter has no conditions.
func (f Filter) Empty() bool {
	return len(f.Conditions) == 0
}

// Match reports whether rec satisfies every condition.
func (f Filter) Match(rec schema.Record) bool {
	for _, c := range f.Conditions {
		if !schema.Equal(rec[c.Field], c.Value) {
			return false
		}
	}
	return true
}

// Apply keeps the records that satisfy the filter.
func (f Filter) Apply(recs []schema.Record) []schema.Record {
	if f.Empty() {
		return recs
	}
	out := make([]schema.Record, 0, len(recs))
	for _, rec := range recs {
		if f.Match(rec) {
			out = append(out, rec)
		}
	}
	return out
}

// SortByKey orders records by primary key so that stores without a natural
// order (hashes, scans) list deterministically.
func SortByKey(model *schema.Model, recs []schema.Record) {
	pk := model.PrimaryKey().Name
	sort.SliceStable(recs, func(i, j int) bool {
		return less(recs[i][pk], recs[j][pk])
	})
}

func less(a, b any) bool {
	switch x := a.(type) {
	case int64:
		y, ok := b.(int64)
		return ok && x < y
	case float64:
		y, ok := b.(float64)
		return ok && x < y
	case string:
		y, ok := b.(string)
		return ok && x < y
	case time.Time:
		y, ok := b.(time.Time)
		return ok && x.Before(y)
	case bool:
		y, ok := b.(bool)
		return ok && !x && y
	}
	return false
}

// Canonical coerces every declared field of rec into its canonical value,
// dropping attributes the model does not declare. Stores call it on rows
// coming back from the backend.
func Canonical(model *schema.Model, rec map[string]any) (schema.Record, error) {
	out := make(schema.Record, len(model.Fields))
	for _, f := range model.Fields {
		v, err := f.Coerce(rec[f.Name])
		if err != nil {
			return nil, &CorruptError{Model: model.Ref(), Field: f.Name, Err: err}
		}
		out[f.Name] = v
	}
	return out, nil
}

// CorruptError reports a stored value that does not fit its field type.
type CorruptError struct {
	Model schema.Ref
	Field string
	Err   error
}

func (e *CorruptError) Error() string {
	return "store: " + e.Model.String() + "." + e.Field + ": " + e.Err.Error()
}

func (e *CorruptError) Unwrap() error { return e.Err }
