// Package dynstore persists records in DynamoDB, one table per model.
//
// Tables are keyed by the model's primary key field alone. Auto-increment
// keys are drawn from a shared counter table holding one item per model.
//
// List issues a Query when the filter pins the primary key or a field with a
// configured global secondary index; otherwise it scans the table. Remaining
// conditions become filter expressions.
package dynstore

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/raywall/fast-crud-toolkit/dyndb"
	"github.com/raywall/fast-crud-toolkit/schema"
	"github.com/raywall/fast-crud-toolkit/store"
	"github.com/rs/zerolog/log"
)

const (
	DefaultSequenceTable = "crud_sequences"
	sequenceKey          = "model"
	sequenceAttr         = "seq"
)

// Options configures table naming.
type Options struct {
	// TablePrefix is prepended to every model table name.
	TablePrefix string
	// SequenceTable holds the auto-increment counters.
	SequenceTable string
	// PageSize caps each Scan/Query page. Zero leaves it to DynamoDB.
	PageSize int32
	// Indexes maps a model reference ("app.name") to field -> GSI name.
	Indexes map[string]map[string]string
}

// Store implements store.Store on top of dyndb.
type Store struct {
	client dyndb.DynamoDBClient
	opts   Options
}

var _ store.Store = (*Store)(nil)

// New builds a Store using client for every table.
func New(client dyndb.DynamoDBClient, opts Options) *Store {
	if opts.SequenceTable == "" {
		opts.SequenceTable = DefaultSequenceTable
	}
	return &Store{client: client, opts: opts}
}

// TableName returns the DynamoDB table backing model.
func (s *Store) TableName(model *schema.Model) string {
	return s.opts.TablePrefix + model.TableName()
}

func (s *Store) table(model *schema.Model) dyndb.Store[schema.Record] {
	return dyndb.New(s.client, dyndb.TableConfig[schema.Record]{
		TableName: s.TableName(model),
		HashKey:   model.PrimaryKey().Name,
	})
}

func (s *Store) List(ctx context.Context, model *schema.Model, filter store.Filter) ([]schema.Record, error) {
	qb := s.builder(model, filter)
	items, err := s.collect(ctx, qb)
	if err != nil {
		return nil, fmt.Errorf("dynstore: list %s: %w", s.TableName(model), err)
	}

	out := make([]schema.Record, 0, len(items))
	for _, item := range items {
		rec, err := store.Canonical(model, item)
		if err != nil {
			return nil, err
		}
		out = append(out, rec)
	}
	store.SortByKey(model, out)
	return out, nil
}

// builder picks the key condition for filter and turns the rest into filters.
func (s *Store) builder(model *schema.Model, filter store.Filter) *dyndb.QueryBuilder[schema.Record] {
	table := s.table(model)
	pk := model.PrimaryKey().Name
	indexes := s.opts.Indexes[model.Ref().String()]

	keyAt := -1
	var index string
	for i, c := range filter.Conditions {
		if c.Value == nil {
			continue
		}
		if c.Field == pk {
			keyAt, index = i, ""
			break
		}
		if name, ok := indexes[c.Field]; ok && keyAt < 0 {
			keyAt, index = i, name
		}
	}

	var qb *dyndb.QueryBuilder[schema.Record]
	if keyAt < 0 {
		qb = table.Scan()
	} else {
		qb = table.Query()
		if index != "" {
			qb = qb.Index(index)
		}
		c := filter.Conditions[keyAt]
		qb = qb.KeyEqual(c.Field, c.Value)
	}
	for i, c := range filter.Conditions {
		if i != keyAt {
			qb = qb.FilterEqual(c.Field, c.Value)
		}
	}
	if s.opts.PageSize > 0 {
		qb = qb.Limit(s.opts.PageSize)
	}
	return qb
}

// collect reads every page; with a page size each page is fetched by token.
func (s *Store) collect(ctx context.Context, qb *dyndb.QueryBuilder[schema.Record]) ([]schema.Record, error) {
	if s.opts.PageSize == 0 {
		return qb.ExecAll(ctx)
	}
	var all []schema.Record
	token := ""
	for {
		page, next, err := qb.LastKey(token).Exec(ctx)
		if err != nil {
			return nil, err
		}
		all = append(all, page...)
		if next == "" {
			return all, nil
		}
		token = next
	}
}

func (s *Store) Get(ctx context.Context, model *schema.Model, key any) (schema.Record, error) {
	item, err := s.table(model).Get(ctx, key, nil)
	if errors.Is(err, dyndb.ErrNotFound) {
		return nil, store.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return store.Canonical(model, *item)
}

func (s *Store) Insert(ctx context.Context, model *schema.Model, rec schema.Record) (schema.Record, error) {
	pk := model.PrimaryKey()
	rec = rec.Clone()
	if pk.Auto {
		switch pk.Type {
		case schema.TypeInteger:
			n, err := s.nextSequence(ctx, model)
			if err != nil {
				return nil, err
			}
			rec[pk.Name] = n
		case schema.TypeUUID:
			rec[pk.Name] = uuid.NewString()
		}
	}
	if rec[pk.Name] == nil {
		return nil, fmt.Errorf("dynstore: %s: missing primary key %q", model.Ref(), pk.Name)
	}

	err := s.table(model).Create(ctx, rec)
	if errors.Is(err, dyndb.ErrAlreadyExists) {
		return nil, fmt.Errorf("dynstore: %s: %w %v", model.Ref(), store.ErrDuplicateKey, rec[pk.Name])
	}
	if err != nil {
		return nil, err
	}
	return rec, nil
}

func (s *Store) Update(ctx context.Context, model *schema.Model, key any, rec schema.Record) (schema.Record, error) {
	rec = rec.Clone()
	rec[model.PrimaryKey().Name] = key

	err := s.table(model).Replace(ctx, rec)
	if errors.Is(err, dyndb.ErrNotFound) {
		return nil, store.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return rec, nil
}

func (s *Store) Delete(ctx context.Context, model *schema.Model, key any) error {
	err := s.table(model).Delete(ctx, key, nil)
	if errors.Is(err, dyndb.ErrNotFound) {
		return store.ErrNotFound
	}
	return err
}

func (s *Store) nextSequence(ctx context.Context, model *schema.Model) (int64, error) {
	counters := dyndb.New(s.client, dyndb.TableConfig[map[string]any]{
		TableName: s.opts.SequenceTable,
		HashKey:   sequenceKey,
	})
	n, err := counters.Increment(ctx, model.Ref().String(), sequenceAttr, 1)
	if err != nil {
		return 0, fmt.Errorf("dynstore: sequence %s: %w", model.Ref(), err)
	}
	log.Ctx(ctx).Debug().Str("model", model.Ref().String()).Int64("seq", n).Msg("sequence advanced")
	return n, nil
}
