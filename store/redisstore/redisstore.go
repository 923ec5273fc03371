// Package redisstore persists records in Redis.
//
// Each model lives in one hash, "<prefix>:<app>.<name>", mapping the primary
// key to the JSON encoded record. Auto-increment keys come from
// "<prefix>:<app>.<name>:seq". Filtering happens in process.
package redisstore

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/raywall/fast-crud-toolkit/schema"
	"github.com/raywall/fast-crud-toolkit/store"
	"github.com/redis/go-redis/v9"
)

// DefaultPrefix namespaces every key written by the store.
const DefaultPrefix = "crud"

// replaceScript writes the record only when the key is already present.
var replaceScript = redis.NewScript(`
if redis.call("HEXISTS", KEYS[1], ARGV[1]) == 1 then
	redis.call("HSET", KEYS[1], ARGV[1], ARGV[2])
	return 1
end
return 0
`)

// Config holds connection settings.
type Config struct {
	Addr     string `yaml:"addr" validate:"required"`
	Password string `yaml:"password"`
	DB       int    `yaml:"db"`
	Prefix   string `yaml:"prefix"`
}

// Store implements store.Store on a go-redis client.
type Store struct {
	client redis.UniversalClient
	prefix string
}

var _ store.Store = (*Store)(nil)

// Open creates a client from cfg.
func Open(cfg Config) *Store {
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})
	return New(client, cfg.Prefix)
}

// New wraps an existing client.
func New(client redis.UniversalClient, prefix string) *Store {
	if prefix == "" {
		prefix = DefaultPrefix
	}
	return &Store{client: client, prefix: prefix}
}

// Close closes the underlying client.
func (s *Store) Close() error {
	return s.client.Close()
}

func (s *Store) hashKey(model *schema.Model) string {
	return s.prefix + ":" + model.Ref().String()
}

func (s *Store) seqKey(model *schema.Model) string {
	return s.hashKey(model) + ":seq"
}

func (s *Store) List(ctx context.Context, model *schema.Model, filter store.Filter) ([]schema.Record, error) {
	rows, err := s.client.HGetAll(ctx, s.hashKey(model)).Result()
	if err != nil {
		return nil, fmt.Errorf("redisstore: list %s: %w", model.Ref(), err)
	}

	out := make([]schema.Record, 0, len(rows))
	for _, raw := range rows {
		rec, err := decode(model, raw)
		if err != nil {
			return nil, err
		}
		out = append(out, rec)
	}
	out = filter.Apply(out)
	store.SortByKey(model, out)
	return out, nil
}

func (s *Store) Get(ctx context.Context, model *schema.Model, key any) (schema.Record, error) {
	raw, err := s.client.HGet(ctx, s.hashKey(model), field(key)).Result()
	if err == redis.Nil {
		return nil, store.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("redisstore: get %s: %w", model.Ref(), err)
	}
	return decode(model, raw)
}

func (s *Store) Insert(ctx context.Context, model *schema.Model, rec schema.Record) (schema.Record, error) {
	pk := model.PrimaryKey()
	rec = rec.Clone()
	if pk.Auto {
		switch pk.Type {
		case schema.TypeInteger:
			n, err := s.client.Incr(ctx, s.seqKey(model)).Result()
			if err != nil {
				return nil, fmt.Errorf("redisstore: sequence %s: %w", model.Ref(), err)
			}
			rec[pk.Name] = n
		case schema.TypeUUID:
			rec[pk.Name] = uuid.NewString()
		}
	}
	key := rec[pk.Name]
	if key == nil {
		return nil, fmt.Errorf("redisstore: %s: missing primary key %q", model.Ref(), pk.Name)
	}

	data, err := json.Marshal(rec)
	if err != nil {
		return nil, err
	}
	ok, err := s.client.HSetNX(ctx, s.hashKey(model), field(key), data).Result()
	if err != nil {
		return nil, fmt.Errorf("redisstore: insert %s: %w", model.Ref(), err)
	}
	if !ok {
		return nil, fmt.Errorf("redisstore: %s: %w %v", model.Ref(), store.ErrDuplicateKey, key)
	}
	return rec, nil
}

func (s *Store) Update(ctx context.Context, model *schema.Model, key any, rec schema.Record) (schema.Record, error) {
	rec = rec.Clone()
	rec[model.PrimaryKey().Name] = key

	data, err := json.Marshal(rec)
	if err != nil {
		return nil, err
	}
	n, err := replaceScript.Run(ctx, s.client, []string{s.hashKey(model)}, field(key), string(data)).Int()
	if err != nil {
		return nil, fmt.Errorf("redisstore: update %s: %w", model.Ref(), err)
	}
	if n == 0 {
		return nil, store.ErrNotFound
	}
	return rec, nil
}

func (s *Store) Delete(ctx context.Context, model *schema.Model, key any) error {
	n, err := s.client.HDel(ctx, s.hashKey(model), field(key)).Result()
	if err != nil {
		return fmt.Errorf("redisstore: delete %s: %w", model.Ref(), err)
	}
	if n == 0 {
		return store.ErrNotFound
	}
	return nil
}

func field(key any) string {
	if t, ok := key.(time.Time); ok {
		return t.UTC().Format(time.RFC3339Nano)
	}
	return fmt.Sprint(key)
}

func decode(model *schema.Model, raw string) (schema.Record, error) {
	dec := json.NewDecoder(bytes.NewBufferString(raw))
	dec.UseNumber()
	var row map[string]any
	if err := dec.Decode(&row); err != nil {
		return nil, fmt.Errorf("redisstore: %s: %w", model.Ref(), err)
	}
	return store.Canonical(model, row)
}
