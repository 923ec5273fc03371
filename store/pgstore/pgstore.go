// Package pgstore persists records in PostgreSQL, one table per model.
package pgstore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
	"github.com/raywall/fast-crud-toolkit/schema"
	"github.com/raywall/fast-crud-toolkit/store"
	"github.com/rs/zerolog/log"
)

// uniqueViolation is the SQLSTATE for duplicate keys.
const uniqueViolation = "23505"

// Config holds connection and pool settings.
type Config struct {
	DSN             string        `yaml:"dsn" validate:"required"`
	MaxOpenConns    int           `yaml:"max_open_conns"`
	MaxIdleConns    int           `yaml:"max_idle_conns"`
	ConnMaxLifetime time.Duration `yaml:"conn_max_lifetime"`
	QueryTimeout    time.Duration `yaml:"query_timeout"`
	// AutoMigrate creates missing tables at startup.
	AutoMigrate bool `yaml:"auto_migrate"`
}

// Store implements store.Store with sqlx.
type Store struct {
	db      *sqlx.DB
	timeout time.Duration
}

var _ store.Store = (*Store)(nil)

// Open connects to PostgreSQL and configures the pool.
func Open(cfg Config) (*Store, error) {
	db, err := sqlx.Connect("postgres", cfg.DSN)
	if err != nil {
		return nil, fmt.Errorf("pgstore: failed to connect to database: %w", err)
	}
	if cfg.MaxOpenConns > 0 {
		db.SetMaxOpenConns(cfg.MaxOpenConns)
	}
	if cfg.MaxIdleConns > 0 {
		db.SetMaxIdleConns(cfg.MaxIdleConns)
	}
	if cfg.ConnMaxLifetime > 0 {
		db.SetConnMaxLifetime(cfg.ConnMaxLifetime)
	}
	s := New(db)
	s.timeout = cfg.QueryTimeout
	return s, nil
}

// New wraps an existing connection.
func New(db *sqlx.DB) *Store {
	return &Store{db: db}
}

// Close closes the connection pool.
func (s *Store) Close() error {
	return s.db.Close()
}

// Ping checks if the database is reachable.
func (s *Store) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

func (s *Store) ctx(ctx context.Context) (context.Context, context.CancelFunc) {
	if s.timeout <= 0 {
		return ctx, func() {}
	}
	return context.WithTimeout(ctx, s.timeout)
}

// EnsureSchema creates the table of every model that does not exist yet.
func (s *Store) EnsureSchema(ctx context.Context, models ...schema.Model) error {
	for i := range models {
		ddl := createTable(&models[i])
		if _, err := s.db.ExecContext(ctx, ddl); err != nil {
			return fmt.Errorf("pgstore: create table %s: %w", models[i].TableName(), err)
		}
		log.Ctx(ctx).Info().Str("table", models[i].TableName()).Msg("table ensured")
	}
	return nil
}

func (s *Store) List(ctx context.Context, model *schema.Model, filter store.Filter) ([]schema.Record, error) {
	ctx, cancel := s.ctx(ctx)
	defer cancel()

	query, args := selectQuery(model, filter)
	rows, err := s.db.QueryxContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("pgstore: list %s: %w", model.Ref(), err)
	}
	defer rows.Close()

	out := []schema.Record{}
	for rows.Next() {
		row := map[string]any{}
		if err := rows.MapScan(row); err != nil {
			return nil, fmt.Errorf("pgstore: scan %s: %w", model.Ref(), err)
		}
		rec, err := canonical(model, row)
		if err != nil {
			return nil, err
		}
		out = append(out, rec)
	}
	return out, rows.Err()
}

func (s *Store) Get(ctx context.Context, model *schema.Model, key any) (schema.Record, error) {
	ctx, cancel := s.ctx(ctx)
	defer cancel()

	query, args := getQuery(model, key)
	return s.one(ctx, model, query, args)
}

func (s *Store) Insert(ctx context.Context, model *schema.Model, rec schema.Record) (schema.Record, error) {
	ctx, cancel := s.ctx(ctx)
	defer cancel()

	pk := model.PrimaryKey()
	rec = rec.Clone()
	if pk.Auto && pk.Type == schema.TypeUUID {
		rec[pk.Name] = uuid.NewString()
	}

	query, args := insertQuery(model, rec)
	out, err := s.one(ctx, model, query, args)
	var pqErr *pq.Error
	if errors.As(err, &pqErr) && pqErr.Code == uniqueViolation {
		return nil, fmt.Errorf("pgstore: %s: %w %v", model.Ref(), store.ErrDuplicateKey, rec[pk.Name])
	}
	return out, err
}

func (s *Store) Update(ctx context.Context, model *schema.Model, key any, rec schema.Record) (schema.Record, error) {
	ctx, cancel := s.ctx(ctx)
	defer cancel()

	query, args := updateQuery(model, key, rec)
	return s.one(ctx, model, query, args)
}

func (s *Store) Delete(ctx context.Context, model *schema.Model, key any) error {
	ctx, cancel := s.ctx(ctx)
	defer cancel()

	query, args := deleteQuery(model, key)
	result, err := s.db.ExecContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("pgstore: delete %s: %w", model.Ref(), err)
	}
	n, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return store.ErrNotFound
	}
	return nil
}

// one runs a statement expected to return a single row.
func (s *Store) one(ctx context.Context, model *schema.Model, query string, args []any) (schema.Record, error) {
	row := map[string]any{}
	err := s.db.QueryRowxContext(ctx, query, args...).MapScan(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, store.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("pgstore: %s: %w", model.Ref(), err)
	}
	return canonical(model, row)
}

// canonical turns driver values into record values. lib/pq hands back
// []byte for uuid and numeric columns.
func canonical(model *schema.Model, row map[string]any) (schema.Record, error) {
	for k, v := range row {
		if b, ok := v.([]byte); ok {
			row[k] = string(b)
		}
	}
	return store.Canonical(model, row)
}
