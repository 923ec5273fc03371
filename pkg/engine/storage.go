package engine

import (
	"context"
	"fmt"
	"time"

	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/raywall/fast-crud-toolkit/pkg/awsutil"
	"github.com/raywall/fast-crud-toolkit/pkg/config"
	"github.com/raywall/fast-crud-toolkit/schema"
	"github.com/raywall/fast-crud-toolkit/store"
	"github.com/raywall/fast-crud-toolkit/store/dynstore"
	"github.com/raywall/fast-crud-toolkit/store/memstore"
	"github.com/raywall/fast-crud-toolkit/store/pgstore"
	"github.com/raywall/fast-crud-toolkit/store/redisstore"
)

// Backend agrupa o store escolhido e os hooks opcionais do driver.
type Backend struct {
	Driver string
	Store  store.Store
	// Migrate cria as tabelas dos modelos; nil quando o driver não precisa.
	Migrate func(ctx context.Context, models ...schema.Model) error
	Close   func() error
}

// MemoryBackend devolve um backend em memória, usado em testes e no driver "memory".
func MemoryBackend() *Backend {
	return &Backend{Driver: "memory", Store: memstore.New(), Close: func() error { return nil }}
}

// OpenBackend conecta no driver configurado.
func OpenBackend(ctx context.Context, cfg config.StorageConf) (*Backend, error) {
	switch cfg.Driver {
	case "", "memory":
		return MemoryBackend(), nil

	case "postgres":
		if cfg.Postgres == nil {
			return nil, fmt.Errorf("storage.postgres não configurado")
		}
		pg, err := pgstore.Open(pgstore.Config{
			DSN:             cfg.Postgres.DSN,
			MaxOpenConns:    cfg.Postgres.MaxOpenConns,
			MaxIdleConns:    cfg.Postgres.MaxIdleConns,
			ConnMaxLifetime: config.ParseDuration(cfg.Postgres.ConnMaxLifetime, 0),
			QueryTimeout:    config.ParseDuration(cfg.Postgres.QueryTimeout, 5*time.Second),
			AutoMigrate:     cfg.Postgres.AutoMigrate,
		})
		if err != nil {
			return nil, err
		}
		b := &Backend{Driver: cfg.Driver, Store: pg, Close: pg.Close}
		if cfg.Postgres.AutoMigrate {
			b.Migrate = pg.EnsureSchema
		}
		return b, nil

	case "dynamodb":
		var dc config.DynamoConf
		if cfg.DynamoDB != nil {
			dc = *cfg.DynamoDB
		}
		awsCfg, err := awsutil.GetAWSConfig(ctx, dc.Region)
		if err != nil {
			return nil, fmt.Errorf("falha ao carregar configuração AWS: %w", err)
		}
		st := dynstore.New(dynamodb.NewFromConfig(awsCfg), dynstore.Options{
			TablePrefix:   dc.TablePrefix,
			SequenceTable: dc.SequenceTable,
			PageSize:      dc.PageSize,
			Indexes:       dc.Indexes,
		})
		return &Backend{Driver: cfg.Driver, Store: st, Close: func() error { return nil }}, nil

	case "redis":
		if cfg.Redis == nil {
			return nil, fmt.Errorf("storage.redis não configurado")
		}
		rs := redisstore.Open(redisstore.Config{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
			Prefix:   cfg.Redis.Prefix,
		})
		return &Backend{Driver: cfg.Driver, Store: rs, Close: rs.Close}, nil
	}
	return nil, fmt.Errorf("driver de storage desconhecido: %s", cfg.Driver)
}
