package config

import (
	"time"

	"github.com/raywall/fast-crud-toolkit/schema"
)

// ServiceConfig representa a estrutura raiz do arquivo YAML do serviço.
type ServiceConfig struct {
	Version string         `yaml:"version" validate:"required"`
	Service ServiceDetails `yaml:"service" validate:"required"`
	API     APIConf        `yaml:"api"`
	Storage StorageConf    `yaml:"storage" validate:"required"`
	// Models declarados inline.
	Models []schema.Model `yaml:"models" validate:"dive"`
	// ModelFiles aponta para arquivos adicionais de modelos (local, s3:// ou dynamodb://).
	ModelFiles []string `yaml:"model_files"`
}

// ServiceDetails contém os metadados e configurações de runtime do serviço.
type ServiceDetails struct {
	Name    string      `yaml:"name" validate:"required,hostname_rfc1123"`
	Runtime string      `yaml:"runtime" validate:"required,oneof=local lambda"`
	Port    int         `yaml:"port" validate:"required_if=Runtime local"` // Obrigatório apenas se local
	Timeout string      `yaml:"timeout" validate:"required"`              // Ex: "500ms", "2s"
	Logging LoggingConf `yaml:"logging"`
	Metrics MetricsConf `yaml:"metrics"`
	Reload  ReloadConf  `yaml:"reload"`
}

// APIConf controla as rotas geradas.
type APIConf struct {
	Prefix         string `yaml:"prefix" validate:"omitempty,startswith=/"`
	Lookup         string `yaml:"lookup" validate:"omitempty,alphanum"`
	DisableFilters bool   `yaml:"disable_filters"`
}

// StorageConf seleciona o backend de persistência.
type StorageConf struct {
	Driver   string        `yaml:"driver" validate:"required,oneof=memory postgres dynamodb redis"`
	Postgres *PostgresConf `yaml:"postgres"`
	DynamoDB *DynamoConf   `yaml:"dynamodb"`
	Redis    *RedisConf    `yaml:"redis"`
}

type PostgresConf struct {
	DSN             string `yaml:"dsn" env:"DATABASE_URL" validate:"required"`
	MaxOpenConns    int    `yaml:"max_open_conns" validate:"gte=0"`
	MaxIdleConns    int    `yaml:"max_idle_conns" validate:"gte=0"`
	ConnMaxLifetime string `yaml:"conn_max_lifetime"`
	QueryTimeout    string `yaml:"query_timeout"`
	AutoMigrate     bool   `yaml:"auto_migrate"`
}

type DynamoConf struct {
	Region        string `yaml:"region" env:"AWS_REGION"`
	TablePrefix   string `yaml:"table_prefix"`
	SequenceTable string `yaml:"sequence_table"`
	// PageSize limita cada página de Scan/Query; 0 deixa o DynamoDB decidir.
	PageSize int32 `yaml:"page_size" validate:"gte=0"`
	// Indexes mapeia "app.modelo" -> campo -> GSI usado quando a listagem filtra por esse campo.
	Indexes map[string]map[string]string `yaml:"indexes"`
}

type RedisConf struct {
	Addr     string `yaml:"addr" env:"REDIS_ADDR" validate:"required"`
	Password string `yaml:"password"`
	DB       int    `yaml:"db" validate:"gte=0"`
	Prefix   string `yaml:"prefix"`
}

// ReloadConf habilita o hot reload via SQS.
type ReloadConf struct {
	SQSQueueURL string `yaml:"sqs_queue_url" validate:"omitempty,url"`
	WaitSeconds int32  `yaml:"wait_seconds" validate:"gte=0,lte=20"`
}

type LoggingConf struct {
	Enabled bool   `yaml:"enabled"`
	Level   string `yaml:"level" validate:"omitempty,oneof=debug info warn error"`
	Format  string `yaml:"format" validate:"omitempty,oneof=json console"`
}

type MetricsConf struct {
	Datadog DatadogConf `yaml:"datadog"`
}

type DatadogConf struct {
	Enabled   bool   `yaml:"enabled" env:"DD_ENABLED"`
	Addr      string `yaml:"addr" env:"DD_AGENT_HOST" validate:"required_if=Enabled true"`
	Namespace string `yaml:"namespace"`
}

func (s ServiceDetails) GetTimeout() time.Duration {
	d, err := time.ParseDuration(s.Timeout)
	if err != nil {
		return 30 * time.Second
	}
	return d
}

// ParseDuration devolve def quando s está vazio ou é inválido.
func ParseDuration(s string, def time.Duration) time.Duration {
	if s == "" {
		return def
	}
	d, err := time.ParseDuration(s)
	if err != nil {
		return def
	}
	return d
}
