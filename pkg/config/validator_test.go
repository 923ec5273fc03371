package config

import (
	"testing"

	"github.com/raywall/fast-crud-toolkit/schema"
	"github.com/stretchr/testify/assert"
)

func widgetModel(app string) schema.Model {
	return schema.Model{
		App:  app,
		Name: "widget",
		Fields: []schema.Field{
			{Name: "id", Type: schema.TypeInteger, PrimaryKey: true, Auto: true},
			{Name: "name", Type: schema.TypeString, Required: true, MaxLength: 16},
		},
	}
}

func validConfig() *ServiceConfig {
	return &ServiceConfig{
		Version: "1.0",
		Service: ServiceDetails{
			Name:    "test-service",
			Runtime: "local",
			Port:    8080,
			Timeout: "5s",
			Logging: LoggingConf{Enabled: true, Level: "info", Format: "console"},
		},
		API:     APIConf{Prefix: "/api"},
		Storage: StorageConf{Driver: "memory"},
		Models:  []schema.Model{widgetModel("shop")},
	}
}

func TestValidator_Validate(t *testing.T) {
	validator := NewValidator()

	tests := []struct {
		name    string
		mutate  func(c *ServiceConfig)
		wantErr string
	}{
		{name: "Valid Config", mutate: func(c *ServiceConfig) {}},
		{
			name:   "Lambda sem porta",
			mutate: func(c *ServiceConfig) { c.Service.Runtime = "lambda"; c.Service.Port = 0 },
		},
		{
			name:    "Local sem porta",
			mutate:  func(c *ServiceConfig) { c.Service.Port = 0 },
			wantErr: "required_if",
		},
		{
			name:    "Driver desconhecido",
			mutate:  func(c *ServiceConfig) { c.Storage.Driver = "mongo" },
			wantErr: "oneof",
		},
		{
			name:    "Postgres sem seção",
			mutate:  func(c *ServiceConfig) { c.Storage.Driver = "postgres" },
			wantErr: "storage.postgres",
		},
		{
			name: "Postgres configurado",
			mutate: func(c *ServiceConfig) {
				c.Storage.Driver = "postgres"
				c.Storage.Postgres = &PostgresConf{DSN: "postgres://localhost/crud"}
			},
		},
		{
			name:    "Redis sem seção",
			mutate:  func(c *ServiceConfig) { c.Storage.Driver = "redis" },
			wantErr: "storage.redis",
		},
		{
			name:    "Timeout inválido",
			mutate:  func(c *ServiceConfig) { c.Service.Timeout = "soon" },
			wantErr: "timeout",
		},
		{
			name:    "Prefixo sem barra",
			mutate:  func(c *ServiceConfig) { c.API.Prefix = "api" },
			wantErr: "startswith",
		},
		{
			name:    "Sem modelos",
			mutate:  func(c *ServiceConfig) { c.Models = nil },
			wantErr: "nenhum modelo",
		},
		{
			name:    "Modelo duplicado",
			mutate:  func(c *ServiceConfig) { c.Models = append(c.Models, widgetModel("SHOP")) },
			wantErr: "duplicado",
		},
		{
			name:    "Rotas em conflito",
			mutate:  func(c *ServiceConfig) { c.Models = append(c.Models, widgetModel("billing")) },
			wantErr: "mesmas rotas",
		},
		{
			name: "Modelo sem chave primária",
			mutate: func(c *ServiceConfig) {
				c.Models[0].Fields = []schema.Field{{Name: "name", Type: schema.TypeString}}
			},
			wantErr: "primary",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := validConfig()
			tt.mutate(cfg)
			err := validator.Validate(cfg)
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			assert.ErrorContains(t, err, tt.wantErr)
		})
	}
}

func TestParseDuration(t *testing.T) {
	assert.Equal(t, "2s", ParseDuration("2s", 0).String())
	assert.Equal(t, "1m0s", ParseDuration("", 60e9).String())
	assert.Equal(t, "1m0s", ParseDuration("nope", 60e9).String())
	assert.Equal(t, "30s", ServiceDetails{Timeout: "bad"}.GetTimeout().String())
}
