package engine

import (
	"testing"

	"github.com/raywall/fast-crud-toolkit/pkg/config"
	"github.com/raywall/fast-crud-toolkit/schema"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAnalyze_Detection(t *testing.T) {
	t.Run("Configuração válida lista rotas e avisos", func(t *testing.T) {
		cfg := testConfig()
		cfg.Service.Runtime = "lambda"

		report, err := Analyze(cfg)
		require.NoError(t, err)

		assert.True(t, report.Valid)
		assert.Len(t, report.Routes, 5)
		assert.Contains(t, report.Routes, "[GET] /api/note/retrieve/{pk} (note_retrieve)")
		assert.Contains(t, report.Warnings, "storage memory em lambda perde os dados a cada cold start")
		assert.Contains(t, report.Warnings, "Modelo blog.note: campo 'body' sem max_length")
	})

	t.Run("Erros estruturais invalidam", func(t *testing.T) {
		cfg := testConfig()
		cfg.Models = append(cfg.Models, schema.Model{
			App:    "blog",
			Name:   "tag",
			Fields: []schema.Field{{Name: "label", Type: schema.TypeString}},
		})

		report, err := Analyze(cfg)
		require.NoError(t, err)
		assert.False(t, report.Valid)
		assert.GreaterOrEqual(t, len(report.Errors), 2)
	})

	t.Run("Postgres sem migração", func(t *testing.T) {
		cfg := testConfig()
		cfg.Storage = config.StorageConf{Driver: "postgres", Postgres: &config.PostgresConf{DSN: "postgres://db/crud"}}

		report, err := Analyze(cfg)
		require.NoError(t, err)
		assert.Contains(t, report.Warnings, "postgres sem auto_migrate: as tabelas precisam existir")
	})

	_, err := Analyze(nil)
	assert.Error(t, err)
}
