package logger

import (
	"bytes"
	"context"
	"testing"

	"github.com/raywall/fast-crud-toolkit/pkg/config"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/stretchr/testify/assert"
)

func TestConfigure(t *testing.T) {
	t.Cleanup(func() {
		zerolog.SetGlobalLevel(zerolog.TraceLevel)
		zerolog.DefaultContextLogger = nil
	})

	t.Run("Default Level Info", func(t *testing.T) {
		_ = Configure(config.LoggingConf{Enabled: true}, "")
		assert.Equal(t, zerolog.InfoLevel, zerolog.GlobalLevel())
	})

	t.Run("Custom Level Debug", func(t *testing.T) {
		_ = Configure(config.LoggingConf{Enabled: true, Level: "debug"}, "")
		assert.Equal(t, zerolog.DebugLevel, zerolog.GlobalLevel())
	})

	t.Run("JSON com nome do serviço", func(t *testing.T) {
		var buf bytes.Buffer
		logger := configure(config.LoggingConf{Enabled: true, Format: "json"}, "crud", &buf)
		logger.Info().Msg("pronto")

		assert.Contains(t, buf.String(), `"service":"crud"`)
		assert.Contains(t, buf.String(), `"message":"pronto"`)
	})

	t.Run("Contexto sem logger usa o padrão", func(t *testing.T) {
		var buf bytes.Buffer
		_ = configure(config.LoggingConf{Enabled: true}, "crud", &buf)
		log.Ctx(context.Background()).Warn().Msg("fallback")

		assert.Contains(t, buf.String(), "fallback")
	})

	t.Run("Disabled Logger", func(t *testing.T) {
		var buf bytes.Buffer
		logger := configure(config.LoggingConf{Enabled: false}, "crud", &buf)
		logger.Info().Msg("teste")

		assert.Empty(t, buf.String())
	})
}
