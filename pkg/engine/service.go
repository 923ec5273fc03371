// Package engine monta o serviço CRUD a partir da configuração: registro de
// modelos, backend de storage, sintetizador de rotas e hot reload.
package engine

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"sync"

	"github.com/raywall/fast-crud-toolkit/crud"
	"github.com/raywall/fast-crud-toolkit/pkg/config"
	"github.com/raywall/fast-crud-toolkit/pkg/logger"
	"github.com/raywall/fast-crud-toolkit/pkg/metrics"
	"github.com/raywall/fast-crud-toolkit/pkg/transport"
	"github.com/raywall/fast-crud-toolkit/schema"
	"github.com/rs/zerolog"
)

// ConfigLoader lê a configuração de uma fonte (arquivo, s3:// ou dynamodb://).
type ConfigLoader func(ctx context.Context, source string) (*config.ServiceConfig, error)

type ServiceEngine struct {
	mu              sync.Mutex
	ConfigSource    string
	Config          *config.ServiceConfig
	Logger          zerolog.Logger
	Metrics         metrics.Provider
	MetricProcessor *metrics.Processor
	Registry        *schema.Registry
	Backend         *Backend
	Synthesizer     *crud.Synthesizer
	// Loader é usado pelo Reload; padrão config.NewUniversalLoader().Load.
	Loader ConfigLoader

	handler *transport.Switch
}

// NewServiceEngine monta o serviço. Com backend nil o driver de cfg.Storage é aberto.
func NewServiceEngine(ctx context.Context, cfg *config.ServiceConfig, configSource string, backend *Backend) (*ServiceEngine, error) {
	log := logger.Configure(cfg.Service.Logging, cfg.Service.Name)
	ctx = log.WithContext(ctx)

	metricProvider, err := metrics.Setup(cfg.Service.Metrics)
	if err != nil {
		return nil, fmt.Errorf("falha métricas: %w", err)
	}
	ownBackend := backend == nil
	fail := func(err error) (*ServiceEngine, error) {
		if ownBackend && backend != nil && backend.Close != nil {
			_ = backend.Close()
		}
		_ = metrics.Close(metricProvider)
		return nil, err
	}

	registry, err := schema.NewRegistry(cfg.Models...)
	if err != nil {
		return fail(fmt.Errorf("falha ao registrar modelos: %w", err))
	}

	if ownBackend {
		backend, err = OpenBackend(ctx, cfg.Storage)
		if err != nil {
			return fail(fmt.Errorf("falha storage: %w", err))
		}
	}
	if backend.Migrate != nil {
		if err := backend.Migrate(ctx, cfg.Models...); err != nil {
			return fail(fmt.Errorf("falha migração: %w", err))
		}
	}

	se := &ServiceEngine{
		ConfigSource:    configSource,
		Config:          cfg,
		Logger:          log,
		Metrics:         metricProvider,
		MetricProcessor: metrics.NewProcessor(metricProvider, "service:"+cfg.Service.Name),
		Registry:        registry,
		Backend:         backend,
		Synthesizer: crud.New(crud.Options{
			Registry:       registry,
			Store:          backend.Store,
			Lookup:         cfg.API.Lookup,
			Prefix:         cfg.API.Prefix,
			DisableFilters: cfg.API.DisableFilters,
		}),
		Loader: config.NewUniversalLoader().Load,
	}

	router, err := se.buildRouter()
	if err != nil {
		return fail(err)
	}
	se.handler = transport.NewSwitch(router)

	log.Info().
		Str("driver", backend.Driver).
		Int("models", len(cfg.Models)).
		Msg("Serviço CRUD inicializado")
	return se, nil
}

// Handler devolve o http.Handler do serviço; continua válido após cada Reload.
func (se *ServiceEngine) Handler() http.Handler {
	return se.handler
}

func (se *ServiceEngine) buildRouter() (http.Handler, error) {
	refs := se.Registry.Refs()
	routes, err := se.Synthesizer.RoutesFor(refs...)
	if err != nil {
		return nil, fmt.Errorf("falha ao gerar rotas: %w", err)
	}
	for _, rt := range routes {
		se.Logger.Debug().Str("route", rt.Name).Str("path", rt.Path).Strs("methods", rt.Methods).Msg("rota registrada")
	}
	if err := se.MetricProcessor.Models(len(refs)); err != nil {
		se.Logger.Warn().Err(err).Msg("falha ao publicar métrica de modelos")
	}
	return transport.NewRouter(routes, transport.RouterOptions{
		Timeout: se.Config.Service.GetTimeout(),
		Metrics: se.MetricProcessor,
	}), nil
}

// Reload relê a configuração e troca modelos e rotas. Mudanças de service, api
// e storage só valem após reinício. Em caso de erro o conjunto anterior continua ativo.
func (se *ServiceEngine) Reload(ctx context.Context) error {
	se.mu.Lock()
	defer se.mu.Unlock()

	ctx = se.Logger.WithContext(ctx)
	se.Logger.Info().Msgf("Hot Reload iniciado. Buscando config em: %s", se.ConfigSource)

	newCfg, err := se.Loader(ctx, se.ConfigSource)
	if err != nil {
		return fmt.Errorf("falha ao carregar nova configuração: %w", err)
	}
	if newCfg.Storage.Driver != se.Config.Storage.Driver || newCfg.API != se.Config.API {
		se.Logger.Warn().Msg("mudanças em storage/api exigem reinício e foram ignoradas")
	}

	if se.Backend.Migrate != nil {
		if err := se.Backend.Migrate(ctx, newCfg.Models...); err != nil {
			return fmt.Errorf("falha migração: %w", err)
		}
	}
	if err := se.Registry.Replace(newCfg.Models); err != nil {
		return fmt.Errorf("modelos inválidos: %w", err)
	}

	router, err := se.buildRouter()
	if err != nil {
		return err
	}
	se.handler.Swap(router)

	se.Config.Models = newCfg.Models
	se.Config.ModelFiles = newCfg.ModelFiles
	se.Logger.Info().Int("models", len(newCfg.Models)).Msg("Hot Reload concluído com sucesso")
	return nil
}

// Close libera o backend de storage e o cliente de métricas.
func (se *ServiceEngine) Close() error {
	var errs []error
	if se.Backend != nil && se.Backend.Close != nil {
		errs = append(errs, se.Backend.Close())
	}
	errs = append(errs, metrics.Close(se.Metrics))
	return errors.Join(errs...)
}
