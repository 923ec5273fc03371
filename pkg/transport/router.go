// Package transport expõe as rotas geradas via HTTP local ou AWS Lambda e
// mantém o hot reload via SQS.
package transport

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/mux"
	"github.com/raywall/fast-crud-toolkit/crud"
	"github.com/raywall/fast-crud-toolkit/pkg/metrics"
	"github.com/rs/zerolog/log"
)

const (
	HeaderCorrelationID = "x-correlation-id"
	HeaderLatency       = "x-latency-ms"
)

type ctxKey string

// ContextKeyCorrID guarda o correlation id no contexto da requisição.
const ContextKeyCorrID ctxKey = "correlation_id"

// RouterOptions configura NewRouter.
type RouterOptions struct {
	// Timeout limita cada requisição; zero desativa.
	Timeout time.Duration
	Metrics *metrics.Processor
}

// NewRouter registra as rotas no gorilla/mux pelo caminho e nome.
// Os métodos não são restritos no mux: o próprio handler responde 405 com Allow.
func NewRouter(routes []crud.Route, opts RouterOptions) *mux.Router {
	router := mux.NewRouter()
	router.NotFoundHandler = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		writeDetail(w, http.StatusNotFound, "Not found.")
	})

	for _, rt := range routes {
		router.Handle(rt.Path, rt.Handler).Name(rt.Name)
	}

	router.Use(ObservabilityMiddleware(opts.Metrics))
	if opts.Timeout > 0 {
		router.Use(TimeoutMiddleware(opts.Timeout))
	}
	return router
}

// URLFor monta o caminho da rota nomeada, ex: URLFor(r, "widget_retrieve", "pk", "1").
func URLFor(router *mux.Router, name string, pairs ...string) (string, error) {
	route := router.Get(name)
	if route == nil {
		return "", fmt.Errorf("rota não registrada: %s", name)
	}
	u, err := route.URL(pairs...)
	if err != nil {
		return "", err
	}
	return u.String(), nil
}

// Switch é um http.Handler trocável em tempo de execução (hot reload).
type Switch struct {
	current atomic.Value
}

func NewSwitch(h http.Handler) *Switch {
	s := &Switch{}
	s.Swap(h)
	return s
}

// Swap publica um novo handler; requisições em andamento terminam no anterior.
func (s *Switch) Swap(h http.Handler) {
	s.current.Store(&h)
}

func (s *Switch) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	h := s.current.Load().(*http.Handler)
	(*h).ServeHTTP(w, r)
}

// StartHTTPServer atende handler em addr até ctx ser cancelado.
func StartHTTPServer(ctx context.Context, addr string, handler http.Handler) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info().Msgf("Servidor HTTP ouvindo em %s", addr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	}
}

// TimeoutMiddleware aplica o timeout do serviço ao contexto da requisição.
// Os stores respeitam o prazo e o handler responde 504.
func TimeoutMiddleware(d time.Duration) mux.MiddlewareFunc {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx, cancel := context.WithTimeout(r.Context(), d)
			defer cancel()
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// --- MIDDLEWARE DE OBSERVABILIDADE ---

type responseWriterWrapper struct {
	http.ResponseWriter
	statusCode  int
	startTime   time.Time
	wroteHeader bool
}

func (rw *responseWriterWrapper) WriteHeader(code int) {
	if rw.wroteHeader {
		return
	}
	rw.statusCode = code
	duration := time.Since(rw.startTime)
	rw.Header().Set(HeaderLatency, strconv.FormatInt(duration.Milliseconds(), 10))
	rw.ResponseWriter.WriteHeader(code)
	rw.wroteHeader = true
}

func (rw *responseWriterWrapper) Write(b []byte) (int, error) {
	if !rw.wroteHeader {
		rw.WriteHeader(http.StatusOK)
	}
	return rw.ResponseWriter.Write(b)
}

// ObservabilityMiddleware propaga o correlation id, injeta o logger no contexto
// e registra latência e status por rota.
func ObservabilityMiddleware(proc *metrics.Processor) mux.MiddlewareFunc {
	if proc == nil {
		proc = metrics.NewProcessor(nil)
	}
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			corrID := r.Header.Get(HeaderCorrelationID)
			if corrID == "" {
				corrID = uuid.NewString()
			}
			w.Header().Set(HeaderCorrelationID, corrID)

			route := "unmatched"
			if current := mux.CurrentRoute(r); current != nil && current.GetName() != "" {
				route = current.GetName()
			}

			logger := log.Ctx(r.Context()).With().
				Str("correlation_id", corrID).
				Str("route", route).
				Logger()
			ctx := logger.WithContext(r.Context())
			ctx = context.WithValue(ctx, ContextKeyCorrID, corrID)

			wrapper := &responseWriterWrapper{
				ResponseWriter: w,
				statusCode:     http.StatusOK,
				startTime:      start,
			}

			next.ServeHTTP(wrapper, r.WithContext(ctx))

			latency := time.Since(start)
			if err := proc.Observe(metrics.Observation{
				Route:   route,
				Method:  r.Method,
				Status:  wrapper.statusCode,
				Latency: latency,
			}); err != nil {
				logger.Warn().Err(err).Msg("falha ao registrar métricas")
			}

			logger.Info().
				Str("method", r.Method).
				Str("path", r.URL.Path).
				Int("status", wrapper.statusCode).
				Int64("latency_ms", latency.Milliseconds()).
				Msg("request completed")
		})
	}
}

func writeDetail(w http.ResponseWriter, code int, detail string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(crud.ErrorResponse{Detail: detail})
}
