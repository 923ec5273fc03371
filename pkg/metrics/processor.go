package metrics

import (
	"errors"
	"fmt"
	"strconv"
	"time"
)

// Métricas emitidas por requisição e por recarga do registro.
var (
	RequestCount   = MetricDefinition{Name: "crud.requests", Type: TypeCount}
	RequestLatency = MetricDefinition{Name: "crud.request.latency_ms", Type: TypeHistogram}
	ErrorCount     = MetricDefinition{Name: "crud.errors", Type: TypeCount}
	ModelsLoaded   = MetricDefinition{Name: "crud.models", Type: TypeGauge}
)

// Observation descreve uma requisição atendida.
type Observation struct {
	Route   string
	Method  string
	Status  int
	Latency time.Duration
}

// Processor traduz observações do serviço em chamadas ao Provider.
type Processor struct {
	provider Provider
	baseTags []string
}

// NewProcessor cria um processador; baseTags acompanham todas as métricas.
func NewProcessor(provider Provider, baseTags ...string) *Processor {
	if provider == nil {
		provider = &NoopProvider{}
	}
	return &Processor{provider: provider, baseTags: baseTags}
}

// Observe registra contagem e latência e, para respostas 5xx, o erro.
func (p *Processor) Observe(o Observation) error {
	tags := p.tags(
		"route:"+o.Route,
		"method:"+o.Method,
		"status:"+strconv.Itoa(o.Status),
	)

	errs := []error{
		p.Emit(RequestCount, 1, tags),
		p.Emit(RequestLatency, float64(o.Latency.Milliseconds()), tags),
	}
	if o.Status >= 500 {
		errs = append(errs, p.Emit(ErrorCount, 1, tags))
	}
	return errors.Join(errs...)
}

// Models publica quantos modelos estão registrados.
func (p *Processor) Models(n int) error {
	return p.Emit(ModelsLoaded, float64(n), p.tags())
}

// Emit envia value para o Provider conforme o tipo da definição.
func (p *Processor) Emit(def MetricDefinition, value float64, tags []string) error {
	switch def.Type {
	case TypeCount:
		return p.provider.Count(def.Name, value, tags)
	case TypeGauge:
		return p.provider.Gauge(def.Name, value, tags)
	case TypeHistogram:
		return p.provider.Histogram(def.Name, value, tags)
	default:
		return fmt.Errorf("tipo de métrica desconhecido: %s", def.Type)
	}
}

func (p *Processor) tags(extra ...string) []string {
	out := make([]string, 0, len(p.baseTags)+len(extra))
	out = append(out, p.baseTags...)
	return append(out, extra...)
}
