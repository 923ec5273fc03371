package metrics

import (
	"errors"
	"testing"
	"time"

	"github.com/raywall/fast-crud-toolkit/pkg/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

// MockProvider para verificar chamadas
type MockProvider struct {
	mock.Mock
}

func (m *MockProvider) Count(name string, val float64, tags []string) error {
	return m.Called(name, val, tags).Error(0)
}

func (m *MockProvider) Gauge(name string, val float64, tags []string) error {
	return m.Called(name, val, tags).Error(0)
}

func (m *MockProvider) Histogram(name string, val float64, tags []string) error {
	return m.Called(name, val, tags).Error(0)
}

func TestProcessor_Observe(t *testing.T) {
	t.Run("Deve registrar contagem e latência", func(t *testing.T) {
		provider := new(MockProvider)
		tags := []string{"service:crud", "route:widget_list", "method:GET", "status:200"}
		provider.On("Count", "crud.requests", 1.0, tags).Return(nil).Once()
		provider.On("Histogram", "crud.request.latency_ms", 150.0, tags).Return(nil).Once()

		p := NewProcessor(provider, "service:crud")
		err := p.Observe(Observation{Route: "widget_list", Method: "GET", Status: 200, Latency: 150 * time.Millisecond})

		require.NoError(t, err)
		provider.AssertExpectations(t)
	})

	t.Run("Respostas 5xx contam como erro", func(t *testing.T) {
		provider := new(MockProvider)
		provider.On("Count", "crud.requests", 1.0, mock.Anything).Return(nil)
		provider.On("Histogram", "crud.request.latency_ms", mock.Anything, mock.Anything).Return(nil)
		provider.On("Count", "crud.errors", 1.0, mock.Anything).Return(nil).Once()

		p := NewProcessor(provider)
		require.NoError(t, p.Observe(Observation{Route: "widget_create", Method: "POST", Status: 500}))
		provider.AssertExpectations(t)
	})

	t.Run("Erros do provider são agregados", func(t *testing.T) {
		provider := new(MockProvider)
		provider.On("Count", mock.Anything, mock.Anything, mock.Anything).Return(errors.New("udp closed"))
		provider.On("Histogram", mock.Anything, mock.Anything, mock.Anything).Return(nil)

		err := NewProcessor(provider).Observe(Observation{Route: "x", Method: "GET", Status: 200})
		assert.ErrorContains(t, err, "udp closed")
	})
}

func TestProcessor_ModelsAndEmit(t *testing.T) {
	provider := new(MockProvider)
	provider.On("Gauge", "crud.models", 3.0, []string{}).Return(nil).Once()

	p := NewProcessor(provider)
	require.NoError(t, p.Models(3))
	provider.AssertExpectations(t)

	err := p.Emit(MetricDefinition{Name: "x", Type: "summary"}, 1, nil)
	assert.ErrorContains(t, err, "desconhecido")

	assert.NoError(t, NewProcessor(nil).Models(1))
}

func TestSetup(t *testing.T) {
	t.Run("Disabled returns Noop", func(t *testing.T) {
		provider, err := Setup(config.MetricsConf{})
		require.NoError(t, err)
		assert.IsType(t, &NoopProvider{}, provider)
	})

	t.Run("Enabled returns Datadog", func(t *testing.T) {
		provider, err := Setup(config.MetricsConf{
			Datadog: config.DatadogConf{Enabled: true, Addr: "localhost:8125", Namespace: "crud."},
		})
		require.NoError(t, err)
		require.IsType(t, &DatadogProvider{}, provider)
		assert.NoError(t, provider.Count("requests", 1, nil))
		assert.NoError(t, provider.(*DatadogProvider).Close())
	})
}

type closingProvider struct {
	NoopProvider
	closed int
	err    error
}

func (c *closingProvider) Close() error {
	c.closed++
	return c.err
}

func TestClose(t *testing.T) {
	assert.NoError(t, Close(&NoopProvider{}))
	assert.NoError(t, Close(nil))

	p := &closingProvider{}
	assert.NoError(t, Close(p))
	assert.Equal(t, 1, p.closed)

	p.err = errors.New("socket closed")
	assert.ErrorContains(t, Close(p), "socket closed")
}
