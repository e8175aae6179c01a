package metrics

import (
	"context"
	"sync"

	"github.com/hilthontt/burnchat/infrastructure/logger"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	"go.uber.org/zap"
)

// Manager registers instruments once by name and records values against them.
type Manager interface {
	NewCounter(name, desc string)
	NewUpDownCounter(name, desc string)
	NewHistogram(name, desc string, buckets ...float64)
	NewGauge(name, desc string)

	IncrementCounter(ctx context.Context, name string, labels ...attribute.KeyValue)
	DeltaUpDownCounter(ctx context.Context, name string, value float64, labels ...attribute.KeyValue)
	RecordHistogram(ctx context.Context, name string, value float64, labels ...attribute.KeyValue)
	SetGauge(name string, value float64, labels ...attribute.KeyValue)
}

type gauge struct {
	mu     sync.Mutex
	values map[attribute.Distinct]gaugeValue
}

type gaugeValue struct {
	value float64
	attrs attribute.Set
}

type metricsManager struct {
	meter  metric.Meter
	logger *logger.Logger

	mu             sync.RWMutex
	counters       map[string]metric.Float64Counter
	upDownCounters map[string]metric.Float64UpDownCounter
	histograms     map[string]metric.Float64Histogram
	gauges         map[string]*gauge
}

func NewMetricsManager(meter metric.Meter, logger *logger.Logger) Manager {
	return &metricsManager{
		meter:          meter,
		logger:         logger,
		counters:       make(map[string]metric.Float64Counter),
		upDownCounters: make(map[string]metric.Float64UpDownCounter),
		histograms:     make(map[string]metric.Float64Histogram),
		gauges:         make(map[string]*gauge),
	}
}

func (m *metricsManager) NewCounter(name, desc string) {
	counter, err := m.meter.Float64Counter(name, metric.WithDescription(desc))
	if err != nil {
		m.logger.Error("failed to create counter", zap.String("name", name), zap.Error(err))
		return
	}

	m.mu.Lock()
	m.counters[name] = counter
	m.mu.Unlock()
}

func (m *metricsManager) NewUpDownCounter(name, desc string) {
	counter, err := m.meter.Float64UpDownCounter(name, metric.WithDescription(desc))
	if err != nil {
		m.logger.Error("failed to create up-down counter", zap.String("name", name), zap.Error(err))
		return
	}

	m.mu.Lock()
	m.upDownCounters[name] = counter
	m.mu.Unlock()
}

func (m *metricsManager) NewHistogram(name, desc string, buckets ...float64) {
	opts := []metric.Float64HistogramOption{metric.WithDescription(desc)}
	if len(buckets) > 0 {
		opts = append(opts, metric.WithExplicitBucketBoundaries(buckets...))
	}

	histogram, err := m.meter.Float64Histogram(name, opts...)
	if err != nil {
		m.logger.Error("failed to create histogram", zap.String("name", name), zap.Error(err))
		return
	}

	m.mu.Lock()
	m.histograms[name] = histogram
	m.mu.Unlock()
}

// NewGauge registers an observable gauge that reports the last value set
// for each label set.
func (m *metricsManager) NewGauge(name, desc string) {
	g := &gauge{values: make(map[attribute.Distinct]gaugeValue)}

	_, err := m.meter.Float64ObservableGauge(name,
		metric.WithDescription(desc),
		metric.WithFloat64Callback(func(_ context.Context, o metric.Float64Observer) error {
			g.mu.Lock()
			defer g.mu.Unlock()
			for _, v := range g.values {
				o.Observe(v.value, metric.WithAttributeSet(v.attrs))
			}
			return nil
		}),
	)
	if err != nil {
		m.logger.Error("failed to create gauge", zap.String("name", name), zap.Error(err))
		return
	}

	m.mu.Lock()
	m.gauges[name] = g
	m.mu.Unlock()
}

func (m *metricsManager) IncrementCounter(ctx context.Context, name string, labels ...attribute.KeyValue) {
	m.mu.RLock()
	counter, ok := m.counters[name]
	m.mu.RUnlock()
	if !ok {
		m.logger.Warn("counter not registered", zap.String("name", name))
		return
	}
	counter.Add(ctx, 1, metric.WithAttributes(labels...))
}

func (m *metricsManager) DeltaUpDownCounter(ctx context.Context, name string, value float64, labels ...attribute.KeyValue) {
	m.mu.RLock()
	counter, ok := m.upDownCounters[name]
	m.mu.RUnlock()
	if !ok {
		m.logger.Warn("up-down counter not registered", zap.String("name", name))
		return
	}
	counter.Add(ctx, value, metric.WithAttributes(labels...))
}

func (m *metricsManager) RecordHistogram(ctx context.Context, name string, value float64, labels ...attribute.KeyValue) {
	m.mu.RLock()
	histogram, ok := m.histograms[name]
	m.mu.RUnlock()
	if !ok {
		m.logger.Warn("histogram not registered", zap.String("name", name))
		return
	}
	histogram.Record(ctx, value, metric.WithAttributes(labels...))
}

func (m *metricsManager) SetGauge(name string, value float64, labels ...attribute.KeyValue) {
	m.mu.RLock()
	g, ok := m.gauges[name]
	m.mu.RUnlock()
	if !ok {
		m.logger.Warn("gauge not registered", zap.String("name", name))
		return
	}

	attrs := attribute.NewSet(labels...)
	g.mu.Lock()
	g.values[attrs.Equivalent()] = gaugeValue{value: value, attrs: attrs}
	g.mu.Unlock()
}
