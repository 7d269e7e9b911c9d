package metrics

import (
	"sync"

	"github.com/haguru/myblog/internal/interfaces"
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics is a flexible Prometheus metrics collector keyed by metric name.
type Metrics struct {
	Registry    *prometheus.Registry
	namespace   string
	mu          sync.RWMutex
	counters    map[string]prometheus.Counter
	counterVecs map[string]*prometheus.CounterVec
	histograms  map[string]prometheus.Histogram
	gauges      map[string]prometheus.Gauge
}

// NewMetrics creates a new Metrics instance; every metric is prefixed with serviceName.
func NewMetrics(serviceName string) interfaces.Metrics {
	return &Metrics{
		Registry:    prometheus.NewRegistry(),
		namespace:   serviceName,
		counters:    make(map[string]prometheus.Counter),
		counterVecs: make(map[string]*prometheus.CounterVec),
		histograms:  make(map[string]prometheus.Histogram),
		gauges:      make(map[string]prometheus.Gauge),
	}
}

// GetRegistry returns the Prometheus registry.
func (m *Metrics) GetRegistry() *prometheus.Registry {
	return m.Registry
}

// RegisterCounter registers a new counter metric.
func (m *Metrics) RegisterCounter(name, help string) {
	counter := prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Name:      name,
		Help:      help,
	})
	m.Registry.MustRegister(counter)

	m.mu.Lock()
	defer m.mu.Unlock()
	m.counters[name] = counter
}

// RegisterCounterVec registers a new counter metric with labels.
func (m *Metrics) RegisterCounterVec(name, help string, labels []string) {
	counterVec := prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: m.namespace,
		Name:      name,
		Help:      help,
	}, labels)
	m.Registry.MustRegister(counterVec)

	m.mu.Lock()
	defer m.mu.Unlock()
	m.counterVecs[name] = counterVec
}

// RegisterHistogram registers a new histogram metric.
func (m *Metrics) RegisterHistogram(name, help string, buckets []float64) {
	histogram := prometheus.NewHistogram(prometheus.HistogramOpts{
		Namespace: m.namespace,
		Name:      name,
		Help:      help,
		Buckets:   buckets,
	})
	m.Registry.MustRegister(histogram)

	m.mu.Lock()
	defer m.mu.Unlock()
	m.histograms[name] = histogram
}

// RegisterGauge registers a new gauge metric.
func (m *Metrics) RegisterGauge(name, help string) {
	gauge := prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: m.namespace,
		Name:      name,
		Help:      help,
	})
	m.Registry.MustRegister(gauge)

	m.mu.Lock()
	defer m.mu.Unlock()
	m.gauges[name] = gauge
}

// IncCounter increments a counter by 1. Unknown names are ignored.
func (m *Metrics) IncCounter(name string) {
	m.mu.RLock()
	counter, ok := m.counters[name]
	m.mu.RUnlock()
	if ok {
		counter.Inc()
	}
}

// IncCounterVec increments a counter in a CounterVec with labels.
func (m *Metrics) IncCounterVec(name string, labels ...string) {
	m.mu.RLock()
	counterVec, ok := m.counterVecs[name]
	m.mu.RUnlock()
	if ok {
		counterVec.WithLabelValues(labels...).Inc()
	}
}

// ObserveHistogram observes a value in a histogram.
func (m *Metrics) ObserveHistogram(name string, value float64) {
	m.mu.RLock()
	histogram, ok := m.histograms[name]
	m.mu.RUnlock()
	if ok {
		histogram.Observe(value)
	}
}

// IncGauge increments a gauge by 1.
func (m *Metrics) IncGauge(name string) {
	m.mu.RLock()
	gauge, ok := m.gauges[name]
	m.mu.RUnlock()
	if ok {
		gauge.Inc()
	}
}

// DecGauge decrements a gauge by 1.
func (m *Metrics) DecGauge(name string) {
	m.mu.RLock()
	gauge, ok := m.gauges[name]
	m.mu.RUnlock()
	if ok {
		gauge.Dec()
	}
}
