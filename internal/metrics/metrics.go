package metrics

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	globalMetrics *Metrics
	globalMu      sync.RWMutex
)

// Metrics holds the Prometheus collectors of the evaluation service
type Metrics struct {
	SavesTotal              *prometheus.CounterVec
	ValidationFailuresTotal *prometheus.CounterVec
	VirtualRowsTotal        *prometheus.CounterVec
	RecalculationsTotal     *prometheus.CounterVec
	SessionsActive          prometheus.Gauge

	APIRequestsTotal          *prometheus.CounterVec
	APIRequestDurationSeconds *prometheus.HistogramVec

	registry *prometheus.Registry
}

// New creates a Metrics instance with all collectors registered on a private registry
func New() *Metrics {
	reg := prometheus.NewRegistry()

	m := &Metrics{
		SavesTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "evaluation_saves_total",
				Help: "Total number of grid save attempts by result",
			},
			[]string{"result"},
		),
		ValidationFailuresTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "evaluation_validation_failures_total",
				Help: "Total number of saves rejected by local validation",
			},
			[]string{"kind"},
		),
		VirtualRowsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "evaluation_virtual_rows_total",
				Help: "Total number of virtual campaign items added or deleted",
			},
			[]string{"op"},
		),
		RecalculationsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "evaluation_recalculations_total",
				Help: "Total number of recalculation jobs by result",
			},
			[]string{"result"},
		),
		SessionsActive: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Name: "evaluation_sessions_active",
				Help: "Number of open grid sessions",
			},
		),
		APIRequestsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "evaluation_api_requests_total",
				Help: "Total number of HTTP requests",
			},
			[]string{"method", "route", "status"},
		),
		APIRequestDurationSeconds: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "evaluation_api_request_duration_seconds",
				Help:    "HTTP request duration in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"method", "route"},
		),
		registry: reg,
	}

	reg.MustRegister(
		m.SavesTotal,
		m.ValidationFailuresTotal,
		m.VirtualRowsTotal,
		m.RecalculationsTotal,
		m.SessionsActive,
		m.APIRequestsTotal,
		m.APIRequestDurationSeconds,
	)

	return m
}

// Registry returns the registry backing the collectors
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// SetGlobal installs m as the process-wide instance
func SetGlobal(m *Metrics) {
	globalMu.Lock()
	defer globalMu.Unlock()
	globalMetrics = m
}

// Global returns the process-wide instance, or nil
func Global() *Metrics {
	globalMu.RLock()
	defer globalMu.RUnlock()
	return globalMetrics
}

// The helpers below are safe to call on a nil *Metrics.

func (m *Metrics) IncSave(result string) {
	if m != nil {
		m.SavesTotal.WithLabelValues(result).Inc()
	}
}

func (m *Metrics) IncValidationFailure(kind string) {
	if m != nil {
		m.ValidationFailuresTotal.WithLabelValues(kind).Inc()
	}
}

func (m *Metrics) IncVirtualRows(op string) {
	if m != nil {
		m.VirtualRowsTotal.WithLabelValues(op).Inc()
	}
}

func (m *Metrics) IncRecalculation(result string) {
	if m != nil {
		m.RecalculationsTotal.WithLabelValues(result).Inc()
	}
}

func (m *Metrics) SetSessionsActive(n int) {
	if m != nil {
		m.SessionsActive.Set(float64(n))
	}
}
