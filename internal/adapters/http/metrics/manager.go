// Package metrics exposes request, query and domain counters to Prometheus.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Namespace and subsystem used by the server.
const (
	DefaultNamespace = "coachdesk"
	DefaultSubsystem = "server"
)

// Manager holds every collector the server reports.
type Manager struct {
	reg *prometheus.Registry

	// counters
	CounterRequests    *prometheus.CounterVec
	CounterLogins      *prometheus.CounterVec
	CounterAssignments *prometheus.CounterVec
	CounterResults     *prometheus.CounterVec
	CounterComments    prometheus.Counter

	// gauges
	GaugeRequests prometheus.Gauge

	// histograms
	HistRequestDuration *prometheus.HistogramVec
	HistQueryDuration   *prometheus.HistogramVec
}

// NewTestManager returns a manager on a private registry.
func NewTestManager() *Manager {
	return NewManager("coachdesk", "test_server", prometheus.NewRegistry())
}

// NewManager registers all collectors on reg.
// PRE: reg is non-nil and has none of these collectors registered
// POST: every collector is registered and ready
func NewManager(namespace, subsystem string, reg *prometheus.Registry) *Manager {
	factory := promauto.With(reg)

	return &Manager{
		reg: reg,
		CounterRequests: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "request",
			Help:      "The total number of incoming requests",
		}, []string{"method", "status"}),
		CounterLogins: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "login",
			Help:      "Login attempts by outcome",
		}, []string{"outcome"}),
		CounterAssignments: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "week_assignment",
			Help:      "Week assignments by outcome",
		}, []string{"outcome"}),
		CounterResults: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "result_saved",
			Help:      "Athlete results saved by shape",
		}, []string{"source"}),
		CounterComments: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "coach_comment",
			Help:      "Coach comments saved",
		}),
		GaugeRequests: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "current_requests",
			Help:      "Current number of requests served",
		}),
		HistRequestDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "request_duration_seconds",
			Help:      "Duration of requests in seconds",
			Buckets:   []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 10},
		}, []string{"method"}),
		HistQueryDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "query_duration_seconds",
			Help:      "Duration of database calls in seconds",
			Buckets:   []float64{0.0001, 0.0005, 0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1},
		}, []string{"op"}),
	}
}

// ObserveQuery records one database call.
func (m *Manager) ObserveQuery(op string, d time.Duration) {
	m.HistQueryDuration.WithLabelValues(op).Observe(d.Seconds())
}

// ObserveRequest records one finished request.
func (m *Manager) ObserveRequest(method string, status int, d time.Duration) {
	m.CounterRequests.WithLabelValues(method, statusLabel(status)).Inc()
	m.HistRequestDuration.WithLabelValues(method).Observe(d.Seconds())
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Manager) Handler() http.Handler {
	return promhttp.HandlerFor(m.reg, promhttp.HandlerOpts{Registry: m.reg})
}

// Registry returns the registry the collectors live on.
func (m *Manager) Registry() *prometheus.Registry {
	return m.reg
}

func statusLabel(status int) string {
	switch {
	case status >= 500:
		return "5xx"
	case status >= 400:
		return "4xx"
	case status >= 300:
		return "3xx"
	default:
		return "2xx"
	}
}
