package service

import (
	"fmt"
	"net/http"
	"runtime"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// MetricsService encapsulates Prometheus instrumentation for the HTTP
// surface, the session lifecycle and the impact engine.
type MetricsService struct {
	registry        *prometheus.Registry
	handler         http.Handler
	requestDuration *prometheus.HistogramVec
	requestTotal    *prometheus.CounterVec
	registered      prometheus.Counter
	completed       prometheus.Counter
	engineRuns      *prometheus.CounterVec
	engineDuration  prometheus.Histogram
	sweepDeleted    prometheus.Counter
}

// NewMetricsService registers core Prometheus collectors.
func NewMetricsService() *MetricsService {
	registry := prometheus.NewRegistry()

	requestDuration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "http_request_duration_seconds",
		Help:    "Duration of HTTP requests in seconds",
		Buckets: prometheus.DefBuckets,
	}, []string{"method", "path", "status"})

	requestTotal := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "http_requests_total",
		Help: "Total number of HTTP requests",
	}, []string{"method", "path", "status"})

	registered := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "game_sessions_registered_total",
		Help: "Total game sessions registered",
	})

	completed := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "game_sessions_completed_total",
		Help: "Total game sessions completed",
	})

	engineRuns := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "impact_engine_runs_total",
		Help: "Total impact engine runs by result",
	}, []string{"result"})

	engineDuration := prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "impact_engine_run_duration_seconds",
		Help:    "Duration of impact engine runs",
		Buckets: prometheus.DefBuckets,
	})

	sweepDeleted := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "stale_sessions_deleted_total",
		Help: "Total pending sessions removed by the staleness sweep",
	})

	goroutines := prometheus.NewGaugeFunc(prometheus.GaugeOpts{
		Name: "goroutines_total",
		Help: "Total number of goroutines",
	}, func() float64 {
		return float64(runtime.NumGoroutine())
	})

	registry.MustRegister(requestDuration, requestTotal, registered, completed, engineRuns, engineDuration, sweepDeleted, goroutines)

	return &MetricsService{
		registry:        registry,
		handler:         promhttp.HandlerFor(registry, promhttp.HandlerOpts{}),
		requestDuration: requestDuration,
		requestTotal:    requestTotal,
		registered:      registered,
		completed:       completed,
		engineRuns:      engineRuns,
		engineDuration:  engineDuration,
		sweepDeleted:    sweepDeleted,
	}
}

// Handler exposes the Prometheus HTTP handler.
func (m *MetricsService) Handler() http.Handler {
	if m == nil {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusServiceUnavailable)
		})
	}
	return m.handler
}

// ObserveHTTPRequest records request metrics.
func (m *MetricsService) ObserveHTTPRequest(method, path string, status int, duration time.Duration) {
	if m == nil {
		return
	}
	labelStatus := fmt.Sprintf("%d", status)
	m.requestDuration.WithLabelValues(method, path, labelStatus).Observe(duration.Seconds())
	m.requestTotal.WithLabelValues(method, path, labelStatus).Inc()
}

// SessionRegistered counts a fresh session registration.
func (m *MetricsService) SessionRegistered() {
	if m == nil {
		return
	}
	m.registered.Inc()
}

// SessionCompleted counts a session transitioning to completed.
func (m *MetricsService) SessionCompleted() {
	if m == nil {
		return
	}
	m.completed.Inc()
}

// ObserveEngineRun records the outcome and duration of an impact run.
func (m *MetricsService) ObserveEngineRun(result string, duration time.Duration) {
	if m == nil {
		return
	}
	m.engineRuns.WithLabelValues(result).Inc()
	m.engineDuration.Observe(duration.Seconds())
}

// SweepDeleted counts sessions removed by the staleness sweep.
func (m *MetricsService) SweepDeleted(count int64) {
	if m == nil || count <= 0 {
		return
	}
	m.sweepDeleted.Add(float64(count))
}
