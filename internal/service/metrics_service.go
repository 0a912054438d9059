package service

import (
	"fmt"
	"net/http"
	"runtime"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Mutation outcomes recorded by RecordMutation.
const (
	ResultApplied   = "applied"
	ResultUnchanged = "unchanged"
	ResultNoop      = "noop"
	ResultRejected  = "rejected"
	ResultConflict  = "conflict"
	ResultFailed    = "failed"
)

// MetricsService encapsulates Prometheus instrumentation for the API and the sync engine.
type MetricsService struct {
	registry        *prometheus.Registry
	handler         http.Handler
	requestDuration *prometheus.HistogramVec
	requestTotal    *prometheus.CounterVec
	mutations       *prometheus.CounterVec
	conflicts       *prometheus.CounterVec
	commitDuration  prometheus.Histogram
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

	mutations := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "timetable_sync_mutations_total",
		Help: "Schedule mutations by operation and outcome",
	}, []string{"operation", "result"})

	conflicts := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "timetable_sync_conflicts_total",
		Help: "Rejected mutations by conflict kind",
	}, []string{"kind"})

	commitDuration := prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "timetable_sync_commit_seconds",
		Help:    "Time spent writing aggregates for one mutation",
		Buckets: prometheus.DefBuckets,
	})

	goroutines := prometheus.NewGaugeFunc(prometheus.GaugeOpts{
		Name: "goroutines_total",
		Help: "Total number of goroutines",
	}, func() float64 {
		return float64(runtime.NumGoroutine())
	})

	registry.MustRegister(requestDuration, requestTotal, mutations, conflicts, commitDuration, goroutines)

	return &MetricsService{
		registry:        registry,
		handler:         promhttp.HandlerFor(registry, promhttp.HandlerOpts{}),
		requestDuration: requestDuration,
		requestTotal:    requestTotal,
		mutations:       mutations,
		conflicts:       conflicts,
		commitDuration:  commitDuration,
	}
}

// Registry exposes the underlying registry (used by tests).
func (m *MetricsService) Registry() *prometheus.Registry {
	if m == nil {
		return nil
	}
	return m.registry
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

// RecordMutation counts one upsert/delete/clear outcome.
func (m *MetricsService) RecordMutation(operation, result string) {
	if m == nil {
		return
	}
	m.mutations.WithLabelValues(operation, result).Inc()
}

// RecordConflict counts a rejected mutation by conflict kind.
func (m *MetricsService) RecordConflict(kind string) {
	if m == nil {
		return
	}
	m.conflicts.WithLabelValues(kind).Inc()
}

// ObserveCommit tracks how long the aggregate writes of one mutation took.
func (m *MetricsService) ObserveCommit(duration time.Duration) {
	if m == nil {
		return
	}
	m.commitDuration.Observe(duration.Seconds())
}
