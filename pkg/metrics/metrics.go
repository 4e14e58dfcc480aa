package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds the Prometheus collectors of the scheduler. A nil *Metrics records nothing.
type Metrics struct {
	registry           *prometheus.Registry
	handler            http.Handler
	generations        *prometheus.CounterVec
	fallbacks          prometheus.Counter
	repairs            *prometheus.CounterVec
	generationDuration *prometheus.HistogramVec
	sessionsScheduled  prometheus.Counter
	requestDuration    *prometheus.HistogramVec
	requestTotal       *prometheus.CounterVec
}

func New() *Metrics {
	registry := prometheus.NewRegistry()

	generations := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "timetable_generations_total",
		Help: "Timetable generation runs by engine and outcome",
	}, []string{"engine", "outcome"})

	fallbacks := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "timetable_fallbacks_total",
		Help: "Runs where the constraint engine gave up and greedy placement took over",
	})

	repairs := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "timetable_repairs_total",
		Help: "Sessions touched by the repair pass",
	}, []string{"action"})

	generationDuration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "timetable_generation_duration_seconds",
		Help:    "Duration of timetable generation runs",
		Buckets: []float64{0.01, 0.05, 0.1, 0.5, 1, 5, 15, 30, 60, 120},
	}, []string{"engine"})

	sessionsScheduled := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "timetable_sessions_scheduled_total",
		Help: "Sessions placed in returned timetables",
	})

	requestDuration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "http_request_duration_seconds",
		Help:    "Duration of HTTP requests in seconds",
		Buckets: prometheus.DefBuckets,
	}, []string{"method", "path", "status"})

	requestTotal := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "http_requests_total",
		Help: "Total number of HTTP requests",
	}, []string{"method", "path", "status"})

	registry.MustRegister(generations, fallbacks, repairs, generationDuration, sessionsScheduled, requestDuration, requestTotal)

	return &Metrics{
		registry:           registry,
		handler:            promhttp.HandlerFor(registry, promhttp.HandlerOpts{}),
		generations:        generations,
		fallbacks:          fallbacks,
		repairs:            repairs,
		generationDuration: generationDuration,
		sessionsScheduled:  sessionsScheduled,
		requestDuration:    requestDuration,
		requestTotal:       requestTotal,
	}
}

// Handler exposes the Prometheus HTTP handler.
func (m *Metrics) Handler() http.Handler {
	if m == nil {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusServiceUnavailable)
		})
	}
	return m.handler
}

// ObserveGeneration records one generation run.
func (m *Metrics) ObserveGeneration(engine, outcome string, duration time.Duration, sessions int) {
	if m == nil {
		return
	}
	m.generations.WithLabelValues(engine, outcome).Inc()
	m.generationDuration.WithLabelValues(engine).Observe(duration.Seconds())
	m.sessionsScheduled.Add(float64(sessions))
}

func (m *Metrics) RecordFallback() {
	if m == nil {
		return
	}
	m.fallbacks.Inc()
}

// Fallbacks exposes the fallback counter for inspection.
func (m *Metrics) Fallbacks() prometheus.Counter {
	if m == nil {
		return nil
	}
	return m.fallbacks
}

func (m *Metrics) RecordRepair(rematched, moved, dropped int) {
	if m == nil {
		return
	}
	m.repairs.WithLabelValues("rematched").Add(float64(rematched))
	m.repairs.WithLabelValues("moved").Add(float64(moved))
	m.repairs.WithLabelValues("dropped").Add(float64(dropped))
}

// ObserveHTTPRequest records request metrics.
func (m *Metrics) ObserveHTTPRequest(method, path string, status int, duration time.Duration) {
	if m == nil {
		return
	}
	labelStatus := strconv.Itoa(status)
	m.requestDuration.WithLabelValues(method, path, labelStatus).Observe(duration.Seconds())
	m.requestTotal.WithLabelValues(method, path, labelStatus).Inc()
}
