package metrics

import (
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	registerOnce sync.Once

	// EmailsTotal - исходы отправки писем: sent, failed, dropped
	EmailsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "docreq_emails_total",
			Help: "Outbound emails by outcome.",
		},
		[]string{"outcome"},
	)

	// SchedulerAssignmentsTotal - назначения, затронутые планировщиком
	SchedulerAssignmentsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "docreq_scheduler_assignments_total",
			Help: "Assignments processed by the scheduler by phase.",
		},
		[]string{"phase"},
	)

	SchedulerRunDuration = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "docreq_scheduler_run_duration_seconds",
			Help:    "Duration of a full scheduler run.",
			Buckets: prometheus.DefBuckets,
		},
	)

	// SideEffectFailuresTotal - ошибки побочных эффектов (audit, notification)
	SideEffectFailuresTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "docreq_side_effect_failures_total",
			Help: "Best-effort side effect failures by kind.",
		},
		[]string{"kind"},
	)

	AssignmentTransitionsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "docreq_assignment_transitions_total",
			Help: "Assignment status transitions by target status.",
		},
		[]string{"status"},
	)

	httpRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Total number of HTTP requests.",
		},
		[]string{"method", "path", "status"},
	)

	httpRequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "HTTP request latencies in seconds.",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "path", "status"},
	)
)

// Register регистрирует метрики в default-регистре (однократно)
func Register() {
	registerOnce.Do(func() {
		prometheus.MustRegister(
			EmailsTotal,
			SchedulerAssignmentsTotal,
			SchedulerRunDuration,
			SideEffectFailuresTotal,
			AssignmentTransitionsTotal,
			httpRequestsTotal,
			httpRequestDuration,
		)
	})
}

// Handler - хэндлер Prometheus
func Handler() http.Handler {
	return promhttp.Handler()
}

// Instrument измеряет количество и длительность HTTP запросов
func Instrument(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		sw := &statusWriter{ResponseWriter: w, code: http.StatusOK}
		next.ServeHTTP(sw, r)

		path := CanonicalPath(r.URL.Path)
		status := strconv.Itoa(sw.code)
		httpRequestDuration.WithLabelValues(r.Method, path, status).Observe(time.Since(start).Seconds())
		httpRequestsTotal.WithLabelValues(r.Method, path, status).Inc()
	})
}

// CanonicalPath заменяет числовые идентификаторы на ":id", чтобы не плодить метки
func CanonicalPath(p string) string {
	if p == "" {
		return "/"
	}
	parts := strings.Split(p, "/")
	for i, part := range parts {
		if part == "" {
			continue
		}
		if _, err := strconv.ParseInt(part, 10, 64); err == nil {
			parts[i] = ":id"
		}
	}
	return strings.Join(parts, "/")
}

type statusWriter struct {
	http.ResponseWriter
	code int
}

func (w *statusWriter) WriteHeader(code int) {
	w.code = code
	w.ResponseWriter.WriteHeader(code)
}
