package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// HTTP metrics
	httpRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "path", "status"},
	)

	httpRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "HTTP request duration in seconds",
			Buckets: []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5, 10},
		},
		[]string{"method", "path"},
	)

	httpRequestsInFlight = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "http_requests_in_flight",
			Help: "Number of HTTP requests currently being processed",
		},
	)

	// Business metrics
	crisisAnalyses = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "crisis_analyses_total",
			Help: "Total number of crisis risk analyses by resulting severity",
		},
		[]string{"severity"},
	)

	crisisAnalysisDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "crisis_analysis_duration_seconds",
			Help:    "Crisis analysis scoring duration in seconds",
			Buckets: []float64{.0001, .0005, .001, .005, .01, .05, .1, .5},
		},
	)

	crisisAlertsCreated = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "crisis_alerts_created_total",
			Help: "Total number of crisis alerts created",
		},
		[]string{"severity"},
	)

	crisisAlertsDeduplicated = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "crisis_alerts_deduplicated_total",
			Help: "Qualifying detections suppressed by the alert dedup window",
		},
	)

	emergencyEscalations = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "crisis_emergency_escalations_total",
			Help: "Detections that met emergency-service escalation criteria",
		},
	)

	notificationsDispatched = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "crisis_notifications_total",
			Help: "Care team notification attempts by outcome",
		},
		[]string{"channel", "outcome"},
	)

	escalationFailures = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "crisis_escalation_failures_total",
			Help: "Best-effort escalation steps that failed",
		},
		[]string{"step"},
	)

	moodEntriesRecorded = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "mood_entries_recorded_total",
			Help: "Total number of mood entries recorded",
		},
	)
)

// Handler returns the Prometheus metrics HTTP handler
func Handler() http.Handler {
	return promhttp.Handler()
}

// Middleware creates HTTP metrics middleware
func Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		httpRequestsInFlight.Inc()
		defer httpRequestsInFlight.Dec()

		wrapped := &responseWriter{ResponseWriter: w, statusCode: http.StatusOK}

		next.ServeHTTP(wrapped, r)

		duration := time.Since(start).Seconds()
		path := normalizePath(r.URL.Path)

		httpRequestsTotal.WithLabelValues(r.Method, path, strconv.Itoa(wrapped.statusCode)).Inc()
		httpRequestDuration.WithLabelValues(r.Method, path).Observe(duration)
	})
}

// responseWriter wraps http.ResponseWriter to capture status code
type responseWriter struct {
	http.ResponseWriter
	statusCode int
}

func (rw *responseWriter) WriteHeader(code int) {
	rw.statusCode = code
	rw.ResponseWriter.WriteHeader(code)
}

// normalizePath normalizes URL paths for metrics to avoid cardinality explosion
func normalizePath(path string) string {
	if len(path) > 100 {
		return "/api/..."
	}
	return path
}

// --- Business metric helpers ---

// RecordAnalysis records a completed risk analysis
func RecordAnalysis(severity string, duration time.Duration) {
	crisisAnalyses.WithLabelValues(severity).Inc()
	crisisAnalysisDuration.Observe(duration.Seconds())
}

// RecordAlertCreated records a crisis alert creation
func RecordAlertCreated(severity string) {
	crisisAlertsCreated.WithLabelValues(severity).Inc()
}

// RecordAlertDeduplicated records a detection suppressed by the dedup window
func RecordAlertDeduplicated() {
	crisisAlertsDeduplicated.Inc()
}

// RecordEmergencyEscalation records an emergency-service escalation signal
func RecordEmergencyEscalation() {
	emergencyEscalations.Inc()
}

// RecordNotification records a notification attempt
func RecordNotification(channel string, success bool) {
	outcome := "failed"
	if success {
		outcome = "sent"
	}
	notificationsDispatched.WithLabelValues(channel, outcome).Inc()
}

// RecordEscalationFailure records a failed best-effort pipeline step
func RecordEscalationFailure(step string) {
	escalationFailures.WithLabelValues(step).Inc()
}

// RecordMoodEntry records a mood entry creation
func RecordMoodEntry() {
	moodEntriesRecorded.Inc()
}
