package metrics

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Completion outcomes
const (
	OutcomePartial          = "partial"
	OutcomeTargetMet        = "target_met"
	OutcomeAlreadyCompleted = "already_completed"
	OutcomeRejected         = "rejected"
	OutcomeError            = "error"
)

var (
	// Registry holds the application collectors.
	Registry = prometheus.NewRegistry()

	httpInFlight = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: "habitstreak",
			Subsystem: "http",
			Name:      "inflight_requests",
			Help:      "Current number of in-flight HTTP requests.",
		},
	)

	httpRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "habitstreak",
			Subsystem: "http",
			Name:      "requests_total",
			Help:      "Total number of HTTP requests handled.",
		},
		[]string{"method", "route", "status"},
	)

	httpDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "habitstreak",
			Subsystem: "http",
			Name:      "request_duration_seconds",
			Help:      "Duration of HTTP requests.",
			Buckets:   prometheus.ExponentialBuckets(0.005, 2, 10), // 5ms to ~5s
		},
		[]string{"method", "route"},
	)

	completions = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "habitstreak",
			Subsystem: "streaks",
			Name:      "completions_total",
			Help:      "Completion attempts by outcome.",
		},
		[]string{"outcome"},
	)

	derivationFailures = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "habitstreak",
			Subsystem: "streaks",
			Name:      "derivation_failures_total",
			Help:      "Streak and stats updates that failed after the completion was recorded.",
		},
		[]string{"step"},
	)

	assistantFallbacks = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "habitstreak",
			Subsystem: "assistant",
			Name:      "fallbacks_total",
			Help:      "Assistant answers served from the baseline instead of the generative model.",
		},
		[]string{"operation"},
	)

	backfilledUsers = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: "habitstreak",
			Subsystem: "stats",
			Name:      "backfilled_users_total",
			Help:      "Users whose stats were rebuilt from history.",
		},
	)
)

func init() {
	Registry.MustRegister(
		httpInFlight,
		httpRequests,
		httpDuration,
		completions,
		derivationFailures,
		assistantFallbacks,
		backfilledUsers,
		prometheus.NewProcessCollector(prometheus.ProcessCollectorOpts{}),
		prometheus.NewGoCollector(),
	)
}

// Handler exposes the registered collectors.
func Handler() http.Handler {
	return promhttp.HandlerFor(Registry, promhttp.HandlerOpts{})
}

// InstrumentHandler wraps the provided handler with HTTP metrics collection.
// Requests are labelled by chi route pattern so ids do not blow up cardinality.
func InstrumentHandler(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/metrics" {
			next.ServeHTTP(w, r)
			return
		}

		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		start := time.Now()

		httpInFlight.Inc()
		defer httpInFlight.Dec()

		next.ServeHTTP(rec, r)

		route := "unmatched"
		if rctx := chi.RouteContext(r.Context()); rctx != nil && rctx.RoutePattern() != "" {
			route = rctx.RoutePattern()
		}
		method := strings.ToUpper(r.Method)
		httpRequests.WithLabelValues(method, route, strconv.Itoa(rec.status)).Inc()
		httpDuration.WithLabelValues(method, route).Observe(time.Since(start).Seconds())
	})
}

func RecordCompletion(outcome string) {
	completions.WithLabelValues(outcome).Inc()
}

func CompletionsCounter(outcome string) prometheus.Counter {
	return completions.WithLabelValues(outcome)
}

// RecordDerivationFailure counts a best-effort step that failed after the ledger append.
func RecordDerivationFailure(step string) {
	derivationFailures.WithLabelValues(step).Inc()
}

func RecordAssistantFallback(operation string) {
	assistantFallbacks.WithLabelValues(operation).Inc()
}

func AssistantFallbacksCounter(operation string) prometheus.Counter {
	return assistantFallbacks.WithLabelValues(operation)
}

func RecordBackfill(users int) {
	if users <= 0 {
		return
	}
	backfilledUsers.Add(float64(users))
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(code int) {
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}
