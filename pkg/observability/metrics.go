package observability

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	httpRequestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "http_requests_total",
		Help: "HTTP requests by path, method and status.",
	}, []string{"path", "method", "status"})

	httpRequestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "http_request_duration_seconds",
		Help:    "HTTP request latency.",
		Buckets: prometheus.DefBuckets,
	}, []string{"path", "method"})

	recommendationDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "recommendation_pipeline_duration_seconds",
		Help:    "End-to-end recommendation pipeline latency.",
		Buckets: []float64{0.5, 1, 2.5, 5, 10, 15, 20, 25, 30},
	}, []string{"outcome"})

	recommendationStageFailures = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "recommendation_stage_failures_total",
		Help: "Recommendation pipeline stage failures, including downgraded ones.",
	}, []string{"stage"})

	llmCallDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "llm_call_duration_seconds",
		Help:    "LLM call latency by purpose.",
		Buckets: []float64{0.25, 0.5, 1, 2.5, 5, 10, 20},
	}, []string{"purpose"})
)

// ObserveRecommendation records one pipeline run. Outcome is "ok" or "error".
func ObserveRecommendation(outcome string, duration time.Duration) {
	recommendationDuration.WithLabelValues(outcome).Observe(duration.Seconds())
}

// CountStageFailure counts a stage failure, whether it propagated or was
// downgraded to a partial result.
func CountStageFailure(stage string) {
	recommendationStageFailures.WithLabelValues(stage).Inc()
}

// ObserveLLMCall records one model call by purpose (parse, rank).
func ObserveLLMCall(purpose string, duration time.Duration) {
	llmCallDuration.WithLabelValues(purpose).Observe(duration.Seconds())
}

type statusWriter struct {
	http.ResponseWriter
	status int
}

func (s *statusWriter) WriteHeader(code int) {
	s.status = code
	s.ResponseWriter.WriteHeader(code)
}

// NewMetricsMiddleware instruments HTTP handlers with request counters and
// latency histograms. Paths are recorded as registered patterns, so wrap
// individual routes rather than the whole mux to avoid label explosions.
func NewMetricsMiddleware() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			sw := &statusWriter{ResponseWriter: w, status: http.StatusOK}

			next.ServeHTTP(sw, r)

			httpRequestsTotal.WithLabelValues(r.URL.Path, r.Method, strconv.Itoa(sw.status)).Inc()
			httpRequestDuration.WithLabelValues(r.URL.Path, r.Method).Observe(time.Since(start).Seconds())
		})
	}
}
