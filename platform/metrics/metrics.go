// Package metrics exposes Prometheus instrumentation for the API.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "leadlift"

// Registry owns a private Prometheus registry and the collectors on it.
type Registry struct {
	reg *prometheus.Registry

	requestDuration *prometheus.HistogramVec

	SubmissionsIngested *prometheus.CounterVec
	SubmissionFailures  *prometheus.CounterVec
	LeadScore           prometheus.Histogram
	AnalyticsCache      *prometheus.CounterVec
}

// New creates a registry with process and Go runtime collectors.
func New() *Registry {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		collectors.NewGoCollector(),
	)
	factory := promauto.With(reg)

	return &Registry{
		reg: reg,
		requestDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request latency by route and status.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"method", "route", "status"}),
		SubmissionsIngested: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "submissions_ingested_total",
			Help:      "Form submissions stored, by form type.",
		}, []string{"form_type"}),
		SubmissionFailures: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "submission_failures_total",
			Help:      "Form submissions rejected, by reason.",
		}, []string{"reason"}),
		LeadScore: factory.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "lead_score",
			Help:      "Distribution of computed lead scores.",
			Buckets:   prometheus.LinearBuckets(10, 10, 10),
		}),
		AnalyticsCache: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "analytics_cache_lookups_total",
			Help:      "Analytics cache lookups, by result.",
		}, []string{"result"}),
	}
}

// Handler serves the registry in the Prometheus exposition format.
func (r *Registry) Handler() http.Handler {
	return promhttp.HandlerFor(r.reg, promhttp.HandlerOpts{Registry: r.reg})
}

// Middleware records request latency keyed by the matched route template.
func (r *Registry) Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		route := c.FullPath()
		if route == "" {
			route = "unmatched"
		}
		r.requestDuration.
			WithLabelValues(c.Request.Method, route, strconv.Itoa(c.Writer.Status())).
			Observe(time.Since(start).Seconds())
	}
}

// IngestRecorder is the narrow view used by the ingestion service.
type IngestRecorder interface {
	Captured(formType string, score int)
	Rejected(reason string)
	CacheLookup(hit bool)
}

// Captured records a stored submission.
func (r *Registry) Captured(formType string, score int) {
	r.SubmissionsIngested.WithLabelValues(formType).Inc()
	r.LeadScore.Observe(float64(score))
}

// Rejected records a rejected submission.
func (r *Registry) Rejected(reason string) {
	r.SubmissionFailures.WithLabelValues(reason).Inc()
}

// CacheLookup records an analytics cache hit or miss.
func (r *Registry) CacheLookup(hit bool) {
	result := "miss"
	if hit {
		result = "hit"
	}
	r.AnalyticsCache.WithLabelValues(result).Inc()
}

// NopRecorder discards ingestion metrics.
type NopRecorder struct{}

func (NopRecorder) Captured(string, int) {}
func (NopRecorder) Rejected(string)      {}
func (NopRecorder) CacheLookup(bool)     {}

var _ IngestRecorder = (*Registry)(nil)
