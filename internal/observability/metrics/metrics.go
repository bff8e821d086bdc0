package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	httpRequestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "coachsync_http_requests_total",
		Help: "Total number of HTTP requests",
	}, []string{"method", "path", "status"})

	httpRequestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "coachsync_http_request_duration_seconds",
		Help:    "Duration of HTTP requests",
		Buckets: prometheus.DefBuckets,
	}, []string{"method", "path", "status"})

	storeOpDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "coachsync_store_operation_duration_seconds",
		Help:    "Duration of remote store calls by relation, operation and result kind",
		Buckets: prometheus.DefBuckets,
	}, []string{"relation", "op", "result"})

	bootstrapRuns = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "coachsync_bootstrap_runs_total",
		Help: "Provisioning runs per table and outcome (batch, fallback, error)",
	}, []string{"table", "outcome"})

	degradedReads = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "coachsync_degraded_reads_total",
		Help: "Reads that fell back to an empty collection",
	}, []string{"relation", "kind"})

	mirrorRefreshDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "coachsync_mirror_refresh_duration_seconds",
		Help:    "Duration of full mirror refreshes",
		Buckets: prometheus.DefBuckets,
	}, []string{"role", "result"})

	emailSends = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "coachsync_email_sends_total",
		Help: "Email send attempts by mode and result",
	}, []string{"mode", "result"})

	recountRuns = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "coachsync_recount_runs_total",
		Help: "Organization user-count recomputations by result",
	}, []string{"result"})

	activeMirrors = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "coachsync_active_mirrors",
		Help: "Number of principal mirrors currently cached",
	})
)

// ObserveHTTPRequest records an HTTP request metric
func ObserveHTTPRequest(method, path, status string, duration time.Duration) {
	httpRequestsTotal.WithLabelValues(method, path, status).Inc()
	httpRequestDuration.WithLabelValues(method, path, status).Observe(duration.Seconds())
}

// ObserveStoreOp records one remote store call.
func ObserveStoreOp(relation, op, result string, duration time.Duration) {
	if relation == "" {
		relation = "ddl"
	}
	storeOpDuration.WithLabelValues(relation, op, result).Observe(duration.Seconds())
}

// ObserveBootstrap counts a provisioning attempt for table.
func ObserveBootstrap(table, outcome string) {
	bootstrapRuns.WithLabelValues(table, outcome).Inc()
}

// ObserveDegradedRead counts a read that returned an empty collection instead of failing.
func ObserveDegradedRead(relation, kind string) {
	degradedReads.WithLabelValues(relation, kind).Inc()
}

// ObserveMirrorRefresh records the duration of a mirror refresh.
func ObserveMirrorRefresh(role, result string, duration time.Duration) {
	mirrorRefreshDuration.WithLabelValues(role, result).Observe(duration.Seconds())
}

// ObserveEmailSend counts an email attempt. mode is "demo" or "emailjs".
func ObserveEmailSend(mode, result string) {
	emailSends.WithLabelValues(mode, result).Inc()
}

// ObserveRecount counts an organization count recomputation.
func ObserveRecount(result string) {
	recountRuns.WithLabelValues(result).Inc()
}

// SetActiveMirrors sets the cached mirror gauge.
func SetActiveMirrors(count int) {
	if count < 0 {
		count = 0
	}
	activeMirrors.Set(float64(count))
}
