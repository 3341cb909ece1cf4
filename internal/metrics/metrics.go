// Package metrics holds the Prometheus metrics of the content service.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/amiyamandal-dev/contentdesk/internal/viewer"
)

const (
	// Namespace is the namespace for all contentdesk metrics
	Namespace = "contentdesk"
)

// Submission outcomes
const (
	OutcomeSuccess          = "success"
	OutcomeValidationFailed = "validation_failed"
	OutcomeSubmissionFailed = "submission_failed"
	OutcomeRejected         = "rejected"
)

// Metrics holds all Prometheus metrics of the service
type Metrics struct {
	// HTTP metrics
	RequestsTotal   *prometheus.CounterVec
	RequestDuration *prometheus.HistogramVec

	// Viewer metrics
	ViewerOutcomes      *prometheus.CounterVec
	ViewerFetchDuration prometheus.Histogram
	ViewerDiscarded     prometheus.Counter

	// Authoring metrics
	SubmissionsTotal *prometheus.CounterVec
	UploadsTotal     *prometheus.CounterVec
	UploadBytes      prometheus.Histogram
}

// New creates and registers all metrics on reg, or on the default
// registerer when reg is nil
func New(reg prometheus.Registerer) *Metrics {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}

	factory := promauto.With(reg)
	m := &Metrics{}

	m.initHTTPMetrics(factory)
	m.initViewerMetrics(factory)
	m.initAuthoringMetrics(factory)

	return m
}

func (m *Metrics) initHTTPMetrics(factory promauto.Factory) {
	m.RequestsTotal = factory.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: Namespace,
			Subsystem: "http",
			Name:      "requests_total",
			Help:      "Total number of HTTP requests",
		},
		[]string{"method", "route", "status"},
	)

	m.RequestDuration = factory.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: Namespace,
			Subsystem: "http",
			Name:      "request_duration_seconds",
			Help:      "Duration of HTTP requests in seconds",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"method", "route"},
	)
}

func (m *Metrics) initViewerMetrics(factory promauto.Factory) {
	m.ViewerOutcomes = factory.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: Namespace,
			Subsystem: "viewer",
			Name:      "fetches_total",
			Help:      "Detail view fetches by final state",
		},
		[]string{"state", "type"},
	)

	m.ViewerFetchDuration = factory.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: Namespace,
			Subsystem: "viewer",
			Name:      "fetch_duration_seconds",
			Help:      "Time from navigation to a settled detail view",
			Buckets:   prometheus.ExponentialBuckets(0.001, 2, 14), // 1ms to ~8s
		},
	)

	m.ViewerDiscarded = factory.NewCounter(
		prometheus.CounterOpts{
			Namespace: Namespace,
			Subsystem: "viewer",
			Name:      "stale_responses_total",
			Help:      "Fetch results dropped because the view moved on",
		},
	)
}

func (m *Metrics) initAuthoringMetrics(factory promauto.Factory) {
	m.SubmissionsTotal = factory.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: Namespace,
			Subsystem: "editor",
			Name:      "submissions_total",
			Help:      "Authoring form submissions by outcome",
		},
		[]string{"outcome", "type"},
	)

	m.UploadsTotal = factory.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: Namespace,
			Subsystem: "editor",
			Name:      "uploads_total",
			Help:      "Image uploads by outcome",
		},
		[]string{"outcome"},
	)

	m.UploadBytes = factory.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: Namespace,
			Subsystem: "editor",
			Name:      "upload_bytes",
			Help:      "Size of accepted uploads",
			Buckets:   prometheus.ExponentialBuckets(1024, 4, 8), // 1KiB to 16MiB
		},
	)
}

// Resolved records a settled detail view
func (m *Metrics) Resolved(snap viewer.Snapshot, elapsed time.Duration) {
	typ := ""
	if snap.Record != nil {
		typ = string(snap.Record.Type)
	}
	state := snap.State.String()
	if snap.State == viewer.NotFound && !snap.Missing() {
		state = "error"
	}
	m.ViewerOutcomes.WithLabelValues(state, typ).Inc()
	m.ViewerFetchDuration.Observe(elapsed.Seconds())
}

// Discarded records a stale fetch result
func (m *Metrics) Discarded(string) {
	m.ViewerDiscarded.Inc()
}

// ObserveSubmission records the outcome of a form submission
func (m *Metrics) ObserveSubmission(outcome, contentType string) {
	m.SubmissionsTotal.WithLabelValues(outcome, contentType).Inc()
}

// ObserveUpload records an upload attempt; size is ignored unless it succeeded
func (m *Metrics) ObserveUpload(outcome string, size int) {
	m.UploadsTotal.WithLabelValues(outcome).Inc()
	if outcome == OutcomeSuccess {
		m.UploadBytes.Observe(float64(size))
	}
}
