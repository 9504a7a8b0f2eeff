// Package observability provides Prometheus metrics for the application.
package observability

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds all application metrics. All Record/Set helpers are nil-safe
// so components can run without metrics in tests.
type Metrics struct {
	// Job metrics
	JobsCreated    prometheus.Counter
	JobsCompleted  prometheus.Counter
	JobsFailed     prometheus.Counter
	JobsInProgress prometheus.Gauge

	// Link metrics
	LinksDiscovered prometheus.Counter
	LinkSuccesses   prometheus.Counter
	LinkFailures    *prometheus.CounterVec
	DownloadBytes   prometheus.Counter

	// Progress bus metrics
	BusEventsPublished prometheus.Counter
	BusEventsDropped   prometheus.Counter
	BusSubscribers     prometheus.Gauge

	// Storage metrics
	CleanupJobsTotal prometheus.Counter
	StoredJobs       prometheus.Gauge

	// HTTP metrics
	HTTPRequestsTotal   *prometheus.CounterVec
	HTTPRequestDuration *prometheus.HistogramVec
}

// New creates and registers all application metrics.
func New() *Metrics {
	return &Metrics{
		JobsCreated: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: "tokvault",
			Subsystem: "jobs",
			Name:      "created_total",
			Help:      "Total number of jobs created",
		}),
		JobsCompleted: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: "tokvault",
			Subsystem: "jobs",
			Name:      "completed_total",
			Help:      "Total number of jobs that reached the terminal notice with at least one success or zero links",
		}),
		JobsFailed: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: "tokvault",
			Subsystem: "jobs",
			Name:      "failed_total",
			Help:      "Total number of jobs that failed at discovery",
		}),
		JobsInProgress: promauto.NewGauge(prometheus.GaugeOpts{
			Namespace: "tokvault",
			Subsystem: "jobs",
			Name:      "in_progress",
			Help:      "Number of jobs currently in progress",
		}),

		LinksDiscovered: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: "tokvault",
			Subsystem: "links",
			Name:      "discovered_total",
			Help:      "Total number of video links discovered",
		}),
		LinkSuccesses: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: "tokvault",
			Subsystem: "links",
			Name:      "succeeded_total",
			Help:      "Total number of links resolved, fetched and stored",
		}),
		LinkFailures: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: "tokvault",
			Subsystem: "links",
			Name:      "failed_total",
			Help:      "Total number of per-link failures by stage",
		}, []string{"stage"}),
		DownloadBytes: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: "tokvault",
			Subsystem: "links",
			Name:      "download_bytes_total",
			Help:      "Total bytes downloaded across all jobs",
		}),

		BusEventsPublished: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: "tokvault",
			Subsystem: "bus",
			Name:      "events_published_total",
			Help:      "Total number of progress events published",
		}),
		BusEventsDropped: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: "tokvault",
			Subsystem: "bus",
			Name:      "events_dropped_total",
			Help:      "Total number of events dropped for slow subscribers",
		}),
		BusSubscribers: promauto.NewGauge(prometheus.GaugeOpts{
			Namespace: "tokvault",
			Subsystem: "bus",
			Name:      "subscribers",
			Help:      "Number of attached progress subscribers",
		}),

		CleanupJobsTotal: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: "tokvault",
			Subsystem: "storage",
			Name:      "cleanup_jobs_total",
			Help:      "Total number of expired job records cleaned up",
		}),
		StoredJobs: promauto.NewGauge(prometheus.GaugeOpts{
			Namespace: "tokvault",
			Subsystem: "storage",
			Name:      "jobs_current",
			Help:      "Current number of stored job records",
		}),

		HTTPRequestsTotal: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: "tokvault",
			Subsystem: "http",
			Name:      "requests_total",
			Help:      "Total number of HTTP requests",
		}, []string{"method", "path", "status"}),
		HTTPRequestDuration: promauto.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "tokvault",
			Subsystem: "http",
			Name:      "request_duration_seconds",
			Help:      "Histogram of HTTP request duration in seconds",
			Buckets:   prometheus.DefBuckets,
		}, []string{"method", "path"}),
	}
}

// Handler returns the Prometheus HTTP handler.
func Handler() http.Handler {
	return promhttp.Handler()
}

// RecordHTTPRequest records HTTP request metrics.
func (m *Metrics) RecordHTTPRequest(method, path string, status int, duration time.Duration) {
	if m == nil {
		return
	}

	m.HTTPRequestsTotal.WithLabelValues(method, path, strconv.Itoa(status)).Inc()
	m.HTTPRequestDuration.WithLabelValues(method, path).Observe(duration.Seconds())
}

// RecordJobCreated increments the jobs created counter.
func (m *Metrics) RecordJobCreated() {
	if m == nil {
		return
	}

	m.JobsCreated.Inc()
	m.JobsInProgress.Inc()
}

// RecordJobCompleted records a completed job.
func (m *Metrics) RecordJobCompleted() {
	if m == nil {
		return
	}

	m.JobsCompleted.Inc()
	m.JobsInProgress.Dec()
}

// RecordJobFailed records a job that failed at discovery.
func (m *Metrics) RecordJobFailed() {
	if m == nil {
		return
	}

	m.JobsFailed.Inc()
	m.JobsInProgress.Dec()
}

// RecordLinksDiscovered adds to the discovered links counter.
func (m *Metrics) RecordLinksDiscovered(count int) {
	if m == nil {
		return
	}

	m.LinksDiscovered.Add(float64(count))
}

// RecordLinkSuccess records a fully processed link.
func (m *Metrics) RecordLinkSuccess() {
	if m == nil {
		return
	}

	m.LinkSuccesses.Inc()
}

// RecordLinkFailure records a per-link failure at the given stage.
func (m *Metrics) RecordLinkFailure(stage string) {
	if m == nil {
		return
	}

	m.LinkFailures.WithLabelValues(stage).Inc()
}

// RecordDownloadBytes adds to the downloaded bytes counter.
func (m *Metrics) RecordDownloadBytes(n int64) {
	if m == nil {
		return
	}

	m.DownloadBytes.Add(float64(n))
}

// RecordBusPublish records one published event and its drops.
func (m *Metrics) RecordBusPublish(dropped int) {
	if m == nil {
		return
	}

	m.BusEventsPublished.Inc()
	m.BusEventsDropped.Add(float64(dropped))
}

// RecordSubscriberAttached increments the subscribers gauge.
func (m *Metrics) RecordSubscriberAttached() {
	if m == nil {
		return
	}

	m.BusSubscribers.Inc()
}

// RecordSubscriberDetached decrements the subscribers gauge.
func (m *Metrics) RecordSubscriberDetached() {
	if m == nil {
		return
	}

	m.BusSubscribers.Dec()
}

// RecordCleanup records removed job records.
func (m *Metrics) RecordCleanup(jobs int) {
	if m == nil {
		return
	}

	m.CleanupJobsTotal.Add(float64(jobs))
}

// SetStoredJobs sets the number of stored job records.
func (m *Metrics) SetStoredJobs(count int) {
	if m == nil {
		return
	}

	m.StoredJobs.Set(float64(count))
}
