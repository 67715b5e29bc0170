package metrics

import (
	"strconv"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	SubmissionsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "vidfeed",
			Subsystem: "pipeline",
			Name:      "submissions_total",
			Help:      "Submissions by terminal state, platform and error kind",
		},
		[]string{"state", "platform", "kind"},
	)

	SubmissionDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "vidfeed",
			Subsystem: "pipeline",
			Name:      "submission_duration_seconds",
			Help:      "End-to-end submission pipeline duration in seconds",
			Buckets:   []float64{1, 5, 15, 30, 60, 120, 300},
		},
		[]string{"platform"},
	)

	CatalogListingsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "vidfeed",
			Subsystem: "catalog",
			Name:      "listings_total",
			Help:      "Catalog listings by outcome",
		},
		[]string{"status", "filtered"},
	)

	CatalogEntries = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: "vidfeed",
			Subsystem: "catalog",
			Name:      "entries",
			Help:      "Number of entries returned per listing",
			Buckets:   prometheus.ExponentialBuckets(1, 4, 8),
		},
	)

	StorageOperationsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "vidfeed",
			Subsystem: "storage",
			Name:      "operations_total",
			Help:      "Storage provider operations",
		},
		[]string{"provider", "operation", "status"},
	)

	StorageDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "vidfeed",
			Subsystem: "storage",
			Name:      "duration_seconds",
			Help:      "Storage provider operation duration in seconds",
			Buckets:   []float64{0.05, 0.1, 0.5, 1, 2, 5, 30},
		},
		[]string{"provider", "operation"},
	)

	UploadBytesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "vidfeed",
			Subsystem: "storage",
			Name:      "upload_bytes_total",
			Help:      "Total bytes uploaded",
		},
		[]string{"platform"},
	)

	ScrapeJobsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "vidfeed",
			Subsystem: "scraper",
			Name:      "jobs_total",
			Help:      "Scrape jobs by actor and final status",
		},
		[]string{"actor", "status"},
	)

	HTTPRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "vidfeed",
			Subsystem: "http",
			Name:      "requests_total",
			Help:      "HTTP requests by route, method and status code",
		},
		[]string{"route", "method", "code"},
	)
)

// RecordSubmission records a submission reaching a terminal state
func RecordSubmission(state, platform, kind string, durationSec float64) {
	SubmissionsTotal.WithLabelValues(state, platform, kind).Inc()
	SubmissionDuration.WithLabelValues(platform).Observe(durationSec)
}

// RecordCatalogListing records a catalog listing request
func RecordCatalogListing(status string, filtered bool, entries int) {
	f := "false"
	if filtered {
		f = "true"
	}
	CatalogListingsTotal.WithLabelValues(status, f).Inc()
	if status == "success" {
		CatalogEntries.Observe(float64(entries))
	}
}

// RecordStorageOperation records a call against the storage provider
func RecordStorageOperation(provider, operation, status string, durationSec float64) {
	StorageOperationsTotal.WithLabelValues(provider, operation, status).Inc()
	StorageDuration.WithLabelValues(provider, operation).Observe(durationSec)
}

func RecordUploadBytes(platform string, bytes int) {
	UploadBytesTotal.WithLabelValues(platform).Add(float64(bytes))
}

func RecordScrapeJob(actor, status string) {
	ScrapeJobsTotal.WithLabelValues(actor, status).Inc()
}

func RecordHTTPRequest(route, method string, code int) {
	HTTPRequestsTotal.WithLabelValues(route, method, strconv.Itoa(code)).Inc()
}

// Status maps an error to the label used by the counters above
func Status(err error) string {
	if err != nil {
		return "error"
	}
	return "success"
}
