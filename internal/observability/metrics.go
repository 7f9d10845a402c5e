package observability

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	registerOnce           sync.Once
	httpRequestsTotal      *prometheus.CounterVec
	httpDurationSeconds    *prometheus.HistogramVec
	httpErrorsTotal        *prometheus.CounterVec
	submissionUploadsTotal *prometheus.CounterVec
	uploadRejectedTotal    *prometheus.CounterVec
	uploadDurationSeconds  prometheus.Histogram
	importRowsTotal        *prometheus.CounterVec
)

// RegisterMetrics initialises the Prometheus collectors used by the API.
func RegisterMetrics() {
	registerOnce.Do(func() {
		httpRequestsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Total number of API requests served.",
		}, []string{"method", "route", "status"})

		httpDurationSeconds = prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "Latency distribution for API requests.",
			Buckets: []float64{0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1.0, 2.0, 5.0},
		}, []string{"method", "route"})

		httpErrorsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "http_errors_total",
			Help: "Total number of error responses returned by the API.",
		}, []string{"method", "route", "status"})

		submissionUploadsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "submission_uploads_total",
			Help: "Accepted submission uploads by resulting status.",
		}, []string{"status"})

		uploadRejectedTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "submission_upload_rejected_total",
			Help: "Rejected submission uploads by reason.",
		}, []string{"reason"})

		uploadDurationSeconds = prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "submission_upload_duration_seconds",
			Help:    "Time spent validating and storing submission uploads.",
			Buckets: prometheus.DefBuckets,
		})

		importRowsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "student_import_rows_total",
			Help: "Spreadsheet rows processed by bulk student imports.",
		}, []string{"outcome"})

		prometheus.MustRegister(
			httpRequestsTotal,
			httpDurationSeconds,
			httpErrorsTotal,
			submissionUploadsTotal,
			uploadRejectedTotal,
			uploadDurationSeconds,
			importRowsTotal,
		)
	})
}

// HTTPRequests exposes the counter for API requests.
func HTTPRequests() *prometheus.CounterVec {
	RegisterMetrics()
	return httpRequestsTotal
}

// HTTPLatency exposes the latency histogram for API requests.
func HTTPLatency() *prometheus.HistogramVec {
	RegisterMetrics()
	return httpDurationSeconds
}

// HTTPErrors exposes the counter for API error responses.
func HTTPErrors() *prometheus.CounterVec {
	RegisterMetrics()
	return httpErrorsTotal
}

// SubmissionUploads counts stored submissions labelled by status.
func SubmissionUploads() *prometheus.CounterVec {
	RegisterMetrics()
	return submissionUploadsTotal
}

// UploadRejected counts rejected uploads labelled by reason.
func UploadRejected() *prometheus.CounterVec {
	RegisterMetrics()
	return uploadRejectedTotal
}

// UploadLatency observes how long an upload took end to end.
func UploadLatency() prometheus.Histogram {
	RegisterMetrics()
	return uploadDurationSeconds
}

// ImportRows counts spreadsheet rows labelled created, existing, enrolled or duplicate.
func ImportRows() *prometheus.CounterVec {
	RegisterMetrics()
	return importRowsTotal
}
