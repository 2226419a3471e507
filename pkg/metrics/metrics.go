package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Collector provides application metrics collection
type Collector struct {
	// API Metrics
	APIRequestsTotal   *prometheus.CounterVec
	APIRequestDuration *prometheus.HistogramVec
	APIErrorsTotal     *prometheus.CounterVec

	// Parse Metrics
	ParseRowsTotal    prometheus.Counter
	ParseErrorsTotal  *prometheus.CounterVec
	ParseDuration     prometheus.Histogram
	DatasetLoadsTotal *prometheus.CounterVec
	DatasetRows       *prometheus.GaugeVec

	// Analysis Metrics
	AnalysisDuration *prometheus.HistogramVec
	AlertsFlagged    prometheus.Gauge
}

// NewCollector creates a new metrics collector
func NewCollector(namespace string) *Collector {
	return &Collector{
		APIRequestsTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "api_requests_total",
				Help:      "Total number of API requests by endpoint, method, and status",
			},
			[]string{"endpoint", "method", "status"},
		),

		APIRequestDuration: promauto.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "api_request_duration_seconds",
				Help:      "API request duration in seconds",
				Buckets:   []float64{0.001, 0.005, 0.01, 0.02, 0.05, 0.1, 0.2, 0.5, 1.0, 2.0, 5.0},
			},
			[]string{"endpoint"},
		),

		APIErrorsTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "api_errors_total",
				Help:      "Total number of API errors by type",
			},
			[]string{"error_type", "endpoint"},
		),

		ParseRowsTotal: promauto.NewCounter(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "parse_rows_total",
				Help:      "Total number of data rows parsed from uploaded files",
			},
		),

		ParseErrorsTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "parse_errors_total",
				Help:      "Total number of file parse failures by dataset kind",
			},
			[]string{"kind"},
		),

		ParseDuration: promauto.NewHistogram(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "parse_duration_seconds",
				Help:      "Duration of file parsing in seconds",
				Buckets:   []float64{0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1.0, 5.0},
			},
		),

		DatasetLoadsTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "dataset_loads_total",
				Help:      "Total number of dataset load attempts by kind and outcome",
			},
			[]string{"kind", "status"},
		),

		DatasetRows: promauto.NewGaugeVec(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Name:      "dataset_rows",
				Help:      "Number of rows in the currently loaded dataset by kind",
			},
			[]string{"kind"},
		),

		AnalysisDuration: promauto.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "analysis_duration_seconds",
				Help:      "Duration of derived-value computation in seconds by operation",
				Buckets:   []float64{0.0001, 0.0005, 0.001, 0.005, 0.01, 0.05, 0.1, 0.5},
			},
			[]string{"operation"},
		),

		AlertsFlagged: promauto.NewGauge(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Name:      "alerts_flagged",
				Help:      "Number of records exceeding thresholds at the last alert scan",
			},
		),
	}
}

// Timer provides timing functionality for operations
type Timer struct {
	start    time.Time
	observer prometheus.Observer
}

// NewTimer creates a new timer
func (c *Collector) NewTimer(histogram prometheus.Observer) *Timer {
	return &Timer{
		start:    time.Now(),
		observer: histogram,
	}
}

// ObserveDuration records the elapsed time since timer creation
func (t *Timer) ObserveDuration() time.Duration {
	duration := time.Since(t.start)
	if t.observer != nil {
		t.observer.Observe(duration.Seconds())
	}
	return duration
}

// RecordAPIRequest increments API request counter
func (c *Collector) RecordAPIRequest(endpoint, method, status string) {
	c.APIRequestsTotal.WithLabelValues(endpoint, method, status).Inc()
}

// RecordAPIError increments API error counter
func (c *Collector) RecordAPIError(errorType, endpoint string) {
	c.APIErrorsTotal.WithLabelValues(errorType, endpoint).Inc()
}

// RecordParseError increments the parse failure counter for a dataset kind
func (c *Collector) RecordParseError(kind string) {
	c.ParseErrorsTotal.WithLabelValues(kind).Inc()
}

// RecordDatasetLoad counts one load attempt outcome and updates the row gauge
func (c *Collector) RecordDatasetLoad(kind, status string, rows int) {
	c.DatasetLoadsTotal.WithLabelValues(kind, status).Inc()
	c.DatasetRows.WithLabelValues(kind).Set(float64(rows))
}

// ObserveAnalysis records the duration of one derived-value computation
func (c *Collector) ObserveAnalysis(operation string, seconds float64) {
	c.AnalysisDuration.WithLabelValues(operation).Observe(seconds)
}
