// Package metrics exposes Prometheus collectors for the slangcrawler stages.
package metrics

import (
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	scraperPagesTotal          *prometheus.CounterVec
	scraperEntriesTotal        prometheus.Counter
	scraperFieldFallbacksTotal *prometheus.CounterVec
	scraperRenderSeconds       prometheus.Histogram
	scraperDelaySeconds        prometheus.Histogram
	scraperActiveWorkers       prometheus.Gauge
	normalizeRowsDroppedTotal  *prometheus.CounterVec
	normalizeDocumentsTotal    prometheus.Counter
	embedBatchSeconds          prometheus.Histogram
	httpRequestsTotal          *prometheus.CounterVec
	httpRequestDurationSeconds *prometheus.HistogramVec

	once sync.Once
)

// Init initializes the Prometheus metrics collectors.
// It is safe to call this function multiple times.
func Init() {
	once.Do(func() {
		scraperPagesTotal = promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "scraper_pages_total",
				Help: "Total number of index pages processed, labeled by status.",
			},
			[]string{"status"},
		)

		scraperEntriesTotal = promauto.NewCounter(
			prometheus.CounterOpts{
				Name: "scraper_entries_total",
				Help: "Total number of dataset entries extracted.",
			},
		)

		scraperFieldFallbacksTotal = promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "scraper_field_fallbacks_total",
				Help: "Total number of entry fields substituted with sentinels, labeled by field.",
			},
			[]string{"field"},
		)

		scraperRenderSeconds = promauto.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "scraper_render_seconds",
				Help:    "Histogram of page render latencies.",
				Buckets: []float64{0.25, 0.5, 1, 2, 5, 10, 30},
			},
		)

		scraperDelaySeconds = promauto.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "scraper_delay_seconds",
				Help:    "Histogram of politeness delays taken before fetches.",
				Buckets: []float64{0.1, 0.5, 1, 2, 3, 5},
			},
		)

		scraperActiveWorkers = promauto.NewGauge(
			prometheus.GaugeOpts{
				Name: "scraper_active_workers",
				Help: "Number of scrape workers currently running.",
			},
		)

		normalizeRowsDroppedTotal = promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "normalize_rows_dropped_total",
				Help: "Total number of rows dropped during normalization, labeled by filter.",
			},
			[]string{"filter"},
		)

		normalizeDocumentsTotal = promauto.NewCounter(
			prometheus.CounterOpts{
				Name: "normalize_documents_total",
				Help: "Total number of cleaned documents emitted.",
			},
		)

		embedBatchSeconds = promauto.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "normalize_embed_batch_seconds",
				Help:    "Histogram of embedding batch latencies.",
				Buckets: []float64{0.05, 0.1, 0.25, 0.5, 1, 2, 5, 10},
			},
		)

		httpRequestsTotal = promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "http_requests_total",
				Help: "Total number of HTTP requests, labeled by method and code.",
			},
			[]string{"method", "code"},
		)

		httpRequestDurationSeconds = promauto.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "http_request_duration_seconds",
				Help:    "Histogram of HTTP request latencies, labeled by method and route.",
				Buckets: []float64{0.05, 0.1, 0.25, 0.5, 1, 2, 5},
			},
			[]string{"method", "route"},
		)
	})
}

// Handler returns an http.Handler for exposing Prometheus metrics.
func Handler() http.Handler {
	return promhttp.Handler()
}

// ObservePage increments the page counter for the given status.
func ObservePage(status string) {
	scraperPagesTotal.WithLabelValues(status).Inc()
}

// AddEntries adds n to the extracted entry counter.
func AddEntries(n int) {
	if n > 0 {
		scraperEntriesTotal.Add(float64(n))
	}
}

// ObserveFieldFallback increments the sentinel-substitution counter for a field.
func ObserveFieldFallback(field string) {
	scraperFieldFallbacksTotal.WithLabelValues(field).Inc()
}

// ObserveRender records the duration of one page render.
func ObserveRender(duration time.Duration) {
	scraperRenderSeconds.Observe(duration.Seconds())
}

// ObserveDelay records a politeness delay taken before a fetch.
func ObserveDelay(duration time.Duration) {
	scraperDelaySeconds.Observe(duration.Seconds())
}

// IncActiveWorkers increments the active workers gauge.
func IncActiveWorkers() {
	scraperActiveWorkers.Inc()
}

// DecActiveWorkers decrements the active workers gauge.
func DecActiveWorkers() {
	scraperActiveWorkers.Dec()
}

// AddDropped adds n to the drop counter for the given filter.
func AddDropped(filter string, n int) {
	if n > 0 {
		normalizeRowsDroppedTotal.WithLabelValues(filter).Add(float64(n))
	}
}

// AddDocuments adds n to the emitted document counter.
func AddDocuments(n int) {
	if n > 0 {
		normalizeDocumentsTotal.Add(float64(n))
	}
}

// ObserveEmbedBatch records the duration of one embedding batch.
func ObserveEmbedBatch(duration time.Duration) {
	embedBatchSeconds.Observe(duration.Seconds())
}

// ObserveHTTPRequest increments the HTTP request metrics.
func ObserveHTTPRequest(method, route string, code int, duration time.Duration) {
	httpRequestsTotal.WithLabelValues(method, strconv.Itoa(code)).Inc()
	httpRequestDurationSeconds.WithLabelValues(method, route).Observe(duration.Seconds())
}
