// Package metrics exposes ingestion progress as Prometheus metrics.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/bft-labs/csvship"
)

const namespace = "csvship"

// Metric names, without the namespace prefix.
const (
	MetricRecordsParsed      = "records_parsed_total"
	MetricBytesParsed        = "bytes_parsed_total"
	MetricItemsWritten       = "items_written_total"
	MetricBatches            = "batches_total"
	MetricRetries            = "retries_total"
	MetricUnprocessedItems   = "unprocessed_items_total"
	MetricSuperBatchDuration = "super_batch_duration_seconds"
)

// Collector implements csvship.EventHandler by updating Prometheus metrics.
// It owns its registry so several collectors can coexist in one process.
type Collector struct {
	registry *prometheus.Registry

	recordsParsed      prometheus.Counter
	bytesParsed        prometheus.Counter
	itemsWritten       prometheus.Counter
	batches            *prometheus.CounterVec
	retries            prometheus.Counter
	unprocessedItems   prometheus.Counter
	superBatchDuration prometheus.Histogram
}

// NewCollector creates a collector with all metrics registered.
func NewCollector() *Collector {
	c := &Collector{
		registry: prometheus.NewRegistry(),
		recordsParsed: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      MetricRecordsParsed,
			Help:      "Data lines parsed into records.",
		}),
		bytesParsed: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      MetricBytesParsed,
			Help:      "Bytes of input consumed by parsed records.",
		}),
		itemsWritten: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      MetricItemsWritten,
			Help:      "Items committed to the table.",
		}),
		batches: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      MetricBatches,
			Help:      "Batches settled, by outcome.",
		}, []string{"outcome"}),
		retries: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      MetricRetries,
			Help:      "Resubmissions of unprocessed items.",
		}),
		unprocessedItems: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      MetricUnprocessedItems,
			Help:      "Items the table reported as unprocessed.",
		}),
		superBatchDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      MetricSuperBatchDuration,
			Help:      "Time to write all batches of a super-batch.",
			Buckets:   prometheus.ExponentialBuckets(0.01, 2, 12),
		}),
	}

	c.registry.MustRegister(
		c.recordsParsed,
		c.bytesParsed,
		c.itemsWritten,
		c.batches,
		c.retries,
		c.unprocessedItems,
		c.superBatchDuration,
	)
	return c
}

// Handler serves the collector's metrics in the Prometheus exposition format.
func (c *Collector) Handler() http.Handler {
	return promhttp.HandlerFor(c.registry, promhttp.HandlerOpts{})
}

func (c *Collector) OnRecordParsed(e csvship.RecordParsedEvent) {
	c.recordsParsed.Inc()
	c.bytesParsed.Add(float64(e.Bytes))
}

func (c *Collector) OnBatchWritten(e csvship.BatchWrittenEvent) {
	c.itemsWritten.Add(float64(e.Items))
	c.batches.WithLabelValues("written").Inc()
}

func (c *Collector) OnRetry(e csvship.RetryEvent) {
	c.retries.Inc()
	c.unprocessedItems.Add(float64(e.Unprocessed))
}

func (c *Collector) OnBatchFailed(e csvship.BatchFailedEvent) {
	c.batches.WithLabelValues("failed").Inc()
}

func (c *Collector) OnSuperBatchDone(e csvship.SuperBatchDoneEvent) {
	c.superBatchDuration.Observe(e.Duration.Seconds())
}
