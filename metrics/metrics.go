// Package metrics defines the Prometheus metrics exposed by PDCM.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
)

const metricNamespace = "percona_dbcopy_mongodb"

var (
	//nolint:gochecknoglobals
	documentsReadTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Name:      "documents_read_total",
		Help:      "Total number of documents read from the source.",
		Namespace: metricNamespace,
	})

	//nolint:gochecknoglobals
	documentsUpsertedTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Name:      "documents_upserted_total",
		Help:      "Total number of documents upserted into the destination.",
		Namespace: metricNamespace,
	})

	//nolint:gochecknoglobals
	batchesFlushedTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Name:      "batches_flushed_total",
		Help:      "Total number of upsert batches flushed.",
		Namespace: metricNamespace,
	})

	//nolint:gochecknoglobals
	dumpBytesWrittenTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Name:      "dump_bytes_written_total",
		Help:      "Total size of dump data written in bytes.",
		Namespace: metricNamespace,
	})
)

// Init registers all metrics with the given registry.
func Init(registry *prometheus.Registry) {
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),

		documentsReadTotal,
		documentsUpsertedTotal,
		batchesFlushedTotal,
		dumpBytesWrittenTotal,
	)
}

// AddDocumentsRead increments the number of documents read from the source.
func AddDocumentsRead(count int) {
	documentsReadTotal.Add(float64(count))
}

// AddDocumentsUpserted increments the number of documents upserted.
func AddDocumentsUpserted(count int) {
	documentsUpsertedTotal.Add(float64(count))
}

// AddBatchesFlushed increments the number of flushed batches.
func AddBatchesFlushed(count int) {
	batchesFlushedTotal.Add(float64(count))
}

// AddDumpBytesWritten increments the size of written dump data.
func AddDumpBytesWritten(size uint64) {
	dumpBytesWrittenTotal.Add(float64(size))
}
