package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

type Registry struct {
	reg *prometheus.Registry

	RowsParsed      prometheus.Counter
	RowsRejected    prometheus.Counter
	DocsInserted    prometheus.Counter
	BatchFailures   prometheus.Counter
	QueryLatencySec prometheus.Histogram
}

func NewRegistry() *Registry {
	r := prometheus.NewRegistry()
	rowsParsed := prometheus.NewCounter(prometheus.CounterOpts{Name: "sales_rows_parsed_total"})
	rowsRejected := prometheus.NewCounter(prometheus.CounterOpts{Name: "sales_rows_rejected_total"})
	docsInserted := prometheus.NewCounter(prometheus.CounterOpts{Name: "sales_documents_inserted_total"})
	batchFailures := prometheus.NewCounter(prometheus.CounterOpts{Name: "sales_batch_failures_total"})
	queryLatency := prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "sales_query_latency_seconds",
		Buckets: prometheus.DefBuckets,
	})

	r.MustRegister(rowsParsed, rowsRejected, docsInserted, batchFailures, queryLatency)
	return &Registry{
		reg:             r,
		RowsParsed:      rowsParsed,
		RowsRejected:    rowsRejected,
		DocsInserted:    docsInserted,
		BatchFailures:   batchFailures,
		QueryLatencySec: queryLatency,
	}
}

func (r *Registry) Handler() http.Handler { return promhttp.HandlerFor(r.reg, promhttp.HandlerOpts{}) }
