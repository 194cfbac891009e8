// Package prometheus exports locindex operation metrics to Prometheus.
//
// Usage:
//
//	reg := prometheus.NewRegistry()
//	mc, _ := locprom.NewCollector(reg, "routing")
//	idx, _ := locindex.Build(ctx, g, locindex.WithMetricsCollector(mc))
//	http.Handle("/metrics", locprom.Handler(reg))
package prometheus

import (
	"net/http"
	"time"

	prom "github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/hupe1980/locindex"
)

var _ locindex.MetricsCollector = (*Collector)(nil)

// Collector implements locindex.MetricsCollector on Prometheus metrics.
type Collector struct {
	latency     *prom.HistogramVec
	edges       prom.Counter
	skipped     prom.Counter
	searchTiles prom.Histogram
	transferred *prom.CounterVec
}

// NewCollector creates a Collector and registers its metrics with reg.
// namespace prefixes every metric name and may be empty.
func NewCollector(reg prom.Registerer, namespace string) (*Collector, error) {
	c := &Collector{
		latency: prom.NewHistogramVec(prom.HistogramOpts{
			Namespace: namespace,
			Name:      "locindex_operation_latency_seconds",
			Help:      "Latency of location index operations",
			Buckets:   prom.DefBuckets,
		}, []string{"op", "status"}),
		edges: prom.NewCounter(prom.CounterOpts{
			Namespace: namespace,
			Name:      "locindex_indexed_edges_total",
			Help:      "Total edges processed by successful builds",
		}),
		skipped: prom.NewCounter(prom.CounterOpts{
			Namespace: namespace,
			Name:      "locindex_skipped_edges_total",
			Help:      "Total edges left out because of invalid coordinates",
		}),
		searchTiles: prom.NewHistogram(prom.HistogramOpts{
			Namespace: namespace,
			Name:      "locindex_search_tiles",
			Help:      "Tiles looked up per search",
			Buckets:   []float64{1, 9, 25, 49, 81, 121, 225, 441},
		}),
		transferred: prom.NewCounterVec(prom.CounterOpts{
			Namespace: namespace,
			Name:      "locindex_bytes_total",
			Help:      "Serialized index bytes loaded or saved",
		}, []string{"op"}),
	}

	for _, m := range []prom.Collector{c.latency, c.edges, c.skipped, c.searchTiles, c.transferred} {
		if err := reg.Register(m); err != nil {
			return nil, err
		}
	}
	return c, nil
}

// Handler returns an HTTP handler serving the metrics gathered by g.
func Handler(g prom.Gatherer) http.Handler {
	return promhttp.HandlerFor(g, promhttp.HandlerOpts{})
}

func status(err error) string {
	if err != nil {
		return "error"
	}
	return "success"
}

// RecordBuild implements locindex.MetricsCollector.
func (c *Collector) RecordBuild(edges, skipped int, d time.Duration, err error) {
	c.latency.WithLabelValues("build", status(err)).Observe(d.Seconds())
	if err != nil {
		return
	}
	c.edges.Add(float64(edges))
	c.skipped.Add(float64(skipped))
}

// RecordSearch implements locindex.MetricsCollector.
func (c *Collector) RecordSearch(_, tiles int, d time.Duration, err error) {
	c.latency.WithLabelValues("search", status(err)).Observe(d.Seconds())
	if err == nil {
		c.searchTiles.Observe(float64(tiles))
	}
}

// RecordLoad implements locindex.MetricsCollector.
func (c *Collector) RecordLoad(bytes int64, d time.Duration, err error) {
	c.latency.WithLabelValues("load", status(err)).Observe(d.Seconds())
	if err == nil {
		c.transferred.WithLabelValues("load").Add(float64(bytes))
	}
}

// RecordSave implements locindex.MetricsCollector.
func (c *Collector) RecordSave(bytes int64, d time.Duration, err error) {
	c.latency.WithLabelValues("save", status(err)).Observe(d.Seconds())
	if err == nil {
		c.transferred.WithLabelValues("save").Add(float64(bytes))
	}
}
