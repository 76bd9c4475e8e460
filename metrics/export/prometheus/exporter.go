package prometheus

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	socialauth "github.com/nexfeed/socialauth"
	"github.com/nexfeed/socialauth/metrics/export/internaldefs"
)

type metricsSource interface {
	MetricsSnapshot() socialauth.MetricsSnapshot
	AuditDropped() uint64
}

// Collector exposes engine counters and the validate latency histogram as
// Prometheus const metrics, read fresh from a snapshot on every scrape.
type Collector struct {
	source       metricsSource
	counterDescs []counterDesc
	histDesc     *prometheus.Desc
	droppedDesc  *prometheus.Desc
}

type counterDesc struct {
	id   socialauth.MetricID
	desc *prometheus.Desc
}

// NewCollector wraps an engine. The zero source renders nothing.
func NewCollector(engine *socialauth.Engine) *Collector {
	return NewCollectorFromSource(engine)
}

// NewCollectorFromSource wraps any snapshot source, mostly for tests.
func NewCollectorFromSource(source metricsSource) *Collector {
	c := &Collector{
		source:       source,
		counterDescs: make([]counterDesc, 0, len(internaldefs.CounterDefs)),
	}

	for _, def := range internaldefs.CounterDefs {
		c.counterDescs = append(c.counterDescs, counterDesc{
			id:   def.ID,
			desc: prometheus.NewDesc(def.Name, def.Help, nil, nil),
		})
	}
	hist := internaldefs.HistogramDefs[0]
	c.histDesc = prometheus.NewDesc(hist.Name, hist.Help, nil, nil)
	c.droppedDesc = prometheus.NewDesc(
		"socialauth_audit_dropped_total",
		"Dropped audit events due to dispatcher backpressure.",
		nil, nil,
	)

	return c
}

// Describe implements prometheus.Collector.
func (c *Collector) Describe(ch chan<- *prometheus.Desc) {
	for _, cd := range c.counterDescs {
		ch <- cd.desc
	}
	ch <- c.histDesc
	ch <- c.droppedDesc
}

// Collect implements prometheus.Collector.
func (c *Collector) Collect(ch chan<- prometheus.Metric) {
	if c == nil || c.source == nil {
		return
	}

	snapshot := c.source.MetricsSnapshot()

	for _, cd := range c.counterDescs {
		ch <- prometheus.MustNewConstMetric(cd.desc, prometheus.CounterValue, float64(snapshot.Counters[cd.id]))
	}

	raw := internaldefs.NormalizeBuckets(snapshot.Histograms[internaldefs.HistogramDefs[0].ID])
	cumulative := internaldefs.CumulativeBuckets(raw)

	buckets := make(map[float64]uint64, len(internaldefs.HistogramBounds))
	for i, bound := range internaldefs.HistogramBounds {
		buckets[bound] = cumulative[i]
	}
	count := cumulative[len(cumulative)-1]

	// The engine tracks bucket counts only; the sum is reported as zero.
	ch <- prometheus.MustNewConstHistogram(c.histDesc, count, 0, buckets)

	ch <- prometheus.MustNewConstMetric(c.droppedDesc, prometheus.CounterValue, float64(c.source.AuditDropped()))
}

// Handler serves the collector from a private registry.
func (c *Collector) Handler() http.Handler {
	reg := prometheus.NewRegistry()
	reg.MustRegister(c)
	return promhttp.HandlerFor(reg, promhttp.HandlerOpts{})
}
