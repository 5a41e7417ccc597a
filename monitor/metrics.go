// Package monitor exposes Prometheus metrics for the pricing and routing
// engine.
package monitor

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Collector owns the engine's metrics on a dedicated registry.
type Collector struct {
	registry *prometheus.Registry

	Evaluations  *prometheus.CounterVec
	OracleBlocks *prometheus.CounterVec
	PlanMethods  prometheus.Histogram
	MarkPrice    *prometheus.GaugeVec
	BidPrice     *prometheus.GaugeVec
	AskPrice     *prometheus.GaugeVec
	FeedMessages *prometheus.CounterVec
	FeedDrops    prometheus.Counter
	FeedConnects prometheus.Counter
}

// NewCollector registers all engine metrics on a fresh registry.
func NewCollector() *Collector {
	reg := prometheus.NewRegistry()
	factory := promauto.With(reg)
	return &Collector{
		registry: reg,
		Evaluations: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "vamm_evaluations_total",
			Help: "Order evaluations by market and result",
		}, []string{"market", "result"}),
		OracleBlocks: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "vamm_oracle_blocks_total",
			Help: "Evaluations blocked by the oracle guard, by reason",
		}, []string{"market", "reason"}),
		PlanMethods: factory.NewHistogram(prometheus.HistogramOpts{
			Name:    "vamm_plan_methods",
			Help:    "Fulfillment steps per plan",
			Buckets: prometheus.LinearBuckets(0, 1, 11),
		}),
		MarkPrice: factory.NewGaugeVec(prometheus.GaugeOpts{
			Name: "vamm_mark_price",
			Help: "Current reserve price in price precision",
		}, []string{"market"}),
		BidPrice: factory.NewGaugeVec(prometheus.GaugeOpts{
			Name: "vamm_bid_price",
			Help: "Current curve bid in price precision",
		}, []string{"market"}),
		AskPrice: factory.NewGaugeVec(prometheus.GaugeOpts{
			Name: "vamm_ask_price",
			Help: "Current curve ask in price precision",
		}, []string{"market"}),
		FeedMessages: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "vamm_feed_messages_total",
			Help: "Oracle feed frames by type",
		}, []string{"type"}),
		FeedDrops: factory.NewCounter(prometheus.CounterOpts{
			Name: "vamm_feed_drops_total",
			Help: "Oracle feed frames dropped as unparseable",
		}),
		FeedConnects: factory.NewCounter(prometheus.CounterOpts{
			Name: "vamm_feed_connects_total",
			Help: "Oracle feed connection attempts that succeeded",
		}),
	}
}

// ObserveQuote records the current curve prices for a market.
func (c *Collector) ObserveQuote(marketName string, mark, bid, ask uint64) {
	c.MarkPrice.WithLabelValues(marketName).Set(float64(mark))
	c.BidPrice.WithLabelValues(marketName).Set(float64(bid))
	c.AskPrice.WithLabelValues(marketName).Set(float64(ask))
}

// Handler serves the registry for scraping.
func (c *Collector) Handler() http.Handler {
	return promhttp.HandlerFor(c.registry, promhttp.HandlerOpts{})
}

// Serve starts a metrics endpoint on addr. Empty addr disables it.
func (c *Collector) Serve(addr string) {
	if addr == "" {
		return
	}
	mux := http.NewServeMux()
	mux.Handle("/metrics", c.Handler())
	go func() {
		_ = http.ListenAndServe(addr, mux)
	}()
}
