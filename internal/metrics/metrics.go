// Package metrics exposes the ingester's Prometheus instrumentation on a
// private registry so tests can create isolated instances.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "ingester"

// Metrics holds all instrument handles.
type Metrics struct {
	registry *prometheus.Registry

	TradesReceived prometheus.Counter
	LevelsReceived prometheus.Counter
	TradesWritten  prometheus.Counter
	LevelsWritten  prometheus.Counter
	MarketsSynced  prometheus.Counter
	FramesDropped  prometheus.Counter
	EventsDropped  prometheus.Counter

	BatchesDropped *prometheus.CounterVec

	ConnectionsConnected prometheus.Gauge
	BufferPending        *prometheus.GaugeVec
	ResolvedTokens       prometheus.Gauge
}

// New creates a Metrics instance with its own registry.
func New() *Metrics {
	reg := prometheus.NewRegistry()
	factory := promauto.With(reg)

	return &Metrics{
		registry: reg,

		TradesReceived: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "trades_received_total",
			Help:      "Trades normalized from the stream.",
		}),
		LevelsReceived: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "book_levels_received_total",
			Help:      "Book levels normalized from the stream.",
		}),
		TradesWritten: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "trades_written_total",
			Help:      "Trades accepted by the sink.",
		}),
		LevelsWritten: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "book_levels_written_total",
			Help:      "Book levels accepted by the sink.",
		}),
		MarketsSynced: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "markets_synced_total",
			Help:      "Markets fetched across metadata syncs.",
		}),
		FramesDropped: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "frames_dropped_total",
			Help:      "Stream frames that could not be decoded.",
		}),
		EventsDropped: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "events_dropped_total",
			Help:      "Stream events matching no known shape.",
		}),
		BatchesDropped: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "batches_dropped_total",
			Help:      "Flush batches lost to sink failures.",
		}, []string{"kind"}),

		ConnectionsConnected: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "connections_connected",
			Help:      "Stream connections currently established.",
		}),
		BufferPending: factory.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "buffer_pending",
			Help:      "Records buffered awaiting flush.",
		}, []string{"kind"}),
		ResolvedTokens: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "resolved_tokens",
			Help:      "Tokens in the resolution table.",
		}),
	}
}

// Handler returns an HTTP handler serving this instance's registry.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}
