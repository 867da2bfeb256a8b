// Package observability provides Prometheus metrics for monitoring.
package observability

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds all Prometheus metrics for the application.
type Metrics struct {
	// Feed metrics
	EventsDecoded  *prometheus.CounterVec
	DecodeErrors   *prometheus.CounterVec
	PriceUpdates   prometheus.Counter
	PriceCacheSize prometheus.Gauge
	TxLogSize      prometheus.Gauge

	// Wallet metrics
	SignalsEmitted prometheus.Counter
	SignalsDropped prometheus.Gauge
	WatchedWallets prometheus.Gauge

	// Trading metrics
	OrdersSubmitted *prometheus.CounterVec
	OrdersFailed    prometheus.Counter
	OpenPositions   prometheus.Gauge
	RealizedPnLSOL  prometheus.Gauge

	// Cleanup metrics
	SweepEvictions *prometheus.CounterVec

	// RPC metrics
	RPCCallLatency *prometheus.HistogramVec
}

// NewMetrics creates a new Metrics instance with all metrics registered.
func NewMetrics(namespace string) *Metrics {
	if namespace == "" {
		namespace = "solana_copy_trader"
	}

	return &Metrics{
		EventsDecoded: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "feed",
			Name:      "events_decoded_total",
			Help:      "Total number of trade events decoded by protocol",
		}, []string{"protocol"}),
		DecodeErrors: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "feed",
			Name:      "decode_errors_total",
			Help:      "Total number of transactions that failed to decode by reason",
		}, []string{"reason"}),
		PriceUpdates: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "feed",
			Name:      "price_updates_total",
			Help:      "Total number of accepted price cache updates",
		}),
		PriceCacheSize: promauto.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "feed",
			Name:      "price_cache_size",
			Help:      "Current number of cached token prices",
		}),
		TxLogSize: promauto.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "feed",
			Name:      "txlog_size",
			Help:      "Current number of events in the transaction log",
		}),

		SignalsEmitted: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "wallet",
			Name:      "signals_emitted_total",
			Help:      "Total number of copy signals emitted",
		}),
		SignalsDropped: promauto.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "wallet",
			Name:      "signals_dropped",
			Help:      "Copy signals dropped on a full channel",
		}),
		WatchedWallets: promauto.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "wallet",
			Name:      "watched_wallets",
			Help:      "Current number of watched wallets",
		}),

		OrdersSubmitted: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "trading",
			Name:      "orders_submitted_total",
			Help:      "Total number of orders submitted by side",
		}, []string{"side"}),
		OrdersFailed: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "trading",
			Name:      "orders_failed_total",
			Help:      "Total number of failed orders",
		}),
		OpenPositions: promauto.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "trading",
			Name:      "open_positions",
			Help:      "Current number of open positions",
		}),
		RealizedPnLSOL: promauto.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "trading",
			Name:      "realized_pnl_sol",
			Help:      "Cumulative realized profit in SOL",
		}),

		SweepEvictions: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "cleanup",
			Name:      "sweep_evictions_total",
			Help:      "Total number of entries evicted by cleanup sweeps",
		}, []string{"target"}),

		RPCCallLatency: promauto.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "solana",
			Name:      "rpc_call_latency_seconds",
			Help:      "Solana RPC call latency in seconds",
			Buckets:   prometheus.DefBuckets,
		}, []string{"method"}),
	}
}

// Handler returns an HTTP handler for the /metrics endpoint.
func Handler() http.Handler {
	return promhttp.Handler()
}

// DefaultMetrics is the default metrics instance.
var DefaultMetrics = NewMetrics("")

// RecordEventDecoded increments the decoded events counter for a protocol.
func RecordEventDecoded(protocol string) {
	DefaultMetrics.EventsDecoded.WithLabelValues(protocol).Inc()
}

// RecordDecodeError increments the decode error counter for a reason.
func RecordDecodeError(reason string) {
	DefaultMetrics.DecodeErrors.WithLabelValues(reason).Inc()
}

// RecordPriceUpdate increments the accepted price update counter.
func RecordPriceUpdate() {
	DefaultMetrics.PriceUpdates.Inc()
}

// RecordSignalEmitted increments the emitted signals counter.
func RecordSignalEmitted() {
	DefaultMetrics.SignalsEmitted.Inc()
}

// RecordOrder records a submitted or failed order.
func RecordOrder(side string, err error) {
	if err != nil {
		DefaultMetrics.OrdersFailed.Inc()
		return
	}
	DefaultMetrics.OrdersSubmitted.WithLabelValues(side).Inc()
}

// RecordSweep adds sweep evictions for a cleanup target.
func RecordSweep(target string, evicted int) {
	if evicted > 0 {
		DefaultMetrics.SweepEvictions.WithLabelValues(target).Add(float64(evicted))
	}
}

// UpdateFeedGauges refreshes the cache and log size gauges.
func UpdateFeedGauges(priceCacheSize, txLogSize int) {
	DefaultMetrics.PriceCacheSize.Set(float64(priceCacheSize))
	DefaultMetrics.TxLogSize.Set(float64(txLogSize))
}

// UpdateTradingGauges refreshes position and wallet gauges.
func UpdateTradingGauges(openPositions, watchedWallets int, signalsDropped uint64, realizedPnLSOL float64) {
	DefaultMetrics.OpenPositions.Set(float64(openPositions))
	DefaultMetrics.WatchedWallets.Set(float64(watchedWallets))
	DefaultMetrics.SignalsDropped.Set(float64(signalsDropped))
	DefaultMetrics.RealizedPnLSOL.Set(realizedPnLSOL)
}

// RecordRPCLatency records RPC call latency.
func RecordRPCLatency(method string, seconds float64) {
	DefaultMetrics.RPCCallLatency.WithLabelValues(method).Observe(seconds)
}
