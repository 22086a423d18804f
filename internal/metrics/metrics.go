// Package metrics registers the Prometheus collectors the engine updates
// during operation:
//   - sim_ticks_total                    – completed price simulator ticks
//   - sim_market_updates_total{pair}     – per-pair market updates published
//   - sim_pair_errors_total{pair}        – per-pair tick failures (contained)
//   - ledger_trades_opened_total{side}   – demo positions opened
//   - ledger_trades_closed_total{status} – positions closed (closed|liquidated)
//   - monitor_scans_total                – liquidation monitor passes
//   - ws_clients                         – currently connected websocket clients
//   - ws_dropped_messages_total          – messages dropped on saturated send queues
//
// Served by the HTTP server at /metrics in Prometheus text exposition format.
package metrics

import "github.com/prometheus/client_golang/prometheus"

var (
	SimTicks = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "sim_ticks_total",
			Help: "Completed price simulator ticks",
		},
	)

	MarketUpdates = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "sim_market_updates_total",
			Help: "Market updates published per pair",
		},
		[]string{"pair"},
	)

	PairErrors = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "sim_pair_errors_total",
			Help: "Per-pair simulator tick failures",
		},
		[]string{"pair"},
	)

	TradesOpened = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "ledger_trades_opened_total",
			Help: "Demo positions opened",
		},
		[]string{"side"},
	)

	TradesClosed = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "ledger_trades_closed_total",
			Help: "Demo positions closed, by terminal status",
		},
		[]string{"status"},
	)

	MonitorScans = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "monitor_scans_total",
			Help: "Liquidation monitor passes",
		},
	)

	WSClients = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "ws_clients",
			Help: "Currently connected websocket clients",
		},
	)

	WSDropped = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "ws_dropped_messages_total",
			Help: "Messages dropped on saturated per-connection send queues",
		},
	)
)

func init() {
	prometheus.MustRegister(
		SimTicks,
		MarketUpdates,
		PairErrors,
		TradesOpened,
		TradesClosed,
		MonitorScans,
		WSClients,
		WSDropped,
	)
}
