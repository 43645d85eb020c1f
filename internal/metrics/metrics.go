// Package metrics exposes this node's Prometheus instrumentation, per spec
// section 4.9's observability surface.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	ChainHeight = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: "simplecoin",
		Name:      "chain_height",
		Help:      "Number of blocks in the local chain.",
	})

	Difficulty = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: "simplecoin",
		Name:      "difficulty",
		Help:      "Configured proof-of-work difficulty (required leading zero hex digits).",
	})

	PeersConnected = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: "simplecoin",
		Name:      "peers_connected",
		Help:      "Number of peers in the local directory.",
	})

	MiningAttempts = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "simplecoin",
		Name:      "mining_attempts_total",
		Help:      "Total nonce increments tried while sealing blocks.",
	})

	BlocksMined = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "simplecoin",
		Name:      "blocks_mined_total",
		Help:      "Total blocks successfully sealed by this node.",
	})

	TransactionsAccepted = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "simplecoin",
		Name:      "transactions_accepted_total",
		Help:      "Total transactions included in a mined block.",
	})

	TransactionsRejected = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "simplecoin",
		Name:      "transactions_rejected_total",
		Help:      "Total transactions rejected during mining (bad signature or insufficient balance).",
	})

	HandshakesAccepted = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "simplecoin",
		Name:      "handshakes_accepted_total",
		Help:      "Total inbound /peer handshakes accepted.",
	})

	UptimeSeconds = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: "simplecoin",
		Name:      "uptime_seconds",
		Help:      "Node uptime in seconds.",
	})
)

func init() {
	prometheus.MustRegister(
		ChainHeight,
		Difficulty,
		PeersConnected,
		MiningAttempts,
		BlocksMined,
		TransactionsAccepted,
		TransactionsRejected,
		HandshakesAccepted,
		UptimeSeconds,
	)
}

// Handler returns an HTTP handler for the /metrics endpoint.
func Handler() http.Handler {
	return promhttp.Handler()
}
