// Package metrics exposes the gateway's Prometheus counters and
// histograms, grounded on the metrics package's promauto.With(Registry)
// convention: a private registry (never the global default) so the
// gateway's metrics namespace stays isolated from anything else linked
// into the same process.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "as2gw"

// Registry is the private Prometheus registry all gateway metrics
// register against.
var Registry = prometheus.NewRegistry()

var (
	// MessagesProcessed counts inbound/outbound messages by direction
	// and final status.
	MessagesProcessed = promauto.With(Registry).NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "messages",
			Name:      "processed_total",
			Help:      "Total number of AS2 messages processed",
		},
		[]string{"direction", "status"},
	)

	// MDNsSent counts MDNs dispatched by delivery mode and outcome.
	MDNsSent = promauto.With(Registry).NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "mdn",
			Name:      "sent_total",
			Help:      "Total number of MDNs sent",
		},
		[]string{"mode", "outcome"},
	)

	// RetriesExhausted counts outbound messages that were dead-lettered
	// after exceeding MAXRETRIES.
	RetriesExhausted = promauto.With(Registry).NewCounter(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "retries",
			Name:      "exhausted_total",
			Help:      "Total number of messages dead-lettered after exhausting retries",
		},
	)

	// ErrorsByKind counts pipeline failures by as2err.Kind name.
	ErrorsByKind = promauto.With(Registry).NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "errors",
			Name:      "total",
			Help:      "Total number of pipeline errors by kind",
		},
		[]string{"kind"},
	)

	// ProcessingDuration tracks how long inbound processing takes.
	ProcessingDuration = promauto.With(Registry).NewHistogram(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "messages",
			Name:      "processing_duration_seconds",
			Help:      "Inbound message processing duration in seconds",
			Buckets:   prometheus.ExponentialBuckets(0.001, 2, 12),
		},
	)
)

// Handler returns the HTTP handler serving /metrics.
func Handler() http.Handler {
	return promhttp.HandlerFor(Registry, promhttp.HandlerOpts{EnableOpenMetrics: true})
}

// StartServer runs a standalone metrics HTTP server until ListenAndServe returns.
func StartServer(addr string) error {
	mux := http.NewServeMux()
	mux.Handle("/metrics", Handler())
	return http.ListenAndServe(addr, mux)
}
