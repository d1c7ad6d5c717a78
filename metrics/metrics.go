// Package metrics exposes Prometheus instrumentation for the messenger: socket
// connection counts, event throughput and message send latency.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// WSConnections tracks the number of open websocket connections on this instance.
	WSConnections = prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "messenger_ws_connections",
		Help: "Current number of open WebSocket connections",
	})

	// WSEventsTotal counts inbound socket events by name.
	WSEventsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "messenger_ws_events_total",
		Help: "Total number of inbound WebSocket events handled",
	}, []string{"event"})

	// WSErrorsTotal counts socket events that ended in a scoped error event.
	WSErrorsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "messenger_ws_errors_total",
		Help: "Total number of WebSocket events that failed",
	}, []string{"event"})

	// MessagesTotal counts persisted messages, labeled by message type.
	MessagesTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "messenger_messages_total",
		Help: "Total number of messages sent",
	}, []string{"type"})

	// MessageSendSeconds records the time to persist and fan out a message.
	MessageSendSeconds = prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "messenger_message_send_seconds",
		Help:    "Message send latency in seconds",
		Buckets: []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1},
	})
)

func init() {
	prometheus.MustRegister(
		WSConnections,
		WSEventsTotal,
		WSErrorsTotal,
		MessagesTotal,
		MessageSendSeconds,
	)
}

// Handler returns the Prometheus metrics HTTP handler.
func Handler() http.Handler {
	return promhttp.Handler()
}
