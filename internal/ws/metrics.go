package ws

import "github.com/prometheus/client_golang/prometheus"

var (
	Connections = prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "ws_live_connections",
		Help: "Open live-view WebSocket connections",
	})
	MessagesIn = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "ws_messages_received_total",
			Help: "Live-view messages received by type",
		},
		[]string{"type"},
	)
)

func init() {
	prometheus.MustRegister(Connections)
	prometheus.MustRegister(MessagesIn)
}
