package websocket

import "github.com/prometheus/client_golang/prometheus"

var (
	wsConnections = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "lobby_ws_connections",
			Help: "Current number of active websocket connections.",
		},
	)
	wsMessagesDelivered = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "lobby_ws_messages_delivered_total",
			Help: "Total websocket messages delivered to clients.",
		},
	)
	wsInbound = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "lobby_ws_inbound_messages_total",
			Help: "Inbound websocket frames by action.",
		},
		[]string{"action"},
	)
)

func init() {
	prometheus.MustRegister(wsConnections, wsMessagesDelivered, wsInbound)
}
