package lobby

import "github.com/prometheus/client_golang/prometheus"

var (
	roomsActive = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "lobby_rooms",
			Help: "Current number of live rooms.",
		},
	)
	roomsReaped = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "lobby_rooms_reaped_total",
			Help: "Rooms closed by the idle sweep.",
		},
	)
	tokensIssued = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "lobby_tokens_issued_total",
			Help: "Join tokens issued, by role.",
		},
		[]string{"role"},
	)
	tokensRedeemed = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "lobby_tokens_redeemed_total",
			Help: "Join tokens redeemed, by role.",
		},
		[]string{"role"},
	)
	broadcastDrops = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "lobby_broadcast_drops_total",
			Help: "Connections dropped from a room after a failed send.",
		},
	)
	backgroundDropped = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "lobby_background_jobs_dropped_total",
			Help: "Write-behind and publish jobs dropped because the queue was full.",
		},
		[]string{"job"},
	)
)

func init() {
	prometheus.MustRegister(roomsActive, roomsReaped, tokensIssued, tokensRedeemed, broadcastDrops, backgroundDropped)
}
