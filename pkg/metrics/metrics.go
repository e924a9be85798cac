package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Handler exposes Prometheus metrics at /metrics
func Handler() http.Handler {
	return promhttp.Handler()
}

var (
	// ConnectionsActive tracks live websocket connections
	ConnectionsActive = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "beaver_ws_connections_active",
		Help: "Currently open websocket connections.",
	})

	// MessagesBroadcast counts outbound fan-out frames by message type
	MessagesBroadcast = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "beaver_ws_messages_broadcast_total",
		Help: "Frames fanned out to room members, by message type.",
	}, []string{"type"})

	// StoreErrors counts snapshot store failures by operation
	StoreErrors = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "beaver_store_errors_total",
		Help: "Snapshot store failures, by operation.",
	}, []string{"op"})

	// RoomsExpired counts rooms deleted by the expiry sweeper
	RoomsExpired = promauto.NewCounter(prometheus.CounterOpts{
		Name: "beaver_rooms_expired_total",
		Help: "Rooms deleted after exceeding their TTL.",
	})
)
