package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	ConnectionsActive = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "m4e_connections_active",
			Help: "Currently open WebSocket sessions",
		},
	)

	ConnectionsTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "m4e_connections_total",
			Help: "Total accepted WebSocket sessions",
		},
	)

	HandshakesRejected = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "m4e_handshakes_rejected_total",
			Help: "Connections closed because no identity could be bound",
		},
	)

	PacketsDispatched = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "m4e_packets_dispatched_total",
			Help: "Inbound packets handed to a channel handler",
		},
		[]string{"channel"},
	)

	PacketsDropped = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "m4e_packets_dropped_total",
			Help: "Inbound packets dropped before any handler ran",
		},
		[]string{"reason"}, // "decode", "unknown_channel", "unattributable"
	)

	FanoutWrites = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "m4e_fanout_writes_total",
			Help: "Packets written to individual sessions during fan-out",
		},
	)

	SendBufferDrops = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "m4e_send_buffer_drops_total",
			Help: "Outbound packets dropped because a session buffer was full",
		},
	)

	NotificationsSent = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "m4e_notifications_sent_total",
			Help: "Notification events fanned out",
		},
		[]string{"kind"}, // "users" or "relatives"
	)
)
