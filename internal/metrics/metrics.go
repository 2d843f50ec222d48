// Package metrics exposes the server's Prometheus instrumentation.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	ActiveRooms = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "pong_active_rooms",
		Help: "Number of rooms currently registered.",
	})

	GamesFinished = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "pong_games_finished_total",
		Help: "Finished matches by end reason.",
	}, []string{"reason"})

	MessagesReceived = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "pong_messages_received_total",
		Help: "Inbound protocol messages by type.",
	}, []string{"type"})

	PhysicsTicks = promauto.NewCounter(prometheus.CounterOpts{
		Name: "pong_physics_ticks_total",
		Help: "Simulation ticks executed across all rooms.",
	})
)
