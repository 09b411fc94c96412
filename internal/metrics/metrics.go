package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "duelarena"

// Metrics счетчики комнат и матчей
type Metrics struct {
	RoomsActive     prometheus.Gauge
	RoomsCreated    prometheus.Counter
	MatchesStarted  *prometheus.CounterVec
	MatchesFinished *prometheus.CounterVec
	FramesIn        prometheus.Counter
	FramesDropped   prometheus.Counter
	RoomPanics      prometheus.Counter
	RateLimited     prometheus.Counter
}

// New регистрирует коллекторы в reg; nil означает отдельный реестр
func New(reg prometheus.Registerer) *Metrics {
	if reg == nil {
		reg = prometheus.NewRegistry()
	}
	m := &Metrics{
		RoomsActive: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "rooms_active",
			Help:      "Rooms currently registered in the hub.",
		}),
		RoomsCreated: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "rooms_created_total",
			Help:      "Rooms created since start.",
		}),
		MatchesStarted: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "matches_started_total",
			Help:      "Matches started, by game type.",
		}, []string{"game"}),
		MatchesFinished: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "matches_finished_total",
			Help:      "Matches finished, by game type and outcome.",
		}, []string{"game", "outcome"}),
		FramesIn: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "frames_in_total",
			Help:      "Inbound websocket frames accepted for dispatch.",
		}),
		FramesDropped: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "frames_dropped_total",
			Help:      "Inbound frames dropped as malformed.",
		}),
		RoomPanics: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "room_panics_total",
			Help:      "Panics recovered inside room loops.",
		}),
		RateLimited: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "rate_limited_total",
			Help:      "Requests rejected by the rate limiter.",
		}),
	}
	reg.MustRegister(
		m.RoomsActive,
		m.RoomsCreated,
		m.MatchesStarted,
		m.MatchesFinished,
		m.FramesIn,
		m.FramesDropped,
		m.RoomPanics,
		m.RateLimited,
	)
	return m
}

// Outcome метка исхода матча по номеру победителя
func Outcome(winner int) string {
	switch winner {
	case 1:
		return "seat1"
	case 2:
		return "seat2"
	default:
		return "draw"
	}
}
