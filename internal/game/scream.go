package game

import (
	"time"

	"duelarena/internal/sim"
)

// шкала 0..100: место 1 тянет к 100, место 2 к нулю
const (
	screamDuration  = 15
	screamTick      = 50 * time.Millisecond
	screamPushRate  = 0.8
	screamDecayRate = 0.3
	screamQuiet     = 5.0
	screamGameOver  = 1500 * time.Millisecond
)

type screamState struct {
	Type          string          `json:"type,omitempty"`
	MeterPosition float64         `json:"meterPosition"`
	Volumes       bySeat[float64] `json:"volumes"`
	TimeLeft      int             `json:"timeLeft"`
}

// Scream перетягивание шкалы громкостью микрофона
type Scream struct {
	base
	meter    float64
	volumes  [2]float64
	timeLeft int
	active   bool
}

func NewScream(d Deps) *Scream {
	return &Scream{base: newBase(d)}
}

func (g *Scream) Init(Room) {
	g.timers.StopAll()
	g.meter = 50
	g.volumes = [2]float64{}
	g.timeLeft = screamDuration
	g.active = false
}

func (g *Scream) Start(r Room, b Broadcast) {
	g.bind(r, b)
	g.active = true

	g.timers.Every(screamTick, g.tick)
	g.timers.Every(screamTick, func() {
		if g.active {
			g.bc(g.snapshot("scream_state"))
		}
	})
	g.timers.Every(time.Second, func() {
		g.timeLeft--
		if g.timeLeft <= 0 {
			winner := 2
			if g.meter >= 50 {
				winner = 1
			}
			g.end(winner)
		}
	})
}

func (g *Scream) tick() {
	if !g.active {
		return
	}
	push := (g.volumes[0] - g.volumes[1]) / 100 * screamPushRate

	decay := 0.0
	if g.volumes[0] < screamQuiet && g.volumes[1] < screamQuiet {
		decay = -sim.Sign(g.meter-50) * screamDecayRate
	}
	g.meter = sim.Clamp(g.meter+push+decay, 0, 100)

	switch {
	case g.meter >= 100:
		g.end(1)
	case g.meter <= 0:
		g.end(2)
	}
}

func (g *Scream) HandleMessage(_ Room, seat int, m Message, _ Broadcast) {
	if m.Type != "volume" || !g.active || !validSeat(seat) {
		return
	}
	var in struct {
		Level *float64 `json:"level"`
	}
	if !m.Decode(&in) {
		return
	}
	level := 0.0
	if in.Level != nil && sim.Finite(*in.Level) {
		level = *in.Level
	}
	g.volumes[seat-1] = sim.Clamp(level, 0, 100)
}

func (g *Scream) end(winner int) {
	g.active = false
	g.timers.StopAll()
	g.bc(g.snapshot("scream_state"))
	g.finishAfter(winner, screamGameOver)
}

func (g *Scream) snapshot(typ string) screamState {
	return screamState{
		Type:          typ,
		MeterPosition: sim.Round2(g.meter),
		Volumes:       bySeat[float64](g.volumes),
		TimeLeft:      g.timeLeft,
	}
}

func (g *Scream) State(Room) any { return g.snapshot("") }
