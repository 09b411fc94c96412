package game

import (
	"math"
	"time"

	"duelarena/internal/sim"
)

const (
	sprintTrack       = 200.0
	sprintLanes       = 3
	sprintSpeed       = 15.0
	sprintBoostSpeed  = 25.0
	sprintMaxBoosts   = 3
	sprintObstacleGap = 12
	sprintHitDistance = 1.5
	sprintTick        = 50 * time.Millisecond
	sprintStun        = 800 * time.Millisecond
	sprintBoost       = 1500 * time.Millisecond
	sprintTimeLimit   = 30.0
)

type sprintObstacle struct {
	Z    float64 `json:"z"`
	Lane int     `json:"lane"`
}

type sprintRunner struct {
	z        float64
	lane     int
	boosts   int
	boosting bool
	stunned  bool
	finished bool
}

type sprintRunnerView struct {
	Z        float64 `json:"z"`
	Lane     int     `json:"lane"`
	Boosts   int     `json:"boosts"`
	Stunned  bool    `json:"stunned"`
	Finished bool    `json:"finished"`
}

type sprintState struct {
	Players     [2]sprintRunnerView `json:"players"`
	Obstacles   []sprintObstacle    `json:"obstacles"`
	TrackLength float64             `json:"trackLength"`
}

type sprintRaceState struct {
	Type    string              `json:"type"`
	Players [2]sprintRunnerView `json:"players"`
	Elapsed float64             `json:"elapsed"`
}

// Sprint прямая трасса в три полосы; клиент выбирает полосу и ускорение
type Sprint struct {
	base
	runners   [2]sprintRunner
	obstacles []sprintObstacle
	elapsed   float64
}

func NewSprint(d Deps) *Sprint {
	return &Sprint{base: newBase(d)}
}

func (g *Sprint) Init(Room) {
	g.timers.StopAll()
	g.obstacles = nil
	for z := 20; float64(z) < sprintTrack-20; z += sprintObstacleGap {
		g.obstacles = append(g.obstacles, sprintObstacle{Z: float64(z), Lane: g.rng.IntN(sprintLanes)})
	}
	for i := range g.runners {
		g.runners[i] = sprintRunner{lane: 1, boosts: sprintMaxBoosts}
	}
	g.elapsed = 0
}

func (g *Sprint) Start(r Room, b Broadcast) {
	g.bind(r, b)
	g.timers.Every(sprintTick, g.tick)
}

func (g *Sprint) tick() {
	dt := sprintTick.Seconds()
	g.elapsed += dt

	for i := range g.runners {
		p := &g.runners[i]
		if p.finished || p.stunned {
			continue
		}
		speed := sprintSpeed
		if p.boosting {
			speed = sprintBoostSpeed
		}
		p.z += speed * dt

		for _, obs := range g.obstacles {
			if math.Abs(p.z-obs.Z) < sprintHitDistance && p.lane == obs.Lane {
				p.stunned = true
				p.z = math.Max(0, obs.Z-2)
				g.timers.After(sprintStun, func() { p.stunned = false })
				break
			}
		}

		if p.z >= sprintTrack {
			p.z = sprintTrack
			p.finished = true
		}
	}

	g.bc(sprintRaceState{Type: "race_state", Players: g.views(), Elapsed: sim.Round1(g.elapsed)})

	a, b := g.runners[0], g.runners[1]
	if a.finished || b.finished {
		winner := 2
		if a.finished && (!b.finished || a.z >= b.z) {
			winner = 1
		}
		g.finish(winner)
		return
	}
	if g.elapsed > sprintTimeLimit {
		winner := 0
		switch {
		case a.z > b.z:
			winner = 1
		case b.z > a.z:
			winner = 2
		}
		g.finish(winner)
	}
}

func (g *Sprint) HandleMessage(_ Room, seat int, m Message, _ Broadcast) {
	if !validSeat(seat) {
		return
	}
	p := &g.runners[seat-1]
	if p.finished || p.stunned {
		return
	}

	switch m.Type {
	case "steer":
		var in struct {
			Lane *int `json:"lane"`
		}
		if !m.Decode(&in) || in.Lane == nil {
			return
		}
		if *in.Lane >= 0 && *in.Lane < sprintLanes {
			p.lane = *in.Lane
		}
	case "boost":
		if p.boosts > 0 && !p.boosting {
			p.boosts--
			p.boosting = true
			g.timers.After(sprintBoost, func() { p.boosting = false })
		}
	}
}

func (g *Sprint) views() [2]sprintRunnerView {
	var out [2]sprintRunnerView
	for i, p := range g.runners {
		out[i] = sprintRunnerView{
			Z:        sim.Round1(p.z),
			Lane:     p.lane,
			Boosts:   p.boosts,
			Stunned:  p.stunned,
			Finished: p.finished,
		}
	}
	return out
}

func (g *Sprint) State(Room) any {
	return sprintState{
		Players:     g.views(),
		Obstacles:   append([]sprintObstacle(nil), g.obstacles...),
		TrackLength: sprintTrack,
	}
}
