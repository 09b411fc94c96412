package game

import (
	"math"
	"time"

	"duelarena/internal/sim"
)

const (
	driftTick         = 50 * time.Millisecond
	driftArenaRadius  = 40.0
	driftSpawnRadius  = 35.0
	driftMaxCoins     = 5
	driftCoinInterval = 3.0
	driftFirstCoin    = 2.0
	driftPickupDist   = 3.0
	driftBumpDist     = 4.0
	driftBumpCooldown = 1.0
	driftStun         = 500 * time.Millisecond
	driftCarSpeed     = 8.0
	driftTurnRate     = 3.0
	driftDuration     = 30.0
)

type driftCar struct {
	pos     sim.Vec2
	angle   float64
	coins   int
	stunned bool
	steer   float64
}

type driftCarView struct {
	X       float64 `json:"x"`
	Y       float64 `json:"y"`
	Angle   float64 `json:"angle"`
	Coins   int     `json:"coins"`
	Stunned bool    `json:"stunned"`
}

type point struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

type driftState struct {
	Type        string          `json:"type,omitempty"`
	Players     [2]driftCarView `json:"players"`
	Coins       []point         `json:"coins"`
	Elapsed     float64         `json:"elapsed"`
	Duration    float64         `json:"duration,omitempty"`
	ArenaRadius float64         `json:"arenaRadius,omitempty"`
}

type driftCoinCollected struct {
	Type  string `json:"type"`
	Seat  int    `json:"seat"`
	Coins int    `json:"coins"`
}

type driftCoins struct {
	Type  string `json:"type"`
	Coins [2]int `json:"coins"`
}

type driftCoinSpawned struct {
	Type  string  `json:"type"`
	Coins []point `json:"coins"`
}

type driftGameOver struct {
	Type   string `json:"type"`
	Winner int    `json:"winner"`
	Coins  [2]int `json:"coins"`
}

// Drift круглая арена: машины едут сами, игрок только рулит.
// Монеты собираются касанием, столкновение крадет по монете.
type Drift struct {
	base
	cars     [2]driftCar
	coins    []sim.Vec2
	elapsed  float64
	nextCoin float64
	lastBump float64
}

func NewDrift(d Deps) *Drift {
	return &Drift{base: newBase(d)}
}

func (g *Drift) Init(Room) {
	g.timers.StopAll()
	g.cars = [2]driftCar{
		{pos: sim.Vec2{X: -20}, angle: 0},
		{pos: sim.Vec2{X: 20}, angle: math.Pi},
	}
	g.coins = nil
	g.elapsed = 0
	g.nextCoin = driftFirstCoin
	g.lastBump = -driftBumpCooldown
}

func (g *Drift) Start(r Room, b Broadcast) {
	g.bind(r, b)
	g.timers.Every(driftTick, g.tick)
}

func (g *Drift) tick() {
	dt := driftTick.Seconds()
	g.elapsed += dt

	for i := range g.cars {
		c := &g.cars[i]
		if c.stunned {
			continue
		}
		c.angle += c.steer * driftTurnRate * dt
		c.pos = c.pos.Add(sim.Vec2{X: math.Cos(c.angle), Y: math.Sin(c.angle)}.Scale(driftCarSpeed * dt))
		if d := c.pos.Len(); d > driftArenaRadius {
			c.pos = c.pos.Scale(driftArenaRadius / d)
		}
	}

	g.collectCoins()
	g.checkBump()

	if g.elapsed >= g.nextCoin && len(g.coins) < driftMaxCoins {
		angle := g.rng.Float64() * 2 * math.Pi
		r := math.Sqrt(g.rng.Float64()) * driftSpawnRadius
		g.coins = append(g.coins, sim.Vec2{X: math.Cos(angle) * r, Y: math.Sin(angle) * r})
		g.nextCoin = g.elapsed + driftCoinInterval
		g.bc(driftCoinSpawned{Type: "coin_spawned", Coins: g.coinViews()})
	}

	s := g.snapshot()
	s.Type = "race_state"
	s.Duration, s.ArenaRadius = 0, 0
	g.bc(s)

	if g.elapsed >= driftDuration {
		a, b := g.cars[0].coins, g.cars[1].coins
		winner := 0
		switch {
		case a > b:
			winner = 1
		case b > a:
			winner = 2
		}
		g.finishWith(winner, driftGameOver{Type: "gameover", Winner: winner, Coins: [2]int{a, b}})
	}
}

func (g *Drift) collectCoins() {
	for i := len(g.coins) - 1; i >= 0; i-- {
		for j := range g.cars {
			c := &g.cars[j]
			if c.stunned || c.pos.Dist(g.coins[i]) >= driftPickupDist {
				continue
			}
			c.coins++
			g.coins = append(g.coins[:i], g.coins[i+1:]...)
			g.bc(driftCoinCollected{Type: "coin_collected", Seat: j + 1, Coins: c.coins})
			break
		}
	}
}

// checkBump каждый забирает у другого по монете, если у того есть
func (g *Drift) checkBump() {
	a, b := &g.cars[0], &g.cars[1]
	if a.stunned || b.stunned || g.elapsed-g.lastBump < driftBumpCooldown {
		return
	}
	if a.pos.Dist(b.pos) >= driftBumpDist {
		return
	}
	g.lastBump = g.elapsed

	fromB, fromA := 0, 0
	if b.coins > 0 {
		fromB = 1
	}
	if a.coins > 0 {
		fromA = 1
	}
	a.coins += fromB - fromA
	b.coins += fromA - fromB

	a.stunned, b.stunned = true, true
	g.timers.After(driftStun, func() { a.stunned = false })
	g.timers.After(driftStun, func() { b.stunned = false })

	g.bc(driftCoins{Type: "bump", Coins: [2]int{a.coins, b.coins}})
}

func (g *Drift) HandleMessage(_ Room, seat int, m Message, _ Broadcast) {
	if m.Type != "steer" || !validSeat(seat) {
		return
	}
	var in struct {
		Angle *float64 `json:"angle"`
	}
	if !m.Decode(&in) || in.Angle == nil || !sim.Finite(*in.Angle) {
		return
	}
	g.cars[seat-1].steer = sim.Clamp(*in.Angle, -1, 1)
}

func (g *Drift) coinViews() []point {
	out := make([]point, len(g.coins))
	for i, c := range g.coins {
		out[i] = point{X: sim.Round2(c.X), Y: sim.Round2(c.Y)}
	}
	return out
}

func (g *Drift) snapshot() driftState {
	var players [2]driftCarView
	for i, c := range g.cars {
		players[i] = driftCarView{
			X:       sim.Round2(c.pos.X),
			Y:       sim.Round2(c.pos.Y),
			Angle:   sim.Round2(c.angle),
			Coins:   c.coins,
			Stunned: c.stunned,
		}
	}
	return driftState{
		Players:     players,
		Coins:       g.coinViews(),
		Elapsed:     sim.Round2(g.elapsed),
		Duration:    driftDuration,
		ArenaRadius: driftArenaRadius,
	}
}

func (g *Drift) State(Room) any { return g.snapshot() }
