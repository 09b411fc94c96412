package game

import (
	"encoding/json"
	"math"
	"time"

	"duelarena/internal/sim"
	"duelarena/internal/timers"
)

const (
	derbyTick          = 50 * time.Millisecond
	derbyArenaHalf     = 30.0
	derbyBaseSpeed     = 10.0
	derbyBoostSpeed    = 20.0
	derbyBrakeFactor   = 0.3
	derbySteerRate     = 3.5
	derbyCollisionDist = 4.0
	derbyCooldown      = 1.5
	derbyStun          = 600 * time.Millisecond
	derbyBoost         = 3 * time.Second
	derbyPowerupEvery  = 5.0
	derbyPickupDist    = 3.0
	derbyMaxPowerups   = 2
	derbyMaxHP         = 3
	derbyTimeLimit     = 45.0
)

const (
	powerupShield = "shield"
	powerupBoost  = "boost"
)

type derbyCar struct {
	pos     sim.Vec2
	angle   float64
	hp      int
	shield  bool
	boosted bool
	stunned bool
	braking bool
	steer   float64

	boostTimer timers.Handle
	stunTimer  timers.Handle
}

func (c *derbyCar) speed() float64 {
	if c.boosted {
		return derbyBoostSpeed
	}
	return derbyBaseSpeed
}

// hit щит поглощает один удар
func (c *derbyCar) hit() {
	if c.shield {
		c.shield = false
		return
	}
	c.hp = max(0, c.hp-1)
}

type derbyPowerup struct {
	X    float64 `json:"x"`
	Y    float64 `json:"y"`
	Type string  `json:"type"`
}

type derbyCarView struct {
	X       float64 `json:"x"`
	Y       float64 `json:"y"`
	Angle   float64 `json:"angle"`
	HP      int     `json:"hp"`
	Shield  bool    `json:"shield"`
	Boosted bool    `json:"boosted"`
	Stunned bool    `json:"stunned"`
}

type derbyState struct {
	Type      string          `json:"type,omitempty"`
	Players   [2]derbyCarView `json:"players"`
	Powerups  []derbyPowerup  `json:"powerups"`
	Elapsed   float64         `json:"elapsed"`
	TimeLimit float64         `json:"timeLimit,omitempty"`
	ArenaSize float64         `json:"arenaSize,omitempty"`
}

type derbyHealth struct {
	HP     int  `json:"hp"`
	Shield bool `json:"shield"`
}

type derbyCollision struct {
	Type    string         `json:"type"`
	Players [2]derbyHealth `json:"players"`
}

type derbyPickup struct {
	Type        string `json:"type"`
	Seat        int    `json:"seat"`
	PowerupType string `json:"powerupType"`
}

// Derby два автомобиля на квадратной арене таранят друг друга до потери
// всех очков прочности
type Derby struct {
	base
	cars          [2]derbyCar
	powerups      []derbyPowerup
	elapsed       float64
	nextPowerup   float64
	lastCollision float64
}

func NewDerby(d Deps) *Derby {
	return &Derby{base: newBase(d)}
}

func (g *Derby) Init(Room) {
	g.timers.StopAll()
	g.cars = [2]derbyCar{
		{pos: sim.Vec2{X: -15}, angle: 0, hp: derbyMaxHP},
		{pos: sim.Vec2{X: 15}, angle: math.Pi, hp: derbyMaxHP},
	}
	g.powerups = nil
	g.elapsed = 0
	g.nextPowerup = derbyPowerupEvery
	g.lastCollision = -derbyCooldown
}

func (g *Derby) Start(r Room, b Broadcast) {
	g.bind(r, b)
	g.timers.Every(derbyTick, g.tick)
}

func clampArena(v sim.Vec2) sim.Vec2 {
	return sim.Vec2{
		X: sim.Clamp(v.X, -derbyArenaHalf, derbyArenaHalf),
		Y: sim.Clamp(v.Y, -derbyArenaHalf, derbyArenaHalf),
	}
}

func (g *Derby) tick() {
	dt := derbyTick.Seconds()
	g.elapsed += dt

	for i := range g.cars {
		c := &g.cars[i]
		if c.stunned || c.hp <= 0 {
			continue
		}
		c.angle += c.steer * derbySteerRate * dt
		speed := c.speed()
		if c.braking {
			speed *= derbyBrakeFactor
		}
		c.pos = clampArena(c.pos.Add(sim.Vec2{X: math.Cos(c.angle), Y: math.Sin(c.angle)}.Scale(speed * dt)))
	}

	g.checkCollision()
	g.checkPickup()

	if g.elapsed >= g.nextPowerup && len(g.powerups) < derbyMaxPowerups {
		kind := powerupBoost
		if g.rng.Float64() < 0.5 {
			kind = powerupShield
		}
		g.powerups = append(g.powerups, derbyPowerup{
			X:    sim.Round2(sim.RandRange(g.rng, -25, 25)),
			Y:    sim.Round2(sim.RandRange(g.rng, -25, 25)),
			Type: kind,
		})
		g.nextPowerup = g.elapsed + derbyPowerupEvery
	}

	g.bc(g.frame())

	if g.cars[0].hp <= 0 || g.cars[1].hp <= 0 || g.elapsed >= derbyTimeLimit {
		// при равной прочности побеждает место 1
		winner := 1
		if g.cars[1].hp > g.cars[0].hp {
			winner = 2
		}
		g.finish(winner)
	}
}

// checkCollision лобовой удар ранит обоих, иначе страдает тот,
// чья скорость в сторону соперника меньше
func (g *Derby) checkCollision() {
	a, b := &g.cars[0], &g.cars[1]
	if a.hp <= 0 || b.hp <= 0 || a.stunned || b.stunned {
		return
	}
	if g.elapsed-g.lastCollision < derbyCooldown {
		return
	}
	delta := b.pos.Sub(a.pos)
	dist := delta.Len()
	if dist >= derbyCollisionDist {
		return
	}
	g.lastCollision = g.elapsed

	toB := delta.Angle()
	toA := sim.Vec2{X: -delta.X, Y: -delta.Y}.Angle()
	fwdA := math.Cos(a.angle-toB) * a.speed()
	fwdB := math.Cos(b.angle-toA) * b.speed()

	switch {
	case fwdA > 0 && fwdB > 0:
		a.hit()
		b.hit()
	case fwdA >= fwdB:
		b.hit()
	default:
		a.hit()
	}

	g.stun(a)
	g.stun(b)

	if dist > 0 {
		push := delta.Scale(1 / dist).Scale((derbyCollisionDist-dist)/2 + 0.5)
		a.pos = clampArena(a.pos.Sub(push))
		b.pos = clampArena(b.pos.Add(push))
	}

	g.bc(derbyCollision{
		Type: "derby_collision",
		Players: [2]derbyHealth{
			{HP: a.hp, Shield: a.shield},
			{HP: b.hp, Shield: b.shield},
		},
	})
}

func (g *Derby) stun(c *derbyCar) {
	c.stunned = true
	g.timers.Cancel(c.stunTimer)
	c.stunTimer = g.timers.After(derbyStun, func() { c.stunned = false })
}

func (g *Derby) checkPickup() {
	for i := len(g.powerups) - 1; i >= 0; i-- {
		pu := g.powerups[i]
		at := sim.Vec2{X: pu.X, Y: pu.Y}
		for j := range g.cars {
			c := &g.cars[j]
			if c.hp <= 0 || c.stunned || c.pos.Dist(at) >= derbyPickupDist {
				continue
			}
			switch pu.Type {
			case powerupShield:
				c.shield = true
			case powerupBoost:
				// новый ускоритель заменяет прежний и перезапускает срок
				c.boosted = true
				g.timers.Cancel(c.boostTimer)
				c.boostTimer = g.timers.After(derbyBoost, func() { c.boosted = false })
			}
			g.bc(derbyPickup{Type: "derby_powerup_pickup", Seat: j + 1, PowerupType: pu.Type})
			g.powerups = append(g.powerups[:i], g.powerups[i+1:]...)
			break
		}
	}
}

func (g *Derby) HandleMessage(_ Room, seat int, m Message, _ Broadcast) {
	if !validSeat(seat) {
		return
	}
	c := &g.cars[seat-1]
	if c.hp <= 0 {
		return
	}
	switch m.Type {
	case "steer":
		var in struct {
			Angle *float64 `json:"angle"`
		}
		if !m.Decode(&in) || in.Angle == nil || !sim.Finite(*in.Angle) {
			return
		}
		c.steer = sim.Clamp(*in.Angle, -1, 1)
	case "brake":
		var in struct {
			Active json.RawMessage `json:"active"`
		}
		if !m.Decode(&in) {
			return
		}
		c.braking = truthy(in.Active)
	}
}

func (g *Derby) views(angle func(float64) float64) [2]derbyCarView {
	var out [2]derbyCarView
	for i, c := range g.cars {
		out[i] = derbyCarView{
			X:       sim.Round2(c.pos.X),
			Y:       sim.Round2(c.pos.Y),
			Angle:   angle(c.angle),
			HP:      c.hp,
			Shield:  c.shield,
			Boosted: c.boosted,
			Stunned: c.stunned,
		}
	}
	return out
}

func (g *Derby) frame() derbyState {
	return derbyState{
		Type:     "derby_state",
		Players:  g.views(func(a float64) float64 { return sim.RoundTo(a, 3) }),
		Powerups: append([]derbyPowerup{}, g.powerups...),
		Elapsed:  sim.Round1(g.elapsed),
	}
}

func (g *Derby) State(Room) any {
	return derbyState{
		Players:   g.views(func(a float64) float64 { return a }),
		Powerups:  append([]derbyPowerup{}, g.powerups...),
		Elapsed:   g.elapsed,
		TimeLimit: derbyTimeLimit,
		ArenaSize: derbyArenaHalf * 2,
	}
}
