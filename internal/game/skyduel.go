package game

import (
	"math"
	"time"

	"duelarena/internal/sim"
	"duelarena/internal/timers"
)

const (
	skyTick           = 50 * time.Millisecond
	skyBulletSpeed    = 60.0
	skyHomingSpeed    = 40.0
	skyHomingTurn     = 3.0
	skyBoomerangSpeed = 50.0
	skyPlaneSpeed     = 90.0
	skyFireEvery      = 0.8
	skyPowerupEvery   = 4.0
	skyPowerupHit     = 5.0
	skyBulletHit      = 4.0
	skyMineHit        = 5.0
	skyMaxHP          = 3
	skyTimeLimit      = 40.0
	skyReverse        = 3 * time.Second
	skyMaxBullets     = 20
	skyMaxMines       = 3
	skyMaxPowerups    = 2
	skyMidY           = 50.0
)

// места: 1 внизу и стреляет вверх, 2 наверху и стреляет вниз
var skyPlaneY = [2]float64{85, 15}

const (
	bulletNormal    = "normal"
	bulletHoming    = "homing"
	bulletBoomerang = "boomerang"
)

const (
	skySplit     = "split"
	skyHoming    = "homing"
	skyMine      = "mine"
	skyShield    = "shield"
	skyBoomerang = "boomerang"
	skyReverseFx = "reverse"
)

var skyPowerupKinds = []string{skySplit, skyHoming, skyMine, skyShield, skyBoomerang, skyReverseFx}

type skyPlane struct {
	x        float64
	targetX  float64
	hp       int
	shield   bool
	weapon   string
	reversed bool
	lastFire float64

	reverseTimer timers.Handle
}

type skyBullet struct {
	pos       sim.Vec2
	vel       sim.Vec2
	kind      string
	owner     int
	returning bool
}

type skyMineObj struct {
	pos   sim.Vec2
	owner int
}

type skyPowerup struct {
	pos  sim.Vec2
	kind string
}

type skyPlaneView struct {
	X            float64 `json:"x"`
	HP           int     `json:"hp"`
	Shield       bool    `json:"shield"`
	ActiveWeapon *string `json:"activeWeapon"`
	Reversed     bool    `json:"reversed"`
}

type skyBulletView struct {
	X     float64 `json:"x"`
	Y     float64 `json:"y"`
	Type  string  `json:"type"`
	Owner int     `json:"owner"`
}

type skyMineView struct {
	X     float64 `json:"x"`
	Y     float64 `json:"y"`
	Owner int     `json:"owner"`
}

type skyPowerupView struct {
	X    float64 `json:"x"`
	Y    float64 `json:"y"`
	Type string  `json:"type"`
}

type skyState struct {
	Type      string           `json:"type,omitempty"`
	Players   [2]skyPlaneView  `json:"players"`
	Bullets   []skyBulletView  `json:"bullets"`
	Mines     []skyMineView    `json:"mines"`
	Powerups  []skyPowerupView `json:"powerups"`
	Elapsed   float64          `json:"elapsed"`
	TimeLimit float64          `json:"timeLimit,omitempty"`
}

type skyMineExplode struct {
	Type string  `json:"type"`
	X    float64 `json:"x"`
	Y    float64 `json:"y"`
}

type skyPickup struct {
	Type        string `json:"type"`
	Seat        int    `json:"seat"`
	PowerupType string `json:"powerupType"`
}

type skyHit struct {
	Type         string `json:"type"`
	Seat         int    `json:"seat"`
	HP           int    `json:"hp"`
	ShieldBroken bool   `json:"shieldBroken"`
}

// SkyDuel самолеты друг напротив друга стреляют автоматически.
// Бонусы подбираются выстрелом, мины перехватывают чужие пули.
type SkyDuel struct {
	base
	planes     [2]skyPlane
	bullets    []skyBullet
	mines      []skyMineObj
	powerups   []skyPowerup
	elapsed    float64
	nextPickup float64
}

func NewSkyDuel(d Deps) *SkyDuel {
	return &SkyDuel{base: newBase(d)}
}

func (g *SkyDuel) Init(Room) {
	g.timers.StopAll()
	g.planes = [2]skyPlane{
		{x: 30, targetX: 30, hp: skyMaxHP},
		{x: 70, targetX: 70, hp: skyMaxHP},
	}
	g.bullets = nil
	g.mines = nil
	g.powerups = nil
	g.elapsed = 0
	g.nextPickup = skyPowerupEvery
}

func (g *SkyDuel) Start(r Room, b Broadcast) {
	g.bind(r, b)
	g.timers.Every(skyTick, g.tick)
}

func (g *SkyDuel) tick() {
	dt := skyTick.Seconds()
	g.elapsed += dt

	g.movePlanes(dt)
	g.fire()
	g.moveBullets(dt)
	// порядок важен: мина, затем бонус, затем самолет
	g.hitMines()
	g.hitPowerups()
	g.hitPlanes()

	if g.elapsed >= g.nextPickup && len(g.powerups) < skyMaxPowerups {
		g.powerups = append(g.powerups, skyPowerup{
			pos:  sim.Vec2{X: sim.Round2(sim.RandRange(g.rng, 15, 85)), Y: skyMidY},
			kind: sim.Pick(g.rng, skyPowerupKinds),
		})
		g.nextPickup = g.elapsed + skyPowerupEvery
	}

	s := g.snapshot()
	s.Type = "sky_state"
	s.TimeLimit = 0
	g.bc(s)

	if g.planes[0].hp <= 0 || g.planes[1].hp <= 0 || g.elapsed >= skyTimeLimit {
		winner := 1
		if g.planes[1].hp > g.planes[0].hp {
			winner = 2
		}
		g.finish(winner)
	}
}

func (g *SkyDuel) movePlanes(dt float64) {
	step := skyPlaneSpeed * dt
	for i := range g.planes {
		p := &g.planes[i]
		if p.hp <= 0 {
			continue
		}
		p.x += sim.Clamp(p.targetX-p.x, -step, step)
	}
}

func (g *SkyDuel) fire() {
	for i := range g.planes {
		p := &g.planes[i]
		if p.hp <= 0 || g.elapsed-p.lastFire < skyFireEvery {
			continue
		}
		p.lastFire = g.elapsed
		seat := i + 1
		dirY := 1.0
		if seat == 1 {
			dirY = -1
		}
		origin := sim.Vec2{X: p.x, Y: skyPlaneY[i]}
		shot := func(vel sim.Vec2, kind string) {
			g.bullets = append(g.bullets, skyBullet{pos: origin, vel: vel, kind: kind, owner: seat})
		}

		switch p.weapon {
		case skySplit:
			for _, deg := range []float64{-20, 0, 20} {
				a := sim.Deg2Rad(deg)
				shot(sim.Vec2{X: math.Sin(a) * skyBulletSpeed, Y: dirY * math.Cos(a) * skyBulletSpeed}, bulletNormal)
			}
		case skyHoming:
			shot(sim.Vec2{Y: dirY * skyHomingSpeed}, bulletHoming)
		case skyBoomerang:
			shot(sim.Vec2{Y: dirY * skyBoomerangSpeed}, bulletBoomerang)
		default:
			shot(sim.Vec2{Y: dirY * skyBulletSpeed}, bulletNormal)
		}
		p.weapon = ""

		if n := len(g.bullets) - skyMaxBullets; n > 0 {
			g.bullets = append([]skyBullet(nil), g.bullets[n:]...)
		}
	}
}

func (g *SkyDuel) moveBullets(dt float64) {
	travel := math.Abs(skyPlaneY[0] - skyPlaneY[1])
	kept := g.bullets[:0]
	for _, b := range g.bullets {
		opp := other(b.owner) - 1
		originY := skyPlaneY[b.owner-1]

		switch {
		case b.kind == bulletHoming:
			target := sim.Vec2{X: g.planes[opp].x, Y: skyPlaneY[opp]}
			heading := sim.TurnToward(b.vel.Angle(), target.Sub(b.pos).Angle(), skyHomingTurn*dt)
			b.vel = sim.Vec2{X: math.Cos(heading), Y: math.Sin(heading)}.Scale(skyHomingSpeed)
		case b.kind == bulletBoomerang && !b.returning:
			if math.Abs(b.pos.Y-originY) >= travel*0.6 {
				b.returning = true
				b.vel.Y = -b.vel.Y
				b.vel.X = sim.Sign(g.planes[opp].x-b.pos.X) * skyBoomerangSpeed * 0.3
			}
		}

		b.pos = b.pos.Add(b.vel.Scale(dt))
		if b.pos.Y < -5 || b.pos.Y > 105 {
			continue
		}
		if b.kind == bulletBoomerang && b.returning {
			if (b.owner == 1 && b.pos.Y > originY+5) || (b.owner == 2 && b.pos.Y < originY-5) {
				continue
			}
		}
		kept = append(kept, b)
	}
	g.bullets = kept
}

// hitMines мина гасит пулю соперника и исчезает сама
func (g *SkyDuel) hitMines() {
	kept := g.bullets[:0]
	for _, b := range g.bullets {
		hit := -1
		for mi, m := range g.mines {
			if m.owner != b.owner && b.pos.Dist(m.pos) < skyMineHit {
				hit = mi
				break
			}
		}
		if hit < 0 {
			kept = append(kept, b)
			continue
		}
		m := g.mines[hit]
		g.bc(skyMineExplode{Type: "sky_mine_explode", X: sim.Round2(m.pos.X), Y: sim.Round2(m.pos.Y)})
		g.mines = append(g.mines[:hit], g.mines[hit+1:]...)
	}
	g.bullets = kept
}

// hitPowerups бонус достается владельцу пули
func (g *SkyDuel) hitPowerups() {
	kept := g.bullets[:0]
	for _, b := range g.bullets {
		hit := -1
		for pi, pu := range g.powerups {
			if b.pos.Dist(pu.pos) < skyPowerupHit {
				hit = pi
				break
			}
		}
		if hit < 0 {
			kept = append(kept, b)
			continue
		}
		pu := g.powerups[hit]
		g.applyPowerup(b.owner, pu.kind)
		g.bc(skyPickup{Type: "sky_pickup", Seat: b.owner, PowerupType: pu.kind})
		g.powerups = append(g.powerups[:hit], g.powerups[hit+1:]...)
	}
	g.bullets = kept
}

func (g *SkyDuel) applyPowerup(owner int, kind string) {
	p := &g.planes[owner-1]
	switch kind {
	case skyShield:
		p.shield = true
	case skyMine:
		n := 0
		for _, m := range g.mines {
			if m.owner == owner {
				n++
			}
		}
		if n < skyMaxMines {
			g.mines = append(g.mines, skyMineObj{pos: sim.Vec2{X: p.x, Y: skyMidY}, owner: owner})
		}
	case skyReverseFx:
		opp := &g.planes[other(owner)-1]
		opp.reversed = true
		g.timers.Cancel(opp.reverseTimer)
		opp.reverseTimer = g.timers.After(skyReverse, func() { opp.reversed = false })
	default:
		p.weapon = kind
	}
}

// hitPlanes щит отражает пулю, и она переходит к хозяину щита
func (g *SkyDuel) hitPlanes() {
	kept := g.bullets[:0]
	for _, b := range g.bullets {
		removed := false
		for i := range g.planes {
			p := &g.planes[i]
			seat := i + 1
			if b.owner == seat || p.hp <= 0 {
				continue
			}
			if b.pos.Dist(sim.Vec2{X: p.x, Y: skyPlaneY[i]}) >= skyBulletHit {
				continue
			}
			if p.shield {
				p.shield = false
				b.vel.Y = -b.vel.Y
				b.owner = seat
				g.bc(skyHit{Type: "sky_hit", Seat: seat, HP: p.hp, ShieldBroken: true})
			} else {
				p.hp = max(0, p.hp-1)
				removed = true
				g.bc(skyHit{Type: "sky_hit", Seat: seat, HP: p.hp})
			}
			break
		}
		if !removed {
			kept = append(kept, b)
		}
	}
	g.bullets = kept
}

func (g *SkyDuel) HandleMessage(_ Room, seat int, m Message, _ Broadcast) {
	if m.Type != "move" || !validSeat(seat) {
		return
	}
	p := &g.planes[seat-1]
	if p.hp <= 0 {
		return
	}
	var in struct {
		X *float64 `json:"x"`
	}
	if !m.Decode(&in) || in.X == nil || !sim.Finite(*in.X) {
		return
	}
	x := sim.Clamp(*in.X, 5, 95)
	if p.reversed {
		x = 100 - x
	}
	p.targetX = x
}

func (g *SkyDuel) snapshot() skyState {
	s := skyState{
		Bullets:   make([]skyBulletView, len(g.bullets)),
		Mines:     make([]skyMineView, len(g.mines)),
		Powerups:  make([]skyPowerupView, len(g.powerups)),
		Elapsed:   sim.Round2(g.elapsed),
		TimeLimit: skyTimeLimit,
	}
	for i, p := range g.planes {
		var weapon *string
		if p.weapon != "" {
			w := p.weapon
			weapon = &w
		}
		s.Players[i] = skyPlaneView{X: sim.Round2(p.x), HP: p.hp, Shield: p.shield, ActiveWeapon: weapon, Reversed: p.reversed}
	}
	for i, b := range g.bullets {
		s.Bullets[i] = skyBulletView{X: sim.Round2(b.pos.X), Y: sim.Round2(b.pos.Y), Type: b.kind, Owner: b.owner}
	}
	for i, m := range g.mines {
		s.Mines[i] = skyMineView{X: sim.Round2(m.pos.X), Y: sim.Round2(m.pos.Y), Owner: m.owner}
	}
	for i, pu := range g.powerups {
		s.Powerups[i] = skyPowerupView{X: sim.Round2(pu.pos.X), Y: sim.Round2(pu.pos.Y), Type: pu.kind}
	}
	return s
}

func (g *SkyDuel) State(Room) any { return g.snapshot() }
