package game

import (
	"math"
	"time"

	"duelarena/internal/timers"
)

const (
	bombRounds       = 3
	bombFuseMin      = 8000.0
	bombFuseMax      = 18000.0
	bombPassCooldown = 300 * time.Millisecond
	bombTick         = 50 * time.Millisecond
	bombNextRound    = 3 * time.Second
	bombGameOver     = 2500 * time.Millisecond
)

type bombState struct {
	Round  int         `json:"round"`
	Scores bySeat[int] `json:"scores"`
}

type bombRoundStart struct {
	Type      string  `json:"type"`
	Round     int     `json:"round"`
	Holder    int     `json:"holder"`
	TotalFuse float64 `json:"totalFuse"`
}

type bombTickEvent struct {
	Type      string  `json:"type"`
	Fuse      float64 `json:"fuse"`
	TotalFuse float64 `json:"totalFuse"`
	Holder    int     `json:"holder"`
}

type bombPassed struct {
	Type      string `json:"type"`
	Holder    int    `json:"holder"`
	PassCount int    `json:"passCount"`
}

type bombExploded struct {
	Type   string      `json:"type"`
	Loser  int         `json:"loser"`
	Scores bySeat[int] `json:"scores"`
	Round  int         `json:"round"`
}

// Bomb горячая картошка: у кого бомба взорвалась, тот проиграл раунд
type Bomb struct {
	base
	round     int
	scores    [2]int
	holder    int
	fuse      float64 // мс
	totalFuse float64
	active    bool
	lastPass  time.Time
	passCount int
	fuseTimer timers.Handle
}

func NewBomb(d Deps) *Bomb {
	return &Bomb{base: newBase(d)}
}

func (g *Bomb) Init(Room) {
	g.timers.StopAll()
	g.round = 0
	g.scores = [2]int{}
	g.holder = 0
	g.fuse, g.totalFuse = 0, 0
	g.active = false
	g.lastPass = time.Time{}
	g.passCount = 0
}

func (g *Bomb) Start(r Room, b Broadcast) {
	g.bind(r, b)
	g.startRound()
}

func (g *Bomb) HandleMessage(_ Room, seat int, m Message, _ Broadcast) {
	if m.Type != "pass_bomb" || !g.active || g.holder != seat {
		return
	}
	now := g.timers.Now()
	if !g.lastPass.IsZero() && now.Sub(g.lastPass) < bombPassCooldown {
		return
	}
	g.lastPass = now
	g.passCount++
	g.holder = other(seat)
	g.bc(bombPassed{Type: "bomb_passed", Holder: g.holder, PassCount: g.passCount})
}

func (g *Bomb) startRound() {
	g.round++
	g.active = true
	g.passCount = 0
	g.lastPass = time.Time{}
	g.holder = 1 + g.rng.IntN(2)
	g.totalFuse = bombFuseMin + g.rng.Float64()*(bombFuseMax-bombFuseMin)
	g.fuse = g.totalFuse

	g.bc(bombRoundStart{Type: "bomb_round_start", Round: g.round, Holder: g.holder, TotalFuse: g.totalFuse})

	step := float64(bombTick / time.Millisecond)
	g.fuseTimer = g.timers.Every(bombTick, func() {
		g.fuse -= step
		// прогресс раз в 200 мс фитиля
		if math.Floor(g.fuse/200) != math.Floor((g.fuse+step)/200) {
			g.bc(bombTickEvent{Type: "bomb_tick", Fuse: g.fuse, TotalFuse: g.totalFuse, Holder: g.holder})
		}
		if g.fuse <= 0 {
			g.timers.Cancel(g.fuseTimer)
			g.explode()
		}
	})
}

func (g *Bomb) explode() {
	g.active = false
	winner := other(g.holder)
	g.scores[winner-1]++
	g.bc(bombExploded{Type: "bomb_exploded", Loser: g.holder, Scores: bySeat[int](g.scores), Round: g.round})

	need := (bombRounds + 1) / 2
	if g.scores[0] >= need || g.scores[1] >= need {
		w := 1
		if g.scores[1] >= need {
			w = 2
		}
		g.finishAfter(w, bombGameOver)
		return
	}

	g.timers.After(bombNextRound, func() {
		if g.playing() {
			g.startRound()
		}
	})
}

func (g *Bomb) State(Room) any {
	return bombState{Round: g.round, Scores: bySeat[int](g.scores)}
}
