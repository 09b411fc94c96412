package game

import (
	"time"

	"duelarena/internal/maze"
	"duelarena/internal/sim"
	"duelarena/internal/timers"
)

const (
	snakeTick          = 50 * time.Millisecond
	snakeGrid          = 20
	snakeInitialLength = 3
	snakeCrashShrink   = 3
	snakeMineShrink    = 2
	snakePoisonShrink  = 2
	snakeMaxFood       = 4
	snakeFoodEvery     = 2.0
	snakeFirstFood     = 1.0
	snakePowerupEvery  = 8.0
	snakeMineCount     = 3
	snakeTimeLimit     = 40.0

	snakeStep       = 150 * time.Millisecond
	snakeTurboStep  = 80 * time.Millisecond
	snakeGoldenStep = 100 * time.Millisecond

	snakeWallFor   = 4 * time.Second
	snakeGhostFor  = 3 * time.Second
	snakeTurboFor  = 3 * time.Second
	snakeGoldenFor = 3 * time.Second
)

var snakeDirs = map[string]maze.Cell{
	"up":    {X: 0, Y: -1},
	"down":  {X: 0, Y: 1},
	"left":  {X: -1, Y: 0},
	"right": {X: 1, Y: 0},
}

var snakeOpposite = map[string]string{"up": "down", "down": "up", "left": "right", "right": "left"}

var snakeFoodKinds = []sim.Weighted[string]{
	{Value: "apple", Weight: 60},
	{Value: "golden", Weight: 10},
	{Value: "poison", Weight: 15},
	{Value: "turbo", Weight: 15},
}

var snakePowerupKinds = []sim.Weighted[string]{
	{Value: "wall", Weight: 25},
	{Value: "swap", Weight: 25},
	{Value: "ghost", Weight: 25},
	{Value: "mines", Weight: 25},
}

type snakeItem struct {
	X    int    `json:"x"`
	Y    int    `json:"y"`
	Type string `json:"type"`
}

type snakeMineCell struct {
	X     int `json:"x"`
	Y     int `json:"y"`
	Owner int `json:"owner"`
}

type snake struct {
	segments []maze.Cell
	dir      string
	nextDir  string
	score    int
	step     time.Duration
	ghosted  bool
	walled   bool
	alive    bool
	grow     int
	lastMove float64

	speedTimer timers.Handle
	ghostTimer timers.Handle
	wallTimer  timers.Handle
}

type snakeView struct {
	Segments []maze.Cell `json:"segments"`
	Dir      string      `json:"dir"`
	Score    int         `json:"score"`
	Ghosted  bool        `json:"ghosted"`
	Walled   bool        `json:"walled"`
	Alive    bool        `json:"alive"`
}

type snakeState struct {
	Type      string          `json:"type,omitempty"`
	Players   [2]snakeView    `json:"players"`
	Food      []snakeItem     `json:"food"`
	Powerups  []snakeItem     `json:"powerups"`
	Mines     []snakeMineCell `json:"mines"`
	Elapsed   *float64        `json:"elapsed,omitempty"`
	GridSize  int             `json:"gridSize,omitempty"`
	TimeLimit float64         `json:"timeLimit,omitempty"`
}

type snakeFood struct {
	Type     string `json:"type"`
	Seat     int    `json:"seat"`
	FoodType string `json:"foodType"`
	Score    int    `json:"score"`
}

type snakePowerup struct {
	Type        string `json:"type"`
	Seat        int    `json:"seat"`
	PowerupType string `json:"powerupType"`
}

type snakeHit struct {
	Type   string `json:"type"`
	Seat   int    `json:"seat"`
	Length int    `json:"length"`
	Alive  bool   `json:"alive"`
}

// SnakeClash две змейки на одном поле; столкновение укорачивает,
// змейка без сегментов выбывает
type SnakeClash struct {
	base
	snakes      [2]snake
	food        []snakeItem
	powerups    []snakeItem
	mines       []snakeMineCell
	elapsed     float64
	nextFood    float64
	nextPowerup float64
}

func NewSnakeClash(d Deps) *SnakeClash {
	return &SnakeClash{base: newBase(d)}
}

func (g *SnakeClash) Init(Room) {
	g.timers.StopAll()
	var s0, s1 []maze.Cell
	for i := 0; i < snakeInitialLength; i++ {
		s0 = append(s0, maze.Cell{X: snakeInitialLength - 1 - i, Y: 1})
		s1 = append(s1, maze.Cell{X: snakeGrid - snakeInitialLength + i, Y: snakeGrid - 2})
	}
	g.snakes = [2]snake{
		{segments: s0, dir: "right", nextDir: "right", step: snakeStep, alive: true},
		{segments: s1, dir: "left", nextDir: "left", step: snakeStep, alive: true},
	}
	g.food = nil
	g.powerups = nil
	g.mines = nil
	g.elapsed = 0
	g.nextFood = snakeFirstFood
	g.nextPowerup = snakePowerupEvery
}

func (g *SnakeClash) Start(r Room, b Broadcast) {
	g.bind(r, b)
	g.timers.Every(snakeTick, g.tick)
}

func (g *SnakeClash) tick() {
	g.elapsed += snakeTick.Seconds()

	for i := range g.snakes {
		s := &g.snakes[i]
		if s.alive && g.elapsed-s.lastMove >= s.step.Seconds() {
			s.lastMove = g.elapsed
			g.move(i)
		}
	}

	if g.elapsed >= g.nextFood && len(g.food) < snakeMaxFood {
		c := g.freeCell()
		g.food = append(g.food, snakeItem{X: c.X, Y: c.Y, Type: sim.PickWeighted(g.rng, snakeFoodKinds)})
		g.nextFood = g.elapsed + snakeFoodEvery
	}
	if g.elapsed >= g.nextPowerup && len(g.powerups) < 1 {
		c := g.freeCell()
		g.powerups = append(g.powerups, snakeItem{X: c.X, Y: c.Y, Type: sim.PickWeighted(g.rng, snakePowerupKinds)})
		g.nextPowerup = g.elapsed + snakePowerupEvery
	}

	elapsed := sim.Round1(g.elapsed)
	s := g.snapshot()
	s.Type = "snake_state"
	s.Elapsed = &elapsed
	s.GridSize, s.TimeLimit = 0, 0
	g.bc(s)

	a, b := g.snakes[0], g.snakes[1]
	if !a.alive || !b.alive || g.elapsed >= snakeTimeLimit {
		var winner int
		switch {
		case !a.alive && b.alive:
			winner = 2
		case a.alive && !b.alive:
			winner = 1
		case a.score >= b.score:
			winner = 1
		default:
			winner = 2
		}
		g.finish(winner)
	}
}

func inGrid(c maze.Cell) bool {
	return c.X >= 0 && c.X < snakeGrid && c.Y >= 0 && c.Y < snakeGrid
}

func occupies(segs []maze.Cell, c maze.Cell) bool {
	for _, s := range segs {
		if s == c {
			return true
		}
	}
	return false
}

func (g *SnakeClash) move(idx int) {
	p := &g.snakes[idx]
	opp := &g.snakes[1-idx]
	seat := idx + 1

	// разворот на 180 градусов запрещен
	if p.nextDir != snakeOpposite[p.dir] {
		p.dir = p.nextDir
	}
	d := snakeDirs[p.dir]
	head := maze.Cell{X: p.segments[0].X + d.X, Y: p.segments[0].Y + d.Y}

	if !inGrid(head) {
		if !p.ghosted {
			g.shrink(idx, snakeCrashShrink)
			return
		}
		head.X = (head.X%snakeGrid + snakeGrid) % snakeGrid
		head.Y = (head.Y%snakeGrid + snakeGrid) % snakeGrid
	}

	if !p.ghosted {
		if occupies(p.segments, head) || occupies(opp.segments, head) {
			g.shrink(idx, snakeCrashShrink)
			return
		}
		for i, m := range g.mines {
			if m.X == head.X && m.Y == head.Y && m.Owner != seat {
				g.mines = append(g.mines[:i], g.mines[i+1:]...)
				g.shrink(idx, snakeMineShrink)
				break
			}
		}
		if !p.alive {
			return
		}
	}

	p.segments = append([]maze.Cell{head}, p.segments...)
	g.eat(idx, head)
	g.pickup(idx, head)

	if p.grow > 0 {
		p.grow--
	} else if len(p.segments) > 0 {
		p.segments = p.segments[:len(p.segments)-1]
	}
}

func (g *SnakeClash) eat(idx int, head maze.Cell) {
	p := &g.snakes[idx]
	for i, f := range g.food {
		if f.X != head.X || f.Y != head.Y {
			continue
		}
		switch f.Type {
		case "apple":
			p.score++
			p.grow++
		case "golden":
			p.score += 3
			p.grow += 2
			for j := range g.snakes {
				g.speedUp(&g.snakes[j], snakeGoldenStep, snakeGoldenFor)
			}
		case "poison":
			p.score = max(0, p.score-2)
			for n := 0; n < snakePoisonShrink && len(p.segments) > 1; n++ {
				p.segments = p.segments[:len(p.segments)-1]
			}
		case "turbo":
			g.speedUp(p, snakeTurboStep, snakeTurboFor)
		}
		g.food = append(g.food[:i], g.food[i+1:]...)
		g.bc(snakeFood{Type: "snake_food", Seat: idx + 1, FoodType: f.Type, Score: p.score})
		return
	}
}

func (g *SnakeClash) pickup(idx int, head maze.Cell) {
	p := &g.snakes[idx]
	for i, pu := range g.powerups {
		if pu.X != head.X || pu.Y != head.Y {
			continue
		}
		switch pu.Type {
		case "wall":
			p.walled = true
			g.timers.Cancel(p.wallTimer)
			p.wallTimer = g.timers.After(snakeWallFor, func() { p.walled = false })
		case "ghost":
			p.ghosted = true
			g.timers.Cancel(p.ghostTimer)
			p.ghostTimer = g.timers.After(snakeGhostFor, func() { p.ghosted = false })
		case "swap":
			a, b := &g.snakes[0], &g.snakes[1]
			a.segments, b.segments = b.segments, a.segments
			a.dir, b.dir = b.dir, a.dir
			a.nextDir, b.nextDir = b.nextDir, a.nextDir
			g.bc(Event{Type: "snake_swap"})
		case "mines":
			// мины остаются на последних клетках хвоста
			for n := len(p.segments) - 1; n >= max(0, len(p.segments)-snakeMineCount); n-- {
				c := p.segments[n]
				g.mines = append(g.mines, snakeMineCell{X: c.X, Y: c.Y, Owner: idx + 1})
			}
		}
		g.powerups = append(g.powerups[:i], g.powerups[i+1:]...)
		g.bc(snakePowerup{Type: "snake_powerup", Seat: idx + 1, PowerupType: pu.Type})
		return
	}
}

// speedUp новый эффект скорости заменяет предыдущий
func (g *SnakeClash) speedUp(s *snake, step, d time.Duration) {
	s.step = step
	g.timers.Cancel(s.speedTimer)
	s.speedTimer = g.timers.After(d, func() { s.step = snakeStep })
}

func (g *SnakeClash) shrink(idx, amount int) {
	p := &g.snakes[idx]
	n := min(amount, len(p.segments))
	p.segments = p.segments[:len(p.segments)-n]
	if len(p.segments) == 0 {
		p.alive = false
	}
	p.score = max(0, p.score-amount)
	g.bc(snakeHit{Type: "snake_hit", Seat: idx + 1, Length: len(p.segments), Alive: p.alive})
}

func (g *SnakeClash) freeCell() maze.Cell {
	taken := make(map[maze.Cell]bool)
	for _, s := range g.snakes {
		for _, c := range s.segments {
			taken[c] = true
		}
	}
	for _, f := range g.food {
		taken[maze.Cell{X: f.X, Y: f.Y}] = true
	}
	for _, p := range g.powerups {
		taken[maze.Cell{X: p.X, Y: p.Y}] = true
	}
	for _, m := range g.mines {
		taken[maze.Cell{X: m.X, Y: m.Y}] = true
	}
	for range 100 {
		c := maze.Cell{X: g.rng.IntN(snakeGrid), Y: g.rng.IntN(snakeGrid)}
		if !taken[c] {
			return c
		}
	}
	return maze.Cell{X: snakeGrid / 2, Y: snakeGrid / 2}
}

func (g *SnakeClash) HandleMessage(_ Room, seat int, m Message, _ Broadcast) {
	if m.Type != "dir" || !validSeat(seat) {
		return
	}
	var in struct {
		Dir string `json:"dir"`
	}
	if !m.Decode(&in) {
		return
	}
	if _, ok := snakeDirs[in.Dir]; !ok {
		return
	}
	if p := &g.snakes[seat-1]; p.alive {
		p.nextDir = in.Dir
	}
}

func (g *SnakeClash) snapshot() snakeState {
	s := snakeState{
		Food:      append([]snakeItem{}, g.food...),
		Powerups:  append([]snakeItem{}, g.powerups...),
		Mines:     append([]snakeMineCell{}, g.mines...),
		GridSize:  snakeGrid,
		TimeLimit: snakeTimeLimit,
	}
	for i, p := range g.snakes {
		s.Players[i] = snakeView{
			Segments: append([]maze.Cell{}, p.segments...),
			Dir:      p.dir,
			Score:    p.score,
			Ghosted:  p.ghosted,
			Walled:   p.walled,
			Alive:    p.alive,
		}
	}
	return s
}

func (g *SnakeClash) State(Room) any { return g.snapshot() }
