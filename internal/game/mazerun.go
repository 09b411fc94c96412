package game

import (
	"math"
	"time"

	"duelarena/internal/maze"
	"duelarena/internal/sim"
	"duelarena/internal/timers"
)

const (
	mazeTick          = 50 * time.Millisecond
	mazeSize          = 13
	mazePlayerSpeed   = 6.0
	mazeTurboSpeed    = mazePlayerSpeed * 2
	mazeGhostSpeed    = 3.5
	mazeGhostSpeedUp  = 0.4
	mazeItemCount     = 8
	mazeItemEvery     = 5.0
	mazeShrinkEvery   = 10.0
	mazeMaxShrink     = 3
	mazeTimeLimit     = 45.0
	mazeMaxTraps      = 2
	mazeRepathEvery   = 0.5
	mazeCatchDist     = 0.5
	mazeArriveEpsilon = 0.01

	mazePhaseFor  = 3 * time.Second
	mazeFreezeFor = 2 * time.Second
	mazeTurboFor  = 3 * time.Second
)

const (
	itemStar       = "star"
	itemTurbo      = "turbo"
	itemGhostSpawn = "ghost_spawn"
	itemPhase      = "phase"
	itemGlue       = "glue"
	itemDynamite   = "dynamite"
)

var mazeItemKinds = []sim.Weighted[string]{
	{Value: itemStar, Weight: 50},
	{Value: itemTurbo, Weight: 15},
	{Value: itemGhostSpawn, Weight: 10},
	{Value: itemPhase, Weight: 10},
	{Value: itemGlue, Weight: 10},
	{Value: itemDynamite, Weight: 5},
}

var mazeDirs = map[string]maze.Cell{
	"up":    {X: 0, Y: -1},
	"down":  {X: 0, Y: 1},
	"left":  {X: -1, Y: 0},
	"right": {X: 1, Y: 0},
}

type mazeRunner struct {
	pos       sim.Vec2
	target    *maze.Cell
	alive     bool
	score     int
	speed     float64
	phased    bool
	frozen    bool
	inventory string

	turboTimer  timers.Handle
	phaseTimer  timers.Handle
	freezeTimer timers.Handle
}

type mazeGhost struct {
	pos       sim.Vec2
	path      []maze.Cell
	sincePath float64
}

type mazeItem struct {
	X    int    `json:"x"`
	Y    int    `json:"y"`
	Type string `json:"type"`
}

type mazeTrap struct {
	X     int `json:"x"`
	Y     int `json:"y"`
	Owner int `json:"owner"`
}

type mazeRunnerView struct {
	X         float64 `json:"x"`
	Y         float64 `json:"y"`
	Alive     bool    `json:"alive"`
	Score     int     `json:"score"`
	Phased    bool    `json:"phased"`
	Frozen    bool    `json:"frozen"`
	Inventory *string `json:"inventory"`
}

type mazeState struct {
	Maze        *maze.Grid        `json:"maze"`
	Players     [2]mazeRunnerView `json:"players"`
	Ghosts      []point           `json:"ghosts"`
	Items       []mazeItem        `json:"items"`
	ShrinkLevel int               `json:"shrinkLevel"`
	TimeLimit   float64           `json:"timeLimit"`
}

type mazeFrame struct {
	Type    string            `json:"type"`
	Players [2]mazeRunnerView `json:"players"`
	Ghosts  []point           `json:"ghosts"`
	Items   []mazeItem        `json:"items"`
	Traps   []mazeTrap        `json:"traps"`
	Elapsed float64           `json:"elapsed"`
}

type mazeItemPicked struct {
	Type     string `json:"type"`
	Seat     int    `json:"seat"`
	ItemType string `json:"itemType"`
}

type mazeShrink struct {
	Type  string `json:"type"`
	Level int    `json:"level"`
}

type mazeWallDestroyed struct {
	Type string `json:"type"`
	X    int    `json:"x"`
	Y    int    `json:"y"`
}

// MazeRun лабиринт с призраками, которые преследуют ближайшего игрока.
// Поле сжимается каждые десять секунд, выживает последний.
type MazeRun struct {
	base
	grid        *maze.Grid
	runners     [2]mazeRunner
	ghosts      []mazeGhost
	items       []mazeItem
	traps       []mazeTrap
	elapsed     float64
	shrinkLevel int
	nextShrink  float64
	nextItem    float64
}

func NewMazeRun(d Deps) *MazeRun {
	return &MazeRun{base: newBase(d)}
}

func (g *MazeRun) Init(Room) {
	g.timers.StopAll()
	g.grid = maze.Generate(mazeSize, g.rng)
	mid := float64(mazeSize / 2)
	g.runners = [2]mazeRunner{
		{pos: sim.Vec2{X: 1, Y: 1}, alive: true, speed: mazePlayerSpeed},
		{pos: sim.Vec2{X: mazeSize - 2, Y: mazeSize - 2}, alive: true, speed: mazePlayerSpeed},
	}
	g.ghosts = []mazeGhost{
		{pos: sim.Vec2{X: mid, Y: mid}},
		{pos: sim.Vec2{X: mid + 1, Y: mid}},
	}
	g.items = nil
	g.traps = nil
	g.elapsed = 0
	g.shrinkLevel = 0
	g.nextShrink = mazeShrinkEvery
	g.nextItem = mazeItemEvery
	for range mazeItemCount {
		g.spawnItem()
	}
}

func (g *MazeRun) Start(r Room, b Broadcast) {
	g.bind(r, b)
	g.timers.Every(mazeTick, g.tick)
}

func (g *MazeRun) bounds() maze.Bounds { return maze.BoundsAt(mazeSize, g.shrinkLevel) }

// cellOf клетка, в которой сейчас стоит сущность
func cellOf(v sim.Vec2) maze.Cell {
	return maze.Cell{X: int(math.Floor(v.X + 0.5)), Y: int(math.Floor(v.Y + 0.5))}
}

func cellPoint(c maze.Cell) sim.Vec2 { return sim.Vec2{X: float64(c.X), Y: float64(c.Y)} }

// stepToward сдвигает pos к to не дальше step; true если дошли
func stepToward(pos *sim.Vec2, to sim.Vec2, step float64) bool {
	d := to.Sub(*pos)
	dist := d.Len()
	if dist < mazeArriveEpsilon || step >= dist {
		*pos = to
		return true
	}
	*pos = pos.Add(d.Scale(step / dist))
	return false
}

func (g *MazeRun) tick() {
	dt := mazeTick.Seconds()
	g.elapsed += dt

	for i := range g.runners {
		p := &g.runners[i]
		if !p.alive || p.frozen || p.target == nil {
			continue
		}
		if stepToward(&p.pos, cellPoint(*p.target), p.speed*dt) {
			p.target = nil
		}
	}

	g.moveGhosts(dt)
	g.checkCatch()
	g.checkItems()
	g.checkTraps()

	if g.elapsed >= g.nextShrink && g.shrinkLevel < mazeMaxShrink {
		g.shrink()
	}
	if g.elapsed >= g.nextItem && len(g.items) < mazeItemCount {
		g.spawnItem()
		g.nextItem = g.elapsed + mazeItemEvery
	}

	g.bc(mazeFrame{
		Type:    "maze_state",
		Players: g.runnerViews(),
		Ghosts:  g.ghostViews(),
		Items:   append([]mazeItem{}, g.items...),
		Traps:   append([]mazeTrap{}, g.traps...),
		Elapsed: sim.Round2(g.elapsed),
	})

	a, b := g.runners[0], g.runners[1]
	switch {
	case !a.alive && b.alive:
		g.finish(2)
	case a.alive && !b.alive:
		g.finish(1)
	case !a.alive || g.elapsed >= mazeTimeLimit:
		// ничья по очкам достается месту 1
		winner := 1
		if b.score > a.score {
			winner = 2
		}
		g.finish(winner)
	}
}

func (g *MazeRun) moveGhosts(dt float64) {
	speed := mazeGhostSpeed + float64(g.shrinkLevel)*mazeGhostSpeedUp
	b := g.bounds()
	for i := range g.ghosts {
		gh := &g.ghosts[i]
		gh.sincePath += dt

		if gh.sincePath >= mazeRepathEvery || len(gh.path) == 0 {
			gh.sincePath = 0
			if target := g.nearestPrey(gh.pos); target != nil {
				gh.path = g.grid.FindPath(cellOf(gh.pos), cellOf(target.pos), b)
			}
		}

		if len(gh.path) > 0 && stepToward(&gh.pos, cellPoint(gh.path[0]), speed*dt) {
			gh.path = gh.path[1:]
		}
	}
}

// nearestPrey ближайший живой игрок без фазы
func (g *MazeRun) nearestPrey(from sim.Vec2) *mazeRunner {
	var best *mazeRunner
	bestDist := math.Inf(1)
	for i := range g.runners {
		p := &g.runners[i]
		if !p.alive || p.phased {
			continue
		}
		if d := from.Dist(p.pos); d < bestDist {
			best, bestDist = p, d
		}
	}
	return best
}

func (g *MazeRun) checkCatch() {
	for _, gh := range g.ghosts {
		for i := range g.runners {
			p := &g.runners[i]
			if p.alive && !p.phased && gh.pos.Dist(p.pos) < mazeCatchDist {
				p.alive = false
				g.bc(seatEvent{Type: "maze_caught", Seat: i + 1})
			}
		}
	}
}

func (g *MazeRun) checkItems() {
	for i := len(g.items) - 1; i >= 0; i-- {
		it := g.items[i]
		for j := range g.runners {
			p := &g.runners[j]
			if !p.alive || cellOf(p.pos) != (maze.Cell{X: it.X, Y: it.Y}) {
				continue
			}
			g.applyItem(j, it.Type)
			g.items = append(g.items[:i], g.items[i+1:]...)
			g.bc(mazeItemPicked{Type: "maze_item", Seat: j + 1, ItemType: it.Type})
			break
		}
	}
}

// checkTraps ловушка действует только на соперника владельца
func (g *MazeRun) checkTraps() {
	for i := len(g.traps) - 1; i >= 0; i-- {
		t := g.traps[i]
		for j := range g.runners {
			p := &g.runners[j]
			if !p.alive || p.phased || t.Owner == j+1 || cellOf(p.pos) != (maze.Cell{X: t.X, Y: t.Y}) {
				continue
			}
			p.frozen = true
			p.target = nil
			g.timers.Cancel(p.freezeTimer)
			p.freezeTimer = g.timers.After(mazeFreezeFor, func() { p.frozen = false })
			g.traps = append(g.traps[:i], g.traps[i+1:]...)
			g.bc(seatEvent{Type: "maze_frozen", Seat: j + 1})
			break
		}
	}
}

func (g *MazeRun) applyItem(idx int, kind string) {
	p := &g.runners[idx]
	switch kind {
	case itemStar:
		p.score++
	case itemTurbo:
		p.speed = mazeTurboSpeed
		g.timers.Cancel(p.turboTimer)
		p.turboTimer = g.timers.After(mazeTurboFor, func() { p.speed = mazePlayerSpeed })
	case itemPhase:
		p.phased = true
		g.timers.Cancel(p.phaseTimer)
		p.phaseTimer = g.timers.After(mazePhaseFor, func() { p.phased = false })
	case itemGlue, itemDynamite:
		p.inventory = kind
	case itemGhostSpawn:
		g.spawnGhostNear(cellOf(g.runners[1-idx].pos))
	}
}

// spawnGhostNear новый призрак в двух-трех клетках от цели
func (g *MazeRun) spawnGhostNear(target maze.Cell) {
	cells := g.grid.OpenCells(g.bounds())
	if len(cells) == 0 {
		return
	}
	var nearby []maze.Cell
	for _, c := range cells {
		d := abs(c.X-target.X) + abs(c.Y-target.Y)
		if d >= 2 && d <= 3 {
			nearby = append(nearby, c)
		}
	}
	if len(nearby) > 0 {
		cells = nearby
	}
	g.ghosts = append(g.ghosts, mazeGhost{pos: cellPoint(sim.Pick(g.rng, cells))})
}

func abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}

func (g *MazeRun) spawnItem() {
	taken := make(map[maze.Cell]bool)
	for _, it := range g.items {
		taken[maze.Cell{X: it.X, Y: it.Y}] = true
	}
	for _, p := range g.runners {
		taken[cellOf(p.pos)] = true
	}
	var free []maze.Cell
	for _, c := range g.grid.OpenCells(g.bounds()) {
		if !taken[c] {
			free = append(free, c)
		}
	}
	if len(free) == 0 {
		return
	}
	c := sim.Pick(g.rng, free)
	g.items = append(g.items, mazeItem{X: c.X, Y: c.Y, Type: sim.PickWeighted(g.rng, mazeItemKinds)})
}

// shrink после сжатия ни одна сущность не стоит в стене или за границей
func (g *MazeRun) shrink() {
	g.shrinkLevel++
	g.nextShrink += mazeShrinkEvery
	b := g.bounds()
	g.grid.Shrink(b)

	relocate := func(pos *sim.Vec2) bool {
		c := cellOf(*pos)
		if !g.grid.Valid(c, b) {
			*pos = cellPoint(g.grid.NearestOpen(c, b))
			return true
		}
		if !b.ContainsPoint(pos.X, pos.Y) {
			*pos = cellPoint(c)
			return true
		}
		return false
	}

	for i := range g.runners {
		p := &g.runners[i]
		if !p.alive {
			continue
		}
		if relocate(&p.pos) || (p.target != nil && !g.grid.Valid(*p.target, b)) {
			p.target = nil
		}
	}
	for i := range g.ghosts {
		relocate(&g.ghosts[i].pos)
		g.ghosts[i].path = nil
	}

	items := g.items[:0]
	for _, it := range g.items {
		if b.Contains(it.X, it.Y) {
			items = append(items, it)
		}
	}
	g.items = items
	traps := g.traps[:0]
	for _, t := range g.traps {
		if b.Contains(t.X, t.Y) {
			traps = append(traps, t)
		}
	}
	g.traps = traps

	g.bc(mazeShrink{Type: "maze_shrink", Level: g.shrinkLevel})
}

func (g *MazeRun) HandleMessage(_ Room, seat int, m Message, _ Broadcast) {
	if !validSeat(seat) {
		return
	}
	p := &g.runners[seat-1]
	if !p.alive {
		return
	}
	b := g.bounds()

	switch m.Type {
	case "move":
		if p.frozen {
			return
		}
		d, ok := decodeDir(m)
		if !ok {
			return
		}
		c := cellOf(p.pos)
		to := maze.Cell{X: c.X + d.X, Y: c.Y + d.Y}
		if g.grid.Valid(to, b) {
			p.target = &to
		}

	case "place_trap":
		if p.inventory != itemGlue {
			return
		}
		owned := 0
		for _, t := range g.traps {
			if t.Owner == seat {
				owned++
			}
		}
		if owned >= mazeMaxTraps {
			return
		}
		c := cellOf(p.pos)
		g.traps = append(g.traps, mazeTrap{X: c.X, Y: c.Y, Owner: seat})
		p.inventory = ""

	case "use_dynamite":
		if p.inventory != itemDynamite {
			return
		}
		d, ok := decodeDir(m)
		if !ok {
			return
		}
		c := cellOf(p.pos)
		w := maze.Cell{X: c.X + d.X, Y: c.Y + d.Y}
		// внешнее кольцо сетки не взрывается даже до первого сжатия
		border := w.X <= 0 || w.Y <= 0 || w.X >= mazeSize-1 || w.Y >= mazeSize-1
		if border || !b.Contains(w.X, w.Y) || g.grid.Open(w.X, w.Y) {
			return
		}
		g.grid.Carve(w.X, w.Y)
		p.inventory = ""
		g.bc(mazeWallDestroyed{Type: "maze_wall_destroyed", X: w.X, Y: w.Y})
	}
}

func decodeDir(m Message) (maze.Cell, bool) {
	var in struct {
		Dir string `json:"dir"`
	}
	if !m.Decode(&in) {
		return maze.Cell{}, false
	}
	d, ok := mazeDirs[in.Dir]
	return d, ok
}

func (g *MazeRun) runnerViews() [2]mazeRunnerView {
	var out [2]mazeRunnerView
	for i, p := range g.runners {
		var inv *string
		if p.inventory != "" {
			s := p.inventory
			inv = &s
		}
		out[i] = mazeRunnerView{
			X:         sim.Round2(p.pos.X),
			Y:         sim.Round2(p.pos.Y),
			Alive:     p.alive,
			Score:     p.score,
			Phased:    p.phased,
			Frozen:    p.frozen,
			Inventory: inv,
		}
	}
	return out
}

func (g *MazeRun) ghostViews() []point {
	out := make([]point, len(g.ghosts))
	for i, gh := range g.ghosts {
		out[i] = point{X: sim.Round2(gh.pos.X), Y: sim.Round2(gh.pos.Y)}
	}
	return out
}

func (g *MazeRun) State(Room) any {
	return mazeState{
		Maze:        g.grid,
		Players:     g.runnerViews(),
		Ghosts:      g.ghostViews(),
		Items:       append([]mazeItem{}, g.items...),
		ShrinkLevel: g.shrinkLevel,
		TimeLimit:   mazeTimeLimit,
	}
}
