package game

import "time"

const (
	tapSprintDuration = 10
	tapSprintGameOver = 3 * time.Second
)

type tapSprintState struct {
	Type     string      `json:"type,omitempty"`
	Taps     bySeat[int] `json:"taps"`
	TimeLeft int         `json:"timeLeft"`
}

type tapSprintTap struct {
	Type string      `json:"type"`
	Seat int         `json:"seat"`
	Taps bySeat[int] `json:"taps"`
}

type tapSprintEnd struct {
	Type   string      `json:"type"`
	Taps   bySeat[int] `json:"taps"`
	Winner int         `json:"winner"`
}

// TapSprint кто больше нажмет за десять секунд
type TapSprint struct {
	base
	taps     [2]int
	timeLeft int
	active   bool
}

func NewTapSprint(d Deps) *TapSprint {
	return &TapSprint{base: newBase(d)}
}

func (g *TapSprint) Init(Room) {
	g.timers.StopAll()
	g.taps = [2]int{}
	g.timeLeft = tapSprintDuration
	g.active = false
}

func (g *TapSprint) Start(r Room, b Broadcast) {
	g.bind(r, b)
	g.active = true

	g.timers.Every(time.Second, func() {
		g.timeLeft--
		g.bc(g.snapshot("tapsprint_state"))
		if g.timeLeft <= 0 {
			g.end()
		}
	})
	g.bc(g.snapshot("tapsprint_state"))
}

func (g *TapSprint) HandleMessage(_ Room, seat int, m Message, _ Broadcast) {
	if m.Type != "sprint_tap" || !g.active || !validSeat(seat) {
		return
	}
	g.taps[seat-1]++
	g.bc(tapSprintTap{Type: "tapsprint_tap", Seat: seat, Taps: bySeat[int](g.taps)})
}

func (g *TapSprint) end() {
	g.active = false
	winner := 0
	switch {
	case g.taps[0] > g.taps[1]:
		winner = 1
	case g.taps[1] > g.taps[0]:
		winner = 2
	}
	g.timers.StopAll()
	g.bc(tapSprintEnd{Type: "tapsprint_end", Taps: bySeat[int](g.taps), Winner: winner})
	g.finishAfter(winner, tapSprintGameOver)
}

func (g *TapSprint) snapshot(typ string) tapSprintState {
	return tapSprintState{Type: typ, Taps: bySeat[int](g.taps), TimeLeft: g.timeLeft}
}

func (g *TapSprint) State(Room) any { return g.snapshot("") }
