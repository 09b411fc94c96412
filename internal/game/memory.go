package game

import (
	"slices"
	"time"

	"duelarena/internal/sim"
)

const (
	memoryCards    = 16
	memoryPairs    = memoryCards / 2
	memoryFlipBack = time.Second
)

var memoryEmojis = []string{"🐶", "🐱", "🐸", "🦊", "🐼", "🐨", "🦁", "🐯", "🐮", "🐷", "🐵", "🦄", "🐙", "🦋", "🐢", "🦀"}

type memoryState struct {
	Type      string            `json:"type,omitempty"`
	Revealed  [memoryCards]bool `json:"revealed"`
	// клиент memory читает счет массивом scores[0], scores[1]
	Scores    [2]int            `json:"scores"`
	Turn      int               `json:"turn"`
	BoardSize int               `json:"boardSize,omitempty"`
}

type cardFlipped struct {
	Type  string `json:"type"`
	Index int    `json:"index"`
	Emoji string `json:"emoji"`
	Seat  int    `json:"seat"`
}

type memoryMatch struct {
	Type    string `json:"type"`
	Indices [2]int `json:"indices"`
	Seat    int    `json:"seat"`
	Scores  [2]int `json:"scores"`
}

type memoryNoMatch struct {
	Type    string `json:"type"`
	Indices [2]int `json:"indices"`
	Turn    int    `json:"turn"`
}

// Memory пары карт по очереди; совпадение дает очко и еще один ход
type Memory struct {
	base
	board    [memoryCards]string
	revealed [memoryCards]bool
	flipped  []int
	scores   [2]int
	turn     int
	locked   bool
}

func NewMemory(d Deps) *Memory {
	return &Memory{base: newBase(d)}
}

func (g *Memory) Init(Room) {
	g.timers.StopAll()
	picked := sim.Sample(g.rng, memoryEmojis, memoryPairs)
	deck := append(append([]string(nil), picked...), picked...)
	sim.Shuffle(g.rng, deck)
	copy(g.board[:], deck)

	g.revealed = [memoryCards]bool{}
	g.flipped = nil
	g.scores = [2]int{}
	g.turn = 1
	g.locked = false
}

func (g *Memory) Start(r Room, b Broadcast) {
	g.bind(r, b)
	s := g.snapshot("game_state")
	s.BoardSize = 0
	g.bc(s)
}

func (g *Memory) HandleMessage(_ Room, seat int, m Message, _ Broadcast) {
	if m.Type != "flip" || g.locked || seat != g.turn {
		return
	}
	var in struct {
		Index *int `json:"index"`
	}
	if !m.Decode(&in) || in.Index == nil {
		return
	}
	idx := *in.Index
	if idx < 0 || idx >= memoryCards || g.revealed[idx] || slices.Contains(g.flipped, idx) {
		return
	}

	g.flipped = append(g.flipped, idx)
	g.bc(cardFlipped{Type: "card_flipped", Index: idx, Emoji: g.board[idx], Seat: seat})

	if len(g.flipped) < 2 {
		return
	}
	g.locked = true
	a, b := g.flipped[0], g.flipped[1]

	if g.board[a] == g.board[b] {
		g.revealed[a], g.revealed[b] = true, true
		g.scores[seat-1]++
		g.flipped = nil
		g.locked = false
		g.bc(memoryMatch{Type: "match", Indices: [2]int{a, b}, Seat: seat, Scores: g.scores})

		if g.scores[0]+g.scores[1] >= memoryPairs {
			winner := 0
			switch {
			case g.scores[0] > g.scores[1]:
				winner = 1
			case g.scores[1] > g.scores[0]:
				winner = 2
			}
			g.finish(winner)
		}
		return
	}

	g.timers.After(memoryFlipBack, func() {
		g.flipped = nil
		g.locked = false
		g.turn = other(seat)
		g.bc(memoryNoMatch{Type: "no_match", Indices: [2]int{a, b}, Turn: g.turn})
	})
}

func (g *Memory) snapshot(typ string) memoryState {
	return memoryState{
		Type:      typ,
		Revealed:  g.revealed,
		Scores:    g.scores,
		Turn:      g.turn,
		BoardSize: memoryCards,
	}
}

func (g *Memory) State(Room) any { return g.snapshot("") }
