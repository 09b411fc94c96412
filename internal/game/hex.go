package game

import (
	"time"

	"duelarena/internal/timers"
)

const (
	hexSize     = 11
	hexTurnTime = 15
)

type hexBoard [hexSize][hexSize]int

// соседи клетки ромбовидной доски
var hexDirs = [6][2]int{{-1, 0}, {-1, 1}, {0, -1}, {0, 1}, {1, -1}, {1, 0}}

type hexState struct {
	Type     string   `json:"type,omitempty"`
	Board    hexBoard `json:"board"`
	Turn     int      `json:"turn"`
	TimeLeft int      `json:"timeLeft"`
	Winner   *int     `json:"winner"`
}

// Hex первое место соединяет верх с низом, второе левый край с правым
type Hex struct {
	base
	board     hexBoard
	turn      int
	winner    *int
	timeLeft  int
	turnTimer timers.Handle
}

func NewHex(d Deps) *Hex {
	return &Hex{base: newBase(d)}
}

func (h *Hex) Init(Room) {
	h.timers.StopAll()
	h.board = hexBoard{}
	h.turn = 1
	h.winner = nil
	h.timeLeft = hexTurnTime
	h.turnTimer = 0
}

func (h *Hex) Start(r Room, b Broadcast) {
	h.bind(r, b)
	h.restartTurnTimer()
}

func (h *Hex) restartTurnTimer() {
	h.timers.Cancel(h.turnTimer)
	h.timeLeft = hexTurnTime
	h.turnTimer = h.timers.Every(time.Second, func() {
		h.timeLeft--
		if h.timeLeft > 0 {
			return
		}
		row, col, ok := h.randomEmptyCell()
		if !ok {
			h.end(0)
			return
		}
		h.place(h.turn, row, col)
	})
}

func (h *Hex) HandleMessage(_ Room, seat int, m Message, _ Broadcast) {
	if m.Type != "move" || h.winner != nil || seat != h.turn {
		return
	}
	var in struct {
		Row *int `json:"row"`
		Col *int `json:"col"`
	}
	if !m.Decode(&in) || in.Row == nil || in.Col == nil {
		return
	}
	row, col := *in.Row, *in.Col
	if row < 0 || row >= hexSize || col < 0 || col >= hexSize || h.board[row][col] != 0 {
		return
	}
	h.place(seat, row, col)
}

func (h *Hex) place(seat, row, col int) {
	h.board[row][col] = seat

	if hexConnected(&h.board, seat) {
		h.end(seat)
		return
	}
	if hexFull(&h.board) {
		h.end(0)
		return
	}

	h.turn = other(seat)
	h.restartTurnTimer()
	h.bc(h.snapshot("state"))
}

func (h *Hex) end(winner int) {
	w := winner
	h.winner = &w
	h.timers.StopAll()
	h.bc(h.snapshot("state"))
	h.finish(winner)
}

func (h *Hex) randomEmptyCell() (int, int, bool) {
	var empty [][2]int
	for r := 0; r < hexSize; r++ {
		for c := 0; c < hexSize; c++ {
			if h.board[r][c] == 0 {
				empty = append(empty, [2]int{r, c})
			}
		}
	}
	if len(empty) == 0 {
		return 0, 0, false
	}
	cell := empty[h.rng.IntN(len(empty))]
	return cell[0], cell[1], true
}

func (h *Hex) snapshot(typ string) hexState {
	s := hexState{Type: typ, Board: h.board, Turn: h.turn, TimeLeft: h.timeLeft}
	if h.winner != nil {
		w := *h.winner
		s.Winner = &w
	}
	return s
}

func (h *Hex) State(Room) any { return h.snapshot("") }

// hexConnected BFS от стартового края игрока до противоположного
func hexConnected(b *hexBoard, player int) bool {
	var visited [hexSize][hexSize]bool
	var queue [][2]int
	for i := 0; i < hexSize; i++ {
		if player == 1 && b[0][i] == player {
			queue = append(queue, [2]int{0, i})
			visited[0][i] = true
		}
		if player == 2 && b[i][0] == player {
			queue = append(queue, [2]int{i, 0})
			visited[i][0] = true
		}
	}

	for len(queue) > 0 {
		cur := queue[0]
		queue = queue[1:]
		r, c := cur[0], cur[1]
		if player == 1 && r == hexSize-1 {
			return true
		}
		if player == 2 && c == hexSize-1 {
			return true
		}
		for _, d := range hexDirs {
			nr, nc := r+d[0], c+d[1]
			if nr < 0 || nr >= hexSize || nc < 0 || nc >= hexSize {
				continue
			}
			if visited[nr][nc] || b[nr][nc] != player {
				continue
			}
			visited[nr][nc] = true
			queue = append(queue, [2]int{nr, nc})
		}
	}
	return false
}

func hexFull(b *hexBoard) bool {
	for r := range b {
		for c := range b[r] {
			if b[r][c] == 0 {
				return false
			}
		}
	}
	return true
}
