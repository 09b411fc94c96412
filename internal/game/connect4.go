package game

import (
	"time"

	"duelarena/internal/timers"
)

const (
	c4Cols     = 7
	c4Rows     = 6
	c4TurnTime = 15
)

type c4Board [c4Rows][c4Cols]int

type cellPos struct {
	Row int `json:"row"`
	Col int `json:"col"`
}

type connect4State struct {
	Type     string   `json:"type,omitempty"`
	Board    c4Board  `json:"board"`
	Turn     int      `json:"turn"`
	TimeLeft int      `json:"timeLeft"`
	Winner   *int     `json:"winner"`
	LastMove *cellPos `json:"lastMove"`
}

// Connect4 четыре в ряд: доска 7x6, фишка падает в нижнюю свободную клетку
type Connect4 struct {
	base
	board     c4Board
	turn      int
	winner    *int
	timeLeft  int
	lastMove  *cellPos
	turnTimer timers.Handle
}

func NewConnect4(d Deps) *Connect4 {
	return &Connect4{base: newBase(d)}
}

func (c *Connect4) Init(Room) {
	c.timers.StopAll()
	c.board = c4Board{}
	c.turn = 1
	c.winner = nil
	c.timeLeft = c4TurnTime
	c.lastMove = nil
	c.turnTimer = 0
}

func (c *Connect4) Start(r Room, b Broadcast) {
	c.bind(r, b)
	c.restartTurnTimer()
}

// restartTurnTimer по истечении хода бросает фишку в случайный открытый столбец
func (c *Connect4) restartTurnTimer() {
	c.timers.Cancel(c.turnTimer)
	c.timeLeft = c4TurnTime
	c.turnTimer = c.timers.Every(time.Second, func() {
		c.timeLeft--
		if c.timeLeft > 0 {
			return
		}
		if col := c.randomOpenColumn(); col >= 0 {
			c.place(c.turn, col)
		}
	})
}

func (c *Connect4) HandleMessage(_ Room, seat int, m Message, _ Broadcast) {
	if m.Type != "drop" || c.winner != nil || seat != c.turn {
		return
	}
	var in struct {
		Col *int `json:"col"`
	}
	if !m.Decode(&in) || in.Col == nil {
		return
	}
	col := *in.Col
	if col < 0 || col >= c4Cols || c.board[0][col] != 0 {
		return
	}
	c.place(seat, col)
}

func (c *Connect4) place(seat, col int) {
	row := c4DropRow(&c.board, col)
	if row < 0 {
		return
	}
	c.board[row][col] = seat
	c.lastMove = &cellPos{Row: row, Col: col}

	if c4Wins(&c.board, row, col, seat) {
		c.end(seat)
		return
	}
	if c4Full(&c.board) {
		c.end(0)
		return
	}

	c.turn = other(seat)
	c.restartTurnTimer()
	c.bc(c.snapshot("state"))
}

func (c *Connect4) end(winner int) {
	w := winner
	c.winner = &w
	c.timers.StopAll()
	c.bc(c.snapshot("state"))
	c.finish(winner)
}

func (c *Connect4) randomOpenColumn() int {
	var open []int
	for col := 0; col < c4Cols; col++ {
		if c.board[0][col] == 0 {
			open = append(open, col)
		}
	}
	if len(open) == 0 {
		return -1
	}
	return open[c.rng.IntN(len(open))]
}

func (c *Connect4) snapshot(typ string) connect4State {
	s := connect4State{
		Type:     typ,
		Board:    c.board,
		Turn:     c.turn,
		TimeLeft: c.timeLeft,
		LastMove: c.lastMove,
	}
	if c.winner != nil {
		w := *c.winner
		s.Winner = &w
	}
	if c.lastMove != nil {
		lm := *c.lastMove
		s.LastMove = &lm
	}
	return s
}

func (c *Connect4) State(Room) any { return c.snapshot("") }

// c4DropRow нижняя свободная строка столбца или -1
func c4DropRow(b *c4Board, col int) int {
	for row := c4Rows - 1; row >= 0; row-- {
		if b[row][col] == 0 {
			return row
		}
	}
	return -1
}

// c4Wins проверяет четыре в ряд через клетку (row, col) для player
func c4Wins(b *c4Board, row, col, player int) bool {
	dirs := [4][2]int{{0, 1}, {1, 0}, {1, 1}, {1, -1}}
	for _, d := range dirs {
		count := 1
		for _, sign := range [2]int{1, -1} {
			for i := 1; i < 4; i++ {
				r, cc := row+sign*d[0]*i, col+sign*d[1]*i
				if r < 0 || r >= c4Rows || cc < 0 || cc >= c4Cols || b[r][cc] != player {
					break
				}
				count++
			}
		}
		if count >= 4 {
			return true
		}
	}
	return false
}

func c4Full(b *c4Board) bool {
	for col := 0; col < c4Cols; col++ {
		if b[0][col] == 0 {
			return false
		}
	}
	return true
}
