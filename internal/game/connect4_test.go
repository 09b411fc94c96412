package game

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestC4Wins(t *testing.T) {
	tests := []struct {
		name   string
		cells  [][2]int
		last   [2]int
		winner bool
	}{
		{"horizontal", [][2]int{{5, 0}, {5, 1}, {5, 2}, {5, 3}}, [2]int{5, 1}, true},
		{"vertical", [][2]int{{2, 6}, {3, 6}, {4, 6}, {5, 6}}, [2]int{2, 6}, true},
		{"diagonal", [][2]int{{5, 0}, {4, 1}, {3, 2}, {2, 3}}, [2]int{3, 2}, true},
		{"anti diagonal", [][2]int{{2, 0}, {3, 1}, {4, 2}, {5, 3}}, [2]int{5, 3}, true},
		{"three only", [][2]int{{5, 0}, {5, 1}, {5, 2}}, [2]int{5, 2}, false},
		{"gap", [][2]int{{5, 0}, {5, 1}, {5, 3}, {5, 4}}, [2]int{5, 4}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var b c4Board
			for _, c := range tt.cells {
				b[c[0]][c[1]] = 1
			}
			assert.Equal(t, tt.winner, c4Wins(&b, tt.last[0], tt.last[1], 1))
			assert.False(t, c4Wins(&b, tt.last[0], tt.last[1], 2))
		})
	}
}

func TestConnect4_VerticalWin(t *testing.T) {
	f := newFixture(1)
	c := NewConnect4(f.deps)
	f.start(c)

	for i := 0; i < 3; i++ {
		c.HandleMessage(f.room, 1, msg(t, "drop", map[string]any{"col": 3}), f.room.broadcast)
		c.HandleMessage(f.room, 2, msg(t, "drop", map[string]any{"col": 4}), f.room.broadcast)
	}
	c.HandleMessage(f.room, 1, msg(t, "drop", map[string]any{"col": 3}), f.room.broadcast)

	assert.Equal(t, PhaseEnded, f.room.phase)
	assert.Equal(t, 1, f.room.winner)
	over := f.room.last(t, "gameover")
	require.NotNil(t, over)
	assert.Equal(t, 1.0, over["winner"])
	assert.Equal(t, 0, f.clock.Pending())

	// после конца доска не меняется
	before := c.board
	c.HandleMessage(f.room, 2, msg(t, "drop", map[string]any{"col": 0}), f.room.broadcast)
	assert.Equal(t, before, c.board)
	assert.Equal(t, 1, f.room.endCalls)
}

func TestConnect4_RejectsIllegalMoves(t *testing.T) {
	f := newFixture(1)
	c := NewConnect4(f.deps)
	f.start(c)

	c.HandleMessage(f.room, 2, msg(t, "drop", map[string]any{"col": 0}), f.room.broadcast)
	c.HandleMessage(f.room, 1, msg(t, "drop", map[string]any{"col": 7}), f.room.broadcast)
	c.HandleMessage(f.room, 1, msg(t, "drop", map[string]any{"col": -1}), f.room.broadcast)
	c.HandleMessage(f.room, 1, msg(t, "drop", nil), f.room.broadcast)
	c.HandleMessage(f.room, 1, msg(t, "place", map[string]any{"col": 0}), f.room.broadcast)

	assert.Equal(t, c4Board{}, c.board)
	assert.Equal(t, 1, c.turn)
	assert.Empty(t, f.room.frames)

	// заполненный столбец
	for i := 0; i < c4Rows; i++ {
		c.HandleMessage(f.room, c.turn, msg(t, "drop", map[string]any{"col": 0}), f.room.broadcast)
	}
	turn := c.turn
	c.HandleMessage(f.room, turn, msg(t, "drop", map[string]any{"col": 0}), f.room.broadcast)
	assert.Equal(t, turn, c.turn)
}

func TestConnect4_TimeoutPlaysRandomMove(t *testing.T) {
	f := newFixture(3)
	c := NewConnect4(f.deps)
	f.start(c)

	f.clock.Advance(14 * time.Second)
	assert.Equal(t, 1, c.turn)

	f.clock.Advance(time.Second)
	assert.Equal(t, 2, c.turn)
	filled := 0
	for col := 0; col < c4Cols; col++ {
		if c.board[c4Rows-1][col] == 1 {
			filled++
		}
	}
	assert.Equal(t, 1, filled)
	assert.Equal(t, c4TurnTime, c.timeLeft)
}
