package game

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultRegistry_AllGames(t *testing.T) {
	reg := DefaultRegistry()

	assert.Len(t, reg.Types(), 15)
	for _, typ := range []string{TypeHex, TypeConnect4, TypePong, TypeReaction, TypeBomb, TypeTapSprint, TypeScream,
		TypeMemory, TypeEmojiQuiz, TypeSprint, TypeDrift, TypeDerby, TypeSkyDuel, TypeMaze, TypeSnakeClash} {
		assert.True(t, reg.Has(typ), typ)
	}
	assert.False(t, reg.Has("rps"))
	assert.Panics(t, func() { reg.Register(TypeHex, func(d Deps) Engine { return NewHex(d) }) })
}

func TestEngines_DisposeCancelsEveryTimer(t *testing.T) {
	reg := DefaultRegistry()
	for _, typ := range reg.Types() {
		t.Run(typ, func(t *testing.T) {
			f := newFixture(11)
			factory, ok := reg.Lookup(typ)
			require.True(t, ok)
			e := factory(f.deps)

			// Dispose до Start безопасен
			e.Dispose(f.room)
			f.start(e)
			f.clock.Advance(500 * time.Millisecond)

			_, err := json.Marshal(e.State(f.room))
			require.NoError(t, err)

			e.Dispose(f.room)
			e.Dispose(f.room)
			assert.Equal(t, 0, f.clock.Pending())

			frames := len(f.room.frames)
			f.clock.Advance(time.Minute)
			assert.Equal(t, frames, len(f.room.frames), "no frames after dispose")

			// движок можно поднять заново; memory ждет хода без таймеров
			f.room = newFakeRoom()
			f.start(e)
			if typ != TypeMemory {
				assert.Positive(t, f.clock.Pending())
			}
			e.Dispose(f.room)
			assert.Equal(t, 0, f.clock.Pending())
		})
	}
}

func TestEngines_TimeLimitAlwaysEndsMatch(t *testing.T) {
	for _, typ := range []string{TypePong, TypeTapSprint, TypeSprint, TypeDrift, TypeDerby, TypeSkyDuel, TypeMaze, TypeSnakeClash} {
		t.Run(typ, func(t *testing.T) {
			f := newFixture(21)
			factory, _ := DefaultRegistry().Lookup(typ)
			e := factory(f.deps)
			f.start(e)

			for i := 0; i < 100 && f.room.phase == PhasePlaying; i++ {
				f.clock.Advance(time.Second)
			}
			f.clock.Advance(5 * time.Second)

			assert.Equal(t, PhaseEnded, f.room.phase)
			assert.Equal(t, 1, f.room.endCalls)
			over := f.room.last(t, "gameover")
			require.NotNil(t, over)
			assert.Equal(t, float64(f.room.winner), over["winner"])
			assert.Equal(t, 0, f.clock.Pending())
		})
	}
}

func TestPong_PaddleIsClampedServerSide(t *testing.T) {
	f := newFixture(1)
	p := NewPong(f.deps)
	f.start(p)

	p.HandleMessage(f.room, 1, msg(t, "paddle_move", map[string]any{"x": 500}), f.room.broadcast)
	p.HandleMessage(f.room, 2, msg(t, "paddle_move", map[string]any{"x": -40}), f.room.broadcast)

	half := pongPaddleWidth / 2
	assert.Equal(t, 100-half, p.paddles[0])
	assert.Equal(t, half, p.paddles[1])

	p.HandleMessage(f.room, 1, msg(t, "paddle_move", map[string]any{"x": "left"}), f.room.broadcast)
	p.HandleMessage(f.room, 3, msg(t, "paddle_move", map[string]any{"x": 50}), f.room.broadcast)
	assert.Equal(t, 100-half, p.paddles[0])
}

func TestSkyDuel_MovementIsRateLimited(t *testing.T) {
	f := newFixture(1)
	g := NewSkyDuel(f.deps)
	f.start(g)
	startX := g.planes[0].x

	g.HandleMessage(f.room, 1, msg(t, "move", map[string]any{"x": 1000}), f.room.broadcast)
	assert.Equal(t, 95.0, g.planes[0].targetX)

	// за один тик самолет не телепортируется к цели
	f.clock.Advance(skyTick)
	assert.Greater(t, g.planes[0].x, startX)
	assert.Less(t, g.planes[0].x, 95.0)

	g.planes[0].reversed = true
	g.HandleMessage(f.room, 1, msg(t, "move", map[string]any{"x": 20}), f.room.broadcast)
	assert.Equal(t, 80.0, g.planes[0].targetX)
}

func TestTapSprint_MostTapsWins(t *testing.T) {
	f := newFixture(1)
	g := NewTapSprint(f.deps)
	f.start(g)

	for i := 0; i < 3; i++ {
		g.HandleMessage(f.room, 2, msg(t, "sprint_tap", nil), f.room.broadcast)
	}
	g.HandleMessage(f.room, 1, msg(t, "sprint_tap", nil), f.room.broadcast)

	f.clock.Advance(tapSprintDuration * time.Second)
	assert.Equal(t, PhaseEnded, f.room.phase)
	assert.Equal(t, 2, f.room.winner)
	end := f.room.last(t, "tapsprint_end")
	require.NotNil(t, end)
	assert.Equal(t, map[string]any{"1": 1.0, "2": 3.0}, end["taps"])
	assert.Nil(t, f.room.last(t, "gameover"), "gameover is delayed")

	// нажатия после конца не считаются
	g.HandleMessage(f.room, 1, msg(t, "sprint_tap", nil), f.room.broadcast)
	assert.Equal(t, 1, g.taps[0])

	f.clock.Advance(tapSprintGameOver)
	assert.Equal(t, 2.0, f.room.last(t, "gameover")["winner"])
}

func TestTapSprint_TieIsDraw(t *testing.T) {
	f := newFixture(1)
	g := NewTapSprint(f.deps)
	f.start(g)

	f.clock.Advance(tapSprintDuration*time.Second + tapSprintGameOver)

	assert.Equal(t, 0, f.room.winner)
	assert.Equal(t, 0.0, f.room.last(t, "gameover")["winner"])
}

func TestDrift_SteerIsClamped(t *testing.T) {
	f := newFixture(1)
	g := NewDrift(f.deps)
	f.start(g)

	g.HandleMessage(f.room, 1, msg(t, "steer", map[string]any{"angle": 7}), f.room.broadcast)
	g.HandleMessage(f.room, 2, msg(t, "steer", map[string]any{"angle": -0.25}), f.room.broadcast)
	g.HandleMessage(f.room, 2, msg(t, "steer", map[string]any{}), f.room.broadcast)

	assert.Equal(t, 1.0, g.cars[0].steer)
	assert.Equal(t, -0.25, g.cars[1].steer)
}

func TestSprint_LaneBounds(t *testing.T) {
	f := newFixture(1)
	g := NewSprint(f.deps)
	f.start(g)

	g.HandleMessage(f.room, 1, msg(t, "steer", map[string]any{"lane": 2}), f.room.broadcast)
	assert.Equal(t, 2, g.runners[0].lane)
	g.HandleMessage(f.room, 1, msg(t, "steer", map[string]any{"lane": sprintLanes}), f.room.broadcast)
	assert.Equal(t, 2, g.runners[0].lane)

	boosts := g.runners[1].boosts
	g.HandleMessage(f.room, 2, msg(t, "boost", nil), f.room.broadcast)
	g.HandleMessage(f.room, 2, msg(t, "boost", nil), f.room.broadcast)
	assert.Equal(t, boosts-1, g.runners[1].boosts, "second boost while boosting is ignored")
}

func TestBySeat_MarshalsSeatKeys(t *testing.T) {
	raw, err := json.Marshal(bySeat[int]{4, 9})
	require.NoError(t, err)
	assert.JSONEq(t, `{"1":4,"2":9}`, string(raw))
}
