package game

import (
	"encoding/json"
	"math/rand/v2"
	"testing"
	"time"

	"duelarena/internal/timers"

	"github.com/stretchr/testify/require"
)

// fakeRoom комната без сети: кадры складываются в память
type fakeRoom struct {
	phase    Phase
	winner   int
	endCalls int
	frames   []any
	direct   map[int][]any
}

func newFakeRoom() *fakeRoom {
	return &fakeRoom{phase: PhasePlaying, direct: make(map[int][]any)}
}

func (r *fakeRoom) Phase() Phase { return r.phase }

func (r *fakeRoom) End(winner int) {
	if r.phase != PhasePlaying {
		return
	}
	r.phase = PhaseEnded
	r.winner = winner
	r.endCalls++
}

func (r *fakeRoom) SendTo(seat int, msg any) {
	r.direct[seat] = append(r.direct[seat], msg)
}

func (r *fakeRoom) broadcast(msg any) {
	r.frames = append(r.frames, msg)
}

// decoded кадры типа typ в виде json-объектов
func decoded(t *testing.T, frames []any, typ string) []map[string]any {
	t.Helper()
	var out []map[string]any
	for _, f := range frames {
		raw, err := json.Marshal(f)
		require.NoError(t, err)
		var m map[string]any
		require.NoError(t, json.Unmarshal(raw, &m))
		if m["type"] == typ {
			out = append(out, m)
		}
	}
	return out
}

func (r *fakeRoom) last(t *testing.T, typ string) map[string]any {
	t.Helper()
	frames := decoded(t, r.frames, typ)
	if len(frames) == 0 {
		return nil
	}
	return frames[len(frames)-1]
}

type fixture struct {
	clock *timers.Manual
	room  *fakeRoom
	deps  Deps
}

func newFixture(seed uint64) *fixture {
	clock := timers.NewManual(time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC))
	return &fixture{
		clock: clock,
		room:  newFakeRoom(),
		deps:  Deps{Clock: clock, Rand: rand.New(rand.NewPCG(seed, seed))},
	}
}

func (f *fixture) start(e Engine) {
	e.Init(f.room)
	e.Start(f.room, f.room.broadcast)
}

func msg(t *testing.T, typ string, fields map[string]any) Message {
	t.Helper()
	body := map[string]any{"type": typ}
	for k, v := range fields {
		body[k] = v
	}
	raw, err := json.Marshal(body)
	require.NoError(t, err)
	return Message{Type: typ, Raw: raw}
}
