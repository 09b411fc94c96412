package ws_test

import (
	"context"
	"encoding/json"
	"fmt"
	"math/rand/v2"
	"strings"
	"sync"
	"testing"
	"time"

	"duelarena/internal/domain"
	"duelarena/internal/game"
	"duelarena/internal/logger"
	"duelarena/internal/metrics"
	"duelarena/internal/timers"
	"duelarena/internal/ws"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakePeer struct {
	id     string
	mu     sync.Mutex
	frames []json.RawMessage
}

func newPeer(id string) *fakePeer { return &fakePeer{id: id} }

func (p *fakePeer) ID() string { return p.id }

func (p *fakePeer) Send(data []byte) bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.frames = append(p.frames, append(json.RawMessage(nil), data...))
	return true
}

func (p *fakePeer) all(typ string) []map[string]any {
	p.mu.Lock()
	defer p.mu.Unlock()
	var out []map[string]any
	for _, raw := range p.frames {
		var f map[string]any
		if json.Unmarshal(raw, &f) == nil && f["type"] == typ {
			out = append(out, f)
		}
	}
	return out
}

func (p *fakePeer) last(typ string) map[string]any {
	frames := p.all(typ)
	if len(frames) == 0 {
		return nil
	}
	return frames[len(frames)-1]
}

func (p *fakePeer) count() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.frames)
}

func (p *fakePeer) reset() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.frames = nil
}

type fakeRecorder struct {
	mu      sync.Mutex
	matches []*domain.Match
}

func (r *fakeRecorder) RecordMatch(_ context.Context, m *domain.Match) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.matches = append(r.matches, m)
	return nil
}

func (r *fakeRecorder) recorded() []*domain.Match {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]*domain.Match(nil), r.matches...)
}

type harness struct {
	t        *testing.T
	hub      *ws.Hub
	clock    *timers.Manual
	metrics  *metrics.Metrics
	recorder *fakeRecorder
	seq      int
}

func newHarness(t *testing.T, registry *game.Registry) *harness {
	h := &harness{
		t:        t,
		clock:    timers.NewManual(time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)),
		metrics:  metrics.New(nil),
		recorder: &fakeRecorder{},
	}
	h.hub = ws.NewHub(ws.Options{
		Registry:    registry,
		Clock:       h.clock,
		Recorder:    h.recorder,
		Logger:      logger.Discard(),
		Metrics:     h.metrics,
		Rand:        rand.New(rand.NewPCG(1, 2)),
		Synchronous: true,
	})
	return h
}

func (h *harness) send(p *fakePeer, frame map[string]any) {
	h.t.Helper()
	raw, err := json.Marshal(frame)
	require.NoError(h.t, err)
	h.hub.HandleFrame(p, raw)
}

// pair создает комнату, сажает второго игрока и проматывает отсчет
func (h *harness) pair(gameType string) (*fakePeer, *fakePeer, string) {
	h.t.Helper()
	h.seq++
	p1, p2 := newPeer(fmt.Sprintf("pair%d-1", h.seq)), newPeer(fmt.Sprintf("pair%d-2", h.seq))
	h.send(p1, map[string]any{"type": "create", "gameType": gameType, "name": "ann"})
	created := p1.last("created")
	require.NotNil(h.t, created)
	code := created["code"].(string)

	h.send(p2, map[string]any{"type": "join", "code": code, "name": "bob"})
	h.clock.Advance(3 * time.Second)
	require.NotNil(h.t, p1.last("game_start"))
	require.NotNil(h.t, p2.last("game_start"))
	return p1, p2, code
}

func (h *harness) drop(p *fakePeer, col int) {
	h.send(p, map[string]any{"type": "drop", "col": col})
}

// playVerticalWin четыре фишки первого места в столбце 3
func (h *harness) playVerticalWin(p1, p2 *fakePeer) {
	for i := 0; i < 3; i++ {
		h.drop(p1, 3)
		h.drop(p2, 4)
	}
	h.drop(p1, 3)
}

func TestCreate_SendsCreated(t *testing.T) {
	h := newHarness(t, nil)
	p := newPeer("p1")

	h.send(p, map[string]any{"type": "create", "gameType": "pong", "bet": "  10 coins  "})

	created := p.last("created")
	require.NotNil(t, created)
	assert.Regexp(t, `^[ABCDEFGHJKLMNPQRSTUVWXYZ23456789]{4}$`, created["code"])
	assert.Equal(t, 1.0, created["seat"])
	assert.Equal(t, "pong", created["gameType"])
	assert.Equal(t, "10 coins", created["bet"])
	assert.Equal(t, 1, h.hub.RoomCount())
	assert.Equal(t, 1.0, testutil.ToFloat64(h.metrics.RoomsActive))
}

func TestCreate_BetNormalisation(t *testing.T) {
	tests := []struct {
		name string
		bet  any
		want any
	}{
		{"missing", nil, nil},
		{"blank", "   ", nil},
		{"number", 25, "25"},
		{"too long", strings.Repeat("x", 80), strings.Repeat("x", 50)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := newHarness(t, nil)
			p := newPeer("p1")
			frame := map[string]any{"type": "create", "gameType": "hex"}
			if tt.bet != nil {
				frame["bet"] = tt.bet
			}
			h.send(p, frame)

			created := p.last("created")
			require.NotNil(t, created)
			assert.Equal(t, tt.want, created["bet"])
		})
	}
}

func TestCreate_UnknownGame(t *testing.T) {
	h := newHarness(t, nil)
	p := newPeer("p1")

	h.send(p, map[string]any{"type": "create", "gameType": "chess"})

	errFrame := p.last("error")
	require.NotNil(t, errFrame)
	assert.Equal(t, ws.ErrUnknownGame.Error(), errFrame["msg"])
	assert.Equal(t, 0, h.hub.RoomCount())
}

func TestJoin_Errors(t *testing.T) {
	h := newHarness(t, nil)
	p1, _, code := h.pair(game.TypeConnect4)

	stranger := newPeer("stranger")
	h.send(stranger, map[string]any{"type": "join", "code": "QQQQ"})
	assert.Equal(t, "room not found", stranger.last("error")["msg"])

	h.send(stranger, map[string]any{"type": "join", "code": code})
	assert.Equal(t, "room full", stranger.last("error")["msg"])

	h.send(p1, map[string]any{"type": "join", "code": code})
	assert.Equal(t, "room full", p1.last("error")["msg"])
	assert.Equal(t, 1, h.hub.RoomCount())
}

func TestJoin_CountdownThenGameStart(t *testing.T) {
	h := newHarness(t, nil)
	p1, p2 := newPeer("p1"), newPeer("p2")

	h.send(p1, map[string]any{"type": "create", "gameType": "connect4", "name": "  ann  "})
	code := p1.last("created")["code"].(string)

	// код принимается в любом регистре
	h.send(p2, map[string]any{"type": "join", "code": " " + strings.ToLower(code) + " "})

	joined := p2.last("joined")
	require.NotNil(t, joined)
	assert.Equal(t, 2.0, joined["seat"])
	assert.Equal(t, "ann", joined["creatorName"])
	assert.Equal(t, "connect4", joined["gameType"])

	first := p1.last("countdown")
	require.NotNil(t, first)
	assert.Equal(t, 3.0, first["count"])
	assert.Equal(t, []any{"ann", "Player 2"}, first["names"])
	assert.Equal(t, "connect4", first["gameType"])
	assert.Contains(t, first, "bet")

	h.clock.Advance(time.Second)
	assert.Equal(t, 2.0, p2.last("countdown")["count"])
	assert.NotContains(t, p2.last("countdown"), "names")
	h.clock.Advance(time.Second)
	assert.Equal(t, 1.0, p2.last("countdown")["count"])
	assert.Nil(t, p2.last("game_start"))

	h.clock.Advance(time.Second)
	assert.Len(t, p1.all("countdown"), 3)
	start1, start2 := p1.last("game_start"), p2.last("game_start")
	require.NotNil(t, start1)
	assert.Equal(t, start1, start2)
	assert.Equal(t, "connect4", start1["gameType"])
	state := start1["state"].(map[string]any)
	assert.Equal(t, 1.0, state["turn"])

	info, ok := h.hub.RoomInfo(code)
	require.True(t, ok)
	assert.Equal(t, game.PhasePlaying, info.Phase)
	assert.Equal(t, 2, info.Players)
	assert.Equal(t, 1.0, testutil.ToFloat64(h.metrics.MatchesStarted.WithLabelValues("connect4")))
}

func TestMessagesIgnoredOutsidePlaying(t *testing.T) {
	h := newHarness(t, nil)
	p1, p2 := newPeer("p1"), newPeer("p2")
	h.send(p1, map[string]any{"type": "create", "gameType": "connect4"})
	h.send(p2, map[string]any{"type": "join", "code": p1.last("created")["code"]})

	h.drop(p1, 3)

	assert.Nil(t, p1.last("state"))
}

func TestConnect4_VerticalWinEndsMatch(t *testing.T) {
	h := newHarness(t, nil)
	p1, p2, code := h.pair(game.TypeConnect4)

	h.playVerticalWin(p1, p2)

	over := p2.last("gameover")
	require.NotNil(t, over)
	assert.Equal(t, 1.0, over["winner"])

	// после конца матча ходы не принимаются
	before := p1.count()
	h.drop(p2, 5)
	h.drop(p1, 5)
	assert.Equal(t, before, p1.count())

	info, _ := h.hub.RoomInfo(code)
	assert.Equal(t, game.PhaseEnded, info.Phase)
	assert.Equal(t, 1, info.Winner)
	assert.Equal(t, 1.0, testutil.ToFloat64(h.metrics.MatchesFinished.WithLabelValues("connect4", "seat1")))

	require.Eventually(t, func() bool { return len(h.recorder.recorded()) == 1 }, time.Second, 10*time.Millisecond)
	m := h.recorder.recorded()[0]
	assert.Equal(t, code, m.RoomCode)
	assert.Equal(t, "connect4", m.GameType)
	assert.Equal(t, 1, m.Winner)
	assert.Equal(t, "ann", m.WinnerName())
}

func TestRestart_RequiresBothSeats(t *testing.T) {
	h := newHarness(t, nil)
	p1, p2, code := h.pair(game.TypeConnect4)
	h.playVerticalWin(p1, p2)
	p1.reset()
	p2.reset()

	h.send(p1, map[string]any{"type": "restart"})
	h.send(p1, map[string]any{"type": "restart"})

	assert.Equal(t, 1.0, p2.last("restart_requested")["seat"])
	assert.Nil(t, p2.last("countdown"))
	info, _ := h.hub.RoomInfo(code)
	assert.Equal(t, game.PhaseEnded, info.Phase)

	h.send(p2, map[string]any{"type": "restart"})

	countdown := p1.last("countdown")
	require.NotNil(t, countdown)
	assert.Equal(t, "connect4", countdown["gameType"])
	h.clock.Advance(3 * time.Second)
	assert.NotNil(t, p2.last("game_start"))
}

func TestChangeGame_SelfAcceptKeepsGameType(t *testing.T) {
	h := newHarness(t, nil)
	p1, p2, code := h.pair(game.TypeConnect4)
	h.playVerticalWin(p1, p2)

	h.send(p1, map[string]any{"type": "change_game", "gameType": "pong"})

	proposed := p2.last("game_proposed")
	require.NotNil(t, proposed)
	assert.Equal(t, "pong", proposed["gameType"])
	assert.Equal(t, 1.0, proposed["seat"])
	assert.Equal(t, "pong", p1.last("game_propose_sent")["gameType"])
	assert.Nil(t, p1.last("game_proposed"))

	p1.reset()
	h.send(p1, map[string]any{"type": "accept_game"})

	assert.Nil(t, p1.last("countdown"))
	info, _ := h.hub.RoomInfo(code)
	assert.Equal(t, "connect4", info.GameType)
	assert.Equal(t, game.PhaseEnded, info.Phase)

	// прежнее предложение сброшено, принять его уже нельзя
	h.send(p2, map[string]any{"type": "accept_game"})
	assert.Nil(t, p1.last("countdown"))
}

func TestChangeGame_OtherSeatAccepts(t *testing.T) {
	h := newHarness(t, nil)
	p1, p2, code := h.pair(game.TypeConnect4)
	h.playVerticalWin(p1, p2)
	p1.reset()

	h.send(p1, map[string]any{"type": "change_game", "gameType": "pong"})
	h.send(p2, map[string]any{"type": "accept_game"})

	countdown := p1.last("countdown")
	require.NotNil(t, countdown)
	assert.Equal(t, "pong", countdown["gameType"])

	h.clock.Advance(3 * time.Second)
	start := p1.last("game_start")
	require.NotNil(t, start)
	assert.Equal(t, "pong", start["gameType"])

	info, _ := h.hub.RoomInfo(code)
	assert.Equal(t, "pong", info.GameType)
	assert.Equal(t, game.PhasePlaying, info.Phase)
}

func TestChangeGame_Ignored(t *testing.T) {
	h := newHarness(t, nil)
	p1, p2, _ := h.pair(game.TypeConnect4)

	// во время матча
	h.send(p1, map[string]any{"type": "change_game", "gameType": "pong"})
	assert.Nil(t, p2.last("game_proposed"))

	h.playVerticalWin(p1, p2)

	// неизвестный тип
	h.send(p1, map[string]any{"type": "change_game", "gameType": "chess"})
	assert.Nil(t, p2.last("game_proposed"))
}

func TestDisconnect_NotifiesOpponentAndCancelsTimers(t *testing.T) {
	h := newHarness(t, nil)
	p1, p2, _ := h.pair(game.TypePong)
	require.Positive(t, h.clock.Pending())

	h.hub.Disconnect(p1)

	assert.NotNil(t, p2.last("opponent_left"))
	assert.Nil(t, p1.last("opponent_left"))
	assert.Equal(t, 0, h.hub.RoomCount())
	assert.Equal(t, 0, h.clock.Pending(), "engine timers must not outlive the room")

	// оставшийся игрок больше ни во что не направляется
	before := p2.count()
	h.send(p2, map[string]any{"type": "paddle_move", "x": 10})
	h.clock.Advance(time.Second)
	assert.Equal(t, before, p2.count())
}

func TestDisconnect_DuringCountdown(t *testing.T) {
	h := newHarness(t, nil)
	p1, p2 := newPeer("p1"), newPeer("p2")
	h.send(p1, map[string]any{"type": "create", "gameType": "hex"})
	h.send(p2, map[string]any{"type": "join", "code": p1.last("created")["code"]})

	h.hub.Disconnect(p2)
	h.clock.Advance(5 * time.Second)

	assert.NotNil(t, p1.last("opponent_left"))
	assert.Nil(t, p1.last("game_start"))
	assert.Equal(t, 0, h.clock.Pending())
}

func TestCreateWhileSeated_LeavesPreviousRoom(t *testing.T) {
	h := newHarness(t, nil)
	p1, p2, oldCode := h.pair(game.TypeConnect4)

	h.send(p1, map[string]any{"type": "create", "gameType": "hex"})

	assert.NotNil(t, p2.last("opponent_left"))
	assert.Equal(t, 1, h.hub.RoomCount())
	_, ok := h.hub.RoomInfo(oldCode)
	assert.False(t, ok)
	assert.NotEqual(t, oldCode, p1.last("created")["code"])
}

func TestCleanup_RemovesStaleRooms(t *testing.T) {
	h := newHarness(t, nil)
	old := newPeer("old")
	h.send(old, map[string]any{"type": "create", "gameType": "hex"})

	h.clock.Advance(31 * time.Minute)
	fresh := newPeer("fresh")
	h.send(fresh, map[string]any{"type": "create", "gameType": "hex"})

	assert.Equal(t, 1, h.hub.Cleanup())
	assert.Equal(t, 1, h.hub.RoomCount())
	_, ok := h.hub.RoomInfo(fresh.last("created")["code"].(string))
	assert.True(t, ok)

	assert.Equal(t, 0, h.hub.Cleanup())
}

func TestMalformedFramesAreDropped(t *testing.T) {
	h := newHarness(t, nil)
	p := newPeer("p1")

	h.hub.HandleFrame(p, []byte("not json"))
	h.hub.HandleFrame(p, []byte(`{"col":1}`))
	h.hub.HandleFrame(p, []byte(`{"type":"create","gameType":7}`))

	assert.Equal(t, 0, p.count())
	assert.Equal(t, 3.0, testutil.ToFloat64(h.metrics.FramesDropped))
	assert.Equal(t, 0, h.hub.RoomCount())
}

func TestStop_ClosesEveryRoom(t *testing.T) {
	h := newHarness(t, nil)
	h.pair(game.TypeSnakeClash)
	h.pair(game.TypeSkyDuel)
	require.Positive(t, h.clock.Pending())

	h.hub.Stop()

	assert.Equal(t, 0, h.hub.RoomCount())
	assert.Equal(t, 0, h.clock.Pending())
	assert.Equal(t, 0.0, testutil.ToFloat64(h.metrics.RoomsActive))
}

// boom движок, который падает на первом же действии
type boom struct{}

func (boom) Init(game.Room) {}
func (boom) Start(game.Room, game.Broadcast) {}
func (boom) HandleMessage(game.Room, int, game.Message, game.Broadcast) { panic("engine bug") }
func (boom) State(game.Room) any { return struct{}{} }
func (boom) Dispose(game.Room) {}

func TestPanicTearsDownOnlyThatRoom(t *testing.T) {
	reg := game.NewRegistry()
	reg.Register("boom", func(game.Deps) game.Engine { return boom{} })
	reg.Register(game.TypeConnect4, func(d game.Deps) game.Engine { return game.NewConnect4(d) })
	h := newHarness(t, reg)

	b1, b2, boomCode := h.pair("boom")
	c1, c2, _ := h.pair(game.TypeConnect4)

	h.send(b1, map[string]any{"type": "explode"})

	assert.Equal(t, "room closed", b1.last("error")["msg"])
	assert.Equal(t, "room closed", b2.last("error")["msg"])
	_, ok := h.hub.RoomInfo(boomCode)
	assert.False(t, ok)
	assert.Equal(t, 1, h.hub.RoomCount())
	assert.Equal(t, 1.0, testutil.ToFloat64(h.metrics.RoomPanics))

	h.drop(c1, 0)
	state := c2.last("state")
	require.NotNil(t, state)
	assert.Equal(t, 2.0, state["turn"])
}
