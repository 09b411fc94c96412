package ws

import (
	"context"
	"encoding/json"
	"log/slog"
	"math/rand/v2"
	"slices"
	"sync"
	"time"

	"duelarena/internal/domain"
	"duelarena/internal/game"
	"duelarena/internal/metrics"
	"duelarena/internal/timers"
)

// Peer соединение игрока, как его видит комната
type Peer interface {
	ID() string
	// Send false если соединение закрыто или очередь переполнена
	Send(data []byte) bool
}

type seatInfo struct {
	peer Peer
	name string
}

// Room одна комната на двух игроков. Все поля ниже mu принадлежат циклу
// комнаты и читаются или пишутся только из команд исполнителя.
type Room struct {
	code      string
	hub       *Hub
	log       *slog.Logger
	exec      executor
	createdAt time.Time

	mu    sync.Mutex
	seats [2]*seatInfo

	gameType  string
	bet       *string
	phase     game.Phase
	engine    game.Engine
	clock     timers.Clock
	rng       *rand.Rand
	countdown *timers.Bag
	neg       negotiation
	winner    int
	startedAt time.Time
	closed    bool
}

// RoomInfo снимок комнаты для http
type RoomInfo struct {
	Code      string     `json:"code"`
	GameType  string     `json:"gameType"`
	Phase     game.Phase `json:"phase"`
	Players   int        `json:"players"`
	Bet       *string    `json:"bet"`
	Winner    int        `json:"winner"`
	CreatedAt time.Time  `json:"createdAt"`
}

func newRoom(h *Hub, code, gameType string, bet *string, rng *rand.Rand) *Room {
	r := &Room{
		code:      code,
		hub:       h,
		log:       h.log.With("room", code),
		createdAt: h.opts.Clock.Now(),
		gameType:  gameType,
		bet:       bet,
		phase:     game.PhaseWaiting,
		rng:       rng,
	}
	if h.opts.Synchronous {
		r.exec = &inlineExecutor{}
	} else {
		r.exec = newLoopExecutor(256)
	}
	// колбэки таймеров движка и отсчета тоже идут через цикл комнаты
	r.clock = timers.Via(h.opts.Clock, func(fn func()) { r.post(fn) })
	r.countdown = timers.NewBag(r.clock)
	return r
}

func (r *Room) Code() string { return r.code }

// post выполняет fn в цикле комнаты; паника гасится и закрывает только эту комнату
func (r *Room) post(fn func()) bool {
	return r.exec.post(func() {
		if r.closed {
			return
		}
		defer func() {
			if v := recover(); v != nil {
				r.log.Error("room loop panic", "game", r.gameType, "panic", v)
				r.hub.opts.Metrics.RoomPanics.Inc()
				r.hub.evict(r)
				r.shutdown(newError(errRoomClosed))
			}
		}()
		fn()
	})
}

func (r *Room) peer(seat int) Peer {
	r.mu.Lock()
	defer r.mu.Unlock()
	if seat < 1 || seat > 2 || r.seats[seat-1] == nil {
		return nil
	}
	return r.seats[seat-1].peer
}

func (r *Room) names() [2]string {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := [2]string{"Player 1", "Player 2"}
	for i, s := range r.seats {
		if s != nil {
			out[i] = s.name
		}
	}
	return out
}

func (r *Room) full() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.seats[0] != nil && r.seats[1] != nil
}

func (r *Room) players() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	n := 0
	for _, s := range r.seats {
		if s != nil {
			n++
		}
	}
	return n
}

// seatGuest занимает второе место; false если оно уже занято
func (r *Room) seatGuest(p Peer, name string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.seats[1] != nil {
		return false
	}
	r.seats[1] = &seatInfo{peer: p, name: name}
	return true
}

func (r *Room) encode(msg any) []byte {
	data, err := json.Marshal(msg)
	if err != nil {
		r.log.Error("failed to marshal frame", "error", err)
		return nil
	}
	return data
}

// broadcast кодирует кадр один раз и предлагает его обоим местам
func (r *Room) broadcast(msg any) {
	data := r.encode(msg)
	if data == nil {
		return
	}
	for seat := 1; seat <= 2; seat++ {
		if p := r.peer(seat); p != nil {
			p.Send(data)
		}
	}
}

// SendTo часть game.Room
func (r *Room) SendTo(seat int, msg any) {
	p := r.peer(seat)
	if p == nil {
		return
	}
	if data := r.encode(msg); data != nil {
		p.Send(data)
	}
}

// Phase часть game.Room
func (r *Room) Phase() game.Phase { return r.phase }

// End часть game.Room; повторный вызов в том же матче ничего не делает
func (r *Room) End(winner int) {
	if r.phase != game.PhasePlaying {
		return
	}
	r.phase = game.PhaseEnded
	r.winner = winner
	r.hub.opts.Metrics.MatchesFinished.WithLabelValues(r.gameType, metrics.Outcome(winner)).Inc()
	r.log.Info("match finished", "game", r.gameType, "winner", winner)
	r.record(winner)
}

func (r *Room) record(winner int) {
	rec := r.hub.opts.Recorder
	if rec == nil {
		return
	}
	names := r.names()
	m := &domain.Match{
		RoomCode:   r.code,
		GameType:   r.gameType,
		Player1:    names[0],
		Player2:    names[1],
		Winner:     winner,
		Bet:        r.bet,
		StartedAt:  r.startedAt,
		FinishedAt: r.hub.opts.Clock.Now(),
	}
	r.hub.wg.Add(1)
	go func() {
		defer r.hub.wg.Done()
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := rec.RecordMatch(ctx, m); err != nil {
			r.log.Warn("failed to record match", "game", m.GameType, "error", err)
		}
	}()
}

// handle команды комнаты; все прочее уходит движку пока идет матч
func (r *Room) handle(seat int, m game.Message) {
	switch m.Type {
	case "restart":
		if !r.full() || r.phase == game.PhaseCountdown {
			return
		}
		if r.neg.requestRestart(seat) {
			r.startCountdown()
			return
		}
		r.broadcast(seatFrame{Type: "restart_requested", Seat: seat})
	case "change_game":
		var in proposeRequest
		if r.phase != game.PhaseEnded || !m.Decode(&in) || !r.hub.opts.Registry.Has(in.GameType) {
			return
		}
		r.neg.propose(seat, in.GameType)
		r.SendTo(otherSeat(seat), proposedFrame{Type: "game_proposed", GameType: in.GameType, Seat: seat})
		r.SendTo(seat, proposeSentFrame{Type: "game_propose_sent", GameType: in.GameType})
	case "accept_game":
		gameType, ok := r.neg.accept(seat)
		if !ok || !r.full() {
			return
		}
		r.gameType = gameType
		r.startCountdown()
	default:
		if r.phase == game.PhasePlaying && r.engine != nil {
			r.engine.HandleMessage(r, seat, m, r.broadcast)
		}
	}
}

// startCountdown сбрасывает прежний матч и запускает отсчет
func (r *Room) startCountdown() {
	r.countdown.StopAll()
	if r.engine != nil {
		r.engine.Dispose(r)
	}
	r.neg.reset()
	r.phase = game.PhaseCountdown
	r.winner = 0

	count := r.hub.opts.Countdown
	r.broadcast(countdownStartFrame{
		Type:     "countdown",
		Count:    count,
		Names:    r.names(),
		GameType: r.gameType,
		Bet:      r.bet,
	})
	r.countdown.Every(r.hub.opts.CountdownTick, func() {
		count--
		if count > 0 {
			r.broadcast(countdownFrame{Type: "countdown", Count: count})
			return
		}
		r.countdown.StopAll()
		r.startGame()
	})
}

func (r *Room) startGame() {
	factory, ok := r.hub.opts.Registry.Lookup(r.gameType)
	if !ok {
		r.log.Error("no engine for game type", "game", r.gameType)
		return
	}
	if r.engine != nil {
		r.engine.Dispose(r)
	}
	eng := factory(game.Deps{Clock: r.clock, Rand: r.rng})
	r.engine = eng
	r.phase = game.PhasePlaying
	r.startedAt = r.hub.opts.Clock.Now()

	eng.Init(r)
	r.broadcast(gameStartFrame{
		Type:     "game_start",
		GameType: r.gameType,
		Names:    r.names(),
		State:    eng.State(r),
	})
	eng.Start(r, r.broadcast)
	r.hub.opts.Metrics.MatchesStarted.WithLabelValues(r.gameType).Inc()
	r.log.Info("match started", "game", r.gameType)
}

// shutdown останавливает все таймеры комнаты и ее цикл; кадр notice
// получают все оставшиеся места, кроме except
func (r *Room) shutdown(notice any, except ...string) {
	if r.closed {
		return
	}
	r.countdown.StopAll()
	if r.engine != nil {
		r.engine.Dispose(r)
	}
	if notice != nil {
		data := r.encode(notice)
		for seat := 1; seat <= 2; seat++ {
			p := r.peer(seat)
			if p == nil || data == nil || slices.Contains(except, p.ID()) {
				continue
			}
			p.Send(data)
		}
	}
	r.closed = true
	r.exec.stop()
}

func (r *Room) info() RoomInfo {
	return RoomInfo{
		Code:      r.code,
		GameType:  r.gameType,
		Phase:     r.phase,
		Players:   r.players(),
		Bet:       r.bet,
		Winner:    r.winner,
		CreatedAt: r.createdAt,
	}
}

func otherSeat(seat int) int {
	if seat == 1 {
		return 2
	}
	return 1
}
