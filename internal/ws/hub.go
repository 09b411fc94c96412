package ws

import (
	"context"
	"encoding/json"
	"log/slog"
	"math/rand/v2"
	"strconv"
	"strings"
	"sync"
	"time"
	"unicode/utf8"

	"duelarena/internal/domain"
	"duelarena/internal/game"
	"duelarena/internal/metrics"
	"duelarena/internal/timers"
)

const (
	codeAlphabet = "ABCDEFGHJKLMNPQRSTUVWXYZ23456789"
	codeLength   = 4
	maxName      = 20
	maxBet       = 50
)

// MatchRecorder сохраняет итог матча; ошибки только логируются
type MatchRecorder interface {
	RecordMatch(ctx context.Context, m *domain.Match) error
}

// Options настройки хаба; нулевые поля заменяются значениями по умолчанию
type Options struct {
	Registry      *game.Registry
	Clock         timers.Clock
	Recorder      MatchRecorder
	Logger        *slog.Logger
	Metrics       *metrics.Metrics
	Rand          *rand.Rand
	Countdown     int
	CountdownTick time.Duration
	StaleAfter    time.Duration
	CleanupEvery  time.Duration
	// Synchronous выполняет команды комнат в вызывающей горутине; для тестов
	Synchronous bool
}

type seatRef struct {
	room *Room
	seat int
}

// Hub реестр комнат по коду и мест по соединению
type Hub struct {
	opts Options
	log  *slog.Logger

	mu    sync.Mutex
	rooms map[string]*Room
	peers map[string]seatRef
	rng   *rand.Rand

	// незавершенные записи итогов матчей
	wg sync.WaitGroup
}

func NewHub(opts Options) *Hub {
	if opts.Registry == nil {
		opts.Registry = game.DefaultRegistry()
	}
	if opts.Clock == nil {
		opts.Clock = timers.System()
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	if opts.Metrics == nil {
		opts.Metrics = metrics.New(nil)
	}
	if opts.Rand == nil {
		opts.Rand = rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64()))
	}
	if opts.Countdown <= 0 {
		opts.Countdown = 3
	}
	if opts.CountdownTick <= 0 {
		opts.CountdownTick = time.Second
	}
	if opts.StaleAfter <= 0 {
		opts.StaleAfter = 30 * time.Minute
	}
	if opts.CleanupEvery <= 0 {
		opts.CleanupEvery = 5 * time.Minute
	}
	return &Hub{
		opts:  opts,
		log:   opts.Logger,
		rooms: make(map[string]*Room),
		peers: make(map[string]seatRef),
		rng:   opts.Rand,
	}
}

// HandleFrame разбирает входящий кадр и направляет его; битые кадры отбрасываются
func (h *Hub) HandleFrame(p Peer, raw []byte) {
	var env envelope
	if err := json.Unmarshal(raw, &env); err != nil || env.Type == "" {
		h.opts.Metrics.FramesDropped.Inc()
		h.log.Debug("dropping malformed frame", "peer", p.ID(), "bytes", len(raw))
		return
	}
	h.opts.Metrics.FramesIn.Inc()

	switch env.Type {
	case "create":
		var in createRequest
		if err := json.Unmarshal(raw, &in); err != nil {
			h.opts.Metrics.FramesDropped.Inc()
			return
		}
		h.create(p, in)
	case "join":
		var in joinRequest
		if err := json.Unmarshal(raw, &in); err != nil {
			h.opts.Metrics.FramesDropped.Inc()
			return
		}
		h.join(p, in)
	default:
		ref, ok := h.seatOf(p)
		if !ok {
			return
		}
		msg := game.Message{Type: env.Type, Raw: append(json.RawMessage(nil), raw...)}
		ref.room.post(func() { ref.room.handle(ref.seat, msg) })
	}
}

func (h *Hub) create(p Peer, in createRequest) {
	gameType := in.GameType
	if gameType == "" {
		gameType = game.TypeHex
	}
	if !h.opts.Registry.Has(gameType) {
		sendFrame(p, newError(ErrUnknownGame))
		return
	}
	bet := normalizeBet(in.Bet)
	name := normalizeName(in.Name, 1)

	h.mu.Lock()
	old := h.detachLocked(p)
	code := h.newCodeLocked()
	rng := rand.New(rand.NewPCG(h.rng.Uint64(), h.rng.Uint64()))
	r := newRoom(h, code, gameType, bet, rng)
	r.seats[0] = &seatInfo{peer: p, name: name}
	h.rooms[code] = r
	h.peers[p.ID()] = seatRef{room: r, seat: 1}
	h.mu.Unlock()

	h.teardown(old, p.ID())
	h.opts.Metrics.RoomsCreated.Inc()
	h.opts.Metrics.RoomsActive.Inc()
	h.log.Info("room created", "room", code, "game", gameType, "peer", p.ID())

	r.post(func() {
		r.SendTo(1, createdFrame{Type: "created", Code: code, Seat: 1, GameType: gameType, Bet: bet})
	})
}

func (h *Hub) join(p Peer, in joinRequest) {
	code := strings.ToUpper(strings.TrimSpace(in.Code))
	name := normalizeName(in.Name, 2)

	h.mu.Lock()
	r, ok := h.rooms[code]
	if !ok {
		h.mu.Unlock()
		sendFrame(p, newError(ErrRoomNotFound))
		return
	}
	if ref, seated := h.peers[p.ID()]; seated && ref.room == r {
		h.mu.Unlock()
		sendFrame(p, newError(ErrRoomFull))
		return
	}
	if !r.seatGuest(p, name) {
		h.mu.Unlock()
		sendFrame(p, newError(ErrRoomFull))
		return
	}
	old := h.detachLocked(p)
	h.peers[p.ID()] = seatRef{room: r, seat: 2}
	h.mu.Unlock()

	h.teardown(old, p.ID())
	h.log.Info("room joined", "room", code, "peer", p.ID())

	r.post(func() {
		creator := r.names()[0]
		r.SendTo(2, joinedFrame{
			Type:        "joined",
			Code:        code,
			Seat:        2,
			GameType:    r.gameType,
			Bet:         r.bet,
			CreatorName: creator,
		})
		r.startCountdown()
	})
}

// Disconnect закрывает комнату соединения; оставшееся место получает opponent_left
func (h *Hub) Disconnect(p Peer) {
	h.mu.Lock()
	r := h.detachLocked(p)
	h.mu.Unlock()
	if r != nil {
		h.log.Info("peer disconnected", "room", r.code, "peer", p.ID())
	}
	h.teardown(r, p.ID())
}

// Cleanup удаляет комнаты старше StaleAfter
func (h *Hub) Cleanup() int {
	now := h.opts.Clock.Now()
	var stale []*Room

	h.mu.Lock()
	for code, r := range h.rooms {
		if now.Sub(r.createdAt) > h.opts.StaleAfter {
			h.removeLocked(code, r)
			stale = append(stale, r)
		}
	}
	h.mu.Unlock()

	for _, r := range stale {
		r.post(func() { r.shutdown(nil) })
	}
	if len(stale) > 0 {
		h.log.Info("stale rooms removed", "count", len(stale))
	}
	return len(stale)
}

// Run периодически вызывает Cleanup, пока не отменен ctx
func (h *Hub) Run(ctx context.Context) {
	ticker := time.NewTicker(h.opts.CleanupEvery)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			h.Cleanup()
		}
	}
}

// Stop закрывает все комнаты и ждет незавершенные записи матчей
func (h *Hub) Stop() {
	h.mu.Lock()
	rooms := make([]*Room, 0, len(h.rooms))
	for code, r := range h.rooms {
		h.removeLocked(code, r)
		rooms = append(rooms, r)
	}
	h.mu.Unlock()

	for _, r := range rooms {
		r.post(func() { r.shutdown(nil) })
	}
	h.wg.Wait()
}

func (h *Hub) RoomCount() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.rooms)
}

// RoomInfo снимок комнаты, снятый в ее цикле
func (h *Hub) RoomInfo(code string) (RoomInfo, bool) {
	h.mu.Lock()
	r, ok := h.rooms[strings.ToUpper(code)]
	h.mu.Unlock()
	if !ok {
		return RoomInfo{}, false
	}
	ch := make(chan RoomInfo, 1)
	if !r.post(func() { ch <- r.info() }) {
		return RoomInfo{}, false
	}
	select {
	case info := <-ch:
		return info, true
	case <-time.After(time.Second):
		return RoomInfo{}, false
	}
}

// Types зарегистрированные типы игр
func (h *Hub) Types() []string {
	return h.opts.Registry.Types()
}

func (h *Hub) HasGame(gameType string) bool {
	return h.opts.Registry.Has(gameType)
}

func (h *Hub) seatOf(p Peer) (seatRef, bool) {
	h.mu.Lock()
	defer h.mu.Unlock()
	ref, ok := h.peers[p.ID()]
	return ref, ok
}

// evict убирает комнату из реестра, если она еще там
func (h *Hub) evict(r *Room) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.rooms[r.code] == r {
		h.removeLocked(r.code, r)
	}
}

// detachLocked убирает комнату, в которой сидит p; вызывать под mu
func (h *Hub) detachLocked(p Peer) *Room {
	ref, ok := h.peers[p.ID()]
	if !ok {
		return nil
	}
	h.removeLocked(ref.room.code, ref.room)
	return ref.room
}

func (h *Hub) removeLocked(code string, r *Room) {
	if h.rooms[code] != r {
		return
	}
	delete(h.rooms, code)
	for id, ref := range h.peers {
		if ref.room == r {
			delete(h.peers, id)
		}
	}
	h.opts.Metrics.RoomsActive.Dec()
}

// teardown закрывает уже удаленную из реестра комнату
func (h *Hub) teardown(r *Room, leaving string) {
	if r == nil {
		return
	}
	r.post(func() { r.shutdown(plainFrame{Type: "opponent_left"}, leaving) })
}

func (h *Hub) newCodeLocked() string {
	buf := make([]byte, codeLength)
	for {
		for i := range buf {
			buf[i] = codeAlphabet[h.rng.IntN(len(codeAlphabet))]
		}
		code := string(buf)
		if _, taken := h.rooms[code]; !taken {
			return code
		}
	}
}

func sendFrame(p Peer, msg any) {
	data, err := json.Marshal(msg)
	if err != nil {
		return
	}
	p.Send(data)
}

func normalizeName(name string, seat int) string {
	name = truncate(strings.TrimSpace(name), maxName)
	if name == "" {
		return "Player " + strconv.Itoa(seat)
	}
	return name
}

// normalizeBet принимает строку или число; пустое значение это null
func normalizeBet(raw json.RawMessage) *string {
	if len(raw) == 0 {
		return nil
	}
	var s string
	if err := json.Unmarshal(raw, &s); err != nil {
		var n json.Number
		if err := json.Unmarshal(raw, &n); err != nil {
			return nil
		}
		s = n.String()
	}
	s = truncate(strings.TrimSpace(s), maxBet)
	if s == "" {
		return nil
	}
	return &s
}

func truncate(s string, n int) string {
	if utf8.RuneCountInString(s) <= n {
		return s
	}
	return string([]rune(s)[:n])
}
