package game

import (
	"encoding/json"
	"math/rand/v2"
	"time"

	"duelarena/internal/timers"
)

// Phase стадия жизни комнаты
type Phase string

const (
	PhaseWaiting   Phase = "waiting"
	PhaseCountdown Phase = "countdown"
	PhasePlaying   Phase = "playing"
	PhaseEnded     Phase = "ended"
)

// Room то, что движок видит от своей комнаты
type Room interface {
	Phase() Phase
	// End переводит комнату в ended; winner 0 означает ничью
	End(winner int)
	// SendTo отправляет кадр только одному месту
	SendTo(seat int, msg any)
}

// Broadcast отправляет кадр обоим местам комнаты
type Broadcast func(msg any)

// Engine движок одной мини-игры. Все вызовы и все колбэки его таймеров
// выполняются в цикле комнаты по одному, поэтому блокировки не нужны.
type Engine interface {
	// Init готовит свежее состояние; безопасен после Dispose
	Init(r Room)
	// Start запускает таймеры; первый кадр дает полное состояние
	Start(r Room, b Broadcast)
	// HandleMessage применяет действие игрока seat; недопустимое игнорируется
	HandleMessage(r Room, seat int, m Message, b Broadcast)
	// State снимок для game_start
	State(r Room) any
	// Dispose отменяет все таймеры; можно звать многократно и до Start
	Dispose(r Room)
}

// Message входящий кадр игрока: тип и исходный json целиком
type Message struct {
	Type string
	Raw  json.RawMessage
}

// Decode разбирает поля кадра в v; false если кадр не подходит
func (m Message) Decode(v any) bool {
	if len(m.Raw) == 0 {
		return false
	}
	return json.Unmarshal(m.Raw, v) == nil
}

// truthy нестрогий флаг от клиента: true, ненулевое число или непустая строка
func truthy(raw json.RawMessage) bool {
	var v any
	if len(raw) == 0 || json.Unmarshal(raw, &v) != nil {
		return false
	}
	switch x := v.(type) {
	case nil:
		return false
	case bool:
		return x
	case float64:
		return x != 0
	case string:
		return x != ""
	default:
		return true
	}
}

// Deps то, что движок получает от комнаты при создании
type Deps struct {
	Clock timers.Clock
	Rand  *rand.Rand
}

// Factory создает новый экземпляр движка на один матч
type Factory func(d Deps) Engine

// Event простой кадр только с типом
type Event struct {
	Type string `json:"type"`
}

// GameOver финальный кадр матча
type GameOver struct {
	Type   string `json:"type"`
	Winner int    `json:"winner"`
}

func gameOver(winner int) GameOver {
	return GameOver{Type: "gameover", Winner: winner}
}

// base общие части всех движков: мешок таймеров, генератор и ссылки,
// которые запоминаются в Start для колбэков таймеров
type base struct {
	timers *timers.Bag
	rng    *rand.Rand
	room   Room
	bc     Broadcast
}

func newBase(d Deps) base {
	rng := d.Rand
	if rng == nil {
		rng = rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64()))
	}
	clock := d.Clock
	if clock == nil {
		clock = timers.System()
	}
	return base{timers: timers.NewBag(clock), rng: rng}
}

func (b *base) bind(r Room, bc Broadcast) {
	b.room = r
	b.bc = bc
}

func (b *base) playing() bool {
	return b.room != nil && b.room.Phase() == PhasePlaying
}

// finish останавливает все таймеры и завершает комнату
func (b *base) finish(winner int) {
	b.finishWith(winner, gameOver(winner))
}

// finishWith как finish, но кадр gameover несет поля конкретной игры
func (b *base) finishWith(winner int, frame any) {
	b.timers.StopAll()
	b.room.End(winner)
	b.bc(frame)
}

// finishAfter завершает комнату сразу, а gameover шлет через delay
func (b *base) finishAfter(winner int, delay time.Duration) {
	b.timers.StopAll()
	b.room.End(winner)
	b.timers.After(delay, func() { b.bc(gameOver(winner)) })
}

func (b *base) Dispose(Room) {
	b.timers.StopAll()
}

// bySeat значения по местам; в json ключи "1" и "2"
type bySeat[T any] [2]T

func (p bySeat[T]) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		One T `json:"1"`
		Two T `json:"2"`
	}{p[0], p[1]})
}

func other(seat int) int {
	if seat == 1 {
		return 2
	}
	return 1
}

func validSeat(seat int) bool { return seat == 1 || seat == 2 }
