package timers

import (
	"sync"
	"time"
)

// Manual детерминированные часы для тестов.
// Таймеры срабатывают только внутри Advance, в порядке времени,
// на горутине вызывающего.
type Manual struct {
	mu      sync.Mutex
	now     time.Time
	seq     uint64
	pending []*manualTimer
}

type manualTimer struct {
	m    *Manual
	at   time.Time
	seq  uint64
	fn   func()
	done bool
}

func NewManual(start time.Time) *Manual {
	return &Manual{now: start}
}

func (m *Manual) Now() time.Time {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.now
}

func (m *Manual) AfterFunc(d time.Duration, fn func()) Stopper {
	m.mu.Lock()
	defer m.mu.Unlock()
	if d < 0 {
		d = 0
	}
	m.seq++
	t := &manualTimer{m: m, at: m.now.Add(d), seq: m.seq, fn: fn}
	m.pending = append(m.pending, t)
	return t
}

// Advance сдвигает время на d и выполняет все наступившие таймеры,
// включая запланированные во время продвижения
func (m *Manual) Advance(d time.Duration) {
	m.mu.Lock()
	target := m.now.Add(d)
	m.mu.Unlock()

	for {
		m.mu.Lock()
		idx := -1
		for i, t := range m.pending {
			if t.at.After(target) {
				continue
			}
			if idx < 0 || t.at.Before(m.pending[idx].at) ||
				(t.at.Equal(m.pending[idx].at) && t.seq < m.pending[idx].seq) {
				idx = i
			}
		}
		if idx < 0 {
			m.now = target
			m.mu.Unlock()
			return
		}
		t := m.pending[idx]
		m.pending = append(m.pending[:idx], m.pending[idx+1:]...)
		t.done = true
		m.now = t.at
		m.mu.Unlock()

		t.fn()
	}
}

// Pending количество еще не сработавших таймеров
func (m *Manual) Pending() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.pending)
}

func (t *manualTimer) Stop() bool {
	m := t.m
	m.mu.Lock()
	defer m.mu.Unlock()
	if t.done {
		return false
	}
	t.done = true
	for i, p := range m.pending {
		if p == t {
			m.pending = append(m.pending[:i], m.pending[i+1:]...)
			break
		}
	}
	return true
}
