package timers

import (
	"sync"
	"time"
)

// Handle идентификатор таймера внутри Bag
type Handle uint64

// Bag владеет всеми таймерами одного движка.
// Колбэк выполняется только если его handle еще жив в момент доставки,
// поэтому после Cancel или StopAll ни один старый колбэк не сработает.
type Bag struct {
	clock Clock

	mu   sync.Mutex
	next Handle
	live map[Handle]Stopper
}

func NewBag(c Clock) *Bag {
	return &Bag{clock: c, live: make(map[Handle]Stopper)}
}

// After планирует однократный вызов
func (b *Bag) After(d time.Duration, fn func()) Handle {
	h := b.reserve()
	s := b.clock.AfterFunc(d, func() {
		if b.take(h) {
			fn()
		}
	})
	b.attach(h, s)
	return h
}

// Every вызывает fn каждые d, пока handle не отменен
func (b *Bag) Every(d time.Duration, fn func()) Handle {
	h := b.reserve()
	var arm func()
	arm = func() {
		s := b.clock.AfterFunc(d, func() {
			if !b.alive(h) {
				return
			}
			fn()
			// fn мог отменить себя
			if b.alive(h) {
				arm()
			}
		})
		b.attach(h, s)
	}
	arm()
	return h
}

// Cancel отменяет таймер; повторная отмена и нулевой handle безопасны
func (b *Bag) Cancel(h Handle) {
	if h == 0 {
		return
	}
	b.mu.Lock()
	s, ok := b.live[h]
	delete(b.live, h)
	b.mu.Unlock()
	if ok && s != nil {
		s.Stop()
	}
}

// StopAll отменяет все таймеры мешка
func (b *Bag) StopAll() {
	b.mu.Lock()
	live := b.live
	b.live = make(map[Handle]Stopper)
	b.mu.Unlock()

	for _, s := range live {
		if s != nil {
			s.Stop()
		}
	}
}

// Len количество живых таймеров
func (b *Bag) Len() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.live)
}

// Now текущее время часов мешка
func (b *Bag) Now() time.Time { return b.clock.Now() }

func (b *Bag) reserve() Handle {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.next++
	b.live[b.next] = nil
	return b.next
}

// attach сохраняет stopper, если handle не отменили раньше
func (b *Bag) attach(h Handle, s Stopper) {
	b.mu.Lock()
	_, ok := b.live[h]
	if ok {
		b.live[h] = s
	}
	b.mu.Unlock()
	if !ok {
		s.Stop()
	}
}

func (b *Bag) alive(h Handle) bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	_, ok := b.live[h]
	return ok
}

func (b *Bag) take(h Handle) bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	_, ok := b.live[h]
	delete(b.live, h)
	return ok
}
