package timers

import "time"

// Stopper отменяет запланированный вызов
type Stopper interface {
	Stop() bool
}

// Clock источник времени и отложенных вызовов
type Clock interface {
	Now() time.Time
	AfterFunc(d time.Duration, fn func()) Stopper
}

type systemClock struct{}

// System возвращает часы поверх time.AfterFunc
func System() Clock { return systemClock{} }

func (systemClock) Now() time.Time { return time.Now() }

func (systemClock) AfterFunc(d time.Duration, fn func()) Stopper {
	return time.AfterFunc(d, fn)
}

type viaClock struct {
	Clock
	post func(func())
}

// Via возвращает часы, колбэки которых доставляются через post,
// а не выполняются в горутине таймера
func Via(c Clock, post func(func())) Clock {
	return viaClock{Clock: c, post: post}
}

func (v viaClock) AfterFunc(d time.Duration, fn func()) Stopper {
	return v.Clock.AfterFunc(d, func() { v.post(fn) })
}
