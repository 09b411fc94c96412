package ws

import "sync"

// executor выполняет команды комнаты строго по одной
type executor interface {
	// post ставит fn в очередь; false если исполнитель уже остановлен
	post(fn func()) bool
	// stop можно звать из самой команды и многократно
	stop()
}

// loopExecutor отдельная горутина с очередью на комнату
type loopExecutor struct {
	queue chan func()
	done  chan struct{}
	once  sync.Once
}

func newLoopExecutor(size int) *loopExecutor {
	e := &loopExecutor{
		queue: make(chan func(), size),
		done:  make(chan struct{}),
	}
	go e.run()
	return e
}

func (e *loopExecutor) run() {
	for {
		select {
		case fn := <-e.queue:
			fn()
		case <-e.done:
			return
		}
	}
}

func (e *loopExecutor) post(fn func()) bool {
	select {
	case <-e.done:
		return false
	default:
	}
	select {
	case e.queue <- fn:
		return true
	case <-e.done:
		return false
	}
}

func (e *loopExecutor) stop() {
	e.once.Do(func() { close(e.done) })
}

// inlineExecutor выполняет команду в вызывающей горутине; для тестов
type inlineExecutor struct {
	mu      sync.Mutex
	stopped bool
	running bool
	pending []func()
}

func (e *inlineExecutor) post(fn func()) bool {
	e.mu.Lock()
	if e.stopped {
		e.mu.Unlock()
		return false
	}
	// вложенный post из команды откладывается до ее завершения
	e.pending = append(e.pending, fn)
	if e.running {
		e.mu.Unlock()
		return true
	}
	e.running = true
	for len(e.pending) > 0 && !e.stopped {
		next := e.pending[0]
		e.pending = e.pending[1:]
		e.mu.Unlock()
		next()
		e.mu.Lock()
	}
	e.pending = nil
	e.running = false
	e.mu.Unlock()
	return true
}

func (e *inlineExecutor) stop() {
	e.mu.Lock()
	e.stopped = true
	e.mu.Unlock()
}
