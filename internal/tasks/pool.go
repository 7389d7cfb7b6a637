// Package tasks runs fire-and-forget background work on a bounded pool.
// Submissions never block: when the queue is full the task is dropped and
// logged. Task failures and panics stay inside the pool.
package tasks

import (
	"fmt"
	"sync"

	"github.com/charmbracelet/log"
)

const (
	defaultWorkers   = 4
	defaultQueueSize = 64
)

type task struct {
	name string
	fn   func() error
}

type Pool struct {
	logger *log.Logger
	queue  chan task
	wg     sync.WaitGroup

	mu     sync.RWMutex
	closed bool
}

func NewPool(workers, queueSize int, logger *log.Logger) *Pool {
	if workers <= 0 {
		workers = defaultWorkers
	}
	if queueSize <= 0 {
		queueSize = defaultQueueSize
	}
	if logger == nil {
		logger = log.New(nil)
	}
	p := &Pool{
		logger: logger,
		queue:  make(chan task, queueSize),
	}
	for i := 0; i < workers; i++ {
		p.wg.Add(1)
		go p.worker()
	}
	return p
}

// Submit enqueues fn for background execution. Returns false when the task
// was dropped, either because the queue is full or the pool is closed.
func (p *Pool) Submit(name string, fn func() error) bool {
	if fn == nil {
		return false
	}
	p.mu.RLock()
	defer p.mu.RUnlock()
	if p.closed {
		return false
	}
	select {
	case p.queue <- task{name: name, fn: fn}:
		return true
	default:
		p.logger.Warn("task queue full, dropping task", "task", name)
		return false
	}
}

// Close stops accepting work and waits for queued tasks to drain. The lock
// excludes in-flight Submits, so the channel only closes once no sender can
// still hold it.
func (p *Pool) Close() {
	p.mu.Lock()
	if !p.closed {
		p.closed = true
		close(p.queue)
	}
	p.mu.Unlock()
	p.wg.Wait()
}

func (p *Pool) worker() {
	defer p.wg.Done()
	for t := range p.queue {
		p.run(t)
	}
}

func (p *Pool) run(t task) {
	defer func() {
		if r := recover(); r != nil {
			p.logger.Error("task panicked", "task", t.name, "panic", fmt.Sprint(r))
		}
	}()
	if err := t.fn(); err != nil {
		p.logger.Warn("task failed", "task", t.name, "err", err)
	}
}
