package queue

import (
	"context"
	"fmt"
	"log"
	"runtime/debug"
	"sync"
)

// Pool is an in-process bounded worker pool. It implements both Client and
// Server. Tasks enqueued while the buffer is full are rejected, never blocked on.
type Pool struct {
	workers  int
	tasks    chan Task
	handlers map[string]Handler

	mu      sync.RWMutex
	started bool
	closed  bool
	wg      sync.WaitGroup

	ctx    context.Context
	cancel context.CancelFunc
}

var (
	_ Client = (*Pool)(nil)
	_ Server = (*Pool)(nil)
)

// NewPool creates a pool with the given worker count and buffer size.
func NewPool(workers, buffer int) *Pool {
	if workers <= 0 {
		workers = 1
	}
	if buffer < 0 {
		buffer = 0
	}
	ctx, cancel := context.WithCancel(context.Background())
	return &Pool{
		workers:  workers,
		tasks:    make(chan Task, buffer),
		handlers: make(map[string]Handler),
		ctx:      ctx,
		cancel:   cancel,
	}
}

// Register binds a handler to a task type. Call before Start.
func (p *Pool) Register(taskType string, h Handler) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.handlers[taskType] = h
}

// Start launches the workers.
func (p *Pool) Start() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.closed {
		return ErrQueueClosed
	}
	if p.started {
		return nil
	}
	p.started = true
	for i := 0; i < p.workers; i++ {
		p.wg.Add(1)
		go p.work()
	}
	return nil
}

// Enqueue adds a task without blocking.
func (p *Pool) Enqueue(ctx context.Context, t Task) error {
	p.mu.RLock()
	defer p.mu.RUnlock()
	if p.closed {
		return ErrQueueClosed
	}
	select {
	case p.tasks <- t:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	default:
		return fmt.Errorf("%w: type=%s", ErrQueueFull, t.Type)
	}
}

// Stop rejects new tasks, drains the buffered ones and waits for workers.
func (p *Pool) Stop() {
	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		return
	}
	p.closed = true
	close(p.tasks)
	started := p.started
	p.mu.Unlock()

	if started {
		p.wg.Wait()
	}
	p.cancel()
}

func (p *Pool) work() {
	defer p.wg.Done()
	for t := range p.tasks {
		p.run(t)
	}
}

func (p *Pool) run(t Task) {
	defer func() {
		if r := recover(); r != nil {
			log.Printf("queue: task panicked type=%s panic=%v\n%s", t.Type, r, debug.Stack())
		}
	}()

	p.mu.RLock()
	h, ok := p.handlers[t.Type]
	p.mu.RUnlock()
	if !ok {
		log.Printf("queue: %v type=%s", ErrNoHandler, t.Type)
		return
	}
	if err := h.ProcessTask(p.ctx, t); err != nil {
		log.Printf("queue: task failed type=%s err=%v", t.Type, err)
	}
}
