package worker

import (
	"context"
	"sync"
)

// Task is one unit of pooled work
type Task[T any] func(ctx context.Context) T

type slot[T any] struct {
	index int
	run   Task[T]
}

// Pool runs tasks on a fixed number of goroutines and hands results back
// in submission order. Tasks see a context derived from the pool's parent.
type Pool[T any] struct {
	size   int
	queue  chan slot[T]
	ctx    context.Context
	cancel context.CancelFunc

	running sync.WaitGroup
	closed  sync.Once

	mu        sync.Mutex
	submitted int
	done      map[int]T
}

// NewPool sizes the pool; anything below one worker becomes one
func NewPool[T any](parent context.Context, size int) *Pool[T] {
	if size < 1 {
		size = 1
	}
	ctx, cancel := context.WithCancel(parent)
	return &Pool[T]{
		size:   size,
		queue:  make(chan slot[T], size),
		ctx:    ctx,
		cancel: cancel,
		done:   make(map[int]T),
	}
}

// Start launches the workers
func (p *Pool[T]) Start() {
	p.running.Add(p.size)
	for n := 0; n < p.size; n++ {
		go p.loop()
	}
}

func (p *Pool[T]) loop() {
	defer p.running.Done()
	for {
		select {
		case <-p.ctx.Done():
			return
		case s, ok := <-p.queue:
			if !ok {
				return
			}
			out := s.run(p.ctx)
			p.mu.Lock()
			p.done[s.index] = out
			p.mu.Unlock()
		}
	}
}

// Submit enqueues task. It reports false once the pool has been cancelled;
// the rejected task still holds its position in Wait's output.
func (p *Pool[T]) Submit(task Task[T]) bool {
	p.mu.Lock()
	index := p.submitted
	p.submitted++
	p.mu.Unlock()

	if p.ctx.Err() != nil {
		return false
	}
	select {
	case <-p.ctx.Done():
		return false
	case p.queue <- slot[T]{index: index, run: task}:
		return true
	}
}

// Wait drains the queue and returns one entry per Submit call, in
// submission order. Tasks that never ran leave the zero value.
func (p *Pool[T]) Wait() []T {
	p.closed.Do(func() { close(p.queue) })
	p.running.Wait()
	p.cancel()

	p.mu.Lock()
	defer p.mu.Unlock()
	ordered := make([]T, p.submitted)
	for index, out := range p.done {
		ordered[index] = out
	}
	return ordered
}

// Shutdown cancels in-flight tasks and waits for the workers to exit
func (p *Pool[T]) Shutdown() {
	p.cancel()
	p.running.Wait()
}
