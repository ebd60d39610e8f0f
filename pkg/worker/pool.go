// Package worker provides the shared pool that runs every asynchronous
// operation in the middleware: attribute fetches, updates, async broker
// publishes, and readiness waits all execute here instead of spawning
// unbounded goroutines.
package worker

import (
	"context"
	"errors"
	"sync"

	"go.uber.org/zap"

	"github.com/ThomasWega/TG-Middleware/pkg/logger"
)

// ErrShutdown is returned by Submit after the pool has been shut down
var ErrShutdown = errors.New("worker pool is shut down")

// Task is a unit of work executed by the pool
type Task func(ctx context.Context)

// Pool manages a fixed set of worker goroutines draining a shared queue
type Pool struct {
	logger     *logger.Logger
	numWorkers int
	tasks      chan Task
	wg         sync.WaitGroup
	cancel     context.CancelFunc

	mu         sync.Mutex
	closed     bool
	submitters sync.WaitGroup
}

// New creates a new Pool instance
func New(l *logger.Logger, numWorkers, queueDepth int) *Pool {
	if numWorkers < 1 {
		numWorkers = 1
	}
	if queueDepth < numWorkers {
		queueDepth = numWorkers * 2
	}
	return &Pool{
		logger:     l,
		numWorkers: numWorkers,
		tasks:      make(chan Task, queueDepth),
	}
}

// Start launches the worker goroutines
func (p *Pool) Start(ctx context.Context) {
	workerCtx, cancel := context.WithCancel(ctx)
	p.cancel = cancel

	for i := 0; i < p.numWorkers; i++ {
		p.wg.Add(1)
		go p.run(workerCtx, i)
	}
}

// Submit queues a task for execution. Blocks while the queue is full.
func (p *Pool) Submit(ctx context.Context, task Task) error {
	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		return ErrShutdown
	}
	p.submitters.Add(1)
	p.mu.Unlock()
	defer p.submitters.Done()

	select {
	case p.tasks <- task:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (p *Pool) run(ctx context.Context, id int) {
	defer p.wg.Done()

	p.logger.Debug("worker started", zap.Int("worker_id", id))

	for {
		select {
		case task, ok := <-p.tasks:
			if !ok {
				return
			}
			task(ctx)
		case <-ctx.Done():
			// Drain what is already queued before exiting
			for {
				select {
				case task, ok := <-p.tasks:
					if !ok {
						return
					}
					task(context.Background())
				default:
					return
				}
			}
		}
	}
}

// Shutdown stops accepting tasks, runs what is queued, and waits for the
// workers to exit
func (p *Pool) Shutdown(ctx context.Context) error {
	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		return nil
	}
	p.closed = true
	p.mu.Unlock()

	// Submitters that passed the closed check may still be blocked on the
	// queue send; the workers keep draining until they are done, and only
	// then is the channel safe to close.
	p.submitters.Wait()
	close(p.tasks)

	done := make(chan struct{})
	go func() {
		p.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		if p.cancel != nil {
			p.cancel()
		}
		return nil
	case <-ctx.Done():
		if p.cancel != nil {
			p.cancel()
		}
		return ctx.Err()
	}
}
