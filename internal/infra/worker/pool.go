package worker

import (
	"context"
	"errors"
	"runtime"
	"sync"

	"dubbing-orchestrator/internal/domain"
	"dubbing-orchestrator/internal/domain/ports/adapter"
	"dubbing-orchestrator/internal/infra/metrics"

	"github.com/rs/zerolog"
)

// A small worker pool that runs submitted tasks in the background.
// Submit never blocks the caller; tasks that do not fit the buffer are
// parked in an overflow goroutine until a slot frees up.

type Task = func(ctx context.Context) error

var _ adapter.TaskQueue = (*Pool)(nil)

type Pool struct {
	wg       sync.WaitGroup
	overflow sync.WaitGroup
	jobs     chan Task
	quit     chan struct{}
	quitOnce sync.Once
	n        int
	log      *zerolog.Logger

	mu     sync.RWMutex
	closed bool
}

func NewPool(workers, queueSize int, logger *zerolog.Logger) *Pool {
	if workers <= 0 {
		workers = runtime.NumCPU()
	}
	if queueSize <= 0 {
		queueSize = workers * 4
	}
	if logger == nil {
		nop := zerolog.Nop()
		logger = &nop
	}
	l := logger.With().Str("component", "WorkerPool").Logger()
	return &Pool{
		jobs: make(chan Task, queueSize),
		quit: make(chan struct{}),
		n:    workers,
		log:  &l,
	}
}

// Start launches the workers. Tasks receive ctx, so it should outlive any
// single request; cancelling it stops the pool like Stop does.
func (p *Pool) Start(ctx context.Context) {
	for i := 0; i < p.n; i++ {
		p.wg.Add(1)
		go func(id int) {
			defer p.wg.Done()
			for {
				select {
				case <-ctx.Done():
					return
				case <-p.quit:
					return
				case task := <-p.jobs:
					p.run(ctx, id, task)
				}
			}
		}(i)
	}
	go func() {
		select {
		case <-ctx.Done():
			p.markClosed()
			p.closeQuit()
		case <-p.quit:
		}
	}()
}

func (p *Pool) run(ctx context.Context, id int, task Task) {
	if task == nil {
		return
	}
	defer func() {
		if rec := recover(); rec != nil {
			p.log.Error().Int("worker", id).Interface("panic", rec).Msg("task panicked")
		}
	}()
	if err := task(ctx); err != nil {
		p.log.Error().Err(err).Int("worker", id).Msg("task error")
	}
}

// Stop refuses new tasks, waits for running ones and drops whatever is
// still queued.
func (p *Pool) Stop() {
	p.markClosed()
	p.closeQuit()
	p.overflow.Wait()
	p.wg.Wait()
	if dropped := len(p.jobs); dropped > 0 {
		p.log.Warn().Int("dropped", dropped).Msg("worker pool stopped with queued tasks")
	}
}

func (p *Pool) Submit(task Task) error {
	if task == nil {
		return errors.New("nil task")
	}
	p.mu.RLock()
	defer p.mu.RUnlock()
	if p.closed {
		return domain.ErrQueueClosed
	}

	select {
	case p.jobs <- task:
		return nil
	default:
	}

	metrics.IncQueueOverflow()
	p.log.Debug().Msg("worker queue full; parking task in overflow")
	p.overflow.Add(1)
	go func() {
		defer p.overflow.Done()
		select {
		case p.jobs <- task:
		case <-p.quit:
		}
	}()
	return nil
}

func (p *Pool) markClosed() {
	p.mu.Lock()
	p.closed = true
	p.mu.Unlock()
}

func (p *Pool) closeQuit() {
	p.quitOnce.Do(func() { close(p.quit) })
}
