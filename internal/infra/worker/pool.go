package worker

import (
	"context"
	"errors"
	"runtime"
	"sync"

	"github.com/rs/zerolog"

	"telegram-email-bot/internal/infra/metrics"
)

// ErrQueueFull is returned by Submit when every slot is taken. The bot
// surfaces it to the operator instead of blocking the polling loop.
var ErrQueueFull = errors.New("worker queue full")

// Task is one unit of background work: a document parse or a campaign run
// handed off by the Telegram adapter.
type Task func(ctx context.Context) error

type Pool struct {
	wg   sync.WaitGroup
	jobs chan Task
	quit chan struct{}
	n    int
	log  *zerolog.Logger
}

func NewPool(workers int, logger *zerolog.Logger) *Pool {
	if workers <= 0 {
		workers = runtime.NumCPU()
	}
	return &Pool{
		jobs: make(chan Task, workers*4),
		quit: make(chan struct{}),
		n:    workers,
		log:  logger,
	}
}

// Start launches the workers. They drain the queue until ctx is cancelled
// or Stop is called.
func (p *Pool) Start(ctx context.Context) {
	for i := 0; i < p.n; i++ {
		p.wg.Add(1)
		go p.run(ctx, i)
	}
}

func (p *Pool) run(ctx context.Context, id int) {
	defer p.wg.Done()
	for {
		select {
		case <-ctx.Done():
			return
		case <-p.quit:
			return
		case task := <-p.jobs:
			if task == nil {
				continue
			}
			metrics.SetWorkerQueueDepth(len(p.jobs))
			if err := task(ctx); err != nil {
				p.log.Error().Err(err).Int("worker", id).Msg("background task failed")
			}
		}
	}
}

// Stop waits for in-flight tasks to finish. Queued but unstarted tasks
// are abandoned.
func (p *Pool) Stop() {
	close(p.quit)
	p.wg.Wait()
}

// Submit enqueues a task without blocking.
func (p *Pool) Submit(task Task) error {
	if task == nil {
		return errors.New("nil task")
	}
	select {
	case p.jobs <- task:
		metrics.SetWorkerQueueDepth(len(p.jobs))
		return nil
	default:
		return ErrQueueFull
	}
}
