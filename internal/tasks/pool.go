// Package tasks runs background work (photo processing, notification
// dispatch) after the tap request has committed its record.
package tasks

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/evn/absen_backend/internal/metrics"
)

var (
	ErrQueueFull = errors.New("tasks: queue full")
	ErrStopped   = errors.New("tasks: scheduler stopped")
)

type Task struct {
	Name string
	Run  func(ctx context.Context) error
}

// Scheduler is what the attendance core depends on. A submitted task runs at
// most once here; retries are left to whoever observes the failure.
type Scheduler interface {
	Submit(task Task) error
}

// FailureHook is called for every task that returns an error or panics.
type FailureHook func(task Task, err error)

type Pool struct {
	queue   chan Task
	workers int
	timeout time.Duration
	logger  zerolog.Logger
	metrics *metrics.Metrics
	onFail  FailureHook

	mu      sync.RWMutex
	stopped bool
	wg      sync.WaitGroup
}

type Option func(*Pool)

func WithTaskTimeout(d time.Duration) Option { return func(p *Pool) { p.timeout = d } }
func WithFailureHook(h FailureHook) Option   { return func(p *Pool) { p.onFail = h } }
func WithMetrics(m *metrics.Metrics) Option  { return func(p *Pool) { p.metrics = m } }

func NewPool(workers, queueSize int, logger zerolog.Logger, opts ...Option) *Pool {
	if workers < 1 {
		workers = 1
	}
	if queueSize < 1 {
		queueSize = 1
	}
	p := &Pool{
		queue:   make(chan Task, queueSize),
		workers: workers,
		timeout: 2 * time.Minute,
		logger:  logger.With().Str("component", "tasks").Logger(),
	}
	for _, o := range opts {
		o(p)
	}
	return p
}

// Start launches the workers. They exit once Stop has drained the queue.
func (p *Pool) Start(ctx context.Context) {
	for i := 0; i < p.workers; i++ {
		p.wg.Add(1)
		go p.worker(ctx)
	}
	p.logger.Info().Int("workers", p.workers).Msg("task pool started")
}

func (p *Pool) Submit(task Task) error {
	p.mu.RLock()
	defer p.mu.RUnlock()
	if p.stopped {
		return ErrStopped
	}
	select {
	case p.queue <- task:
		p.metrics.QueueDepth(len(p.queue))
		return nil
	default:
		p.metrics.Task(task.Name, "rejected")
		return ErrQueueFull
	}
}

// Stop refuses new tasks and waits for queued ones to finish.
func (p *Pool) Stop() {
	p.mu.Lock()
	if p.stopped {
		p.mu.Unlock()
		return
	}
	p.stopped = true
	close(p.queue)
	p.mu.Unlock()
	p.wg.Wait()
	p.logger.Info().Msg("task pool stopped")
}

func (p *Pool) worker(ctx context.Context) {
	defer p.wg.Done()
	for task := range p.queue {
		p.metrics.QueueDepth(len(p.queue))
		p.run(ctx, task)
	}
}

func (p *Pool) run(parent context.Context, task Task) {
	ctx, cancel := context.WithTimeout(context.WithoutCancel(parent), p.timeout)
	defer cancel()

	err := func() (err error) {
		defer func() {
			if r := recover(); r != nil {
				err = fmt.Errorf("panic: %v", r)
			}
		}()
		return task.Run(ctx)
	}()

	if err != nil {
		p.metrics.Task(task.Name, "failed")
		p.logger.Error().Err(err).Str("task", task.Name).Msg("task failed")
		if p.onFail != nil {
			p.onFail(task, err)
		}
		return
	}
	p.metrics.Task(task.Name, "ok")
}
