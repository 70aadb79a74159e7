// Package queue runs background synthesis jobs on a fixed worker pool fed by
// an in-memory queue. Cancellation hooks are registered with the task
// registry so API-level cancel reaches the running job's context.
package queue

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/nexora-ai/nexora/pkg/tasks"
)

// Job is one queued unit of work.
type Job struct {
	TaskID string
	Config tasks.Config
}

// Runner executes a job. The context is cancelled on task cancel and on
// pool shutdown.
type Runner func(ctx context.Context, taskID string, cfg tasks.Config)

// Pool is a fixed-size worker pool over a bounded in-memory queue.
type Pool struct {
	jobs     chan Job
	registry *tasks.Registry
	runner   Runner

	workerCount int
	taskTimeout time.Duration
	stopTimeout time.Duration
	logger      *slog.Logger

	stopCh   chan struct{}
	stopOnce sync.Once
	wg       sync.WaitGroup
}

// NewPool creates a pool with workerCount workers and a queue of queueSize.
func NewPool(workerCount, queueSize int, taskTimeout, stopTimeout time.Duration,
	registry *tasks.Registry, runner Runner, logger *slog.Logger) *Pool {
	if workerCount <= 0 {
		workerCount = 2
	}
	if queueSize <= 0 {
		queueSize = 64
	}
	return &Pool{
		jobs:        make(chan Job, queueSize),
		registry:    registry,
		runner:      runner,
		workerCount: workerCount,
		taskTimeout: taskTimeout,
		stopTimeout: stopTimeout,
		logger:      logger.With("component", "worker_pool"),
		stopCh:      make(chan struct{}),
	}
}

// Start launches the workers.
func (p *Pool) Start() {
	for i := 0; i < p.workerCount; i++ {
		p.wg.Add(1)
		go p.worker(i)
	}
	p.logger.Info("worker pool started", "workers", p.workerCount, "queue_size", cap(p.jobs))
}

// Enqueue queues a job. It fails fast when the queue is full or the pool is
// stopping rather than blocking an API request.
func (p *Pool) Enqueue(job Job) error {
	select {
	case <-p.stopCh:
		return fmt.Errorf("worker pool is shutting down")
	default:
	}
	select {
	case p.jobs <- job:
		return nil
	default:
		return fmt.Errorf("job queue is full")
	}
}

// Stop shuts the pool down, waiting up to the configured timeout for
// in-flight jobs before abandoning them.
func (p *Pool) Stop() {
	p.stopOnce.Do(func() {
		close(p.stopCh)
		done := make(chan struct{})
		go func() {
			p.wg.Wait()
			close(done)
		}()
		select {
		case <-done:
			p.logger.Info("worker pool stopped")
		case <-time.After(p.stopTimeout):
			p.logger.Warn("worker pool stop timed out, abandoning in-flight jobs")
		}
	})
}

func (p *Pool) worker(id int) {
	defer p.wg.Done()
	logger := p.logger.With("worker", id)
	for {
		select {
		case <-p.stopCh:
			return
		case job := <-p.jobs:
			p.run(logger, job)
		}
	}
}

func (p *Pool) run(logger *slog.Logger, job Job) {
	ctx, cancel := context.WithTimeout(context.Background(), p.taskTimeout)
	defer cancel()

	p.registry.RegisterCancel(job.TaskID, cancel)
	defer p.registry.UnregisterCancel(job.TaskID)

	// Pool shutdown also cancels the running job.
	go func() {
		select {
		case <-p.stopCh:
			cancel()
		case <-ctx.Done():
		}
	}()

	logger.Info("job started", "task_id", job.TaskID, "course_id", job.Config.CourseID)
	start := time.Now()
	p.runner(ctx, job.TaskID, job.Config)
	logger.Info("job finished", "task_id", job.TaskID, "duration", time.Since(start))
}
