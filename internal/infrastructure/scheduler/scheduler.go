// Package scheduler runs task jobs in the background with bounded concurrency.
package scheduler

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"better-todo/internal/application/port/output"
)

var _ output.SchedulerPort = (*Scheduler)(nil)

// ErrStopped is returned by RunAfter once the scheduler is shutting down.
var ErrStopped = errors.New("scheduler stopped")

type Config struct {
	// Workers is the number of jobs allowed to run at once.
	Workers int
	// JobTimeout bounds a single job.
	JobTimeout time.Duration
	Logger     output.LoggerPort
}

func (c *Config) defaults() error {
	if c.Workers <= 0 {
		c.Workers = 4
	}
	if c.JobTimeout <= 0 {
		c.JobTimeout = 10 * time.Minute
	}
	if c.Logger == nil {
		return fmt.Errorf("logger is required")
	}
	c.Logger = c.Logger.WithField("svc", "scheduler.Scheduler")
	return nil
}

// Scheduler starts every job on its own goroutine and gates execution with a
// semaphore. Jobs already accepted still run to completion after Stop; they are
// not handed a cancelled context so a task is never left half-written.
type Scheduler struct {
	sem        chan struct{}
	jobTimeout time.Duration
	logger     output.LoggerPort

	mu      sync.Mutex
	stopped bool
	wg      sync.WaitGroup
}

func New(cfg Config) (*Scheduler, error) {
	if err := cfg.defaults(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return &Scheduler{
		sem:        make(chan struct{}, cfg.Workers),
		jobTimeout: cfg.JobTimeout,
		logger:     cfg.Logger,
	}, nil
}

// RunAfter starts job once delay has elapsed and a worker slot is free.
func (s *Scheduler) RunAfter(delay time.Duration, name string, job output.Job) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.stopped {
		return ErrStopped
	}

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		if delay > 0 {
			time.Sleep(delay)
		}

		s.sem <- struct{}{}
		defer func() { <-s.sem }()

		s.run(name, job)
	}()
	return nil
}

func (s *Scheduler) run(name string, job output.Job) {
	logger := s.logger.WithField("job", name)
	ctx, cancel := context.WithTimeout(context.Background(), s.jobTimeout)
	defer cancel()

	defer func() {
		if r := recover(); r != nil {
			logger.Error("Job panicked", "panic", r)
		}
	}()

	start := time.Now()
	logger.Debug("Job started")
	job(ctx)
	logger.Debug("Job finished", "duration", time.Since(start))
}

// Run blocks until ctx is done and then stops the scheduler.
func (s *Scheduler) Run(ctx context.Context) error {
	<-ctx.Done()
	s.Stop()
	return nil
}

// Stop rejects new jobs and waits for accepted ones.
func (s *Scheduler) Stop() {
	s.mu.Lock()
	s.stopped = true
	s.mu.Unlock()
	s.wg.Wait()
}
