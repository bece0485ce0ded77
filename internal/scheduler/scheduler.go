package scheduler

import (
	"context"
	"errors"
	"log"
	"time"

	"github.com/go-co-op/gocron"
)

// Job is one polling tick: a fetch followed by a render.
type Job func(ctx context.Context) error

// Scheduler re-runs a job on a fixed interval for watch mode. Runs never
// overlap.
type Scheduler struct {
	scheduler  *gocron.Scheduler
	interval   time.Duration
	jobTimeout time.Duration
	job        Job
}

const defaultJobTimeout = 30 * time.Second

// New creates a new Scheduler. jobTimeout bounds each run; zero means 30s.
func New(interval, jobTimeout time.Duration, job Job) *Scheduler {
	if jobTimeout <= 0 {
		jobTimeout = defaultJobTimeout
	}
	s := gocron.NewScheduler(time.UTC)
	s.SingletonModeAll()
	s.WaitForScheduleAll()
	return &Scheduler{
		scheduler:  s,
		interval:   interval,
		jobTimeout: jobTimeout,
		job:        job,
	}
}

// Start schedules the job and starts the underlying scheduler. The first run
// happens one interval from now; callers do their own initial run.
func (s *Scheduler) Start(ctx context.Context) error {
	if s.job == nil {
		return errors.New("scheduler: no job configured")
	}
	if s.interval <= 0 {
		return errors.New("scheduler: interval must be positive")
	}

	_, err := s.scheduler.Every(s.interval).Do(func() {
		log.Println("INFO: scheduler: running weather fetch job")

		runCtx, cancel := context.WithTimeout(ctx, s.jobTimeout)
		defer cancel()

		if err := s.job(runCtx); err != nil {
			log.Printf("ERROR: scheduler: weather fetch job failed: %v", err)
			return
		}
		log.Println("INFO: scheduler: completed weather fetch job")
	})
	if err != nil {
		return err
	}

	s.scheduler.StartAsync()
	return nil
}

// Run starts the scheduler and blocks until ctx is cancelled.
func (s *Scheduler) Run(ctx context.Context) error {
	if err := s.Start(ctx); err != nil {
		return err
	}
	defer s.Stop()

	<-ctx.Done()
	return nil
}

// Stop stops the scheduler and cancels any future jobs.
func (s *Scheduler) Stop() {
	if s.scheduler != nil {
		s.scheduler.Stop()
	}
}
