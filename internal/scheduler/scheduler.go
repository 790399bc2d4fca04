package scheduler

import (
	"context"
	"time"

	"github.com/go-co-op/gocron"
	"go.uber.org/zap"
)

// RunFunc executes one full collection run (locate, fetch, write).
type RunFunc func(ctx context.Context) error

// Scheduler re-runs the collection on a fixed interval, each run producing
// its own output artifact.
type Scheduler struct {
	scheduler  *gocron.Scheduler
	run        RunFunc
	interval   time.Duration
	runTimeout time.Duration
	log        *zap.SugaredLogger
}

// New creates a Scheduler. runTimeout bounds a single collection run.
func New(interval, runTimeout time.Duration, run RunFunc, log *zap.SugaredLogger) *Scheduler {
	s := gocron.NewScheduler(time.UTC)
	return &Scheduler{
		scheduler:  s,
		run:        run,
		interval:   interval,
		runTimeout: runTimeout,
		log:        log,
	}
}

// Start schedules the periodic run and starts the underlying scheduler.
func (s *Scheduler) Start() error {
	_, err := s.scheduler.Every(s.interval).Do(func() {
		s.log.Infow("scheduler: starting collection run")

		ctx, cancel := context.WithTimeout(context.Background(), s.runTimeout)
		defer cancel()

		if err := s.run(ctx); err != nil {
			s.log.Errorw("scheduler: collection run failed", "error", err)
			return
		}
		s.log.Infow("scheduler: collection run completed")
	})
	if err != nil {
		return err
	}

	s.scheduler.StartAsync()
	return nil
}

// Stop stops the scheduler and cancels any future runs.
func (s *Scheduler) Stop() {
	if s.scheduler != nil {
		s.scheduler.Stop()
	}
}
