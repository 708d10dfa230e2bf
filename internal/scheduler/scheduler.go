package scheduler

import (
	"context"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"

	"clubhub/internal/logger"
)

// Job is one scheduled unit of work.
type Job func(ctx context.Context) error

// Scheduler runs jobs on cron schedules. A run that is still going when the
// next tick fires is skipped.
type Scheduler struct {
	c       *cron.Cron
	timeout time.Duration
}

// New returns a scheduler whose runs are bounded by timeout.
func New(timeout time.Duration) *Scheduler {
	return &Scheduler{
		c:       cron.New(cron.WithChain(cron.SkipIfStillRunning(cron.DefaultLogger))),
		timeout: timeout,
	}
}

// Add registers job under spec, e.g. "@every 1h" or "15 2 * * *".
func (s *Scheduler) Add(name, spec string, job Job) error {
	if _, err := s.c.AddFunc(spec, s.wrap(name, job)); err != nil {
		return fmt.Errorf("schedule %s: %w", name, err)
	}
	logger.Info.Printf("[SCHEDULER] %s scheduled at %q", name, spec)
	return nil
}

func (s *Scheduler) wrap(name string, job Job) func() {
	return func() {
		ctx, cancel := context.WithTimeout(context.Background(), s.timeout)
		defer cancel()
		start := time.Now()
		if err := job(ctx); err != nil {
			logger.Error.Printf("[SCHEDULER] %s failed: %v", name, err)
			return
		}
		logger.Debug.Printf("[SCHEDULER] %s done in %s", name, time.Since(start))
	}
}

// Start runs the scheduler in the background.
func (s *Scheduler) Start() { s.c.Start() }

// Stop stops scheduling and waits for running jobs until ctx is done.
func (s *Scheduler) Stop(ctx context.Context) {
	select {
	case <-s.c.Stop().Done():
	case <-ctx.Done():
	}
}
