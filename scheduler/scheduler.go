package scheduler

import (
	"context"
	"sync"
	"time"

	"filevault/logger"
)

// Job is one unit of periodic work.
type Job func(ctx context.Context) error

// Scheduler runs a job immediately and then on every tick until stopped.
type Scheduler struct {
	name     string
	interval time.Duration
	job      Job

	cancel context.CancelFunc
	done   chan struct{}
	once   sync.Once
}

// New creates a scheduler; nothing runs until Start.
func New(name string, interval time.Duration, job Job) *Scheduler {
	return &Scheduler{name: name, interval: interval, job: job}
}

// Start launches the loop in a goroutine. A non-positive interval runs the
// job once and returns.
func (s *Scheduler) Start(ctx context.Context) {
	ctx, s.cancel = context.WithCancel(ctx)
	s.done = make(chan struct{})

	logger.WithFields(map[string]interface{}{
		"job":      s.name,
		"interval": s.interval.String(),
	}).Info("Scheduler started")

	go func() {
		defer close(s.done)

		s.run(ctx)
		if s.interval <= 0 {
			return
		}

		ticker := time.NewTicker(s.interval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				logger.Debug("Scheduler tick: running %s", s.name)
				s.run(ctx)
			}
		}
	}()
}

// Stop cancels the loop and waits for an in-flight run to finish.
func (s *Scheduler) Stop() {
	s.once.Do(func() {
		if s.cancel == nil {
			return
		}
		s.cancel()
		<-s.done
		logger.Info("Scheduler stopped: %s", s.name)
	})
}

func (s *Scheduler) run(ctx context.Context) {
	if err := s.job(ctx); err != nil {
		logger.WithFields(map[string]interface{}{
			"job":   s.name,
			"error": err.Error(),
		}).Error("Scheduled job failed")
	}
}
