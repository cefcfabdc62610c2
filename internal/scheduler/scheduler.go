// Package scheduler runs the digest pipeline on a cron schedule.
package scheduler

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/robfig/cron/v3"
)

// Job is one scheduled unit of work.
type Job func(ctx context.Context)

// Scheduler wraps a cron runner around a single job.
type Scheduler struct {
	cron *cron.Cron
	log  *slog.Logger
}

// New creates a Scheduler that runs job on the given cron spec (standard
// five-field format).
func New(spec string, job Job, log *slog.Logger) (*Scheduler, error) {
	c := cron.New()
	s := &Scheduler{cron: c, log: log}

	_, err := c.AddFunc(spec, func() {
		log.Info("scheduled digest run starting")
		job(context.Background())
	})
	if err != nil {
		return nil, fmt.Errorf("add cron job: %w", err)
	}
	return s, nil
}

// Run starts the scheduler and blocks until ctx is canceled.
func (s *Scheduler) Run(ctx context.Context) {
	s.cron.Start()
	s.log.Info("scheduler started")

	<-ctx.Done()

	stopped := s.cron.Stop()
	<-stopped.Done()
	s.log.Info("scheduler stopped")
}
