// Package schedule turns the one-shot retirement run into a daemon driven by
// a cron expression.
package schedule

import (
	"context"
	"fmt"
	"sync"

	"github.com/robfig/cron/v3"

	"github.com/stackward/esretire/internal/logger"
)

// Scheduler runs a retirement job on a standard 5-field cron schedule. Ticks
// never overlap: a tick arriving while a run is still active is skipped,
// since the cluster's snapshot slot is single-occupancy anyway.
type Scheduler struct {
	spec string
	job  func()
	log  *logger.Logger
	cron *cron.Cron

	mu     sync.Mutex
	active bool
}

// New validates the cron expression and creates a scheduler
func New(spec string, job func(), log *logger.Logger) (*Scheduler, error) {
	if _, err := cron.ParseStandard(spec); err != nil {
		return nil, fmt.Errorf("invalid cron schedule %q: %w", spec, err)
	}

	return &Scheduler{
		spec: spec,
		job:  job,
		log:  log,
		cron: cron.New(),
	}, nil
}

// Run starts the scheduler and blocks until ctx is cancelled, then waits for
// any in-flight run to finish
func (s *Scheduler) Run(ctx context.Context) error {
	if _, err := s.cron.AddFunc(s.spec, s.tick); err != nil {
		return fmt.Errorf("failed to schedule retirement runs: %w", err)
	}

	s.cron.Start()
	s.log.Infof("Scheduler started (schedule %q)", s.spec)

	<-ctx.Done()

	s.log.Infof("Shutting down, waiting for in-flight run to finish...")
	stopCtx := s.cron.Stop()
	<-stopCtx.Done()

	return nil
}

func (s *Scheduler) tick() {
	s.mu.Lock()
	if s.active {
		s.mu.Unlock()
		s.log.Warningf("Previous retirement run still active, skipping this tick")
		return
	}
	s.active = true
	s.mu.Unlock()

	defer func() {
		s.mu.Lock()
		s.active = false
		s.mu.Unlock()
	}()

	s.job()
}
