package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/sirupsen/logrus"

	"github.com/nexconsult/pncp-vagas/internal/models"
)

// Rebuilder refreshes the snapshot
type Rebuilder interface {
	Rebuild(ctx context.Context) (*models.Snapshot, error)
}

// Scheduler rebuilds the snapshot on a cron schedule
type Scheduler struct {
	cron      *cron.Cron
	timeout   time.Duration
	rebuilder Rebuilder
	logger    *logrus.Entry
}

// NewScheduler registers the rebuild job. An empty spec disables scheduling.
func NewScheduler(spec string, timeout time.Duration, rebuilder Rebuilder, logger *logrus.Logger) (*Scheduler, error) {
	s := &Scheduler{
		cron:      cron.New(),
		timeout:   timeout,
		rebuilder: rebuilder,
		logger:    logger.WithField("component", "scheduler"),
	}
	if spec == "" {
		return s, nil
	}

	if _, err := s.cron.AddFunc(spec, s.rebuild); err != nil {
		return nil, fmt.Errorf("invalid snapshot schedule %q: %w", spec, err)
	}
	return s, nil
}

// rebuild is the scheduled job
func (s *Scheduler) rebuild() {
	ctx, cancel := context.WithTimeout(context.Background(), s.timeout)
	defer cancel()

	snap, err := s.rebuilder.Rebuild(ctx)
	switch {
	case errors.Is(err, ErrRebuildInProgress):
		s.logger.Info("Skipping scheduled rebuild, one is already running")
	case err != nil:
		s.logger.WithError(err).Error("Scheduled snapshot rebuild failed")
	default:
		s.logger.WithField("items", len(snap.Items)).Info("Scheduled snapshot rebuild finished")
	}
}

// Start runs the scheduler in the background
func (s *Scheduler) Start() {
	s.cron.Start()
}

// Stop stops scheduling and waits for a running job to finish or ctx to end
func (s *Scheduler) Stop(ctx context.Context) {
	done := s.cron.Stop()
	select {
	case <-done.Done():
	case <-ctx.Done():
	}
}

// Entries returns the number of scheduled jobs
func (s *Scheduler) Entries() int {
	return len(s.cron.Entries())
}
