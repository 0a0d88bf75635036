// Package reminder periodically reports projects whose status is overdue.
package reminder

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/bsm/redislock"
	"github.com/digital-factory/projectstatus-backend/config"
	"github.com/digital-factory/projectstatus-backend/internal/logging"
	"github.com/digital-factory/projectstatus-backend/internal/project_status/aggregate"
	"github.com/digital-factory/projectstatus-backend/internal/project_status/repository"
	"github.com/robfig/cron/v3"
	"github.com/sirupsen/logrus"
)

const (
	lockKey = "ps:lock:stale_projects"
	lockTTL = 2 * time.Minute
)

// ErrLockHeld means another replica is running the same tick.
var ErrLockHeld = errors.New("stale project check already running")

type StaleSource interface {
	StaleProjects(ctx context.Context, maxAge time.Duration) ([]aggregate.StaleProject, error)
}

type Publisher interface {
	Publish(ctx context.Context, eventType string, payload any) error
}

type Scheduler struct {
	cron    *cron.Cron
	spec    string
	maxAge  time.Duration
	source  StaleSource
	events  Publisher
	locker  *redislock.Client
	timeout time.Duration
}

func NewScheduler(cfg config.ReminderConfig, source StaleSource, events Publisher, locker *redislock.Client) *Scheduler {
	return &Scheduler{
		cron:    cron.New(cron.WithSeconds()),
		spec:    cfg.Cron,
		maxAge:  time.Duration(cfg.StaleAfterDays) * 24 * time.Hour,
		source:  source,
		events:  events,
		locker:  locker,
		timeout: time.Minute,
	}
}

// Start registers the job and starts the cron loop.
func (s *Scheduler) Start() error {
	_, err := s.cron.AddFunc(s.spec, func() {
		ctx, cancel := context.WithTimeout(context.Background(), s.timeout)
		defer cancel()

		_, err := s.RunOnce(ctx)
		switch {
		case errors.Is(err, ErrLockHeld):
			logging.Op(ctx, "reminder.tick").Debug("skipped, lock held elsewhere")
		case err != nil:
			logging.Op(ctx, "reminder.tick").WithError(err).Error("stale project check failed")
		}
	})
	if err != nil {
		return fmt.Errorf("invalid REMINDER_CRON %q: %w", s.spec, err)
	}

	logging.Get().WithField("cron", s.spec).Info("reminder scheduler started")
	s.cron.Start()
	return nil
}

// Stop halts the loop; the returned context is done when running jobs finish.
func (s *Scheduler) Stop() context.Context {
	return s.cron.Stop()
}

// RunOnce lists stale projects under the cluster lock and publishes them.
func (s *Scheduler) RunOnce(ctx context.Context) ([]aggregate.StaleProject, error) {
	if s.locker != nil {
		lock, err := s.locker.Obtain(ctx, lockKey, lockTTL, nil)
		if errors.Is(err, redislock.ErrNotObtained) {
			return nil, ErrLockHeld
		}
		if err != nil {
			return nil, fmt.Errorf("obtain lock: %w", err)
		}
		defer func() { _ = lock.Release(ctx) }()
	}

	stale, err := s.source.StaleProjects(ctx, s.maxAge)
	if err != nil {
		return nil, err
	}

	log := logging.Op(ctx, "reminder.run")
	for _, p := range stale {
		fields := logrus.Fields{"project_id": p.Project.ID, "project": p.Project.Title}
		if p.LastUpdate != nil {
			fields["last_update"] = p.LastUpdate.Format(time.RFC3339)
		}
		log.WithFields(fields).Info("project status overdue")
	}

	if len(stale) > 0 && s.events != nil {
		if err := s.events.Publish(ctx, repository.EventStaleProjects, stale); err != nil {
			return stale, err
		}
	}
	return stale, nil
}
