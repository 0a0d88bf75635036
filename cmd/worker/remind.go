package main

import (
	"context"

	"github.com/bsm/redislock"
	"github.com/digital-factory/projectstatus-backend/config"
	"github.com/digital-factory/projectstatus-backend/internal/bootstrap"
	"github.com/digital-factory/projectstatus-backend/internal/logging"
	"github.com/digital-factory/projectstatus-backend/internal/project_status/reminder"
	"github.com/digital-factory/projectstatus-backend/internal/project_status/repository"
	"github.com/digital-factory/projectstatus-backend/internal/project_status/service"
)

// runRemind runs one stale-project check outside the cron loop.
func runRemind(ctx context.Context, cfg *config.Config) error {
	backend, err := bootstrap.OpenBackend(ctx, cfg)
	if err != nil {
		return err
	}
	defer backend.Close()

	rdb, err := bootstrap.OpenRedis(ctx, cfg.Redis)
	if err != nil {
		return err
	}
	defer rdb.Close()

	dashboard := service.NewDashboardService(backend.Store, cfg.Dashboard)
	sched := reminder.NewScheduler(cfg.Reminder, dashboard, repository.NewEventPublisher(rdb), redislock.New(rdb))

	stale, err := sched.RunOnce(ctx)
	if err != nil {
		return err
	}
	logging.Get().WithField("count", len(stale)).Info("stale project check finished")
	return nil
}
