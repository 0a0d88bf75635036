package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/bsm/redislock"
	"github.com/digital-factory/projectstatus-backend/config"
	httpapi "github.com/digital-factory/projectstatus-backend/internal/api/http"
	"github.com/digital-factory/projectstatus-backend/internal/bootstrap"
	"github.com/digital-factory/projectstatus-backend/internal/logging"
	"github.com/digital-factory/projectstatus-backend/internal/project_status/reminder"
	"github.com/digital-factory/projectstatus-backend/internal/project_status/repository"
	"github.com/digital-factory/projectstatus-backend/internal/project_status/service"
	"github.com/sirupsen/logrus"
)

const serviceName = "projectstatus-backend"

func main() {
	cfg, err := config.Load()
	if err != nil {
		logging.Get().WithError(err).Fatal("config")
	}
	log := logging.Init(cfg.App.LogLevel, cfg.App.Environment)
	bootstrap.SetGinMode(cfg.App.Environment)

	sigCtx, stopSignals := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stopSignals()

	backend, err := bootstrap.OpenBackend(sigCtx, cfg)
	if err != nil {
		log.WithError(err).Fatal("list store")
	}
	defer backend.Close()

	rdb, err := bootstrap.OpenRedis(sigCtx, cfg.Redis)
	if err != nil {
		log.WithError(err).Fatal("redis")
	}
	defer rdb.Close()

	events := repository.NewEventPublisher(rdb)
	dashboard := service.NewDashboardService(backend.Store, cfg.Dashboard)
	submission := service.NewSubmissionService(
		backend.Store,
		repository.NewDraftRepository(rdb, cfg.Redis.DraftTTL),
		events,
		dashboard,
	)

	health := httpapi.HealthDeps{
		Backend:   backend.Name,
		Redis:     func(ctx context.Context) error { return rdb.Ping(ctx).Err() },
		ListStats: backend.ListStats,
	}
	if backend.DB != nil {
		health.DB = backend.DB
	}

	r := bootstrap.BuildRouter(bootstrap.RouterDeps{
		ServiceName:    serviceName,
		Version:        cfg.App.Version,
		Environment:    cfg.App.Environment,
		AllowedOrigins: cfg.Server.AllowedOrigins,
		Health:         health,
		Dashboard:      dashboard,
		Submission:     submission,
	})

	if cfg.Reminder.Enabled {
		sched := reminder.NewScheduler(cfg.Reminder, dashboard, events, redislock.New(rdb))
		if err := sched.Start(); err != nil {
			log.WithError(err).Fatal("reminder scheduler")
		}
		defer func() { <-sched.Stop().Done() }()
	}

	srv := &http.Server{
		Addr:              ":" + cfg.Server.Port,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}
	serverErrCh := make(chan error, 1)
	go func() {
		log.WithFields(logrus.Fields{"port": cfg.Server.Port, "backend": backend.Name}).Info("listening")
		serverErrCh <- srv.ListenAndServe()
	}()

	select {
	case <-sigCtx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			log.WithError(err).Error("shutdown")
		}
	case err := <-serverErrCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.WithError(err).Error("server")
		}
	}
}
