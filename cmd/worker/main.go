package main

import (
	"context"
	"os"
	"time"

	"github.com/digital-factory/projectstatus-backend/config"
	"github.com/digital-factory/projectstatus-backend/internal/bootstrap"
	"github.com/digital-factory/projectstatus-backend/internal/logging"
)

func main() {
	log := logging.Get()
	if len(os.Args) < 2 {
		log.Fatal("usage: worker migrate | worker remind")
	}

	cfg, err := config.Load()
	if err != nil {
		log.WithError(err).Fatal("config")
	}
	logging.Init(cfg.App.LogLevel, cfg.App.Environment)

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	switch os.Args[1] {
	case "migrate":
		err = runMigrate(ctx, cfg)
	case "remind":
		err = runRemind(ctx, cfg)
	default:
		log.Fatalf("unknown command: %s", os.Args[1])
	}
	if err != nil {
		log.WithError(err).Fatalf("%s failed", os.Args[1])
	}
}

// runMigrate applies the Postgres list-store schema.
func runMigrate(ctx context.Context, cfg *config.Config) error {
	cfg.App.Backend = config.BackendPostgres
	backend, err := bootstrap.OpenBackend(ctx, cfg)
	if err != nil {
		return err
	}
	logging.Get().Info("schema applied")
	return backend.Close()
}
