package bootstrap

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/digital-factory/projectstatus-backend/config"
	"github.com/digital-factory/projectstatus-backend/internal/project_status/liststore"
	"github.com/digital-factory/projectstatus-backend/internal/project_status/repository"
	"github.com/digital-factory/projectstatus-backend/internal/sharepoint"
	"github.com/digital-factory/projectstatus-backend/internal/storage/postgres"
)

// Backend is the list store selected by LIST_BACKEND.
type Backend struct {
	Name      string
	Store     liststore.Store
	DB        *sql.DB
	ListStats func() any
}

func (b *Backend) Close() error {
	if b.DB != nil {
		return b.DB.Close()
	}
	return nil
}

// OpenBackend connects the configured list store. The Postgres backend
// also applies its schema.
func OpenBackend(ctx context.Context, cfg *config.Config) (*Backend, error) {
	switch cfg.App.Backend {
	case config.BackendPostgres:
		db, err := postgres.NewConnection(ctx, &cfg.Database)
		if err != nil {
			return nil, fmt.Errorf("db connect: %w", err)
		}
		store := repository.NewPostgresStore(db, cfg.Database.Name)
		if err := store.EnsureSchema(ctx); err != nil {
			_ = db.Close()
			return nil, err
		}
		return &Backend{Name: cfg.App.Backend, Store: store, DB: db}, nil

	case config.BackendSharePoint:
		return &Backend{
			Name:      cfg.App.Backend,
			Store:     sharepoint.New(cfg.SharePoint, cfg.Schema),
			ListStats: func() any { return sharepoint.Stats() },
		}, nil

	default:
		return nil, fmt.Errorf("unknown list backend %q", cfg.App.Backend)
	}
}
