package service

import (
	"context"
	"sync"
	"time"

	"github.com/digital-factory/projectstatus-backend/config"
	"github.com/digital-factory/projectstatus-backend/internal/logging"
	"github.com/digital-factory/projectstatus-backend/internal/project_status/aggregate"
	"github.com/digital-factory/projectstatus-backend/internal/project_status/domain"
	"github.com/digital-factory/projectstatus-backend/internal/project_status/liststore"
	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"
)

// Snapshot is everything the dashboard renders from, fetched in one load.
type Snapshot struct {
	User        domain.User                `json:"user"`
	Records     []domain.StatusRecord      `json:"records"`
	Managed     []domain.ProjectLookup     `json:"managed_projects"`
	Projects    []domain.ProjectLookup     `json:"projects"`
	Allocations []domain.ManagerAllocation `json:"allocations"`
	LastRefresh time.Time                  `json:"last_refresh"`
}

// DashboardService loads list-store data and derives the portfolio views.
type DashboardService struct {
	store liststore.Store
	cfg   config.DashboardConfig
	now   func() time.Time

	mu   sync.Mutex
	last *Snapshot // shared part of the newest full load
}

func NewDashboardService(store liststore.Store, cfg config.DashboardConfig) *DashboardService {
	return &DashboardService{store: store, cfg: cfg, now: time.Now}
}

// Load fetches statuses, the caller with their managed projects, all
// projects and assignments concurrently. The first failure cancels the
// other calls and is returned as is.
func (s *DashboardService) Load(ctx context.Context) (*Snapshot, error) {
	snap := &Snapshot{}
	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		records, err := s.store.ListStatuses(gctx)
		snap.Records = records
		return err
	})
	g.Go(func() error {
		user, err := s.store.CurrentUser(gctx)
		if err != nil {
			return err
		}
		managed, err := s.store.ListManagedProjects(gctx, user)
		snap.User, snap.Managed = user, managed
		return err
	})
	g.Go(func() error {
		projects, err := s.store.ListProjects(gctx)
		snap.Projects = projects
		return err
	})
	g.Go(func() error {
		assignments, err := s.store.ListAssignments(gctx)
		snap.Allocations = aggregate.Allocations(assignments)
		return err
	})

	if err := g.Wait(); err != nil {
		logging.Op(ctx, "dashboard.load").WithError(err).Warn("load failed")
		return nil, err
	}
	snap.LastRefresh = s.now().UTC()
	s.remember(snap)

	logging.Op(ctx, "dashboard.load").WithFields(logrus.Fields{
		"records":  len(snap.Records),
		"projects": len(snap.Projects),
		"managed":  len(snap.Managed),
	}).Debug("loaded")
	return snap, nil
}

// RefreshStatuses refetches only the status records of snap.
func (s *DashboardService) RefreshStatuses(ctx context.Context, snap *Snapshot) error {
	records, err := s.store.ListStatuses(ctx)
	if err != nil {
		return err
	}
	snap.Records = records
	snap.LastRefresh = s.now().UTC()
	return nil
}

// remember keeps the caller-independent part of snap for RefreshAfterSave.
func (s *DashboardService) remember(snap *Snapshot) {
	shared := *snap
	shared.User, shared.Managed = domain.User{}, nil
	s.mu.Lock()
	s.last = &shared
	s.mu.Unlock()
}

// RefreshAfterSave rebuilds the dashboard after a status was created. Only
// the statuses are refetched; projects and allocations come from the newest
// full load. Without one it falls back to a full load.
func (s *DashboardService) RefreshAfterSave(ctx context.Context) (aggregate.Dashboard, error) {
	s.mu.Lock()
	last := s.last
	s.mu.Unlock()
	if last == nil {
		return s.Dashboard(ctx)
	}

	snap := *last
	if err := s.RefreshStatuses(ctx, &snap); err != nil {
		return aggregate.Dashboard{}, err
	}
	s.remember(&snap)
	return s.View(&snap), nil
}

// View derives the KPI dashboard from a snapshot.
func (s *DashboardService) View(snap *Snapshot) aggregate.Dashboard {
	return aggregate.BuildDashboard(snap.Records, snap.Projects, snap.Allocations, aggregate.DashboardOptions{
		FeedSize:      s.cfg.FeedSize,
		AllocationTop: s.cfg.AllocationTop,
		LastRefresh:   snap.LastRefresh,
	})
}

// Dashboard loads and derives in one call.
func (s *DashboardService) Dashboard(ctx context.Context) (aggregate.Dashboard, error) {
	snap, err := s.Load(ctx)
	if err != nil {
		return aggregate.Dashboard{}, err
	}
	return s.View(snap), nil
}

// ProjectCards pairs every project with its latest update.
func (s *DashboardService) ProjectCards(ctx context.Context) ([]aggregate.ProjectCard, error) {
	pr, err := s.projectsAndRecords(ctx)
	if err != nil {
		return nil, err
	}
	return aggregate.BuildProjectCards(pr.projects, pr.records), nil
}

// ProjectUpdates is one project and all its updates, newest first.
type ProjectUpdates struct {
	Project domain.ProjectLookup  `json:"project"`
	Updates []domain.StatusRecord `json:"updates"`
}

func (s *DashboardService) ProjectUpdates(ctx context.Context, projectID int) (*ProjectUpdates, error) {
	pr, err := s.projectsAndRecords(ctx)
	if err != nil {
		return nil, err
	}
	for _, p := range pr.projects {
		if p.ID == projectID {
			return &ProjectUpdates{
				Project: p,
				Updates: aggregate.UpdatesForProject(pr.records, projectID),
			}, nil
		}
	}
	return nil, domain.ErrProjectNotFound
}

type projectsAndRecords struct {
	projects []domain.ProjectLookup
	records  []domain.StatusRecord
}

func (s *DashboardService) projectsAndRecords(ctx context.Context) (*projectsAndRecords, error) {
	out := &projectsAndRecords{}
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() (err error) {
		out.projects, err = s.store.ListProjects(gctx)
		return err
	})
	g.Go(func() (err error) {
		out.records, err = s.store.ListStatuses(gctx)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return out, nil
}

// Allocations is the ranked per-manager project count.
func (s *DashboardService) Allocations(ctx context.Context) ([]domain.ManagerAllocation, error) {
	assignments, err := s.store.ListAssignments(ctx)
	if err != nil {
		return nil, err
	}
	return aggregate.Allocations(assignments), nil
}

// Me returns the caller and the projects they manage.
func (s *DashboardService) Me(ctx context.Context) (domain.User, []domain.ProjectLookup, error) {
	user, err := s.store.CurrentUser(ctx)
	if err != nil {
		return domain.User{}, nil, err
	}
	managed, err := s.store.ListManagedProjects(ctx, user)
	if err != nil {
		return domain.User{}, nil, err
	}
	return user, managed, nil
}

// StaleProjects lists projects without an update in maxAge.
func (s *DashboardService) StaleProjects(ctx context.Context, maxAge time.Duration) ([]aggregate.StaleProject, error) {
	pr, err := s.projectsAndRecords(ctx)
	if err != nil {
		return nil, err
	}
	return aggregate.StaleProjects(pr.projects, pr.records, s.now(), maxAge), nil
}
