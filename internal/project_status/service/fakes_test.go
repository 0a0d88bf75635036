package service

import (
	"context"
	"sync"

	"github.com/digital-factory/projectstatus-backend/internal/project_status/domain"
)

type fakeStore struct {
	mu sync.Mutex

	records     []domain.StatusRecord
	projects    []domain.ProjectLookup
	managed     []domain.ProjectLookup
	assignments []domain.ProjectAssignment
	user        domain.User

	statusErr   error
	userErr     error
	createErr   error
	nextID      int
	created     []domain.StatusDraft
	statusCall  int
	projectCall int
}

func (f *fakeStore) ListStatuses(ctx context.Context) ([]domain.StatusRecord, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.statusCall++
	if f.statusErr != nil {
		return nil, f.statusErr
	}
	return append([]domain.StatusRecord(nil), f.records...), nil
}

func (f *fakeStore) LatestStatus(ctx context.Context, projectID int) (*domain.StatusRecord, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, r := range f.records {
		if r.ProjectID == projectID {
			r := r
			return &r, nil
		}
	}
	return nil, nil
}

func (f *fakeStore) ListProjects(ctx context.Context) ([]domain.ProjectLookup, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.projectCall++
	return f.projects, nil
}

func (f *fakeStore) ListManagedProjects(ctx context.Context, user domain.User) ([]domain.ProjectLookup, error) {
	return f.managed, nil
}

func (f *fakeStore) ListAssignments(ctx context.Context) ([]domain.ProjectAssignment, error) {
	return f.assignments, nil
}

func (f *fakeStore) CurrentUser(ctx context.Context) (domain.User, error) {
	if f.userErr != nil {
		return domain.User{}, f.userErr
	}
	return f.user, nil
}

func (f *fakeStore) ResolveFieldName(ctx context.Context, list, title string) (string, error) {
	return title, nil
}

func (f *fakeStore) CreateStatus(ctx context.Context, draft domain.StatusDraft) (int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.createErr != nil {
		return 0, f.createErr
	}
	f.nextID++
	f.created = append(f.created, draft)
	return f.nextID, nil
}

type recordedEvent struct {
	Type    string
	Payload any
}

type fakePublisher struct {
	events []recordedEvent
}

func (p *fakePublisher) Publish(ctx context.Context, eventType string, payload any) error {
	p.events = append(p.events, recordedEvent{Type: eventType, Payload: payload})
	return nil
}
