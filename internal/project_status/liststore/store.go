// Package liststore defines the data access contract the service needs from
// a list store: two record collections plus caller identity.
package liststore

import (
	"context"
	"fmt"

	"github.com/digital-factory/projectstatus-backend/internal/project_status/domain"
)

// Store is implemented by the SharePoint REST client and the Postgres store.
type Store interface {
	// ListStatuses returns every status record, newest first.
	ListStatuses(ctx context.Context) ([]domain.StatusRecord, error)
	// LatestStatus returns the newest record for one project, or nil.
	LatestStatus(ctx context.Context, projectID int) (*domain.StatusRecord, error)
	// ListProjects returns all projects ordered by title.
	ListProjects(ctx context.Context) ([]domain.ProjectLookup, error)
	// ListManagedProjects returns the projects whose manager is user.
	ListManagedProjects(ctx context.Context, user domain.User) ([]domain.ProjectLookup, error)
	ListAssignments(ctx context.Context) ([]domain.ProjectAssignment, error)
	CurrentUser(ctx context.Context) (domain.User, error)
	// ResolveFieldName maps a field display title to its storage name.
	ResolveFieldName(ctx context.Context, list, title string) (string, error)
	// CreateStatus stores a new record and returns its id.
	CreateStatus(ctx context.Context, draft domain.StatusDraft) (int, error)
}

// RemoteError is a failed call against the list store. Its message is what
// the dashboard shows in the error banner.
type RemoteError struct {
	Op         string
	Site       string
	List       string
	StatusCode int
	Status     string
	Body       string
	Err        error
}

func (e *RemoteError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("Error %s (site: %s, list: %s): %v", e.Op, e.Site, e.List, e.Err)
	}
	return fmt.Sprintf("Error %s (site: %s, list: %s): %s - %s", e.Op, e.Site, e.List, e.Status, e.Body)
}

func (e *RemoteError) Unwrap() error {
	return e.Err
}
