package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/digital-factory/projectstatus-backend/internal/auth"
	"github.com/digital-factory/projectstatus-backend/internal/logging"
	"github.com/digital-factory/projectstatus-backend/internal/project_status/aggregate"
	"github.com/digital-factory/projectstatus-backend/internal/project_status/domain"
	"github.com/digital-factory/projectstatus-backend/internal/project_status/liststore"
	"github.com/digital-factory/projectstatus-backend/internal/project_status/repository"
)

const NextDashboard = "dashboard"

// DraftStore persists one submission session per user.
type DraftStore interface {
	Get(ctx context.Context, userKey string) (*domain.Submission, error)
	Save(ctx context.Context, sub *domain.Submission) error
	Delete(ctx context.Context, userKey string) error
}

// Publisher announces domain events.
type Publisher interface {
	Publish(ctx context.Context, eventType string, payload any) error
}

// SubmissionService drives the select-project-then-edit flow.
type SubmissionService struct {
	store     liststore.Store
	drafts    DraftStore
	events    Publisher
	dashboard *DashboardService
}

func NewSubmissionService(store liststore.Store, drafts DraftStore, events Publisher, dashboard *DashboardService) *SubmissionService {
	return &SubmissionService{store: store, drafts: drafts, events: events, dashboard: dashboard}
}

// SubmitResult is returned after a status was posted. RefreshError is set
// when the record was created but the follow-up reload failed.
type SubmitResult struct {
	ID           int                  `json:"id"`
	Next         string               `json:"next"`
	Dashboard    *aggregate.Dashboard `json:"dashboard,omitempty"`
	RefreshError string               `json:"refresh_error,omitempty"`
}

// SessionKey names the caller's draft session. When a bearer token was
// forwarded the list store decides who the caller is, so header claims
// cannot reach another user's draft. headerKey is used otherwise, and for
// stores that cannot resolve a bearer-only caller.
func (s *SubmissionService) SessionKey(ctx context.Context, headerKey string) (string, error) {
	if auth.BearerToken(ctx) == "" {
		if headerKey == "" {
			return "", domain.ErrUserUnknown
		}
		return headerKey, nil
	}

	user, err := s.store.CurrentUser(ctx)
	if errors.Is(err, domain.ErrUserUnknown) && headerKey != "" {
		return headerKey, nil
	}
	if err != nil {
		return "", err
	}
	switch {
	case user.LoginName != "":
		return "user:" + user.LoginName, nil
	case user.ID > 0:
		return fmt.Sprintf("user:%d", user.ID), nil
	}
	return "", domain.ErrUserUnknown
}

// Current returns the caller's session, starting a fresh one when absent.
func (s *SubmissionService) Current(ctx context.Context, userKey string) (*domain.Submission, error) {
	sub, err := s.drafts.Get(ctx, userKey)
	if errors.Is(err, domain.ErrDraftNotFound) {
		return domain.NewSubmission(userKey), nil
	}
	if err != nil {
		return nil, err
	}
	return sub, nil
}

// SelectProject opens the form for one of the caller's managed projects.
// The draft is reset and the project's latest update is loaded for copying.
func (s *SubmissionService) SelectProject(ctx context.Context, userKey string, projectID int) (*domain.Submission, error) {
	if projectID <= 0 {
		return nil, domain.ErrProjectRequired
	}

	project, err := s.managedProject(ctx, projectID)
	if err != nil {
		return nil, err
	}

	previous, err := s.store.LatestStatus(ctx, projectID)
	if err != nil {
		return nil, err
	}

	sub := domain.NewSubmission(userKey)
	sub.State = domain.StateEditing
	sub.Project = project
	sub.Draft.ProjectID = projectID
	sub.PreviousEntry = previous

	if err := s.drafts.Save(ctx, sub); err != nil {
		return nil, err
	}
	logging.Op(ctx, "submission.select_project").
		WithField("user", userKey).
		WithField("project_id", projectID).
		Info("project selected")
	return sub, nil
}

// managedProject returns projectID when the caller manages it.
func (s *SubmissionService) managedProject(ctx context.Context, projectID int) (*domain.ProjectLookup, error) {
	user, err := s.store.CurrentUser(ctx)
	if err != nil {
		return nil, err
	}
	managed, err := s.store.ListManagedProjects(ctx, user)
	if err != nil {
		return nil, err
	}
	for i := range managed {
		if managed[i].ID == projectID {
			return &managed[i], nil
		}
	}
	return nil, fmt.Errorf("project %d: %w", projectID, domain.ErrUnknownProject)
}

// ChangeProject goes back to project selection and drops the draft.
func (s *SubmissionService) ChangeProject(ctx context.Context, userKey string) (*domain.Submission, error) {
	sub := domain.NewSubmission(userKey)
	if err := s.drafts.Save(ctx, sub); err != nil {
		return nil, err
	}
	return sub, nil
}

func (s *SubmissionService) editing(ctx context.Context, userKey string) (*domain.Submission, error) {
	sub, err := s.Current(ctx, userKey)
	if err != nil {
		return nil, err
	}
	if sub.State != domain.StateEditing || sub.Project == nil {
		return nil, domain.ErrNoProjectSelected
	}
	return sub, nil
}

// SetCopyPrevious fills the draft from the previous entry, or restores the
// defaults (keeping the project) when turned off.
func (s *SubmissionService) SetCopyPrevious(ctx context.Context, userKey string, on bool) (*domain.Submission, error) {
	sub, err := s.editing(ctx, userKey)
	if err != nil {
		return nil, err
	}

	if on {
		prev := sub.PreviousEntry
		if prev == nil {
			return nil, domain.ErrNoPreviousEntry
		}
		draft := domain.DefaultDraft()
		draft.ProjectID = sub.Draft.ProjectID
		if prev.Health.Known() {
			draft.Health = prev.Health
		}
		draft.PlannedPercent = prev.PlannedPercent
		draft.ActualPercent = prev.ActualPercent
		draft.Activities = prev.Activities
		draft.Issues = prev.Issues
		draft.NextSteps = prev.NextSteps
		sub.Draft = draft
	} else {
		draft := domain.DefaultDraft()
		draft.ProjectID = sub.Draft.ProjectID
		sub.Draft = draft
	}
	sub.CopyPrevious = on

	if err := s.drafts.Save(ctx, sub); err != nil {
		return nil, err
	}
	return sub, nil
}

// UpdateDraft applies form edits. Invalid values leave the session unchanged.
func (s *SubmissionService) UpdateDraft(ctx context.Context, userKey string, patch domain.DraftPatch) (*domain.Submission, error) {
	sub, err := s.editing(ctx, userKey)
	if err != nil {
		return nil, err
	}

	draft := sub.Draft
	if patch.Health != nil {
		draft.Health = *patch.Health
	}
	if patch.PlannedPercent != nil {
		draft.PlannedPercent = *patch.PlannedPercent
	}
	if patch.ActualPercent != nil {
		draft.ActualPercent = *patch.ActualPercent
	}
	if patch.Activities != nil {
		draft.Activities = *patch.Activities
	}
	if patch.Issues != nil {
		draft.Issues = *patch.Issues
	}
	if patch.NextSteps != nil {
		draft.NextSteps = *patch.NextSteps
	}
	if err := draft.Validate(); err != nil {
		return nil, err
	}

	sub.Draft = draft
	if err := s.drafts.Save(ctx, sub); err != nil {
		return nil, err
	}
	return sub, nil
}

// Submit posts the draft, clears the session and refreshes the statuses
// behind the dashboard.
func (s *SubmissionService) Submit(ctx context.Context, userKey string) (*SubmitResult, error) {
	sub, err := s.editing(ctx, userKey)
	if err != nil {
		return nil, err
	}

	id, err := s.post(ctx, sub.Draft)
	if err != nil {
		return nil, err
	}

	if err := s.drafts.Delete(ctx, userKey); err != nil {
		logging.Op(ctx, "submission.submit").WithError(err).Warn("failed to clear draft")
	}

	result := &SubmitResult{ID: id, Next: NextDashboard}
	if s.dashboard != nil {
		view, err := s.dashboard.RefreshAfterSave(ctx)
		if err != nil {
			result.RefreshError = err.Error()
		} else {
			result.Dashboard = &view
		}
	}
	return result, nil
}

// Create validates and posts a draft without a session. Like SelectProject
// it only accepts projects the caller manages.
func (s *SubmissionService) Create(ctx context.Context, draft domain.StatusDraft) (int, error) {
	if draft.ProjectID <= 0 {
		return 0, domain.ErrProjectRequired
	}
	if err := draft.Validate(); err != nil {
		return 0, err
	}
	if _, err := s.managedProject(ctx, draft.ProjectID); err != nil {
		return 0, err
	}
	return s.post(ctx, draft)
}

func (s *SubmissionService) post(ctx context.Context, draft domain.StatusDraft) (int, error) {
	id, err := s.store.CreateStatus(ctx, draft)
	if err != nil {
		logging.Op(ctx, "submission.create").WithError(err).Error("create status failed")
		return 0, err
	}

	log := logging.Op(ctx, "submission.create").WithField("id", id).WithField("project_id", draft.ProjectID)
	log.Info("status created")

	if s.events != nil {
		payload := map[string]any{"id": id, "project_id": draft.ProjectID, "health": draft.Health}
		if err := s.events.Publish(ctx, repository.EventStatusCreated, payload); err != nil {
			log.WithError(err).Warn("failed to publish event")
		}
	}
	return id, nil
}
