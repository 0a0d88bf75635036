package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/digital-factory/projectstatus-backend/config"
	"github.com/digital-factory/projectstatus-backend/internal/auth"
	"github.com/digital-factory/projectstatus-backend/internal/project_status/domain"
	"github.com/digital-factory/projectstatus-backend/internal/project_status/repository"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type submissionFixture struct {
	svc    *SubmissionService
	dash   *DashboardService
	store  *fakeStore
	events *fakePublisher
	redis  *miniredis.Miniredis
}

func setupSubmission(t *testing.T) submissionFixture {
	mr, err := miniredis.Run()
	require.NoError(t, err)
	t.Cleanup(mr.Close)

	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	store := newSampleStore()
	events := &fakePublisher{}
	dash := NewDashboardService(store, config.DashboardConfig{})
	svc := NewSubmissionService(store, repository.NewDraftRepository(client, time.Hour), events, dash)
	return submissionFixture{svc: svc, dash: dash, store: store, events: events, redis: mr}
}

func ptr[T any](v T) *T { return &v }

func TestSubmission_CurrentStartsWithoutProject(t *testing.T) {
	f := setupSubmission(t)

	sub, err := f.svc.Current(context.Background(), "sam")
	require.NoError(t, err)
	assert.Equal(t, domain.StateNoProject, sub.State)
	assert.Nil(t, sub.Project)
	assert.Equal(t, domain.DefaultDraft(), sub.Draft)
	assert.False(t, f.redis.Exists("ps:draft:sam"))
}

func TestSubmission_SelectProject(t *testing.T) {
	f := setupSubmission(t)
	ctx := context.Background()

	t.Run("rejects projects the caller does not manage", func(t *testing.T) {
		_, err := f.svc.SelectProject(ctx, "sam", 2)
		assert.ErrorIs(t, err, domain.ErrUnknownProject)
	})

	t.Run("rejects a missing project id", func(t *testing.T) {
		_, err := f.svc.SelectProject(ctx, "sam", 0)
		assert.ErrorIs(t, err, domain.ErrProjectRequired)
	})

	t.Run("loads the previous entry", func(t *testing.T) {
		sub, err := f.svc.SelectProject(ctx, "sam", 1)
		require.NoError(t, err)
		assert.Equal(t, domain.StateEditing, sub.State)
		assert.Equal(t, "Alpha", sub.Project.Title)
		assert.Equal(t, 1, sub.Draft.ProjectID)
		assert.Equal(t, domain.HealthGreen, sub.Draft.Health)
		require.NotNil(t, sub.PreviousEntry)
		assert.Equal(t, 3, sub.PreviousEntry.ID)
		assert.False(t, sub.CopyPrevious)
		assert.True(t, f.redis.Exists("ps:draft:sam"))
	})

	t.Run("project without history has no previous entry", func(t *testing.T) {
		sub, err := f.svc.SelectProject(ctx, "sam", 3)
		require.NoError(t, err)
		assert.Nil(t, sub.PreviousEntry)

		_, err = f.svc.SetCopyPrevious(ctx, "sam", true)
		assert.ErrorIs(t, err, domain.ErrNoPreviousEntry)
	})
}

func TestSubmission_CopyPrevious(t *testing.T) {
	f := setupSubmission(t)
	ctx := context.Background()
	f.store.records[1].Activities = "Sprint 4"
	f.store.records[1].NextSteps = "Sprint 5"

	_, err := f.svc.SelectProject(ctx, "sam", 1)
	require.NoError(t, err)

	sub, err := f.svc.SetCopyPrevious(ctx, "sam", true)
	require.NoError(t, err)
	assert.True(t, sub.CopyPrevious)
	assert.Equal(t, domain.StatusDraft{
		ProjectID: 1, Health: domain.HealthGreen, PlannedPercent: 50, ActualPercent: 55,
		Activities: "Sprint 4", NextSteps: "Sprint 5",
	}, sub.Draft)

	sub, err = f.svc.SetCopyPrevious(ctx, "sam", false)
	require.NoError(t, err)
	assert.False(t, sub.CopyPrevious)
	assert.Equal(t, domain.StatusDraft{ProjectID: 1, Health: domain.HealthGreen}, sub.Draft)
	assert.Equal(t, "Alpha", sub.Project.Title)
}

func TestSubmission_CopyPreviousKeepsDefaultHealthForUnknownValues(t *testing.T) {
	f := setupSubmission(t)
	ctx := context.Background()
	f.store.records[1].Health = "Blue"

	_, err := f.svc.SelectProject(ctx, "sam", 1)
	require.NoError(t, err)

	sub, err := f.svc.SetCopyPrevious(ctx, "sam", true)
	require.NoError(t, err)
	assert.Equal(t, domain.HealthGreen, sub.Draft.Health)
	assert.Equal(t, 50.0, sub.Draft.PlannedPercent)
}

func TestSubmission_RequiresEditingState(t *testing.T) {
	f := setupSubmission(t)
	ctx := context.Background()

	_, err := f.svc.SetCopyPrevious(ctx, "sam", true)
	assert.ErrorIs(t, err, domain.ErrNoProjectSelected)

	_, err = f.svc.UpdateDraft(ctx, "sam", domain.DraftPatch{Issues: ptr("x")})
	assert.ErrorIs(t, err, domain.ErrNoProjectSelected)

	_, err = f.svc.Submit(ctx, "sam")
	assert.ErrorIs(t, err, domain.ErrNoProjectSelected)
	assert.Empty(t, f.store.created)
}

func TestSubmission_UpdateDraft(t *testing.T) {
	f := setupSubmission(t)
	ctx := context.Background()
	_, err := f.svc.SelectProject(ctx, "sam", 1)
	require.NoError(t, err)

	sub, err := f.svc.UpdateDraft(ctx, "sam", domain.DraftPatch{
		Health:         ptr(domain.HealthYellow),
		PlannedPercent: ptr(60.0),
		Issues:         ptr("Vendor delay"),
	})
	require.NoError(t, err)
	assert.Equal(t, domain.HealthYellow, sub.Draft.Health)
	assert.Equal(t, 60.0, sub.Draft.PlannedPercent)
	assert.Equal(t, "Vendor delay", sub.Draft.Issues)

	_, err = f.svc.UpdateDraft(ctx, "sam", domain.DraftPatch{ActualPercent: ptr(101.0)})
	assert.ErrorIs(t, err, domain.ErrInvalidPercent)

	_, err = f.svc.UpdateDraft(ctx, "sam", domain.DraftPatch{Health: ptr(domain.Health("green"))})
	assert.ErrorIs(t, err, domain.ErrInvalidHealth)

	current, err := f.svc.Current(ctx, "sam")
	require.NoError(t, err)
	assert.Equal(t, 0.0, current.Draft.ActualPercent)
	assert.Equal(t, domain.HealthYellow, current.Draft.Health)
}

func TestSubmission_ChangeProjectClearsDraft(t *testing.T) {
	f := setupSubmission(t)
	ctx := context.Background()
	_, err := f.svc.SelectProject(ctx, "sam", 1)
	require.NoError(t, err)

	sub, err := f.svc.ChangeProject(ctx, "sam")
	require.NoError(t, err)
	assert.Equal(t, domain.StateNoProject, sub.State)
	assert.Nil(t, sub.Project)
	assert.Nil(t, sub.PreviousEntry)
	assert.Equal(t, domain.DefaultDraft(), sub.Draft)
}

func TestSubmission_Submit(t *testing.T) {
	f := setupSubmission(t)
	ctx := context.Background()
	_, err := f.svc.SelectProject(ctx, "sam", 1)
	require.NoError(t, err)
	_, err = f.svc.UpdateDraft(ctx, "sam", domain.DraftPatch{ActualPercent: ptr(20.0)})
	require.NoError(t, err)

	calls := f.store.statusCall
	res, err := f.svc.Submit(ctx, "sam")
	require.NoError(t, err)
	assert.Equal(t, 101, res.ID)
	assert.Equal(t, NextDashboard, res.Next)
	require.NotNil(t, res.Dashboard)
	assert.Empty(t, res.RefreshError)
	assert.Greater(t, f.store.statusCall, calls)

	require.Len(t, f.store.created, 1)
	assert.Equal(t, domain.StatusDraft{ProjectID: 1, Health: domain.HealthGreen, ActualPercent: 20}, f.store.created[0])

	require.Len(t, f.events.events, 1)
	assert.Equal(t, repository.EventStatusCreated, f.events.events[0].Type)

	assert.False(t, f.redis.Exists("ps:draft:sam"))
	sub, err := f.svc.Current(ctx, "sam")
	require.NoError(t, err)
	assert.Equal(t, domain.StateNoProject, sub.State)
}

func TestSubmission_SubmitFailureKeepsDraft(t *testing.T) {
	f := setupSubmission(t)
	ctx := context.Background()
	_, err := f.svc.SelectProject(ctx, "sam", 1)
	require.NoError(t, err)

	f.store.createErr = errors.New("Error creating status (site: s, list: Projects Status): 403 Forbidden - denied")
	_, err = f.svc.Submit(ctx, "sam")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "403 Forbidden")

	assert.True(t, f.redis.Exists("ps:draft:sam"))
	assert.Empty(t, f.events.events)
}

func TestSubmission_SubmitReportsRefreshFailure(t *testing.T) {
	f := setupSubmission(t)
	ctx := context.Background()
	_, err := f.svc.SelectProject(ctx, "sam", 1)
	require.NoError(t, err)

	f.store.statusErr = errors.New("Error getting statuses (site: s, list: Projects Status): 503 Service Unavailable - busy")
	res, err := f.svc.Submit(ctx, "sam")
	require.NoError(t, err)
	assert.Equal(t, 101, res.ID)
	assert.Nil(t, res.Dashboard)
	assert.Contains(t, res.RefreshError, "503 Service Unavailable")
}

func TestSubmission_CreateRequiresProject(t *testing.T) {
	f := setupSubmission(t)

	_, err := f.svc.Create(context.Background(), domain.DefaultDraft())
	assert.ErrorIs(t, err, domain.ErrProjectRequired)
	assert.Empty(t, f.store.created)
}

func TestSubmission_SubmitRefreshesStatusesOnly(t *testing.T) {
	f := setupSubmission(t)
	ctx := context.Background()

	_, err := f.dash.Load(ctx)
	require.NoError(t, err)
	_, err = f.svc.SelectProject(ctx, "sam", 1)
	require.NoError(t, err)

	statusCalls, projectCalls := f.store.statusCall, f.store.projectCall
	res, err := f.svc.Submit(ctx, "sam")
	require.NoError(t, err)
	require.NotNil(t, res.Dashboard)
	assert.Equal(t, 3, res.Dashboard.TotalUpdates)
	assert.Equal(t, statusCalls+1, f.store.statusCall)
	assert.Equal(t, projectCalls, f.store.projectCall)
}

func TestSubmission_CreateRejectsUnmanagedProject(t *testing.T) {
	f := setupSubmission(t)

	_, err := f.svc.Create(context.Background(), domain.StatusDraft{ProjectID: 2, Health: domain.HealthGreen})
	assert.ErrorIs(t, err, domain.ErrUnknownProject)
	assert.Empty(t, f.store.created)
	assert.Empty(t, f.events.events)

	id, err := f.svc.Create(context.Background(), domain.StatusDraft{ProjectID: 3, Health: domain.HealthRed})
	require.NoError(t, err)
	assert.Equal(t, 101, id)
}

func TestSubmission_SessionKey(t *testing.T) {
	f := setupSubmission(t)

	t.Run("header key without a bearer token", func(t *testing.T) {
		key, err := f.svc.SessionKey(context.Background(), "sam")
		require.NoError(t, err)
		assert.Equal(t, "sam", key)
	})

	t.Run("no identity at all", func(t *testing.T) {
		_, err := f.svc.SessionKey(context.Background(), "")
		assert.ErrorIs(t, err, domain.ErrUserUnknown)
	})

	t.Run("bearer callers are keyed by the resolved user", func(t *testing.T) {
		f.store.user = domain.User{ID: 7, LoginName: "i:0#.f|membership|sam@contoso.com"}
		ctx := auth.WithIdentity(context.Background(), auth.Identity{UserID: "someone-else", BearerToken: "tok"})

		key, err := f.svc.SessionKey(ctx, "tok:abc")
		require.NoError(t, err)
		assert.Equal(t, "user:i:0#.f|membership|sam@contoso.com", key)
	})

	t.Run("falls back when the store cannot name a bearer caller", func(t *testing.T) {
		f.store.userErr = domain.ErrUserUnknown
		t.Cleanup(func() { f.store.userErr = nil })
		ctx := auth.WithIdentity(context.Background(), auth.Identity{BearerToken: "tok"})

		key, err := f.svc.SessionKey(ctx, "tok:abc")
		require.NoError(t, err)
		assert.Equal(t, "tok:abc", key)
	})
}
