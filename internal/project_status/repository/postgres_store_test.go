package repository

import (
	"context"
	"database/sql"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/digital-factory/projectstatus-backend/internal/auth"
	"github.com/digital-factory/projectstatus-backend/internal/project_status/domain"
	"github.com/digital-factory/projectstatus-backend/internal/project_status/liststore"
	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var statusRowColumns = []string{
	"id", "project_id", "title", "health",
	"planned_percent", "actual_percent", "activities", "issues", "next_steps",
	"created_at", "created_by",
}

func setupStore(t *testing.T) (*PostgresStore, sqlmock.Sqlmock) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	return NewPostgresStore(db, "projectstatus"), mock
}

func TestPostgresStore_EnsureSchema(t *testing.T) {
	store, mock := setupStore(t)

	mock.ExpectExec(`create table if not exists ps_users`).WillReturnResult(sqlmock.NewResult(0, 0))

	require.NoError(t, store.EnsureSchema(context.Background()))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_ListStatuses(t *testing.T) {
	store, mock := setupStore(t)
	newer := time.Date(2025, 4, 2, 10, 0, 0, 0, time.UTC)
	older := newer.Add(-48 * time.Hour)

	t.Run("maps rows newest first", func(t *testing.T) {
		mock.ExpectQuery(`order by r.created_at desc`).
			WillReturnRows(sqlmock.NewRows(statusRowColumns).
				AddRow(2, 3, "Data Lake", "Yellow", 60.0, 55.5, "Build", "Vendor delay", "Escalate", newer, "Pat").
				AddRow(1, 0, "", "Green", 10.0, 10.0, "", "", "", older, ""))

		records, err := store.ListStatuses(context.Background())
		require.NoError(t, err)
		require.Len(t, records, 2)

		assert.Equal(t, domain.StatusRecord{
			ID: 2, ProjectID: 3, ProjectTitle: "Data Lake", Health: domain.HealthYellow,
			PlannedPercent: 60, ActualPercent: 55.5,
			Activities: "Build", Issues: "Vendor delay", NextSteps: "Escalate",
			Created: newer, CreatedBy: "Pat",
		}, records[0])
		assert.Equal(t, 0, records[1].ProjectID)
		require.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("wraps query failures", func(t *testing.T) {
		mock.ExpectQuery(`from ps_status_records`).WillReturnError(errors.New("connection refused"))

		_, err := store.ListStatuses(context.Background())
		require.Error(t, err)

		var remote *liststore.RemoteError
		require.True(t, errors.As(err, &remote))
		assert.Equal(t, "Error getting statuses (site: projectstatus, list: ps_status_records): connection refused", err.Error())
		require.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestPostgresStore_LatestStatus(t *testing.T) {
	store, mock := setupStore(t)

	t.Run("returns nil without rows", func(t *testing.T) {
		mock.ExpectQuery(`where r.project_id = \$1`).
			WithArgs(7).
			WillReturnError(sql.ErrNoRows)

		rec, err := store.LatestStatus(context.Background(), 7)
		require.NoError(t, err)
		assert.Nil(t, rec)
		require.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("returns the newest row", func(t *testing.T) {
		created := time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC)
		mock.ExpectQuery(`limit 1`).
			WithArgs(3).
			WillReturnRows(sqlmock.NewRows(statusRowColumns).
				AddRow(9, 3, "Data Lake", "Red", 80.0, 40.0, "a", "b", "c", created, "Pat"))

		rec, err := store.LatestStatus(context.Background(), 3)
		require.NoError(t, err)
		require.NotNil(t, rec)
		assert.Equal(t, 9, rec.ID)
		assert.Equal(t, domain.HealthRed, rec.Health)
		require.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestPostgresStore_Projects(t *testing.T) {
	store, mock := setupStore(t)

	mock.ExpectQuery(`from ps_projects\s+order by title`).
		WillReturnRows(sqlmock.NewRows([]string{"id", "title"}).AddRow(2, "Alpha").AddRow(1, "Beta"))

	projects, err := store.ListProjects(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []domain.ProjectLookup{{ID: 2, Title: "Alpha"}, {ID: 1, Title: "Beta"}}, projects)

	mock.ExpectQuery(`where manager_id = \$1`).
		WithArgs(5).
		WillReturnRows(sqlmock.NewRows([]string{"id", "title"}).AddRow(1, "Beta"))

	managed, err := store.ListManagedProjects(context.Background(), domain.User{ID: 5})
	require.NoError(t, err)
	assert.Equal(t, []domain.ProjectLookup{{ID: 1, Title: "Beta"}}, managed)

	mock.ExpectQuery(`left join ps_users u on u.id = p.manager_id`).
		WillReturnRows(sqlmock.NewRows([]string{"id", "title", "manager"}).
			AddRow(1, "Beta", "Alex").
			AddRow(2, "Alpha", ""))

	assignments, err := store.ListAssignments(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []domain.ProjectAssignment{
		{ProjectID: 1, ProjectTitle: "Beta", ManagerName: "Alex"},
		{ProjectID: 2, ProjectTitle: "Alpha"},
	}, assignments)

	require.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_CurrentUser(t *testing.T) {
	store, mock := setupStore(t)

	t.Run("requires an identity", func(t *testing.T) {
		_, err := store.CurrentUser(context.Background())
		assert.ErrorIs(t, err, domain.ErrUserUnknown)
	})

	t.Run("upserts the caller", func(t *testing.T) {
		ctx := auth.WithIdentity(context.Background(), auth.Identity{UserID: "pat", DisplayName: "Pat Manager", Email: "pat@example.com"})

		mock.ExpectQuery(`insert into ps_users`).
			WithArgs("pat", "Pat Manager", "pat@example.com").
			WillReturnRows(sqlmock.NewRows([]string{"id", "login_name", "title", "email"}).
				AddRow(5, "pat", "Pat Manager", "pat@example.com"))

		u, err := store.CurrentUser(ctx)
		require.NoError(t, err)
		assert.Equal(t, domain.User{ID: 5, LoginName: "pat", Title: "Pat Manager", Email: "pat@example.com"}, u)
		require.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestPostgresStore_CreateStatus(t *testing.T) {
	store, mock := setupStore(t)
	ctx := auth.WithIdentity(context.Background(), auth.Identity{UserID: "pat", DisplayName: "Pat Manager"})
	draft := domain.StatusDraft{
		ProjectID: 3, Health: domain.HealthGreen, PlannedPercent: 50, ActualPercent: 45,
		Activities: "Design", Issues: "", NextSteps: "Build",
	}
	userRows := func() *sqlmock.Rows {
		return sqlmock.NewRows([]string{"id", "login_name", "title", "email"}).AddRow(5, "pat", "Pat Manager", "")
	}

	t.Run("upserts the author and returns the new id", func(t *testing.T) {
		mock.ExpectQuery(`insert into ps_users`).
			WithArgs("pat", "Pat Manager", "").
			WillReturnRows(userRows())
		mock.ExpectQuery(`insert into ps_status_records`).
			WithArgs(3, "Green", 50.0, 45.0, "Design", "", "Build", 5).
			WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(42))

		id, err := store.CreateStatus(ctx, draft)
		require.NoError(t, err)
		assert.Equal(t, 42, id)
		require.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("anonymous callers leave the author empty", func(t *testing.T) {
		mock.ExpectQuery(`insert into ps_status_records`).
			WithArgs(3, "Green", 50.0, 45.0, "Design", "", "Build", nil).
			WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(43))

		id, err := store.CreateStatus(context.Background(), draft)
		require.NoError(t, err)
		assert.Equal(t, 43, id)
		require.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("maps a missing project", func(t *testing.T) {
		mock.ExpectQuery(`insert into ps_users`).WillReturnRows(userRows())
		mock.ExpectQuery(`insert into ps_status_records`).
			WillReturnError(&pq.Error{Code: pqForeignKeyViolation, Message: "violates foreign key constraint"})

		_, err := store.CreateStatus(ctx, draft)
		assert.ErrorIs(t, err, domain.ErrProjectNotFound)
		require.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("fails when the author cannot be stored", func(t *testing.T) {
		mock.ExpectQuery(`insert into ps_users`).WillReturnError(errors.New("read-only transaction"))

		_, err := store.CreateStatus(ctx, draft)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "list: ps_users")
		require.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestPostgresStore_EmptyTablesReturnEmptySlices(t *testing.T) {
	store, mock := setupStore(t)
	ctx := context.Background()

	mock.ExpectQuery(`from ps_status_records`).WillReturnRows(sqlmock.NewRows(statusRowColumns))
	records, err := store.ListStatuses(ctx)
	require.NoError(t, err)
	assert.NotNil(t, records)
	assert.Empty(t, records)

	mock.ExpectQuery(`where manager_id = \$1`).WithArgs(5).WillReturnRows(sqlmock.NewRows([]string{"id", "title"}))
	managed, err := store.ListManagedProjects(ctx, domain.User{ID: 5})
	require.NoError(t, err)
	assert.NotNil(t, managed)
	assert.Empty(t, managed)

	mock.ExpectQuery(`left join ps_users u on u.id = p.manager_id`).WillReturnRows(sqlmock.NewRows([]string{"id", "title", "manager"}))
	assignments, err := store.ListAssignments(ctx)
	require.NoError(t, err)
	assert.NotNil(t, assignments)
	assert.Empty(t, assignments)

	require.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_ResolveFieldName(t *testing.T) {
	store, _ := setupStore(t)

	name, err := store.ResolveFieldName(context.Background(), tableProjects, "manager_id")
	require.NoError(t, err)
	assert.Equal(t, "manager_id", name)
}
