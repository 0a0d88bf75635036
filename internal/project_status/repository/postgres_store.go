package repository

import (
	"context"
	"database/sql"
	_ "embed"
	"errors"
	"fmt"
	"strings"

	"github.com/digital-factory/projectstatus-backend/internal/auth"
	"github.com/digital-factory/projectstatus-backend/internal/project_status/domain"
	"github.com/digital-factory/projectstatus-backend/internal/project_status/liststore"
	"github.com/lib/pq"
)

const (
	tableUsers    = "ps_users"
	tableProjects = "ps_projects"
	tableStatuses = "ps_status_records"

	pqForeignKeyViolation = "23503"
)

//go:embed schema.sql
var schemaSQL string

// PostgresStore is a self-hosted list store. Column names are fixed, so
// field resolution is the identity.
type PostgresStore struct {
	db   *sql.DB
	site string
}

var _ liststore.Store = (*PostgresStore)(nil)

// NewPostgresStore wraps db. site names the database in error messages.
func NewPostgresStore(db *sql.DB, site string) *PostgresStore {
	return &PostgresStore{db: db, site: site}
}

// EnsureSchema creates the tables when they do not exist yet.
func (s *PostgresStore) EnsureSchema(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, schemaSQL); err != nil {
		return fmt.Errorf("failed to apply schema: %w", err)
	}
	return nil
}

func (s *PostgresStore) fail(op, table string, err error) error {
	return &liststore.RemoteError{Op: op, Site: s.site, List: table, Err: err}
}

const statusColumns = `
select r.id, coalesce(r.project_id, 0), coalesce(p.title, ''), r.health,
       r.planned_percent, r.actual_percent, r.activities, r.issues, r.next_steps,
       r.created_at, coalesce(u.title, '')
from ps_status_records r
left join ps_projects p on p.id = r.project_id
left join ps_users u on u.id = r.created_by
`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanStatus(row rowScanner) (domain.StatusRecord, error) {
	var rec domain.StatusRecord
	var health string
	err := row.Scan(
		&rec.ID, &rec.ProjectID, &rec.ProjectTitle, &health,
		&rec.PlannedPercent, &rec.ActualPercent, &rec.Activities, &rec.Issues, &rec.NextSteps,
		&rec.Created, &rec.CreatedBy,
	)
	rec.Health = domain.Health(health)
	return rec, err
}

func (s *PostgresStore) ListStatuses(ctx context.Context) ([]domain.StatusRecord, error) {
	const op = "getting statuses"
	rows, err := s.db.QueryContext(ctx, statusColumns+`order by r.created_at desc, r.id desc`)
	if err != nil {
		return nil, s.fail(op, tableStatuses, err)
	}
	defer rows.Close()

	out := make([]domain.StatusRecord, 0)
	for rows.Next() {
		rec, err := scanStatus(rows)
		if err != nil {
			return nil, s.fail(op, tableStatuses, err)
		}
		out = append(out, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, s.fail(op, tableStatuses, err)
	}
	return out, nil
}

func (s *PostgresStore) LatestStatus(ctx context.Context, projectID int) (*domain.StatusRecord, error) {
	row := s.db.QueryRowContext(ctx, statusColumns+`where r.project_id = $1
order by r.created_at desc, r.id desc
limit 1`, projectID)

	rec, err := scanStatus(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, s.fail("getting latest status", tableStatuses, err)
	}
	return &rec, nil
}

func (s *PostgresStore) queryProjects(ctx context.Context, op, q string, args ...any) ([]domain.ProjectLookup, error) {
	rows, err := s.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, s.fail(op, tableProjects, err)
	}
	defer rows.Close()

	out := make([]domain.ProjectLookup, 0)
	for rows.Next() {
		var p domain.ProjectLookup
		if err := rows.Scan(&p.ID, &p.Title); err != nil {
			return nil, s.fail(op, tableProjects, err)
		}
		out = append(out, p)
	}
	if err := rows.Err(); err != nil {
		return nil, s.fail(op, tableProjects, err)
	}
	return out, nil
}

func (s *PostgresStore) ListProjects(ctx context.Context) ([]domain.ProjectLookup, error) {
	return s.queryProjects(ctx, "getting projects", `
select id, title
from ps_projects
order by title, id
`)
}

func (s *PostgresStore) ListManagedProjects(ctx context.Context, user domain.User) ([]domain.ProjectLookup, error) {
	return s.queryProjects(ctx, "getting managed projects", `
select id, title
from ps_projects
where manager_id = $1
order by title, id
`, user.ID)
}

func (s *PostgresStore) ListAssignments(ctx context.Context) ([]domain.ProjectAssignment, error) {
	const op = "getting project managers"
	rows, err := s.db.QueryContext(ctx, `
select p.id, p.title, coalesce(u.title, '')
from ps_projects p
left join ps_users u on u.id = p.manager_id
order by p.id
`)
	if err != nil {
		return nil, s.fail(op, tableProjects, err)
	}
	defer rows.Close()

	out := make([]domain.ProjectAssignment, 0)
	for rows.Next() {
		var a domain.ProjectAssignment
		if err := rows.Scan(&a.ProjectID, &a.ProjectTitle, &a.ManagerName); err != nil {
			return nil, s.fail(op, tableProjects, err)
		}
		out = append(out, a)
	}
	if err := rows.Err(); err != nil {
		return nil, s.fail(op, tableProjects, err)
	}
	return out, nil
}

// CurrentUser upserts the caller from the request identity.
func (s *PostgresStore) CurrentUser(ctx context.Context) (domain.User, error) {
	id, ok := auth.IdentityFrom(ctx)
	if !ok || strings.TrimSpace(id.UserID) == "" {
		return domain.User{}, domain.ErrUserUnknown
	}

	const q = `
insert into ps_users (login_name, title, email, updated_at)
values ($1, $2, nullif($3,''), now())
on conflict (login_name) do update
set
  title = coalesce(nullif(excluded.title, ''), ps_users.title),
  email = coalesce(excluded.email, ps_users.email),
  updated_at = now()
returning id, login_name, title, coalesce(email, '')
`
	var u domain.User
	err := s.db.QueryRowContext(ctx, q, id.UserID, id.DisplayName, id.Email).
		Scan(&u.ID, &u.LoginName, &u.Title, &u.Email)
	if err != nil {
		return domain.User{}, s.fail("getting current user", tableUsers, err)
	}
	return u, nil
}

func (s *PostgresStore) ResolveFieldName(_ context.Context, _, title string) (string, error) {
	return title, nil
}

// CreateStatus inserts a record. A caller with an identity is upserted
// first so created_by always points at a ps_users row.
func (s *PostgresStore) CreateStatus(ctx context.Context, draft domain.StatusDraft) (int, error) {
	const op = "creating status"

	var author any
	if id, ok := auth.IdentityFrom(ctx); ok && strings.TrimSpace(id.UserID) != "" {
		user, err := s.CurrentUser(ctx)
		if err != nil {
			return 0, err
		}
		author = user.ID
	}

	var project any
	if draft.ProjectID > 0 {
		project = draft.ProjectID
	}

	var id int
	err := s.db.QueryRowContext(ctx, `
insert into ps_status_records (
  project_id, health, planned_percent, actual_percent,
  activities, issues, next_steps, created_by
)
values ($1, $2, $3, $4, $5, $6, $7, $8)
returning id
`, project, string(draft.Health), draft.PlannedPercent, draft.ActualPercent,
		draft.Activities, draft.Issues, draft.NextSteps, author,
	).Scan(&id)
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code == pqForeignKeyViolation {
			return 0, fmt.Errorf("project %d: %w", draft.ProjectID, domain.ErrProjectNotFound)
		}
		return 0, s.fail(op, tableStatuses, err)
	}
	return id, nil
}
