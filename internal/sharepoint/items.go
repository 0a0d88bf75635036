package sharepoint

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/digital-factory/projectstatus-backend/internal/logging"
	"github.com/digital-factory/projectstatus-backend/internal/project_status/domain"
	"github.com/digital-factory/projectstatus-backend/internal/project_status/liststore"
)

// maxPageSize is the largest $top SharePoint accepts for list items.
const maxPageSize = 5000

func (c *Client) statusQuery() url.Values {
	f := c.schema.Fields
	q := url.Values{}
	q.Set("$select", strings.Join([]string{
		"Id",
		"Title",
		f.Project + "/Id",
		f.Project + "/Title",
		f.Health,
		f.Activities,
		f.Issues,
		f.NextSteps,
		f.Planned,
		f.Actual,
		"Created",
		f.Author + "/Title",
	}, ","))
	q.Set("$expand", f.Project+","+f.Author)
	q.Set("$orderby", "Created desc")
	return q
}

func (c *Client) toRecord(ctx context.Context, it item) domain.StatusRecord {
	f := c.schema.Fields
	project := it.nested(f.Project)
	id := int(it.number("Id"))

	created, err := it.time("Created")
	if err != nil {
		logging.Op(ctx, "sharepoint.decode").
			WithError(err).
			WithField("id", id).
			Warn("status item has an unreadable creation date")
	}

	return domain.StatusRecord{
		ID:             id,
		ProjectID:      int(project.number("Id")),
		ProjectTitle:   project.text("Title"),
		Health:         domain.Health(it.text(f.Health)),
		PlannedPercent: it.number(f.Planned),
		ActualPercent:  it.number(f.Actual),
		Activities:     it.text(f.Activities),
		Issues:         it.text(f.Issues),
		NextSteps:      it.text(f.NextSteps),
		Created:        created,
		CreatedBy:      it.nested(f.Author).text("Title"),
	}
}

// ListStatuses gets every item from the status list, newest first.
func (c *Client) ListStatuses(ctx context.Context) ([]domain.StatusRecord, error) {
	q := c.statusQuery()
	q.Set("$top", strconv.Itoa(maxPageSize))

	items, err := getAll[item](ctx, c, "getting statuses", c.schema.StatusList, c.itemsURL(c.schema.StatusList, q))
	if err != nil {
		return nil, err
	}

	out := make([]domain.StatusRecord, 0, len(items))
	for _, it := range items {
		out = append(out, c.toRecord(ctx, it))
	}
	return out, nil
}

// LatestStatus gets the newest item for one project, or nil.
func (c *Client) LatestStatus(ctx context.Context, projectID int) (*domain.StatusRecord, error) {
	q := c.statusQuery()
	q.Set("$filter", fmt.Sprintf("%s/Id eq %d", c.schema.Fields.Project, projectID))
	q.Set("$top", "1")

	p, err := getPage[item](ctx, c, "getting latest status", c.schema.StatusList, c.itemsURL(c.schema.StatusList, q))
	if err != nil {
		return nil, err
	}
	if len(p.Value) == 0 {
		return nil, nil
	}
	rec := c.toRecord(ctx, p.Value[0])
	return &rec, nil
}

func toLookups(items []item) []domain.ProjectLookup {
	out := make([]domain.ProjectLookup, 0, len(items))
	for _, it := range items {
		out = append(out, domain.ProjectLookup{
			ID:    int(it.number("Id")),
			Title: it.text("Title"),
		})
	}
	return out
}

// ListProjects gets every project ordered by title.
func (c *Client) ListProjects(ctx context.Context) ([]domain.ProjectLookup, error) {
	q := url.Values{}
	q.Set("$select", "Id,Title")
	q.Set("$orderby", "Title")
	q.Set("$top", strconv.Itoa(maxPageSize))

	items, err := getAll[item](ctx, c, "getting projects", c.schema.ProjectsList, c.itemsURL(c.schema.ProjectsList, q))
	if err != nil {
		return nil, err
	}
	return toLookups(items), nil
}

// ListManagedProjects gets the projects whose manager field is user.
func (c *Client) ListManagedProjects(ctx context.Context, user domain.User) ([]domain.ProjectLookup, error) {
	pm, err := c.managerField(ctx)
	if err != nil {
		return nil, err
	}

	q := url.Values{}
	q.Set("$select", "Id,Title,"+pm+"/Id")
	q.Set("$expand", pm)
	q.Set("$filter", fmt.Sprintf("%s/Id eq %d", pm, user.ID))
	q.Set("$orderby", "Title")
	q.Set("$top", strconv.Itoa(maxPageSize))

	items, err := getAll[item](ctx, c, "getting managed projects", c.schema.ProjectsList, c.itemsURL(c.schema.ProjectsList, q))
	if err != nil {
		return nil, err
	}
	return toLookups(items), nil
}

// ListAssignments gets every project with its manager(s). A project with
// several managers yields one assignment per manager.
func (c *Client) ListAssignments(ctx context.Context) ([]domain.ProjectAssignment, error) {
	pm, err := c.managerField(ctx)
	if err != nil {
		return nil, err
	}

	q := url.Values{}
	q.Set("$select", "Id,Title,"+pm+"/Title")
	q.Set("$expand", pm)
	q.Set("$orderby", "Title")
	q.Set("$top", strconv.Itoa(maxPageSize))

	items, err := getAll[item](ctx, c, "getting project managers", c.schema.ProjectsList, c.itemsURL(c.schema.ProjectsList, q))
	if err != nil {
		return nil, err
	}

	out := make([]domain.ProjectAssignment, 0, len(items))
	for _, it := range items {
		id, title := int(it.number("Id")), it.text("Title")
		managers := it.many(pm)
		if len(managers) == 0 {
			out = append(out, domain.ProjectAssignment{ProjectID: id, ProjectTitle: title})
			continue
		}
		for _, m := range managers {
			out = append(out, domain.ProjectAssignment{ProjectID: id, ProjectTitle: title, ManagerName: m.text("Title")})
		}
	}
	return out, nil
}

// CreateStatus adds one item to the status list.
func (c *Client) CreateStatus(ctx context.Context, draft domain.StatusDraft) (int, error) {
	f := c.schema.Fields
	body := map[string]any{
		"Title":          "",
		f.Project + "Id": draft.ProjectID,
		f.Health:         string(draft.Health),
		f.Activities:     draft.Activities,
		f.Issues:         draft.Issues,
		f.NextSteps:      draft.NextSteps,
		f.Planned:        draft.PlannedPercent,
		f.Actual:         draft.ActualPercent,
	}

	const op = "creating status"
	resp, err := c.do(ctx, op, c.schema.StatusList, http.MethodPost, c.itemsURL(c.schema.StatusList, nil), body)
	if err != nil {
		return 0, err
	}
	defer resp.Body.Close()

	var created item
	if err := decodeJSON(resp, &created); err != nil {
		return 0, &liststore.RemoteError{Op: op, Site: c.siteURL, List: c.schema.StatusList, Err: err}
	}
	return int(created.number("Id")), nil
}
