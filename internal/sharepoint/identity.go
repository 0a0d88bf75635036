package sharepoint

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"github.com/digital-factory/projectstatus-backend/internal/project_status/domain"
	"github.com/digital-factory/projectstatus-backend/internal/project_status/liststore"
)

var errFieldNotFound = errors.New("field not found")

type currentUser struct {
	ID        int    `json:"Id"`
	Title     string `json:"Title"`
	LoginName string `json:"LoginName"`
	Email     string `json:"Email"`
}

// CurrentUser asks the site who the (delegated or app) caller is.
func (c *Client) CurrentUser(ctx context.Context) (domain.User, error) {
	const op = "getting current user"
	q := url.Values{}
	q.Set("$select", "Id,Title,LoginName,Email")

	resp, err := c.do(ctx, op, "", http.MethodGet, c.siteURL+"/_api/web/currentuser?"+q.Encode(), nil)
	if err != nil {
		return domain.User{}, err
	}
	defer resp.Body.Close()

	var u currentUser
	if err := decodeJSON(resp, &u); err != nil {
		return domain.User{}, &liststore.RemoteError{Op: op, Site: c.siteURL, Err: err}
	}
	return domain.User{ID: u.ID, LoginName: u.LoginName, Title: u.Title, Email: u.Email}, nil
}

type fieldInfo struct {
	InternalName string `json:"InternalName"`
	Title        string `json:"Title"`
}

// ResolveFieldName looks a field up by display title and returns its
// internal name.
func (c *Client) ResolveFieldName(ctx context.Context, list, title string) (string, error) {
	const op = "resolving field"
	q := url.Values{}
	q.Set("$select", "InternalName,Title")
	q.Set("$filter", "Title eq '"+strings.ReplaceAll(title, "'", "''")+"'")

	p, err := getPage[fieldInfo](ctx, c, op, list, c.listURL(list)+"/fields?"+q.Encode())
	if err != nil {
		return "", err
	}
	if len(p.Value) == 0 || p.Value[0].InternalName == "" {
		return "", &liststore.RemoteError{Op: op, Site: c.siteURL, List: list, Err: fmt.Errorf("%w: %q", errFieldNotFound, title)}
	}
	return p.Value[0].InternalName, nil
}

// managerField returns the configured internal name of the project manager
// field, resolving it from its title when not pinned.
func (c *Client) managerField(ctx context.Context) (string, error) {
	if name := c.schema.Manager.InternalName; name != "" {
		return name, nil
	}
	return c.ResolveFieldName(ctx, c.schema.ProjectsList, c.schema.Manager.Title)
}

func decodeJSON(resp *http.Response, dest any) error {
	if err := json.NewDecoder(resp.Body).Decode(dest); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}
