// Package sharepoint is the list store backed by the SharePoint REST API.
package sharepoint

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/digital-factory/projectstatus-backend/config"
	"github.com/digital-factory/projectstatus-backend/internal/auth"
	"github.com/digital-factory/projectstatus-backend/internal/logging"
	"github.com/digital-factory/projectstatus-backend/internal/project_status/liststore"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/clientcredentials"
	"golang.org/x/time/rate"
)

const (
	acceptNoMetadata = "application/json;odata=nometadata"
	maxErrorBody     = 4 << 10
)

// Client talks to the two lists on one site.
type Client struct {
	siteURL    string
	schema     config.ListSchema
	httpClient *http.Client
	limiter    *rate.Limiter
	appTokens  oauth2.TokenSource
}

var _ liststore.Store = (*Client)(nil)

// New creates a client. App-only tokens are used when cfg.ClientID is set
// and the inbound request carried no bearer token of its own.
func New(cfg config.SharePointConfig, schema config.ListSchema) *Client {
	timeout := cfg.Timeout
	if timeout == 0 {
		timeout = 30 * time.Second
	}
	limit := rate.Inf
	if cfg.RatePerSec > 0 {
		limit = rate.Limit(cfg.RatePerSec)
	}
	burst := cfg.Burst
	if burst <= 0 {
		burst = 1
	}

	c := &Client{
		siteURL:    strings.TrimRight(cfg.SiteURL, "/"),
		schema:     schema,
		httpClient: &http.Client{Timeout: timeout},
		limiter:    rate.NewLimiter(limit, burst),
	}

	if cfg.ClientID != "" {
		tokenURL := cfg.TokenURL
		if tokenURL == "" {
			tokenURL = fmt.Sprintf("https://login.microsoftonline.com/%s/oauth2/v2.0/token", cfg.TenantID)
		}
		cc := clientcredentials.Config{
			ClientID:     cfg.ClientID,
			ClientSecret: cfg.ClientSecret,
			TokenURL:     tokenURL,
			Scopes:       []string{resourceScope(c.siteURL)},
		}
		tokenCtx := context.WithValue(context.Background(), oauth2.HTTPClient, c.httpClient)
		c.appTokens = cc.TokenSource(tokenCtx)
	}

	return c
}

// resourceScope turns https://host/sites/x into https://host/.default.
func resourceScope(siteURL string) string {
	u, err := url.Parse(siteURL)
	if err != nil || u.Host == "" {
		return siteURL + "/.default"
	}
	return u.Scheme + "://" + u.Host + "/.default"
}

// SiteURL is the site the lists live on.
func (c *Client) SiteURL() string {
	return c.siteURL
}

func (c *Client) listURL(list string) string {
	title := strings.ReplaceAll(list, "'", "''")
	return c.siteURL + "/_api/web/lists/getByTitle('" + url.PathEscape(title) + "')"
}

func (c *Client) itemsURL(list string, q url.Values) string {
	u := c.listURL(list) + "/items"
	if len(q) > 0 {
		u += "?" + q.Encode()
	}
	return u
}

func (c *Client) authorize(ctx context.Context, req *http.Request) error {
	if tok := auth.BearerToken(ctx); tok != "" {
		req.Header.Set("Authorization", "Bearer "+tok)
		return nil
	}
	if c.appTokens == nil {
		return nil
	}
	tok, err := c.appTokens.Token()
	if err != nil {
		return fmt.Errorf("acquire app token: %w", err)
	}
	tok.SetAuthHeader(req)
	return nil
}

// do sends one request and turns any failure into a *liststore.RemoteError.
// The caller owns the returned body on success.
func (c *Client) do(ctx context.Context, op, list, method, rawURL string, body any) (*http.Response, error) {
	fail := func(err error) error {
		return &liststore.RemoteError{Op: op, Site: c.siteURL, List: list, Err: err}
	}

	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return nil, fail(fmt.Errorf("marshal request: %w", err))
		}
		reader = bytes.NewReader(data)
	}

	if err := c.limiter.Wait(ctx); err != nil {
		return nil, fail(err)
	}

	req, err := http.NewRequestWithContext(ctx, method, rawURL, reader)
	if err != nil {
		return nil, fail(fmt.Errorf("create request: %w", err))
	}
	req.Header.Set("Accept", acceptNoMetadata)
	if body != nil {
		req.Header.Set("Content-Type", acceptNoMetadata)
	}
	if err := c.authorize(ctx, req); err != nil {
		return nil, fail(err)
	}

	log := logging.Op(ctx, op).WithField("list", list)
	start := time.Now()
	resp, err := c.httpClient.Do(req)
	duration := time.Since(start)
	if err != nil {
		recordCall(duration, err)
		log.WithError(err).Error("list store request failed")
		return nil, fail(err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		defer resp.Body.Close()
		text, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		recordCall(duration, fmt.Errorf("status %d", resp.StatusCode))
		log.WithField("status", resp.StatusCode).Warn("list store returned an error")
		return nil, &liststore.RemoteError{
			Op:         op,
			Site:       c.siteURL,
			List:       list,
			StatusCode: resp.StatusCode,
			Status:     resp.Status,
			Body:       strings.TrimSpace(string(text)),
		}
	}

	recordCall(duration, nil)
	log.WithField("latency", duration).Debug("list store request")
	return resp, nil
}

// page is a nometadata or minimal-metadata collection response.
type page[T any] struct {
	Value      []T    `json:"value"`
	NextLink   string `json:"odata.nextLink"`
	AtNextLink string `json:"@odata.nextLink"`
}

func (p page[T]) next() string {
	if p.AtNextLink != "" {
		return p.AtNextLink
	}
	return p.NextLink
}

func getPage[T any](ctx context.Context, c *Client, op, list, rawURL string) (page[T], error) {
	var p page[T]
	resp, err := c.do(ctx, op, list, http.MethodGet, rawURL, nil)
	if err != nil {
		return p, err
	}
	defer resp.Body.Close()

	if err := json.NewDecoder(resp.Body).Decode(&p); err != nil {
		return p, &liststore.RemoteError{Op: op, Site: c.siteURL, List: list, Err: fmt.Errorf("decode response: %w", err)}
	}
	return p, nil
}

// getAll follows next links until the collection is exhausted.
func getAll[T any](ctx context.Context, c *Client, op, list, rawURL string) ([]T, error) {
	out := make([]T, 0)
	for next := rawURL; next != ""; {
		p, err := getPage[T](ctx, c, op, list, next)
		if err != nil {
			return nil, err
		}
		out = append(out, p.Value...)
		next = p.next()
	}
	return out, nil
}
