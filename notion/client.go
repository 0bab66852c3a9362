// Package notion is a small client for the Notion REST API covering the
// read-only endpoints a publishing front end needs.
package notion

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/cenkalti/backoff/v5"
	"golang.org/x/time/rate"
)

const (
	DefaultBaseURL = "https://api.notion.com/v1"
	APIVersion     = "2022-06-28"

	pageSize = 100
)

// Client talks to the Notion API. It is safe for concurrent use.
type Client struct {
	token    string
	baseURL  string
	http     *http.Client
	limiter  *rate.Limiter
	maxTries uint

	newBackOff func() backoff.BackOff
}

// ClientOption configures a Client.
type ClientOption func(*Client)

// WithBaseURL points the client at another API root, e.g. a test server.
func WithBaseURL(u string) ClientOption {
	return func(c *Client) { c.baseURL = u }
}

// WithHTTPClient replaces the default http.Client.
func WithHTTPClient(hc *http.Client) ClientOption {
	return func(c *Client) { c.http = hc }
}

// WithRateLimit sets the request rate. Notion allows an average of three
// requests per second per integration.
func WithRateLimit(limit rate.Limit, burst int) ClientOption {
	return func(c *Client) { c.limiter = rate.NewLimiter(limit, burst) }
}

// WithMaxTries bounds the attempts made for a retryable request.
func WithMaxTries(n uint) ClientOption {
	return func(c *Client) { c.maxTries = n }
}

// NewClient returns a client authenticated with an integration token.
func NewClient(token string, opts ...ClientOption) *Client {
	c := &Client{
		token:    token,
		baseURL:  DefaultBaseURL,
		http:     &http.Client{Timeout: 30 * time.Second},
		limiter:  rate.NewLimiter(3, 3),
		maxTries: 4,
		newBackOff: func() backoff.BackOff {
			return backoff.NewExponentialBackOff()
		},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// do sends one API request, retrying rate-limited and server errors with
// exponential backoff. out may be nil.
func (c *Client) do(ctx context.Context, method, path string, body, out any) error {
	var payload []byte
	if body != nil {
		var err error
		payload, err = json.Marshal(body)
		if err != nil {
			return fmt.Errorf("encode request: %w", err)
		}
	}

	var lastErr error
	op := func() ([]byte, error) {
		if err := c.limiter.Wait(ctx); err != nil {
			return nil, backoff.Permanent(err)
		}
		var r io.Reader
		if payload != nil {
			r = bytes.NewReader(payload)
		}
		req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, r)
		if err != nil {
			return nil, backoff.Permanent(fmt.Errorf("create request: %w", err))
		}
		req.Header.Set("Authorization", "Bearer "+c.token)
		req.Header.Set("Notion-Version", APIVersion)
		if payload != nil {
			req.Header.Set("Content-Type", "application/json")
		}

		resp, err := c.http.Do(req)
		if err != nil {
			lastErr = fmt.Errorf("http request: %w", err)
			return nil, lastErr
		}
		defer resp.Body.Close()

		data, err := io.ReadAll(resp.Body)
		if err != nil {
			lastErr = fmt.Errorf("read body: %w", err)
			return nil, lastErr
		}
		if resp.StatusCode >= 200 && resp.StatusCode < 300 {
			return data, nil
		}

		apiErr := &APIError{Status: resp.StatusCode}
		if jerr := json.Unmarshal(data, apiErr); jerr != nil || apiErr.Message == "" {
			apiErr.Message = http.StatusText(resp.StatusCode)
		}
		apiErr.Status = resp.StatusCode
		lastErr = apiErr
		if !apiErr.retryable() {
			return nil, backoff.Permanent(apiErr)
		}
		if secs, err := strconv.Atoi(resp.Header.Get("Retry-After")); err == nil && secs > 0 {
			return nil, backoff.RetryAfter(secs)
		}
		return nil, apiErr
	}

	data, err := backoff.Retry(ctx, op,
		backoff.WithBackOff(c.newBackOff()),
		backoff.WithMaxTries(c.maxTries),
	)
	if err != nil {
		var after *backoff.RetryAfterError
		if errors.As(err, &after) && lastErr != nil {
			err = lastErr
		}
		return fmt.Errorf("%s %s: %w", method, path, err)
	}
	if out == nil {
		return nil
	}
	if err := json.Unmarshal(data, out); err != nil {
		return fmt.Errorf("%s %s: decode response: %w", method, path, err)
	}
	return nil
}

// RetrievePage fetches a page and its properties.
func (c *Client) RetrievePage(ctx context.Context, id string) (*Page, error) {
	var p Page
	if err := c.do(ctx, http.MethodGet, "/pages/"+url.PathEscape(id), nil, &p); err != nil {
		return nil, err
	}
	return &p, nil
}

// RetrieveDatabase fetches a database and its schema.
func (c *Client) RetrieveDatabase(ctx context.Context, id string) (*Database, error) {
	var d Database
	if err := c.do(ctx, http.MethodGet, "/databases/"+url.PathEscape(id), nil, &d); err != nil {
		return nil, err
	}
	return &d, nil
}

// RetrieveBlock fetches a single block. Signed file URLs in the result are
// freshly issued.
func (c *Client) RetrieveBlock(ctx context.Context, id string) (*Block, error) {
	var b Block
	if err := c.do(ctx, http.MethodGet, "/blocks/"+url.PathEscape(id), nil, &b); err != nil {
		return nil, err
	}
	return &b, nil
}

// RetrieveUser fetches a workspace user.
func (c *Client) RetrieveUser(ctx context.Context, id string) (*User, error) {
	var u User
	if err := c.do(ctx, http.MethodGet, "/users/"+url.PathEscape(id), nil, &u); err != nil {
		return nil, err
	}
	return &u, nil
}

// ListBlockChildren returns every child of a block, following pagination.
func (c *Client) ListBlockChildren(ctx context.Context, id string) (BlockList, error) {
	all := BlockList{Object: "list"}
	cursor := ""
	for {
		q := url.Values{"page_size": {strconv.Itoa(pageSize)}}
		if cursor != "" {
			q.Set("start_cursor", cursor)
		}
		var page BlockList
		path := "/blocks/" + url.PathEscape(id) + "/children?" + q.Encode()
		if err := c.do(ctx, http.MethodGet, path, nil, &page); err != nil {
			return BlockList{}, err
		}
		all.Results = append(all.Results, page.Results...)
		if !page.HasMore || page.NextCursor == nil {
			return all, nil
		}
		cursor = *page.NextCursor
	}
}

// Sort orders database query results by a property or a timestamp.
type Sort struct {
	Property  string `json:"property,omitempty"`
	Timestamp string `json:"timestamp,omitempty"`
	Direction string `json:"direction"`
}

// Query is the body of a database query. Filter uses the API's JSON shape.
type Query struct {
	Filter      map[string]any `json:"filter,omitempty"`
	Sorts       []Sort         `json:"sorts,omitempty"`
	StartCursor string         `json:"start_cursor,omitempty"`
	PageSize    int            `json:"page_size,omitempty"`
}

// CheckboxEquals builds a filter matching rows whose checkbox is set to v.
func CheckboxEquals(property string, v bool) map[string]any {
	return map[string]any{"property": property, "checkbox": map[string]any{"equals": v}}
}

// RichTextEquals builds a filter matching rows whose text property equals v.
func RichTextEquals(property, v string) map[string]any {
	return map[string]any{"property": property, "rich_text": map[string]any{"equals": v}}
}

// QueryDatabase returns every row matching q, following pagination.
func (c *Client) QueryDatabase(ctx context.Context, id string, q Query) (DatabaseQuery, error) {
	all := DatabaseQuery{Object: "list"}
	q.PageSize = pageSize
	for {
		var page DatabaseQuery
		if err := c.do(ctx, http.MethodPost, "/databases/"+url.PathEscape(id)+"/query", q, &page); err != nil {
			return DatabaseQuery{}, err
		}
		all.Results = append(all.Results, page.Results...)
		if !page.HasMore || page.NextCursor == nil {
			return all, nil
		}
		q.StartCursor = *page.NextCursor
	}
}

type searchRequest struct {
	Query       string         `json:"query,omitempty"`
	Filter      map[string]any `json:"filter,omitempty"`
	StartCursor string         `json:"start_cursor,omitempty"`
	PageSize    int            `json:"page_size,omitempty"`
}

// Search finds pages and databases shared with the integration whose title
// matches query. objectType restricts results to "page" or "database" when set.
func (c *Client) Search(ctx context.Context, query, objectType string) ([]Object, error) {
	req := searchRequest{Query: query, PageSize: pageSize}
	if objectType != "" {
		req.Filter = map[string]any{"property": "object", "value": objectType}
	}
	var out []Object
	for {
		var page SearchResults
		if err := c.do(ctx, http.MethodPost, "/search", req, &page); err != nil {
			return nil, err
		}
		out = append(out, page.Results...)
		if !page.HasMore || page.NextCursor == nil {
			return out, nil
		}
		req.StartCursor = *page.NextCursor
	}
}

// Lookup resolves an id that may name either a page or a database.
func (c *Client) Lookup(ctx context.Context, id string) (Object, error) {
	p, err := c.RetrievePage(ctx, id)
	if err == nil {
		return Object{Kind: "page", Page: p}, nil
	}
	if !IsNotFound(err) {
		return Object{}, err
	}
	d, err := c.RetrieveDatabase(ctx, id)
	if err != nil {
		return Object{}, err
	}
	return Object{Kind: "database", Database: d}, nil
}
