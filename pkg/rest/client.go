// Package rest exposes a formz.Catalog over HTTP and consumes one.
//
// The API is rooted at a base URL:
//
//	GET    {base}                  list, as {"data": [...]}
//	GET    {base}/{id}             one item
//	GET    {base}/verification/{id} true when id is assigned
//	POST   {base}                  create
//	PUT    {base}/{id}             update
//	DELETE {base}/{id}             delete
//
// Client implements formz.Catalog against that API and Handler serves it
// over any Catalog.
package rest

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

	"github.com/zoobzio/formz"
)

// DefaultTimeout bounds each request made by a Client built without
// WithHTTPClient.
const DefaultTimeout = 10 * time.Second

// StatusError is returned for responses the client has no sentinel for.
type StatusError struct {
	Method string
	URL    string
	Code   int
	Body   string
}

func (e *StatusError) Error() string {
	if e.Body == "" {
		return fmt.Sprintf("%s %s: %d %s", e.Method, e.URL, e.Code, http.StatusText(e.Code))
	}
	return fmt.Sprintf("%s %s: %d %s: %s", e.Method, e.URL, e.Code, http.StatusText(e.Code), e.Body)
}

// Client is a formz.Catalog backed by a remote catalog API.
type Client struct {
	base string
	http *http.Client
}

// ClientOption configures a Client.
type ClientOption func(*Client)

// WithHTTPClient replaces the default http.Client.
func WithHTTPClient(hc *http.Client) ClientOption {
	return func(c *Client) {
		c.http = hc
	}
}

// NewClient creates a Client for the API rooted at baseURL.
func NewClient(baseURL string, opts ...ClientOption) *Client {
	c := &Client{
		base: strings.TrimRight(baseURL, "/"),
		http: &http.Client{Timeout: DefaultTimeout},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

var _ formz.Catalog = (*Client)(nil)

func (c *Client) url(parts ...string) string {
	u := c.base
	for _, p := range parts {
		u += "/" + url.PathEscape(p)
	}
	return u
}

// do sends a request with an optional JSON body and decodes a 2xx JSON
// response into out when out is non-nil. 404 and 409 map to the formz
// sentinels.
func (c *Client) do(ctx context.Context, method, target string, body, out any) error {
	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("encode request: %w", err)
		}
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, target, reader)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("%s %s: %w", method, target, err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusNotFound:
		return formz.ErrNotFound
	case resp.StatusCode == http.StatusConflict:
		return formz.ErrExists
	case resp.StatusCode < 200 || resp.StatusCode > 299:
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return &StatusError{
			Method: method,
			URL:    target,
			Code:   resp.StatusCode,
			Body:   strings.TrimSpace(string(msg)),
		}
	}

	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode %s %s: %w", method, target, err)
	}
	return nil
}

// Exists asks the verification endpoint whether id is assigned.
func (c *Client) Exists(ctx context.Context, id string) (bool, error) {
	var exists bool
	if err := c.do(ctx, http.MethodGet, c.url("verification", id), nil, &exists); err != nil {
		return false, err
	}
	return exists, nil
}

// Get fetches one item.
func (c *Client) Get(ctx context.Context, id string) (formz.Item, error) {
	var item formz.Item
	if err := c.do(ctx, http.MethodGet, c.url(id), nil, &item); err != nil {
		return formz.Item{}, err
	}
	return item, nil
}

// List fetches every item.
func (c *Client) List(ctx context.Context) ([]formz.Item, error) {
	var resp ListResponse
	if err := c.do(ctx, http.MethodGet, c.url(), nil, &resp); err != nil {
		return nil, err
	}
	return resp.Data, nil
}

// Create posts a new item.
func (c *Client) Create(ctx context.Context, item formz.Item) error {
	return c.do(ctx, http.MethodPost, c.url(), item, nil)
}

// Update puts item under id.
func (c *Client) Update(ctx context.Context, id string, item formz.Item) error {
	return c.do(ctx, http.MethodPut, c.url(id), item, nil)
}

// Delete removes the item under id.
func (c *Client) Delete(ctx context.Context, id string) error {
	return c.do(ctx, http.MethodDelete, c.url(id), nil, nil)
}
