// Package httpclient is a [store.Store] that talks to a remote document API
// such as the one served by store/httpapi.
//
// Requests are never retried; a failed call returns a NETWORK_ERROR and the
// caller decides whether to try again.
package httpclient

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/suratkita/suratkita/pkg/document"
	"github.com/suratkita/suratkita/pkg/errors"
	"github.com/suratkita/suratkita/pkg/lifecycle"
	"github.com/suratkita/suratkita/pkg/observability"
	"github.com/suratkita/suratkita/pkg/store"
)

// DefaultTimeout bounds each request.
const DefaultTimeout = 15 * time.Second

// Client calls the document API as Actor.
type Client struct {
	base  *url.URL
	http  *http.Client
	actor lifecycle.Actor
}

// New creates a client for the API rooted at baseURL.
func New(baseURL string, actor lifecycle.Actor, httpClient *http.Client) (*Client, error) {
	if err := errors.ValidateURL(baseURL); err != nil {
		return nil, err
	}
	u, err := url.Parse(strings.TrimSuffix(baseURL, "/"))
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidInput, err, "parse base url")
	}
	if httpClient == nil {
		httpClient = &http.Client{Timeout: DefaultTimeout}
	}
	return &Client{base: u, http: httpClient, actor: actor}, nil
}

// Get implements [store.Store].
func (c *Client) Get(ctx context.Context, id string) (*store.Record, error) {
	var rec store.Record
	if err := c.do(ctx, http.MethodGet, "/documents/"+url.PathEscape(id), nil, nil, &rec); err != nil {
		return nil, err
	}
	return &rec, nil
}

// Create implements [store.Store].
func (c *Client) Create(ctx context.Context, rec *store.Record) error {
	return c.do(ctx, http.MethodPost, "/documents", nil, rec, nil)
}

// Update implements [store.Store].
func (c *Client) Update(ctx context.Context, rec *store.Record) error {
	return c.do(ctx, http.MethodPut, "/documents/"+url.PathEscape(rec.ID), nil, rec, nil)
}

// SetStatus implements [store.Store].
func (c *Client) SetStatus(ctx context.Context, id string, status document.Status, note string) error {
	body := store.StatusUpdate{Status: status, Catatan: note}
	return c.do(ctx, http.MethodPut, "/documents/"+url.PathEscape(id), nil, body, nil)
}

// Delete implements [store.Store].
func (c *Client) Delete(ctx context.Context, id string) error {
	return c.do(ctx, http.MethodDelete, "/documents/"+url.PathEscape(id), nil, nil, nil)
}

// List implements [store.Store].
func (c *Client) List(ctx context.Context, f store.Filter) ([]store.Record, error) {
	q := url.Values{}
	if f.Status != "" {
		q.Set("status", string(f.Status))
	}
	if f.Jenis != "" {
		q.Set("jenis", string(f.Jenis))
	}
	if f.OwnerID != "" {
		q.Set("ownerId", f.OwnerID)
	}
	if f.Limit > 0 {
		q.Set("limit", strconv.Itoa(f.Limit))
	}
	var recs []store.Record
	if err := c.do(ctx, http.MethodGet, "/documents", q, nil, &recs); err != nil {
		return nil, err
	}
	return recs, nil
}

// Close releases idle connections.
func (c *Client) Close() error {
	c.http.CloseIdleConnections()
	return nil
}

func (c *Client) do(ctx context.Context, method, path string, query url.Values, in, out any) error {
	u := *c.base
	u.Path = c.base.Path + path
	u.RawQuery = query.Encode()

	var body io.Reader
	if in != nil {
		data, err := json.Marshal(in)
		if err != nil {
			return errors.Wrap(errors.ErrCodeInternal, err, "encode request")
		}
		body = bytes.NewReader(data)
	}
	req, err := http.NewRequestWithContext(ctx, method, u.String(), body)
	if err != nil {
		return errors.Wrap(errors.ErrCodeInternal, err, "build request")
	}
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set(store.HeaderActorRole, string(c.actor.Role))
	req.Header.Set(store.HeaderActorID, c.actor.ID)

	hooks := observability.HTTP()
	hooks.OnRequest(ctx, method, u.Host, u.Path)
	start := time.Now()
	resp, err := c.http.Do(req)
	if err != nil {
		hooks.OnError(ctx, method, u.Host, u.Path, err)
		if ctx.Err() != nil {
			return errors.Wrap(errors.ErrCodeCanceled, ctx.Err(), "%s %s", method, path)
		}
		return errors.Wrap(errors.ErrCodeNetwork, err, "%s %s", method, path)
	}
	defer resp.Body.Close()
	hooks.OnResponse(ctx, method, u.Host, u.Path, resp.StatusCode, time.Since(start))

	if resp.StatusCode >= 300 {
		return responseError(resp)
	}
	if out == nil {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return errors.Wrap(errors.ErrCodeNetwork, err, "decode %s %s response", method, path)
	}
	return nil
}

func responseError(resp *http.Response) error {
	var eb store.ErrorBody
	data, _ := io.ReadAll(io.LimitReader(resp.Body, 1<<16))
	if json.Unmarshal(data, &eb) == nil && eb.Code != "" {
		return errors.New(eb.Code, "%s", eb.Message)
	}
	return errors.New(store.CodeForStatus(resp.StatusCode), "document api returned %s", resp.Status)
}

var _ store.Store = (*Client)(nil)
