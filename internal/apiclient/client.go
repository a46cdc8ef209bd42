// Package apiclient is the gateway to the MiniTicker REST backend.
package apiclient

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/url"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/spec-kit/miniticker/internal/observability"
	apperrors "github.com/spec-kit/miniticker/pkg/util/errorutil"
)

// Session supplies the bearer token and is cleared on a 401.
type Session interface {
	Token(ctx context.Context) string
	Clear(ctx context.Context) error
}

// UnauthorizedHandler is invoked after the session was cleared because the
// backend answered 401 to an authenticated call.
type UnauthorizedHandler func(ctx context.Context)

// Options configure a Client.
type Options struct {
	BaseURL        string
	Timeout        time.Duration
	Session        Session
	OnUnauthorized UnauthorizedHandler
	Transport      http.RoundTripper
	Logger         *zap.Logger
	Metrics        *observability.Metrics
}

// Client performs backend calls. It never retries.
type Client struct {
	baseURL        *url.URL
	http           *http.Client
	session        Session
	onUnauthorized UnauthorizedHandler
	logger         *zap.Logger
}

// New builds a client for opts.BaseURL.
func New(opts Options) (*Client, error) {
	base, err := url.Parse(strings.TrimRight(opts.BaseURL, "/"))
	if err != nil {
		return nil, fmt.Errorf("invalid API base URL: %w", err)
	}
	if base.Scheme == "" || base.Host == "" {
		return nil, fmt.Errorf("invalid API base URL %q", opts.BaseURL)
	}
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Client{
		baseURL: base,
		http: &http.Client{
			Timeout:   opts.Timeout,
			Transport: newLoggingTransport(opts.Transport, logger, opts.Metrics),
		},
		session:        opts.Session,
		onUnauthorized: opts.OnUnauthorized,
		logger:         logger,
	}, nil
}

// SetUnauthorizedHandler replaces the 401 hook.
func (c *Client) SetUnauthorizedHandler(h UnauthorizedHandler) {
	c.onUnauthorized = h
}

// Ping checks that the backend answers at all. Any HTTP status counts as
// reachable; the token is not sent.
func (c *Client) Ping(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodHead, c.baseURL.String(), nil)
	if err != nil {
		return err
	}
	resp, err := c.http.Do(req)
	if err != nil {
		return apperrors.NewTransportError(err)
	}
	_ = resp.Body.Close()
	return nil
}

// File is one file part of a multipart body.
type File struct {
	Field   string
	Name    string
	Content io.Reader
}

// Multipart is a form body. Fields keep insertion order.
type Multipart struct {
	fields [][2]string
	files  []File
}

// NewMultipart returns an empty form.
func NewMultipart() *Multipart {
	return &Multipart{}
}

// Field appends a text field.
func (m *Multipart) Field(name, value string) *Multipart {
	m.fields = append(m.fields, [2]string{name, value})
	return m
}

// File appends a file part; a nil file is skipped.
func (m *Multipart) File(f *File) *Multipart {
	if f != nil && f.Content != nil {
		m.files = append(m.files, *f)
	}
	return m
}

func (m *Multipart) encode() (io.Reader, string, error) {
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	for _, kv := range m.fields {
		if err := w.WriteField(kv[0], kv[1]); err != nil {
			return nil, "", err
		}
	}
	for _, f := range m.files {
		part, err := w.CreateFormFile(f.Field, f.Name)
		if err != nil {
			return nil, "", err
		}
		if _, err := io.Copy(part, f.Content); err != nil {
			return nil, "", err
		}
	}
	if err := w.Close(); err != nil {
		return nil, "", err
	}
	return &buf, w.FormDataContentType(), nil
}

// Request describes one backend call. Body is JSON encoded unless Form is set.
type Request struct {
	Method string
	Path   string
	Query  url.Values
	Body   any
	Form   *Multipart
}

// Do executes req and decodes a JSON response into out (when non-nil).
func (c *Client) Do(ctx context.Context, req Request, out any) error {
	httpReq, err := c.build(ctx, req)
	if err != nil {
		return err
	}
	authenticated := httpReq.Header.Get("Authorization") != ""

	resp, err := c.http.Do(httpReq)
	if err != nil {
		return apperrors.NewTransportError(err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return apperrors.NewTransportError(err)
	}

	if resp.StatusCode == http.StatusUnauthorized {
		c.handleUnauthorized(ctx, authenticated)
		return apperrors.FromResponse(resp.StatusCode, body)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return apperrors.FromResponse(resp.StatusCode, body)
	}

	if out == nil || len(bytes.TrimSpace(body)) == 0 {
		return nil
	}
	if err := json.Unmarshal(body, out); err != nil {
		return fmt.Errorf("decode %s %s: %w", req.Method, req.Path, err)
	}
	return nil
}

func (c *Client) build(ctx context.Context, req Request) (*http.Request, error) {
	target := *c.baseURL
	target.Path = c.baseURL.Path + "/" + strings.TrimLeft(req.Path, "/")
	if len(req.Query) > 0 {
		target.RawQuery = req.Query.Encode()
	}

	var (
		body        io.Reader
		contentType string
	)
	switch {
	case req.Form != nil:
		encoded, ct, err := req.Form.encode()
		if err != nil {
			return nil, fmt.Errorf("encode form: %w", err)
		}
		body, contentType = encoded, ct
	case req.Body != nil:
		payload, err := json.Marshal(req.Body)
		if err != nil {
			return nil, fmt.Errorf("encode body: %w", err)
		}
		body, contentType = bytes.NewReader(payload), "application/json"
	}

	method := req.Method
	if method == "" {
		method = http.MethodGet
	}
	httpReq, err := http.NewRequestWithContext(ctx, method, target.String(), body)
	if err != nil {
		return nil, err
	}
	httpReq.Header.Set("Accept", "application/json")
	if contentType != "" {
		httpReq.Header.Set("Content-Type", contentType)
	}
	if c.session != nil {
		if token := c.session.Token(ctx); token != "" {
			httpReq.Header.Set("Authorization", "Bearer "+token)
		}
	}
	return httpReq, nil
}

// handleUnauthorized clears the persisted session before returning, so a
// caller observing the 401 already sees a signed-out session.
func (c *Client) handleUnauthorized(ctx context.Context, authenticated bool) {
	if c.session != nil {
		if err := c.session.Clear(ctx); err != nil {
			c.logger.Warn("clear session after 401", zap.Error(err))
		}
	}
	if !authenticated {
		return
	}
	c.logger.Info("session rejected by backend")
	if c.onUnauthorized != nil {
		c.onUnauthorized(ctx)
	}
}

// Get issues a GET.
func (c *Client) Get(ctx context.Context, path string, query url.Values, out any) error {
	return c.Do(ctx, Request{Method: http.MethodGet, Path: path, Query: query}, out)
}

// Post issues a POST with a JSON body.
func (c *Client) Post(ctx context.Context, path string, body, out any) error {
	return c.Do(ctx, Request{Method: http.MethodPost, Path: path, Body: body}, out)
}

// Put issues a PUT with a JSON body.
func (c *Client) Put(ctx context.Context, path string, body, out any) error {
	return c.Do(ctx, Request{Method: http.MethodPut, Path: path, Body: body}, out)
}

// Patch issues a PATCH with an optional JSON body.
func (c *Client) Patch(ctx context.Context, path string, body, out any) error {
	return c.Do(ctx, Request{Method: http.MethodPatch, Path: path, Body: body}, out)
}

// Delete issues a DELETE.
func (c *Client) Delete(ctx context.Context, path string) error {
	return c.Do(ctx, Request{Method: http.MethodDelete, Path: path}, nil)
}

// SendForm issues method with a multipart body.
func (c *Client) SendForm(ctx context.Context, method, path string, form *Multipart, out any) error {
	return c.Do(ctx, Request{Method: method, Path: path, Form: form}, out)
}
