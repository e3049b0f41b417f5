package source

import (
	"bytes"
	"context"
	"encoding/json"
	stderrors "errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/charmbracelet/log"
	"github.com/google/uuid"

	"github.com/matzehuels/haview/pkg/buildinfo"
	"github.com/matzehuels/haview/pkg/errors"
	"github.com/matzehuels/haview/pkg/graph"
	"github.com/matzehuels/haview/pkg/observability"
)

// API paths.
const (
	PathConfig = "/api/config"
	PathGraph  = "/api/graph"
)

// RequestIDHeader carries a unique id per request for server-side logs.
const RequestIDHeader = "X-Request-ID"

const (
	defaultTimeout = 10 * time.Second
	maxErrorBody   = 4 << 10
)

// configBody is the JSON body of the config endpoint in both directions.
type configBody struct {
	Config *string `json:"config,omitempty"`
}

// HTTPClient is a Source backed by the haview API.
type HTTPClient struct {
	base     *url.URL
	http     *http.Client
	user     string
	password string
	logger   *log.Logger

	timeout    time.Duration
	hasTimeout bool
}

// ClientOption configures an HTTPClient.
type ClientOption func(*HTTPClient)

// WithBasicAuth sends HTTP Basic credentials with every request.
func WithBasicAuth(user, password string) ClientOption {
	return func(c *HTTPClient) {
		c.user = user
		c.password = password
	}
}

// WithHTTPClient replaces the underlying http.Client. The client is not
// modified; combined with WithTimeout a copy carries the timeout.
func WithHTTPClient(hc *http.Client) ClientOption {
	return func(c *HTTPClient) { c.http = hc }
}

// WithTimeout sets the per-request timeout.
func WithTimeout(d time.Duration) ClientOption {
	return func(c *HTTPClient) {
		c.timeout = d
		c.hasTimeout = true
	}
}

// WithClientLogger sets the logger.
func WithClientLogger(l *log.Logger) ClientOption {
	return func(c *HTTPClient) { c.logger = l }
}

// NewHTTPClient returns a client for the API rooted at baseURL.
func NewHTTPClient(baseURL string, opts ...ClientOption) (*HTTPClient, error) {
	if err := errors.ValidateURL(baseURL); err != nil {
		return nil, err
	}
	u, err := url.Parse(strings.TrimRight(baseURL, "/"))
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidInput, err, "invalid API URL %q", baseURL)
	}
	c := &HTTPClient{
		base:   u,
		http:   &http.Client{Timeout: defaultTimeout},
		logger: log.Default(),
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.hasTimeout && c.http.Timeout != c.timeout {
		hc := *c.http
		hc.Timeout = c.timeout
		c.http = &hc
	}
	return c, nil
}

// BaseURL returns the API root.
func (c *HTTPClient) BaseURL() string { return c.base.String() }

// LoadGraph fetches the topology graph.
func (c *HTTPClient) LoadGraph(ctx context.Context) (graph.Graph, error) {
	var g graph.Graph
	if err := c.do(ctx, http.MethodGet, PathGraph, nil, &g); err != nil {
		return graph.Graph{}, err
	}
	return g, nil
}

// LoadConfigText fetches the configuration text. A response without a
// config field yields "".
func (c *HTTPClient) LoadConfigText(ctx context.Context) (string, error) {
	var body configBody
	if err := c.do(ctx, http.MethodGet, PathConfig, nil, &body); err != nil {
		return "", err
	}
	if body.Config == nil {
		return "", nil
	}
	return *body.Config, nil
}

// SaveConfigText stores the configuration text.
func (c *HTTPClient) SaveConfigText(ctx context.Context, text string) error {
	return c.do(ctx, http.MethodPost, PathConfig, configBody{Config: &text}, nil)
}

func (c *HTTPClient) do(ctx context.Context, method, path string, in, out any) error {
	var body io.Reader
	if in != nil {
		data, err := json.Marshal(in)
		if err != nil {
			return errors.Wrap(errors.ErrCodeInternal, err, "encode %s body", path)
		}
		body = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.base.JoinPath(path).String(), body)
	if err != nil {
		return errors.Wrap(errors.ErrCodeInvalidInput, err, "build %s %s", method, path)
	}
	reqID := uuid.NewString()
	req.Header.Set(RequestIDHeader, reqID)
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", buildinfo.UserAgent())
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.user != "" || c.password != "" {
		req.SetBasicAuth(c.user, c.password)
	}

	host := c.base.Host
	observability.HTTP().OnRequest(ctx, method, host, path)
	c.logger.Debug("api request", "method", method, "path", path, "request_id", reqID)
	start := time.Now()

	resp, err := c.http.Do(req)
	if err != nil {
		observability.HTTP().OnError(ctx, method, host, path, err)
		code := errors.ErrCodeNetwork
		if stderrors.Is(err, context.DeadlineExceeded) || isTimeout(err) {
			code = errors.ErrCodeTimeout
		}
		return errors.Wrap(code, err, "%s %s failed", method, path)
	}
	defer resp.Body.Close()
	observability.HTTP().OnResponse(ctx, method, host, path, resp.StatusCode, time.Since(start))

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		data, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		se := &errors.StatusError{Method: method, Path: path, StatusCode: resp.StatusCode, Body: string(data)}
		return errors.Wrap(se.Code(), se, "%s %s returned %d", method, path, resp.StatusCode)
	}

	if out == nil {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return errors.Wrap(errors.ErrCodeInvalidFormat, err, "decode %s response", path)
	}
	return nil
}

func isTimeout(err error) bool {
	var t interface{ Timeout() bool }
	return stderrors.As(err, &t) && t.Timeout()
}

var _ Source = (*HTTPClient)(nil)

// String describes the client for logs.
func (c *HTTPClient) String() string { return fmt.Sprintf("api %s", c.base.Redacted()) }
