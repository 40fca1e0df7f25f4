// Copyright (c) 2026 Steve Taranto <staranto@gmail.com>.
// SPDX-License-Identifier: Apache-2.0

// Package api talks to the places text search endpoint.
package api

import (
	"bytes"
	"context"
	"crypto/tls"
	"errors"
	"fmt"
	"net"
	"net/http"
	"net/url"
	"slices"
	"strings"
	"time"

	"github.com/apex/log"
	"github.com/hashicorp/go-cleanhttp"

	"github.com/staranto/placectl/internal/config"
	"github.com/staranto/placectl/internal/query"
)

var (
	// ErrTransport means no HTTP response was received at all.
	ErrTransport = errors.New("transport error")
	// ErrConnectionIssue means the endpoint answered with a 4xx or 5xx.
	ErrConnectionIssue = errors.New("connection issue")
	// ErrWrongFormat is returned for a response format outside config.Formats.
	ErrWrongFormat = errors.New("wrong response type")
	// ErrMissingKey is returned by NewClient when no API key is configured.
	ErrMissingKey = errors.New("api key is not set (api.key or PLACECTL_API_KEY)")
)

// ConnectionIssueError carries the HTTP status of a failed call.
type ConnectionIssueError struct {
	StatusCode int
}

func (e *ConnectionIssueError) Error() string {
	return fmt.Sprintf("Connection issue: HTTP %d", e.StatusCode)
}

func (e *ConnectionIssueError) Is(target error) bool {
	return target == ErrConnectionIssue
}

// TransportError wraps the cause of a call that produced no response.
type TransportError struct {
	Err error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("%s: %v", ErrTransport, e.Err)
}

func (e *TransportError) Unwrap() []error {
	return []error{ErrTransport, e.Err}
}

// RawResponse is an unparsed API response.
type RawResponse struct {
	Body []byte
	// StatusCode is the HTTP status of a live call, zero when served from
	// the cache.
	StatusCode int
	// Format is the format the body is in. For a live call that is the
	// requested format; for a cache hit it is detected from the body.
	Format    string
	FromCache bool
}

// Client executes search calls.
type Client struct {
	cfg        config.API
	httpClient *http.Client
}

// NewClient returns a Client for cfg. The connect timeout bounds dialing and
// the TLS handshake only; transfers are not bounded.
func NewClient(cfg config.API) (*Client, error) {
	if !slices.Contains(config.Formats, cfg.Format) {
		return nil, fmt.Errorf("%w: %s", ErrWrongFormat, cfg.Format)
	}
	if cfg.Key == "" {
		return nil, ErrMissingKey
	}

	timeout := cfg.ConnectTimeoutDuration()

	transport := cleanhttp.DefaultPooledTransport()
	transport.DialContext = (&net.Dialer{
		Timeout:   timeout,
		KeepAlive: 30 * time.Second, //nolint:mnd
	}).DialContext
	transport.TLSHandshakeTimeout = timeout

	if cfg.InsecureSkipVerify {
		log.Warn("TLS certificate verification is disabled for the places API (api.insecure_skip_verify)")
		transport.TLSClientConfig = &tls.Config{InsecureSkipVerify: true} //nolint:gosec
	}

	return &Client{
		cfg:        cfg,
		httpClient: &http.Client{Transport: transport},
	}, nil
}

// Config returns the API configuration the client was built with.
func (c *Client) Config() config.API {
	return c.cfg
}

// BuildURL renders <endpoint>/<format>?key=..&query=..&sensor=false. The
// query is already encoded and is used as is.
func BuildURL(cfg config.API, q *query.Request) string {
	params := [][2]string{
		{"key", url.QueryEscape(cfg.Key)},
		{"query", q.Query()},
		{"sensor", "false"},
	}

	var b strings.Builder
	b.WriteString(strings.TrimRight(cfg.Endpoint, "/?"))
	b.WriteString("/")
	b.WriteString(cfg.Format)
	b.WriteString("?")
	for i, p := range params {
		if i > 0 {
			b.WriteString("&")
		}
		b.WriteString(p[0])
		b.WriteString("=")
		b.WriteString(p[1])
	}

	return b.String()
}

// Execute performs a GET of rawURL.
func (c *Client) Execute(ctx context.Context, rawURL string) (*RawResponse, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	if c.cfg.Referer != "" {
		req.Header.Set("Referer", c.cfg.Referer)
	}

	started := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, &TransportError{Err: err}
	}
	defer resp.Body.Close()

	log.WithFields(log.Fields{
		"status":  resp.StatusCode,
		"elapsed": time.Since(started).Round(time.Millisecond),
	}).Debug("places api call")

	if resp.StatusCode >= 400 && resp.StatusCode < 600 {
		return nil, &ConnectionIssueError{StatusCode: resp.StatusCode}
	}

	var body bytes.Buffer
	if _, err := body.ReadFrom(resp.Body); err != nil {
		return nil, &TransportError{Err: fmt.Errorf("failed to read response: %w", err)}
	}

	return &RawResponse{
		Body:       body.Bytes(),
		StatusCode: resp.StatusCode,
		Format:     c.cfg.Format,
	}, nil
}
