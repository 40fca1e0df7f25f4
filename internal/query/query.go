// Copyright (c) 2026 Steve Taranto <staranto@gmail.com>.
// SPDX-License-Identifier: Apache-2.0

// Package query turns inbound search parameters into an encoded query that is
// safe to place in an API URL and to use as a cache key.
package query

import (
	"errors"
	"net/url"
	"strings"
)

// Param is the inbound parameter holding the search text.
const Param = "query"

// ErrEmptyInput is returned when the query parameter is missing, blank, or
// encodes to nothing.
var ErrEmptyInput = errors.New("empty query")

// Request is a validated, URL-encoded search query.
type Request struct {
	raw     string
	encoded string
}

// New extracts the "query" parameter from params and URL-encodes it.
func New(params map[string]string) (*Request, error) {
	raw := strings.TrimSpace(params[Param])
	if raw == "" {
		return nil, ErrEmptyInput
	}

	encoded := url.QueryEscape(raw)
	if encoded == "" {
		return nil, ErrEmptyInput
	}

	return &Request{raw: raw, encoded: encoded}, nil
}

// FromValues is New for URL-style parameters. Only the first value of the
// query parameter is considered.
func FromValues(values url.Values) (*Request, error) {
	return New(map[string]string{Param: values.Get(Param)})
}

// Query returns the encoded query.
func (r *Request) Query() string {
	if r == nil {
		return ""
	}
	return r.encoded
}

// Raw returns the trimmed clear-text query.
func (r *Request) Raw() string {
	if r == nil {
		return ""
	}
	return r.raw
}

func (r *Request) String() string {
	return r.Raw()
}
