// Copyright (c) 2026 Steve Taranto <staranto@gmail.com>.
// SPDX-License-Identifier: Apache-2.0

// Package dispatch decides, per query, whether to answer from the response
// cache or with a live API call.
package dispatch

import (
	"context"
	"errors"
	"fmt"

	"github.com/apex/log"

	"github.com/staranto/placectl/internal/api"
	"github.com/staranto/placectl/internal/cache"
	"github.com/staranto/placectl/internal/config"
	"github.com/staranto/placectl/internal/parser"
	"github.com/staranto/placectl/internal/query"
)

// ErrEmptyQuery is returned by Resolve for a missing or empty query.
var ErrEmptyQuery = errors.New("empty query")

// Fetcher executes a built URL. *api.Client implements it.
type Fetcher interface {
	Execute(ctx context.Context, rawURL string) (*api.RawResponse, error)
}

// Dispatcher resolves queries. A nil cache disables caching entirely.
type Dispatcher struct {
	cache  *cache.Cache
	client Fetcher
	cfg    config.API
}

// New returns a Dispatcher.
func New(cfg config.API, client Fetcher, c *cache.Cache) *Dispatcher {
	return &Dispatcher{
		cache:  c,
		client: client,
		cfg:    cfg,
	}
}

// Resolve returns the raw response for q. A fresh cache entry is returned as
// is. Otherwise the API is called and, only once that succeeds, the old entry
// is replaced by the new body. A failed call leaves any stale entry in place
// and returns the failure; stale data is never served in its stead.
func (d *Dispatcher) Resolve(ctx context.Context, q *query.Request) (*api.RawResponse, error) {
	if q == nil || q.Query() == "" {
		return nil, ErrEmptyQuery
	}

	if d.cache == nil {
		return d.fetch(ctx, q)
	}

	entry, err := d.cache.Lookup(ctx, q.Query())
	if err != nil {
		return nil, err
	}

	expired := true
	if entry != nil {
		if expired, err = d.cache.IsExpired(*entry); err != nil {
			return nil, err
		}
	}

	if !expired {
		body, err := d.cache.Read(ctx, *entry)
		if err != nil {
			return nil, err
		}
		// Entries are keyed on the query alone, so the body may predate a
		// change of api.format.
		format := parser.DetectFormat(body)
		if format == "" {
			format = d.cfg.Format
		}
		log.WithField("entry", entry.Name).Debugf("serving %q from cache as %s", q.Raw(), format)
		return &api.RawResponse{
			Body:      body,
			Format:    format,
			FromCache: true,
		}, nil
	}

	raw, err := d.fetch(ctx, q)
	if err != nil {
		return nil, err
	}

	if entry != nil {
		if err := d.cache.Delete(ctx, *entry); err != nil {
			log.WithError(err).Warnf("failed to remove stale cache entry %s", entry.Name)
		}
	}

	if written, err := d.cache.Write(ctx, q.Query(), raw.Body); err != nil {
		log.WithError(err).Warn("failed to cache response")
	} else if written != nil {
		log.Debugf("cached response at %s", written.Path)
	}

	return raw, nil
}

func (d *Dispatcher) fetch(ctx context.Context, q *query.Request) (*api.RawResponse, error) {
	log.Debugf("querying places api for %q", q.Raw())
	raw, err := d.client.Execute(ctx, api.BuildURL(d.cfg, q))
	if err != nil {
		return nil, fmt.Errorf("failed to query places api: %w", err)
	}
	return raw, nil
}

// Parse parses raw in its own format, falling back to the configured one.
func (d *Dispatcher) Parse(raw *api.RawResponse) (*parser.PlaceResult, error) {
	if raw == nil {
		return parser.NewPlaceResult(), nil
	}
	format := raw.Format
	if format == "" {
		format = d.cfg.Format
	}
	return parser.Parse(raw.Body, format)
}
