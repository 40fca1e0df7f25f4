// Copyright (c) 2025 Steve Taranto <staranto@gmail.com>.
// SPDX-License-Identifier: Apache-2.0

package cache

import (
	"context"
	"crypto/md5"
	"crypto/sha1"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"hash"
	"sort"
	"strings"
	"time"

	"github.com/apex/log"
)

// Suffix terminates every entry name.
const Suffix = ".txt"

var (
	// ErrCacheUnavailable means the cache location is missing or cannot be
	// read and written.
	ErrCacheUnavailable = errors.New("cache unavailable")
	// ErrMalformedCacheName means an entry name has no parseable timestamp.
	ErrMalformedCacheName = errors.New("malformed cache name")
	// ErrUnknownDigest is returned by New for an unsupported digest name.
	ErrUnknownDigest = errors.New("unknown digest")
)

var digests = map[string]func() hash.Hash{
	"md5":    md5.New,
	"sha1":   sha1.New,
	"sha256": sha256.New,
}

// NameError carries the offending entry name for ErrMalformedCacheName.
type NameError struct {
	Name string
	Err  error
}

func (e *NameError) Error() string {
	return fmt.Sprintf("%s: %q: %v", ErrMalformedCacheName, e.Name, e.Err)
}

func (e *NameError) Unwrap() []error {
	return []error{ErrMalformedCacheName, e.Err}
}

// Entry is a single cached response.
type Entry struct {
	// Name is <Hash>_<Stamp>.txt.
	Name string
	// Hash is the hex digest of the encoded query.
	Hash string
	// Stamp is the raw timestamp segment of Name.
	Stamp string
	// Path is where the store keeps the entry, for display.
	Path string
	// Size is the payload size in bytes, when the store reports it.
	Size int64
}

// Cache maps queries to entries in a Store.
type Cache struct {
	store  Store
	layout string
	window time.Duration
	digest func() hash.Hash
	now    func() time.Time
}

type options struct {
	layout string
	window time.Duration
	digest string
	now    func() time.Time
}

// Option customizes a Cache.
type Option func(*options)

// WithLayout sets the Go time layout used for the timestamp segment.
// Defaults to 20060102150405.
func WithLayout(layout string) Option {
	return func(o *options) { o.layout = layout }
}

// WithWindow sets the freshness window. Defaults to one hour.
func WithWindow(d time.Duration) Option {
	return func(o *options) { o.window = d }
}

// WithDigest selects md5 (default), sha1 or sha256.
func WithDigest(name string) Option {
	return func(o *options) { o.digest = name }
}

// WithClock replaces time.Now.
func WithClock(now func() time.Time) Option {
	return func(o *options) { o.now = now }
}

// New returns a Cache on top of store.
func New(store Store, opts ...Option) (*Cache, error) {
	o := options{
		layout: "20060102150405",
		window: time.Hour,
		digest: "md5",
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(&o)
	}

	d, ok := digests[o.digest]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownDigest, o.digest)
	}
	// "_" splits names; a separator would nest the entry in a directory.
	if o.layout == "" || strings.ContainsAny(o.layout, `_/\`) {
		return nil, fmt.Errorf("invalid cache date layout %q", o.layout)
	}

	return &Cache{
		store:  store,
		layout: o.layout,
		window: o.window,
		digest: d,
		now:    o.now,
	}, nil
}

// Store returns the underlying store.
func (c *Cache) Store() Store {
	return c.store
}

// Window returns the freshness window.
func (c *Cache) Window() time.Duration {
	return c.window
}

// Hash returns the hex digest used to key q.
func (c *Cache) Hash(q string) string {
	h := c.digest()
	_, _ = h.Write([]byte(q))
	return hex.EncodeToString(h.Sum(nil))
}

// Lookup finds the entry for q. It returns nil, nil when there is none. If
// several entries share the digest, e.g. after an interrupted replace, the one
// with the newest timestamp wins and unparseable names rank oldest.
func (c *Cache) Lookup(ctx context.Context, q string) (*Entry, error) {
	entries, err := c.List(ctx)
	if err != nil {
		return nil, err
	}

	key := c.Hash(q)

	var (
		best     *Entry
		bestTime time.Time
	)
	for i := range entries {
		e := &entries[i]
		if e.Hash != key {
			continue
		}
		t, err := c.Created(*e)
		if err != nil {
			t = time.Time{}
		}
		if best == nil || t.After(bestTime) || (t.Equal(bestTime) && e.Name > best.Name) {
			best, bestTime = e, t
		}
	}

	if best != nil {
		log.WithField("entry", best.Name).Debug("cache lookup hit")
	}
	return best, nil
}

// Created parses the timestamp segment of e.
func (c *Cache) Created(e Entry) (time.Time, error) {
	if e.Stamp == "" || !strings.HasSuffix(e.Name, Suffix) {
		return time.Time{}, &NameError{Name: e.Name, Err: errors.New("no timestamp segment")}
	}
	t, err := time.ParseInLocation(c.layout, e.Stamp, time.UTC)
	if err != nil {
		return time.Time{}, &NameError{Name: e.Name, Err: err}
	}
	return t, nil
}

// IsExpired reports whether e is at least as old as the freshness window.
func (c *Cache) IsExpired(e Entry) (bool, error) {
	created, err := c.Created(e)
	if err != nil {
		return false, err
	}
	return c.now().UTC().Sub(created) >= c.window, nil
}

// Read returns the full payload of e.
func (c *Cache) Read(ctx context.Context, e Entry) ([]byte, error) {
	data, err := c.store.Read(ctx, e.Name)
	if err != nil {
		return nil, fmt.Errorf("failed to read cache entry %s: %w", e.Name, err)
	}
	if data == nil {
		data = []byte{}
	}
	return data, nil
}

// Write stores payload for q under a freshly stamped name. An empty payload
// is not cached and yields a nil entry.
func (c *Cache) Write(ctx context.Context, q string, payload []byte) (*Entry, error) {
	if len(payload) == 0 {
		return nil, nil
	}

	hash := c.Hash(q)
	stamp := c.now().UTC().Format(c.layout)
	name := hash + "_" + stamp + Suffix

	if err := c.store.Write(ctx, name, payload); err != nil {
		return nil, fmt.Errorf("failed to write to cache: %w", err)
	}

	return &Entry{
		Name:  name,
		Hash:  hash,
		Stamp: stamp,
		Path:  c.store.Location(name),
		Size:  int64(len(payload)),
	}, nil
}

// Delete removes e. Removing an entry that is already gone is not an error.
func (c *Cache) Delete(ctx context.Context, e Entry) error {
	if err := c.store.Remove(ctx, e.Name); err != nil {
		return fmt.Errorf("failed to delete cache entry %s: %w", e.Name, err)
	}
	return nil
}

// List returns every entry in the store, sorted by name. Objects that do not
// look like cache entries are ignored.
func (c *Cache) List(ctx context.Context) ([]Entry, error) {
	if err := c.store.Check(ctx); err != nil {
		return nil, err
	}

	objects, err := c.store.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrCacheUnavailable, err)
	}

	entries := make([]Entry, 0, len(objects))
	for _, o := range objects {
		hash, stamp, ok := splitName(o.Name)
		if !ok {
			continue
		}
		entries = append(entries, Entry{
			Name:  o.Name,
			Hash:  hash,
			Stamp: stamp,
			Path:  c.store.Location(o.Name),
			Size:  o.Size,
		})
	}

	sort.Slice(entries, func(i, j int) bool { return entries[i].Name < entries[j].Name })
	return entries, nil
}

// Purge removes every expired entry and returns how many were removed.
// Entries with malformed names are left alone.
func (c *Cache) Purge(ctx context.Context) (int, error) {
	entries, err := c.List(ctx)
	if err != nil {
		return 0, err
	}

	removed := 0
	for _, e := range entries {
		expired, err := c.IsExpired(e)
		if err != nil {
			log.WithError(err).Warnf("skipping cache entry %s", e.Name)
			continue
		}
		if !expired {
			continue
		}
		if err := c.Delete(ctx, e); err != nil {
			log.WithError(err).Warnf("failed to remove cache entry %s", e.Name)
			continue
		}
		log.Debugf("removed cache entry %s", e.Path)
		removed++
	}

	return removed, nil
}

// splitName splits <hash>_<stamp>.txt. The stamp is empty when the suffix is
// missing so that Created reports the name as malformed.
func splitName(name string) (hash, stamp string, ok bool) {
	if strings.HasPrefix(name, ".") {
		return "", "", false
	}
	idx := strings.Index(name, "_")
	if idx <= 0 {
		return "", "", false
	}
	hash = name[:idx]
	rest := name[idx+1:]
	if strings.HasSuffix(rest, Suffix) {
		stamp = strings.TrimSuffix(rest, Suffix)
	}
	return hash, stamp, true
}
