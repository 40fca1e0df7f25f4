// Copyright (c) 2026 Steve Taranto <staranto@gmail.com>.
// SPDX-License-Identifier: Apache-2.0

package dispatch

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/staranto/placectl/internal/api"
	"github.com/staranto/placectl/internal/cache"
	"github.com/staranto/placectl/internal/config"
	"github.com/staranto/placectl/internal/query"
)

const (
	cafeMD5  = "d2626f412da748e711ca4f4ae9428664"
	liveBody = `<PlaceSearchResponse><status>OK</status><result><name>Live Cafe</name><formatted_address>1 New St</formatted_address></result></PlaceSearchResponse>`
	oldBody  = `<PlaceSearchResponse><status>OK</status><result><name>Old Cafe</name><formatted_address>1 Old St</formatted_address></result></PlaceSearchResponse>`
)

var epoch = time.Date(2026, 3, 14, 15, 9, 26, 0, time.UTC)

type harness struct {
	dir    string
	calls  *atomic.Int32
	status *atomic.Int32
	d      *Dispatcher
}

func newHarness(t *testing.T) *harness {
	t.Helper()

	h := &harness{
		dir:    t.TempDir(),
		calls:  &atomic.Int32{},
		status: &atomic.Int32{},
	}
	h.status.Store(http.StatusOK)

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		h.calls.Add(1)
		assert.Equal(t, "cafe", r.URL.Query().Get("query"))
		assert.Equal(t, "false", r.URL.Query().Get("sensor"))
		code := int(h.status.Load())
		if code != http.StatusOK {
			http.Error(w, "boom", code)
			return
		}
		_, _ = w.Write([]byte(liveBody))
	}))
	t.Cleanup(srv.Close)

	cfg := config.API{
		Key:            "testKey",
		Endpoint:       srv.URL + "/textsearch",
		Format:         "xml",
		ConnectTimeout: 5,
	}
	client, err := api.NewClient(cfg)
	require.NoError(t, err)

	c, err := cache.New(cache.NewFileStore(h.dir),
		cache.WithWindow(time.Hour),
		cache.WithClock(func() time.Time { return epoch }))
	require.NoError(t, err)

	h.d = New(cfg, client, c)
	return h
}

func (h *harness) seed(t *testing.T, stamp, body string) string {
	t.Helper()
	path := filepath.Join(h.dir, cafeMD5+"_"+stamp+".txt")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func (h *harness) files(t *testing.T) []string {
	t.Helper()
	entries, err := os.ReadDir(h.dir)
	require.NoError(t, err)
	names := make([]string, 0, len(entries))
	for _, e := range entries {
		names = append(names, e.Name())
	}
	return names
}

func cafe(t *testing.T) *query.Request {
	t.Helper()
	q, err := query.New(map[string]string{query.Param: "cafe"})
	require.NoError(t, err)
	return q
}

func TestResolve_EmptyQuery(t *testing.T) {
	h := newHarness(t)

	_, err := h.d.Resolve(context.Background(), nil)
	assert.ErrorIs(t, err, ErrEmptyQuery)

	_, err = h.d.Resolve(context.Background(), &query.Request{})
	assert.ErrorIs(t, err, ErrEmptyQuery)
	assert.Zero(t, h.calls.Load())
}

func TestResolve_EmptyCacheCallsOnce(t *testing.T) {
	h := newHarness(t)

	raw, err := h.d.Resolve(context.Background(), cafe(t))
	require.NoError(t, err)

	assert.Equal(t, int32(1), h.calls.Load())
	assert.Equal(t, liveBody, string(raw.Body))
	assert.False(t, raw.FromCache)
	assert.Equal(t, []string{cafeMD5 + "_20260314150926.txt"}, h.files(t))
}

func TestResolve_FreshEntryNoCall(t *testing.T) {
	h := newHarness(t)
	h.seed(t, "20260314150000", oldBody)

	raw, err := h.d.Resolve(context.Background(), cafe(t))
	require.NoError(t, err)

	assert.Zero(t, h.calls.Load())
	assert.Equal(t, oldBody, string(raw.Body))
	assert.True(t, raw.FromCache)
	assert.Zero(t, raw.StatusCode)
}

func TestResolve_StaleEntryReplaced(t *testing.T) {
	h := newHarness(t)
	stale := h.seed(t, "20260314100000", oldBody)

	raw, err := h.d.Resolve(context.Background(), cafe(t))
	require.NoError(t, err)

	assert.Equal(t, int32(1), h.calls.Load())
	assert.Equal(t, liveBody, string(raw.Body))
	assert.NoFileExists(t, stale)
	assert.Equal(t, []string{cafeMD5 + "_20260314150926.txt"}, h.files(t))

	result, err := h.d.Parse(raw)
	require.NoError(t, err)
	addr, ok := result.Get("Live Cafe")
	assert.True(t, ok)
	assert.Equal(t, "1 New St", addr)
}

func TestResolve_FailureKeepsStaleEntry(t *testing.T) {
	h := newHarness(t)
	stale := h.seed(t, "20260314100000", oldBody)
	before, err := os.Stat(stale)
	require.NoError(t, err)

	h.status.Store(http.StatusInternalServerError)

	raw, err := h.d.Resolve(context.Background(), cafe(t))
	assert.Nil(t, raw)
	assert.ErrorIs(t, err, api.ErrConnectionIssue)

	var ci *api.ConnectionIssueError
	require.ErrorAs(t, err, &ci)
	assert.Equal(t, http.StatusInternalServerError, ci.StatusCode)

	after, err := os.Stat(stale)
	require.NoError(t, err)
	assert.Equal(t, before.ModTime(), after.ModTime())
	data, err := os.ReadFile(stale)
	require.NoError(t, err)
	assert.Equal(t, oldBody, string(data))
	assert.Len(t, h.files(t), 1)
}

func TestResolve_FailureOnEmptyCacheWritesNothing(t *testing.T) {
	h := newHarness(t)
	h.status.Store(http.StatusServiceUnavailable)

	_, err := h.d.Resolve(context.Background(), cafe(t))
	assert.ErrorIs(t, err, api.ErrConnectionIssue)
	assert.Empty(t, h.files(t))
}

func TestResolve_MalformedEntryName(t *testing.T) {
	h := newHarness(t)
	h.seed(t, "garbage", oldBody)

	_, err := h.d.Resolve(context.Background(), cafe(t))
	assert.ErrorIs(t, err, cache.ErrMalformedCacheName)
	assert.Zero(t, h.calls.Load())
}

func TestResolve_CacheUnavailable(t *testing.T) {
	h := newHarness(t)
	require.NoError(t, os.RemoveAll(h.dir))

	_, err := h.d.Resolve(context.Background(), cafe(t))
	assert.ErrorIs(t, err, cache.ErrCacheUnavailable)
	assert.Zero(t, h.calls.Load())
}

func TestResolve_NoCache(t *testing.T) {
	h := newHarness(t)
	d := New(h.d.cfg, h.d.client, nil)

	for range 2 {
		raw, err := d.Resolve(context.Background(), cafe(t))
		require.NoError(t, err)
		assert.Equal(t, liveBody, string(raw.Body))
	}
	assert.Equal(t, int32(2), h.calls.Load())
	assert.Empty(t, h.files(t))
}

func TestParse(t *testing.T) {
	h := newHarness(t)

	result, err := h.d.Parse(nil)
	require.NoError(t, err)
	assert.Zero(t, result.Len())

	result, err = h.d.Parse(&api.RawResponse{
		Body: []byte(`<PlaceSearchResponse><status>OK</status><result><name>Joe's</name><formatted_address>1 Main St</formatted_address></result></PlaceSearchResponse>`),
	})
	require.NoError(t, err)
	assert.Equal(t, []string{"Joe's"}, result.Names())

	result, err = h.d.Parse(&api.RawResponse{
		Body:   []byte(`{"status":"ZERO_RESULTS","results":[]}`),
		Format: "json",
	})
	require.NoError(t, err)
	assert.Zero(t, result.Len())
}

func TestResolve_CachedBodyKeepsItsFormat(t *testing.T) {
	h := newHarness(t)

	_, err := h.d.Resolve(context.Background(), cafe(t))
	require.NoError(t, err)
	require.Equal(t, int32(1), h.calls.Load())

	cfg := h.d.cfg
	cfg.Format = "json"
	client, err := api.NewClient(cfg)
	require.NoError(t, err)
	d := New(cfg, client, h.d.cache)

	raw, err := d.Resolve(context.Background(), cafe(t))
	require.NoError(t, err)
	assert.True(t, raw.FromCache)
	assert.Equal(t, "xml", raw.Format)
	assert.Equal(t, int32(1), h.calls.Load())

	result, err := d.Parse(raw)
	require.NoError(t, err)
	addr, ok := result.Get("Live Cafe")
	assert.True(t, ok)
	assert.Equal(t, "1 New St", addr)

	// A body that gives nothing away falls back to the configured format.
	h.seed(t, "20260314151000", "   ")
	raw, err = d.Resolve(context.Background(), cafe(t))
	require.NoError(t, err)
	assert.Equal(t, "json", raw.Format)
}
