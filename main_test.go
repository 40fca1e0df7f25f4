// Copyright (c) 2026 Steve Taranto <staranto@gmail.com>.
// SPDX-License-Identifier: Apache-2.0
// no-cloc

package main

import (
	"bytes"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/staranto/placectl/internal/config"
	"github.com/staranto/placectl/internal/version"
)

func TestMangleArguments(t *testing.T) {
	cfg := config.Default()
	cfg.Sets = map[string]map[string][]string{
		"search": {
			"defaults": {"--output json"},
			"tidy":     {"--sort name", "--titles"},
		},
	}

	tests := []struct {
		name string
		args []string
		want []string
	}{
		{
			name: "defaults spliced after command",
			args: []string{"placectl", "search", "cafe"},
			want: []string{"placectl", "search", "--output", "json", "cafe"},
		},
		{
			name: "named set replaces defaults",
			args: []string{"placectl", "search", "@tidy", "cafe"},
			want: []string{"placectl", "search", "--sort", "name", "--titles", "cafe"},
		},
		{
			name: "command line follows set",
			args: []string{"placectl", "search", "-o", "yaml", "cafe"},
			want: []string{"placectl", "search", "--output", "json", "-o", "yaml", "cafe"},
		},
		{
			name: "unknown @word is search text",
			args: []string{"placectl", "search", "@home"},
			want: []string{"placectl", "search", "--output", "json", "@home"},
		},
		{
			name: "only the first @ selects",
			args: []string{"placectl", "search", "@tidy", "@home"},
			want: []string{"placectl", "search", "--sort", "name", "--titles", "@home"},
		},
		{
			name: "@ after separator is search text",
			args: []string{"placectl", "search", "--", "@tidy"},
			want: []string{"placectl", "search", "--output", "json", "--", "@tidy"},
		},
		{
			name: "set before separator still selects",
			args: []string{"placectl", "search", "@tidy", "--", "@tidy"},
			want: []string{"placectl", "search", "--sort", "name", "--titles", "--", "@tidy"},
		},
		{
			name: "command without sets",
			args: []string{"placectl", "cache", "ls"},
			want: []string{"placectl", "cache", "ls"},
		},
		{
			name: "help untouched",
			args: []string{"placectl", "search", "--help"},
			want: []string{"placectl", "search", "--help"},
		},
		{
			name: "global flag untouched",
			args: []string{"placectl", "--version"},
			want: []string{"placectl", "--version"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, mangleArguments(tt.args, cfg))
		})
	}
}

func TestRealMain_Version(t *testing.T) {
	var stdout, stderr bytes.Buffer
	code := realMain([]string{"placectl", "search", "--version"}, &stdout, &stderr)
	assert.Equal(t, 0, code)
	assert.Equal(t, version.Version+"\n", stdout.String())
}

func writeConfig(t *testing.T, endpoint string) {
	t.Helper()
	dir := t.TempDir()
	path := filepath.Join(dir, "placectl.yaml")
	body := fmt.Sprintf(`api:
  key: k
  endpoint: %s
  insecure_skip_verify: false
cache:
  dir: %s
output: json
`, endpoint, filepath.Join(dir, "cache"))
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	t.Setenv("PLACECTL_CFG", path)
}

func TestRealMain_Search(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`<r><status>OK</status><result><name>Joe's</name><formatted_address>1 Main St</formatted_address></result></r>`))
	}))
	defer srv.Close()
	writeConfig(t, srv.URL)

	var stdout, stderr bytes.Buffer
	code := realMain([]string{"placectl", "search", "cafe"}, &stdout, &stderr)
	require.Equal(t, 0, code, stderr.String())
	assert.JSONEq(t, `{"Joe's":"1 Main St"}`, stdout.String())
}

func TestRealMain_Failure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, "boom", http.StatusInternalServerError)
	}))
	defer srv.Close()
	writeConfig(t, srv.URL)

	var stdout, stderr bytes.Buffer
	code := realMain([]string{"placectl", "search", "cafe"}, &stdout, &stderr)
	assert.Equal(t, 2, code)
	assert.Contains(t, stderr.String(), "Error: ")
	assert.Contains(t, stderr.String(), "Connection issue: HTTP 500")
}

func TestRealMain_BadConfig(t *testing.T) {
	t.Setenv("PLACECTL_CFG", filepath.Join(t.TempDir(), "missing.yaml"))

	var stdout, stderr bytes.Buffer
	code := realMain([]string{"placectl", "search", "cafe"}, &stdout, &stderr)
	assert.Equal(t, 1, code)
	assert.Contains(t, stderr.String(), "config file not found")
}
