// Copyright (c) 2025 Steve Taranto <staranto@gmail.com>.
// SPDX-License-Identifier: Apache-2.0
// no-cloc

package output

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/staranto/placectl/internal/parser"
)

func testResult() *parser.PlaceResult {
	r := parser.NewPlaceResult()
	r.Set("Zebra Cafe", "3 Stripe Rd")
	r.Set("alpha bakery", "1 Main St")
	r.Set("Beta Bar", "2 Main St")
	return r
}

func names(rows []Row) []string {
	out := make([]string, 0, len(rows))
	for _, r := range rows {
		out = append(out, r.Name)
	}
	return out
}

func TestSortRows(t *testing.T) {
	tests := []struct {
		name      string
		spec      string
		wantOrder []string
		wantErr   bool
	}{
		{
			name:      "empty spec keeps document order",
			spec:      "",
			wantOrder: []string{"Zebra Cafe", "alpha bakery", "Beta Bar"},
		},
		{
			name:      "ascending by name",
			spec:      "name",
			wantOrder: []string{"alpha bakery", "Beta Bar", "Zebra Cafe"},
		},
		{
			name:      "descending by name",
			spec:      "-name",
			wantOrder: []string{"Zebra Cafe", "Beta Bar", "alpha bakery"},
		},
		{
			name:      "case sensitive",
			spec:      "!name",
			wantOrder: []string{"Beta Bar", "Zebra Cafe", "alpha bakery"},
		},
		{
			name:      "by address",
			spec:      "address",
			wantOrder: []string{"alpha bakery", "Beta Bar", "Zebra Cafe"},
		},
		{
			name:    "unknown key",
			spec:    "rating",
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rows := RowsOf(testResult())
			err := SortRows(rows, tt.spec)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.wantOrder, names(rows))
		})
	}
}

func TestBuildFilters(t *testing.T) {
	tests := []struct {
		name    string
		spec    string
		want    []Filter
		wantErr bool
	}{
		{name: "empty", spec: ""},
		{
			name: "contains",
			spec: "address@Main",
			want: []Filter{{Key: "address", Operand: "@", Target: "Main"}},
		},
		{
			name: "negated and multiple",
			spec: "name!^Z,address@St",
			want: []Filter{
				{Key: "name", Negate: true, Operand: "^", Target: "Z"},
				{Key: "address", Operand: "@", Target: "St"},
			},
		},
		{name: "no operand", spec: "name", wantErr: true},
		{name: "unknown key", spec: "rating>4", wantErr: true},
		{name: "bad regex", spec: "name/[", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := BuildFilters(tt.spec)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestBuildFilters_Delimiter(t *testing.T) {
	t.Setenv("PLACECTL_FILTER_DELIM", ";")

	got, err := BuildFilters("address@Main St, Springfield;name~beta bar")
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, "Main St, Springfield", got[0].Target)
}

func TestFilterRows(t *testing.T) {
	tests := []struct {
		spec string
		want []string
	}{
		{"address@Main", []string{"alpha bakery", "Beta Bar"}},
		{"name~beta bar", []string{"Beta Bar"}},
		{"name!~beta bar", []string{"Zebra Cafe", "alpha bakery"}},
		{"name/^[A-Z]", []string{"Zebra Cafe", "Beta Bar"}},
		{"name=Zebra Cafe", []string{"Zebra Cafe"}},
		{"address>2", []string{"Zebra Cafe", "Beta Bar"}},
		{"address<2", []string{"alpha bakery"}},
		{"name@nowhere", nil},
	}

	for _, tt := range tests {
		t.Run(tt.spec, func(t *testing.T) {
			filters, err := BuildFilters(tt.spec)
			require.NoError(t, err)
			got := FilterRows(RowsOf(testResult()), filters)
			if tt.want == nil {
				assert.Empty(t, got)
				return
			}
			assert.Equal(t, tt.want, names(got))
		})
	}
}

func TestEmit_JSON(t *testing.T) {
	var buf bytes.Buffer
	err := Emit(&buf, testResult(), Options{Format: "json", Sort: "name"})
	require.NoError(t, err)

	assert.JSONEq(t, `{"alpha bakery":"1 Main St","Beta Bar":"2 Main St","Zebra Cafe":"3 Stripe Rd"}`, buf.String())
	out := buf.String()
	assert.Less(t, strings.Index(out, "alpha bakery"), strings.Index(out, "Zebra Cafe"))
}

func TestEmit_YAML(t *testing.T) {
	var buf bytes.Buffer
	err := Emit(&buf, testResult(), Options{Format: "yaml", Filter: "address@Main"})
	require.NoError(t, err)

	assert.Equal(t, "alpha bakery: 1 Main St\nBeta Bar: 2 Main St\n", buf.String())
}

func TestEmit_Empty(t *testing.T) {
	tests := []struct {
		format string
		want   string
	}{
		{"json", "{}\n"},
		{"yaml", "{}\n"},
		{"text", ""},
	}

	for _, tt := range tests {
		t.Run(tt.format, func(t *testing.T) {
			var buf bytes.Buffer
			require.NoError(t, Emit(&buf, parser.NewPlaceResult(), Options{Format: tt.format}))
			assert.Equal(t, tt.want, buf.String())
		})
	}
}

func TestEmit_Text(t *testing.T) {
	var buf bytes.Buffer
	err := Emit(&buf, testResult(), Options{Format: "text", Titles: true, Padding: 2})
	require.NoError(t, err)

	lines := strings.Split(strings.TrimRight(buf.String(), "\n"), "\n")
	require.Len(t, lines, 4)
	assert.Contains(t, lines[0], "NAME")
	assert.Contains(t, lines[0], "ADDRESS")
	assert.Contains(t, lines[1], "Zebra Cafe")
	assert.Contains(t, lines[1], "3 Stripe Rd")
	assert.NotContains(t, buf.String(), "\x1b[", "no color unless asked")
}

func TestEmit_Errors(t *testing.T) {
	var buf bytes.Buffer
	assert.Error(t, Emit(&buf, testResult(), Options{Format: "csv"}))
	assert.Error(t, Emit(&buf, testResult(), Options{Format: "json", Filter: "bogus"}))
	assert.Error(t, Emit(&buf, testResult(), Options{Format: "json", Sort: "bogus"}))
	assert.Empty(t, buf.String())
}

func TestRaw(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, Raw(&buf, []byte("<xml/>")))
	assert.Equal(t, "<xml/>", buf.String())
}

func BenchmarkSortRows(b *testing.B) {
	base := RowsOf(testResult())

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		rows := make([]Row, len(base))
		copy(rows, base)
		_ = SortRows(rows, "-address,name")
	}
}
