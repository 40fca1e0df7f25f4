// Copyright (c) 2025 Steve Taranto <staranto@gmail.com>.
// SPDX-License-Identifier: Apache-2.0

package output

import (
	"fmt"
	"os"
	"regexp"
	"sort"
	"strings"

	"github.com/apex/log"

	"github.com/staranto/placectl/internal/parser"
)

// Keys are the row fields that --filter and --sort can name.
var Keys = []string{"name", "address"}

// filterRegex splits a filter expression into key, operator and target. The
// operator is one of = ^ ~ < > @ or /, optionally prefixed with '!'.
var filterRegex = regexp.MustCompile(`^(.*?)(!?[=^~<>@/])(.*)$`)

// Row is one place in a result.
type Row struct {
	Name    string
	Address string
}

func (r Row) get(key string) string {
	if key == "address" {
		return r.Address
	}
	return r.Name
}

// RowsOf flattens result in document order.
func RowsOf(result *parser.PlaceResult) []Row {
	if result == nil {
		return nil
	}
	rows := make([]Row, 0, result.Len())
	result.Each(func(name, address string) {
		rows = append(rows, Row{Name: name, Address: address})
	})
	return rows
}

// Filter is a single parsed --filter expression.
type Filter struct {
	Key     string
	Negate  bool
	Operand string
	Target  string
}

// BuildFilters parses a comma separated filter spec. PLACECTL_FILTER_DELIM
// overrides the delimiter.
func BuildFilters(spec string) ([]Filter, error) {
	if spec == "" {
		return nil, nil
	}

	delim := ","
	if d, ok := os.LookupEnv("PLACECTL_FILTER_DELIM"); ok && d != "" {
		delim = d
	}

	var filters []Filter //nolint:prealloc
	for _, filterSpec := range strings.Split(spec, delim) {
		parts := filterRegex.FindStringSubmatch(filterSpec)
		if parts == nil {
			return nil, fmt.Errorf("invalid filter: %q", filterSpec)
		}

		key := strings.ToLower(strings.TrimSpace(parts[1]))
		if !isKey(key) {
			return nil, fmt.Errorf("filter key not found: %q (want one of %s)", parts[1], strings.Join(Keys, ", "))
		}

		operand := parts[2]
		negate := strings.HasPrefix(operand, "!")
		if negate {
			operand = strings.TrimPrefix(operand, "!")
		}

		if operand == "/" {
			if _, err := regexp.Compile(parts[3]); err != nil {
				return nil, fmt.Errorf("invalid regex %q: %w", parts[3], err)
			}
		}

		filters = append(filters, Filter{
			Key:     key,
			Negate:  negate,
			Operand: operand,
			Target:  parts[3],
		})
	}

	return filters, nil
}

// FilterRows returns the rows that match every filter, keeping order.
func FilterRows(rows []Row, filters []Filter) []Row {
	if len(filters) == 0 {
		return rows
	}

	var kept []Row
	for _, row := range rows {
		if applyFilters(row, filters) {
			kept = append(kept, row)
		}
	}
	return kept
}

func applyFilters(row Row, filters []Filter) bool {
	for _, filter := range filters {
		if !checkStringOperand(row.get(filter.Key), filter) {
			return false
		}
	}
	return true
}

// checkStringOperand evaluates a single filter against value.
func checkStringOperand(value string, filter Filter) bool {
	switch filter.Operand {
	case "=":
		return value == filter.Target == !filter.Negate
	case "~":
		return strings.EqualFold(value, filter.Target) == !filter.Negate
	case "^":
		return strings.HasPrefix(value, filter.Target) == !filter.Negate
	case ">":
		return value > filter.Target == !filter.Negate
	case "<":
		return value < filter.Target == !filter.Negate
	case "@":
		return strings.Contains(value, filter.Target) == !filter.Negate
	case "/":
		matched, err := regexp.MatchString(filter.Target, value)
		if err != nil {
			log.Error("invalid regex: " + filter.Target)
			return false
		}
		return matched == !filter.Negate
	default:
		log.Error("unsupported filtering operand: " + filter.Operand)
		return false
	}
}

// SortRows sorts rows in place by a comma separated list of keys. A leading
// '-' sorts that key descending. Comparison ignores case unless the key is
// prefixed with '!'. An empty spec keeps document order.
func SortRows(rows []Row, spec string) error {
	if spec == "" {
		return nil
	}

	type sortKey struct {
		key       string
		desc      bool
		sensitive bool
	}

	var keys []sortKey //nolint:prealloc
	for _, raw := range strings.Split(spec, ",") {
		k := sortKey{}
		raw = strings.TrimSpace(raw)
		for len(raw) > 0 && (raw[0] == '-' || raw[0] == '!') {
			if raw[0] == '-' {
				k.desc = true
			} else {
				k.sensitive = true
			}
			raw = raw[1:]
		}
		k.key = strings.ToLower(raw)
		if !isKey(k.key) {
			return fmt.Errorf("sort key not found: %q (want one of %s)", raw, strings.Join(Keys, ", "))
		}
		keys = append(keys, k)
	}

	sort.SliceStable(rows, func(i, j int) bool {
		for _, k := range keys {
			a, b := rows[i].get(k.key), rows[j].get(k.key)
			if !k.sensitive {
				a, b = strings.ToLower(a), strings.ToLower(b)
			}
			if a == b {
				continue
			}
			if k.desc {
				return a > b
			}
			return a < b
		}
		return false
	})

	return nil
}

func isKey(key string) bool {
	for _, k := range Keys {
		if k == key {
			return true
		}
	}
	return false
}
