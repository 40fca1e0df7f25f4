// Copyright © 2025 Steve Taranto staranto@gmail.com
// SPDX-License-Identifier: MIT

// Package output filters, sorts and emits place results as text tables, JSON
// or YAML.
package output
