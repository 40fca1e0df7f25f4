// Copyright (c) 2026 Steve Taranto <staranto@gmail.com>.
// SPDX-License-Identifier: Apache-2.0

package cache

import "context"

// Object is a named blob as reported by a Store listing.
type Object struct {
	Name string
	Size int64
}

// Store is the flat namespace a Cache keeps its entries in.
type Store interface {
	// Check fails with ErrCacheUnavailable if the store cannot be listed,
	// read, and written.
	Check(ctx context.Context) error
	List(ctx context.Context) ([]Object, error)
	Read(ctx context.Context, name string) ([]byte, error)
	// Write creates or overwrites name.
	Write(ctx context.Context, name string, data []byte) error
	// Remove deletes name. A missing name is not an error.
	Remove(ctx context.Context, name string) error
	// Location renders where name lives, for logs and listings.
	Location(name string) string
}
