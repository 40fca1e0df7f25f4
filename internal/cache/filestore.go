// Copyright (c) 2025 Steve Taranto <staranto@gmail.com>.
// SPDX-License-Identifier: Apache-2.0

package cache

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
)

// FileStore keeps entries as plain files in a single directory.
type FileStore struct {
	dir string
}

// NewFileStore returns a FileStore rooted at dir. The directory is not
// created; see Ensure.
func NewFileStore(dir string) *FileStore {
	return &FileStore{dir: dir}
}

// Dir returns the cache directory.
func (s *FileStore) Dir() string {
	return s.dir
}

// Ensure creates the cache directory if it does not exist.
func (s *FileStore) Ensure() error {
	if err := os.MkdirAll(s.dir, 0o755); err != nil { //nolint:mnd
		return fmt.Errorf("failed to create cache directory: %w", err)
	}
	return nil
}

func (s *FileStore) Check(_ context.Context) error {
	info, err := os.Stat(s.dir)
	if err != nil {
		return fmt.Errorf("%w: %s: %v", ErrCacheUnavailable, s.dir, err)
	}
	if !info.IsDir() {
		return fmt.Errorf("%w: %s is not a directory", ErrCacheUnavailable, s.dir)
	}
	if err := checkAccess(s.dir); err != nil {
		return fmt.Errorf("%w: %s: %v", ErrCacheUnavailable, s.dir, err)
	}
	return nil
}

func (s *FileStore) List(_ context.Context) ([]Object, error) {
	dirEntries, err := os.ReadDir(s.dir)
	if err != nil {
		return nil, err
	}

	objects := make([]Object, 0, len(dirEntries))
	for _, de := range dirEntries {
		if de.IsDir() {
			continue
		}
		var size int64
		if info, err := de.Info(); err == nil {
			size = info.Size()
		}
		objects = append(objects, Object{Name: de.Name(), Size: size})
	}
	return objects, nil
}

func (s *FileStore) Read(_ context.Context, name string) ([]byte, error) {
	return os.ReadFile(s.Location(name))
}

func (s *FileStore) Write(_ context.Context, name string, data []byte) error {
	return os.WriteFile(s.Location(name), data, os.FileMode(0o600)) //nolint:mnd
}

func (s *FileStore) Remove(_ context.Context, name string) error {
	err := os.Remove(s.Location(name))
	if err != nil && !errors.Is(err, fs.ErrNotExist) {
		return err
	}
	return nil
}

func (s *FileStore) Location(name string) string {
	return filepath.Join(s.dir, name)
}
