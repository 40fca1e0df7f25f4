// Copyright (c) 2025 Steve Taranto <staranto@gmail.com>.
// SPDX-License-Identifier: Apache-2.0

package command

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"

	"github.com/apex/log"
	"github.com/urfave/cli/v3"

	"github.com/staranto/placectl/internal/api"
	"github.com/staranto/placectl/internal/aws"
	"github.com/staranto/placectl/internal/cache"
	"github.com/staranto/placectl/internal/config"
	"github.com/staranto/placectl/internal/dispatch"
	"github.com/staranto/placectl/internal/meta"
	"github.com/staranto/placectl/internal/output"
)

// ErrCacheDisabled is returned by the cache commands when cache.enabled is
// off.
var ErrCacheDisabled = errors.New("cache is disabled (cache.enabled or PLACECTL_CACHE)")

// ShortCircuitTLDR checks the --tldr flag and, if present and available,
// runs `tldr placectl-<subcmd>` and returns true so the caller can exit early.
func ShortCircuitTLDR(ctx context.Context, cmd *cli.Command, subcmd string) bool {
	if cmd.Bool("tldr") {
		if _, err := exec.LookPath("tldr"); err == nil {
			c := exec.CommandContext(ctx, "tldr", "placectl-"+subcmd)
			c.Stdout = os.Stdout
			c.Stderr = os.Stderr
			_ = c.Run()
		}
		return true
	}
	return false
}

// GetMeta returns the meta.Meta stored in the command's Metadata. If missing
// or of an unexpected type, it returns the zero value.
func GetMeta(cmd *cli.Command) meta.Meta {
	if cmd == nil || cmd.Metadata == nil {
		return meta.Meta{}
	}
	if m, ok := cmd.Metadata["meta"].(meta.Meta); ok {
		return m
	}
	return meta.Meta{}
}

// configOf returns the config carried in the command's meta, or the defaults.
func configOf(cmd *cli.Command) *config.Config {
	if m := GetMeta(cmd); m.Config != nil {
		return m.Config
	}
	return config.Default()
}

// writerOf returns where a command should write its results.
func writerOf(cmd *cli.Command) io.Writer {
	if root := cmd.Root(); root != nil && root.Writer != nil {
		return root.Writer
	}
	return os.Stdout
}

// NewCache builds the response cache described by cfg. It returns nil, nil
// when caching is disabled. A missing cache directory is created.
func NewCache(ctx context.Context, cfg *config.Config) (*cache.Cache, error) {
	if !cfg.Cache.Enabled {
		log.Debug("cache disabled")
		return nil, nil
	}

	var store cache.Store
	switch cfg.Cache.Backend {
	case "s3":
		client, err := aws.NewS3Client(ctx,
			aws.WithProfile(cfg.Cache.S3.Profile),
			aws.WithRegion(cfg.Cache.S3.Region),
			aws.WithEndpoint(cfg.Cache.S3.Endpoint),
		)
		if err != nil {
			return nil, err
		}
		store = cache.NewS3Store(client, cfg.Cache.S3.Bucket, cfg.Cache.S3.Prefix)
	default:
		fs := cache.NewFileStore(cfg.Cache.Dir)
		if err := fs.Ensure(); err != nil {
			return nil, fmt.Errorf("%w: %v", cache.ErrCacheUnavailable, err)
		}
		store = fs
	}

	log.WithFields(log.Fields{
		"backend": cfg.Cache.Backend,
		"ttl":     cfg.Cache.TTL,
	}).Debug("cache enabled")

	return cache.New(store,
		cache.WithLayout(cfg.Cache.DateFormat),
		cache.WithWindow(cfg.Cache.Window()),
		cache.WithDigest(cfg.Cache.Digest),
	)
}

// RequireCache is NewCache for commands that cannot run without one.
func RequireCache(ctx context.Context, cfg *config.Config) (*cache.Cache, error) {
	c, err := NewCache(ctx, cfg)
	if err != nil {
		return nil, err
	}
	if c == nil {
		return nil, ErrCacheDisabled
	}
	return c, nil
}

// NewDispatcher wires the API client and the cache for cfg.
func NewDispatcher(ctx context.Context, cfg *config.Config) (*dispatch.Dispatcher, error) {
	client, err := api.NewClient(cfg.API)
	if err != nil {
		return nil, err
	}

	c, err := NewCache(ctx, cfg)
	if err != nil {
		return nil, err
	}

	return dispatch.New(cfg.API, client, c), nil
}

// colorFor honors --color only when w is a terminal.
func colorFor(cmd *cli.Command, w io.Writer) bool {
	f, ok := w.(*os.File)
	return ok && cmd.Bool("color") && output.ColorEnabled(f)
}

// OutputOptions collects the output flags.
func OutputOptions(cmd *cli.Command, cfg *config.Config, w io.Writer) output.Options {
	return output.Options{
		Format:  cmd.String("output"),
		Filter:  cmd.String("filter"),
		Sort:    cmd.String("sort"),
		Color:   colorFor(cmd, w),
		Titles:  cmd.Bool("titles"),
		Padding: cfg.Padding,
		Colors:  cfg.Colors,
	}
}
