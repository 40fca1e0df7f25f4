// Copyright (c) 2026 Steve Taranto <staranto@gmail.com>.
// SPDX-License-Identifier: Apache-2.0

package command

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/apex/log"
	"github.com/dustin/go-humanize"
	"github.com/urfave/cli/v3"

	"github.com/staranto/placectl/internal/meta"
	"github.com/staranto/placectl/internal/output"
	"github.com/staranto/placectl/internal/query"
)

// CacheLsCommandAction lists every cache entry with its age, size and
// whether it has outlived the freshness window.
func CacheLsCommandAction(ctx context.Context, cmd *cli.Command) error {
	cfg := configOf(cmd)
	c, err := RequireCache(ctx, cfg)
	if err != nil {
		return err
	}

	entries, err := c.List(ctx)
	if err != nil {
		return err
	}
	log.Debugf("%d cache entries", len(entries))

	rows := make([][]string, 0, len(entries))
	for _, e := range entries {
		age, state := "-", "malformed"
		if created, err := c.Created(e); err == nil {
			age = humanize.Time(created)
			state = "fresh"
			if expired, _ := c.IsExpired(e); expired {
				state = "stale"
			}
		}
		rows = append(rows, []string{e.Hash, age, humanize.Bytes(uint64(e.Size)), state, e.Path}) //nolint:gosec
	}

	w := writerOf(cmd)
	output.Table(w, []string{"HASH", "AGE", "SIZE", "STATE", "PATH"}, rows, output.Options{
		Color:   colorFor(cmd, w),
		Titles:  cmd.Bool("titles"),
		Padding: cfg.Padding,
		Colors:  cfg.Colors,
	})

	return nil
}

// CachePurgeCommandAction removes every stale entry.
func CachePurgeCommandAction(ctx context.Context, cmd *cli.Command) error {
	c, err := RequireCache(ctx, configOf(cmd))
	if err != nil {
		return err
	}

	removed, err := c.Purge(ctx)
	if err != nil {
		return err
	}

	fmt.Fprintf(writerOf(cmd), "removed %d stale %s (window %s)\n",
		removed, plural(removed, "entry", "entries"), c.Window().Round(time.Second))
	return nil
}

// CacheRmCommandAction removes the entry for the query named by the
// arguments, fresh or not.
func CacheRmCommandAction(ctx context.Context, cmd *cli.Command) error {
	q, err := query.New(map[string]string{
		query.Param: strings.Join(cmd.Args().Slice(), " "),
	})
	if err != nil {
		return fmt.Errorf("%w: usage: placectl cache rm <query...>", err)
	}

	c, err := RequireCache(ctx, configOf(cmd))
	if err != nil {
		return err
	}

	w := writerOf(cmd)
	removed := 0
	seen := map[string]bool{}
	for {
		e, err := c.Lookup(ctx, q.Query())
		if err != nil {
			return err
		}
		if e == nil || seen[e.Name] {
			break
		}
		seen[e.Name] = true
		if err := c.Delete(ctx, *e); err != nil {
			return err
		}
		fmt.Fprintf(w, "removed %s\n", e.Path)
		removed++
	}

	if removed == 0 {
		fmt.Fprintf(w, "no cache entry for %q\n", q.Raw())
	}
	return nil
}

// CacheCommandBuilder constructs the cli.Command for "cache" and its
// subcommands.
func CacheCommandBuilder(cmd *cli.Command, meta meta.Meta) *cli.Command {
	md := map[string]any{"meta": meta}

	return &cli.Command{
		Name:      "cache",
		Usage:     "inspect and maintain the response cache",
		UsageText: `placectl cache <ls|purge|rm> [options]`,
		Metadata:  md,
		Commands: []*cli.Command{
			{
				Name:     "ls",
				Usage:    "list cache entries",
				Metadata: md,
				Flags: []cli.Flag{
					&cli.BoolWithInverseFlag{
						Name:    "titles",
						Aliases: []string{"t"},
						Usage:   "show titles",
						Value:   meta.Config.Titles,
					},
					&cli.BoolWithInverseFlag{
						Name:    "color",
						Aliases: []string{"c"},
						Usage:   "enable colored text output",
						Value:   meta.Config.Color,
					},
				},
				Action: CacheLsCommandAction,
			},
			{
				Name:     "purge",
				Usage:    "remove stale cache entries",
				Metadata: md,
				Action:   CachePurgeCommandAction,
			},
			{
				Name:      "rm",
				Usage:     "remove the cache entry for a query",
				UsageText: `placectl cache rm <query...>`,
				Metadata:  md,
				Action:    CacheRmCommandAction,
			},
		},
	}
}

func plural(n int, one, many string) string {
	if n == 1 {
		return one
	}
	return many
}
