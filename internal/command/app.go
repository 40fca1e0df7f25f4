// Copyright © 2025 Steve Taranto staranto@gmail.com
// SPDX-License-Identifier: MIT
package command

import (
	"context"
	"errors"
	"sort"

	"github.com/urfave/cli/v3"

	"github.com/staranto/placectl/internal/config"
	"github.com/staranto/placectl/internal/meta"
)

// InitApp builds the placectl command tree around cfg.
func InitApp(ctx context.Context, args []string, cfg *config.Config) (*cli.Command, error) {
	if cfg == nil {
		return nil, errors.New("no configuration")
	}

	meta := meta.Meta{
		Args:    args,
		Config:  cfg,
		Context: ctx,
	}

	app := &cli.Command{
		Name:  "placectl",
		Usage: "Place search with a response cache",
		Flags: []cli.Flag{
			&cli.BoolFlag{
				Name:        "version",
				Aliases:     []string{"v"},
				Usage:       "placectl version info",
				HideDefault: true,
			},
		},
	}

	app.Commands = append(app.Commands,
		SearchCommandBuilder(app, meta),
		CacheCommandBuilder(app, meta),
		CompletionCommandBuilder(app, meta),
	)

	// Make sure flags are sorted for the --help text.
	for _, cmd := range app.Commands {
		sort.Slice(cmd.Flags, func(i, j int) bool {
			return cmd.Flags[i].Names()[0] < cmd.Flags[j].Names()[0]
		})
	}

	return app, nil
}
