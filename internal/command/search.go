// Copyright (c) 2026 Steve Taranto <staranto@gmail.com>.
// SPDX-License-Identifier: Apache-2.0

package command

import (
	"context"
	"fmt"
	"strings"

	"github.com/apex/log"
	"github.com/urfave/cli/v3"

	"github.com/staranto/placectl/internal/meta"
	"github.com/staranto/placectl/internal/output"
	"github.com/staranto/placectl/internal/query"
)

// SearchCommandAction resolves the query named by the arguments, from the
// cache or the places API, and emits the parsed result.
func SearchCommandAction(ctx context.Context, cmd *cli.Command) error {
	log.Debugf("Executing action for %v", cmd.Args().Slice())

	if ShortCircuitTLDR(ctx, cmd, "search") {
		return nil
	}

	q, err := query.New(map[string]string{
		query.Param: strings.Join(cmd.Args().Slice(), " "),
	})
	if err != nil {
		return fmt.Errorf("%w: usage: placectl search <query...>", err)
	}

	cfg := configOf(cmd)
	d, err := NewDispatcher(ctx, cfg)
	if err != nil {
		return err
	}

	raw, err := d.Resolve(ctx, q)
	if err != nil {
		return err
	}
	log.WithFields(log.Fields{
		"cached": raw.FromCache,
		"bytes":  len(raw.Body),
	}).Debugf("resolved %q", q.Raw())

	w := writerOf(cmd)
	opts := OutputOptions(cmd, cfg, w)
	if opts.Format == "raw" {
		return output.Raw(w, raw.Body)
	}

	result, err := d.Parse(raw)
	if err != nil {
		return err
	}

	return output.Emit(w, result, opts)
}

// SearchCommandBuilder constructs the cli.Command for "search".
func SearchCommandBuilder(cmd *cli.Command, meta meta.Meta) *cli.Command {
	return &cli.Command{
		Name:      "search",
		Aliases:   []string{"s"},
		Usage:     "search for places",
		UsageText: `placectl search [options] <query...>`,
		Metadata: map[string]any{
			"meta": meta,
		},
		Flags: append([]cli.Flag{
			newTLDRFlag(),
		}, NewGlobalFlags(meta.Config, "search")...),
		Action: SearchCommandAction,
	}
}
