// Copyright (c) 2025 Steve Taranto <staranto@gmail.com>.
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/apex/log"

	"github.com/staranto/placectl/internal/command"
	"github.com/staranto/placectl/internal/config"
	mylog "github.com/staranto/placectl/internal/log"
	"github.com/staranto/placectl/internal/version"
)

var ctx = context.Background()

func main() {
	os.Exit(realMain(os.Args, os.Stdout, os.Stderr))
}

func realMain(args []string, stdout, stderr io.Writer) int {
	mylog.InitLogger()

	if len(args) < 2 {
		fmt.Fprintln(stderr, "No command specified.")
		args = append(args, "--help")
	}

	// Short-circuit --version/-v.
	for _, a := range args[1:] {
		if a == "--" {
			break
		}
		if a == "--version" || a == "-v" {
			fmt.Fprintln(stdout, version.Version)
			return 0
		}
	}

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(stderr, "Error: %v\n", err)
		return 1
	}

	args = mangleArguments(args, cfg)

	app, err := command.InitApp(ctx, args, cfg)
	if err != nil {
		fmt.Fprintf(stderr, "Error: %v\n", err)
		return 1
	}
	app.Writer = stdout
	app.ErrWriter = stderr

	if err := app.Run(ctx, args); err != nil {
		fmt.Fprintf(stderr, "Error: %v\n", err)
		return 2
	}

	return 0
}

// mangleArguments splices a named argument set from the config in right after
// the command. The first "@name" naming a defined sets.<command>.<name> selects
// it and is removed; without one, sets.<command>.defaults is used if present.
// Any other "@word", and everything after "--", is left alone. Spliced
// arguments come first so that anything on the command line overrides them.
func mangleArguments(args []string, cfg *config.Config) []string {
	if len(args) < 2 || strings.HasPrefix(args[1], "-") {
		return args
	}

	// Short-circuit for --help/-h.
	for _, a := range args {
		if a == "--help" || a == "-h" {
			return args
		}
	}

	cmdName := args[1]
	set, named := "defaults", false

	rest := make([]string, 0, len(args)-2)
	for i, a := range args[2:] {
		if a == "--" {
			rest = append(rest, args[2+i:]...)
			break
		}
		if !named && strings.HasPrefix(a, "@") && len(a) > 1 && cfg.HasArgSet(cmdName, a[1:]) {
			set, named = a[1:], true
			continue
		}
		rest = append(rest, a)
	}

	setArgs := cfg.ArgSet(cmdName, set)

	mangled := make([]string, 0, len(args)+len(setArgs))
	mangled = append(mangled, args[:2]...)
	mangled = append(mangled, setArgs...)
	mangled = append(mangled, rest...)

	log.Debugf("set=%s, args=%v", set, mangled)
	return mangled
}
