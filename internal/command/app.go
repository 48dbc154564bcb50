// Copyright © 2025 Steve Taranto staranto@gmail.com
// SPDX-License-Identifier: MIT
package command

import (
	"context"
	"os"
	"sort"
	"strings"

	"github.com/urfave/cli/v3"

	"github.com/staranto/stashgo/internal/cacheutil"
	"github.com/staranto/stashgo/internal/config"
	"github.com/staranto/stashgo/internal/meta"
)

func InitApp(ctx context.Context, args []string) (*cli.Command, error) {
	sd, _ := os.Getwd()

	// The arg[1] immediately following the binary (arg[0]) is the stash
	// subcommand and also represents the namespace key to be used when retrieving
	// config values. arg[1] could be -h/--help, so ignore it if it appears to be
	// a flag.
	var ns string
	if len(args) > 1 && !strings.HasPrefix(args[1], "-") {
		ns = args[1]
	}
	config.Config.Namespace = ns

	cacheDir, _ := cacheutil.Dir("")

	meta := meta.Meta{
		Args:        args,
		Config:      config.Config,
		Context:     ctx,
		CacheDir:    cacheDir,
		StartingDir: sd,
	}

	app := &cli.Command{
		Name:  "stash",
		Usage: "TTL-gated file cache",
		Flags: []cli.Flag{
			&cli.BoolFlag{
				Name:        "version",
				Aliases:     []string{"v"},
				Usage:       "stash version info",
				HideDefault: true,
			},
		},
	}

	app.Commands = append(app.Commands,
		PutCommandBuilder(meta),
		GetCommandBuilder(meta),
		LsCommandBuilder(meta),
		RmCommandBuilder(meta),
		ClearCommandBuilder(meta),
		PurgeCommandBuilder(meta),
		PathCommandBuilder(meta),
		DiffCommandBuilder(meta),
		CompletionCommandBuilder(meta),
	)

	// Make sure flags are sorted for the --help text.
	for _, cmd := range app.Commands {
		sort.Slice(cmd.Flags, func(i, j int) bool {
			return cmd.Flags[i].Names()[0] < cmd.Flags[j].Names()[0]
		})
	}

	return app, nil
}
