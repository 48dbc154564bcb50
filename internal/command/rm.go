// Copyright (c) 2025 Steve Taranto <staranto@gmail.com>.
// SPDX-License-Identifier: Apache-2.0

package command

import (
	"context"
	"errors"
	"fmt"

	"github.com/apex/log"
	"github.com/urfave/cli/v3"

	"github.com/staranto/stashgo/internal/cacheutil"
	"github.com/staranto/stashgo/internal/meta"
	"github.com/staranto/stashgo/internal/persist"
)

// RmCommandAction removes the entry of every KEY. Missing entries are not an
// error.
func RmCommandAction(ctx context.Context, cmd *cli.Command) error {
	if err := requireArgs(cmd, 1); err != nil {
		return err
	}

	store, err := OpenStore(cmd)
	if err != nil {
		return err
	}

	var errs []error
	for _, key := range cmd.Args().Slice() {
		if err := store.Remove(key); err != nil {
			errs = append(errs, err)
			continue
		}
		log.WithField("key", key).Debug("entry removed")
	}
	return errors.Join(errs...)
}

// ClearCommandAction removes every entry in the selected namespace.
func ClearCommandAction(ctx context.Context, cmd *cli.Command) error {
	store, err := OpenStore(cmd)
	if err != nil {
		return err
	}

	if store.Prefix() == "" && !cmd.Bool("force") {
		return fmt.Errorf("refusing to clear the entries outside any namespace in %s, use --force", store.Dir())
	}

	return store.RemoveAll()
}

// PurgeCommandAction removes entries older than --older-than, either in the
// selected namespace or, with --all, anywhere beneath the cache directory.
func PurgeCommandAction(ctx context.Context, cmd *cli.Command) error {
	olderThan := cmd.Duration("older-than")
	if olderThan <= 0 {
		return errors.New("--older-than must be greater than zero")
	}

	var (
		removed int
		err     error
	)

	if cmd.Bool("all") {
		var dir string
		if dir, err = cacheDir(cmd); err != nil {
			return err
		}
		removed, err = cacheutil.Purge(dir, olderThan)
	} else {
		store, serr := OpenStore(cmd)
		if serr != nil {
			return serr
		}
		removed, err = store.Purge(olderThan)
	}

	if err != nil {
		return err
	}

	_, err = fmt.Fprintf(writer(cmd), "removed %d entries\n", removed)
	return err
}

// PathCommandAction prints the file that holds KEY, whether or not it exists.
func PathCommandAction(ctx context.Context, cmd *cli.Command) error {
	if err := requireArgs(cmd, 1); err != nil {
		return err
	}

	store, err := OpenStore(cmd)
	if err != nil {
		return err
	}

	key := cmd.Args().First()
	if key == "" {
		return persist.ErrInvalidKey
	}

	_, err = fmt.Fprintln(writer(cmd), store.CacheFile(key))
	return err
}

// RmCommandBuilder constructs the cli.Command definition for "rm".
func RmCommandBuilder(meta meta.Meta) *cli.Command {
	return (&StoreCommandBuilder{
		Name:      "rm",
		Usage:     "remove cached entries",
		UsageText: `stash rm KEY... [options]`,
		Action:    RmCommandAction,
		Meta:      meta,
	}).Build()
}

// ClearCommandBuilder constructs the cli.Command definition for "clear".
func ClearCommandBuilder(meta meta.Meta) *cli.Command {
	return (&StoreCommandBuilder{
		Name:      "clear",
		Usage:     "remove every entry in a namespace",
		UsageText: `stash clear [options]`,
		Flags: []cli.Flag{
			&cli.BoolFlag{
				Name:  "force",
				Usage: "allow clearing the entries outside any namespace",
			},
		},
		Action: ClearCommandAction,
		Meta:   meta,
	}).Build()
}

// PurgeCommandBuilder constructs the cli.Command definition for "purge".
func PurgeCommandBuilder(meta meta.Meta) *cli.Command {
	return (&StoreCommandBuilder{
		Name:      "purge",
		Usage:     "remove stale entries",
		UsageText: `stash purge --older-than DURATION [options]`,
		Flags: []cli.Flag{
			&cli.BoolFlag{
				Name:  "all",
				Usage: "purge the whole cache directory, every namespace included",
			},
			&cli.DurationFlag{
				Name:  "older-than",
				Usage: "remove entries last written before this long ago",
				Value: 0,
			},
		},
		Action: PurgeCommandAction,
		Meta:   meta,
	}).Build()
}

// PathCommandBuilder constructs the cli.Command definition for "path".
func PathCommandBuilder(meta meta.Meta) *cli.Command {
	return (&StoreCommandBuilder{
		Name:      "path",
		Usage:     "print the file that holds a key",
		UsageText: `stash path KEY [options]`,
		Action:    PathCommandAction,
		Meta:      meta,
	}).Build()
}
