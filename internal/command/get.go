// Copyright (c) 2025 Steve Taranto <staranto@gmail.com>.
// SPDX-License-Identifier: Apache-2.0

package command

import (
	"context"
	"fmt"
	"io"

	"github.com/tidwall/gjson"
	"github.com/urfave/cli/v3"

	"github.com/staranto/stashgo/internal/driller"
	"github.com/staranto/stashgo/internal/meta"
)

// ErrNotFound is returned by get and diff when a key has no fresh entry.
type ErrNotFound struct {
	Key string
}

func (e ErrNotFound) Error() string {
	return fmt.Sprintf("no fresh entry for %s", e.Key)
}

// loadEntry reads the fresh entry for key or fails with ErrNotFound.
func loadEntry(cmd *cli.Command, key string) ([]byte, error) {
	store, err := OpenStore(cmd)
	if err != nil {
		return nil, err
	}

	data, found, err := store.LoadBytes(key, cmd.Duration("max-age"))
	if err != nil {
		return nil, err
	}
	if !found {
		return nil, ErrNotFound{Key: key}
	}
	return data, nil
}

// GetCommandAction writes the entry for KEY to stdout.
func GetCommandAction(ctx context.Context, cmd *cli.Command) error {
	if err := requireArgs(cmd, 1); err != nil {
		return err
	}
	key := cmd.Args().First()

	data, err := loadEntry(cmd, key)
	if err != nil {
		return err
	}

	w := writer(cmd)

	path := cmd.String("path")
	if path == "" {
		_, err = w.Write(data)
		return err
	}

	if !gjson.ValidBytes(data) {
		return fmt.Errorf("entry %s is not JSON, --path cannot be applied", key)
	}
	result := driller.Driller(string(data), path)
	if !result.Exists() {
		return fmt.Errorf("path %s not found in %s", path, key)
	}

	value := result.Raw
	if result.Type == gjson.String {
		value = result.Str
	}
	_, err = io.WriteString(w, value+"\n")
	return err
}

// GetCommandBuilder constructs the cli.Command definition for "get".
func GetCommandBuilder(meta meta.Meta) *cli.Command {
	return (&StoreCommandBuilder{
		Name:      "get",
		Usage:     "write a cached entry to stdout",
		UsageText: `stash get KEY [options]`,
		Flags: []cli.Flag{
			NewMaxAgeFlag("get"),
			&cli.StringFlag{
				Name:    "path",
				Aliases: []string{"p"},
				Usage:   "dotted path, with optional [n] indexes, to extract from a JSON entry",
			},
		},
		Action: GetCommandAction,
		Meta:   meta,
	}).Build()
}
