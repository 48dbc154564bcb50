// Copyright (c) 2025 Steve Taranto <staranto@gmail.com>.
// SPDX-License-Identifier: Apache-2.0

package command

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/apex/log"
	"github.com/tidwall/gjson"
	"github.com/urfave/cli/v3"

	"github.com/staranto/stashgo/internal/meta"
	"github.com/staranto/stashgo/internal/persist"
)

// readInput returns the bytes of the FILE argument, or of the command's
// reader when FILE is absent or "-". Relative paths are taken from the
// directory stash was started in.
func readInput(cmd *cli.Command) ([]byte, error) {
	file := cmd.Args().Get(1)
	if file == "" || file == "-" {
		r := reader(cmd)
		if isTerminal(r) {
			log.Warn("reading entry from the terminal, end with ctrl-d")
		}
		return io.ReadAll(r)
	}

	if !filepath.IsAbs(file) {
		if sd := GetMeta(cmd).StartingDir; sd != "" {
			file = filepath.Join(sd, file)
		}
	}

	data, err := os.ReadFile(file)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", file, err)
	}
	return data, nil
}

// PutCommandAction stores FILE, or stdin, under KEY.
func PutCommandAction(ctx context.Context, cmd *cli.Command) error {
	if err := requireArgs(cmd, 1); err != nil {
		return err
	}
	key := cmd.Args().First()

	data, err := readInput(cmd)
	if err != nil {
		return err
	}

	if cmd.Bool("json") && !gjson.ValidBytes(data) {
		return fmt.Errorf("input for %s is not valid JSON", key)
	}

	async := cmd.Bool("async")

	if name := cmd.String("codec"); name != "" {
		return putDecoded(ctx, cmd, key, name, data, async)
	}

	store, err := OpenStore(cmd, persist.WithAsyncSave(async))
	if err != nil {
		return err
	}

	rc, err := store.Save(key, bytes.NewReader(data))
	if err != nil {
		return err
	}
	_ = rc.Close()

	if async {
		if err := store.AwaitSaves(ctx); err != nil {
			return fmt.Errorf("waiting for background save of %s: %w", key, err)
		}
	}

	log.WithField("key", key).WithField("path", store.CacheFile(key)).Debug("entry saved")
	return nil
}

// putDecoded parses data as YAML, which also covers JSON, and stores the
// resulting value re-encoded with the named codec.
func putDecoded(ctx context.Context, cmd *cli.Command, key, name string, data []byte, async bool) error {
	codec, err := persist.CodecByName(name)
	if err != nil {
		return err
	}

	var value any
	if err := persist.YAML.Unmarshal(data, &value); err != nil {
		return fmt.Errorf("input for %s cannot be decoded: %w", key, err)
	}
	if value == nil {
		return errors.New("input is empty")
	}

	store, err := OpenObjectStore(cmd, codec, persist.WithAsyncSave(async))
	if err != nil {
		return err
	}

	if _, err := store.Save(key, value); err != nil {
		return err
	}

	if async {
		if err := store.AwaitSaves(ctx); err != nil {
			return fmt.Errorf("waiting for background save of %s: %w", key, err)
		}
	}
	return nil
}

// PutCommandBuilder constructs the cli.Command definition for "put".
func PutCommandBuilder(meta meta.Meta) *cli.Command {
	return (&StoreCommandBuilder{
		Name:      "put",
		Usage:     "store a file or stdin under a key",
		UsageText: `stash put KEY [FILE] [options]`,
		Flags: []cli.Flag{
			&cli.BoolFlag{
				Name:  "async",
				Usage: "write in the background, logging rather than returning failures",
			},
			&cli.StringFlag{
				Name:  "codec",
				Usage: "decode the input and store it re-encoded as json or yaml",
				Validator: func(value string) error {
					return FlagValidators(value, CodecValidator)
				},
			},
			&cli.BoolFlag{
				Name:  "json",
				Usage: "reject input that is not valid JSON",
			},
		},
		Action: PutCommandAction,
		Meta:   meta,
	}).Build()
}
