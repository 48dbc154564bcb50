// Copyright (c) 2025 Steve Taranto <staranto@gmail.com>.
// SPDX-License-Identifier: Apache-2.0

package command

import (
	"context"
	"encoding/json"
	"fmt"
	"io"

	"github.com/apex/log"
	"github.com/urfave/cli/v3"
	diff "github.com/yudai/gojsondiff"
	"github.com/yudai/gojsondiff/formatter"

	"github.com/staranto/stashgo/internal/meta"
)

// DiffCommandAction prints the structural difference between the JSON
// objects held by two keys. Identical entries print nothing.
func DiffCommandAction(ctx context.Context, cmd *cli.Command) error {
	if err := requireArgs(cmd, 2); err != nil {
		return err
	}
	leftKey, rightKey := cmd.Args().Get(0), cmd.Args().Get(1)

	left, err := loadEntry(cmd, leftKey)
	if err != nil {
		return err
	}
	right, err := loadEntry(cmd, rightKey)
	if err != nil {
		return err
	}

	d, err := diff.New().Compare(left, right)
	if err != nil {
		return fmt.Errorf("diff requires both entries to be JSON objects: %w", err)
	}
	if !d.Modified() {
		log.Debugf("%s and %s are identical", leftKey, rightKey)
		return nil
	}

	w := writer(cmd)

	var out string
	switch cmd.String("format") {
	case "delta":
		out, err = formatter.NewDeltaFormatter().Format(d)
	default:
		var leftObject map[string]interface{}
		if err := json.Unmarshal(left, &leftObject); err != nil {
			return fmt.Errorf("failed to decode %s: %w", leftKey, err)
		}

		color := isTerminal(w)
		if cmd.IsSet("color") {
			color = cmd.Bool("color")
		}

		out, err = formatter.NewAsciiFormatter(leftObject, formatter.AsciiFormatterConfig{
			ShowArrayIndex: true,
			Coloring:       color,
		}).Format(d)
	}
	if err != nil {
		return fmt.Errorf("failed to format diff: %w", err)
	}

	_, err = io.WriteString(w, out)
	return err
}

// DiffCommandBuilder constructs the cli.Command definition for "diff".
func DiffCommandBuilder(meta meta.Meta) *cli.Command {
	return (&StoreCommandBuilder{
		Name:      "diff",
		Usage:     "compare the JSON entries of two keys",
		UsageText: `stash diff KEY1 KEY2 [options]`,
		Flags: []cli.Flag{
			NewMaxAgeFlag("diff"),
			&cli.BoolWithInverseFlag{
				Name:    "color",
				Aliases: []string{"c"},
				Usage:   "color the ascii diff. Defaults to on for terminals",
			},
			&cli.StringFlag{
				Name:  "format",
				Usage: "ascii or delta",
				Value: "ascii",
				Validator: func(value string) error {
					return FlagValidators(value, DiffFormatValidator)
				},
			},
		},
		Action: DiffCommandAction,
		Meta:   meta,
	}).Build()
}
