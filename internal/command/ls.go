// Copyright (c) 2025 Steve Taranto <staranto@gmail.com>.
// SPDX-License-Identifier: Apache-2.0

package command

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"reflect"
	"time"

	"github.com/apex/log"
	"github.com/urfave/cli/v3"

	"github.com/staranto/stashgo/internal/meta"
	"github.com/staranto/stashgo/internal/output"
	"github.com/staranto/stashgo/internal/persist"
)

// listRow is one line of ls output. Its json tags are the attribute names
// accepted by --attrs, --filter and --sort.
type listRow struct {
	Key      string    `json:"key"`
	Name     string    `json:"name"`
	Path     string    `json:"path"`
	Size     int64     `json:"size"`
	Modified time.Time `json:"modified"`
	// Seconds is the entry's age, for numeric filters such as seconds>3600.
	Seconds int64 `json:"seconds"`
	Fresh   bool  `json:"fresh"`
}

func newListRows(entries []persist.Entry, maxAge time.Duration, now time.Time) []listRow {
	rows := make([]listRow, 0, len(entries))
	for _, e := range entries {
		age := now.Sub(e.ModTime)
		rows = append(rows, listRow{
			Key:      e.Key,
			Name:     e.Name,
			Path:     e.Path,
			Size:     e.Size,
			Modified: e.ModTime.UTC(),
			Seconds:  int64(age / time.Second),
			Fresh:    maxAge == 0 || age <= maxAge,
		})
	}
	return rows
}

// LsCommandAction lists the entries of the selected namespace through the
// common output pipeline.
func LsCommandAction(ctx context.Context, cmd *cli.Command) error {
	if DumpSchemaIfRequested(cmd, reflect.TypeOf(listRow{})) {
		return nil
	}

	// Hashed filenames cannot be turned back into keys, so show the filename.
	first := "key"
	if k := cmd.String("keys"); k != "" && k != "escape" {
		first = "name"
	}
	attrList := BuildAttrs(cmd, first, "size::h", "modified:age:h", "fresh")
	log.Debugf("attrs: %v", attrList)

	store, err := OpenStore(cmd)
	if err != nil {
		return err
	}

	entries, err := store.Entries()
	if err != nil {
		return err
	}

	rows := newListRows(entries, cmd.Duration("max-age"), time.Now())

	raw, err := json.Marshal(rows)
	if err != nil {
		return fmt.Errorf("failed to marshal listing: %w", err)
	}

	output.SliceDiceSpit(*bytes.NewBuffer(raw), attrList, cmd, "", writer(cmd))
	return nil
}

// LsCommandBuilder constructs the cli.Command definition for "ls".
func LsCommandBuilder(meta meta.Meta) *cli.Command {
	return (&StoreCommandBuilder{
		Name:      "ls",
		Usage:     "list cached entries",
		UsageText: `stash ls [options]`,
		Flags: append([]cli.Flag{
			NewMaxAgeFlag("ls"),
			newSchemaFlag(),
		}, NewListFlags("ls")...),
		Action: LsCommandAction,
		Meta:   meta,
	}).Build()
}
