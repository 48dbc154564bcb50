// Copyright (c) 2025 Steve Taranto <staranto@gmail.com>.
// SPDX-License-Identifier: Apache-2.0

package command

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"reflect"

	"github.com/apex/log"
	"github.com/urfave/cli/v3"
	"golang.org/x/term"

	"github.com/staranto/stashgo/internal/attrs"
	"github.com/staranto/stashgo/internal/cacheutil"
	"github.com/staranto/stashgo/internal/config"
	"github.com/staranto/stashgo/internal/meta"
	"github.com/staranto/stashgo/internal/output"
	"github.com/staranto/stashgo/internal/persist"
)

// ShortCircuitTLDR checks the --tldr flag and, if present and available,
// runs `tldr stash <subcmd>` and returns true so the caller can exit early.
func ShortCircuitTLDR(ctx context.Context, cmd *cli.Command, subcmd string) bool {
	if cmd.Bool("tldr") {
		if _, err := exec.LookPath("tldr"); err == nil {
			c := exec.CommandContext(ctx, "tldr", "stash", subcmd)
			c.Stdout = writer(cmd)
			c.Stderr = os.Stderr
			_ = c.Run()
		}
		return true
	}
	return false
}

// DumpSchemaIfRequested prints the listing schema for the provided type when
// --schema is set, and returns true if it handled the request.
func DumpSchemaIfRequested(cmd *cli.Command, t reflect.Type) bool {
	if cmd.Bool("schema") {
		output.DumpSchema(writer(cmd), "", t)
		return true
	}
	return false
}

// BuildAttrs constructs an AttrList with defaults and optional extras from
// --attrs, then applies the global transform spec.
func BuildAttrs(cmd *cli.Command, defaults ...string) (al attrs.AttrList) {
	//nolint:errcheck
	{
		for _, d := range defaults {
			al.Set(d)
		}
		if extras := cmd.String("attrs"); extras != "" {
			al.Set(extras)
		}
		al.SetGlobalTransformSpec()
	}
	return
}

// GetMeta returns the meta.Meta stored in the command's Metadata. If missing
// or of an unexpected type, it returns the zero value.
func GetMeta(cmd *cli.Command) meta.Meta {
	if cmd == nil || cmd.Metadata == nil {
		return meta.Meta{}
	}
	if m, ok := cmd.Metadata["meta"].(meta.Meta); ok {
		return m
	}
	return meta.Meta{}
}

// storeOptions turns the --namespace and --keys flags into persister options.
func storeOptions(cmd *cli.Command, extra ...persist.Option) ([]persist.Option, error) {
	mapper, err := persist.KeyMapperByName(cmd.String("keys"))
	if err != nil {
		return nil, err
	}

	prefix := ""
	if ns := cmd.String("namespace"); ns != "" {
		prefix = ns + "_"
	}

	opts := []persist.Option{
		persist.WithPrefix(prefix),
		persist.WithKeyMapper(mapper),
		persist.WithLogger(log.Log),
	}
	return append(opts, extra...), nil
}

// cacheDir resolves the directory a command works in. --dir wins, then
// whatever was resolved at startup, then the usual cacheutil precedence.
func cacheDir(cmd *cli.Command) (string, error) {
	if dir := cmd.String("dir"); dir != "" {
		return dir, nil
	}
	if dir := GetMeta(cmd).CacheDir; dir != "" {
		return dir, nil
	}
	dir, ok := cacheutil.Dir("")
	if !ok {
		return "", errors.New("unable to resolve a cache directory, set --dir or STASH_CACHE_DIR")
	}
	return dir, nil
}

// OpenStore returns the stream persister described by the command's store
// flags.
func OpenStore(cmd *cli.Command, extra ...persist.Option) (*persist.StreamPersister, error) {
	dir, err := cacheDir(cmd)
	if err != nil {
		return nil, err
	}

	opts, err := storeOptions(cmd, extra...)
	if err != nil {
		return nil, err
	}

	store, err := persist.NewStreamPersister(dir, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to open cache %s: %w", dir, err)
	}
	log.Debugf("store: dir=%s prefix=%q", store.Dir(), store.Prefix())
	return store, nil
}

// OpenObjectStore is OpenStore for decoded values held in codec's format.
func OpenObjectStore(cmd *cli.Command, codec persist.Codec, extra ...persist.Option) (*persist.ObjectPersister[any], error) {
	dir, err := cacheDir(cmd)
	if err != nil {
		return nil, err
	}

	opts, err := storeOptions(cmd, extra...)
	if err != nil {
		return nil, err
	}

	store, err := persist.NewObjectPersister[any](dir, codec, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to open cache %s: %w", dir, err)
	}
	return store, nil
}

// requireArgs fails unless the command received at least n positional args.
func requireArgs(cmd *cli.Command, n int) error {
	if cmd.NArg() < n {
		return fmt.Errorf("%s: expected %d argument(s), got %d\nusage: %s",
			cmd.Name, n, cmd.NArg(), cmd.UsageText)
	}
	return nil
}

// writer and reader are the root command's streams, so tests can swap them.
func writer(cmd *cli.Command) io.Writer {
	if w := cmd.Root().Writer; w != nil {
		return w
	}
	return os.Stdout
}

func reader(cmd *cli.Command) io.Reader {
	if r := cmd.Root().Reader; r != nil {
		return r
	}
	return os.Stdin
}

// isTerminal reports whether v is an *os.File attached to a terminal.
func isTerminal(v any) bool {
	f, ok := v.(*os.File)
	return ok && term.IsTerminal(int(f.Fd()))
}

// StoreCommandBuilder constructs a cli.Command for the cache subcommands using
// a consistent pattern. It wires metadata, adds the tldr and store flags, and
// scopes config lookups to the command's name.
type StoreCommandBuilder struct {
	Name      string
	Usage     string
	UsageText string
	Flags     []cli.Flag
	Action    func(context.Context, *cli.Command) error
	Meta      meta.Meta
}

// Build returns a configured cli.Command from the builder.
func (scb *StoreCommandBuilder) Build() *cli.Command {
	return &cli.Command{
		Name:      scb.Name,
		Usage:     scb.Usage,
		UsageText: scb.UsageText,
		Metadata: map[string]any{
			"meta": scb.Meta,
		},
		Flags: append(scb.Flags, append([]cli.Flag{newTldrFlag()}, NewStoreFlags(scb.Name)...)...),
		Before: func(ctx context.Context, c *cli.Command) (context.Context, error) {
			config.Config.Namespace = c.Name
			return ctx, nil
		},
		Action: func(ctx context.Context, c *cli.Command) error {
			log.Debugf("executing %s %v", c.Name, c.Args().Slice())
			if ShortCircuitTLDR(ctx, c, c.Name) {
				return nil
			}
			return scb.Action(ctx, c)
		},
	}
}
