// Copyright (c) 2025 Steve Taranto <staranto@gmail.com>.
// SPDX-License-Identifier: Apache-2.0

package command

import (
	"os/exec"

	altsrc "github.com/urfave/cli-altsrc/v3"
	yaml "github.com/urfave/cli-altsrc/v3/yaml"
	"github.com/urfave/cli/v3"

	"github.com/staranto/stashgo/internal/config"
)

// Flags hold their parsed value, so each command gets its own instance.
func newSchemaFlag() *cli.BoolFlag {
	return &cli.BoolFlag{
		Name:        "schema",
		Usage:       "dump the listing schema",
		HideDefault: true,
	}
}

func newTldrFlag() *cli.BoolFlag {
	return &cli.BoolFlag{
		Name:        "tldr",
		Usage:       "show tldr page",
		Hidden:      !pathHas("tldr"),
		HideDefault: true,
	}
}

// configSource returns the path of the loaded config file, which may be empty.
// An empty path simply yields no values from the yaml sources.
func configSource() string {
	return config.Config.Source
}

// NewStoreFlags returns the flags every cache-touching command carries. ns is
// the command name and scopes config file lookups.
func NewStoreFlags(ns string) []cli.Flag {
	src := configSource()
	return []cli.Flag{
		&cli.StringFlag{
			Name:    "namespace",
			Aliases: []string{"n"},
			Usage:   "namespace prefixed to every cache filename",
			Sources: cli.NewValueSourceChain(
				cli.EnvVar("STASH_NAMESPACE"),
				yaml.YAML(ns+".namespace", altsrc.StringSourcer(src)),
				yaml.YAML("namespace", altsrc.StringSourcer(src)),
			),
			Validator: func(value string) error {
				return FlagValidators(value, JammedFlagValidator, NamespaceValidator)
			},
		},
		&cli.StringFlag{
			Name:  "keys",
			Usage: "key to filename mapping: escape, md5 or blake2b",
			Sources: cli.NewValueSourceChain(
				cli.EnvVar("STASH_KEYS"),
				yaml.YAML("cache.keys", altsrc.StringSourcer(src)),
			),
			Value: "escape",
			Validator: func(value string) error {
				return FlagValidators(value, KeysValidator)
			},
		},
		&cli.StringFlag{
			Name:  "dir",
			Usage: "cache directory. Overrides STASH_CACHE_DIR and cache.dir",
			Validator: func(value string) error {
				return FlagValidators(value, JammedFlagValidator)
			},
		},
	}
}

// NewMaxAgeFlag returns --max-age, looked up as <ns>.max_age and then
// cache.max_age in the config file. Zero means entries never expire.
func NewMaxAgeFlag(ns string) *cli.DurationFlag {
	src := configSource()
	return &cli.DurationFlag{
		Name:    "max-age",
		Aliases: []string{"m"},
		Usage:   "entries older than this are treated as missing (0 never expires)",
		Sources: cli.NewValueSourceChain(
			yaml.YAML(ns+".max_age", altsrc.StringSourcer(src)),
			yaml.YAML("cache.max_age", altsrc.StringSourcer(src)),
		),
	}
}

// NewListFlags returns the flags of the listing pipeline.
func NewListFlags(ns string) []cli.Flag {
	src := configSource()
	return []cli.Flag{
		&cli.StringFlag{
			Name:    "attrs",
			Aliases: []string{"a"},
			Usage:   "comma-separated list of attributes to include in results",
		},
		&cli.BoolWithInverseFlag{
			Name:    "color",
			Aliases: []string{"c"},
			Usage:   "enable colored text output",
			Sources: cli.NewValueSourceChain(
				yaml.YAML(ns+".color", altsrc.StringSourcer(src)),
				yaml.YAML("color", altsrc.StringSourcer(src)),
			),
			Value: false,
		},
		&cli.StringFlag{
			Name:    "filter",
			Aliases: []string{"f"},
			Usage:   "comma-separated list of filters to apply to results",
		},
		&cli.BoolFlag{
			Name:        "local",
			Aliases:     []string{"l"},
			Usage:       "show timestamps in the configured timezone",
			HideDefault: true,
		},
		&cli.StringFlag{
			Name:    "output",
			Aliases: []string{"o"},
			Usage:   "output format",
			Sources: cli.NewValueSourceChain(
				yaml.YAML(ns+".output", altsrc.StringSourcer(src)),
				yaml.YAML("output", altsrc.StringSourcer(src)),
			),
			Value: "text",
			Validator: func(value string) error {
				return FlagValidators(value, OutputValidator)
			},
		},
		&cli.StringFlag{
			Name:    "sort",
			Aliases: []string{"s"},
			Usage:   "comma-separated list of attributes to sort the results by",
			Sources: cli.NewValueSourceChain(
				yaml.YAML(ns+".sort", altsrc.StringSourcer(src)),
			),
		},
		&cli.BoolWithInverseFlag{
			Name:    "titles",
			Aliases: []string{"t"},
			Usage:   "show titles with text output",
			Sources: cli.NewValueSourceChain(
				yaml.YAML(ns+".titles", altsrc.StringSourcer(src)),
				yaml.YAML("titles", altsrc.StringSourcer(src)),
			),
			Value: false,
		},
	}
}

// pathHas checks if target is an executable on PATH.
func pathHas(target string) bool {
	_, err := exec.LookPath(target)
	return err == nil
}
