// Copyright © 2025 Steve Taranto staranto@gmail.com
// SPDX-License-Identifier: MIT

package command

import (
	"errors"
	"fmt"
	"slices"
	"strings"

	"github.com/staranto/stashgo/internal/persist"
)

type FlagValidatorType func(any) error

func FlagValidators(value any, validators ...FlagValidatorType) error {
	for _, v := range validators {
		if err := v(value); err != nil {
			return err
		}
	}
	return nil
}

// JammedFlagValidator verifies that the arg following a flag does not begin
// with '--'.  urfave/cli allows this and I don't see how to turn it off.
func JammedFlagValidator(value any) error {
	if strings.HasPrefix(value.(string), "--") {
		return errors.New("must not begin with '--'")
	}
	return nil
}

// NamespaceValidator rejects namespaces that would escape the cache
// directory or hide the files they prefix.
func NamespaceValidator(value any) error {
	ns := value.(string)
	if strings.ContainsAny(ns, `/\`) {
		return errors.New("must not contain a path separator")
	}
	if strings.HasPrefix(ns, ".") {
		return errors.New("must not begin with '.'")
	}
	return nil
}

func KeysValidator(value any) error {
	if _, err := persist.KeyMapperByName(value.(string)); err != nil {
		return fmt.Errorf("must be one of %v", validKeysFlagValues)
	}
	return nil
}

var (
	validKeysFlagValues   = []string{"escape", "md5", "blake2b"}
	validOutputFlagValues = []string{"text", "json", "raw", "yaml"}
	validCodecFlagValues  = []string{"json", "yaml"}
	validDiffFlagValues   = []string{"ascii", "delta"}
)

func OutputValidator(value any) error {
	return oneOf(value, validOutputFlagValues)
}

// CodecValidator accepts an empty value, which stores input verbatim.
func CodecValidator(value any) error {
	if value == "" {
		return nil
	}
	return oneOf(value, validCodecFlagValues)
}

func DiffFormatValidator(value any) error {
	return oneOf(value, validDiffFlagValues)
}

func oneOf(value any, valid []string) error {
	s, _ := value.(string)
	if !slices.Contains(valid, s) {
		return fmt.Errorf("must be one of %v", valid)
	}
	return nil
}
