// Copyright (c) 2025 Steve Taranto <staranto@gmail.com>.
// SPDX-License-Identifier: Apache-2.0

package persist

import (
	"crypto/md5"
	"encoding/hex"
	"fmt"
	"net/url"
	"strings"

	"golang.org/x/crypto/blake2b"
)

// KeyMapper turns a cache key into a filename. Decode reports false when the
// mapping cannot be reversed. Encoded names must not contain the prefix
// separator "_", or entries of one prefix would show up under another.
type KeyMapper interface {
	Encode(key string) string
	Decode(name string) (string, bool)
}

var (
	// EscapedKeys path-escapes keys. It is reversible, so listings can report
	// the original keys.
	EscapedKeys KeyMapper = escapedKeys{}

	// HashedKeys names files by the MD5 hex digest of the key.
	HashedKeys KeyMapper = hashedKeys{}

	// Blake2bKeys names files by the BLAKE2b-256 hex digest of the key.
	Blake2bKeys KeyMapper = blake2bKeys{}
)

// KeyMapperByName resolves the mapper names accepted in config and flags.
func KeyMapperByName(name string) (KeyMapper, error) {
	switch strings.ToLower(name) {
	case "", "escape":
		return EscapedKeys, nil
	case "md5":
		return HashedKeys, nil
	case "blake2b":
		return Blake2bKeys, nil
	default:
		return nil, fmt.Errorf("unknown key mapper %q, must be one of [escape md5 blake2b]", name)
	}
}

type escapedKeys struct{}

func (escapedKeys) Encode(key string) string {
	name := url.PathEscape(key)
	// A leading dot would hide the file and collide with temp files.
	if strings.HasPrefix(name, ".") {
		name = "%2E" + name[1:]
	}
	return strings.ReplaceAll(name, prefixSeparator, "%5F")
}

func (escapedKeys) Decode(name string) (string, bool) {
	key, err := url.PathUnescape(name)
	if err != nil {
		return "", false
	}
	return key, true
}

type hashedKeys struct{}

func (hashedKeys) Encode(key string) string {
	h := md5.New()
	_, _ = h.Write([]byte(key))
	return hex.EncodeToString(h.Sum(nil))
}

func (hashedKeys) Decode(string) (string, bool) {
	return "", false
}

type blake2bKeys struct{}

func (blake2bKeys) Encode(key string) string {
	sum := blake2b.Sum256([]byte(key))
	return hex.EncodeToString(sum[:])
}

func (blake2bKeys) Decode(string) (string, bool) {
	return "", false
}
