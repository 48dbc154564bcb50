// Copyright (c) 2025 Steve Taranto <staranto@gmail.com>.
// SPDX-License-Identifier: Apache-2.0

package cacheutil

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/apex/log"

	"github.com/staranto/stashgo/internal/config"
)

// Dir resolves the base cache directory.
// Precedence:
//  1. override, if non-empty (the --dir flag)
//  2. STASH_CACHE_DIR, if set and non-empty
//  3. cache.dir from the config file
//  4. os.UserCacheDir()/stash
//
// Returns ("", false) if a base cannot be resolved (treat as disabled).
func Dir(override string) (string, bool) {
	if override != "" {
		return override, true
	}
	if c, ok := os.LookupEnv("STASH_CACHE_DIR"); ok && c != "" {
		return c, true
	}
	if c, _ := config.GetString("cache.dir", ""); c != "" {
		return c, true
	}
	if dir, err := os.UserCacheDir(); err == nil && dir != "" {
		return filepath.Join(dir, "stash"), true
	}
	return "", false
}

// Enabled returns true unless STASH_CACHE explicitly disables it ("0"/"false").
func Enabled() bool {
	enabled, _ := os.LookupEnv("STASH_CACHE")
	return enabled == "" || (enabled != "0" && enabled != "false")
}

// EnsureBaseDir creates the base cache directory if caching is enabled and
// a base path can be resolved. Returns the path, whether it is usable, and an
// error if creation failed.
func EnsureBaseDir(override string) (string, bool, error) {
	if !Enabled() {
		return "", false, nil
	}
	base, ok := Dir(override)
	if !ok {
		return "", false, nil
	}
	if err := os.MkdirAll(base, 0o755); err != nil { //nolint:mnd
		return base, false, fmt.Errorf("failed to create cache base directory: %w", err)
	}
	return base, true, nil
}

// Purge removes files anywhere beneath base that are older than maxAge,
// regardless of namespace. It returns the number of files removed. If maxAge
// <= 0 it is a no-op.
func Purge(base string, maxAge time.Duration) (int, error) {
	if maxAge <= 0 {
		log.Debug("cache cleaning disabled")
		return 0, nil
	}
	if base == "" {
		return 0, nil
	}

	removed := 0
	if err := filepath.Walk(base, func(path string, info os.FileInfo, walkErr error) error {
		if walkErr != nil || info == nil {
			return nil
		}
		if !info.IsDir() && time.Since(info.ModTime()) > maxAge {
			if err := os.Remove(path); err == nil {
				log.Debugf("removed cache file %s", path)
				removed++
			} else {
				log.WithError(err).Warnf("failed to remove cache file %s", path)
			}
		}
		return nil
	}); err != nil {
		return removed, fmt.Errorf("failed to purge cache: %w", err)
	}
	return removed, nil
}
