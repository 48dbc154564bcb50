// Copyright (c) 2025 Steve Taranto <staranto@gmail.com>.
// SPDX-License-Identifier: Apache-2.0

package persist

import (
	"errors"
	"fmt"
)

// ErrInvalidKey is returned for an empty cache key.
var ErrInvalidKey = errors.New("cache key cannot be empty")

// LoadingError reports an entry that exists and is fresh but could not be
// read or decoded.
type LoadingError struct {
	Key  string
	Path string
	Err  error
}

func (e *LoadingError) Error() string {
	return fmt.Sprintf("failed to load cache entry %q from %s: %v", e.Key, e.Path, e.Err)
}

func (e *LoadingError) Unwrap() error {
	return e.Err
}

// SavingError reports a failure to encode or write an entry.
type SavingError struct {
	Key  string
	Path string
	Err  error
}

func (e *SavingError) Error() string {
	return fmt.Sprintf("failed to save cache entry %q to %s: %v", e.Key, e.Path, e.Err)
}

func (e *SavingError) Unwrap() error {
	return e.Err
}
