// Copyright (c) 2025 Steve Taranto <staranto@gmail.com>.
// SPDX-License-Identifier: Apache-2.0

package persist

import (
	"time"

	"github.com/apex/log"
)

// Option configures a persister.
type Option func(*options)

type options struct {
	prefix    string
	prefixSet bool
	keys      KeyMapper
	async     bool
	now       func() time.Time
	logger    log.Interface
}

func newOptions(opts ...Option) *options {
	o := &options{
		keys:   EscapedKeys,
		now:    time.Now,
		logger: log.Log,
	}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// WithPrefix sets the string prepended to every filename, replacing the
// persister's default. A non-empty prefix always ends in "_"; one is appended
// when missing.
func WithPrefix(prefix string) Option {
	return func(o *options) {
		o.prefix = prefix
		o.prefixSet = true
	}
}

// WithKeyMapper sets how keys become filenames (default EscapedKeys).
func WithKeyMapper(m KeyMapper) Option {
	return func(o *options) {
		if m != nil {
			o.keys = m
		}
	}
}

// WithAsyncSave makes Save write in a background goroutine. Write failures
// are logged, not returned.
func WithAsyncSave(enabled bool) Option {
	return func(o *options) {
		o.async = enabled
	}
}

// WithClock replaces time.Now for expiry checks.
func WithClock(now func() time.Time) Option {
	return func(o *options) {
		if now != nil {
			o.now = now
		}
	}
}

// WithLogger sets the logger (default log.Log).
func WithLogger(l log.Interface) Option {
	return func(o *options) {
		if l != nil {
			o.logger = l
		}
	}
}
