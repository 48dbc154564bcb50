// Copyright © 2025 Steve Taranto staranto@gmail.com
// SPDX-License-Identifier: MIT

// Package persist stores values on disk, one file per cache key, and reads
// them back subject to a time-to-live measured against the file's
// modification time. ObjectPersister handles typed values through a Codec;
// StreamPersister handles raw byte streams.
//
// A missing or expired entry is not an error. Load reports it through its
// found return value and leaves any stale file in place.
package persist
