// Copyright (c) 2025 Steve Taranto <staranto@gmail.com>.
// SPDX-License-Identifier: Apache-2.0

package persist

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/apex/log"
)

// tempPattern names in-progress writes. The leading dot keeps them out of
// listings.
const tempPattern = ".stash-*.tmp"

// prefixSeparator ends every non-empty prefix. Key mappers never emit it, so
// the last separator in a filename marks where the prefix stops.
const prefixSeparator = "_"

// Entry describes one cached file.
type Entry struct {
	// Key is the clear-text cache key. It is empty when the key mapper is not
	// reversible.
	Key string `json:"key"`
	// Name is the filename, prefix included.
	Name string `json:"name"`
	// Path is the full path to the file.
	Path string `json:"path"`
	// Size is the payload size in bytes.
	Size int64 `json:"size"`
	// ModTime is the expiry reference.
	ModTime time.Time `json:"modified"`
}

// fileStore holds what both persisters share: the key to path mapping, the
// freshness check, atomic writes and async bookkeeping.
type fileStore struct {
	dir    string
	prefix string
	keys   KeyMapper
	async  bool
	now    func() time.Time
	logger log.Interface

	// pending tracks async saves still in flight.
	pending saveTracker
}

// saveTracker counts in-flight saves. Unlike a WaitGroup it may be waited on
// while new saves are being added.
type saveTracker struct {
	mu   sync.Mutex
	n    int
	idle chan struct{}
}

func (t *saveTracker) add() {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.n == 0 {
		t.idle = make(chan struct{})
	}
	t.n++
}

func (t *saveTracker) done() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.n--
	if t.n == 0 {
		close(t.idle)
	}
}

// wait returns a channel closed once no save is in flight.
func (t *saveTracker) wait() <-chan struct{} {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.n == 0 {
		ch := make(chan struct{})
		close(ch)
		return ch
	}
	return t.idle
}

func newFileStore(dir, defaultPrefix string, o *options) (*fileStore, error) {
	if dir == "" {
		return nil, errors.New("cache directory cannot be empty")
	}

	if err := os.MkdirAll(dir, 0o755); err != nil { //nolint:mnd
		return nil, fmt.Errorf("failed to create cache directory: %w", err)
	}

	prefix := defaultPrefix
	if o.prefixSet {
		prefix = o.prefix
	}
	if prefix != "" && !strings.HasSuffix(prefix, prefixSeparator) {
		prefix += prefixSeparator
	}

	return &fileStore{
		dir:    dir,
		prefix: prefix,
		keys:   o.keys,
		async:  o.async,
		now:    o.now,
		logger: o.logger,
	}, nil
}

// Dir returns the cache directory.
func (s *fileStore) Dir() string {
	return s.dir
}

// Prefix returns the filename prefix.
func (s *fileStore) Prefix() string {
	return s.prefix
}

// CacheFile returns the path where the entry for key lives, whether or not it
// exists yet.
func (s *fileStore) CacheFile(key string) string {
	return filepath.Join(s.dir, s.prefix+s.keys.Encode(key))
}

// Contains reports whether a fresh entry exists for key.
func (s *fileStore) Contains(key string, maxAge time.Duration) bool {
	_, ok, err := s.fresh(key, maxAge)
	return ok && err == nil
}

// CreatedAt returns the modification time of the entry for key.
func (s *fileStore) CreatedAt(key string) (time.Time, bool, error) {
	if key == "" {
		return time.Time{}, false, ErrInvalidKey
	}
	info, err := os.Stat(s.CacheFile(key))
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return time.Time{}, false, nil
		}
		return time.Time{}, false, fmt.Errorf("failed to stat cache entry: %w", err)
	}
	return info.ModTime(), true, nil
}

// Entries lists the files carrying this store's prefix, sorted by name. A file
// whose name has a separator past the prefix belongs to a longer prefix and is
// left out.
func (s *fileStore) Entries() ([]Entry, error) {
	dirEntries, err := os.ReadDir(s.dir)
	if err != nil {
		return nil, fmt.Errorf("failed to read cache directory: %w", err)
	}

	//nolint:prealloc // Not every file belongs to this store.
	var entries []Entry
	for _, de := range dirEntries {
		name := de.Name()
		if de.IsDir() || strings.HasPrefix(name, ".") || !strings.HasPrefix(name, s.prefix) {
			continue
		}
		encoded := strings.TrimPrefix(name, s.prefix)
		if encoded == "" || strings.Contains(encoded, prefixSeparator) {
			continue
		}

		info, infoErr := de.Info()
		if infoErr != nil {
			// Removed between ReadDir and Info.
			continue
		}

		key, _ := s.keys.Decode(encoded)
		entries = append(entries, Entry{
			Key:     key,
			Name:    name,
			Path:    filepath.Join(s.dir, name),
			Size:    info.Size(),
			ModTime: info.ModTime(),
		})
	}

	sort.Slice(entries, func(i, j int) bool {
		return entries[i].Name < entries[j].Name
	})

	return entries, nil
}

// Keys returns the clear-text keys of all entries. Entries whose names cannot
// be decoded are skipped.
func (s *fileStore) Keys() ([]string, error) {
	entries, err := s.Entries()
	if err != nil {
		return nil, err
	}
	keys := make([]string, 0, len(entries))
	for _, e := range entries {
		if e.Key != "" {
			keys = append(keys, e.Key)
		}
	}
	return keys, nil
}

// Remove deletes the entry for key. A missing entry is not an error.
func (s *fileStore) Remove(key string) error {
	if key == "" {
		return ErrInvalidKey
	}
	if err := os.Remove(s.CacheFile(key)); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("failed to remove cache entry: %w", err)
	}
	return nil
}

// RemoveAll deletes every entry carrying this store's prefix.
func (s *fileStore) RemoveAll() error {
	entries, err := s.Entries()
	if err != nil {
		return err
	}
	for _, e := range entries {
		if err := os.Remove(e.Path); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return fmt.Errorf("failed to remove cache file %s: %w", e.Name, err)
		}
		s.logger.Debugf("removed cache file %s", e.Path)
	}
	return nil
}

// Purge deletes entries older than maxAge and returns how many were removed.
// A zero maxAge is a no-op.
func (s *fileStore) Purge(maxAge time.Duration) (int, error) {
	if maxAge <= 0 {
		s.logger.Debug("cache purge disabled")
		return 0, nil
	}

	entries, err := s.Entries()
	if err != nil {
		return 0, err
	}

	removed := 0
	now := s.now()
	for _, e := range entries {
		if now.Sub(e.ModTime) <= maxAge {
			continue
		}
		if err := os.Remove(e.Path); err != nil {
			if !errors.Is(err, fs.ErrNotExist) {
				s.logger.WithError(err).Warnf("failed to remove cache file %s", e.Path)
			}
			continue
		}
		s.logger.Debugf("removed cache file %s", e.Path)
		removed++
	}
	return removed, nil
}

// AwaitSaves blocks until no async save is in flight or ctx is done. Saves
// started while it waits are waited for too.
func (s *fileStore) AwaitSaves(ctx context.Context) error {
	select {
	case <-s.pending.wait():
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// fresh resolves the path for key and reports whether it holds an entry no
// older than maxAge. A zero maxAge accepts any age.
func (s *fileStore) fresh(key string, maxAge time.Duration) (string, bool, error) {
	if key == "" {
		return "", false, ErrInvalidKey
	}

	path := s.CacheFile(key)
	info, err := os.Stat(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			s.logger.Debugf("file %s does not exist", path)
			return path, false, nil
		}
		return path, false, &LoadingError{Key: key, Path: path, Err: err}
	}

	age := s.now().Sub(info.ModTime())
	if maxAge != 0 && age > maxAge {
		s.logger.Debugf("cache content for %q is expired since %s", key, age-maxAge)
		return path, false, nil
	}

	return path, true, nil
}

// write streams fn's output to a temp file in the cache directory and renames
// it over the entry for key, so a reader never sees a partial file.
func (s *fileStore) write(key string, fn func(io.Writer) error) error {
	path := s.CacheFile(key)

	if err := os.MkdirAll(s.dir, 0o755); err != nil { //nolint:mnd
		return &SavingError{Key: key, Path: path, Err: err}
	}

	tmp, err := os.CreateTemp(s.dir, tempPattern)
	if err != nil {
		return &SavingError{Key: key, Path: path, Err: err}
	}
	tmpPath := tmp.Name()

	fail := func(err error) error {
		_ = tmp.Close()
		_ = os.Remove(tmpPath)
		return &SavingError{Key: key, Path: path, Err: err}
	}

	if err := fn(tmp); err != nil {
		return fail(err)
	}
	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmpPath)
		return &SavingError{Key: key, Path: path, Err: err}
	}
	if err := os.Rename(tmpPath, path); err != nil {
		_ = os.Remove(tmpPath)
		return &SavingError{Key: key, Path: path, Err: err}
	}

	s.logger.Debugf("wrote cache file %s", path)
	return nil
}

// background runs save on its own goroutine. Its error is logged and dropped.
func (s *fileStore) background(key string, save func() error) {
	s.pending.add()
	go func() {
		defer s.pending.done()
		if err := save(); err != nil {
			s.logger.WithError(err).
				WithField("key", key).
				WithField("path", s.CacheFile(key)).
				Error("async cache save failed")
		}
	}()
}
