// Copyright (c) 2025 Steve Taranto <staranto@gmail.com>.
// SPDX-License-Identifier: Apache-2.0

package persist

import (
	"bytes"
	"errors"
	"io"
	"io/fs"
	"os"
	"reflect"
	"regexp"
	"time"
)

var (
	unsafeNameChars = regexp.MustCompile(`[^A-Za-z0-9]+`)
	edgeDashes      = regexp.MustCompile(`^-+|-+$`)
)

// ObjectPersister stores values of type T, one encoded file per key.
type ObjectPersister[T any] struct {
	*fileStore
	codec Codec
}

// NewObjectPersister returns a persister rooted at dir. The default filename
// prefix is derived from T, so persisters for different types can share a
// directory.
func NewObjectPersister[T any](dir string, codec Codec, opts ...Option) (*ObjectPersister[T], error) {
	if codec == nil {
		codec = JSON
	}

	store, err := newFileStore(dir, typePrefix[T](), newOptions(opts...))
	if err != nil {
		return nil, err
	}

	return &ObjectPersister[T]{fileStore: store, codec: codec}, nil
}

// Codec returns the persister's codec.
func (p *ObjectPersister[T]) Codec() Codec {
	return p.codec
}

// Save encodes value and writes it under key, returning value. With async
// saves enabled the write happens in the background and write failures are
// only logged; encoding failures are always returned.
func (p *ObjectPersister[T]) Save(key string, value T) (T, error) {
	if key == "" {
		return value, ErrInvalidKey
	}

	data, err := p.codec.Marshal(value)
	if err != nil {
		return value, &SavingError{Key: key, Path: p.CacheFile(key), Err: err}
	}

	save := func() error {
		return p.write(key, func(w io.Writer) error {
			_, werr := io.Copy(w, bytes.NewReader(data))
			return werr
		})
	}

	if p.async {
		p.background(key, save)
		return value, nil
	}

	return value, save()
}

// Load returns the value stored under key if it is no older than maxAge. A
// zero maxAge never expires. found is false, with a nil error, when the entry
// is missing or stale.
func (p *ObjectPersister[T]) Load(key string, maxAge time.Duration) (value T, found bool, err error) {
	path, ok, err := p.fresh(key, maxAge)
	if err != nil || !ok {
		return value, false, err
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			// Removed since fresh() looked at it.
			p.logger.WithError(err).Warnf("file %s does not exist", path)
			return value, false, nil
		}
		return value, false, &LoadingError{Key: key, Path: path, Err: err}
	}

	if err := p.codec.Unmarshal(data, &value); err != nil {
		var zero T
		return zero, false, &LoadingError{Key: key, Path: path, Err: err}
	}

	return value, true, nil
}

// LoadAll returns every fresh entry whose key can be recovered from its
// filename. The first undecodable entry aborts with a LoadingError.
func (p *ObjectPersister[T]) LoadAll(maxAge time.Duration) (map[string]T, error) {
	keys, err := p.Keys()
	if err != nil {
		return nil, err
	}

	values := make(map[string]T, len(keys))
	for _, key := range keys {
		v, ok, loadErr := p.Load(key, maxAge)
		if loadErr != nil {
			return nil, loadErr
		}
		if ok {
			values[key] = v
		}
	}
	return values, nil
}

// typePrefix builds a filesystem-safe prefix from T's name, e.g. "User_" or
// "map-string-interface_".
func typePrefix[T any]() string {
	typ := reflect.TypeOf((*T)(nil)).Elem()
	name := typ.Name()
	if name == "" {
		name = typ.String()
	}
	name = unsafeNameChars.ReplaceAllString(name, "-")
	name = edgeDashes.ReplaceAllString(name, "")
	return name + "_"
}
