// Copyright (c) 2025 Steve Taranto <staranto@gmail.com>.
// SPDX-License-Identifier: Apache-2.0

package persist

import (
	"bytes"
	"errors"
	"io"
	"io/fs"
	"os"
	"time"
)

// StreamPersister stores raw byte streams, one file per key.
type StreamPersister struct {
	*fileStore
}

// NewStreamPersister returns a persister rooted at dir. Filenames carry no
// prefix unless WithPrefix is given.
func NewStreamPersister(dir string, opts ...Option) (*StreamPersister, error) {
	store, err := newFileStore(dir, "", newOptions(opts...))
	if err != nil {
		return nil, err
	}
	return &StreamPersister{fileStore: store}, nil
}

// Save copies r into the entry for key and returns a reader over the stored
// bytes, which the caller must close. A synchronous save streams r straight to
// disk and returns the cached file. An async save buffers r in memory, writes
// it in the background and returns a reader over the buffer.
func (p *StreamPersister) Save(key string, r io.Reader) (io.ReadCloser, error) {
	if key == "" {
		return nil, ErrInvalidKey
	}

	if p.async {
		data, err := io.ReadAll(r)
		if err != nil {
			return nil, &SavingError{Key: key, Path: p.CacheFile(key), Err: err}
		}
		p.background(key, func() error {
			return p.writeBytes(key, data)
		})
		return io.NopCloser(bytes.NewReader(data)), nil
	}

	err := p.write(key, func(w io.Writer) error {
		_, cerr := io.Copy(w, r)
		return cerr
	})
	if err != nil {
		return nil, err
	}

	f, err := os.Open(p.CacheFile(key))
	if err != nil {
		return nil, &SavingError{Key: key, Path: p.CacheFile(key), Err: err}
	}
	return f, nil
}

// SaveBytes stores data under key.
func (p *StreamPersister) SaveBytes(key string, data []byte) error {
	rc, err := p.Save(key, bytes.NewReader(data))
	if err != nil {
		return err
	}
	return rc.Close()
}

// Load opens the entry for key if it is no older than maxAge. A zero maxAge
// never expires. found is false, with a nil error, when the entry is missing
// or stale. The caller must close the returned reader.
func (p *StreamPersister) Load(key string, maxAge time.Duration) (rc io.ReadCloser, found bool, err error) {
	path, ok, err := p.fresh(key, maxAge)
	if err != nil || !ok {
		return nil, false, err
	}

	f, err := os.Open(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			p.logger.WithError(err).Warnf("file %s does not exist", path)
			return nil, false, nil
		}
		return nil, false, &LoadingError{Key: key, Path: path, Err: err}
	}
	return f, true, nil
}

// LoadBytes reads the whole entry for key. See Load.
func (p *StreamPersister) LoadBytes(key string, maxAge time.Duration) ([]byte, bool, error) {
	rc, ok, err := p.Load(key, maxAge)
	if err != nil || !ok {
		return nil, false, err
	}
	defer rc.Close()

	data, err := io.ReadAll(rc)
	if err != nil {
		return nil, false, &LoadingError{Key: key, Path: p.CacheFile(key), Err: err}
	}
	return data, true, nil
}

func (p *StreamPersister) writeBytes(key string, data []byte) error {
	return p.write(key, func(w io.Writer) error {
		_, err := w.Write(data)
		return err
	})
}
