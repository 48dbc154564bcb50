// Copyright (c) 2025 Steve Taranto <staranto@gmail.com>.
// SPDX-License-Identifier: Apache-2.0
// no-cloc

package persist

import (
	"bytes"
	"context"
	"io"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testCacheKey = "TEST_CACHE_KEY"

func newTestStreamPersister(t *testing.T, opts ...Option) *StreamPersister {
	t.Helper()
	p, err := NewStreamPersister(t.TempDir(), opts...)
	require.NoError(t, err)
	t.Cleanup(func() {
		_ = p.RemoveAll()
	})
	return p
}

func writeEntry(t *testing.T, path string, data string, age time.Duration) {
	t.Helper()
	require.NoError(t, os.WriteFile(path, []byte(data), 0o600))
	if age > 0 {
		past := time.Now().Add(-age)
		require.NoError(t, os.Chtimes(path, past, past))
	}
}

func TestStreamSave_ReturnsData(t *testing.T) {
	p := newTestStreamPersister(t)

	rc, err := p.Save(testCacheKey, bytes.NewReader([]byte("coucou")))
	require.NoError(t, err)
	returned, err := io.ReadAll(rc)
	require.NoError(t, err)
	require.NoError(t, rc.Close())
	assert.Equal(t, []byte("coucou"), returned)

	onDisk, err := os.ReadFile(p.CacheFile(testCacheKey))
	require.NoError(t, err)
	assert.Equal(t, []byte("coucou"), onDisk)
}

func TestStreamLoad_NoExpiry(t *testing.T) {
	p := newTestStreamPersister(t)
	writeEntry(t, p.CacheFile(testCacheKey), "coucou", time.Hour)

	got, ok, err := p.LoadBytes(testCacheKey, 0)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, []byte("coucou"), got)
}

func TestStreamLoad_NotExpired(t *testing.T) {
	p := newTestStreamPersister(t)
	writeEntry(t, p.CacheFile(testCacheKey), "coucou", 0)

	rc, ok, err := p.Load(testCacheKey, time.Second)
	require.NoError(t, err)
	require.True(t, ok)
	defer rc.Close()

	got, err := io.ReadAll(rc)
	require.NoError(t, err)
	assert.Equal(t, []byte("coucou"), got)
}

func TestStreamLoad_Expired(t *testing.T) {
	p := newTestStreamPersister(t)
	path := p.CacheFile(testCacheKey)
	writeEntry(t, path, "coucou", 5*time.Second)

	rc, ok, err := p.Load(testCacheKey, time.Second)
	require.NoError(t, err)
	assert.False(t, ok)
	assert.Nil(t, rc)

	// Stale entries are reported missing but left on disk.
	assert.FileExists(t, path)
}

func TestStreamLoad_Missing(t *testing.T) {
	p := newTestStreamPersister(t)

	data, ok, err := p.LoadBytes("never-saved", 0)
	assert.NoError(t, err)
	assert.False(t, ok)
	assert.Nil(t, data)
}

func TestStreamLoad_UsesClock(t *testing.T) {
	now := time.Now()
	p := newTestStreamPersister(t, WithClock(func() time.Time { return now }))
	require.NoError(t, p.SaveBytes(testCacheKey, []byte("coucou")))

	assert.True(t, p.Contains(testCacheKey, time.Minute))

	now = now.Add(2 * time.Minute)
	assert.False(t, p.Contains(testCacheKey, time.Minute))
	assert.True(t, p.Contains(testCacheKey, 0))
}

func TestStreamSave_Overwrites(t *testing.T) {
	p := newTestStreamPersister(t)
	require.NoError(t, p.SaveBytes(testCacheKey, []byte("first")))
	require.NoError(t, p.SaveBytes(testCacheKey, []byte("second")))

	got, ok, err := p.LoadBytes(testCacheKey, 0)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, []byte("second"), got)
}

func TestStreamSave_Async(t *testing.T) {
	p := newTestStreamPersister(t, WithAsyncSave(true))

	rc, err := p.Save(testCacheKey, bytes.NewReader([]byte("coucou")))
	require.NoError(t, err)
	returned, err := io.ReadAll(rc)
	require.NoError(t, err)
	assert.Equal(t, []byte("coucou"), returned)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	require.NoError(t, p.AwaitSaves(ctx))

	got, ok, err := p.LoadBytes(testCacheKey, 0)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, []byte("coucou"), got)
}

func TestStreamSave_EmptyKey(t *testing.T) {
	p := newTestStreamPersister(t)

	_, err := p.Save("", bytes.NewReader(nil))
	assert.ErrorIs(t, err, ErrInvalidKey)

	_, _, err = p.Load("", 0)
	assert.ErrorIs(t, err, ErrInvalidKey)
}

func TestStreamSave_WithPrefix(t *testing.T) {
	p := newTestStreamPersister(t, WithPrefix("bin_"))
	require.NoError(t, p.SaveBytes(testCacheKey, []byte("coucou")))

	assert.FileExists(t, filepath.Join(p.Dir(), "bin_TEST%5FCACHE%5FKEY"))
}
