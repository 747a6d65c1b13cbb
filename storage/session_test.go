package storage

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestSessionStorage(t *testing.T) *SessionStorage {
	t.Helper()
	s, err := NewSessionStorage(filepath.Join(t.TempDir(), "data", "sessions.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func TestSessionStorage_SetGetDelete(t *testing.T) {
	s := newTestSessionStorage(t)

	require.NoError(t, s.Set("k1", []byte("v1"), 0))
	got, err := s.Get("k1")
	require.NoError(t, err)
	assert.Equal(t, []byte("v1"), got)

	require.NoError(t, s.Delete("k1"))
	got, err = s.Get("k1")
	require.NoError(t, err)
	assert.Nil(t, got)

	got, err = s.Get("missing")
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestSessionStorage_IgnoresEmpty(t *testing.T) {
	s := newTestSessionStorage(t)

	require.NoError(t, s.Set("", []byte("v"), 0))
	require.NoError(t, s.Set("k", nil, 0))

	got, err := s.Get("k")
	require.NoError(t, err)
	assert.Nil(t, got)
	got, err = s.Get("")
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestSessionStorage_Expiration(t *testing.T) {
	s := newTestSessionStorage(t)
	now := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	s.now = func() time.Time { return now }

	require.NoError(t, s.Set("short", []byte("a"), time.Minute))
	require.NoError(t, s.Set("long", []byte("b"), time.Hour))
	require.NoError(t, s.Set("forever", []byte("c"), 0))

	now = now.Add(2 * time.Minute)

	got, err := s.Get("short")
	require.NoError(t, err)
	assert.Nil(t, got, "expired entry is not returned")

	n, err := s.Cleanup()
	require.NoError(t, err)
	assert.Equal(t, 0, n, "expired entry was already dropped by Get")

	now = now.Add(2 * time.Hour)
	n, err = s.Cleanup()
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	got, err = s.Get("forever")
	require.NoError(t, err)
	assert.Equal(t, []byte("c"), got)
}

func TestSessionStorage_Reset(t *testing.T) {
	s := newTestSessionStorage(t)
	require.NoError(t, s.Set("a", []byte("1"), 0))
	require.NoError(t, s.Set("b", []byte("2"), 0))

	require.NoError(t, s.Reset())

	for _, k := range []string{"a", "b"} {
		got, err := s.Get(k)
		require.NoError(t, err)
		assert.Nil(t, got)
	}
	require.NoError(t, s.Set("c", []byte("3"), 0))
}
