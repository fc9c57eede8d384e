package memory

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCacheExpiresEntries(t *testing.T) {
	cache := New(time.Minute)
	t.Cleanup(cache.Close)

	now := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	cache.now = func() time.Time { return now }

	cache.Set("video:1", "course:1")
	got, ok := cache.Get("video:1")
	require.True(t, ok)
	assert.Equal(t, "course:1", got)

	now = now.Add(2 * time.Minute)
	_, ok = cache.Get("video:1")
	assert.False(t, ok)

	cache.purgeExpired()
	assert.Zero(t, cache.Len())
}

func TestGetOrSetDoesNotCacheErrors(t *testing.T) {
	cache := New(time.Minute)
	t.Cleanup(cache.Close)

	boom := errors.New("boom")
	_, err := cache.GetOrSet("k", func() (interface{}, error) { return nil, boom })
	require.ErrorIs(t, err, boom)

	calls := 0
	for i := 0; i < 3; i++ {
		val, err := cache.GetOrSet("k", func() (interface{}, error) {
			calls++
			return 7, nil
		})
		require.NoError(t, err)
		assert.Equal(t, 7, val)
	}
	assert.Equal(t, 1, calls)
}

func TestZeroTTLDisablesCaching(t *testing.T) {
	cache := New(0)
	t.Cleanup(cache.Close)

	cache.Set("k", 1)
	_, ok := cache.Get("k")
	assert.False(t, ok)
}
