package cache

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCache_GetSet(t *testing.T) {
	c := New(10)

	_, ok := c.Get("missing")
	assert.False(t, ok)

	c.Set("a", &Entry{Body: []byte("hello"), StatusCode: 200, CachedAt: time.Now()})

	e, ok := c.Get("a")
	require.True(t, ok)
	assert.Equal(t, []byte("hello"), e.Body)

	stats := c.Stats()
	assert.Equal(t, int64(1), stats.Hits)
	assert.Equal(t, int64(1), stats.Misses)
	assert.Equal(t, 1, stats.Size)
}

func TestCache_ExpiryEvictsOnRead(t *testing.T) {
	c := New(10)
	c.Set("a", &Entry{Body: []byte("x"), CachedAt: time.Now().Add(-time.Minute), TTL: time.Second})

	_, ok := c.Get("a")
	assert.False(t, ok)
	assert.Zero(t, c.Size(), "expired entry is removed during the read")
}

func TestCache_ZeroTTLNeverExpires(t *testing.T) {
	c := New(10)
	c.Set("shell", &Entry{Body: []byte("x"), CachedAt: time.Now().Add(-24 * time.Hour)})

	_, ok := c.Get("shell")
	assert.True(t, ok)
}

func TestCache_EvictsOldestAtCapacity(t *testing.T) {
	c := New(2)
	c.Set("a", &Entry{Body: []byte("1"), CachedAt: time.Now()})
	c.Set("b", &Entry{Body: []byte("2"), CachedAt: time.Now()})
	c.Set("c", &Entry{Body: []byte("3"), CachedAt: time.Now()})

	_, ok := c.Get("a")
	assert.False(t, ok, "oldest entry is evicted first")
	_, ok = c.Get("c")
	assert.True(t, ok)
}

func TestStore_Activate(t *testing.T) {
	s := NewStore(10)
	s.Open("storykeeper-shell-v1").Set("k", &Entry{CachedAt: time.Now()})
	s.Open("storykeeper-api-v1").Set("k", &Entry{CachedAt: time.Now()})
	s.Open("storykeeper-shell-v2")
	s.Open("storykeeper-api-v2")

	dropped := s.Activate([]string{"storykeeper-shell-v2", "storykeeper-api-v2"})
	assert.Equal(t, []string{"storykeeper-api-v1", "storykeeper-shell-v1"}, dropped)
	assert.Equal(t, []string{"storykeeper-api-v2", "storykeeper-shell-v2"}, s.Names())
}

func TestStore_OpenReturnsSameCache(t *testing.T) {
	s := NewStore(10)
	c1 := s.Open("x")
	c1.Set("k", &Entry{Body: []byte("v"), CachedAt: time.Now()})

	c2 := s.Open("x")
	e, ok := c2.Get("k")
	require.True(t, ok)
	assert.Equal(t, []byte("v"), e.Body)
}
