package store

import (
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCacheSetGet(t *testing.T) {
	c := NewCache(time.Minute, 10)

	c.Set("a", 1)
	v, ok := c.Get("a")
	require.True(t, ok)
	assert.Equal(t, 1, v)

	_, ok = c.Get("missing")
	assert.False(t, ok)
}

func TestCacheExpiry(t *testing.T) {
	c := NewCache(time.Minute, 10)
	current := time.Now()
	c.now = func() time.Time { return current }

	c.Set("a", 1)

	current = current.Add(59 * time.Second)
	_, ok := c.Get("a")
	assert.True(t, ok)

	current = current.Add(time.Second)
	_, ok = c.Get("a")
	assert.False(t, ok)
	// Expired entries are pruned on read.
	assert.Equal(t, 0, c.Len())
}

func TestCacheSetResetsTTL(t *testing.T) {
	c := NewCache(time.Minute, 10)
	current := time.Now()
	c.now = func() time.Time { return current }

	c.Set("a", 1)
	current = current.Add(45 * time.Second)
	c.Set("a", 2)
	current = current.Add(45 * time.Second)

	v, ok := c.Get("a")
	require.True(t, ok)
	assert.Equal(t, 2, v)
}

func TestCacheEvictsLRU(t *testing.T) {
	c := NewCache(time.Minute, 3)

	c.Set("a", 1)
	c.Set("b", 2)
	c.Set("c", 3)

	// Touch "a" so "b" becomes the least recently used entry.
	_, ok := c.Get("a")
	require.True(t, ok)

	c.Set("d", 4)

	_, ok = c.Get("b")
	assert.False(t, ok)
	for _, key := range []string{"a", "c", "d"} {
		_, ok := c.Get(key)
		assert.True(t, ok, "expected %q to survive eviction", key)
	}
	assert.Equal(t, 3, c.Len())
}

func TestCacheUpdateDoesNotEvict(t *testing.T) {
	c := NewCache(time.Minute, 2)

	c.Set("a", 1)
	c.Set("b", 2)
	c.Set("a", 3)

	assert.Equal(t, 2, c.Len())
	v, ok := c.Get("a")
	require.True(t, ok)
	assert.Equal(t, 3, v)
}

func TestCacheUnboundedWhenMaxSizeZero(t *testing.T) {
	c := NewCache(time.Minute, 0)

	for i := 0; i < 100; i++ {
		c.Set(fmt.Sprintf("k%d", i), i)
	}
	assert.Equal(t, 100, c.Len())
}

func TestBuildCacheKey(t *testing.T) {
	key := BuildCacheKey("flights", "pid-1")

	assert.Regexp(t, `^flights:[0-9a-f]{32}$`, key)
	assert.Equal(t, key, BuildCacheKey("flights", "pid-1"))
	assert.NotEqual(t, key, BuildCacheKey("flights", "pid-2"))
	assert.NotEqual(t, key, BuildCacheKey("tasks", "pid-1"))
}
