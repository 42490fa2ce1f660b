package search

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCacheKeyFormat(t *testing.T) {
	key := CacheKey("補助金額", "faq")
	assert.Len(t, key, 16)
	assert.Regexp(t, "^[0-9a-f]{16}$", key)

	assert.NotEqual(t, key, CacheKey("補助金額", "all"))
	assert.NotEqual(t, key, CacheKey("預算", "faq"))
	assert.Equal(t, key, CacheKey("補助金額", "faq"))
}

func TestCacheEvictsLeastRecentlyUsed(t *testing.T) {
	c := NewSearchCache(3)

	c.Set("A", &Response{Query: "a"})
	c.Set("B", &Response{Query: "b"})
	c.Set("C", &Response{Query: "c"})
	c.Set("D", &Response{Query: "d"})

	_, ok := c.Get("A")
	assert.False(t, ok)
	_, ok = c.Get("B")
	assert.True(t, ok)
	_, ok = c.Get("C")
	assert.True(t, ok)
	_, ok = c.Get("D")
	assert.True(t, ok)
}

func TestCacheGetPromotes(t *testing.T) {
	c := NewSearchCache(3)
	c.Set("A", &Response{Query: "a"})
	c.Set("B", &Response{Query: "b"})
	c.Set("C", &Response{Query: "c"})

	// Touch A so B and C are evicted first.
	_, ok := c.Get("A")
	require.True(t, ok)

	c.Set("D", &Response{Query: "d"})
	c.Set("E", &Response{Query: "e"})

	_, ok = c.Get("A")
	assert.True(t, ok)
	_, ok = c.Get("B")
	assert.False(t, ok)
	_, ok = c.Get("C")
	assert.False(t, ok)
}

func TestCacheSetUpdatesExisting(t *testing.T) {
	c := NewSearchCache(3)
	c.Set("A", &Response{Query: "old"})
	c.Set("A", &Response{Query: "new"})

	got, ok := c.Get("A")
	require.True(t, ok)
	assert.Equal(t, "new", got.Query)
	assert.Equal(t, 1, c.Stats().Size)
}

func TestCacheSizeNeverExceedsCapacity(t *testing.T) {
	c := NewSearchCache(5)
	for i := 0; i < 20; i++ {
		c.Set(fmt.Sprintf("key-%d", i), &Response{})
		assert.LessOrEqual(t, c.Stats().Size, 5)
	}
}

func TestCacheStats(t *testing.T) {
	c := NewSearchCache(10)
	c.Set("A", &Response{})

	_, _ = c.Get("A")
	_, _ = c.Get("A")
	_, _ = c.Get("missing")

	stats := c.Stats()
	assert.Equal(t, 1, stats.Size)
	assert.Equal(t, 10, stats.Capacity)
	assert.Equal(t, int64(2), stats.Hits)
	assert.Equal(t, int64(1), stats.Misses)
	assert.InDelta(t, 2.0/3.0, stats.HitRate, 1e-9)
}

func TestCacheClear(t *testing.T) {
	c := NewSearchCache(10)
	c.Set("A", &Response{})
	c.Set("B", &Response{})

	c.Clear()

	assert.Equal(t, 0, c.Stats().Size)
	_, ok := c.Get("A")
	assert.False(t, ok)
}
