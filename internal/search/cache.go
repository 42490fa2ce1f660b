package search

import (
	"crypto/sha256"
	"encoding/hex"
	"sync"

	"github.com/hashicorp/golang-lru/v2/simplelru"
)

// DefaultCacheSize is the query cache capacity.
const DefaultCacheSize = 100

// CacheStats reports cache effectiveness.
type CacheStats struct {
	Size     int     `json:"size"`
	Capacity int     `json:"capacity"`
	Hits     int64   `json:"hits"`
	Misses   int64   `json:"misses"`
	HitRate  float64 `json:"hit_rate"`
}

// SearchCache memoizes search responses with LRU eviction. Entries
// have no TTL; staleness is handled by clearing the cache on reindex.
type SearchCache struct {
	mu       sync.Mutex
	lru      *simplelru.LRU[string, *Response]
	capacity int
	hits     int64
	misses   int64
}

// NewSearchCache creates a cache with the given capacity.
func NewSearchCache(capacity int) *SearchCache {
	if capacity <= 0 {
		capacity = DefaultCacheSize
	}
	// simplelru only errors on non-positive size.
	lru, _ := simplelru.NewLRU[string, *Response](capacity, nil)
	return &SearchCache{lru: lru, capacity: capacity}
}

// CacheKey derives the cache key for a query and category: the first
// 16 hex characters of a SHA-256 digest. Compact, with an accepted
// collision risk.
func CacheKey(query, category string) string {
	sum := sha256.Sum256([]byte(query + ":" + category))
	return hex.EncodeToString(sum[:])[:16]
}

// Get returns the cached response for a key, promoting it to
// most-recently-used on a hit.
func (c *SearchCache) Get(key string) (*Response, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	resp, ok := c.lru.Get(key)
	if ok {
		c.hits++
	} else {
		c.misses++
	}
	return resp, ok
}

// Set stores a response, evicting the least-recently-used entry at
// capacity.
func (c *SearchCache) Set(key string, resp *Response) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.lru.Add(key, resp)
}

// Clear drops every entry. Hit and miss counters are kept.
func (c *SearchCache) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.lru.Purge()
}

// Stats returns a snapshot of cache counters.
func (c *SearchCache) Stats() CacheStats {
	c.mu.Lock()
	defer c.mu.Unlock()

	total := c.hits + c.misses
	rate := 0.0
	if total > 0 {
		rate = float64(c.hits) / float64(total)
	}
	return CacheStats{
		Size:     c.lru.Len(),
		Capacity: c.capacity,
		Hits:     c.hits,
		Misses:   c.misses,
		HitRate:  rate,
	}
}
