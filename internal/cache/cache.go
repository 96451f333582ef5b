// Package cache provides an in-memory TTL cache with ETag support.
package cache

import (
	"crypto/md5"
	"fmt"
	"strings"
	"time"

	gocache "github.com/patrickmn/go-cache"
)

// TTL constants.
const (
	TTLPyramid   = 5 * time.Minute
	TTLGradeList = 24 * time.Hour // grade tables only change with a release
)

type entry struct {
	data []byte
	etag string
}

// Cache is a thread-safe in-memory TTL cache.
type Cache struct {
	store   *gocache.Cache
	enabled bool
}

// New creates a new cache. Pass enabled=false to create a no-op cache.
func New(enabled bool, defaultTTL time.Duration) *Cache {
	if defaultTTL <= 0 {
		defaultTTL = TTLPyramid
	}
	return &Cache{
		store:   gocache.New(defaultTTL, 5*time.Minute),
		enabled: enabled,
	}
}

// Get retrieves a cached value. Returns data, etag, and whether the entry was found.
func (c *Cache) Get(key string) (data []byte, etag string, ok bool) {
	if !c.enabled {
		return nil, "", false
	}
	v, found := c.store.Get(key)
	if !found {
		return nil, "", false
	}
	e := v.(entry)
	return e.data, e.etag, true
}

// Set stores a value with a TTL and returns its ETag.
func (c *Cache) Set(key string, data []byte, ttl time.Duration) string {
	etag := ComputeETag(data)
	if c.enabled {
		c.store.Set(key, entry{data: data, etag: etag}, ttl)
	}
	return etag
}

// Invalidate drops every key starting with prefix.
func (c *Cache) Invalidate(prefix string) {
	for key := range c.store.Items() {
		if strings.HasPrefix(key, prefix) {
			c.store.Delete(key)
		}
	}
}

// Stats returns cache statistics.
func (c *Cache) Stats() map[string]interface{} {
	return map[string]interface{}{
		"enabled":     c.enabled,
		"active_keys": c.store.ItemCount(),
	}
}

// ComputeETag generates a weak ETag from response data using MD5.
func ComputeETag(data []byte) string {
	hash := md5.Sum(data)
	return fmt.Sprintf(`W/"%x"`, hash[:8])
}

// CheckETagMatch checks if If-None-Match header matches the current ETag.
func CheckETagMatch(ifNoneMatch, etag string) bool {
	if ifNoneMatch == "" {
		return false
	}
	if ifNoneMatch == "*" {
		return true
	}
	for _, candidate := range strings.Split(ifNoneMatch, ",") {
		if strings.TrimSpace(candidate) == etag {
			return true
		}
	}
	return false
}
