package service

import (
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"

	"github.com/saber-nyan/gchan/metrics"
	"github.com/saber-nyan/gchan/models"
)

// FileCache is an LRU of file records keyed by hash, with a TTL.
// Records are immutable once written, so entries are never invalidated.
type FileCache struct {
	cache *expirable.LRU[string, *models.File]
}

// NewFileCache creates a cache holding at most size records for ttl each
func NewFileCache(size int, ttl time.Duration) *FileCache {
	return &FileCache{cache: expirable.NewLRU[string, *models.File](size, nil, ttl)}
}

// Get returns the cached record for hash
func (c *FileCache) Get(hash string) (*models.File, bool) {
	if c == nil {
		return nil, false
	}
	file, ok := c.cache.Get(hash)
	if ok {
		metrics.FileCacheHits.Inc()
		return file, true
	}
	metrics.FileCacheMisses.Inc()
	return nil, false
}

// Set adds or refreshes a record
func (c *FileCache) Set(file *models.File) {
	if c == nil {
		return
	}
	c.cache.Add(file.Hash, file)
}

// Len returns the number of cached records
func (c *FileCache) Len() int {
	if c == nil {
		return 0
	}
	return c.cache.Len()
}
