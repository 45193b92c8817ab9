package cache

import (
	"sync"
	"time"

	gocache "github.com/patrickmn/go-cache"
	"github.com/rs/zerolog"

	"travel-ai-planner/internal/domain/model"
	"travel-ai-planner/internal/domain/ports/adapter"
	"travel-ai-planner/internal/infra/metrics"
)

const cacheName = "itinerary"

// CacheStats is the ops snapshot for the response cache.
type CacheStats struct {
	Entries   int   `json:"entries"`
	Hits      int64 `json:"hits"`
	Misses    int64 `json:"misses"`
	Evictions int64 `json:"evictions"`
}

type Config struct {
	TTL           time.Duration
	SweepInterval time.Duration
	MaxEntries    int
}

// Entry is a cached successful generation keyed by request fingerprint.
type Entry struct {
	Itinerary *model.Itinerary
	Usage     adapter.Usage
	StoredAt  time.Time
}

// ResponseCache maps request fingerprints to prior successful results.
// Expired entries are removed lazily on lookup and swept periodically by
// the store's janitor; a size bound evicts the entry closest to expiry
// when full.
type ResponseCache struct {
	store      *gocache.Cache
	maxEntries int
	log        *zerolog.Logger

	mu        sync.Mutex // guards the eviction scan on Set
	hits      int64
	misses    int64
	evictions int64
}

func NewResponseCache(cfg Config, logger *zerolog.Logger) *ResponseCache {
	if cfg.TTL <= 0 {
		cfg.TTL = time.Hour
	}
	if cfg.SweepInterval <= 0 {
		cfg.SweepInterval = 10 * time.Minute
	}
	if cfg.MaxEntries <= 0 {
		cfg.MaxEntries = 1000
	}
	l := logger.With().Str("component", "ResponseCache").Logger()
	return &ResponseCache{
		store:      gocache.New(cfg.TTL, cfg.SweepInterval),
		maxEntries: cfg.MaxEntries,
		log:        &l,
	}
}

// Get returns the cached entry for a fingerprint, if still valid.
func (c *ResponseCache) Get(fingerprint string) (*Entry, bool) {
	v, ok := c.store.Get(fingerprint)
	c.mu.Lock()
	if ok {
		c.hits++
	} else {
		c.misses++
	}
	c.mu.Unlock()
	if !ok {
		metrics.IncCacheRequest(cacheName, "miss")
		return nil, false
	}
	metrics.IncCacheRequest(cacheName, "hit")
	return v.(*Entry), true
}

// Set stores a successful result under the fingerprint with the default
// TTL, evicting the entry closest to expiry if the cache is full.
// Overwriting an existing key never evicts.
func (c *ResponseCache) Set(fingerprint string, e *Entry) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if _, exists := c.store.Get(fingerprint); !exists && c.store.ItemCount() >= c.maxEntries {
		if victim, ok := c.oldest(); ok {
			c.store.Delete(victim)
			c.evictions++
			metrics.IncCacheEviction(cacheName)
			c.log.Debug().Str("fingerprint", victim).Msg("evicted cache entry under size pressure")
		}
	}
	c.store.SetDefault(fingerprint, e)
}

// oldest picks the key with the earliest expiration. Assumes c.mu held.
func (c *ResponseCache) oldest() (string, bool) {
	var key string
	var exp int64
	for k, item := range c.store.Items() {
		if key == "" || item.Expiration < exp {
			key, exp = k, item.Expiration
		}
	}
	return key, key != ""
}

// Clear drops every entry.
func (c *ResponseCache) Clear() {
	c.store.Flush()
}

func (c *ResponseCache) Stats() CacheStats {
	c.mu.Lock()
	defer c.mu.Unlock()
	return CacheStats{
		Entries:   c.store.ItemCount(),
		Hits:      c.hits,
		Misses:    c.misses,
		Evictions: c.evictions,
	}
}
