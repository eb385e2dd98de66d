package worldbank

import (
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"
)

// Cache sizes. The catalog side holds a handful of entries (one per catalog
// resource); the series side must hold the full country × indicator fan-out.
const (
	catalogCacheSize = 64
	seriesCacheSize  = 4096
)

// responseCache caches raw upstream response bodies keyed by
// (resource, parameters). Catalog responses (countries, indicator metadata)
// and time-series responses expire on separate clocks: series requests are
// issued far more often and in bulk, so they get the shorter TTL.
//
// The underlying LRUs are safe for concurrent use, which the observation
// fan-out workers rely on.
type responseCache struct {
	catalog *expirable.LRU[string, []byte]
	series  *expirable.LRU[string, []byte]
}

func newResponseCache(catalogTTL, seriesTTL time.Duration) *responseCache {
	return &responseCache{
		catalog: expirable.NewLRU[string, []byte](catalogCacheSize, nil, catalogTTL),
		series:  expirable.NewLRU[string, []byte](seriesCacheSize, nil, seriesTTL),
	}
}

func (c *responseCache) get(key string, series bool) ([]byte, bool) {
	if series {
		return c.series.Get(key)
	}
	return c.catalog.Get(key)
}

func (c *responseCache) set(key string, body []byte, series bool) {
	if series {
		c.series.Add(key, body)
		return
	}
	c.catalog.Add(key, body)
}
