package geolocation

import (
	"time"

	"github.com/Dosada05/tournament-finder/geo"
	"github.com/hashicorp/golang-lru/v2/expirable"
)

// Cache holds resolved positions by IP. Implementations must be safe for
// concurrent use and bounded.
type Cache interface {
	Get(ip string) (geo.Point, bool)
	Add(ip string, p geo.Point)
}

type lruCache struct {
	lru *expirable.LRU[string, geo.Point]
}

// NewLRUCache returns a size-bounded cache whose entries expire after ttl.
func NewLRUCache(size int, ttl time.Duration) Cache {
	if size <= 0 {
		size = 1024
	}
	return &lruCache{lru: expirable.NewLRU[string, geo.Point](size, nil, ttl)}
}

func (c *lruCache) Get(ip string) (geo.Point, bool) {
	return c.lru.Get(ip)
}

func (c *lruCache) Add(ip string, p geo.Point) {
	c.lru.Add(ip, p)
}
