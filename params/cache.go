package params

import (
	"time"

	"github.com/jellydator/ttlcache/v3"

	"github.com/kolah/covenant/contract"
)

// DefaultCacheTTL is how long an unused parser is kept. Every hit extends it.
const DefaultCacheTTL = 30 * time.Minute

// Cache memoizes one RequestParser per definition. Parsers of definitions
// dropped by a reload are evicted once unused for the TTL.
type Cache struct {
	registry *Registry
	items    *ttlcache.Cache[*contract.Definition, *RequestParser]
}

// NewCache returns a parser cache over registry; a nil registry means the
// built-in parsers.
func NewCache(registry *Registry, ttl time.Duration) *Cache {
	if registry == nil {
		registry = DefaultRegistry()
	}
	if ttl <= 0 {
		ttl = DefaultCacheTTL
	}
	return &Cache{
		registry: registry,
		items: ttlcache.New[*contract.Definition, *RequestParser](
			ttlcache.WithTTL[*contract.Definition, *RequestParser](ttl),
		),
	}
}

// For returns the parser of d, building it on first use. Construction
// errors are not cached.
func (c *Cache) For(d *contract.Definition) (*RequestParser, error) {
	if item := c.items.Get(d); item != nil {
		return item.Value(), nil
	}
	c.items.DeleteExpired()

	p, err := NewRequestParser(d, c.registry)
	if err != nil {
		return nil, err
	}
	c.items.Set(d, p, ttlcache.DefaultTTL)
	return p, nil
}

// Len returns the number of cached parsers.
func (c *Cache) Len() int {
	return c.items.Len()
}
