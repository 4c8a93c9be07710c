package resolve

import (
	"fmt"
	"reflect"
	"sync"

	log "github.com/sirupsen/logrus"
	"golang.org/x/sync/singleflight"

	"xmlrpc-binder/internal/common"
	"xmlrpc-binder/internal/mapping"
)

// DefaultCacheSize bounds the number of cached root closures.
const DefaultCacheSize = 256

// Cache memoizes Resolver results per root type. Concurrent misses on the
// same root share one resolution. Failures are not cached.
type Cache struct {
	r   *Resolver
	max int

	group singleflight.Group

	mu      sync.RWMutex
	entries map[reflect.Type]*mapping.Map
	order   []reflect.Type
	// gen advances on Reset and Evict. A resolution started under an
	// older generation is returned to its callers but never stored.
	gen uint64
}

// NewCache wraps r. A maxEntries of zero or less uses DefaultCacheSize.
func NewCache(r *Resolver, maxEntries int) *Cache {
	if maxEntries <= 0 {
		maxEntries = DefaultCacheSize
	}

	return &Cache{
		r:       r,
		max:     maxEntries,
		entries: make(map[reflect.Type]*mapping.Map),
	}
}

// Resolver returns the wrapped resolver.
func (c *Cache) Resolver() *Resolver {
	return c.r
}

// Resolve returns the union of the cached closures of roots, resolving
// any that are missing.
func (c *Cache) Resolve(roots ...reflect.Type) (*mapping.Map, error) {
	if len(roots) == 1 {
		return c.get(roots[0])
	}

	out := mapping.NewMap()

	for _, root := range roots {
		m, err := c.get(root)
		if err != nil {
			return nil, err
		}

		out.Merge(m)
	}

	return out, nil
}

func (c *Cache) get(root reflect.Type) (*mapping.Map, error) {
	if root == nil {
		return c.r.Resolve(root)
	}

	c.mu.RLock()
	m, ok := c.entries[root]
	c.mu.RUnlock()

	if ok {
		c.r.log.WithField("root", common.ShortTypeName(root)).Debug("descriptor cache hit")
		return m, nil
	}

	c.mu.RLock()
	gen := c.gen
	c.mu.RUnlock()

	v, err, _ := c.group.Do(fmt.Sprintf("%p/%d", root, gen), func() (any, error) {
		c.mu.RLock()
		m, ok := c.entries[root]
		c.mu.RUnlock()

		if ok {
			return m, nil
		}

		m, err := c.r.Resolve(root)
		if err != nil {
			return nil, err
		}

		return c.store(root, m, gen), nil
	})
	if err != nil {
		c.r.log.WithError(err).WithField("root", common.ShortTypeName(root)).Debug("resolution failed")
		return nil, err
	}

	return v.(*mapping.Map), nil
}

// store caches m for root and returns the cached entry, which is the one
// already present if another caller won. m is returned uncached when the
// cache was reset or evicted since gen.
func (c *Cache) store(root reflect.Type, m *mapping.Map, gen uint64) *mapping.Map {
	c.mu.Lock()
	defer c.mu.Unlock()

	if gen != c.gen {
		c.r.log.WithField("root", common.ShortTypeName(root)).Debug("discarded resolution older than cache reset")
		return m
	}

	if prev, ok := c.entries[root]; ok {
		return prev
	}

	for len(c.order) >= c.max {
		oldest := c.order[0]
		c.order = c.order[1:]
		delete(c.entries, oldest)

		c.r.log.WithFields(log.Fields{
			"root": common.ShortTypeName(oldest),
			"max":  c.max,
		}).Debug("descriptor cache eviction")
	}

	c.entries[root] = m
	c.order = append(c.order, root)

	return m
}

// Evict drops the cached closure of root.
func (c *Cache) Evict(root reflect.Type) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.gen++

	if _, ok := c.entries[root]; !ok {
		return
	}

	delete(c.entries, root)

	for i, t := range c.order {
		if t == root {
			c.order = append(c.order[:i], c.order[i+1:]...)
			break
		}
	}
}

// Reset drops every cached closure.
func (c *Cache) Reset() {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.gen++
	c.entries = make(map[reflect.Type]*mapping.Map)
	c.order = nil
}

// Len returns the number of cached roots.
func (c *Cache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()

	return len(c.entries)
}
