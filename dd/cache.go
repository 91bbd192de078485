package dd

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

// CachingResolver memoizes machine description loads keyed by
// (uri, version, ids) for the lifetime of the process. Entries are never
// invalidated: a machine description published at a URI is assumed
// immutable. Failed loads are not cached. Safe for concurrent use.
type CachingResolver struct {
	next Resolver

	mu      sync.Mutex
	entries map[cacheKey]*MachineDescription

	hits   prometheus.Counter
	misses prometheus.Counter
}

type cacheKey struct {
	URI     string
	Version string
	IDS     string
}

// NewCachingResolver wraps next with a process-lifetime cache. When reg is
// non-nil, cache hit/miss counters are registered on it.
func NewCachingResolver(next Resolver, reg prometheus.Registerer) *CachingResolver {
	c := &CachingResolver{
		next:    next,
		entries: make(map[cacheKey]*MachineDescription),
		hits: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "imasmap_machine_description_cache_hits_total",
			Help: "Machine description loads served from the in-process cache.",
		}),
		misses: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "imasmap_machine_description_cache_misses_total",
			Help: "Machine description loads delegated to the underlying resolver.",
		}),
	}
	if reg != nil {
		reg.MustRegister(c.hits, c.misses)
	}
	return c
}

// Resolve returns the cached machine description or delegates to the
// wrapped resolver.
func (c *CachingResolver) Resolve(uri, version, ids string) (*MachineDescription, error) {
	key := cacheKey{URI: uri, Version: version, IDS: ids}

	c.mu.Lock()
	defer c.mu.Unlock()
	if md, ok := c.entries[key]; ok {
		c.hits.Inc()
		return md, nil
	}
	c.misses.Inc()
	md, err := c.next.Resolve(uri, version, ids)
	if err != nil {
		return nil, err
	}
	c.entries[key] = md
	return md, nil
}
