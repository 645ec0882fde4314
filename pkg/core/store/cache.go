package store

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/phuslu/log"
)

// DefaultTTL is how long an analysis context stays queryable before the
// janitor evicts it.
const DefaultTTL = 24 * time.Hour

// ContextCache is the in-memory registry of completed analyses, keyed by
// normalized entity name. Reads vastly outnumber writes; a context is written
// once per analysis run and read on every conversational query.
type ContextCache struct {
	mu       sync.RWMutex
	contexts map[string]*AnalysisContext
}

// NewContextCache creates an empty cache.
func NewContextCache() *ContextCache {
	return &ContextCache{contexts: make(map[string]*AnalysisContext)}
}

// cacheKey normalizes an entity name for lookup: surrounding and interior
// whitespace is insignificant.
func cacheKey(entityName string) string {
	return strings.Join(strings.Fields(entityName), "")
}

// Put publishes a context, replacing any previous analysis of the entity.
func (c *ContextCache) Put(actx *AnalysisContext) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.contexts[cacheKey(actx.EntityName)] = actx
}

// Get returns the context for an entity, or nil when none is cached.
func (c *ContextCache) Get(entityName string) *AnalysisContext {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.contexts[cacheKey(entityName)]
}

// Delete removes an entity's context. Removing an absent key is a no-op.
func (c *ContextCache) Delete(entityName string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.contexts, cacheKey(entityName))
}

// Len returns the number of cached contexts.
func (c *ContextCache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.contexts)
}

// Entities lists the entity names with a cached analysis.
func (c *ContextCache) Entities() []string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	names := make([]string, 0, len(c.contexts))
	for _, actx := range c.contexts {
		names = append(names, actx.EntityName)
	}
	return names
}

// EvictOlderThan removes contexts whose age exceeds ttl and reports how many
// were evicted.
func (c *ContextCache) EvictOlderThan(ttl time.Duration) int {
	cutoff := time.Now().Add(-ttl)

	c.mu.Lock()
	defer c.mu.Unlock()
	evicted := 0
	for key, actx := range c.contexts {
		if actx.CreatedAt.Before(cutoff) {
			delete(c.contexts, key)
			evicted++
		}
	}
	return evicted
}

// StartJanitor runs periodic TTL eviction until the context is cancelled.
func (c *ContextCache) StartJanitor(ctx context.Context, interval, ttl time.Duration) {
	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				if n := c.EvictOlderThan(ttl); n > 0 {
					log.Info().Int("evicted", n).Int("remaining", c.Len()).Msg("context cache janitor pass")
				}
			}
		}
	}()
}
