// Package pathcache maps a session id to its deterministic price path,
// building each path at most once even under concurrent first-readers.
package pathcache

import (
	"sync"

	"golang.org/x/sync/singleflight"

	"github.com/optionchain/simulator/internal/models"
)

// Builder produces the price path for a session on first access. It is
// invoked with the cache's single-flight lock held for that id only —
// concurrent builds for other ids proceed freely.
type Builder func(session *models.Session) ([]float64, error)

// Cache is the PathCache specified in spec §4.4: session id → PricePath,
// evicted on session deletion, single-flighted on first build. Cached
// paths are immutable []float64 slices, so a read of an already-built path
// takes only the cache's shared read lock, never the single-flight slot.
type Cache struct {
	mu    sync.RWMutex
	paths map[string][]float64
	group singleflight.Group
}

// New constructs an empty Cache.
func New() *Cache {
	return &Cache{paths: make(map[string][]float64)}
}

// GetOrBuild returns the cached path for session.ID, building it via build
// if absent. At most one build runs per id even if GetOrBuild is called
// concurrently from multiple goroutines for the same session.
func (c *Cache) GetOrBuild(session *models.Session, build Builder) ([]float64, error) {
	if path, ok := c.peek(session.ID); ok {
		return path, nil
	}

	result, err, _ := c.group.Do(session.ID, func() (interface{}, error) {
		// Re-check: another goroutine may have finished the build between
		// our peek above and acquiring the single-flight slot.
		if path, ok := c.peek(session.ID); ok {
			return path, nil
		}

		path, err := build(session)
		if err != nil {
			return nil, err
		}

		c.mu.Lock()
		c.paths[session.ID] = path
		c.mu.Unlock()
		return path, nil
	})
	if err != nil {
		return nil, err
	}
	return result.([]float64), nil
}

func (c *Cache) peek(id string) ([]float64, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	path, ok := c.paths[id]
	return path, ok
}

// Invalidate drops the cached path for id, if any. Called on session
// deletion, on PATCH that changes a path-affecting field, and always on
// PUT (spec §4.4).
func (c *Cache) Invalidate(id string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.paths, id)
}

// Reap drops every cached entry whose id is not present in activeIDs.
func (c *Cache) Reap(activeIDs []string) {
	active := make(map[string]bool, len(activeIDs))
	for _, id := range activeIDs {
		active[id] = true
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	for id := range c.paths {
		if !active[id] {
			delete(c.paths, id)
		}
	}
}

// Len reports how many paths are currently cached (test/metrics helper).
func (c *Cache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.paths)
}
