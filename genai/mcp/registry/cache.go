package registry

import (
	"sync"
	"time"

	"github.com/viant/agentrt/genai/mcp"
)

// CacheStatus is the freshness verdict ToolsCache.Get returns for a server's
// cached tool list.
type CacheStatus string

const (
	CacheFresh CacheStatus = "fresh"
	CacheStale CacheStatus = "stale"
	CacheMiss  CacheStatus = "miss"
)

// DefaultTTL is the tool cache's default time-to-live, overridable per
// server from MCPServer metadata.tool_cache_ttl_minutes.
const DefaultTTL = time.Hour

type cacheEntry struct {
	tools []mcp.ToolDescriptor
	at    time.Time
	ttl   time.Duration
}

// ToolsCache holds each server's last discovered tool list keyed by server
// id, with per-entry TTL. Concurrent readers are safe; writes are
// single-writer-per-key via the shared mutex, matching the registry's own
// single-writer-per-server-entry discipline.
type ToolsCache struct {
	mu      sync.RWMutex
	entries map[string]cacheEntry
}

func NewToolsCache() *ToolsCache {
	return &ToolsCache{entries: make(map[string]cacheEntry)}
}

// Get returns the cached tools for id and a freshness verdict. ttl overrides
// the entry's stored ttl when non-zero, letting callers probe with a
// stricter window without mutating the entry.
func (c *ToolsCache) Get(id string, ttl time.Duration) ([]mcp.ToolDescriptor, CacheStatus) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	e, ok := c.entries[id]
	if !ok {
		return nil, CacheMiss
	}
	effective := e.ttl
	if ttl > 0 {
		effective = ttl
	}
	if time.Since(e.at) < effective {
		return e.tools, CacheFresh
	}
	return e.tools, CacheStale
}

// Put stores tools for id with the given ttl (DefaultTTL when zero).
func (c *ToolsCache) Put(id string, tools []mcp.ToolDescriptor, ttl time.Duration) {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[id] = cacheEntry{tools: tools, at: time.Now(), ttl: ttl}
}

// Invalidate deletes id's cache entry.
func (c *ToolsCache) Invalidate(id string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.entries, id)
}
