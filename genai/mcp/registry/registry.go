// Package registry implements MCPRegistry (C8): server health tracking,
// priority/namespace tool resolution and the TTL tool cache sitting on top
// of genai/mcp.Client. Grounded on the teacher's internal/mcp/manager.Manager
// for the registered-server bookkeeping and reconnect-on-error pattern, and
// on genai/tool/dispatch.go's MCPDispatcher interface, which this package's
// Registry satisfies without importing genai/tool (avoiding a tool<-mcp
// import cycle).
package registry

import (
	"context"
	"os"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/viant/agentrt/genai/mcp"
	"github.com/viant/agentrt/internal/apperr"
)

// EventType names a registry notification.
type EventType string

const (
	EventServerRegistered    EventType = "server_registered"
	EventServerStatusChanged EventType = "server_status_changed"
	EventToolsUpdated        EventType = "tools_updated"
)

// Event is fire-and-forget notified to subscribers on every registry state
// change.
type Event struct {
	Type     EventType
	ServerID string
	Status   mcp.State
	Tools    []mcp.ToolDescriptor
}

// ServerStatus is the registry's public view of one server entry.
type ServerStatus struct {
	ID            string
	Status        mcp.State
	Tools         []mcp.ToolDescriptor
	Priority      int
	LastHeartbeat time.Time
	ErrorCount    int
	LastError     error
	Trust         string
}

type serverEntry struct {
	spec     mcp.ServerSpec
	client   *mcp.Client
	priority int
	trust    string
	cacheTTL time.Duration

	mu            sync.RWMutex
	status        mcp.State
	tools         []mcp.ToolDescriptor
	lastHeartbeat time.Time
	errorCount    int
	lastError     error
}

// Registry tracks a set of MCP server connections, resolves tool-name
// collisions by priority and namespace prefixing, and caches each server's
// discovered tools with a TTL.
type Registry struct {
	mu        sync.RWMutex
	servers   map[string]*serverEntry
	toolIndex map[string][]string // unprefixed tool name -> server ids offering it, priority order

	cache *ToolsCache

	subMu sync.Mutex
	subs  []func(Event)
}

func New() *Registry {
	return &Registry{
		servers:   make(map[string]*serverEntry),
		toolIndex: make(map[string][]string),
		cache:     NewToolsCache(),
	}
}

// Subscribe registers fn to receive every Event. fn is called synchronously
// from whichever goroutine triggered the change; slow subscribers should
// hand off to their own worker.
func (r *Registry) Subscribe(fn func(Event)) {
	r.subMu.Lock()
	defer r.subMu.Unlock()
	r.subs = append(r.subs, fn)
}

func (r *Registry) emit(ev Event) {
	r.subMu.Lock()
	subs := append([]func(Event){}, r.subs...)
	r.subMu.Unlock()
	for _, fn := range subs {
		fn(ev)
	}
}

// RegisterServer adds spec to the registry, starts its client and performs
// initial tool discovery. priority breaks tool-name collisions (higher
// wins); cacheTTL overrides DefaultTTL when non-zero, sourced from
// MCPServer metadata.tool_cache_ttl_minutes.
func (r *Registry) RegisterServer(ctx context.Context, spec mcp.ServerSpec, trust string, priority int, cacheTTL time.Duration) error {
	entry := &serverEntry{spec: spec, priority: priority, trust: trust, cacheTTL: cacheTTL, status: mcp.StateDisconnected}
	entry.client = mcp.NewClient(spec, os.LookupEnv)
	entry.client.OnStateChange = func(s mcp.State) { r.onStateChange(spec.ID, s) }

	r.mu.Lock()
	r.servers[spec.ID] = entry
	r.mu.Unlock()
	r.emit(Event{Type: EventServerRegistered, ServerID: spec.ID})

	if err := entry.client.Start(ctx); err != nil {
		return err
	}
	return r.refreshTools(ctx, entry)
}

func (r *Registry) onStateChange(id string, s mcp.State) {
	r.mu.RLock()
	entry, ok := r.servers[id]
	r.mu.RUnlock()
	if !ok {
		return
	}
	entry.mu.Lock()
	entry.status = s
	entry.lastHeartbeat = time.Now()
	if s == mcp.StateError {
		entry.errorCount++
		entry.lastError = entry.client.LastError()
	}
	entry.mu.Unlock()
	r.emit(Event{Type: EventServerStatusChanged, ServerID: id, Status: s})
	if s == mcp.StateError {
		go r.reconnectLoop(id, entry)
	}
}

// reconnectLoop drives the ERROR -> CONNECTING* backoff loop until the
// server reconnects or is shut down; Client.Reconnect owns the actual delay.
func (r *Registry) reconnectLoop(id string, entry *serverEntry) {
	ctx := context.Background()
	for entry.client.State() == mcp.StateError {
		if err := entry.client.Reconnect(ctx); err != nil {
			continue
		}
		_ = r.refreshTools(ctx, entry)
		return
	}
}

func (r *Registry) refreshTools(ctx context.Context, entry *serverEntry) error {
	tools, err := entry.client.ListTools(ctx)
	if err != nil {
		return err
	}
	entry.mu.Lock()
	entry.tools = tools
	entry.mu.Unlock()

	r.cache.Put(entry.spec.ID, tools, entry.cacheTTL)
	r.rebuildIndex()
	r.emit(Event{Type: EventToolsUpdated, ServerID: entry.spec.ID, Tools: tools})
	return nil
}

// RefreshTools re-lists a server's tools unless a fresh cache entry exists.
// When the re-list fails and a cached entry exists, it returns those cached
// tools with CacheStale and no error.
func (r *Registry) RefreshTools(ctx context.Context, serverID string, ttl time.Duration) ([]mcp.ToolDescriptor, CacheStatus, error) {
	r.mu.RLock()
	entry, ok := r.servers[serverID]
	r.mu.RUnlock()
	if !ok {
		return nil, CacheMiss, apperr.Wrap(apperr.ErrMCPNotFound, "mcp registry: unknown server %q", serverID)
	}
	if tools, status := r.cache.Get(serverID, ttl); status == CacheFresh {
		return tools, status, nil
	}
	if err := r.refreshTools(ctx, entry); err != nil {
		if tools, status := r.cache.Get(serverID, ttl); status != CacheMiss {
			return tools, CacheStale, nil
		}
		return nil, CacheMiss, err
	}
	tools, status := r.cache.Get(serverID, ttl)
	return tools, status, nil
}

// rebuildIndex recomputes the unprefixed-name -> server-ids index from each
// server's last discovered tools, in priority order (higher first, ties
// broken by server id for stability).
func (r *Registry) rebuildIndex() {
	r.mu.Lock()
	defer r.mu.Unlock()

	ids := make([]string, 0, len(r.servers))
	for id := range r.servers {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool {
		a, b := r.servers[ids[i]], r.servers[ids[j]]
		if a.priority != b.priority {
			return a.priority > b.priority
		}
		return ids[i] < ids[j]
	})

	index := make(map[string][]string)
	for _, id := range ids {
		entry := r.servers[id]
		entry.mu.RLock()
		for _, t := range entry.tools {
			index[t.Name] = append(index[t.Name], id)
		}
		entry.mu.RUnlock()
	}
	r.toolIndex = index
}

// Resolve implements tool.MCPDispatcher. toolName may be the unprefixed
// form, which only resolves when exactly one registered server offers it,
// or the "<server_id>__<tool>" form, which always resolves to that exact
// server if it currently advertises the tool.
func (r *Registry) Resolve(toolName string) (string, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for id, entry := range r.servers {
		prefix := id + "__"
		if strings.HasPrefix(toolName, prefix) {
			actual := toolName[len(prefix):]
			entry.mu.RLock()
			_, has := hasTool(entry.tools, actual)
			entry.mu.RUnlock()
			if has {
				return id, true
			}
		}
	}

	providers := r.toolIndex[toolName]
	if len(providers) == 1 {
		return providers[0], true
	}
	return "", false
}

// CallTool implements tool.MCPDispatcher, stripping any
// "<server_id>__" namespace prefix before invoking the underlying client.
func (r *Registry) CallTool(ctx context.Context, serverID, toolName string, args map[string]interface{}) (string, error) {
	r.mu.RLock()
	entry, ok := r.servers[serverID]
	r.mu.RUnlock()
	if !ok {
		return "", apperr.Wrap(apperr.ErrMCPNotFound, "mcp registry: unknown server %q", serverID)
	}
	actual := strings.TrimPrefix(toolName, serverID+"__")
	return entry.client.CallTool(ctx, actual, args)
}

func hasTool(tools []mcp.ToolDescriptor, name string) (mcp.ToolDescriptor, bool) {
	for _, t := range tools {
		if t.Name == name {
			return t, true
		}
	}
	return mcp.ToolDescriptor{}, false
}

// Status returns the public view of every registered server, in priority
// order.
func (r *Registry) Status() []ServerStatus {
	r.mu.RLock()
	defer r.mu.RUnlock()

	ids := make([]string, 0, len(r.servers))
	for id := range r.servers {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool {
		a, b := r.servers[ids[i]], r.servers[ids[j]]
		if a.priority != b.priority {
			return a.priority > b.priority
		}
		return ids[i] < ids[j]
	})

	out := make([]ServerStatus, 0, len(ids))
	for _, id := range ids {
		e := r.servers[id]
		e.mu.RLock()
		out = append(out, ServerStatus{
			ID: id, Status: e.status, Tools: e.tools, Priority: e.priority,
			LastHeartbeat: e.lastHeartbeat, ErrorCount: e.errorCount, LastError: e.lastError, Trust: e.trust,
		})
		e.mu.RUnlock()
	}
	return out
}

// UnregisterServer shuts down and removes a server, for config hot-reload
// when an entry disappears from mcp_settings.json. Idempotent on an unknown id.
func (r *Registry) UnregisterServer(id string) error {
	r.mu.Lock()
	entry, ok := r.servers[id]
	if ok {
		delete(r.servers, id)
	}
	r.mu.Unlock()
	if !ok {
		return nil
	}
	r.rebuildIndex()
	r.cache.Invalidate(id)
	return entry.client.Shutdown()
}

// Shutdown closes every registered server's client.
func (r *Registry) Shutdown() error {
	r.mu.RLock()
	entries := make([]*serverEntry, 0, len(r.servers))
	for _, e := range r.servers {
		entries = append(entries, e)
	}
	r.mu.RUnlock()

	var firstErr error
	for _, e := range entries {
		if err := e.client.Shutdown(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}
