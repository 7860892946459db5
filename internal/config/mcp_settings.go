// Package config loads the two on-disk configuration surfaces the runtime
// depends on: mcp_settings.json (server inventory, read by MCPRegistry) and
// a YAML runtime config (log level, worker intervals, HTTP pool size).
// Grounded on the teacher's internal/overlay.load for the read-one-file,
// skip-on-error loading style.
package config

import (
	"encoding/json"
	"os"
	"sort"
	"time"

	"github.com/viant/agentrt/genai/mcp"
	"github.com/viant/agentrt/internal/apperr"
)

// ServerEntry is one mcpServers[name] object in mcp_settings.json.
type ServerEntry struct {
	Command string            `json:"command,omitempty"`
	Args    []string          `json:"args,omitempty"`
	Env     map[string]string `json:"env,omitempty"`

	URL     string            `json:"url,omitempty"`
	Headers map[string]string `json:"headers,omitempty"`

	TransportType string `json:"transportType"`
	Trust         bool   `json:"trust"`
	Timeout       int    `json:"timeout"` // milliseconds
	Priority      int    `json:"priority"`

	MaxFailures   int `json:"max_failures"`
	FailureWindow int `json:"failure_window"` // milliseconds

	ToolCacheTTLMinutes int `json:"tool_cache_ttl_minutes,omitempty"`
}

// GlobalSettings is mcp_settings.json's top-level globalSettings object.
type GlobalSettings struct {
	DefaultTimeout    int    `json:"defaultTimeout"`
	ConfirmationLevel string `json:"confirmationLevel"`
	AuditLogging      bool   `json:"auditLogging"`
}

// MCPSettings is the parsed form of mcp_settings.json, per §6.2.
type MCPSettings struct {
	MCPServers     map[string]ServerEntry `json:"mcpServers"`
	GlobalSettings GlobalSettings         `json:"globalSettings"`
}

// LoadMCPSettings reads and parses path. A missing file is not an error: it
// yields an empty settings object, since a fresh install may run with zero
// configured MCP servers.
func LoadMCPSettings(path string) (*MCPSettings, error) {
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return &MCPSettings{MCPServers: map[string]ServerEntry{}}, nil
	}
	if err != nil {
		return nil, apperr.Wrap(apperr.ErrStorageError, "read %q: %v", path, err)
	}
	var settings MCPSettings
	if err := json.Unmarshal(data, &settings); err != nil {
		return nil, apperr.Wrap(apperr.ErrConfigInvalid, "parse %q: %v", path, err)
	}
	if settings.MCPServers == nil {
		settings.MCPServers = map[string]ServerEntry{}
	}
	return &settings, nil
}

// ServerSpec converts entry into the mcp.ServerSpec NewTransport/NewClient
// expect, filling defaults from globalSettings where the entry omits them.
func (e ServerEntry) ServerSpec(name string, global GlobalSettings) mcp.ServerSpec {
	timeoutMs := e.Timeout
	if timeoutMs <= 0 {
		timeoutMs = global.DefaultTimeout
	}
	timeoutSec := 30
	if timeoutMs > 0 {
		timeoutSec = timeoutMs / 1000
	}
	return mcp.ServerSpec{
		ID:        name,
		Transport: e.TransportType,
		Command:   e.Command,
		Args:      e.Args,
		Env:       e.Env,
		URL:       e.URL,
		Headers:   e.Headers,
		Timeout:   timeoutSec,
	}
}

// CacheTTL returns the configured per-server tool cache TTL, or zero to
// mean "use the registry default".
func (e ServerEntry) CacheTTL() time.Duration {
	if e.ToolCacheTTLMinutes <= 0 {
		return 0
	}
	return time.Duration(e.ToolCacheTTLMinutes) * time.Minute
}

// TrustLevel renders the bool flag as the Registry's ServerStatus.Trust string.
func (e ServerEntry) TrustLevel() string {
	if e.Trust {
		return "trusted"
	}
	return "untrusted"
}

// Names returns the configured server names in sorted order, for
// deterministic iteration when reconciling against a running registry.
func (s *MCPSettings) Names() []string {
	out := make([]string, 0, len(s.MCPServers))
	for name := range s.MCPServers {
		out = append(out, name)
	}
	sort.Strings(out)
	return out
}
