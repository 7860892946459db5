package config

import (
	"context"

	"github.com/viant/agentrt/genai/mcp/registry"
	"github.com/viant/agentrt/internal/obslog"
)

// Reconcile diffs settings against reg's current server set: servers no
// longer present are unregistered, servers not yet present are registered.
// A server whose spec changed in place (e.g. a new command or URL) is left
// running until it disappears and reappears, matching the teacher's
// NewMCPAdaptor caveat that in-place edits need a restart to fully apply.
func Reconcile(ctx context.Context, reg *registry.Registry, settings *MCPSettings, log *obslog.Logger) error {
	if log == nil {
		log = obslog.New(nil, nil)
	}

	current := make(map[string]struct{})
	for _, s := range reg.Status() {
		current[s.ID] = struct{}{}
	}

	desired := make(map[string]struct{}, len(settings.MCPServers))
	for _, name := range settings.Names() {
		desired[name] = struct{}{}
	}

	for id := range current {
		if _, ok := desired[id]; ok {
			continue
		}
		if err := reg.UnregisterServer(id); err != nil {
			log.Debug("mcp_reconcile.unregister_failed", map[string]interface{}{"server": id, "error": err.Error()})
		} else {
			log.Debug("mcp_reconcile.unregistered", map[string]interface{}{"server": id})
		}
	}

	var firstErr error
	for _, name := range settings.Names() {
		if _, ok := current[name]; ok {
			continue
		}
		entry := settings.MCPServers[name]
		spec := entry.ServerSpec(name, settings.GlobalSettings)
		if err := reg.RegisterServer(ctx, spec, entry.TrustLevel(), entry.Priority, entry.CacheTTL()); err != nil {
			log.Debug("mcp_reconcile.register_failed", map[string]interface{}{"server": name, "error": err.Error()})
			if firstErr == nil {
				firstErr = err
			}
			continue
		}
		log.Debug("mcp_reconcile.registered", map[string]interface{}{"server": name})
	}
	return firstErr
}
