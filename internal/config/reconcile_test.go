package config

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/viant/agentrt/genai/mcp"
	"github.com/viant/agentrt/genai/mcp/registry"
)

// Reconcile's register path needs a live transport to succeed, which these
// tests avoid; they instead check that an unconfigured server present in the
// registry is unregistered, and that a configured server with an
// unreachable transport surfaces its registration error without panicking.
// RegisterServer with a nonexistent stdio command still lands the server in
// the registry's entry map (Start fails after the entry is recorded), which
// is enough to exercise the unregister path.

func TestReconcile_UnregistersServerNoLongerConfigured(t *testing.T) {
	reg := registry.New()
	_ = reg.RegisterServer(context.Background(), mcp.ServerSpec{ID: "stale", Transport: "stdio", Command: "/nonexistent/binary"}, "untrusted", 1, 0)

	settings := &MCPSettings{MCPServers: map[string]ServerEntry{}}
	_ = Reconcile(context.Background(), reg, settings, nil)

	ids := map[string]bool{}
	for _, s := range reg.Status() {
		ids[s.ID] = true
	}
	assert.False(t, ids["stale"])
}

func TestReconcile_RegisterFailureDoesNotAbortOthers(t *testing.T) {
	reg := registry.New()
	settings := &MCPSettings{MCPServers: map[string]ServerEntry{
		"broken": {TransportType: "stdio", Command: "/nonexistent/binary"},
	}}
	err := Reconcile(context.Background(), reg, settings, nil)
	assert.Error(t, err)
}
