package agently

import (
	"context"
	"fmt"
)

// MCPCmd groups MCP server diagnostics sub-commands.
type MCPCmd struct {
	Doctor *MCPDoctorCmd `command:"doctor" description:"Connect to every configured MCP server and report status"`
}

func (c *MCPCmd) Execute(_ []string) error { return fmt.Errorf("specify a sub-command: doctor") }

// MCPDoctorCmd loads mcp_settings.json, registers every server and prints
// each one's connection status and discovered tool count.
type MCPDoctorCmd struct {
	Config string `short:"f" long:"config" description:"runtime config YAML path" default:"agently.yaml"`
}

func (c *MCPDoctorCmd) Execute(_ []string) error {
	rt, err := newRuntime(c.Config)
	if err != nil {
		return err
	}
	defer rt.registry.Shutdown()

	settings, err := loadMCPSettingsFor(rt)
	if err != nil {
		return fmt.Errorf("load mcp settings: %w", err)
	}

	ctx := context.Background()
	for _, name := range settings.Names() {
		entry := settings.MCPServers[name]
		spec := entry.ServerSpec(name, settings.GlobalSettings)
		err := rt.registry.RegisterServer(ctx, spec, entry.TrustLevel(), entry.Priority, entry.CacheTTL())
		if err != nil {
			fmt.Printf("%s\tFAILED\t%v\n", name, err)
			continue
		}
	}

	for _, status := range rt.registry.Status() {
		fmt.Printf("%s\t%s\ttools=%d\ttrust=%s\terrors=%d\n", status.ID, status.Status, len(status.Tools), status.Trust, status.ErrorCount)
	}
	return nil
}
