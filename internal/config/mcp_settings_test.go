package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestLoadMCPSettings_MissingFileYieldsEmpty(t *testing.T) {
	settings, err := LoadMCPSettings(filepath.Join(t.TempDir(), "missing.json"))
	require.NoError(t, err)
	assert.Empty(t, settings.MCPServers)
}

func TestLoadMCPSettings_ParsesServersAndGlobals(t *testing.T) {
	path := writeFile(t, t.TempDir(), "mcp_settings.json", `{
		"mcpServers": {
			"fs": {"command": "mcp-fs", "args": ["--root", "$HOME"], "transportType": "stdio", "trust": true, "priority": 5},
			"search": {"url": "https://example.com/mcp", "transportType": "sse", "timeout": 5000}
		},
		"globalSettings": {"defaultTimeout": 30000, "confirmationLevel": "high", "auditLogging": true}
	}`)

	settings, err := LoadMCPSettings(path)
	require.NoError(t, err)
	require.Len(t, settings.MCPServers, 2)
	assert.Equal(t, "high", settings.GlobalSettings.ConfirmationLevel)
	assert.Equal(t, []string{"fs", "search"}, settings.Names())

	fs := settings.MCPServers["fs"]
	spec := fs.ServerSpec("fs", settings.GlobalSettings)
	assert.Equal(t, "stdio", spec.Transport)
	assert.Equal(t, "mcp-fs", spec.Command)
	assert.Equal(t, "trusted", fs.TrustLevel())
	assert.Equal(t, 30, spec.Timeout) // falls back to globalSettings.defaultTimeout

	search := settings.MCPServers["search"]
	searchSpec := search.ServerSpec("search", settings.GlobalSettings)
	assert.Equal(t, 5, searchSpec.Timeout)
	assert.Equal(t, "untrusted", search.TrustLevel())
}

func TestLoadMCPSettings_InvalidJSONErrors(t *testing.T) {
	path := writeFile(t, t.TempDir(), "mcp_settings.json", `{not valid json`)
	_, err := LoadMCPSettings(path)
	assert.Error(t, err)
}

func TestLoadRuntimeConfig_DefaultsAppliedOnMissingFile(t *testing.T) {
	cfg, err := LoadRuntimeConfig(filepath.Join(t.TempDir(), "missing.yaml"))
	require.NoError(t, err)
	assert.Equal(t, "info", cfg.LogLevel)
	assert.Equal(t, 64, cfg.MaxConnsPerHost)
	assert.Equal(t, "mcp_settings.json", cfg.MCPSettingsPath)
}

func TestLoadRuntimeConfig_ParsesYAML(t *testing.T) {
	path := writeFile(t, t.TempDir(), "runtime.yaml", "logLevel: debug\nmaxConnsPerHost: 128\n")
	cfg, err := LoadRuntimeConfig(path)
	require.NoError(t, err)
	assert.Equal(t, "debug", cfg.LogLevel)
	assert.Equal(t, 128, cfg.MaxConnsPerHost)
}
