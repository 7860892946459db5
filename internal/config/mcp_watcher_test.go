package config

import (
	"context"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMCPWatcher_AppliesOnStartAndOnWrite(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "mcp_settings.json")
	require.NoError(t, os.WriteFile(path, []byte(`{"mcpServers":{}}`), 0o600))

	var mu sync.Mutex
	var applied []int
	apply := func(_ context.Context, settings *MCPSettings) error {
		mu.Lock()
		applied = append(applied, len(settings.MCPServers))
		mu.Unlock()
		return nil
	}

	w, err := NewMCPWatcher(path, 10*time.Millisecond, nil, apply)
	require.NoError(t, err)
	require.NoError(t, w.Start())
	defer w.Stop()

	mu.Lock()
	require.Len(t, applied, 1)
	assert.Equal(t, 0, applied[0])
	mu.Unlock()

	time.Sleep(20 * time.Millisecond)
	require.NoError(t, os.WriteFile(path, []byte(`{"mcpServers":{"fs":{"transportType":"stdio","command":"x"}}}`), 0o600))

	require.Eventually(t, func() bool {
		mu.Lock()
		defer mu.Unlock()
		return len(applied) >= 2 && applied[len(applied)-1] == 1
	}, time.Second, 10*time.Millisecond)
}
