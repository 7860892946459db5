package agently

import (
	"context"
	"fmt"

	"github.com/viant/agentrt/genai/agent"
	"github.com/viant/agentrt/genai/conversation"
	"github.com/viant/agentrt/genai/credential"
	"github.com/viant/agentrt/genai/mcp/registry"
	"github.com/viant/agentrt/genai/modelcallctx"
	"github.com/viant/agentrt/genai/refreshworker"
	"github.com/viant/agentrt/genai/router"
	"github.com/viant/agentrt/genai/tool"
	"github.com/viant/agentrt/internal/config"
	"github.com/viant/agentrt/internal/obslog"
	"github.com/viant/agentrt/internal/telemetry"
)

// runtime bundles every wired component a sub-command needs, built once from
// a RuntimeConfig by newRuntime.
type runtime struct {
	cfg      *config.RuntimeConfig
	metrics  *telemetry.Metrics
	log      *obslog.Logger
	creds    *credential.Store
	registry *registry.Registry
	tools    *tool.Registry
	router   *router.Router
	loop     *agent.Loop
	refresh  *refreshworker.Worker
	watcher  *config.MCPWatcher
	conv     *conversation.Store
	recorder *modelcallctx.RecorderObserver
}

func newRuntime(cfgPath string) (*runtime, error) {
	cfg, err := config.LoadRuntimeConfig(cfgPath)
	if err != nil {
		return nil, fmt.Errorf("load runtime config: %w", err)
	}

	metrics := telemetry.New()
	log := obslog.New(nil, metrics)

	creds, err := credential.New(cfg.CredentialDir)
	if err != nil {
		return nil, fmt.Errorf("open credential store: %w", err)
	}
	if err := creds.Load(context.Background()); err != nil {
		return nil, fmt.Errorf("load credential store: %w", err)
	}

	reg := registry.New()

	tools := tool.NewRegistry()
	tool.RegisterBuiltins(tools, ".")
	tools.WithDAO(tool.NewMemoryDAO())

	conv := conversation.New()

	rt := &runtime{cfg: cfg, metrics: metrics, log: log, creds: creds, registry: reg, tools: tools, conv: conv}
	rt.recorder = modelcallctx.NewRecorderObserver(conv)

	rt.router = router.New(router.Config{
		ScheduleRefresh: func(credential.Key) {
			if rt.refresh != nil {
				go rt.refresh.Tick(context.Background())
			}
		},
	}, creds, metrics)

	rt.loop = agent.New(rt.router, tools, reg, agent.Config{})

	rt.refresh = refreshworker.New(creds, rt.router, log, refreshworker.Config{
		Spec:       cfg.RefreshWorker.Spec,
		Window:     cfg.RefreshWorker.Window,
		MaxRetries: cfg.RefreshWorker.MaxRetries,
		RetryDelay: cfg.RefreshWorker.RetryDelay,
	})

	watcher, err := config.NewMCPWatcher(cfg.MCPSettingsPath, cfg.WatchDebounce, log, func(ctx context.Context, settings *config.MCPSettings) error {
		return config.Reconcile(ctx, reg, settings, log)
	})
	if err != nil {
		return nil, fmt.Errorf("create mcp watcher: %w", err)
	}
	rt.watcher = watcher

	return rt, nil
}

// loadMCPSettingsFor re-reads rt's configured mcp_settings.json path,
// independent of whether the watcher has started.
func loadMCPSettingsFor(rt *runtime) (*config.MCPSettings, error) {
	return config.LoadMCPSettings(rt.cfg.MCPSettingsPath)
}
