// Package telemetry implements obs.Metrics on top of Prometheus, giving the
// named events of §4.13 (system_prompts.resolved, stream.event,
// tool.dispatched, oauth.refreshed, mcp.server_status_changed) a concrete
// counter/histogram backend.
package telemetry

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/viant/agentrt/genai/prompt"
	"github.com/viant/agentrt/internal/obs"
)

// Metrics registers and exposes the runtime's Prometheus vectors. It
// satisfies obs.Metrics so callers that only need the generic Inc() surface
// can depend on the interface, while components that care about a named
// event (tool dispatch duration, OAuth refresh outcome) use the typed
// methods below directly.
type Metrics struct {
	inc *prometheus.CounterVec

	promptsResolved   *prometheus.CounterVec
	promptsResolvedAt *prometheus.HistogramVec
	streamEvents      *prometheus.CounterVec
	streamEventBytes  *prometheus.HistogramVec
	toolDispatched    *prometheus.CounterVec
	toolDispatchedAt  *prometheus.HistogramVec
	oauthRefreshed    *prometheus.CounterVec
	mcpServerStatus   *prometheus.CounterVec
}

// New registers all vectors with the default Prometheus registerer.
func New() *Metrics {
	return &Metrics{
		inc: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "agentrt_events_total",
			Help: "Generic named-event counter, labeled by event name.",
		}, []string{"name"}),

		promptsResolved: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "agentrt_system_prompts_resolved_total",
			Help: "system_prompts.resolved occurrences by provider and source.",
		}, []string{"provider", "source"}),
		promptsResolvedAt: promauto.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "agentrt_system_prompts_resolved_duration_seconds",
			Help:    "Duration of PromptStack resolution.",
			Buckets: []float64{0.0005, 0.001, 0.005, 0.01, 0.05, 0.1, 0.5},
		}, []string{"provider"}),

		streamEvents: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "agentrt_stream_events_total",
			Help: "Canonical stream events by type.",
		}, []string{"provider", "type"}),
		streamEventBytes: promauto.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "agentrt_stream_event_delta_bytes",
			Help:    "Size in bytes of content deltas.",
			Buckets: prometheus.ExponentialBuckets(8, 4, 8),
		}, []string{"provider"}),

		toolDispatched: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "agentrt_tool_dispatched_total",
			Help: "Tool dispatches by name and outcome.",
		}, []string{"name", "ok"}),
		toolDispatchedAt: promauto.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "agentrt_tool_dispatch_duration_seconds",
			Help:    "Tool dispatch duration.",
			Buckets: []float64{0.001, 0.01, 0.05, 0.1, 0.5, 1, 5, 30},
		}, []string{"name"}),

		oauthRefreshed: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "agentrt_oauth_refreshed_total",
			Help: "oauth.refreshed occurrences by provider and outcome.",
		}, []string{"provider", "outcome"}),

		mcpServerStatus: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "agentrt_mcp_server_status_changed_total",
			Help: "mcp.server_status_changed transitions by server id and new status.",
		}, []string{"server_id", "status"}),
	}
}

var _ obs.Metrics = (*Metrics)(nil)

// Inc satisfies obs.Metrics for ad-hoc counters not covered by a typed method.
func (m *Metrics) Inc(name string, labels map[string]string, delta int64) {
	m.inc.WithLabelValues(name).Add(float64(delta))
}

// PromptsResolved records [:system_prompts, :resolved], satisfying
// prompt.ResolutionSink.
func (m *Metrics) PromptsResolved(r prompt.Resolution) {
	m.promptsResolved.WithLabelValues(r.Provider, string(r.Source)).Inc()
	m.promptsResolvedAt.WithLabelValues(r.Provider).Observe(r.Duration.Seconds())
}

var _ prompt.ResolutionSink = (*Metrics)(nil)

// StreamEvent records [:stream, :event].
func (m *Metrics) StreamEvent(provider, eventType string, deltaBytes int) {
	m.streamEvents.WithLabelValues(provider, eventType).Inc()
	if deltaBytes > 0 {
		m.streamEventBytes.WithLabelValues(provider).Observe(float64(deltaBytes))
	}
}

// ToolDispatched records [:tool, :dispatched].
func (m *Metrics) ToolDispatched(name string, duration time.Duration, ok bool) {
	okLabel := "true"
	if !ok {
		okLabel = "false"
	}
	m.toolDispatched.WithLabelValues(name, okLabel).Inc()
	m.toolDispatchedAt.WithLabelValues(name).Observe(duration.Seconds())
}

// OAuthRefreshed records [:oauth, :refreshed].
func (m *Metrics) OAuthRefreshed(provider, outcome string) {
	m.oauthRefreshed.WithLabelValues(provider, outcome).Inc()
}

// MCPServerStatusChanged records [:mcp, :server_status_changed].
func (m *Metrics) MCPServerStatusChanged(serverID, newStatus string) {
	m.mcpServerStatus.WithLabelValues(serverID, newStatus).Inc()
}
