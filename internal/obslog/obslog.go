// Package obslog is the runtime's structured logging adapter: a thin
// wrapper over obs.Tracer/obs.Metrics that redacts credential-shaped fields
// before they reach any sink.
package obslog

import (
	"log"
	"os"

	"github.com/viant/agentrt/genai/redact"
	"github.com/viant/agentrt/internal/obs"
)

// Logger pairs a Tracer with a Metrics backend and applies redaction to
// every field map before handing it to the Tracer.
type Logger struct {
	tracer  obs.Tracer
	metrics obs.Metrics
	redactKeys map[string]struct{}
}

// New builds a Logger. A nil tracer/metrics falls back to the Noop
// implementations so callers never need a nil check.
func New(tracer obs.Tracer, metrics obs.Metrics) *Logger {
	if tracer == nil {
		tracer = obs.NoopTracer{}
	}
	if metrics == nil {
		metrics = obs.NoopMetrics{}
	}
	keys := make(map[string]struct{})
	for _, k := range redact.DefaultKeys() {
		keys[k] = struct{}{}
	}
	return &Logger{tracer: tracer, metrics: metrics, redactKeys: keys}
}

// StdLogger returns a Logger whose Tracer writes to the standard library
// `log` package, useful for cmd/agently before a richer sink is wired.
func StdLogger(metrics obs.Metrics) *Logger {
	return New(stdTracer{out: log.New(os.Stderr, "", log.LstdFlags)}, metrics)
}

// Debug emits a structured debug event after scrubbing sensitive fields.
func (l *Logger) Debug(event string, fields map[string]interface{}) {
	l.tracer.Debug(event, redactFields(fields, l.redactKeys))
}

// Metrics exposes the underlying obs.Metrics so callers needing the typed
// telemetry.Metrics methods can type-assert it.
func (l *Logger) Metrics() obs.Metrics { return l.metrics }

func redactFields(fields map[string]interface{}, keys map[string]struct{}) map[string]interface{} {
	if len(fields) == 0 {
		return fields
	}
	out := make(map[string]interface{}, len(fields))
	for k, v := range fields {
		if _, sensitive := keys[lower(k)]; sensitive {
			out[k] = "***REDACTED***"
			continue
		}
		out[k] = v
	}
	return out
}

func lower(s string) string {
	b := []byte(s)
	for i, c := range b {
		if c >= 'A' && c <= 'Z' {
			b[i] = c + ('a' - 'A')
		}
	}
	return string(b)
}

type stdTracer struct {
	out *log.Logger
}

func (t stdTracer) Debug(event string, fields map[string]interface{}) {
	t.out.Printf("event=%s fields=%v", event, fields)
}
