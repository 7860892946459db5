package agent

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/viant/agentrt/genai/llm"
	"github.com/viant/agentrt/genai/llm/provider"
	"github.com/viant/agentrt/genai/tool"
	"github.com/viant/agentrt/genai/usage"
	"github.com/viant/agentrt/internal/apperr"
)

// fakeRouter answers StreamChat from a queue of canned event batches, one
// batch per call, letting the loop's multi-round behavior be driven without
// a real provider.
type fakeRouter struct {
	batches [][]llm.CanonicalEvent
	calls   int
}

func (f *fakeRouter) StreamChat(ctx context.Context, prov string, authType provider.AuthType, name, model string, messages []llm.Message, opts *llm.Options, agg *usage.Aggregator) (<-chan llm.CanonicalEvent, error) {
	batch := f.batches[f.calls]
	f.calls++
	ch := make(chan llm.CanonicalEvent, len(batch))
	for _, ev := range batch {
		ch <- ev
	}
	close(ch)
	return ch, nil
}

func newTestRegistry(t *testing.T) *tool.Registry {
	t.Helper()
	r := tool.NewRegistry()
	r.Register(llm.ToolDefinition{Name: "search", Description: "search docs"}, func(ctx context.Context, args map[string]interface{}) (string, error) {
		return "found: " + args["q"].(string), nil
	})
	return r
}

func TestLoop_RunTurn_NoToolCallsReturnsImmediately(t *testing.T) {
	fr := &fakeRouter{batches: [][]llm.CanonicalEvent{
		{{Type: llm.EventContent, Content: "hello "}, {Type: llm.EventContent, Content: "world"}, {Type: llm.EventDone}},
	}}
	l := New(fr, newTestRegistry(t), nil, Config{})

	result, err := l.RunTurn(context.Background(), "openai", provider.AuthAPIKey, "sess", "gpt-5", nil, nil, tool.SessionContext{})
	require.NoError(t, err)
	assert.Equal(t, "hello world", result.FinalText)
	assert.Empty(t, result.Tools)
	assert.Equal(t, 1, fr.calls)
}

func TestLoop_RunTurn_DispatchesToolAndLoopsBack(t *testing.T) {
	fr := &fakeRouter{batches: [][]llm.CanonicalEvent{
		{
			{Type: llm.EventContent, Content: "let me check"},
			{Type: llm.EventFunctionCall, ToolCalls: []llm.CanonicalToolCall{{ID: "c1", Name: "search", Arguments: `{"q":"go"}`}}},
			{Type: llm.EventDone},
		},
		{{Type: llm.EventContent, Content: "found it"}, {Type: llm.EventDone}},
	}}
	l := New(fr, newTestRegistry(t), nil, Config{})

	result, err := l.RunTurn(context.Background(), "openai", provider.AuthAPIKey, "sess", "gpt-5", nil, nil, tool.SessionContext{})
	require.NoError(t, err)
	assert.Equal(t, "found it", result.FinalText)
	require.Len(t, result.Tools, 1)
	assert.Equal(t, "search", result.Tools[0].Name)
	assert.Equal(t, "found: go", result.Tools[0].Result)
	assert.Equal(t, 2, fr.calls)
}

func TestLoop_RunTurn_ToolLoopExceededReturnsSnapshot(t *testing.T) {
	toolCallBatch := []llm.CanonicalEvent{
		{Type: llm.EventFunctionCall, ToolCalls: []llm.CanonicalToolCall{{ID: "c1", Name: "search", Arguments: `{"q":"go"}`}}},
		{Type: llm.EventDone},
	}
	var batches [][]llm.CanonicalEvent
	for i := 0; i < 10; i++ {
		batches = append(batches, toolCallBatch)
	}
	fr := &fakeRouter{batches: batches}
	l := New(fr, newTestRegistry(t), nil, Config{MaxToolRounds: 2})

	_, err := l.RunTurn(context.Background(), "openai", provider.AuthAPIKey, "sess", "gpt-5", nil, nil, tool.SessionContext{})
	require.Error(t, err)
	var turnErr *TurnError
	require.ErrorAs(t, err, &turnErr)
	assert.Len(t, turnErr.Snapshot.Tools, 2)
}

func TestLoop_RunTurn_StreamErrorReturnsSnapshot(t *testing.T) {
	fr := &fakeRouter{batches: [][]llm.CanonicalEvent{
		{{Type: llm.EventContent, Content: "partial"}, {Type: llm.EventError, Err: assertErr("boom")}},
	}}
	l := New(fr, newTestRegistry(t), nil, Config{})

	_, err := l.RunTurn(context.Background(), "openai", provider.AuthAPIKey, "sess", "gpt-5", nil, nil, tool.SessionContext{})
	require.Error(t, err)
	var turnErr *TurnError
	require.ErrorAs(t, err, &turnErr)
	assert.Equal(t, "partial", turnErr.Snapshot.Text)
}

func TestLoop_RunTurn_ToolErrorSurfacesAsErrorPrefixedResultAndContinues(t *testing.T) {
	fr := &fakeRouter{batches: [][]llm.CanonicalEvent{
		{{Type: llm.EventFunctionCall, ToolCalls: []llm.CanonicalToolCall{{ID: "c1", Name: "missing", Arguments: `{}`}}}, {Type: llm.EventDone}},
		{{Type: llm.EventContent, Content: "ok"}, {Type: llm.EventDone}},
	}}
	l := New(fr, newTestRegistry(t), nil, Config{})

	result, err := l.RunTurn(context.Background(), "openai", provider.AuthAPIKey, "sess", "gpt-5", nil, nil, tool.SessionContext{})
	require.NoError(t, err)
	require.Len(t, result.Tools, 1)
	assert.Contains(t, result.Tools[0].Result, "error: ")
}

type assertErr string

func (e assertErr) Error() string { return string(e) }

// blockingRouter never closes or writes to its channel, so the loop can only
// escape stream() through ctx.Done().
type blockingRouter struct{}

func (blockingRouter) StreamChat(ctx context.Context, prov string, authType provider.AuthType, name, model string, messages []llm.Message, opts *llm.Options, agg *usage.Aggregator) (<-chan llm.CanonicalEvent, error) {
	return make(chan llm.CanonicalEvent), nil
}

func TestLoop_RunTurn_CancelledContextReturnsDistinctFromStreamFailure(t *testing.T) {
	l := New(blockingRouter{}, newTestRegistry(t), nil, Config{})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := l.RunTurn(ctx, "openai", provider.AuthAPIKey, "sess", "gpt-5", nil, nil, tool.SessionContext{})
	require.Error(t, err)
	assert.True(t, errors.Is(err, apperr.ErrCancelled))
	assert.False(t, errors.Is(err, apperr.ErrStreamFailure))

	var turnErr *TurnError
	require.ErrorAs(t, err, &turnErr)
	assert.Empty(t, turnErr.Snapshot.Text)
}
