// Package agent implements AgentLoop (C10): the ReAct turn state machine
// sitting on top of ProviderRouter and ToolRegistry. Grounded on the
// teacher's genai/service/agent/orchestrator.Service — fold stream events
// into a plan, dispatch tool steps concurrently, loop back into streaming —
// generalized from the teacher's ad hoc plan/step model to the canonical
// event folding and provider-declared tool-call shape this runtime uses.
package agent

import (
	"context"
	"errors"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/viant/agentrt/genai/conversation"
	"github.com/viant/agentrt/genai/llm"
	"github.com/viant/agentrt/genai/llm/provider"
	"github.com/viant/agentrt/genai/modelcallctx"
	"github.com/viant/agentrt/genai/tool"
	"github.com/viant/agentrt/genai/usage"
	"github.com/viant/agentrt/internal/apperr"
)

// StreamChatter is the subset of ProviderRouter the loop needs: *router.Router
// satisfies it directly, and tests substitute a fake to drive the state
// machine without a real provider/transport stack.
type StreamChatter interface {
	StreamChat(ctx context.Context, prov string, authType provider.AuthType, name, model string, messages []llm.Message, opts *llm.Options, agg *usage.Aggregator) (<-chan llm.CanonicalEvent, error)
}

// State is a turn's position in the STREAMING/TOOL_DISPATCH state machine.
type State string

const (
	StateIdle         State = "idle"
	StateStreaming    State = "streaming"
	StateToolDispatch State = "tool_dispatch"
	StateDone         State = "done"
	StateError        State = "error"
)

const (
	defaultMaxToolRounds = 8
	defaultMaxParallel   = 4
	defaultCancelGrace   = 2 * time.Second
)

// Config bounds one Loop's tool-dispatch behavior.
type Config struct {
	MaxToolRounds    int
	MaxParallelTools int
	CancelGrace      time.Duration
}

func (c Config) withDefaults() Config {
	if c.MaxToolRounds <= 0 {
		c.MaxToolRounds = defaultMaxToolRounds
	}
	if c.MaxParallelTools <= 0 {
		c.MaxParallelTools = defaultMaxParallel
	}
	if c.CancelGrace <= 0 {
		c.CancelGrace = defaultCancelGrace
	}
	return c
}

// ToolExecution is one completed tool call folded into the turn result, per
// run_turn's `tools:[{name, args, result}]` shape.
type ToolExecution struct {
	Name   string
	Args   map[string]interface{}
	Result string
	Err    error
}

// TurnResult is run_turn's success payload.
type TurnResult struct {
	FinalText string
	Tools     []ToolExecution
	Usage     llm.TokenUsage
	Rounds    int
}

// Snapshot is carried by StreamFailure/ToolLoopExceeded errors so callers can
// recover whatever the turn produced before it failed.
type Snapshot struct {
	Text  string
	Tools []ToolExecution
	Usage llm.TokenUsage
}

// Loop runs one conversational turn: stream from ProviderRouter, dispatch
// any requested tool calls through ToolRegistry, and repeat until the model
// stops asking for tools or a hard bound is hit.
type Loop struct {
	Router StreamChatter
	Tools  *tool.Registry
	MCP    tool.MCPDispatcher
	Config Config
}

func New(r StreamChatter, tools *tool.Registry, mcp tool.MCPDispatcher, cfg Config) *Loop {
	return &Loop{Router: r, Tools: tools, MCP: mcp, Config: cfg.withDefaults()}
}

// RunTurn implements run_turn(provider, session_name, model, messages, opts)
// -> {ok, {final_text, tools, usage}} | {error, ...}, per §4.10.
func (l *Loop) RunTurn(ctx context.Context, prov string, authType provider.AuthType, sessionName, model string, messages []llm.Message, opts *llm.Options, session tool.SessionContext) (*TurnResult, error) {
	ctx = conversation.WithID(ctx, sessionName)

	// The finish barrier only matters when a call Observer is attached: that's
	// the only thing that does work (persistence) after the stream ends. With
	// no Observer there's nothing to wait for, so skip it rather than block
	// every turn for CancelGrace.
	if modelcallctx.ObserverFromContext(ctx) != nil {
		var barrierCtx context.Context
		barrierCtx, _ = modelcallctx.WithFinishBarrier(ctx)
		ctx = barrierCtx
		defer modelcallctx.WaitFinish(ctx, l.Config.CancelGrace)
	}

	turnMessages := append([]llm.Message(nil), messages...)
	var executed []ToolExecution
	var usageSum llm.TokenUsage
	rounds := 0
	state := StateStreaming

	for state == StateStreaming {
		bufText, pending, streamUsage, err := l.stream(ctx, prov, authType, sessionName, model, turnMessages, opts)
		usageSum = usageSum.Add(streamUsage)
		if err != nil {
			state = StateError
			if errors.Is(err, apperr.ErrCancelled) {
				return nil, cancelledTurn(err, bufText, executed, usageSum)
			}
			return nil, streamFailure(err, bufText, executed, usageSum)
		}
		if len(pending) == 0 {
			state = StateDone
			return &TurnResult{FinalText: bufText, Tools: executed, Usage: usageSum, Rounds: rounds}, nil
		}

		rounds++
		if rounds > l.Config.MaxToolRounds {
			state = StateError
			return nil, toolLoopExceeded(bufText, executed, usageSum)
		}

		state = StateToolDispatch
		results := l.dispatchTools(ctx, pending, session)
		if bufText != "" {
			turnMessages = append(turnMessages, llm.NewAssistantMessage(bufText))
		}
		for _, res := range results {
			executed = append(executed, ToolExecution{Name: res.Name, Args: res.Args, Result: resultText(res), Err: res.Err})
			turnMessages = append(turnMessages, continuationMessage(tool.ContinuationFor(prov, res)))
		}
		state = StateStreaming
	}
	return nil, apperr.Wrap(apperr.ErrStreamFailure, "agent loop: unreachable state %s", state)
}

func resultText(r tool.Result) string {
	if r.Err != nil {
		return "error: " + r.Err.Error()
	}
	return r.Output
}

// stream drives one STREAMING phase: fold canonical events into buf_text,
// pending_tool_calls and usage_sum until the first "done" event.
func (l *Loop) stream(ctx context.Context, prov string, authType provider.AuthType, sessionName, model string, messages []llm.Message, opts *llm.Options) (string, []llm.CanonicalToolCall, llm.TokenUsage, error) {
	obs := modelcallctx.ObserverFromContext(ctx)
	startedAt := time.Now()
	info := modelcallctx.Info{Provider: prov, Model: model, StartedAt: startedAt}
	if obs != nil {
		if c, err := obs.OnCallStart(ctx, info); err == nil {
			ctx = c
		}
	}

	events, err := l.Router.StreamChat(ctx, prov, authType, sessionName, model, messages, opts, nil)
	if err != nil {
		l.finishCall(ctx, obs, info, "", llm.TokenUsage{}, err)
		return "", nil, llm.TokenUsage{}, err
	}

	var buf strings.Builder
	var pending []llm.CanonicalToolCall
	var turnUsage llm.TokenUsage

	for {
		select {
		case ev, ok := <-events:
			if !ok {
				l.finishCall(ctx, obs, info, buf.String(), turnUsage, nil)
				return buf.String(), pending, turnUsage, nil
			}
			switch ev.Type {
			case llm.EventContent:
				buf.WriteString(ev.Content)
				if obs != nil {
					_ = obs.OnStreamDelta(ctx, []byte(ev.Content))
				}
			case llm.EventFunctionCall:
				pending = append(pending, ev.ToolCalls...)
			case llm.EventUsage:
				if ev.Usage != nil {
					turnUsage = turnUsage.Add(*ev.Usage)
				}
			case llm.EventDone:
				l.finishCall(ctx, obs, info, buf.String(), turnUsage, nil)
				return buf.String(), pending, turnUsage, nil
			case llm.EventError:
				streamErr := ev.Err
				if streamErr == nil {
					streamErr = errors.New(ev.Content)
				}
				l.finishCall(ctx, obs, info, buf.String(), turnUsage, streamErr)
				return buf.String(), pending, turnUsage, streamErr
			}
		case <-ctx.Done():
			cancelErr := apperr.Wrap(apperr.ErrCancelled, "agent loop: %v", ctx.Err())
			l.finishCall(ctx, obs, info, buf.String(), turnUsage, cancelErr)
			return buf.String(), pending, turnUsage, cancelErr
		}
	}
}

// finishCall reports the completed call to the Observer, if any, filling in
// the fields stream() accumulated as it folded events.
func (l *Loop) finishCall(ctx context.Context, obs modelcallctx.Observer, info modelcallctx.Info, text string, turnUsage llm.TokenUsage, callErr error) {
	if obs == nil {
		return
	}
	info.CompletedAt = time.Now()
	info.StreamText = text
	info.Usage = &llm.Usage{PromptTokens: turnUsage.PromptTokens, CompletionTokens: turnUsage.CompletionTokens, TotalTokens: turnUsage.TotalTokens}
	if callErr != nil {
		info.Err = callErr.Error()
	}
	_ = obs.OnCallEnd(ctx, info)
}

// dispatchTools runs TOOL_DISPATCH: up to MaxParallelTools calls concurrently,
// results placed back at each call's original index so continuation
// messages stay deterministically ordered regardless of completion order.
// On ctx cancellation, already-started dispatches get CancelGrace to finish
// before the loop gives up waiting on them.
func (l *Loop) dispatchTools(ctx context.Context, calls []llm.CanonicalToolCall, session tool.SessionContext) []tool.Result {
	results := make([]tool.Result, len(calls))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(l.Config.MaxParallelTools)

	for i, call := range calls {
		i, call := i, call
		g.Go(func() error {
			results[i] = l.Tools.DispatchRaw(gctx, call.ID, call.Name, call.Arguments, session, l.MCP)
			return nil
		})
	}

	done := make(chan struct{})
	go func() { _ = g.Wait(); close(done) }()

	select {
	case <-done:
	case <-ctx.Done():
		select {
		case <-done:
		case <-time.After(l.Config.CancelGrace):
		}
	}
	return results
}

func continuationMessage(cm tool.ContinuationMessage) llm.Message {
	switch {
	case cm.OpenAI != nil:
		return llm.Message{Role: llm.RoleTool, ToolCallId: cm.OpenAI.CallID, Content: cm.OpenAI.Output}
	case cm.Anthropic != nil:
		if len(cm.Anthropic.Content) == 0 {
			return llm.Message{Role: llm.RoleTool}
		}
		block := cm.Anthropic.Content[0]
		return llm.Message{Role: llm.RoleTool, ToolCallId: block.ToolUseID, Content: block.Content}
	case cm.Gemini != nil:
		if len(cm.Gemini.Parts) == 0 {
			return llm.Message{Role: llm.RoleTool}
		}
		fr := cm.Gemini.Parts[0].FunctionResponse
		text, _ := fr.Response["output"].(string)
		return llm.Message{Role: llm.RoleTool, Name: fr.Name, ToolCallId: fr.ID, Content: text}
	default:
		return llm.Message{Role: llm.RoleTool}
	}
}

func streamFailure(cause error, text string, executed []ToolExecution, turnUsage llm.TokenUsage) error {
	return &TurnError{
		Err:      apperr.Wrap(apperr.ErrStreamFailure, "%v", cause),
		Snapshot: Snapshot{Text: text, Tools: executed, Usage: turnUsage},
	}
}

// cancelledTurn reports ctx cancellation distinctly from streamFailure. cause
// already carries apperr.ErrCancelled via stream()'s own apperr.Wrap, so it is
// kept unwrapped (not re-wrapped with a new sentinel) to preserve the
// errors.Is chain callers rely on to tell cancellation apart from an upstream
// stream failure.
func cancelledTurn(cause error, text string, executed []ToolExecution, turnUsage llm.TokenUsage) error {
	return &TurnError{
		Err:      cause,
		Snapshot: Snapshot{Text: text, Tools: executed, Usage: turnUsage},
	}
}

func toolLoopExceeded(text string, executed []ToolExecution, turnUsage llm.TokenUsage) error {
	return &TurnError{
		Err:      apperr.Wrap(apperr.ErrToolLoopExceeded, "exceeded max tool rounds"),
		Snapshot: Snapshot{Text: text, Tools: executed, Usage: turnUsage},
	}
}

// TurnError wraps a terminal run_turn failure with the partial Snapshot
// accumulated before it, per §4.10's `{error, StreamFailure, snapshot}` and
// `{error, :tool_loop_exceeded, partial}`.
type TurnError struct {
	Err      error
	Snapshot Snapshot
}

func (e *TurnError) Error() string { return e.Err.Error() }
func (e *TurnError) Unwrap() error { return e.Err }
