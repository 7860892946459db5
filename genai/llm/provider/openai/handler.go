package openai

import (
	"encoding/json"
	"strings"

	"github.com/viant/agentrt/genai/llm"
	"github.com/viant/agentrt/genai/sse"
)

// partialCall accumulates function-call-arguments deltas keyed by item_id,
// per §4.4.1.
type partialCall struct {
	callID    string
	name      string
	arguments strings.Builder
}

// State is the opaque per-stream accumulator threaded through HandleFrame
// calls. The zero value is ready to use.
type State struct {
	partialCalls map[string]*partialCall
}

func newState() *State {
	return &State{partialCalls: map[string]*partialCall{}}
}

// HandleFrame translates one OpenAI Responses API SSE frame into zero or
// more canonical events, returning the (possibly mutated) state to pass to
// the next call. It is a pure function of (frame, state): the same frame
// sequence always yields the same event sequence, and a frame prefix yields
// an event-sequence prefix.
func HandleFrame(frame sse.Frame, state *State) ([]llm.CanonicalEvent, *State) {
	if state == nil {
		state = newState()
	}
	if state.partialCalls == nil {
		state.partialCalls = map[string]*partialCall{}
	}
	if frame.Data == "[DONE]" {
		return []llm.CanonicalEvent{{Type: llm.EventDone}}, state
	}

	switch frame.Event {
	case "response.output_text.delta":
		var d outputTextDelta
		if err := json.Unmarshal([]byte(frame.Data), &d); err != nil {
			return nil, state
		}
		return []llm.CanonicalEvent{{Type: llm.EventContent, Content: d.Delta}}, state

	case "response.function_call_arguments.delta":
		var d functionCallArgumentsDelta
		if err := json.Unmarshal([]byte(frame.Data), &d); err != nil {
			return nil, state
		}
		pc := state.partialCalls[d.ItemID]
		if pc == nil {
			pc = &partialCall{}
			state.partialCalls[d.ItemID] = pc
		}
		pc.arguments.WriteString(d.Delta)
		return nil, state

	case "response.output_item.done":
		var d outputItemDone
		if err := json.Unmarshal([]byte(frame.Data), &d); err != nil {
			return nil, state
		}
		if d.Item.Type != "function_call" {
			return nil, state
		}
		args := d.Item.Arguments
		if pc, ok := state.partialCalls[d.Item.ID]; ok && pc.arguments.Len() > 0 {
			args = pc.arguments.String()
			delete(state.partialCalls, d.Item.ID)
		}
		return []llm.CanonicalEvent{{
			Type: llm.EventFunctionCall,
			ToolCalls: []llm.CanonicalToolCall{{
				ID:        d.Item.CallID,
				Name:      d.Item.Name,
				Arguments: args,
			}},
		}}, state

	case "response.completed":
		var d responseCompleted
		if err := json.Unmarshal([]byte(frame.Data), &d); err != nil {
			return []llm.CanonicalEvent{{Type: llm.EventDone}}, state
		}
		usage := llm.TokenUsage{
			PromptTokens:     d.Response.Usage.InputTokens,
			CompletionTokens: d.Response.Usage.OutputTokens,
			TotalTokens:      d.Response.Usage.TotalTokens,
		}
		return []llm.CanonicalEvent{
			{Type: llm.EventUsage, Usage: &usage},
			{Type: llm.EventDone},
		}, state

	case "response.failed":
		var d responseFailed
		_ = json.Unmarshal([]byte(frame.Data), &d)
		return []llm.CanonicalEvent{{Type: llm.EventError, Content: d.Error.Message}}, state

	default:
		return nil, state
	}
}
