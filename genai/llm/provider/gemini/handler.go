package gemini

import (
	"encoding/json"
	"strconv"

	"github.com/viant/agentrt/genai/llm"
	"github.com/viant/agentrt/genai/sse"
)

// State tracks the local id sequence used to name Gemini function calls,
// which the wire format itself leaves anonymous.
type State struct {
	nextLocalID int
}

func newState() *State { return &State{} }

func (s *State) allocateLocalID() string {
	s.nextLocalID++
	return "fc" + strconv.Itoa(s.nextLocalID)
}

// HandleFrame translates one Gemini generateContentStream frame (a full
// GenerateContentResponse) into canonical events. Within a single frame,
// text content is always emitted before function_call events, per the
// tie-break rule in §4.4.3.
func HandleFrame(frame sse.Frame, state *State) ([]llm.CanonicalEvent, *State) {
	if state == nil {
		state = newState()
	}
	var resp generateContentResponse
	if err := json.Unmarshal([]byte(frame.Data), &resp); err != nil {
		return nil, state
	}

	var contentEvents, callEvents []llm.CanonicalEvent
	var finished bool
	if len(resp.Candidates) > 0 {
		cand := resp.Candidates[0]
		if cand.FinishReason != "" {
			finished = true
		}
		for _, p := range cand.Content.Parts {
			switch {
			case p.Text != "":
				contentEvents = append(contentEvents, llm.CanonicalEvent{Type: llm.EventContent, Content: p.Text})
			case p.FunctionCall != nil:
				args, _ := json.Marshal(p.FunctionCall.Args)
				callEvents = append(callEvents, llm.CanonicalEvent{
					Type: llm.EventFunctionCall,
					ToolCalls: []llm.CanonicalToolCall{{
						ID:        state.allocateLocalID(),
						Name:      p.FunctionCall.Name,
						Arguments: string(args),
					}},
				})
			}
		}
	}

	events := append(contentEvents, callEvents...)
	if resp.UsageMetadata != nil {
		usage := llm.TokenUsage{
			PromptTokens:     resp.UsageMetadata.PromptTokenCount,
			CompletionTokens: resp.UsageMetadata.CandidatesTokenCount,
			TotalTokens:      resp.UsageMetadata.TotalTokenCount,
		}
		events = append(events, llm.CanonicalEvent{Type: llm.EventUsage, Usage: &usage})
	}
	if finished {
		events = append(events, llm.CanonicalEvent{Type: llm.EventDone})
	}
	return events, state
}
