package tool

// Result is what TOOL_DISPATCH collects for one executed call, per §4.10
// step 3: `{name, args, result, error?}`.
type Result struct {
	ID     string
	Name   string
	Args   map[string]interface{}
	Output string // tool's result content; errors are prefixed "error: "
	Err    error
}

// ContinuationMessage is a provider-neutral envelope for one follow-up
// message produced from a Result; the agent loop maps these onto
// llm.Message per provider before re-entering STREAMING.
type ContinuationMessage struct {
	Provider string
	OpenAI   *OpenAIFunctionCallOutput
	Anthropic *AnthropicToolResultMessage
	Gemini   *GeminiFunctionResponseMessage
}

type OpenAIFunctionCallOutput struct {
	Type   string `json:"type"`
	CallID string `json:"call_id"`
	Output string `json:"output"`
}

type AnthropicToolResultMessage struct {
	Role    string                `json:"role"`
	Content []anthropicToolResult `json:"content"`
}

type anthropicToolResult struct {
	Type      string `json:"type"`
	ToolUseID string `json:"tool_use_id"`
	Content   string `json:"content"`
}

type GeminiFunctionResponseMessage struct {
	Role  string                   `json:"role"`
	Parts []geminiFunctionResponse `json:"parts"`
}

type geminiFunctionResponse struct {
	FunctionResponse geminiFunctionResponseBody `json:"functionResponse"`
}

type geminiFunctionResponseBody struct {
	ID       string                 `json:"id,omitempty"`
	Name     string                 `json:"name"`
	Response map[string]interface{} `json:"response"`
}

// ContinuationFor renders one Result into the wire shape provider expects
// for the follow-up turn, per §4.6's "Result conversion for continuation
// turn" table.
func ContinuationFor(provider string, r Result) ContinuationMessage {
	text := r.Output
	if r.Err != nil {
		text = "error: " + r.Err.Error()
	}

	switch provider {
	case "anthropic":
		return ContinuationMessage{Provider: provider, Anthropic: &AnthropicToolResultMessage{
			Role: "user",
			Content: []anthropicToolResult{{
				Type:      "tool_result",
				ToolUseID: r.ID,
				Content:   text,
			}},
		}}
	case "gemini":
		return ContinuationMessage{Provider: provider, Gemini: &GeminiFunctionResponseMessage{
			Role: "user",
			Parts: []geminiFunctionResponse{{
				FunctionResponse: geminiFunctionResponseBody{
					ID:       r.ID,
					Name:     r.Name,
					Response: map[string]interface{}{"output": text},
				},
			}},
		}}
	default: // openai
		return ContinuationMessage{Provider: provider, OpenAI: &OpenAIFunctionCallOutput{
			Type:   "function_call_output",
			CallID: r.ID,
			Output: text,
		}}
	}
}
