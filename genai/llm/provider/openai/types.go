// Package openai implements the OpenAI Responses API provider: request
// construction, Server-Sent-Events stream translation into canonical
// llm.CanonicalEvent values, and non-streaming generation.
package openai

// requestPayload is the POST /v1/responses body.
type requestPayload struct {
	Model             string          `json:"model"`
	Instructions      string          `json:"instructions,omitempty"`
	Input             []inputItem     `json:"input"`
	Tools             []toolDecl      `json:"tools,omitempty"`
	ToolChoice        interface{}     `json:"tool_choice,omitempty"`
	Temperature       *float64        `json:"temperature,omitempty"`
	TopP              float64         `json:"top_p,omitempty"`
	MaxOutputTokens   int             `json:"max_output_tokens,omitempty"`
	Stream            bool            `json:"stream"`
	ParallelToolCalls *bool           `json:"parallel_tool_calls,omitempty"`
	PreviousResponseID string         `json:"previous_response_id,omitempty"`
}

// inputItem is one element of the Responses API "input" array: either a
// message with role+content, or a function_call_output fed back as a tool
// continuation (§6.3).
type inputItem struct {
	Type       string            `json:"type,omitempty"`
	Role       string            `json:"role,omitempty"`
	Content    []inputContent    `json:"content,omitempty"`
	CallID     string            `json:"call_id,omitempty"`
	Output     string            `json:"output,omitempty"`
}

type inputContent struct {
	Type     string `json:"type"`
	Text     string `json:"text,omitempty"`
	ImageURL string `json:"image_url,omitempty"`
	FileData string `json:"file_data,omitempty"`
	MimeType string `json:"mime_type,omitempty"`
}

type toolDecl struct {
	Type        string                 `json:"type"`
	Name        string                 `json:"name"`
	Description string                 `json:"description,omitempty"`
	Parameters  map[string]interface{} `json:"parameters,omitempty"`
}

// Frame data payloads, one struct per event_type of interest (§4.4.1).

type outputTextDelta struct {
	Delta string `json:"delta"`
}

type functionCallArgumentsDelta struct {
	ItemID string `json:"item_id"`
	Delta  string `json:"delta"`
}

type outputItemDone struct {
	Item outputItem `json:"item"`
}

type outputItem struct {
	Type      string `json:"type"`
	CallID    string `json:"call_id"`
	Name      string `json:"name"`
	Arguments string `json:"arguments"`
	ID        string `json:"id"`
}

type responseCompleted struct {
	Response struct {
		ID    string `json:"id"`
		Usage struct {
			InputTokens  int `json:"input_tokens"`
			OutputTokens int `json:"output_tokens"`
			TotalTokens  int `json:"total_tokens"`
		} `json:"usage"`
	} `json:"response"`
}

type responseFailed struct {
	Error struct {
		Message string `json:"message"`
	} `json:"error"`
}
