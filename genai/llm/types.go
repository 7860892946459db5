package llm

// ContentType defines the supported asset types.
type ContentType string

const (
	ContentTypeText   ContentType = "text"
	ContentTypeImage  ContentType = "image"
	ContentTypeVideo  ContentType = "video"
	ContentTypePDF    ContentType = "pdf"
	ContentTypeAudio  ContentType = "audio"
	ContentTypeBinary ContentType = "binary"
)

// AssetSource defines the way the asset is provided.
type AssetSource string

const (
	SourceURL    AssetSource = "url"
	SourceBase64 AssetSource = "base64"
	SourceRaw    AssetSource = "raw"
)

// ContentItem is a universal representation of any content asset in a message.
type ContentItem struct {
	// Type indicates the type of the content.
	Type ContentType `json:"type"`

	// Source indicates how the asset is provided (url, base64, raw bytes).
	Source AssetSource `json:"source"`

	// Data is the actual content of the asset.
	// - For SourceURL: URL as string.
	// - For SourceBase64: Base64-encoded data.
	// - For SourceRaw: raw text.
	Data string `json:"data,omitempty"`

	// Text is the plain-text rendering of this item, read by provider
	// request builders when assembling a non-text-only message.
	Text string `json:"text,omitempty"`

	MimeType string `json:"mimeType,omitempty"`

	// Metadata is optional structured metadata (e.g., image detail level).
	Metadata map[string]interface{} `json:"metadata,omitempty"`
}

// MessageRole represents the role of the message sender.
type MessageRole string

const (
	RoleSystem    MessageRole = "system"
	RoleUser      MessageRole = "user"
	RoleAssistant MessageRole = "assistant"
	RoleTool      MessageRole = "tool"
)

// Message is a single turn in a conversation, addressed to a ProviderStreamHandler.
type Message struct {
	// Role of the sender (user, assistant, system, tool).
	Role MessageRole `json:"role"`

	// Content is the message's plain text, when it has no multi-part items.
	Content string `json:"content,omitempty"`

	// Items holds multi-part content (text plus images/binary attachments).
	Items []ContentItem `json:"items,omitempty"`

	// Name is the optional sender/tool name.
	Name string `json:"name,omitempty"`

	// ToolCallId links a RoleTool message back to the ToolCall.ID it answers.
	ToolCallId string `json:"tool_call_id,omitempty"`

	// ToolCalls carries the tool invocations an assistant message requested.
	ToolCalls []ToolCall `json:"tool_calls,omitempty"`
}

// ToolCall is the decoded form of a model-requested tool invocation used by
// ToolRegistry.Dispatch: Arguments is already parsed into a map. This is
// distinct from CanonicalToolCall (genai/llm/event.go), the wire-neutral
// shape a ProviderStreamHandler emits with Arguments as raw JSON text;
// ToolRegistry.DispatchRaw converts one into the other.
type ToolCall struct {
	// ID is a unique identifier for the tool call.
	ID string `json:"id,omitempty"`

	// Name is the name of the tool to call.
	Name string `json:"name"`

	// Arguments contains the parsed arguments to pass to the tool.
	Arguments map[string]interface{} `json:"arguments"`
}

// GenerateRequest represents a request to a chat-based LLM.
type GenerateRequest struct {
	// Messages is the list of messages in the conversation.
	Messages []Message `json:"messages"`

	// Options contains additional options for the request.
	Options *Options `json:"options,omitempty"`
}

// GenerateResponse represents a response from a chat-based LLM.
type GenerateResponse struct {
	// Choices contains the generated responses.
	Choices []Choice `json:"choices"`

	// Usage contains token usage information.
	Usage *Usage `json:"usage,omitempty"`
	Model string `json:"model,omitempty"`
}

// Choice represents a single response choice from a chat-based LLM.
type Choice struct {
	// Index is the index of the choice.
	Index int `json:"index"`

	// Message is the generated message.
	Message Message `json:"message"`

	// FinishReason is the reason why the generation stopped.
	FinishReason string `json:"finish_reason,omitempty"`
}

// Usage contains token usage information for a single GenerateResponse.
type Usage struct {
	PromptTokens     int `json:"prompt_tokens"`
	CompletionTokens int `json:"completion_tokens"`
	TotalTokens      int `json:"total_tokens"`

	// ContextTokens is the list of token IDs used in the model context (Ollama-specific).
	ContextTokens []int `json:"context_tokens,omitempty"`

	CachedTokens    int `json:"cached_tokens,omitempty"`
	ReasoningTokens int `json:"reasoning_tokens,omitempty"`
	AudioTokens     int `json:"audio_tokens,omitempty"`
}

// NewUserMessage creates a new message with the "user" role.
func NewUserMessage(content string) Message {
	return Message{Role: RoleUser, Content: content}
}

// NewSystemMessage creates a new message with the "system" role.
func NewSystemMessage(content string) Message {
	return Message{Role: RoleSystem, Content: content}
}

// NewAssistantMessage creates a new message with the "assistant" role.
func NewAssistantMessage(content string) Message {
	return Message{Role: RoleAssistant, Content: content}
}

// NewAssistantMessageWithToolCalls creates an assistant message that includes tool calls.
func NewAssistantMessageWithToolCalls(toolCalls ...ToolCall) Message {
	return Message{Role: RoleAssistant, ToolCalls: toolCalls}
}
