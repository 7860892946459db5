package tool

// ProviderDecl is the provider-shaped tool declaration block ready to embed
// in a GenerateRequest, per §4.6's translation table.
type ProviderDecl struct {
	OpenAI     []OpenAIToolDecl
	Anthropic  []AnthropicToolDecl
	ToolChoice string // "auto" when len(tools) > 0, else ""
	Gemini     GeminiToolDecl
}

type OpenAIToolDecl struct {
	Type        string                 `json:"type"`
	Name        string                 `json:"name"`
	Description string                 `json:"description,omitempty"`
	Parameters  map[string]interface{} `json:"parameters,omitempty"`
}

type AnthropicToolDecl struct {
	Name        string                 `json:"name"`
	Description string                 `json:"description,omitempty"`
	InputSchema map[string]interface{} `json:"input_schema,omitempty"`
}

type geminiFunctionDecl struct {
	Name                 string                 `json:"name"`
	Description          string                 `json:"description,omitempty"`
	ParametersJSONSchema map[string]interface{} `json:"parametersJsonSchema,omitempty"`
}

type GeminiToolDecl struct {
	FunctionDeclarations []geminiFunctionDecl `json:"functionDeclarations"`
}

// DeclareForProvider implements declare_for_provider: it merges the
// registry's built-in definitions for enabledTools with the MCP-discovered
// mcpTools and renders the provider-shaped declaration block.
func (r *Registry) DeclareForProvider(provider string, enabledTools []string, mcpTools []llmToolDefinitionLike) ProviderDecl {
	var defs []toolDef
	for _, name := range enabledTools {
		if d, ok := r.GetDefinition(name); ok {
			defs = append(defs, toolDef{Name: d.Name, Description: d.Description, Schema: d.Parameters})
		}
	}
	for _, mt := range mcpTools {
		defs = append(defs, toolDef{Name: mt.ToolName(), Description: mt.ToolDescription(), Schema: mt.ToolSchema()})
	}

	decl := ProviderDecl{}
	if len(defs) > 0 {
		decl.ToolChoice = "auto"
	}
	switch provider {
	case "anthropic":
		for _, d := range defs {
			decl.Anthropic = append(decl.Anthropic, AnthropicToolDecl{Name: d.Name, Description: d.Description, InputSchema: d.Schema})
		}
	case "gemini":
		for _, d := range defs {
			decl.Gemini.FunctionDeclarations = append(decl.Gemini.FunctionDeclarations, geminiFunctionDecl{Name: d.Name, Description: d.Description, ParametersJSONSchema: d.Schema})
		}
	default: // openai
		for _, d := range defs {
			decl.OpenAI = append(decl.OpenAI, OpenAIToolDecl{Type: "function", Name: d.Name, Description: d.Description, Parameters: d.Schema})
		}
	}
	return decl
}

type toolDef struct {
	Name        string
	Description string
	Schema      map[string]interface{}
}

// llmToolDefinitionLike decouples declare.go from the MCP package: anything
// exposing a name/description/schema triple (e.g. an mcp.DiscoveredTool) can
// be merged into a provider declaration without an import cycle.
type llmToolDefinitionLike interface {
	ToolName() string
	ToolDescription() string
	ToolSchema() map[string]interface{}
}
