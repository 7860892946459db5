package tool

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/viant/agentrt/genai/llm"
)

func noopHandler(ctx context.Context, args map[string]interface{}) (string, error) { return "", nil }

func TestDeclareForProvider_OpenAI(t *testing.T) {
	r := NewRegistry()
	r.Register(llm.ToolDefinition{Name: "search", Description: "find things", Parameters: map[string]interface{}{"type": "object"}}, noopHandler)

	decl := r.DeclareForProvider("openai", []string{"search"}, nil)
	assert.Equal(t, "auto", decl.ToolChoice)
	if assert.Len(t, decl.OpenAI, 1) {
		assert.Equal(t, "function", decl.OpenAI[0].Type)
		assert.Equal(t, "search", decl.OpenAI[0].Name)
	}
	assert.Empty(t, decl.Anthropic)
	assert.Empty(t, decl.Gemini.FunctionDeclarations)
}

func TestDeclareForProvider_Anthropic(t *testing.T) {
	r := NewRegistry()
	r.Register(llm.ToolDefinition{Name: "search", Description: "find things", Parameters: map[string]interface{}{"type": "object"}}, noopHandler)

	decl := r.DeclareForProvider("anthropic", []string{"search"}, nil)
	if assert.Len(t, decl.Anthropic, 1) {
		assert.Equal(t, "search", decl.Anthropic[0].Name)
		assert.NotNil(t, decl.Anthropic[0].InputSchema)
	}
}

func TestDeclareForProvider_Gemini(t *testing.T) {
	r := NewRegistry()
	r.Register(llm.ToolDefinition{Name: "search", Description: "find things", Parameters: map[string]interface{}{"type": "object"}}, noopHandler)

	decl := r.DeclareForProvider("gemini", []string{"search"}, nil)
	if assert.Len(t, decl.Gemini.FunctionDeclarations, 1) {
		assert.Equal(t, "search", decl.Gemini.FunctionDeclarations[0].Name)
	}
}

func TestDeclareForProvider_NoToolsNoChoice(t *testing.T) {
	r := NewRegistry()
	decl := r.DeclareForProvider("openai", nil, nil)
	assert.Empty(t, decl.ToolChoice)
}
