package anthropic

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/viant/agentrt/genai/llm"
	basecfg "github.com/viant/agentrt/genai/llm/provider/base"
	"github.com/viant/agentrt/genai/sse"
)

const (
	defaultBaseURL   = "https://api.anthropic.com"
	codeSystemPrompt = "You are Claude Code, Anthropic's official CLI for Claude."
)

type ClientOption = basecfg.ClientOption

var (
	WithBaseURL       = basecfg.WithBaseURL
	WithHTTPClient    = basecfg.WithHTTPClient
	WithModel         = basecfg.WithModel
	WithTimeout       = basecfg.WithTimeout
	WithUsageListener = basecfg.WithUsageListener
)

// Client is an Anthropic Messages API client implementing HTTPClientFactory
// (C2) and ProviderStreamHandler (C4) for this vendor.
type Client struct {
	basecfg.Config
	APIKey      string
	AccessToken string // oauth session: sent as Bearer plus the Claude-Code system prompt per §4.2
}

func NewClient(apiKey, model string, opts ...ClientOption) *Client {
	c := &Client{APIKey: apiKey}
	c.BaseURL = defaultBaseURL
	c.Model = model
	c.Timeout = 120 * time.Second
	c.HTTPClient = &http.Client{Timeout: c.Timeout}
	for _, o := range opts {
		o(&c.Config)
	}
	return c
}

func (c *Client) Implements(feature string) bool {
	switch feature {
	case basecfg.CanUseTools, basecfg.CanStream, basecfg.IsMultimodal:
		return true
	}
	return false
}

func (c *Client) applyHeaders(req *http.Request, payload *requestPayload) {
	req.Header.Set("content-type", "application/json")
	req.Header.Set("anthropic-version", anthropicVersion)
	if c.AccessToken != "" {
		req.Header.Set("authorization", "Bearer "+c.AccessToken)
		if payload.System != "" {
			payload.System = codeSystemPrompt + "\n" + payload.System
		} else {
			payload.System = codeSystemPrompt
		}
		return
	}
	req.Header.Set("x-api-key", c.APIKey)
}

// StreamChat posts a streaming /v1/messages request and returns a channel of
// canonical events translated by HandleFrame.
func (c *Client) StreamChat(ctx context.Context, req *llm.GenerateRequest) (<-chan llm.CanonicalEvent, error) {
	payload := BuildRequest(req)
	if payload.Model == "" {
		payload.Model = c.Model
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.BaseURL+"/v1/messages", nil)
	if err != nil {
		return nil, fmt.Errorf("anthropic: build request: %w", err)
	}
	c.applyHeaders(httpReq, payload)

	body, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("anthropic: marshal request: %w", err)
	}
	httpReq.Body = io.NopCloser(bytes.NewReader(body))
	httpReq.ContentLength = int64(len(body))

	resp, err := c.httpClient().Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("anthropic: request: %w", err)
	}
	if resp.StatusCode >= 300 {
		defer resp.Body.Close()
		b, _ := io.ReadAll(io.LimitReader(resp.Body, 64*1024))
		return nil, fmt.Errorf("anthropic: http %d: %s", resp.StatusCode, string(b))
	}

	out := make(chan llm.CanonicalEvent)
	go func() {
		defer resp.Body.Close()
		defer close(out)
		state := newState()
		var usageSum *llm.Usage
		for frame := range sse.Decode(ctx, resp.Body) {
			events, next := HandleFrame(frame, state)
			state = next
			for _, ev := range events {
				if ev.Type == llm.EventUsage && ev.Usage != nil {
					usageSum = &llm.Usage{
						PromptTokens:     ev.Usage.PromptTokens,
						CompletionTokens: ev.Usage.CompletionTokens,
						TotalTokens:      ev.Usage.TotalTokens,
					}
				}
				select {
				case out <- ev:
				case <-ctx.Done():
					return
				}
			}
		}
		if usageSum != nil && c.UsageListener != nil {
			c.UsageListener.OnUsage(c.Model, usageSum)
		}
	}()
	return out, nil
}

func (c *Client) Generate(ctx context.Context, req *llm.GenerateRequest) (*llm.GenerateResponse, error) {
	events, err := c.StreamChat(ctx, req)
	if err != nil {
		return nil, err
	}
	var text string
	var toolCalls []llm.ToolCall
	var usage llm.Usage
	for ev := range events {
		switch ev.Type {
		case llm.EventContent:
			text += ev.Content
		case llm.EventFunctionCall:
			for _, tc := range ev.ToolCalls {
				var args map[string]interface{}
				_ = json.Unmarshal([]byte(tc.Arguments), &args)
				toolCalls = append(toolCalls, llm.ToolCall{ID: tc.ID, Name: tc.Name, Arguments: args})
			}
		case llm.EventUsage:
			if ev.Usage != nil {
				usage.PromptTokens = ev.Usage.PromptTokens
				usage.CompletionTokens = ev.Usage.CompletionTokens
				usage.TotalTokens = ev.Usage.TotalTokens
			}
		case llm.EventError:
			return nil, fmt.Errorf("anthropic: stream failed: %s", ev.Content)
		}
	}
	msg := llm.NewAssistantMessage(text)
	if len(toolCalls) > 0 {
		msg = llm.NewAssistantMessageWithToolCalls(toolCalls...)
		msg.Content = text
	}
	return &llm.GenerateResponse{
		Model:   c.Model,
		Usage:   &usage,
		Choices: []llm.Choice{{Index: 0, Message: msg}},
	}, nil
}

func (c *Client) httpClient() *http.Client {
	if c.HTTPClient != nil {
		return c.HTTPClient
	}
	return http.DefaultClient
}
