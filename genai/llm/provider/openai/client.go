package openai

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

const defaultBaseURL = "https://api.openai.com"

// ClientOption mutates the embedded base.Config; re-exported so callers can
// write openai.WithModel(...) directly.
type ClientOption = basecfg.ClientOption

var (
	WithBaseURL      = basecfg.WithBaseURL
	WithHTTPClient   = basecfg.WithHTTPClient
	WithModel        = basecfg.WithModel
	WithTimeout      = basecfg.WithTimeout
	WithUsageListener = basecfg.WithUsageListener
)

// Client is an OpenAI Responses API client: HTTPClientFactory output (C2)
// plus ProviderStreamHandler (C4) wiring for this vendor.
type Client struct {
	basecfg.Config
	APIKey      string
	AccessToken string // set for oauth sessions, sent as Bearer instead of APIKey
}

// NewClient builds a Client pre-configured with the OpenAI base URL and
// default timeout, per §4.2.
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
	case basecfg.CanUseTools, basecfg.CanStream, basecfg.IsMultimodal,
		basecfg.CanExecToolsInParallel, basecfg.SupportsContextContinuation, basecfg.SupportsInstructions:
		return true
	}
	return false
}

func (c *Client) authHeader(req *http.Request) {
	if c.AccessToken != "" {
		req.Header.Set("Authorization", "Bearer "+c.AccessToken)
		return
	}
	req.Header.Set("Authorization", "Bearer "+c.APIKey)
}

// StreamChat posts a streaming /v1/responses request and returns a channel
// of canonical events, decoding the upstream SSE body frame by frame and
// folding each frame through HandleFrame. previousResponseID enables
// provider-native continuation when non-empty.
func (c *Client) StreamChat(ctx context.Context, req *llm.GenerateRequest, previousResponseID string) (<-chan llm.CanonicalEvent, error) {
	payload := BuildRequest(req, previousResponseID)
	if payload.Model == "" {
		payload.Model = c.Model
	}
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("openai: marshal request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.BaseURL+"/v1/responses", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("openai: build request: %w", err)
	}
	httpReq.Header.Set("content-type", "application/json")
	c.authHeader(httpReq)

	resp, err := c.httpClient().Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("openai: request: %w", err)
	}
	if resp.StatusCode >= 300 {
		defer resp.Body.Close()
		b, _ := io.ReadAll(io.LimitReader(resp.Body, 64*1024))
		return nil, fmt.Errorf("openai: http %d: %s", resp.StatusCode, string(b))
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
				if ev.Type == llm.EventUsage && ev.Usage != nil && c.UsageListener != nil {
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
		if usageSum != nil {
			c.UsageListener.OnUsage(c.Model, usageSum)
		}
	}()
	return out, nil
}

// Generate drains StreamChat (the upstream request itself still streams) and
// folds the canonical events into a single GenerateResponse.
func (c *Client) Generate(ctx context.Context, req *llm.GenerateRequest) (*llm.GenerateResponse, error) {
	req.Options.Stream = false
	events, err := c.StreamChat(ctx, req, "")
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
			return nil, fmt.Errorf("openai: stream failed: %s", ev.Content)
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
