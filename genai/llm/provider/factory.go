package provider

import (
	"context"

	"github.com/viant/agentrt/genai/llm"
	"github.com/viant/agentrt/genai/llm/provider/anthropic"
	"github.com/viant/agentrt/genai/llm/provider/base"
	"github.com/viant/agentrt/genai/llm/provider/gemini"
	"github.com/viant/agentrt/genai/llm/provider/openai"
	"github.com/viant/agentrt/internal/apperr"
)

// Factory builds a per-provider llm.Model from resolved Options. It is the
// model-construction half of HTTPClientFactory (C2); credential lookup
// happens upstream in genai/credential and is passed in via Options.APIKey /
// Options.AccessToken.
type Factory struct{}

func New() *Factory { return &Factory{} }

func (f *Factory) CreateModel(ctx context.Context, options *Options) (llm.Model, error) {
	if options.Provider == "" {
		return nil, apperr.Wrap(apperr.ErrProviderNotSupported, "provider is empty")
	}
	switch options.Provider {
	case ProviderOpenAI:
		opts := []openai.ClientOption{openai.WithUsageListener(options.UsageListener)}
		if options.BaseURL != "" {
			opts = append(opts, openai.WithBaseURL(options.BaseURL))
		}
		if options.HTTPClient != nil {
			opts = append(opts, base.WithHTTPClient(options.HTTPClient))
		}
		client := openai.NewClient(options.APIKey, options.Model, opts...)
		client.AccessToken = options.AccessToken
		return client, nil

	case ProviderAnthropic:
		opts := []anthropic.ClientOption{anthropic.WithUsageListener(options.UsageListener)}
		if options.BaseURL != "" {
			opts = append(opts, anthropic.WithBaseURL(options.BaseURL))
		}
		if options.HTTPClient != nil {
			opts = append(opts, base.WithHTTPClient(options.HTTPClient))
		}
		client := anthropic.NewClient(options.APIKey, options.Model, opts...)
		client.AccessToken = options.AccessToken
		return client, nil

	case ProviderGemini:
		opts := []gemini.ClientOption{gemini.WithUsageListener(options.UsageListener)}
		if options.BaseURL != "" {
			opts = append(opts, gemini.WithBaseURL(options.BaseURL))
		}
		if options.HTTPClient != nil {
			opts = append(opts, base.WithHTTPClient(options.HTTPClient))
		}
		client := gemini.NewClient(options.APIKey, options.Model, opts...)
		client.AccessToken = options.AccessToken
		return client, nil

	default:
		return nil, apperr.Wrap(apperr.ErrProviderNotSupported, "provider %q", options.Provider)
	}
}
