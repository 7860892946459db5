// Package httpclient implements HTTPClientFactory (C2): it turns a resolved
// SavedAuthentication plus a (provider, auth_type, model) selection into a
// fully-configured provider.Options ready for provider.Factory.CreateModel,
// picking the right base URL and headers per §4.2.
package httpclient

import (
	"context"
	"net/http"
	"time"

	"github.com/viant/agentrt/genai/llm/provider"
	"github.com/viant/agentrt/genai/usage"
	"github.com/viant/agentrt/internal/apperr"
)

// MaxConnsPerHost bounds the shared transport's per-host connection pool,
// per §5 ("HTTP connection pool: shared; bounded by max_conns_per_host
// (default 64)").
const MaxConnsPerHost = 64

// Per-provider header injection (Anthropic's system preamble, Gemini's
// x-goog-api-client header) lives in each provider client's applyHeaders,
// not here; this factory resolves credentials and the base URL, including
// the Code-Assist URL for Gemini OAuth sessions.
const (
	openaiBaseURL       = "https://api.openai.com"
	anthropicBaseURL    = "https://api.anthropic.com"
	geminiBaseURL       = "https://generativelanguage.googleapis.com"
	geminiCodeAssistURL = "https://cloudcode-pa.googleapis.com"
	codexCLIUserAgent   = "codex_cli_rs"
)

// sharedTransport is reused by every Client the factory builds, so the pool
// (and its bound) is process-wide rather than per-request, per §5's "shared
// resources" rule.
var sharedTransport = &http.Transport{
	MaxConnsPerHost:     MaxConnsPerHost,
	MaxIdleConnsPerHost: MaxConnsPerHost,
	IdleConnTimeout:     90 * time.Second,
}

var sharedClient = &http.Client{Transport: sharedTransport, Timeout: 120 * time.Second}

// SharedHTTPClient returns the process-wide bounded-pool client every
// provider Options uses unless a caller overrides it in BuildOpts.
func SharedHTTPClient() *http.Client { return sharedClient }

// CredentialLookup is the minimal view of genai/credential.Store the
// factory needs, decoupled to avoid an import cycle between credential and
// router.
type CredentialLookup interface {
	APIKeyOrAccessToken(ctx context.Context, prov string, authType provider.AuthType, name string) (apiKey, accessToken string, err error)
}

// BuildOpts carries caller-supplied overrides layered onto the resolved
// Options.
type BuildOpts struct {
	Model         string
	BaseURL       string // override, e.g. for test doubles
	UsageListener *usage.Aggregator
}

// Build implements HTTPClientFactory.build(provider, auth_type,
// session_name?, opts?) -> Client by resolving credentials via creds and
// populating a provider.Options with the right base URL, headers (applied by
// the concrete provider client at request time) and connection pool.
func Build(ctx context.Context, creds CredentialLookup, prov string, authType provider.AuthType, name string, opts BuildOpts) (*provider.Options, error) {
	if !provider.Known(prov) {
		return nil, apperr.Wrap(apperr.ErrProviderNotSupported, "provider %q", prov)
	}
	if !provider.SupportsAuth(prov, authType) {
		return nil, apperr.Wrap(apperr.ErrInvalidAuthType, "provider %q does not support auth type %q", prov, authType)
	}

	apiKey, accessToken, err := creds.APIKeyOrAccessToken(ctx, prov, authType, name)
	if err != nil {
		return nil, err
	}

	out := &provider.Options{
		Model:       opts.Model,
		Provider:    prov,
		AuthType:    authType,
		APIKey:      apiKey,
		AccessToken: accessToken,
		BaseURL:     opts.BaseURL,
		HTTPClient:  sharedClient,
	}
	if out.BaseURL == "" {
		out.BaseURL = baseURLFor(prov, authType)
	}
	if opts.UsageListener != nil {
		out.UsageListener = opts.UsageListener.OnUsage
	}
	out.UserAgent = userAgentFor(prov, authType)
	return out, nil
}

// baseURLFor implements §4.2's per-provider/auth-type base URL table.
func baseURLFor(prov string, authType provider.AuthType) string {
	switch prov {
	case provider.ProviderOpenAI:
		return openaiBaseURL
	case provider.ProviderAnthropic:
		return anthropicBaseURL
	case provider.ProviderGemini:
		if authType == provider.AuthOAuth {
			return geminiCodeAssistURL
		}
		return geminiBaseURL
	default:
		return ""
	}
}

func userAgentFor(prov string, authType provider.AuthType) string {
	if prov == provider.ProviderOpenAI && authType == provider.AuthOAuth {
		return codexCLIUserAgent
	}
	return ""
}
