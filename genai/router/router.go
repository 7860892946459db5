// Package router implements ProviderRouter (C9): the single facade other
// components call instead of touching genai/credential, genai/oauth2 and
// genai/llm/provider directly. Grounded on the teacher's top-level
// genai/service/agent orchestration style (one facade per concern, thin
// methods delegating to focused sub-packages) and on
// internal/genai/provider/openai/chatgptauth.Manager for the OAuth leg.
package router

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/viant/agentrt/genai/credential"
	"github.com/viant/agentrt/genai/llm"
	"github.com/viant/agentrt/genai/llm/provider"
	"github.com/viant/agentrt/genai/oauth2"
	"github.com/viant/agentrt/genai/router/httpclient"
	"github.com/viant/agentrt/genai/usage"
	"github.com/viant/agentrt/internal/apperr"
	"github.com/viant/agentrt/internal/obs"
)

// OAuthEndpoint names the token/models endpoints and client id a provider's
// OAuth flow uses. Client ids are configuration inputs supplied by whoever
// deploys the runtime, never invented here (see DESIGN.md's decision on the
// "where do OAuth client ids come from" open question).
type OAuthEndpoint struct {
	TokenURL    string
	ModelsURL   string
	ClientID    string
	RedirectURI string
}

// Config wires the provider-specific constants Router needs beyond what
// genai/llm/provider already hardcodes (base URLs), namely the OAuth token
// endpoints and client ids, and an optional refresh scheduler hook for C12.
type Config struct {
	OAuth map[string]OAuthEndpoint // keyed by provider.ProviderOpenAI etc.

	// ModelsBaseURL overrides list_models' default endpoint per provider,
	// e.g. to point at a test double or an on-prem mirror.
	ModelsBaseURL map[string]string

	// ScheduleRefresh, when set, is invoked after a successful OAuth
	// create_session so TokenRefreshWorker (C12) picks the new credential up
	// without waiting for its next poll tick.
	ScheduleRefresh func(key credential.Key)
}

// Router implements ProviderRouter (C9).
type Router struct {
	cfg     Config
	creds   *credential.Store
	factory *provider.Factory
	metrics obs.Metrics
}

func New(cfg Config, creds *credential.Store, metrics obs.Metrics) *Router {
	if metrics == nil {
		metrics = obs.NoopMetrics{}
	}
	return &Router{cfg: cfg, creds: creds, factory: provider.New(), metrics: metrics}
}

// streamChatter is satisfied by every concrete provider client
// (openai/anthropic/gemini.Client); it is narrower than llm.Model so Router
// can call the streaming method without each client needing to implement
// llm.StreamingModel's channel-of-StreamEvent shape.
type streamChatter interface {
	StreamChat(ctx context.Context, req *llm.GenerateRequest) (<-chan llm.CanonicalEvent, error)
}

// CreateAPIKeySession implements create_session(provider, api_key, opts) for
// the api_key leg: validate the key is non-empty after trimming, then
// delegate to CredentialStore.create_named.
func (r *Router) CreateAPIKeySession(ctx context.Context, prov, name, apiKey string) (*credential.Record, error) {
	apiKey = strings.TrimSpace(apiKey)
	if apiKey == "" {
		return nil, apperr.Wrap(apperr.ErrInvalidCredentials, "api_key must not be empty")
	}
	if !provider.Known(prov) || !provider.SupportsAuth(prov, provider.AuthAPIKey) {
		return nil, apperr.Wrap(apperr.ErrInvalidAuthType, "provider %q does not support api_key auth", prov)
	}
	return r.creds.CreateNamed(ctx, prov, provider.AuthAPIKey, name, map[string]interface{}{"api_key": apiKey}, nil)
}

// CreateOAuthSession implements create_session(provider, oauth, opts) for the
// authorization_code + PKCE leg: exchange code for tokens, persist them and
// fire ScheduleRefresh so C12 knows about the new credential immediately.
func (r *Router) CreateOAuthSession(ctx context.Context, prov, name, code, codeVerifier string) (*credential.Record, error) {
	if !provider.Known(prov) || !provider.SupportsAuth(prov, provider.AuthOAuth) {
		return nil, apperr.Wrap(apperr.ErrInvalidAuthType, "provider %q does not support oauth", prov)
	}
	ep, ok := r.cfg.OAuth[prov]
	if !ok || ep.TokenURL == "" {
		return nil, apperr.Wrap(apperr.ErrConfigInvalid, "no oauth endpoint configured for provider %q", prov)
	}

	result, err := oauth2.ExchangeCode(ctx, oauth2.ExchangeParams{
		TokenURL:     ep.TokenURL,
		ClientID:     ep.ClientID,
		RedirectURI:  ep.RedirectURI,
		CodeVerifier: codeVerifier,
		HTTPClient:   httpclient.SharedHTTPClient(),
	}, code)
	if err != nil {
		return nil, err
	}

	now := time.Now()
	expiresAt := result.Expiry(now)
	creds := map[string]interface{}{
		"access_token": result.AccessToken,
		"token_type":   result.TokenType,
		"scope":        result.Scope,
	}
	if result.RefreshToken != "" {
		creds["refresh_token"] = result.RefreshToken
	}

	rec, err := r.creds.CreateNamed(ctx, prov, provider.AuthOAuth, name, creds, &expiresAt)
	if err != nil {
		return nil, err
	}
	r.metrics.Inc("oauth.created", map[string]string{"provider": prov}, 1)
	if r.cfg.ScheduleRefresh != nil {
		r.cfg.ScheduleRefresh(rec.Key)
	}
	return rec, nil
}

// DeleteSession implements delete_session: idempotent credential removal.
func (r *Router) DeleteSession(ctx context.Context, prov string, authType provider.AuthType, name string) error {
	return r.creds.Delete(ctx, prov, authType, name)
}

// RefreshTokens implements refresh_tokens(session_name): call the provider's
// token endpoint with the stored refresh_token; on invalid_grant/401 the
// ErrInvalidRefreshToken from genai/oauth2 propagates unchanged so callers
// know not to retry.
func (r *Router) RefreshTokens(ctx context.Context, prov, name string) (*credential.Record, error) {
	rec, err := r.creds.Get(ctx, prov, provider.AuthOAuth, name)
	if err != nil {
		return nil, err
	}
	refreshToken, _ := rec.Credentials["refresh_token"].(string)
	if refreshToken == "" {
		return nil, apperr.Wrap(apperr.ErrInvalidRefreshToken, "credential %s has no refresh_token", rec.Key)
	}
	ep, ok := r.cfg.OAuth[prov]
	if !ok || ep.TokenURL == "" {
		return nil, apperr.Wrap(apperr.ErrConfigInvalid, "no oauth endpoint configured for provider %q", prov)
	}

	result, err := oauth2.Refresh(ctx, oauth2.RefreshParams{
		TokenURL:     ep.TokenURL,
		ClientID:     ep.ClientID,
		RefreshToken: refreshToken,
		HTTPClient:   httpclient.SharedHTTPClient(),
	})
	if err != nil {
		r.metrics.Inc("oauth.refresh_failed", map[string]string{"provider": prov}, 1)
		return nil, err
	}

	now := time.Now()
	expiresAt := result.Expiry(now)
	patch := map[string]interface{}{
		"access_token": result.AccessToken,
		"token_type":   result.TokenType,
		"scope":        result.Scope,
	}
	newRefresh := result.RefreshToken
	if newRefresh == "" {
		newRefresh = refreshToken
	}
	patch["refresh_token"] = newRefresh

	updated, err := r.creds.Update(ctx, rec.Key, patch, &expiresAt)
	if err != nil {
		return nil, err
	}
	r.metrics.Inc("oauth.refreshed", map[string]string{"provider": prov}, 1)
	return updated, nil
}

// StreamChat implements stream_chat(provider, session_name, messages, opts):
// it resolves credentials, builds a provider client via HTTPClientFactory and
// streams canonical events back. The caller (AgentLoop, C10) owns request
// assembly beyond Messages/Options — prompt stack resolution and tool
// declaration happen upstream.
func (r *Router) StreamChat(ctx context.Context, prov string, authType provider.AuthType, name, model string, messages []llm.Message, opts *llm.Options, agg *usage.Aggregator) (<-chan llm.CanonicalEvent, error) {
	providerOpts, err := httpclient.Build(ctx, r.creds, prov, authType, name, httpclient.BuildOpts{
		Model:         model,
		UsageListener: agg,
	})
	if err != nil {
		return nil, err
	}

	m, err := r.factory.CreateModel(ctx, providerOpts)
	if err != nil {
		return nil, err
	}
	sc, ok := m.(streamChatter)
	if !ok {
		return nil, apperr.Wrap(apperr.ErrProviderNotSupported, "provider %q does not support streaming", prov)
	}

	req := &llm.GenerateRequest{Messages: messages}
	if opts != nil {
		effective := *opts
		effective.Model = model
		req.Options = &effective
	} else {
		req.Options = &llm.Options{Model: model}
	}
	return sc.StreamChat(ctx, req)
}

// ModelInfo is the normalized list_models entry, per §4.9: "[{id, name,
// capabilities}]".
type ModelInfo struct {
	ID           string   `json:"id"`
	Name         string   `json:"name"`
	Capabilities []string `json:"capabilities,omitempty"`
}

// ListModels implements list_models(provider, auth_type, session_name): GET
// the provider's models endpoint and normalize the response shape, which
// differs per vendor (OpenAI/Anthropic share a {"data":[...]} envelope,
// Gemini uses {"models":[...]}).
func (r *Router) ListModels(ctx context.Context, prov string, authType provider.AuthType, name string) ([]ModelInfo, error) {
	if !provider.Known(prov) {
		return nil, apperr.Wrap(apperr.ErrProviderNotSupported, "provider %q", prov)
	}
	apiKey, accessToken, err := r.creds.APIKeyOrAccessToken(ctx, prov, authType, name)
	if err != nil {
		return nil, err
	}

	url, req, err := r.modelsRequest(ctx, prov, authType, apiKey, accessToken)
	if err != nil {
		return nil, err
	}
	resp, err := httpclient.SharedHTTPClient().Do(req)
	if err != nil {
		return nil, apperr.Wrap(apperr.ErrNetwork, "list_models %s: %v", url, err)
	}
	defer resp.Body.Close()

	body, _ := io.ReadAll(io.LimitReader(resp.Body, 4<<20))
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, &apperr.HTTPError{Status: resp.StatusCode, Body: string(body)}
	}
	return parseModels(prov, body)
}

func (r *Router) modelsRequest(ctx context.Context, prov string, authType provider.AuthType, apiKey, accessToken string) (string, *http.Request, error) {
	base := r.cfg.ModelsBaseURL[prov]
	var url string
	switch prov {
	case provider.ProviderOpenAI:
		url = withDefault(base, "https://api.openai.com") + "/v1/models"
	case provider.ProviderAnthropic:
		url = withDefault(base, "https://api.anthropic.com") + "/v1/models"
	case provider.ProviderGemini:
		if authType == provider.AuthOAuth {
			url = withDefault(base, "https://cloudcode-pa.googleapis.com") + "/v1internal:listModels"
		} else {
			url = withDefault(base, "https://generativelanguage.googleapis.com") + "/v1beta/models?key=" + apiKey
		}
	default:
		return "", nil, apperr.Wrap(apperr.ErrProviderNotSupported, "provider %q", prov)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return "", nil, fmt.Errorf("router: build list_models request: %w", err)
	}
	switch prov {
	case provider.ProviderOpenAI:
		if accessToken != "" {
			req.Header.Set("Authorization", "Bearer "+accessToken)
		} else {
			req.Header.Set("Authorization", "Bearer "+apiKey)
		}
	case provider.ProviderAnthropic:
		req.Header.Set("anthropic-version", "2023-06-01")
		if accessToken != "" {
			req.Header.Set("authorization", "Bearer "+accessToken)
		} else {
			req.Header.Set("x-api-key", apiKey)
		}
	case provider.ProviderGemini:
		if authType == provider.AuthOAuth {
			req.Header.Set("Authorization", "Bearer "+accessToken)
			req.Header.Set("x-goog-api-client", "agentrt/1.0")
		}
	}
	return url, req, nil
}

func withDefault(override, fallback string) string {
	if override != "" {
		return override
	}
	return fallback
}

func parseModels(prov string, body []byte) ([]ModelInfo, error) {
	switch prov {
	case provider.ProviderOpenAI, provider.ProviderAnthropic:
		var payload struct {
			Data []struct {
				ID          string `json:"id"`
				DisplayName string `json:"display_name"`
			} `json:"data"`
		}
		if err := json.Unmarshal(body, &payload); err != nil {
			return nil, apperr.Wrap(apperr.ErrStorageError, "decode list_models response: %v", err)
		}
		out := make([]ModelInfo, 0, len(payload.Data))
		for _, d := range payload.Data {
			name := d.DisplayName
			if name == "" {
				name = d.ID
			}
			out = append(out, ModelInfo{ID: d.ID, Name: name})
		}
		return out, nil

	case provider.ProviderGemini:
		var payload struct {
			Models []struct {
				Name                       string   `json:"name"`
				DisplayName                string   `json:"displayName"`
				SupportedGenerationMethods []string `json:"supportedGenerationMethods"`
			} `json:"models"`
		}
		if err := json.Unmarshal(body, &payload); err != nil {
			return nil, apperr.Wrap(apperr.ErrStorageError, "decode list_models response: %v", err)
		}
		out := make([]ModelInfo, 0, len(payload.Models))
		for _, m := range payload.Models {
			id := strings.TrimPrefix(m.Name, "models/")
			name := m.DisplayName
			if name == "" {
				name = id
			}
			out = append(out, ModelInfo{ID: id, Name: name, Capabilities: m.SupportedGenerationMethods})
		}
		return out, nil

	default:
		return nil, apperr.Wrap(apperr.ErrProviderNotSupported, "provider %q", prov)
	}
}
