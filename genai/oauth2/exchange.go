// Package oauth2 provides the PKCE code exchange and refresh-token plumbing
// shared by ProviderRouter (C9, create_session/refresh_tokens) and
// TokenRefreshWorker (C12), grounded on the teacher's
// internal/genai/provider/openai/chatgptauth.Manager token-endpoint calls and
// built on top of golang.org/x/oauth2's Token/Config shapes.
package oauth2

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"golang.org/x/oauth2"

	"github.com/viant/agentrt/internal/apperr"
)

// TokenResult is the normalized shape of a provider token endpoint's
// response, per §4.12 ("200 -> parse {access_token, refresh_token?,
// expires_in, scope?, token_type?}").
type TokenResult struct {
	AccessToken  string
	RefreshToken string
	ExpiresIn    int
	Scope        string
	TokenType    string
}

// Expiry returns the absolute expiry time for this result, measured from
// now, defaulting to 1 hour when the provider omits expires_in.
func (r TokenResult) Expiry(now time.Time) time.Time {
	if r.ExpiresIn <= 0 {
		return now.Add(time.Hour)
	}
	return now.Add(time.Duration(r.ExpiresIn) * time.Second)
}

// ToOAuth2Token adapts a TokenResult to the stdlib oauth2.Token shape used
// elsewhere in the codebase (e.g. scyauth.Token embeds one).
func (r TokenResult) ToOAuth2Token(now time.Time) oauth2.Token {
	return oauth2.Token{
		AccessToken:  r.AccessToken,
		RefreshToken: r.RefreshToken,
		TokenType:    r.TokenType,
		Expiry:       r.Expiry(now),
	}
}

// ExchangeParams configures a single token-endpoint POST.
type ExchangeParams struct {
	TokenURL     string
	ClientID     string
	ClientSecret string // optional, some providers are public clients
	RedirectURI  string
	CodeVerifier string
	HTTPClient   *http.Client
}

// ExchangeCode implements the authorization_code + PKCE leg of
// create_session(oauth): it POSTs grant_type=authorization_code with the
// caller-supplied code_verifier, per §4.9.
func ExchangeCode(ctx context.Context, p ExchangeParams, code string) (TokenResult, error) {
	code = strings.TrimSpace(code)
	if code == "" || p.CodeVerifier == "" || p.RedirectURI == "" {
		return TokenResult{}, apperr.Wrap(apperr.ErrInvalidOptions, "oauth exchange requires code, code_verifier and redirect_uri")
	}
	values := url.Values{}
	values.Set("grant_type", "authorization_code")
	values.Set("code", code)
	values.Set("redirect_uri", p.RedirectURI)
	values.Set("client_id", p.ClientID)
	values.Set("code_verifier", p.CodeVerifier)
	if p.ClientSecret != "" {
		values.Set("client_secret", p.ClientSecret)
	}
	return postForm(ctx, p.TokenURL, values, httpClientOrDefault(p.HTTPClient))
}

// RefreshParams configures a refresh_token grant POST.
type RefreshParams struct {
	TokenURL     string
	ClientID     string
	ClientSecret string
	RefreshToken string
	HTTPClient   *http.Client
}

// Refresh implements the refresh_token leg shared by C9.refresh_tokens and
// C12's execution step: POST grant_type=refresh_token; a 401/invalid_grant
// response is surfaced as ErrInvalidRefreshToken so callers know not to
// retry, per §4.12.
func Refresh(ctx context.Context, p RefreshParams) (TokenResult, error) {
	if p.RefreshToken == "" {
		return TokenResult{}, apperr.Wrap(apperr.ErrInvalidOptions, "refresh requires a refresh_token")
	}
	values := url.Values{}
	values.Set("grant_type", "refresh_token")
	values.Set("refresh_token", p.RefreshToken)
	values.Set("client_id", p.ClientID)
	if p.ClientSecret != "" {
		values.Set("client_secret", p.ClientSecret)
	}
	return postForm(ctx, p.TokenURL, values, httpClientOrDefault(p.HTTPClient))
}

func httpClientOrDefault(c *http.Client) *http.Client {
	if c != nil {
		return c
	}
	return http.DefaultClient
}

type tokenResponse struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
	ExpiresIn    int    `json:"expires_in"`
	Scope        string `json:"scope"`
	TokenType    string `json:"token_type"`
	Error        string `json:"error"`
}

func postForm(ctx context.Context, tokenURL string, values url.Values, client *http.Client) (TokenResult, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, tokenURL, strings.NewReader(values.Encode()))
	if err != nil {
		return TokenResult{}, fmt.Errorf("oauth2: build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set("Accept", "application/json")

	resp, err := client.Do(req)
	if err != nil {
		return TokenResult{}, apperr.Wrap(apperr.ErrNetwork, "oauth2: token request: %v", err)
	}
	defer resp.Body.Close()

	body, _ := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if resp.StatusCode == http.StatusUnauthorized || strings.Contains(string(body), "invalid_grant") {
		return TokenResult{}, apperr.Wrap(apperr.ErrInvalidRefreshToken, "oauth2: token endpoint rejected grant (status %d)", resp.StatusCode)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return TokenResult{}, &apperr.HTTPError{Status: resp.StatusCode, Body: string(body)}
	}

	var tr tokenResponse
	if err := json.Unmarshal(body, &tr); err != nil {
		return TokenResult{}, apperr.Wrap(apperr.ErrRefreshFailed, "oauth2: decode token response: %v", err)
	}
	if tr.Error != "" {
		return TokenResult{}, apperr.Wrap(apperr.ErrRefreshFailed, "oauth2: token endpoint error %q", tr.Error)
	}
	return TokenResult{
		AccessToken:  tr.AccessToken,
		RefreshToken: tr.RefreshToken,
		ExpiresIn:    tr.ExpiresIn,
		Scope:        tr.Scope,
		TokenType:    tr.TokenType,
	}, nil
}
