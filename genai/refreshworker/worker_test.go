package refreshworker

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/viant/agentrt/genai/credential"
	"github.com/viant/agentrt/genai/llm/provider"
	"github.com/viant/agentrt/internal/apperr"
)

type fakeRefresher struct {
	calls int
	err   error
}

func (f *fakeRefresher) RefreshTokens(ctx context.Context, prov, name string) (*credential.Record, error) {
	f.calls++
	return nil, f.err
}

func newStoreWithExpiringOAuth(t *testing.T) *credential.Store {
	t.Helper()
	store, err := credential.New(t.TempDir())
	require.NoError(t, err)
	expiresAt := time.Now().Add(2 * time.Minute)
	_, err = store.CreateNamed(context.Background(), provider.ProviderOpenAI, provider.AuthOAuth, "default",
		map[string]interface{}{"access_token": "tok", "refresh_token": "rtok"}, &expiresAt)
	require.NoError(t, err)
	return store
}

func TestWorker_Tick_RefreshesDueCredential(t *testing.T) {
	store := newStoreWithExpiringOAuth(t)
	refresher := &fakeRefresher{}
	w := New(store, refresher, nil, Config{Window: 10 * time.Minute})

	w.Tick(context.Background())
	assert.Equal(t, 1, refresher.calls)
}

func TestWorker_Tick_SkipsWhenOutsideWindow(t *testing.T) {
	store := newStoreWithExpiringOAuth(t)
	refresher := &fakeRefresher{}
	w := New(store, refresher, nil, Config{Window: time.Second})

	w.Tick(context.Background())
	assert.Equal(t, 0, refresher.calls)
}

func TestWorker_RefreshOne_InvalidRefreshTokenStopsRetrying(t *testing.T) {
	store := newStoreWithExpiringOAuth(t)
	refresher := &fakeRefresher{err: apperr.ErrInvalidRefreshToken}
	w := New(store, refresher, nil, Config{Window: 10 * time.Minute, MaxRetries: 5})

	w.Tick(context.Background())
	assert.Equal(t, 1, refresher.calls)

	w.Tick(context.Background())
	assert.Equal(t, 1, refresher.calls, "no further attempts once ErrInvalidRefreshToken exhausts retries")
}

func TestWorker_RefreshOne_RetryDelayThrottlesRetries(t *testing.T) {
	store := newStoreWithExpiringOAuth(t)
	refresher := &fakeRefresher{err: apperr.ErrNetwork}
	w := New(store, refresher, nil, Config{Window: 10 * time.Minute, MaxRetries: 5, RetryDelay: time.Hour})

	w.Tick(context.Background())
	assert.Equal(t, 1, refresher.calls)

	w.Tick(context.Background())
	assert.Equal(t, 1, refresher.calls, "second attempt within RetryDelay is skipped")
}
