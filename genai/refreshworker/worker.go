// Package refreshworker implements TokenRefreshWorker (C12): a periodic
// poller that finds OAuth credentials nearing expiry and refreshes them
// through ProviderRouter. Grounded on the teacher-adjacent cron-based poll
// loop in tasks.Scheduler (other_examples' haasonsaas-nexus), using
// robfig/cron/v3 the same way: one recurring schedule entry driving a single
// poll method, rather than per-credential cron expressions.
package refreshworker

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/viant/agentrt/genai/credential"
	"github.com/viant/agentrt/internal/apperr"
	"github.com/viant/agentrt/internal/obslog"
)

const (
	defaultPollSpec    = "@every 5m"
	defaultWindow      = 10 * time.Minute
	defaultMaxRetries  = 5
	defaultRetryDelay  = time.Minute
)

// Refresher is the subset of ProviderRouter the worker needs.
type Refresher interface {
	RefreshTokens(ctx context.Context, provider, name string) (*credential.Record, error)
}

// Config bounds the worker's polling and retry behavior.
type Config struct {
	// Spec is a robfig/cron schedule expression, e.g. "@every 5m" or a
	// standard 5-field crontab string.
	Spec string
	// Window is how far ahead of expiry a credential is considered due.
	Window time.Duration
	// MaxRetries caps per-credential consecutive refresh failures. Once the
	// cap is reached (or ErrInvalidRefreshToken is returned) the worker skips
	// that credential for the rest of its life; only a successful refresh
	// clears the count.
	MaxRetries int
	// RetryDelay is the minimum spacing between retry attempts for the
	// same credential within one due window.
	RetryDelay time.Duration
}

func (c Config) withDefaults() Config {
	if c.Spec == "" {
		c.Spec = defaultPollSpec
	}
	if c.Window <= 0 {
		c.Window = defaultWindow
	}
	if c.MaxRetries <= 0 {
		c.MaxRetries = defaultMaxRetries
	}
	if c.RetryDelay <= 0 {
		c.RetryDelay = defaultRetryDelay
	}
	return c
}

// Worker polls credential.Store.ListOAuthExpiringWithin on a cron schedule
// and refreshes whatever it finds through Refresher, per §4.12.
type Worker struct {
	cfg    Config
	store  *credential.Store
	router Refresher
	log    *obslog.Logger

	cron *cron.Cron

	mu          sync.Mutex
	retryCount  map[credential.Key]int
	lastAttempt map[credential.Key]time.Time
}

func New(store *credential.Store, router Refresher, log *obslog.Logger, cfg Config) *Worker {
	if log == nil {
		log = obslog.New(nil, nil)
	}
	return &Worker{
		cfg:         cfg.withDefaults(),
		store:       store,
		router:      router,
		log:         log,
		retryCount:  make(map[credential.Key]int),
		lastAttempt: make(map[credential.Key]time.Time),
	}
}

// Start registers the poll tick and runs it until ctx is cancelled.
func (w *Worker) Start(ctx context.Context) error {
	w.cron = cron.New()
	_, err := w.cron.AddFunc(w.cfg.Spec, func() { w.Tick(ctx) })
	if err != nil {
		return apperr.Wrap(apperr.ErrConfigInvalid, "refresh worker: bad schedule %q: %v", w.cfg.Spec, err)
	}
	w.cron.Start()
	go func() {
		<-ctx.Done()
		w.cron.Stop()
	}()
	return nil
}

// Stop halts the cron schedule without waiting for in-flight jobs.
func (w *Worker) Stop() {
	if w.cron != nil {
		w.cron.Stop()
	}
}

// Tick runs one poll-and-refresh pass; exported so callers (including the
// refresh-tokens CLI subcommand) can trigger it outside the cron schedule.
func (w *Worker) Tick(ctx context.Context) {
	due, err := w.store.ListOAuthExpiringWithin(ctx, w.cfg.Window)
	if err != nil {
		w.log.Debug("refresh_worker.list_failed", map[string]interface{}{"error": err.Error()})
		return
	}
	w.log.Debug("refresh_worker.tick", map[string]interface{}{"due": len(due)})
	for _, rec := range due {
		w.refreshOne(ctx, rec)
	}
}

func (w *Worker) refreshOne(ctx context.Context, rec *credential.Record) {
	w.mu.Lock()
	attempts := w.retryCount[rec.Key]
	sinceLast := time.Since(w.lastAttempt[rec.Key])
	w.mu.Unlock()
	if attempts >= w.cfg.MaxRetries {
		w.log.Debug("refresh_worker.retries_exhausted", map[string]interface{}{"credential": rec.Key.String()})
		return
	}
	if attempts > 0 && sinceLast < w.cfg.RetryDelay {
		return
	}

	w.mu.Lock()
	w.lastAttempt[rec.Key] = time.Now()
	w.mu.Unlock()

	_, err := w.router.RefreshTokens(ctx, rec.Provider, rec.Name)
	w.mu.Lock()
	defer w.mu.Unlock()
	if err != nil {
		w.retryCount[rec.Key]++
		if errors.Is(err, apperr.ErrInvalidRefreshToken) {
			w.retryCount[rec.Key] = w.cfg.MaxRetries
		}
		w.log.Debug("refresh_worker.refresh_failed", map[string]interface{}{
			"credential": rec.Key.String(), "error": err.Error(), "attempt": w.retryCount[rec.Key],
		})
		return
	}
	delete(w.retryCount, rec.Key)
	w.log.Debug("refresh_worker.refreshed", map[string]interface{}{"credential": rec.Key.String()})
}
