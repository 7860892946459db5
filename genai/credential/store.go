// Package credential implements CredentialStore (C1): persistence and
// lookup of SavedAuthentication records keyed by (provider, auth_type,
// name), with OAuth refresh-window queries used by the refresh worker (C12).
package credential

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"time"

	"github.com/viant/scy"

	"github.com/viant/agentrt/genai/llm/provider"
	"github.com/viant/agentrt/internal/apperr"
)

// Key identifies a SavedAuthentication record, per §3.1.
type Key struct {
	Provider string
	AuthType provider.AuthType
	Name     string
}

func (k Key) String() string {
	return fmt.Sprintf("%s|%s|%s", k.Provider, k.AuthType, k.Name)
}

// Record is the in-memory shape of a SavedAuthentication row. Credentials
// holds opaque string/number values (access_token, refresh_token, api_key,
// scope, token_type, ...); ExpiresAt is required iff AuthType == oauth.
type Record struct {
	Key
	Credentials map[string]interface{}
	ExpiresAt   *time.Time
	InsertedAt  time.Time
	UpdatedAt   time.Time
}

// hasAny reports whether the credentials map has a non-empty value under any
// of the given keys.
func (r Record) hasAny(keys ...string) bool {
	for _, k := range keys {
		if v, ok := r.Credentials[k]; ok {
			if s, ok := v.(string); !ok || s != "" {
				return true
			}
		}
	}
	return false
}

// Store persists SavedAuthentication records with at-rest encryption via
// viant/scy, grounded on the teacher's ScyRefreshStore
// (agently/internal/auth/tokens/refresh_scy.go): each record round-trips
// through scy.Service.Store/Load as an encrypted file keyed by a SHA-256 hash
// of its composite key, so no plaintext credential ever touches disk.
// An in-memory index tracks which keys exist without decrypting anything, so
// Get can reject an unknown key without touching disk.
type Store struct {
	mu  sync.RWMutex
	dir string
	svc *scy.Service

	index map[Key]struct{}
}

// New opens (creating if absent) a scy-backed credential store rooted at
// dir. Call Load once at startup to populate the in-memory index from disk.
func New(dir string) (*Store, error) {
	if dir == "" {
		return nil, apperr.Wrap(apperr.ErrInvalidOptions, "credential store dir is required")
	}
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return nil, apperr.Wrap(apperr.ErrStorageError, "mkdir %q: %v", dir, err)
	}
	return &Store{dir: dir, svc: scy.New(), index: map[Key]struct{}{}}, nil
}

func (s *Store) pathFor(k Key) string {
	sum := sha256.Sum256([]byte(k.String()))
	return filepath.Join(s.dir, hex.EncodeToString(sum[:])+".cred")
}

func (s *Store) urlFor(k Key) string {
	return "file://" + s.pathFor(k)
}

// CreateNamed implements create_named: it fails with ErrUniquenessViolation
// if the key already exists, and enforces the oauth/api_key ExpiresAt rule
// from §4.1.
func (s *Store) CreateNamed(ctx context.Context, prov string, authType provider.AuthType, name string, creds map[string]interface{}, expiresAt *time.Time) (*Record, error) {
	key := Key{Provider: prov, AuthType: authType, Name: name}

	if err := validateExpiry(authType, expiresAt); err != nil {
		return nil, err
	}
	if authType == provider.AuthOAuth {
		rec := Record{Key: key, Credentials: creds}
		if !rec.hasAny("access_token", "refresh_token") {
			return nil, apperr.Wrap(apperr.ErrInvalidOptions, "oauth credentials require access_token or refresh_token")
		}
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.index[key]; exists {
		return nil, apperr.Wrap(apperr.ErrUniquenessViolation, "credential %s already exists", key)
	}

	now := time.Now()
	rec := &Record{Key: key, Credentials: creds, ExpiresAt: expiresAt, InsertedAt: now, UpdatedAt: now}
	if err := s.persist(ctx, rec); err != nil {
		return nil, err
	}
	s.index[key] = struct{}{}
	return rec, nil
}

func validateExpiry(authType provider.AuthType, expiresAt *time.Time) error {
	switch authType {
	case provider.AuthOAuth:
		if expiresAt == nil {
			return apperr.Wrap(apperr.ErrInvalidOptions, "oauth credentials require expires_at")
		}
	case provider.AuthAPIKey:
		if expiresAt != nil {
			return apperr.Wrap(apperr.ErrInvalidOptions, "api_key credentials must not set expires_at")
		}
	}
	return nil
}

// Get implements get(provider, auth_type, name).
func (s *Store) Get(ctx context.Context, prov string, authType provider.AuthType, name string) (*Record, error) {
	key := Key{Provider: prov, AuthType: authType, Name: name}

	s.mu.RLock()
	_, exists := s.index[key]
	s.mu.RUnlock()
	if !exists {
		return nil, apperr.Wrap(apperr.ErrSessionNotFound, "credential %s not found", key)
	}
	return s.load(ctx, key)
}

// List implements list(): it decrypts and returns every known record. Use
// sparingly — prefer Get for hot paths.
func (s *Store) List(ctx context.Context) ([]*Record, error) {
	s.mu.RLock()
	keys := make([]Key, 0, len(s.index))
	for k := range s.index {
		keys = append(keys, k)
	}
	s.mu.RUnlock()

	sort.Slice(keys, func(i, j int) bool { return keys[i].String() < keys[j].String() })

	out := make([]*Record, 0, len(keys))
	for _, k := range keys {
		rec, err := s.load(ctx, k)
		if err != nil {
			return nil, err
		}
		out = append(out, rec)
	}
	return out, nil
}

// Update implements update(record, patch): patch's non-nil Credentials and
// ExpiresAt replace the stored values; UpdatedAt advances.
func (s *Store) Update(ctx context.Context, key Key, patchCreds map[string]interface{}, patchExpiresAt *time.Time) (*Record, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.index[key]; !exists {
		return nil, apperr.Wrap(apperr.ErrSessionNotFound, "credential %s not found", key)
	}
	rec, err := s.load(ctx, key)
	if err != nil {
		return nil, err
	}
	if patchCreds != nil {
		rec.Credentials = patchCreds
	}
	if patchExpiresAt != nil {
		rec.ExpiresAt = patchExpiresAt
	}
	rec.UpdatedAt = time.Now()
	if err := s.persist(ctx, rec); err != nil {
		return nil, err
	}
	return rec, nil
}

// Delete implements delete(provider, auth_type, name). It is idempotent: a
// missing key is not an error, matching §8's delete_session idempotence law.
func (s *Store) Delete(ctx context.Context, prov string, authType provider.AuthType, name string) error {
	key := Key{Provider: prov, AuthType: authType, Name: name}

	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.index[key]; !exists {
		return nil
	}
	path := s.pathFor(key)
	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		return apperr.Wrap(apperr.ErrStorageError, "delete %q: %v", key, err)
	}
	delete(s.index, key)
	return nil
}

// APIKeyOrAccessToken implements httpclient.CredentialLookup: it resolves a
// stored record to the bare string HTTPClientFactory needs to authenticate a
// request, api_key for AuthAPIKey and access_token for AuthOAuth.
func (s *Store) APIKeyOrAccessToken(ctx context.Context, prov string, authType provider.AuthType, name string) (apiKey, accessToken string, err error) {
	rec, err := s.Get(ctx, prov, authType, name)
	if err != nil {
		return "", "", err
	}
	switch authType {
	case provider.AuthAPIKey:
		apiKey, _ = rec.Credentials["api_key"].(string)
	case provider.AuthOAuth:
		accessToken, _ = rec.Credentials["access_token"].(string)
	}
	return apiKey, accessToken, nil
}

// ListOAuthExpiringWithin implements list_oauth_expiring_within(window): it
// returns every oauth record whose ExpiresAt falls within window from now,
// feeding C12's "no orphan expirations" invariant (§8 property 3).
func (s *Store) ListOAuthExpiringWithin(ctx context.Context, window time.Duration) ([]*Record, error) {
	all, err := s.List(ctx)
	if err != nil {
		return nil, err
	}
	cutoff := time.Now().Add(window)
	var out []*Record
	for _, rec := range all {
		if rec.AuthType != provider.AuthOAuth || rec.ExpiresAt == nil {
			continue
		}
		if rec.ExpiresAt.Before(cutoff) {
			out = append(out, rec)
		}
	}
	return out, nil
}

// Load scans dir for previously persisted records and rebuilds the index.
// Because the on-disk filename is a hash of the composite key, the stored
// payload itself carries Provider/AuthType/Name so Load can recover Key.
func (s *Store) Load(ctx context.Context) error {
	entries, err := os.ReadDir(s.dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return apperr.Wrap(apperr.ErrStorageError, "read dir %q: %v", s.dir, err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	for _, e := range entries {
		if e.IsDir() || filepath.Ext(e.Name()) != ".cred" {
			continue
		}
		res := scy.NewResource(nil, "file://"+filepath.Join(s.dir, e.Name()), "")
		secret, err := s.svc.Load(ctx, res)
		if err != nil {
			continue
		}
		var rec Record
		if err := json.Unmarshal([]byte(secret.String()), &rec); err != nil {
			continue
		}
		s.index[rec.Key] = struct{}{}
	}
	return nil
}

func (s *Store) persist(ctx context.Context, rec *Record) error {
	payload, err := json.Marshal(rec)
	if err != nil {
		return apperr.Wrap(apperr.ErrStorageError, "marshal credential: %v", err)
	}
	res := scy.NewResource(nil, s.urlFor(rec.Key), "")
	secret := scy.NewSecret(payload, res)
	if err := s.svc.Store(ctx, secret); err != nil {
		return apperr.Wrap(apperr.ErrStorageError, "store credential %s: %v", rec.Key, err)
	}
	return nil
}

func (s *Store) load(ctx context.Context, key Key) (*Record, error) {
	res := scy.NewResource(nil, s.urlFor(key), "")
	secret, err := s.svc.Load(ctx, res)
	if err != nil {
		return nil, apperr.Wrap(apperr.ErrStorageError, "load credential %s: %v", key, err)
	}
	var rec Record
	if err := json.Unmarshal([]byte(secret.String()), &rec); err != nil {
		return nil, apperr.Wrap(apperr.ErrStorageError, "unmarshal credential %s: %v", key, err)
	}
	return &rec, nil
}
