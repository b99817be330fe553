// Package session owns the client's belief about who is logged in: the
// bearer token, the identity decoded from it, and the state machine that
// moves between Anonymous and Authenticated.
package session

import (
	"context"
	"sync"
	"time"

	"github.com/boddenberg/money-manager-bfa-go/internal/domain"
	"github.com/boddenberg/money-manager-bfa-go/internal/port"

	"go.uber.org/zap"
)

const persistTimeout = 5 * time.Second

// Option configures a TokenStore.
type Option func(*TokenStore)

// WithClock overrides the time source used for expiry checks.
func WithClock(now func() time.Time) Option {
	return func(s *TokenStore) { s.now = now }
}

// TokenStore holds the current bearer token. It never returns errors:
// a missing, malformed or expired token simply decodes to "no session".
type TokenStore struct {
	mu        sync.RWMutex
	token     string
	persister port.TokenPersister
	now       func() time.Time
	logger    *zap.Logger
}

// NewTokenStore creates a token store backed by persister. A nil persister
// keeps the token in memory only.
func NewTokenStore(persister port.TokenPersister, logger *zap.Logger, opts ...Option) *TokenStore {
	s := &TokenStore{
		persister: persister,
		now:       time.Now,
		logger:    logger,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Restore loads a previously persisted token. A stored token that no longer
// decodes is removed from storage.
func (s *TokenStore) Restore(ctx context.Context) {
	if s.persister == nil {
		return
	}

	token, err := s.persister.Load(ctx)
	if err != nil {
		s.logger.Warn("token store: failed to load persisted token", zap.Error(err))
		return
	}
	if token == "" {
		return
	}

	if _, ok := DecodeClaims(token, s.now()); !ok {
		s.logger.Info("token store: discarding persisted token that is expired or malformed")
		if err := s.persister.Clear(ctx); err != nil {
			s.logger.Warn("token store: failed to clear persisted token", zap.Error(err))
		}
		return
	}

	s.mu.Lock()
	s.token = token
	s.mu.Unlock()
	s.logger.Debug("token store: session restored")
}

// SetToken installs token and persists it.
func (s *TokenStore) SetToken(token string) {
	s.mu.Lock()
	s.token = token
	s.mu.Unlock()

	if s.persister == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), persistTimeout)
	defer cancel()
	if err := s.persister.Save(ctx, token); err != nil {
		s.logger.Warn("token store: failed to persist token", zap.Error(err))
	}
}

// ClearToken drops the token from memory and durable storage.
func (s *TokenStore) ClearToken() {
	s.mu.Lock()
	s.token = ""
	s.mu.Unlock()

	if s.persister == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), persistTimeout)
	defer cancel()
	if err := s.persister.Clear(ctx); err != nil {
		s.logger.Warn("token store: failed to clear persisted token", zap.Error(err))
	}
}

// Claims decodes the current token. It reports false when there is no
// token or the token is malformed or expired.
func (s *TokenStore) Claims() (domain.Claims, bool) {
	s.mu.RLock()
	token := s.token
	s.mu.RUnlock()
	return DecodeClaims(token, s.now())
}

// Token returns the raw token only while it still decodes.
func (s *TokenStore) Token() (string, bool) {
	s.mu.RLock()
	token := s.token
	s.mu.RUnlock()

	if _, ok := DecodeClaims(token, s.now()); !ok {
		return "", false
	}
	return token, true
}

// held reports whether any token string is installed, valid or not.
func (s *TokenStore) held() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.token != ""
}
