package auth

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/Sternrassler/registry-dashboard/pkg/logging"
	"github.com/rs/zerolog"
)

// DefaultTokenTTL bounds how long a fetched token is reused when the
// upstream does not reject it first.
const DefaultTokenTTL = 30 * time.Minute

// Source hands out a token fetched once and reused until it expires or a
// request using it is rejected.
type Source struct {
	fetcher Fetcher
	store   Store
	ttl     time.Duration
	logger  zerolog.Logger

	// mu serializes handshakes so concurrent dashboard requests share one.
	mu sync.Mutex
}

// NewSource creates a Source. A nil store means a fresh MemoryStore; ttl <= 0
// means DefaultTokenTTL.
func NewSource(fetcher Fetcher, store Store, ttl time.Duration) *Source {
	if fetcher == nil {
		panic("token fetcher cannot be nil")
	}
	if store == nil {
		store = NewMemoryStore()
	}
	if ttl <= 0 {
		ttl = DefaultTokenTTL
	}
	return &Source{
		fetcher: fetcher,
		store:   store,
		ttl:     ttl,
		logger:  logging.NewLogger(logging.ComponentAuth),
	}
}

// Token returns the stored token, performing the handshake when none is
// stored. Store read errors fall back to a handshake.
func (s *Source) Token(ctx context.Context) (Token, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	token, err := s.store.Get(ctx)
	if err == nil {
		return token, nil
	}
	if !errors.Is(err, ErrNoToken) {
		s.logger.Warn().Err(err).Msg("Token store get error")
	}

	token, err = s.fetcher.Authenticate(ctx)
	if err != nil {
		return "", err
	}

	if err := s.store.Set(ctx, token, s.ttl); err != nil {
		s.logger.Warn().Err(err).Msg("Failed to store token")
	}
	return token, nil
}

// Credential implements Provider. The returned credential invalidates this
// source when the upstream rejects it.
func (s *Source) Credential(ctx context.Context) (Credential, error) {
	token, err := s.Token(ctx)
	if err != nil {
		return nil, err
	}
	return &sourceCredential{token: token, source: s}, nil
}

// Invalidate drops the stored token if it is still the rejected one.
func (s *Source) Invalidate(ctx context.Context, rejected Token) {
	s.mu.Lock()
	defer s.mu.Unlock()

	current, err := s.store.Get(ctx)
	if err != nil || current != rejected {
		return
	}
	if err := s.store.Delete(ctx); err != nil {
		s.logger.Warn().Err(err).Msg("Failed to drop rejected token")
		return
	}
	s.logger.Info().Msg("Dropped rejected token")
}

type sourceCredential struct {
	token  Token
	source *Source
}

func (c *sourceCredential) Authorization() string {
	return c.token.Authorization()
}

func (c *sourceCredential) Invalidate(ctx context.Context) {
	c.source.Invalidate(ctx, c.token)
}

var (
	_ Provider    = (*Source)(nil)
	_ Provider    = Token("")
	_ Invalidator = (*sourceCredential)(nil)
)
