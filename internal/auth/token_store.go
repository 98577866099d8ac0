package auth

import (
	"context"
	"sync"
	"time"

	"github.com/spec-kit/support-desk/internal/cache"
)

const revokedTokenKeyPrefix = "revoked:access_token:"

// RevocationStore tracks access tokens that were logged out before expiry.
type RevocationStore interface {
	Revoke(ctx context.Context, tokenID string, ttl time.Duration)
	IsRevoked(ctx context.Context, tokenID string) bool
}

// TokenStore keeps revoked token ids in Redis until the token would have
// expired anyway. Without a Redis connection it keeps them in process.
type TokenStore struct {
	cache *cache.Client
	now   func() time.Time

	mu    sync.Mutex
	local map[string]time.Time
}

// Ensure TokenStore implements RevocationStore
var _ RevocationStore = (*TokenStore)(nil)

// NewTokenStore creates a new token store. c may be nil.
func NewTokenStore(c *cache.Client) *TokenStore {
	return &TokenStore{cache: c, now: time.Now, local: map[string]time.Time{}}
}

// Revoke adds the token to the denylist for ttl.
func (s *TokenStore) Revoke(ctx context.Context, tokenID string, ttl time.Duration) {
	if tokenID == "" || ttl <= 0 {
		return
	}
	if s.cache != nil {
		s.cache.Set(ctx, revokedTokenKeyPrefix+tokenID, []byte("1"), ttl)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	now := s.now()
	for id, until := range s.local {
		if !now.Before(until) {
			delete(s.local, id)
		}
	}
	s.local[tokenID] = now.Add(ttl)
}

// IsRevoked checks the local denylist first, then Redis. Redis errors read
// as "not revoked".
func (s *TokenStore) IsRevoked(ctx context.Context, tokenID string) bool {
	if tokenID == "" {
		return false
	}

	s.mu.Lock()
	until, ok := s.local[tokenID]
	s.mu.Unlock()
	if ok && s.now().Before(until) {
		return true
	}

	if s.cache == nil {
		return false
	}
	return s.cache.Exists(ctx, revokedTokenKeyPrefix+tokenID)
}
