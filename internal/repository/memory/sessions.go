package memory

import (
	"context"
	"time"

	"github.com/patrickmn/go-cache"
)

// SessionStore keeps revoked token ids in a go-cache with per-entry expiry.
type SessionStore struct {
	cache *cache.Cache
}

func NewSessionStore(cleanupInterval time.Duration) *SessionStore {
	return &SessionStore{
		cache: cache.New(cache.NoExpiration, cleanupInterval),
	}
}

func (s *SessionStore) Revoke(ctx context.Context, tokenID string, until time.Time) error {
	ttl := time.Until(until)
	if ttl <= 0 {
		return nil
	}
	s.cache.Set(tokenID, struct{}{}, ttl)
	return nil
}

func (s *SessionStore) IsRevoked(ctx context.Context, tokenID string) (bool, error) {
	_, found := s.cache.Get(tokenID)
	return found, nil
}
