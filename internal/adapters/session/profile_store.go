package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/zatekoja/movequote/internal/domain/entities"
	"github.com/zatekoja/movequote/internal/domain/providers"
	"github.com/zatekoja/movequote/internal/infrastructure/observability"
)

// CacheProfileStore keeps session profiles as JSON in a CacheProvider. Backed
// by Redis, profiles survive restarts and are shared across replicas; backed
// by the memory adapter they live for the process.
type CacheProfileStore struct {
	cache providers.CacheProvider
	ttl   time.Duration
}

var _ providers.ProfileStore = (*CacheProfileStore)(nil)

// NewCacheProfileStore creates a profile store. A non-positive ttl keeps
// profiles until the session is ended.
func NewCacheProfileStore(cache providers.CacheProvider, ttl time.Duration) *CacheProfileStore {
	return &CacheProfileStore{cache: cache, ttl: ttl}
}

func sessionKey(sessionID string) string {
	return fmt.Sprintf("session:%s:profile", sessionID)
}

// Get returns the stored profile and whether the session exists.
func (s *CacheProfileStore) Get(ctx context.Context, sessionID string) (entities.UserProfile, bool, error) {
	data, err := s.cache.Get(ctx, sessionKey(sessionID))
	if errors.Is(err, providers.ErrCacheMiss) {
		return entities.UserProfile{}, false, nil
	}
	if err != nil {
		return entities.UserProfile{}, false, fmt.Errorf("failed to load session profile: %w", err)
	}

	var profile entities.UserProfile
	if err := json.Unmarshal(data, &profile); err != nil {
		// A corrupt entry is treated as a fresh session.
		observability.LoggerFromContext(observability.WithSessionID(ctx, sessionID)).Warn().
			Err(err).
			Msg("Discarding unreadable session profile")
		return entities.UserProfile{}, false, nil
	}
	if profile.SpecialNeeds == nil {
		profile.SpecialNeeds = make(map[entities.SpecialNeed]bool)
	}
	return profile, true, nil
}

// Save stores the profile and refreshes the session expiry.
func (s *CacheProfileStore) Save(ctx context.Context, sessionID string, profile entities.UserProfile) error {
	data, err := json.Marshal(profile)
	if err != nil {
		return fmt.Errorf("failed to encode session profile: %w", err)
	}
	if err := s.cache.Set(ctx, sessionKey(sessionID), data, int(s.ttl/time.Second)); err != nil {
		return fmt.Errorf("failed to save session profile: %w", err)
	}
	return nil
}

// Delete drops the session's profile.
func (s *CacheProfileStore) Delete(ctx context.Context, sessionID string) error {
	if err := s.cache.Delete(ctx, sessionKey(sessionID)); err != nil {
		return fmt.Errorf("failed to delete session profile: %w", err)
	}
	return nil
}
