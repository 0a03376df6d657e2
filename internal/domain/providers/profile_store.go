package providers

import (
	"context"

	"github.com/zatekoja/movequote/internal/domain/entities"
)

// ProfileStore keeps one UserProfile per conversation session.
type ProfileStore interface {
	// Get returns the stored profile and whether the session exists.
	Get(ctx context.Context, sessionID string) (entities.UserProfile, bool, error)

	// Save stores the profile for the session, refreshing its expiry.
	Save(ctx context.Context, sessionID string, profile entities.UserProfile) error

	// Delete drops the session's profile.
	Delete(ctx context.Context, sessionID string) error
}
