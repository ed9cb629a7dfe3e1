package sessions

import (
	"context"
	"time"
)

// Store persists at most one refresh token per user.
type Store interface {
	// Save overwrites any prior token for the user.
	Save(ctx context.Context, userID uint, token string, ttl time.Duration) error
	// Get returns "" when the user has no live token.
	Get(ctx context.Context, userID uint) (string, error)
	// Delete is a no-op when nothing is stored.
	Delete(ctx context.Context, userID uint) error
}
