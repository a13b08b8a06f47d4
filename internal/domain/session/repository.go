package session

import (
	"context"
	"time"
)

// Repository returns ErrInvalidSession from Validate for unknown or expired
// hashes.
type Repository interface {
	Create(ctx context.Context, ownerID string, tokenHash string, expiresAt time.Time) error
	Validate(ctx context.Context, tokenHash string) (string, error)
	DeleteExpired(ctx context.Context, now time.Time) (int64, error)
}
