package owner

import "context"

// Repository returns ErrNotFound from Find and ErrExists from Create.
type Repository interface {
	Create(ctx context.Context, id, keyHash string) error
	Find(ctx context.Context, id string) (Owner, error)
}
