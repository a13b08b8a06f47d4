package backup

import "context"

type Repository interface {
	// Put inserts b or replaces the envelope of an existing backup with the
	// same owner and name, keeping its CreatedAt.
	Put(ctx context.Context, b *Backup) error
	Get(ctx context.Context, ownerID, name string) (*Backup, error)
	// List returns the newest backups first.
	List(ctx context.Context, ownerID string) ([]Info, error)
	Delete(ctx context.Context, ownerID, name string) error
}
