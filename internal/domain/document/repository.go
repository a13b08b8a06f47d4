package document

import (
	"context"

	"payfamily/internal/app/client/crypto"
	"payfamily/internal/app/client/storage"
)

// Repository stores encrypted rows. storage.Store implements it.
type Repository interface {
	Add(ctx context.Context, row storage.Row) (string, error)
	Get(ctx context.Context, id string) (*storage.Row, error)
	GetAll(ctx context.Context) ([]*storage.Row, error)
	ListByType(ctx context.Context, docType string) ([]*storage.Row, error)
	ListByDateRange(ctx context.Context, from, to string) ([]*storage.Row, error)
	Count(ctx context.Context) (int, error)
	Update(ctx context.Context, row storage.Row) error
	UpdateMany(ctx context.Context, rows []storage.Row, beforeCommit func() error) error
	Delete(ctx context.Context, id string) error
}

// Keys provides the session key. crypto.Manager implements it.
type Keys interface {
	CurrentKey() (*crypto.SessionKey, error)
	BeginChange(oldSecret, newSecret []byte) (*crypto.KeyChange, error)
	StageChange(c *crypto.KeyChange) error
	CommitChange(c *crypto.KeyChange) error
}
