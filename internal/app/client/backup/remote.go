// Package backup pushes encrypted snapshots of the document store to a
// remote and restores them. Remotes only ever see envelopes.
package backup

import (
	"context"
	"errors"
	"time"

	"payfamily/internal/app/client/crypto"
)

var (
	ErrNotFound     = errors.New("backup not found")
	ErrUnavailable  = errors.New("backup remote unavailable")
	ErrUnauthorized = errors.New("backup remote rejected credentials")
	ErrChecksum     = errors.New("backup checksum mismatch")
)

type Object struct {
	Name      string    `json:"name"`
	Size      int64     `json:"size"`
	UpdatedAt time.Time `json:"updatedAt"`
}

type Remote interface {
	Ping(ctx context.Context) error
	Put(ctx context.Context, name string, env *crypto.Envelope) error
	Get(ctx context.Context, name string) (*crypto.Envelope, error)
	List(ctx context.Context) ([]Object, error)
	Delete(ctx context.Context, name string) error
}
