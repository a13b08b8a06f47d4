package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"golang.org/x/exp/slog"

	"payfamily/internal/domain/owner"
)

type OwnerRepository struct {
	db  *Storage
	log *slog.Logger
}

var _ owner.Repository = (*OwnerRepository)(nil)

func NewOwnerRepository(db *Storage, log *slog.Logger) *OwnerRepository {
	return &OwnerRepository{
		db:  db,
		log: log,
	}
}

func (r *OwnerRepository) Create(ctx context.Context, id, keyHash string) error {
	_, err := r.db.Pool().Exec(ctx,
		`INSERT INTO owners (id, key_hash) VALUES ($1, $2)`, id, keyHash)
	if isUniqueViolation(err) {
		return owner.ErrExists
	}
	if err != nil {
		return fmt.Errorf("insert owner: %w", err)
	}
	return nil
}

func (r *OwnerRepository) Find(ctx context.Context, id string) (owner.Owner, error) {
	var o owner.Owner
	err := r.db.Pool().QueryRow(ctx,
		`SELECT id, key_hash, created_at FROM owners WHERE id = $1`, id).
		Scan(&o.ID, &o.KeyHash, &o.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return o, owner.ErrNotFound
	}
	if err != nil {
		return o, fmt.Errorf("select owner: %w", err)
	}
	return o, nil
}
