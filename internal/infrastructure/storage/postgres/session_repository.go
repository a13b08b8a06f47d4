package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"golang.org/x/exp/slog"

	"payfamily/internal/domain/session"
)

type SessionRepository struct {
	db  *Storage
	log *slog.Logger
}

var _ session.Repository = (*SessionRepository)(nil)

func NewSessionRepository(db *Storage, log *slog.Logger) *SessionRepository {
	return &SessionRepository{
		db:  db,
		log: log,
	}
}

func (r *SessionRepository) Create(ctx context.Context, ownerID string, tokenHash string, expiresAt time.Time) error {
	_, err := r.db.Pool().Exec(ctx,
		`INSERT INTO sessions (owner_id, token_hash, expires_at)
         VALUES ($1, decode($2, 'hex'), $3)`,
		ownerID, tokenHash, expiresAt)
	return err
}

func (r *SessionRepository) Validate(ctx context.Context, tokenHash string) (string, error) {
	var ownerID string
	err := r.db.Pool().QueryRow(ctx,
		`SELECT owner_id FROM sessions
         WHERE token_hash = decode($1, 'hex') AND expires_at > NOW()`,
		tokenHash).Scan(&ownerID)
	if errors.Is(err, pgx.ErrNoRows) {
		return "", session.ErrInvalidSession
	}
	if err != nil {
		r.log.Error("failed to validate session", "error", err)
		return "", fmt.Errorf("validate session: %w", err)
	}
	return ownerID, nil
}

func (r *SessionRepository) DeleteExpired(ctx context.Context, now time.Time) (int64, error) {
	tag, err := r.db.Pool().Exec(ctx, `DELETE FROM sessions WHERE expires_at <= $1`, now)
	if err != nil {
		return 0, fmt.Errorf("delete expired sessions: %w", err)
	}
	return tag.RowsAffected(), nil
}
