package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"golang.org/x/exp/slog"

	"payfamily/internal/domain/backup"
)

type BackupRepository struct {
	db  *Storage
	log *slog.Logger
}

var _ backup.Repository = (*BackupRepository)(nil)

func NewBackupRepository(db *Storage, log *slog.Logger) *BackupRepository {
	return &BackupRepository{
		db:  db,
		log: log,
	}
}

func (r *BackupRepository) Put(ctx context.Context, b *backup.Backup) error {
	err := r.db.Pool().QueryRow(ctx,
		`INSERT INTO backups (owner_id, name, envelope, size, checksum, created_at, updated_at)
         VALUES ($1, $2, $3, $4, $5, $6, $6)
         ON CONFLICT (owner_id, name) DO UPDATE
         SET envelope = EXCLUDED.envelope,
             size = EXCLUDED.size,
             checksum = EXCLUDED.checksum,
             updated_at = EXCLUDED.updated_at
         RETURNING created_at, updated_at`,
		b.OwnerID, b.Name, []byte(b.Envelope), b.Size, b.Checksum, b.UpdatedAt).
		Scan(&b.CreatedAt, &b.UpdatedAt)
	if err != nil {
		return fmt.Errorf("upsert backup: %w", err)
	}
	return nil
}

func (r *BackupRepository) Get(ctx context.Context, ownerID, name string) (*backup.Backup, error) {
	b := &backup.Backup{OwnerID: ownerID, Name: name}
	var envelope []byte
	err := r.db.Pool().QueryRow(ctx,
		`SELECT envelope::text, size, checksum, created_at, updated_at
         FROM backups WHERE owner_id = $1 AND name = $2`,
		ownerID, name).
		Scan(&envelope, &b.Size, &b.Checksum, &b.CreatedAt, &b.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, backup.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("select backup: %w", err)
	}
	b.Envelope = envelope
	return b, nil
}

func (r *BackupRepository) List(ctx context.Context, ownerID string) ([]backup.Info, error) {
	rows, err := r.db.Pool().Query(ctx,
		`SELECT name, size, checksum, created_at, updated_at
         FROM backups WHERE owner_id = $1
         ORDER BY updated_at DESC, name`,
		ownerID)
	if err != nil {
		return nil, fmt.Errorf("list backups: %w", err)
	}

	infos, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (backup.Info, error) {
		var i backup.Info
		err := row.Scan(&i.Name, &i.Size, &i.Checksum, &i.CreatedAt, &i.UpdatedAt)
		return i, err
	})
	if err != nil {
		return nil, fmt.Errorf("scan backups: %w", err)
	}
	return infos, nil
}

func (r *BackupRepository) Delete(ctx context.Context, ownerID, name string) error {
	tag, err := r.db.Pool().Exec(ctx,
		`DELETE FROM backups WHERE owner_id = $1 AND name = $2`, ownerID, name)
	if err != nil {
		return fmt.Errorf("delete backup: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return backup.ErrNotFound
	}
	return nil
}
