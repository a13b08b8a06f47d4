// Package storage is the local SQLite document store. It persists rows that
// already carry an encrypted envelope; only the document type and the
// transaction date are kept in the clear for indexing.
package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"path/filepath"
	"time"

	"github.com/mattn/go-sqlite3"

	"payfamily/internal/infrastructure/migration"
	"payfamily/migrations"
)

const timeLayout = time.RFC3339Nano

// Row is one stored document.
type Row struct {
	ID              string
	Type            string
	TransactionDate string
	Envelope        string
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

type Store struct {
	db   *sql.DB
	path string
}

// Open opens (or creates) the database file at path. Call Init before use.
func Open(path string) (*Store, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, fmt.Errorf("%w: resolve %q: %v", ErrStorageUnavailable, path, err)
	}

	db, err := sql.Open("sqlite3", abs+"?_foreign_keys=on&_journal_mode=WAL&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrStorageUnavailable, err)
	}

	return &Store{db: db, path: abs}, nil
}

// New wraps an existing connection. The schema is assumed to exist.
func New(db *sql.DB) *Store {
	return &Store{db: db}
}

// Init checks the connection and applies pending schema migrations.
// It is safe to call repeatedly.
func (s *Store) Init(ctx context.Context) error {
	if err := s.db.PingContext(ctx); err != nil {
		return fmt.Errorf("%w: %v", ErrStorageUnavailable, err)
	}
	if s.path == "" {
		return nil
	}

	// migrate closes the connection it is given, so it gets its own
	engine := migration.EmbedEngine(migrations.FS, migrations.SQLiteDir, "sqlite3://"+s.path)
	if err := migration.NewMigration(engine).Up(); err != nil {
		return fmt.Errorf("%w: %v", ErrStorageUnavailable, err)
	}

	return nil
}

func (s *Store) Add(ctx context.Context, row Row) (string, error) {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO documents (id, type, transaction_date, envelope, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?)
	`, row.ID, row.Type, row.TransactionDate, row.Envelope,
		row.CreatedAt.UTC().Format(timeLayout), row.UpdatedAt.UTC().Format(timeLayout))
	if err != nil {
		if isDuplicate(err) {
			return "", fmt.Errorf("%w: %s", ErrDuplicateID, row.ID)
		}
		return "", fmt.Errorf("insert document: %w", err)
	}

	return row.ID, nil
}

func (s *Store) Get(ctx context.Context, id string) (*Row, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT id, type, transaction_date, envelope, created_at, updated_at
		FROM documents
		WHERE id = ?
	`, id)

	r, err := scanRow(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	if err != nil {
		return nil, fmt.Errorf("get document: %w", err)
	}

	return r, nil
}

// GetAll returns every row in no particular order.
func (s *Store) GetAll(ctx context.Context) ([]*Row, error) {
	return s.query(ctx, `
		SELECT id, type, transaction_date, envelope, created_at, updated_at
		FROM documents
	`)
}

func (s *Store) ListByType(ctx context.Context, docType string) ([]*Row, error) {
	return s.query(ctx, `
		SELECT id, type, transaction_date, envelope, created_at, updated_at
		FROM documents
		WHERE type = ?
	`, docType)
}

// ListByDateRange returns rows whose transaction date falls in [from, to].
// An empty bound is open.
func (s *Store) ListByDateRange(ctx context.Context, from, to string) ([]*Row, error) {
	query := `
		SELECT id, type, transaction_date, envelope, created_at, updated_at
		FROM documents
		WHERE 1=1`
	args := []any{}

	if from != "" {
		query += " AND transaction_date >= ?"
		args = append(args, from)
	}
	if to != "" {
		query += " AND transaction_date <= ?"
		args = append(args, to)
	}

	return s.query(ctx, query, args...)
}

func (s *Store) Count(ctx context.Context) (int, error) {
	var count int
	if err := s.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM documents").Scan(&count); err != nil {
		return 0, fmt.Errorf("count documents: %w", err)
	}
	return count, nil
}

// Update replaces the stored row. created_at is left untouched.
func (s *Store) Update(ctx context.Context, row Row) error {
	return updateRow(ctx, s.db, row)
}

// UpdateMany replaces several rows in one transaction. beforeCommit, when
// set, runs after all updates and aborts the transaction if it fails.
func (s *Store) UpdateMany(ctx context.Context, rows []Row, beforeCommit func() error) (err error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	for _, row := range rows {
		if err = updateRow(ctx, tx, row); err != nil {
			return err
		}
	}

	if beforeCommit != nil {
		if err = beforeCommit(); err != nil {
			return err
		}
	}

	if err = tx.Commit(); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}

	return nil
}

// Delete removes a row. Deleting an absent id is not an error.
func (s *Store) Delete(ctx context.Context, id string) error {
	if _, err := s.db.ExecContext(ctx, "DELETE FROM documents WHERE id = ?", id); err != nil {
		return fmt.Errorf("delete document: %w", err)
	}
	return nil
}

func (s *Store) Close() error {
	return s.db.Close()
}

type execer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

func updateRow(ctx context.Context, db execer, row Row) error {
	res, err := db.ExecContext(ctx, `
		UPDATE documents
		SET type = ?, transaction_date = ?, envelope = ?, updated_at = ?
		WHERE id = ?
	`, row.Type, row.TransactionDate, row.Envelope, row.UpdatedAt.UTC().Format(timeLayout), row.ID)
	if err != nil {
		return fmt.Errorf("update document: %w", err)
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("update document: %w", err)
	}
	if affected == 0 {
		return fmt.Errorf("%w: %s", ErrNotFound, row.ID)
	}

	return nil
}

func (s *Store) query(ctx context.Context, query string, args ...any) ([]*Row, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query documents: %w", err)
	}
	defer rows.Close()

	var result []*Row
	for rows.Next() {
		r, err := scanRow(rows)
		if err != nil {
			return nil, fmt.Errorf("scan document: %w", err)
		}
		result = append(result, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate documents: %w", err)
	}

	return result, nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanRow(sc scanner) (*Row, error) {
	var r Row
	var createdAt, updatedAt string

	if err := sc.Scan(&r.ID, &r.Type, &r.TransactionDate, &r.Envelope, &createdAt, &updatedAt); err != nil {
		return nil, err
	}

	var err error
	if r.CreatedAt, err = time.Parse(timeLayout, createdAt); err != nil {
		return nil, fmt.Errorf("parse created_at: %w", err)
	}
	if r.UpdatedAt, err = time.Parse(timeLayout, updatedAt); err != nil {
		return nil, fmt.Errorf("parse updated_at: %w", err)
	}

	return &r, nil
}

func isDuplicate(err error) bool {
	var sqliteErr sqlite3.Error
	if !errors.As(err, &sqliteErr) {
		return false
	}
	return sqliteErr.ExtendedCode == sqlite3.ErrConstraintPrimaryKey ||
		sqliteErr.ExtendedCode == sqlite3.ErrConstraintUnique
}
