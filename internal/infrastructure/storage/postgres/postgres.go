package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"payfamily/internal/app/server/config"
	"payfamily/internal/infrastructure/migration"
	"payfamily/migrations"
)

const uniqueViolation = "23505"

type Storage struct {
	pool *pgxpool.Pool
}

// New applies pending migrations and opens a connection pool.
func New(ctx context.Context, cfg *config.Config) (*Storage, error) {
	if err := migration.NewMigration(engineFor(cfg)).Up(); err != nil {
		return nil, fmt.Errorf("migration error: %w", err)
	}

	pool, err := pgxpool.New(ctx, cfg.DB.DatabaseURI)
	if err != nil {
		return nil, fmt.Errorf("create pool: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	return &Storage{pool: pool}, nil
}

func engineFor(cfg *config.Config) migration.MigrationEngine {
	if cfg.DB.Migrations != "" {
		return migration.FileEngine(cfg.DB.Migrations, cfg.DB.DatabaseURI)
	}
	return migration.EmbedEngine(migrations.FS, migrations.PostgresDir, cfg.DB.DatabaseURI)
}

func (s *Storage) Close() error {
	s.pool.Close()
	return nil
}

func (s *Storage) Pool() *pgxpool.Pool {
	return s.pool
}

func (s *Storage) Ping(ctx context.Context) error {
	return s.pool.Ping(ctx)
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == uniqueViolation
}
