package migration

import (
	"errors"
	"fmt"
	"io/fs"

	"github.com/golang-migrate/migrate/v4"
	// Blank imports register the database drivers and the file source
	_ "github.com/golang-migrate/migrate/v4/database/postgres"
	_ "github.com/golang-migrate/migrate/v4/database/sqlite3"
	_ "github.com/golang-migrate/migrate/v4/source/file"
	"github.com/golang-migrate/migrate/v4/source/iofs"
)

// Migrator is the subset of migrate.Migrate the runner needs.
type Migrator interface {
	Up() error
	Close() (error, error)
}

// MigrationEngine builds a Migrator; tests swap it for a mock.
type MigrationEngine func() (Migrator, error)

type Migration struct {
	engine MigrationEngine
}

func NewMigration(engine MigrationEngine) *Migration {
	return &Migration{engine: engine}
}

// FileEngine reads migrations from a directory on disk.
func FileEngine(dir, databaseURL string) MigrationEngine {
	return func() (Migrator, error) {
		return migrate.New("file://"+dir, databaseURL)
	}
}

// EmbedEngine reads migrations from dir inside fsys.
func EmbedEngine(fsys fs.FS, dir, databaseURL string) MigrationEngine {
	return func() (Migrator, error) {
		src, err := iofs.New(fsys, dir)
		if err != nil {
			return nil, fmt.Errorf("open migration source %q: %w", dir, err)
		}
		return migrate.NewWithSourceInstance("iofs", src, databaseURL)
	}
}

// Up applies all pending migrations. A schema that is already current is not an error.
func (mg *Migration) Up() (err error) {
	m, err := mg.engine()
	if err != nil {
		return err
	}
	defer func() {
		serr, dberr := m.Close()
		if serr != nil {
			err = errors.Join(err, fmt.Errorf("migration source error: %w", serr))
		}
		if dberr != nil {
			err = errors.Join(err, fmt.Errorf("migration database error: %w", dberr))
		}
	}()
	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("migration up error: %w", err)
	}
	return nil
}
