package migration

import (
	"errors"
	"testing"
	"testing/fstest"

	"github.com/golang-migrate/migrate/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type MockMigrator struct {
	mock.Mock
}

func (m *MockMigrator) Up() error {
	args := m.Called()
	return args.Error(0)
}

func (m *MockMigrator) Close() (error, error) {
	args := m.Called()
	return args.Error(0), args.Error(1)
}

func engineFor(m Migrator) MigrationEngine {
	return func() (Migrator, error) { return m, nil }
}

func TestMigration_Up_Success(t *testing.T) {
	mockM := new(MockMigrator)
	mockM.On("Up").Return(nil)
	mockM.On("Close").Return(nil, nil)

	err := NewMigration(engineFor(mockM)).Up()

	assert.NoError(t, err)
	mockM.AssertExpectations(t)
}

func TestMigration_Up_NoChange(t *testing.T) {
	mockM := new(MockMigrator)
	mockM.On("Up").Return(migrate.ErrNoChange)
	mockM.On("Close").Return(nil, nil)

	err := NewMigration(engineFor(mockM)).Up()

	assert.NoError(t, err)
	mockM.AssertExpectations(t)
}

func TestMigration_Up_Failure(t *testing.T) {
	upErr := errors.New("dirty database version 1")
	mockM := new(MockMigrator)
	mockM.On("Up").Return(upErr)
	mockM.On("Close").Return(nil, nil)

	err := NewMigration(engineFor(mockM)).Up()

	require.Error(t, err)
	assert.ErrorIs(t, err, upErr)
	mockM.AssertExpectations(t)
}

func TestMigration_Up_CloseErrors(t *testing.T) {
	srcErr := errors.New("source closed twice")
	dbErr := errors.New("database gone")
	mockM := new(MockMigrator)
	mockM.On("Up").Return(nil)
	mockM.On("Close").Return(srcErr, dbErr)

	err := NewMigration(engineFor(mockM)).Up()

	require.Error(t, err)
	assert.ErrorIs(t, err, srcErr)
	assert.ErrorIs(t, err, dbErr)
}

func TestMigration_Up_EngineError(t *testing.T) {
	engine := func() (Migrator, error) {
		return nil, errors.New("engine crash")
	}

	err := NewMigration(engine).Up()

	assert.Error(t, err)
	assert.Equal(t, "engine crash", err.Error())
}

func TestEmbedEngine_MissingDir(t *testing.T) {
	fsys := fstest.MapFS{
		"sqlite/000001_init.up.sql": &fstest.MapFile{Data: []byte("SELECT 1;")},
	}

	_, err := EmbedEngine(fsys, "postgres", "sqlite3://unused.db")()
	assert.Error(t, err)
}
