package postgres

import (
	"context"
	"encoding/hex"
	"encoding/json"
	"io"
	"os"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/exp/slog"

	"payfamily/internal/app/server/config"
	"payfamily/internal/domain/backup"
	"payfamily/internal/domain/owner"
	"payfamily/internal/domain/session"
)

// Set TEST_DATABASE_URI to a disposable database to run these tests.
func newTestStorage(t *testing.T) *Storage {
	t.Helper()

	uri := os.Getenv("TEST_DATABASE_URI")
	if uri == "" {
		t.Skip("TEST_DATABASE_URI not set")
	}

	cfg := &config.Config{}
	cfg.DB.DatabaseURI = uri

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	s, err := New(ctx, cfg)
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })

	return s
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestOwnerRepository(t *testing.T) {
	s := newTestStorage(t)
	repo := NewOwnerRepository(s, discardLogger())
	ctx := context.Background()
	id := "owner-" + uuid.NewString()

	_, err := repo.Find(ctx, id)
	assert.ErrorIs(t, err, owner.ErrNotFound)

	require.NoError(t, repo.Create(ctx, id, "hash"))
	assert.ErrorIs(t, repo.Create(ctx, id, "other"), owner.ErrExists)

	o, err := repo.Find(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, "hash", o.KeyHash)
	assert.False(t, o.CreatedAt.IsZero())
}

func TestSessionRepository(t *testing.T) {
	s := newTestStorage(t)
	repo := NewSessionRepository(s, discardLogger())
	ctx := context.Background()

	live := "aa" + uuid.New().String()[:8]
	expired := "bb" + uuid.New().String()[:8]
	liveHash := hex.EncodeToString([]byte(live))
	expiredHash := hex.EncodeToString([]byte(expired))

	require.NoError(t, repo.Create(ctx, "family-1", liveHash, time.Now().Add(time.Hour)))
	require.NoError(t, repo.Create(ctx, "family-1", expiredHash, time.Now().Add(-time.Hour)))

	ownerID, err := repo.Validate(ctx, liveHash)
	require.NoError(t, err)
	assert.Equal(t, "family-1", ownerID)

	_, err = repo.Validate(ctx, expiredHash)
	assert.ErrorIs(t, err, session.ErrInvalidSession)

	n, err := repo.DeleteExpired(ctx, time.Now())
	require.NoError(t, err)
	assert.GreaterOrEqual(t, n, int64(1))
}

func TestBackupRepository(t *testing.T) {
	s := newTestStorage(t)
	repo := NewBackupRepository(s, discardLogger())
	ctx := context.Background()
	ownerID := "owner-" + uuid.NewString()

	first := &backup.Backup{
		OwnerID:   ownerID,
		Name:      "weekly",
		Envelope:  json.RawMessage(`{"ciphertext":"00"}`),
		Size:      19,
		Checksum:  "c1",
		UpdatedAt: time.Now().Add(-time.Minute),
	}
	require.NoError(t, repo.Put(ctx, first))
	created := first.CreatedAt

	second := &backup.Backup{
		OwnerID:   ownerID,
		Name:      "weekly",
		Envelope:  json.RawMessage(`{"ciphertext":"01"}`),
		Size:      19,
		Checksum:  "c2",
		UpdatedAt: time.Now(),
	}
	require.NoError(t, repo.Put(ctx, second))
	assert.True(t, created.Equal(second.CreatedAt))

	got, err := repo.Get(ctx, ownerID, "weekly")
	require.NoError(t, err)
	assert.JSONEq(t, `{"ciphertext":"01"}`, string(got.Envelope))
	assert.Equal(t, "c2", got.Checksum)

	infos, err := repo.List(ctx, ownerID)
	require.NoError(t, err)
	require.Len(t, infos, 1)
	assert.Equal(t, "weekly", infos[0].Name)

	_, err = repo.Get(ctx, "someone-else", "weekly")
	assert.ErrorIs(t, err, backup.ErrNotFound)

	require.NoError(t, repo.Delete(ctx, ownerID, "weekly"))
	assert.ErrorIs(t, repo.Delete(ctx, ownerID, "weekly"), backup.ErrNotFound)
}
