package backup

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"golang.org/x/exp/slog"
)

type MockRepository struct {
	mock.Mock
}

func (m *MockRepository) Put(ctx context.Context, b *Backup) error {
	args := m.Called(ctx, b)
	return args.Error(0)
}

func (m *MockRepository) Get(ctx context.Context, ownerID, name string) (*Backup, error) {
	args := m.Called(ctx, ownerID, name)
	if b := args.Get(0); b != nil {
		return b.(*Backup), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockRepository) List(ctx context.Context, ownerID string) ([]Info, error) {
	args := m.Called(ctx, ownerID)
	if infos := args.Get(0); infos != nil {
		return infos.([]Info), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockRepository) Delete(ctx context.Context, ownerID, name string) error {
	args := m.Called(ctx, ownerID, name)
	return args.Error(0)
}

var validEnvelope = `{
	"ciphertext": "deadbeef",
	"iv": "000102030405060708090a0b",
	"salt": "000102030405060708090a0b0c0d0e0f",
	"tag": "000102030405060708090a0b0c0d0e0f"
}`

func withField(t *testing.T, key string, value any) string {
	t.Helper()
	var env map[string]any
	require.NoError(t, json.Unmarshal([]byte(validEnvelope), &env))
	env[key] = value
	data, err := json.Marshal(env)
	require.NoError(t, err)
	return string(data)
}

func newTestService(repo Repository) *Service {
	s := NewService(repo, slog.New(slog.NewTextHandler(io.Discard, nil)))
	s.now = func() time.Time { return time.Date(2024, 3, 1, 9, 30, 0, 0, time.UTC) }
	return s
}

func TestService_Put(t *testing.T) {
	repo := new(MockRepository)
	var stored *Backup
	repo.On("Put", mock.Anything, mock.AnythingOfType("*backup.Backup")).
		Run(func(args mock.Arguments) { stored = args.Get(1).(*Backup) }).
		Return(nil)

	info, err := newTestService(repo).Put(context.Background(), "family-1", "weekly", []byte(validEnvelope))
	require.NoError(t, err)

	require.NotNil(t, stored)
	assert.Equal(t, "family-1", stored.OwnerID)
	assert.JSONEq(t, validEnvelope, string(stored.Envelope))
	assert.NotContains(t, string(stored.Envelope), "\n")
	assert.Equal(t, Checksum(stored.Envelope), info.Checksum)
	assert.Equal(t, int64(len(stored.Envelope)), info.Size)
	assert.Equal(t, "weekly", info.Name)

	// formatting does not change the checksum
	compact, err := Canonicalize([]byte(strings.Join(strings.Fields(validEnvelope), "")))
	require.NoError(t, err)
	assert.Equal(t, info.Checksum, Checksum(compact))
}

func TestService_Put_Rejects(t *testing.T) {
	tests := []struct {
		name     string
		backup   string
		envelope string
		wantErr  error
	}{
		{"bad name", "../etc", validEnvelope, ErrInvalidName},
		{"empty name", "", validEnvelope, ErrInvalidName},
		{"not json", "weekly", "plain text", ErrInvalidEnvelope},
		{"bad hex", "weekly", `{"ciphertext":"zz","iv":"00","salt":"00","tag":"00"}`, ErrInvalidEnvelope},
		{"short iv", "weekly", `{"ciphertext":"00","iv":"00","salt":"000102030405060708090a0b0c0d0e0f","tag":"000102030405060708090a0b0c0d0e0f"}`, ErrInvalidEnvelope},
		{"iterations above cap", "weekly", withField(t, "iterations", 2147483647), ErrInvalidEnvelope},
		{"unknown kdf", "weekly", withField(t, "kdf", "scrypt"), ErrInvalidEnvelope},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo := new(MockRepository)
			_, err := newTestService(repo).Put(context.Background(), "family-1", tt.backup, []byte(tt.envelope))
			assert.ErrorIs(t, err, tt.wantErr)
			repo.AssertNotCalled(t, "Put", mock.Anything, mock.Anything)
		})
	}
}

func TestService_Put_TooLarge(t *testing.T) {
	repo := new(MockRepository)
	_, err := newTestService(repo).Put(context.Background(), "family-1", "big", make([]byte, MaxSize+1))
	assert.ErrorIs(t, err, ErrTooLarge)
}

func TestService_Get(t *testing.T) {
	repo := new(MockRepository)
	repo.On("Get", mock.Anything, "family-1", "weekly").
		Return(&Backup{OwnerID: "family-1", Name: "weekly", Envelope: json.RawMessage(validEnvelope)}, nil)
	repo.On("Get", mock.Anything, "family-1", "missing").Return(nil, ErrNotFound)

	s := newTestService(repo)

	b, err := s.Get(context.Background(), "family-1", "weekly")
	require.NoError(t, err)
	assert.JSONEq(t, validEnvelope, string(b.Envelope))

	_, err = s.Get(context.Background(), "family-1", "missing")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestService_Get_Damaged(t *testing.T) {
	repo := new(MockRepository)
	repo.On("Get", mock.Anything, "family-1", "weekly").
		Return(&Backup{Envelope: json.RawMessage(`{"ciphertext":"00"}`)}, nil)

	_, err := newTestService(repo).Get(context.Background(), "family-1", "weekly")
	assert.ErrorIs(t, err, ErrInvalidEnvelope)
}

func TestService_List(t *testing.T) {
	repo := new(MockRepository)
	repo.On("List", mock.Anything, "empty").Return(nil, nil)
	repo.On("List", mock.Anything, "broken").Return(nil, errors.New("database error"))

	s := newTestService(repo)

	infos, err := s.List(context.Background(), "empty")
	require.NoError(t, err)
	assert.NotNil(t, infos)
	assert.Empty(t, infos)

	_, err = s.List(context.Background(), "broken")
	assert.ErrorContains(t, err, "database error")
}

func TestService_Delete(t *testing.T) {
	repo := new(MockRepository)
	repo.On("Delete", mock.Anything, "family-1", "weekly").Return(nil)
	repo.On("Delete", mock.Anything, "family-1", "gone").Return(ErrNotFound)

	s := newTestService(repo)

	assert.NoError(t, s.Delete(context.Background(), "family-1", "weekly"))
	assert.ErrorIs(t, s.Delete(context.Background(), "family-1", "gone"), ErrNotFound)
	assert.ErrorIs(t, s.Delete(context.Background(), "family-1", "a/b"), ErrInvalidName)
}

func TestNames(t *testing.T) {
	assert.NoError(t, ValidateName("backup_20240301_093000"))
	assert.NoError(t, ValidateName("v1.2-final"))
	assert.ErrorIs(t, ValidateName(".."), ErrInvalidName)
	assert.ErrorIs(t, ValidateName(strings.Repeat("a", 129)), ErrInvalidName)

	assert.Equal(t, "backup_20240301_093000", DefaultName(time.Date(2024, 3, 1, 9, 30, 0, 0, time.UTC)))
}
