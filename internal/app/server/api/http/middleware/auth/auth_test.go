package auth

import (
	"context"
	"net/http"
	"testing"
	"time"

	"github.com/danielgtaylor/huma/v2"
	"github.com/danielgtaylor/huma/v2/humatest"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"golang.org/x/exp/slog"

	"payfamily/internal/domain/session"
)

type MockSession struct {
	mock.Mock
}

func (m *MockSession) Create(ctx context.Context, ownerID string) (string, time.Time, error) {
	args := m.Called(ctx, ownerID)
	return args.String(0), args.Get(1).(time.Time), args.Error(2)
}

func (m *MockSession) Validate(ctx context.Context, token string) (string, error) {
	args := m.Called(ctx, token)
	return args.String(0), args.Error(1)
}

type whoamiOutput struct {
	Body struct {
		OwnerID string `json:"ownerId"`
	}
}

func setup(t *testing.T, sessions session.Servicer) humatest.TestAPI {
	_, api := humatest.New(t)

	mw := New(sessions, slog.Default())
	huma.Register(api, huma.Operation{
		OperationID: "whoami",
		Method:      http.MethodGet,
		Path:        "/whoami",
		Middlewares: huma.Middlewares{mw.Middleware()},
	}, func(ctx context.Context, _ *struct{}) (*whoamiOutput, error) {
		ownerID, ok := GetOwnerID(ctx)
		if !ok {
			return nil, huma.Error401Unauthorized("Unauthorized")
		}
		out := &whoamiOutput{}
		out.Body.OwnerID = ownerID
		return out, nil
	})

	return api
}

func TestMiddleware(t *testing.T) {
	sessions := new(MockSession)
	sessions.On("Validate", mock.Anything, "good-token").Return("family-1", nil)
	sessions.On("Validate", mock.Anything, "stale-token").Return("", session.ErrInvalidSession)

	api := setup(t, sessions)

	t.Run("valid token", func(t *testing.T) {
		resp := api.Get("/whoami", "Authorization: Bearer good-token")
		assert.Equal(t, http.StatusOK, resp.Code)
		assert.Contains(t, resp.Body.String(), `"ownerId":"family-1"`)
	})

	t.Run("expired token", func(t *testing.T) {
		resp := api.Get("/whoami", "Authorization: Bearer stale-token")
		assert.Equal(t, http.StatusUnauthorized, resp.Code)
		assert.JSONEq(t, `{"error":"Unauthorized"}`, resp.Body.String())
	})

	t.Run("missing header", func(t *testing.T) {
		resp := api.Get("/whoami")
		assert.Equal(t, http.StatusUnauthorized, resp.Code)
	})

	t.Run("wrong scheme", func(t *testing.T) {
		resp := api.Get("/whoami", "Authorization: Basic Zm9vOmJhcg==")
		assert.Equal(t, http.StatusUnauthorized, resp.Code)
	})

	sessions.AssertNumberOfCalls(t, "Validate", 2)
}

func TestGetOwnerID(t *testing.T) {
	_, ok := GetOwnerID(context.Background())
	assert.False(t, ok)

	_, ok = GetOwnerID(WithOwnerID(context.Background(), ""))
	assert.False(t, ok)

	id, ok := GetOwnerID(WithOwnerID(context.Background(), "family-1"))
	assert.True(t, ok)
	assert.Equal(t, "family-1", id)
}
