package session

import (
	"context"
	"errors"

	"github.com/danielgtaylor/huma/v2"
	"golang.org/x/exp/slog"

	"payfamily/internal/domain/owner"
	"payfamily/internal/domain/session"
)

type Handler struct {
	owners     owner.Servicer
	session    session.Servicer
	log        *slog.Logger
	middleware huma.Middlewares
}

func NewHandler(owners owner.Servicer, session session.Servicer, log *slog.Logger, middleware huma.Middlewares) *Handler {
	return &Handler{
		owners:     owners,
		session:    session,
		log:        log,
		middleware: middleware,
	}
}

func (h *Handler) SetupRoutes(api huma.API) {
	huma.Register(api, h.createOp(), h.create)
}

func (h *Handler) create(ctx context.Context, input *createInput) (*createOutput, error) {
	o, err := h.owners.Authenticate(ctx, input.Body.OwnerID, input.Body.AccessKey)
	switch {
	case errors.Is(err, owner.ErrInvalidInput):
		return nil, huma.Error400BadRequest(err.Error())
	case errors.Is(err, owner.ErrInvalidAuth):
		return nil, huma.Error401Unauthorized("Invalid credentials")
	case err != nil:
		h.log.Error("failed to authenticate owner", "owner_id", input.Body.OwnerID, "error", err)
		return nil, huma.Error500InternalServerError("authentication failed")
	}

	token, expiresAt, err := h.session.Create(ctx, o.ID)
	if err != nil {
		h.log.Error("failed to create session", "owner_id", o.ID, "error", err)
		return nil, huma.Error500InternalServerError("create session failed")
	}

	return &createOutput{
		Body: CreateResponse{Token: token, ExpiresAt: expiresAt},
	}, nil
}
