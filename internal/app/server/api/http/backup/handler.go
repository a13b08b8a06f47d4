package backup

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/danielgtaylor/huma/v2"
	"golang.org/x/exp/slog"

	"payfamily/internal/app/server/api/http/middleware/auth"
	"payfamily/internal/domain/backup"
	"payfamily/internal/domain/envelope"
)

type Handler struct {
	service    backup.Servicer
	log        *slog.Logger
	middleware huma.Middlewares
}

func NewHandler(service backup.Servicer, log *slog.Logger, mws huma.Middlewares) *Handler {
	return &Handler{
		service:    service,
		log:        log,
		middleware: mws,
	}
}

func (h *Handler) SetupRoutes(api huma.API) {
	huma.Register(api, h.putOp(), h.put)
	huma.Register(api, h.getOp(), h.get)
	huma.Register(api, h.listOp(), h.list)
	huma.Register(api, h.deleteOp(), h.delete)
}

func (h *Handler) put(ctx context.Context, input *putInput) (*infoOutput, error) {
	ownerID, ok := auth.GetOwnerID(ctx)
	if !ok {
		return nil, huma.Error401Unauthorized("Unauthorized")
	}

	data, err := json.Marshal(input.Body)
	if err != nil {
		return nil, huma.Error400BadRequest("invalid envelope")
	}

	info, err := h.service.Put(ctx, ownerID, input.Name, data)
	if err != nil {
		return nil, h.toHTTP(err)
	}

	return &infoOutput{Body: info}, nil
}

func (h *Handler) get(ctx context.Context, input *nameInput) (*getOutput, error) {
	ownerID, ok := auth.GetOwnerID(ctx)
	if !ok {
		return nil, huma.Error401Unauthorized("Unauthorized")
	}

	b, err := h.service.Get(ctx, ownerID, input.Name)
	if err != nil {
		return nil, h.toHTTP(err)
	}

	var env envelope.Envelope
	if err := json.Unmarshal(b.Envelope, &env); err != nil {
		h.log.Error("stored envelope does not decode", "owner_id", ownerID, "name", input.Name, "error", err)
		return nil, huma.Error500InternalServerError("backup is damaged")
	}

	return &getOutput{
		ETag: `"` + b.Checksum + `"`,
		Body: GetResponse{
			Name:      b.Name,
			Size:      b.Size,
			Checksum:  b.Checksum,
			UpdatedAt: b.UpdatedAt,
			Envelope:  env,
		},
	}, nil
}

func (h *Handler) list(ctx context.Context, _ *struct{}) (*listOutput, error) {
	ownerID, ok := auth.GetOwnerID(ctx)
	if !ok {
		return nil, huma.Error401Unauthorized("Unauthorized")
	}

	infos, err := h.service.List(ctx, ownerID)
	if err != nil {
		return nil, h.toHTTP(err)
	}

	return &listOutput{Body: ListResponse{Backups: infos}}, nil
}

func (h *Handler) delete(ctx context.Context, input *nameInput) (*struct{}, error) {
	ownerID, ok := auth.GetOwnerID(ctx)
	if !ok {
		return nil, huma.Error401Unauthorized("Unauthorized")
	}

	if err := h.service.Delete(ctx, ownerID, input.Name); err != nil {
		return nil, h.toHTTP(err)
	}

	return nil, nil
}

func (h *Handler) toHTTP(err error) error {
	switch {
	case errors.Is(err, backup.ErrNotFound):
		return huma.Error404NotFound("backup not found")
	case errors.Is(err, backup.ErrInvalidName), errors.Is(err, backup.ErrInvalidEnvelope):
		return huma.Error400BadRequest(err.Error())
	case errors.Is(err, backup.ErrTooLarge):
		return huma.NewError(http.StatusRequestEntityTooLarge, err.Error())
	default:
		h.log.Error("backup request failed", "error", err)
		return huma.Error500InternalServerError("internal error")
	}
}
