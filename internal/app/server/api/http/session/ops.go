package session

import (
	"net/http"

	"github.com/danielgtaylor/huma/v2"
)

func (h *Handler) createOp() huma.Operation {
	return huma.Operation{
		OperationID:   "sessions-create",
		Method:        http.MethodPost,
		Path:          "/api/v1/sessions",
		Summary:       "Open a session",
		Description:   "Exchanges an owner id and access key for a bearer token.",
		Tags:          []string{"sessions"},
		DefaultStatus: http.StatusCreated,
		Middlewares:   h.middleware,
	}
}
