package backup

import (
	"net/http"

	"github.com/danielgtaylor/huma/v2"

	"payfamily/internal/domain/backup"
)

var bearer = []map[string][]string{{"bearer": {}}}

func (h *Handler) putOp() huma.Operation {
	return huma.Operation{
		OperationID:  "backups-put",
		Method:       http.MethodPut,
		Path:         "/api/v1/backups/{name}",
		Summary:      "Store a backup",
		Description:  "Stores an encrypted envelope under name, replacing any backup with the same name.",
		Tags:         []string{"backups"},
		Security:     bearer,
		MaxBodyBytes: backup.MaxSize + 1024,
		Middlewares:  h.middleware,
	}
}

func (h *Handler) getOp() huma.Operation {
	return huma.Operation{
		OperationID: "backups-get",
		Method:      http.MethodGet,
		Path:        "/api/v1/backups/{name}",
		Summary:     "Fetch a backup",
		Tags:        []string{"backups"},
		Security:    bearer,
		Middlewares: h.middleware,
	}
}

func (h *Handler) listOp() huma.Operation {
	return huma.Operation{
		OperationID: "backups-list",
		Method:      http.MethodGet,
		Path:        "/api/v1/backups",
		Summary:     "List backups",
		Tags:        []string{"backups"},
		Security:    bearer,
		Middlewares: h.middleware,
	}
}

func (h *Handler) deleteOp() huma.Operation {
	return huma.Operation{
		OperationID:   "backups-delete",
		Method:        http.MethodDelete,
		Path:          "/api/v1/backups/{name}",
		Summary:       "Delete a backup",
		Tags:          []string{"backups"},
		Security:      bearer,
		DefaultStatus: http.StatusNoContent,
		Middlewares:   h.middleware,
	}
}
