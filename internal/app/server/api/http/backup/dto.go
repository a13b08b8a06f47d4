package backup

import (
	"time"

	"payfamily/internal/domain/backup"
	"payfamily/internal/domain/envelope"
)

type putInput struct {
	Name string `path:"name" pattern:"^[A-Za-z0-9._-]{1,128}$" doc:"Backup name"`
	Body envelope.Envelope
}

type infoOutput struct {
	Body backup.Info
}

type nameInput struct {
	Name string `path:"name" pattern:"^[A-Za-z0-9._-]{1,128}$" doc:"Backup name"`
}

type getOutput struct {
	ETag string `header:"ETag"`
	Body GetResponse
}

type GetResponse struct {
	Name      string          `json:"name"`
	Size      int64           `json:"size"`
	Checksum  string          `json:"checksum" doc:"sha256 of the canonical envelope JSON"`
	UpdatedAt time.Time       `json:"updatedAt"`
	Envelope  envelope.Envelope `json:"envelope"`
}

type listOutput struct {
	Body ListResponse
}

type ListResponse struct {
	Backups []backup.Info `json:"backups"`
}
