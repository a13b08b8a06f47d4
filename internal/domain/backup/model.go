package backup

import (
	"encoding/json"
	"regexp"
	"time"
)

// MaxSize bounds one stored envelope.
const MaxSize = 32 << 20

var namePattern = regexp.MustCompile(`^[A-Za-z0-9._-]{1,128}$`)

// Backup is one opaque encrypted snapshot of an owner's documents. The
// server never holds the key that opens Envelope.
type Backup struct {
	OwnerID   string
	Name      string
	Envelope  json.RawMessage
	Size      int64
	Checksum  string // sha256 hex of Envelope
	CreatedAt time.Time
	UpdatedAt time.Time
}

type Info struct {
	Name      string    `json:"name"`
	Size      int64     `json:"size"`
	Checksum  string    `json:"checksum"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

func (b *Backup) Info() Info {
	return Info{
		Name:      b.Name,
		Size:      b.Size,
		Checksum:  b.Checksum,
		CreatedAt: b.CreatedAt,
		UpdatedAt: b.UpdatedAt,
	}
}

// ValidateName accepts 1-128 letters, digits, '.', '_' or '-'. Names are
// used as object keys, so no separators are allowed.
func ValidateName(name string) error {
	if !namePattern.MatchString(name) || name == "." || name == ".." {
		return ErrInvalidName
	}
	return nil
}

// DefaultName is the name used when none is given.
func DefaultName(now time.Time) string {
	return "backup_" + now.Format("20060102_150405")
}
