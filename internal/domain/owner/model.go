package owner

import "time"

type Owner struct {
	ID        string
	KeyHash   string // bcrypt
	CreatedAt time.Time
}
