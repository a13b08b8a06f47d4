package backup

import "errors"

var (
	ErrNotFound        = errors.New("backup not found")
	ErrInvalidName     = errors.New("invalid backup name")
	ErrInvalidEnvelope = errors.New("invalid backup envelope")
	ErrTooLarge        = errors.New("backup too large")
)
