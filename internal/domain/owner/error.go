package owner

import "errors"

var (
	ErrNotFound     = errors.New("owner not found")
	ErrExists       = errors.New("owner already exists")
	ErrInvalidAuth  = errors.New("invalid credentials")
	ErrInvalidInput = errors.New("invalid input")
)
