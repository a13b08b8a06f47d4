package storage

import "errors"

var (
	ErrNotFound           = errors.New("document not found")
	ErrDuplicateID        = errors.New("document id already exists")
	ErrStorageUnavailable = errors.New("local storage unavailable")
)
