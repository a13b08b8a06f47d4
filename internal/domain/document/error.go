package document

import "errors"

var (
	ErrNotFound        = errors.New("document not found")
	ErrDuplicateID     = errors.New("document already exists")
	ErrInvalidDocument = errors.New("invalid document")
)
