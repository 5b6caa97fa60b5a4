package ops

import "errors"

var (
	ErrNotFound      = errors.New("ops: not found")
	ErrAlreadyExists = errors.New("ops: already exists")
	ErrInvalidInput  = errors.New("ops: invalid input")
)
