package apperr

import "errors"

var (
	ErrNotFound = errors.New("not found")
	ErrCorrupt  = errors.New("corrupt artifact")
	ErrInvalid  = errors.New("invalid input")
)
