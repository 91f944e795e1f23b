package apperrors

import "errors"

var (
	ErrInvalidInput      = errors.New("invalid input")
	ErrNotFound          = errors.New("not found")
	ErrProjectNotVisible = errors.New("project is not visible")
	ErrServiceStopped    = errors.New("service stopped")
)
