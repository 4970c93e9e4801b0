package apperr

import "errors"

var (
	ErrNotFound       = errors.New("not found")
	ErrInvalidContent = errors.New("invalid content")
	ErrDuplicateSlug  = errors.New("duplicate slug")
)
