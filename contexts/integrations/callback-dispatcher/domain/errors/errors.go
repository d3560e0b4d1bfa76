package errors

import "errors"

var (
	ErrInvalidURL = errors.New("callback url must be absolute http or https")
	ErrNotFound   = errors.New("callback not found")
	ErrDuplicate  = errors.New("callback url already registered")
)
