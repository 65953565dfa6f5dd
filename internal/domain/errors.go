package domain

import "errors"

var (
	ErrInvalidEvent      = errors.New("invalid event")
	ErrInvalidRecurrence = errors.New("invalid recurrence")
	ErrInvalidProperty   = errors.New("invalid property")
	ErrInvalidValue      = errors.New("invalid value")
	ErrInvalidInterval   = errors.New("invalid interval")
)
