package domain

import "errors"

// ErrInvalidID and related errors describe validation and runtime failures.
var (
	ErrInvalidID       = errors.New("invalid id")
	ErrInvalidTitle    = errors.New("invalid title")
	ErrInvalidColumn   = errors.New("invalid column")
	ErrInvalidPriority = errors.New("invalid priority")
	ErrInvalidOrder    = errors.New("invalid board order")
	ErrInvalidRole     = errors.New("invalid role")
)
