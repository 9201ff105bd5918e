package app

import "errors"

// ErrNotFound marks lookups that missed, including cross-tenant denials.
var ErrNotFound = errors.New("not found")
