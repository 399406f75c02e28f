package store

import "errors"

// ErrNotFound is returned when a record does not exist.
var ErrNotFound = errors.New("not found")

// ErrDuplicateUsername is returned when creating a user whose username is
// already taken. Mapped from the postgres unique-violation error so callers
// can surface it as a conflict rather than a generic fault.
var ErrDuplicateUsername = errors.New("username already taken")
