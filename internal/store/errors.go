package store

import "errors"

// ErrNotFound is returned when a record does not exist.
var ErrNotFound = errors.New("not found")

// ErrConflict is returned when a conditional write matched no row,
// e.g. claiming an item that is no longer active.
var ErrConflict = errors.New("conflict")
