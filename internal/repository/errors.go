package repository

import "errors"

// ErrNotFound is returned for missing documents and for documents owned by a
// different user; callers must not be able to tell the two apart.
var ErrNotFound = errors.New("not found")
