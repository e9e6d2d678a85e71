// Package domain provides shared domain-level sentinel errors.
package domain

import "errors"

// ErrNotFound indicates the requested entity does not exist.
var ErrNotFound = errors.New("not found")

// ErrValidation indicates the request was rejected before any mutation.
var ErrValidation = errors.New("validation failed")

// ErrConflict indicates the operation conflicts with the current state of
// the entity (already converted, wrong status, write-once field set).
var ErrConflict = errors.New("conflict")

// ErrUnavailable indicates a transient failure (transaction serialization,
// lock timeout). The caller may retry; the core never retries on its own.
var ErrUnavailable = errors.New("temporarily unavailable")
