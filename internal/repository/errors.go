// Package repository defines error types that are reused across the data
// access layer. These sentinel values allow higher layers such as handlers
// to distinguish between different failure scenarios without inspecting
// error strings.
package repository

import "errors"

// ErrListingNotFound is returned when a listing cannot be located by ID or
// run-id. Handlers should translate this into an HTTP 404 response.
var ErrListingNotFound = errors.New("listing not found")

// ErrDuplicateRunID is returned when an insert or update violates the
// uniqueness constraint on listings.run_id. Two concurrent imports racing on
// the same run-id surface here rather than double-inserting; handlers should
// translate this into an HTTP 409 response.
var ErrDuplicateRunID = errors.New("duplicate run_id")
