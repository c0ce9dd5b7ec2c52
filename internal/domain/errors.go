package domain

import "errors"

// ErrNotFound is returned by repo and service functions when the requested
// resource does not exist in the database.
// Handlers should map this to HTTP 404.
var ErrNotFound = errors.New("not found")

// ErrValidation is returned by service functions when input fails business
// rule validation (e.g. quantity below one, end date before start date).
// Handlers should map this to HTTP 422 Unprocessable Entity.
var ErrValidation = errors.New("validation error")

// ErrForbidden is returned when the caller lacks ownership of the resource
// and does not hold the admin role. Handlers should map this to HTTP 403.
var ErrForbidden = errors.New("forbidden")

// ErrCapacityExceeded is returned when the requested quantity is not free for
// the requested window. The client may retry with different dates or a lower
// quantity. Handlers should map this to HTTP 409.
var ErrCapacityExceeded = errors.New("capacity exceeded")

// ErrInvalidTransition is returned when a status change violates the booking
// state machine — e.g. cancelling an already-cancelled booking, or deleting a
// booking that has not reached a terminal status. Handlers should map this to
// HTTP 409.
var ErrInvalidTransition = errors.New("invalid status transition")

// ErrCapacityConflict is returned by the ledger when a capacity re-check at
// commit time lost a race with a concurrent booking. It is internal: the
// service retries a bounded number of times and surfaces ErrCapacityExceeded
// if the conflict persists.
var ErrCapacityConflict = errors.New("capacity conflict")
