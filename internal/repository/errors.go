// Package repository defines error types that are reused across multiple
// repositories. These sentinel values allow higher layers such as the
// payment orchestrator and handlers to distinguish between different
// failure scenarios without string matching.
package repository

import "errors"

// ErrReservationNotFound is returned when no reservation exists for the
// requested identifier. Handlers translate this into an HTTP 404
// response; the callback path turns it into a failure redirect instead.
var ErrReservationNotFound = errors.New("reservation not found")

// ErrAlreadyPaid is returned when a payment is initiated for a
// reservation whose payment has already succeeded. Handlers translate
// this into an HTTP 409 response.
var ErrAlreadyPaid = errors.New("reservation already paid")
