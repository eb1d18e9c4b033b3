// Package repository defines error types that are reused across multiple
// repositories. These sentinel values allow the service layer to
// distinguish between different failure scenarios without inspecting
// driver errors.
package repository

import "errors"

// ErrConflict is returned when a conditional update found the row in a
// different state than expected, typically because a concurrent request
// changed it first.
var ErrConflict = errors.New("conflict")

// ErrLotNotFound is returned when a parking lot lookup fails.
var ErrLotNotFound = errors.New("parking lot not found")

// ErrReservationNotFound is returned when no parking reservation matches
// the lookup filter (id, owner and status).
var ErrReservationNotFound = errors.New("parking reservation not found")

// ErrBookingNotFound is returned when no cinema booking has the given id.
var ErrBookingNotFound = errors.New("booking not found")
