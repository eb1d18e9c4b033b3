package service

import "errors"

// Error kinds.  Every error returned by ParkingService for a caller mistake
// or a business rule wraps exactly one of them; anything else is a storage
// or infrastructure failure.
var (
	ErrInvalidArgument = errors.New("invalid argument")
	ErrNotFound        = errors.New("not found")
	ErrConflict        = errors.New("conflict")
	ErrRateLimited     = errors.New("rate limited")
	ErrGone            = errors.New("gone")
)

// Error is a business error with a caller-facing message.
type Error struct {
	Kind error
	Msg  string
}

func (e *Error) Error() string { return e.Msg }

// Unwrap exposes the kind to errors.Is.
func (e *Error) Unwrap() error { return e.Kind }

func newError(kind error, msg string) *Error { return &Error{Kind: kind, Msg: msg} }

var (
	ErrMissingFields    = newError(ErrInvalidArgument, "bookingId, lotId, startTime and endTime are required")
	ErrInvalidTimeRange = newError(ErrInvalidArgument, "startTime must be before endTime")
	ErrBookingMismatch  = newError(ErrInvalidArgument, "booking ID mismatch")

	ErrBookingNotFound     = newError(ErrNotFound, "booking not found")
	ErrLotNotFound         = newError(ErrNotFound, "parking lot not found")
	ErrHoldNotFound        = newError(ErrNotFound, "reservation not found or already confirmed")
	ErrReservationNotFound = newError(ErrNotFound, "reservation not found")

	ErrLotFull          = newError(ErrConflict, "lot is full for the requested time")
	ErrAlreadyConfirmed = newError(ErrConflict, "booking already has a confirmed parking reservation")

	ErrTooManyHolds = newError(ErrRateLimited, "too many hold attempts, try again later")

	ErrHoldExpired = newError(ErrGone, "hold has expired")
)

// KindOf returns the kind err wraps, or nil for infrastructure failures.
func KindOf(err error) error {
	for _, k := range []error{ErrInvalidArgument, ErrNotFound, ErrConflict, ErrRateLimited, ErrGone} {
		if errors.Is(err, k) {
			return k
		}
	}
	return nil
}
