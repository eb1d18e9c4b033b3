package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/iliyamo/cinema-parking-reservation/internal/model"
	"github.com/iliyamo/cinema-parking-reservation/internal/queue"
	"github.com/iliyamo/cinema-parking-reservation/internal/repository"
)

var transitions = map[model.ReservationStatus][]model.ReservationStatus{
	model.StatusHeld:      {model.StatusConfirmed, model.StatusReleased, model.StatusCancelled},
	model.StatusConfirmed: {model.StatusCancelled},
}

// CanTransition reports whether a reservation may move from one status to
// another.  Released and cancelled are terminal.
func CanTransition(from, to model.ReservationStatus) bool {
	for _, s := range transitions[from] {
		if s == to {
			return true
		}
	}
	return false
}

// releaseTarget is where Release takes a reservation: unused holds are
// released, paid reservations are cancelled.
func releaseTarget(from model.ReservationStatus) model.ReservationStatus {
	if from == model.StatusConfirmed {
		return model.StatusCancelled
	}
	return model.StatusReleased
}

// Confirm turns the caller's hold into a confirmed reservation.  A hold
// past its deadline is released on the spot and ErrHoldExpired returned.
// When expectedBookingID is non-nil it must match the hold's booking.
func (s *ParkingService) Confirm(ctx context.Context, holdID string, callerID uint64, expectedBookingID *uint64) error {
	res, err := s.reservations.FindForOwner(ctx, holdID, callerID, model.StatusHeld)
	if errors.Is(err, repository.ErrReservationNotFound) {
		return ErrHoldNotFound
	}
	if err != nil {
		return fmt.Errorf("load hold: %w", err)
	}

	now := s.now()
	if now.After(res.HoldExpiresAt) {
		if err := s.transition(ctx, res, model.StatusReleased, queue.EventHoldExpired); err != nil && !errors.Is(err, repository.ErrConflict) {
			return err
		}
		return ErrHoldExpired
	}

	if expectedBookingID != nil && *expectedBookingID != res.BookingID {
		return ErrBookingMismatch
	}

	err = s.transition(ctx, res, model.StatusConfirmed, queue.EventHoldConfirmed)
	if errors.Is(err, repository.ErrConflict) {
		return ErrHoldNotFound
	}
	return err
}

// Release gives up the caller's reservation and returns its new status:
// released for a hold, cancelled for a confirmed reservation.
func (s *ParkingService) Release(ctx context.Context, holdID string, callerID uint64) (model.ReservationStatus, error) {
	res, err := s.reservations.FindForOwner(ctx, holdID, callerID, model.StatusHeld, model.StatusConfirmed)
	if errors.Is(err, repository.ErrReservationNotFound) {
		return "", ErrReservationNotFound
	}
	if err != nil {
		return "", fmt.Errorf("load reservation: %w", err)
	}

	target := releaseTarget(res.Status)
	typ := queue.EventHoldReleased
	if target == model.StatusCancelled {
		typ = queue.EventReservationCanceled
	}
	err = s.transition(ctx, res, target, typ)
	if errors.Is(err, repository.ErrConflict) {
		return "", ErrReservationNotFound
	}
	if err != nil {
		return "", err
	}
	return target, nil
}

// transition applies a conditional status update from res.Status and, on
// success, logs and publishes it.  repository.ErrConflict means another
// request changed the row first.
func (s *ParkingService) transition(ctx context.Context, res *model.ParkingReservation, to model.ReservationStatus, typ queue.EventType) error {
	from := res.Status
	if !CanTransition(from, to) {
		return fmt.Errorf("illegal transition %s -> %s", from, to)
	}
	now := s.now()
	if err := s.reservations.UpdateStatus(ctx, res.ID, from, to, now); err != nil {
		if errors.Is(err, repository.ErrConflict) {
			return err
		}
		return fmt.Errorf("update reservation status: %w", err)
	}
	res.Status = to
	res.UpdatedAt = now

	s.log.Info().
		Str("reservation_id", res.ID).
		Uint64("booking_id", res.BookingID).
		Str("from", string(from)).
		Str("to", string(to)).
		Msg("parking reservation transitioned")
	s.emit(ctx, typ, *res)
	return nil
}
