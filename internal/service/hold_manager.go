package service

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/iliyamo/cinema-parking-reservation/internal/metrics"
	"github.com/iliyamo/cinema-parking-reservation/internal/model"
	"github.com/iliyamo/cinema-parking-reservation/internal/queue"
	"github.com/iliyamo/cinema-parking-reservation/internal/ratelimit"
)

// CreateHoldInput is a request to hold one slot of a lot for a booking.
type CreateHoldInput struct {
	BookingID uint64
	LotID     uint64
	Start     time.Time
	End       time.Time
	CallerID  uint64
}

// CreateHold places a provisional reservation that must be confirmed within
// the hold TTL.  Checks run in a fixed order and the first failure wins:
// missing fields, booking ownership, lot, time range, rate limit, an
// already confirmed reservation for the booking, capacity.  A previous
// hold of the same booking is replaced.
//
// The capacity check and the insert are not atomic; concurrent callers may
// overbook a lot by at most the number of racers.  Holds are short-lived so
// this is tolerated.
func (s *ParkingService) CreateHold(ctx context.Context, in CreateHoldInput) (model.ParkingReservation, error) {
	res, err := s.createHold(ctx, in)
	metrics.IncHold(holdOutcome(err))
	return res, err
}

func (s *ParkingService) createHold(ctx context.Context, in CreateHoldInput) (model.ParkingReservation, error) {
	if in.BookingID == 0 || in.LotID == 0 || in.CallerID == 0 || in.Start.IsZero() || in.End.IsZero() {
		return model.ParkingReservation{}, ErrMissingFields
	}

	owned, err := s.bookings.ExistsForOwner(ctx, in.BookingID, in.CallerID)
	if err != nil {
		return model.ParkingReservation{}, fmt.Errorf("look up booking: %w", err)
	}
	if !owned {
		return model.ParkingReservation{}, ErrBookingNotFound
	}

	lot, err := s.activeLot(ctx, in.LotID)
	if err != nil {
		return model.ParkingReservation{}, err
	}

	w := Window{Start: in.Start.UTC(), End: in.End.UTC()}
	if !w.Valid() {
		return model.ParkingReservation{}, ErrInvalidTimeRange
	}

	allowed, err := s.limiter.Allow(ctx, ratelimit.HoldKey(in.CallerID))
	if err != nil {
		s.log.Warn().Err(err).Uint64("user_id", in.CallerID).Bool("allowed", allowed).Msg("hold limiter degraded")
	}
	if !allowed {
		return model.ParkingReservation{}, ErrTooManyHolds
	}

	confirmed, err := s.reservations.HasConfirmedForBooking(ctx, in.BookingID)
	if err != nil {
		return model.ParkingReservation{}, fmt.Errorf("check booking reservations: %w", err)
	}
	if confirmed {
		return model.ParkingReservation{}, ErrAlreadyConfirmed
	}

	overlap, err := s.reservations.CountOverlapping(ctx, lot.ID, w.Start, w.End)
	if err != nil {
		return model.ParkingReservation{}, fmt.Errorf("count overlapping reservations: %w", err)
	}
	if remaining(lot.Capacity, overlap) == 0 {
		return model.ParkingReservation{}, ErrLotFull
	}

	superseded, err := s.reservations.DeleteHeldByBooking(ctx, in.BookingID)
	if err != nil {
		return model.ParkingReservation{}, fmt.Errorf("supersede previous hold: %w", err)
	}

	now := s.now()
	res := model.ParkingReservation{
		ID:            uuid.NewString(),
		BookingID:     in.BookingID,
		OwnerID:       in.CallerID,
		LotID:         lot.ID,
		LotName:       lot.Name,
		Location:      lot.Location,
		StartTime:     w.Start,
		EndTime:       w.End,
		Status:        model.StatusHeld,
		HoldExpiresAt: now.Add(s.holdTTL),
		PriceCents:    Price(w, lot.PricePerHourCents),
		CreatedAt:     now,
		UpdatedAt:     now,
	}
	if err := s.reservations.Create(ctx, res); err != nil {
		return model.ParkingReservation{}, fmt.Errorf("create hold: %w", err)
	}

	s.log.Info().
		Str("reservation_id", res.ID).
		Uint64("booking_id", res.BookingID).
		Uint64("lot_id", res.LotID).
		Int64("superseded", superseded).
		Time("hold_expires_at", res.HoldExpiresAt).
		Msg("parking hold created")
	s.emit(ctx, queue.EventHoldCreated, res)
	return res, nil
}

func holdOutcome(err error) string {
	switch KindOf(err) {
	case nil:
		if err != nil {
			return "error"
		}
		return "created"
	case ErrInvalidArgument:
		return "invalid"
	case ErrNotFound:
		return "not_found"
	case ErrConflict:
		return "conflict"
	case ErrRateLimited:
		return "rate_limited"
	default:
		return "error"
	}
}
