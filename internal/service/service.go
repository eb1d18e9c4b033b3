// Package service implements the parking reservation workflow: capacity
// accounting, hold creation, the confirm/release state machine and the
// expiry sweeper.
package service

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"github.com/iliyamo/cinema-parking-reservation/internal/clock"
	"github.com/iliyamo/cinema-parking-reservation/internal/metrics"
	"github.com/iliyamo/cinema-parking-reservation/internal/model"
	"github.com/iliyamo/cinema-parking-reservation/internal/queue"
	"github.com/iliyamo/cinema-parking-reservation/internal/ratelimit"
)

// DefaultHoldTTL is how long a hold waits for confirmation.
const DefaultHoldTTL = 15 * time.Minute

// ReservationStore persists parking reservations.
// *repository.ParkingReservationRepo implements it.
type ReservationStore interface {
	Create(ctx context.Context, res model.ParkingReservation) error
	CountOverlapping(ctx context.Context, lotID uint64, start, end time.Time) (int, error)
	FindForOwner(ctx context.Context, id string, ownerID uint64, statuses ...model.ReservationStatus) (*model.ParkingReservation, error)
	ListByOwner(ctx context.Context, ownerID uint64) ([]model.ParkingReservation, error)
	UpdateStatus(ctx context.Context, id string, from, to model.ReservationStatus, now time.Time) error
	DeleteHeldByBooking(ctx context.Context, bookingID uint64) (int64, error)
	HasConfirmedForBooking(ctx context.Context, bookingID uint64) (bool, error)
	ListExpiredHolds(ctx context.Context, now time.Time, limit int) ([]model.ParkingReservation, error)
}

// LotStore reads parking lots.
type LotStore interface {
	GetByID(ctx context.Context, id uint64) (*model.ParkingLot, error)
	ListActive(ctx context.Context, cinemaID *uint64) ([]model.ParkingLot, error)
}

// BookingLookup answers whether a cinema booking exists and belongs to a user.
type BookingLookup interface {
	ExistsForOwner(ctx context.Context, bookingID, ownerID uint64) (bool, error)
}

// EventPublisher delivers reservation events.  Delivery is best effort.
type EventPublisher interface {
	Publish(ctx context.Context, ev queue.ParkingEvent) error
}

// Deps are the collaborators of ParkingService.  Reservations, Lots and
// Bookings are required; the rest default to an in-memory hold limiter of
// five per minute, a no-op publisher, the system clock and a disabled
// logger.
type Deps struct {
	Reservations ReservationStore
	Lots         LotStore
	Bookings     BookingLookup
	Limiter      ratelimit.Limiter
	Publisher    EventPublisher
	Clock        clock.Clock
	Logger       *zerolog.Logger
}

// ParkingService coordinates the hold workflow.  It is safe for concurrent
// use.
type ParkingService struct {
	reservations ReservationStore
	lots         LotStore
	bookings     BookingLookup
	limiter      ratelimit.Limiter
	publisher    EventPublisher
	clock        clock.Clock
	log          zerolog.Logger
	holdTTL      time.Duration
}

// NewParkingService wires a ParkingService.  A non-positive holdTTL falls
// back to DefaultHoldTTL.
func NewParkingService(d Deps, holdTTL time.Duration) *ParkingService {
	if holdTTL <= 0 {
		holdTTL = DefaultHoldTTL
	}
	s := &ParkingService{
		reservations: d.Reservations,
		lots:         d.Lots,
		bookings:     d.Bookings,
		limiter:      d.Limiter,
		publisher:    d.Publisher,
		clock:        d.Clock,
		holdTTL:      holdTTL,
		log:          zerolog.Nop(),
	}
	if s.clock == nil {
		s.clock = clock.NewSystem()
	}
	if s.limiter == nil {
		s.limiter = ratelimit.NewSlidingWindow(5, time.Minute, s.clock)
	}
	if s.publisher == nil {
		s.publisher = queue.NopPublisher{}
	}
	if d.Logger != nil {
		s.log = d.Logger.With().Str("component", "parking").Logger()
	}
	return s
}

// HoldTTL reports the confirmation grace period.
func (s *ParkingService) HoldTTL() time.Duration { return s.holdTTL }

// now is truncated to the millisecond precision of DATETIME(3) columns.
func (s *ParkingService) now() time.Time { return s.clock.Now().UTC().Truncate(time.Millisecond) }

// emit publishes the event for res and records the transition.  Publish
// failures are logged and otherwise ignored.
func (s *ParkingService) emit(ctx context.Context, typ queue.EventType, res model.ParkingReservation) {
	metrics.IncTransition(string(res.Status))
	if err := s.publisher.Publish(ctx, queue.NewParkingEvent(typ, res, s.now())); err != nil {
		s.log.Warn().Err(err).Str("event", string(typ)).Str("reservation_id", res.ID).Msg("event not published")
	}
}
