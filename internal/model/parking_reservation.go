package model

import "time"

// ReservationStatus is the lifecycle state of a parking reservation.
type ReservationStatus string

const (
	// StatusHeld is a provisional reservation waiting for payment.
	StatusHeld ReservationStatus = "held"
	// StatusConfirmed is a paid reservation.
	StatusConfirmed ReservationStatus = "confirmed"
	// StatusReleased is a hold that was given up or expired before confirmation.
	StatusReleased ReservationStatus = "released"
	// StatusCancelled is a confirmed reservation cancelled afterwards.
	StatusCancelled ReservationStatus = "cancelled"
)

// ParkingReservation is a time-boxed claim on one slot of a parking lot
// for the window [StartTime, EndTime).  It is created as a hold and later
// confirmed, released or cancelled by its owner.
//
// Fields:
//
//	ID            – opaque identifier (UUID).
//	BookingID     – cinema booking the parking belongs to.
//	OwnerID       – user who created the hold; the only one allowed to change it.
//	LotID         – lot being reserved.
//	LotName       – lot name copied at creation for display.
//	Location      – lot location copied at creation for display.
//	StartTime     – inclusive start of the window (UTC).
//	EndTime       – exclusive end of the window (UTC).
//	Status        – held, confirmed, released or cancelled.
//	HoldExpiresAt – deadline for confirming a held reservation.
//	PriceCents    – price fixed at hold creation.
//	CreatedAt     – creation timestamp.
//	UpdatedAt     – last update timestamp.
type ParkingReservation struct {
	ID            string            // parking_reservations.id
	BookingID     uint64            // parking_reservations.booking_id
	OwnerID       uint64            // parking_reservations.owner_id
	LotID         uint64            // parking_reservations.lot_id
	LotName       string            // parking_reservations.lot_name
	Location      string            // parking_reservations.location
	StartTime     time.Time         // parking_reservations.start_time
	EndTime       time.Time         // parking_reservations.end_time
	Status        ReservationStatus // parking_reservations.status
	HoldExpiresAt time.Time         // parking_reservations.hold_expires_at
	PriceCents    int64             // parking_reservations.price_cents
	CreatedAt     time.Time         // parking_reservations.created_at
	UpdatedAt     time.Time         // parking_reservations.updated_at
}
