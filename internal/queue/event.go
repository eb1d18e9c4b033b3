// Package queue defines the parking events exchanged over the message broker
// together with their publisher and the audit consumer.
package queue

import (
	"time"

	"github.com/iliyamo/cinema-parking-reservation/internal/model"
)

// EventType names what happened to a parking reservation.
type EventType string

const (
	EventHoldCreated         EventType = "parking.hold.created"
	EventHoldConfirmed       EventType = "parking.hold.confirmed"
	EventHoldReleased        EventType = "parking.hold.released"
	EventReservationCanceled EventType = "parking.hold.cancelled"
	EventHoldExpired         EventType = "parking.hold.expired"
)

// DefaultQueue is the durable queue parking events are routed to.
const DefaultQueue = "parking.events"

// ParkingEvent is published after every successful reservation change.  It
// carries enough information for downstream consumers to log, notify or
// account without querying the primary database.
type ParkingEvent struct {
	Type          EventType `json:"type"`
	ReservationID string    `json:"reservation_id"`
	BookingID     uint64    `json:"booking_id"`
	OwnerID       uint64    `json:"owner_id"`
	LotID         uint64    `json:"lot_id"`
	LotName       string    `json:"lot_name"`
	Status        string    `json:"status"`
	StartTime     string    `json:"start_time"`
	EndTime       string    `json:"end_time"`
	PriceCents    int64     `json:"price_cents"`
	OccurredAt    string    `json:"occurred_at"`
}

// NewParkingEvent describes res after a change of type typ at instant at.
// Times are formatted as RFC 3339 in UTC.
func NewParkingEvent(typ EventType, res model.ParkingReservation, at time.Time) ParkingEvent {
	return ParkingEvent{
		Type:          typ,
		ReservationID: res.ID,
		BookingID:     res.BookingID,
		OwnerID:       res.OwnerID,
		LotID:         res.LotID,
		LotName:       res.LotName,
		Status:        string(res.Status),
		StartTime:     res.StartTime.UTC().Format(time.RFC3339),
		EndTime:       res.EndTime.UTC().Format(time.RFC3339),
		PriceCents:    res.PriceCents,
		OccurredAt:    at.UTC().Format(time.RFC3339),
	}
}
