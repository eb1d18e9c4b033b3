package model

import "time"

// ParkingLot is a car park attached to a cinema.  Lots are reference
// data for the parking workflow: the reservation core only reads them.
// Inactive lots are hidden from availability queries and cannot be held.
//
// Fields:
//
//	ID                – primary key identifier.
//	CinemaID          – cinema the lot serves.
//	Name              – display name.
//	Location          – free-form address or directions.
//	Capacity          – maximum concurrent reservations.
//	PricePerHourCents – hourly rate in cents.
//	IsActive          – whether the lot accepts reservations.
//	CreatedAt         – creation timestamp.
//	UpdatedAt         – last update timestamp.
type ParkingLot struct {
	ID                uint64    `json:"id"`                   // parking_lots.id
	CinemaID          uint64    `json:"cinema_id"`            // parking_lots.cinema_id
	Name              string    `json:"name"`                 // parking_lots.name
	Location          string    `json:"location"`             // parking_lots.location
	Capacity          int       `json:"capacity"`             // parking_lots.capacity
	PricePerHourCents int64     `json:"price_per_hour_cents"` // parking_lots.price_per_hour_cents
	IsActive          bool      `json:"is_active"`            // parking_lots.is_active
	CreatedAt         time.Time `json:"created_at"`           // parking_lots.created_at
	UpdatedAt         time.Time `json:"updated_at"`           // parking_lots.updated_at
}
