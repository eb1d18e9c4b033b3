package model

// Booking is the slice of a cinema reservation that the parking
// workflow needs: who owns it and whether it is still alive.  The full
// record lives in the reservations table managed by the seat side.
type Booking struct {
	ID     uint64 // reservations.id
	UserID uint64 // reservations.user_id
	Status string // reservations.status (PENDING, CONFIRMED, CANCELLED)
}
