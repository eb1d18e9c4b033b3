package repository

import (
	"context"
	"database/sql"
	"errors"

	"github.com/iliyamo/cinema-parking-reservation/internal/model"
)

// BookingRepo looks up cinema bookings (rows of the reservations table
// written by the seat checkout) on behalf of the parking workflow.
type BookingRepo struct {
	db *sql.DB
}

// NewBookingRepo returns a new BookingRepo bound to the given database.
func NewBookingRepo(db *sql.DB) *BookingRepo { return &BookingRepo{db: db} }

// GetByID returns the booking or ErrBookingNotFound.
func (r *BookingRepo) GetByID(ctx context.Context, id uint64) (*model.Booking, error) {
	var b model.Booking
	err := r.db.QueryRowContext(ctx,
		`SELECT id, user_id, status FROM reservations WHERE id = ?`, id,
	).Scan(&b.ID, &b.UserID, &b.Status)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrBookingNotFound
	}
	if err != nil {
		return nil, err
	}
	return &b, nil
}

// ExistsForOwner reports whether booking bookingID exists and belongs to
// ownerID.  A booking owned by someone else is indistinguishable from a
// missing one.
func (r *BookingRepo) ExistsForOwner(ctx context.Context, bookingID, ownerID uint64) (bool, error) {
	b, err := r.GetByID(ctx, bookingID)
	if errors.Is(err, ErrBookingNotFound) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return b.UserID == ownerID, nil
}
