package repository

import (
	"context"
	"database/sql"
	"errors"
	"strings"
	"time"

	"github.com/iliyamo/cinema-parking-reservation/internal/model"
)

// ParkingReservationRepo persists parking holds and reservations.  All
// timestamps are written and compared in UTC.  Status changes go through
// conditional updates so two requests racing on the same row cannot both
// win.
type ParkingReservationRepo struct {
	db *sql.DB
}

// NewParkingReservationRepo returns a new ParkingReservationRepo bound to the given database.
func NewParkingReservationRepo(db *sql.DB) *ParkingReservationRepo {
	return &ParkingReservationRepo{db: db}
}

const reservationColumns = `id, booking_id, owner_id, lot_id, lot_name, location, start_time, end_time, status, hold_expires_at, price_cents, created_at, updated_at`

// Create inserts a new reservation row.  The caller assigns the ID and
// timestamps.
func (r *ParkingReservationRepo) Create(ctx context.Context, res model.ParkingReservation) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO parking_reservations (`+reservationColumns+`) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		res.ID, res.BookingID, res.OwnerID, res.LotID, res.LotName, res.Location,
		res.StartTime.UTC(), res.EndTime.UTC(), string(res.Status), res.HoldExpiresAt.UTC(),
		res.PriceCents, res.CreatedAt.UTC(), res.UpdatedAt.UTC(),
	)
	return err
}

// CountOverlapping counts held or confirmed reservations of the lot whose
// window overlaps [start, end).  Windows that merely touch at an endpoint do
// not overlap.
func (r *ParkingReservationRepo) CountOverlapping(ctx context.Context, lotID uint64, start, end time.Time) (int, error) {
	var n int
	err := r.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM parking_reservations
          WHERE lot_id = ? AND status IN (?, ?) AND start_time < ? AND end_time > ?`,
		lotID, string(model.StatusHeld), string(model.StatusConfirmed), end.UTC(), start.UTC(),
	).Scan(&n)
	return n, err
}

// FindForOwner returns the reservation with the given ID when it belongs to
// ownerID and its status is one of statuses.  Any mismatch yields
// ErrReservationNotFound so callers cannot discover other users' holds.
func (r *ParkingReservationRepo) FindForOwner(ctx context.Context, id string, ownerID uint64, statuses ...model.ReservationStatus) (*model.ParkingReservation, error) {
	q := `SELECT ` + reservationColumns + ` FROM parking_reservations WHERE id = ? AND owner_id = ?`
	args := []interface{}{id, ownerID}
	if len(statuses) > 0 {
		q += ` AND status IN (` + placeholders(len(statuses)) + `)`
		for _, s := range statuses {
			args = append(args, string(s))
		}
	}
	res, err := scanReservation(r.db.QueryRowContext(ctx, q, args...))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrReservationNotFound
	}
	if err != nil {
		return nil, err
	}
	return res, nil
}

// ListByOwner returns every reservation of the owner, newest first.
func (r *ParkingReservationRepo) ListByOwner(ctx context.Context, ownerID uint64) ([]model.ParkingReservation, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT `+reservationColumns+` FROM parking_reservations WHERE owner_id = ? ORDER BY created_at DESC, id`,
		ownerID,
	)
	if err != nil {
		return nil, err
	}
	return collectReservations(rows)
}

// UpdateStatus moves the reservation from one status to another.  It
// returns ErrConflict when the row is no longer in status from.
func (r *ParkingReservationRepo) UpdateStatus(ctx context.Context, id string, from, to model.ReservationStatus, now time.Time) error {
	res, err := r.db.ExecContext(ctx,
		`UPDATE parking_reservations SET status = ?, updated_at = ? WHERE id = ? AND status = ?`,
		string(to), now.UTC(), id, string(from),
	)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrConflict
	}
	return nil
}

// DeleteHeldByBooking removes the booking's outstanding holds and returns
// how many were removed.  Confirmed and finished reservations are kept.
func (r *ParkingReservationRepo) DeleteHeldByBooking(ctx context.Context, bookingID uint64) (int64, error) {
	res, err := r.db.ExecContext(ctx,
		`DELETE FROM parking_reservations WHERE booking_id = ? AND status = ?`,
		bookingID, string(model.StatusHeld),
	)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

// HasConfirmedForBooking reports whether the booking already owns a
// confirmed parking reservation.
func (r *ParkingReservationRepo) HasConfirmedForBooking(ctx context.Context, bookingID uint64) (bool, error) {
	var n int
	err := r.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM parking_reservations WHERE booking_id = ? AND status = ?`,
		bookingID, string(model.StatusConfirmed),
	).Scan(&n)
	return n > 0, err
}

// ListExpiredHolds returns up to limit held reservations whose deadline is
// before now, oldest deadline first.
func (r *ParkingReservationRepo) ListExpiredHolds(ctx context.Context, now time.Time, limit int) ([]model.ParkingReservation, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT `+reservationColumns+` FROM parking_reservations
         WHERE status = ? AND hold_expires_at < ? ORDER BY hold_expires_at LIMIT ?`,
		string(model.StatusHeld), now.UTC(), limit,
	)
	if err != nil {
		return nil, err
	}
	return collectReservations(rows)
}

func collectReservations(rows *sql.Rows) ([]model.ParkingReservation, error) {
	defer rows.Close()
	out := make([]model.ParkingReservation, 0)
	for rows.Next() {
		res, err := scanReservation(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *res)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

func scanReservation(s rowScanner) (*model.ParkingReservation, error) {
	var res model.ParkingReservation
	var status string
	if err := s.Scan(
		&res.ID, &res.BookingID, &res.OwnerID, &res.LotID, &res.LotName, &res.Location,
		&res.StartTime, &res.EndTime, &status, &res.HoldExpiresAt, &res.PriceCents,
		&res.CreatedAt, &res.UpdatedAt,
	); err != nil {
		return nil, err
	}
	res.Status = model.ReservationStatus(status)
	res.StartTime = res.StartTime.UTC()
	res.EndTime = res.EndTime.UTC()
	res.HoldExpiresAt = res.HoldExpiresAt.UTC()
	res.CreatedAt = res.CreatedAt.UTC()
	res.UpdatedAt = res.UpdatedAt.UTC()
	return &res, nil
}

func placeholders(n int) string {
	if n <= 0 {
		return ""
	}
	return strings.TrimSuffix(strings.Repeat("?, ", n), ", ")
}
