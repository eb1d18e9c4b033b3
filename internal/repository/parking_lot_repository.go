package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/iliyamo/cinema-parking-reservation/internal/model"
)

// ParkingLotRepo reads parking lots.  Lots are maintained by operators; the
// only write path here is the startup seeder.
type ParkingLotRepo struct {
	db *sql.DB
}

// NewParkingLotRepo returns a new ParkingLotRepo bound to the given database.
func NewParkingLotRepo(db *sql.DB) *ParkingLotRepo { return &ParkingLotRepo{db: db} }

const lotColumns = `id, cinema_id, name, location, capacity, price_per_hour_cents, is_active, created_at, updated_at`

// GetByID returns the lot with the given ID regardless of its active flag,
// or ErrLotNotFound.
func (r *ParkingLotRepo) GetByID(ctx context.Context, id uint64) (*model.ParkingLot, error) {
	row := r.db.QueryRowContext(ctx, `SELECT `+lotColumns+` FROM parking_lots WHERE id = ?`, id)
	lot, err := scanLot(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrLotNotFound
	}
	if err != nil {
		return nil, err
	}
	return lot, nil
}

// ListActive returns active lots ordered by ID.  When cinemaID is non-nil
// only lots of that cinema are returned.
func (r *ParkingLotRepo) ListActive(ctx context.Context, cinemaID *uint64) ([]model.ParkingLot, error) {
	q := `SELECT ` + lotColumns + ` FROM parking_lots WHERE is_active = ?`
	args := []interface{}{true}
	if cinemaID != nil {
		q += ` AND cinema_id = ?`
		args = append(args, *cinemaID)
	}
	q += ` ORDER BY id`
	rows, err := r.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	lots := make([]model.ParkingLot, 0)
	for rows.Next() {
		lot, err := scanLot(rows)
		if err != nil {
			return nil, err
		}
		lots = append(lots, *lot)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return lots, nil
}

// Upsert inserts the lot or, when a lot with the same ID exists, overwrites
// its mutable fields.  Lowering the capacity does not touch existing
// reservations.
func (r *ParkingLotRepo) Upsert(ctx context.Context, lot model.ParkingLot) error {
	if lot.ID == 0 {
		return fmt.Errorf("upsert parking lot %q: id is required", lot.Name)
	}
	now := time.Now().UTC()
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	committed := false
	defer func() {
		if !committed {
			_ = tx.Rollback()
		}
	}()
	res, err := tx.ExecContext(ctx,
		`UPDATE parking_lots SET cinema_id = ?, name = ?, location = ?, capacity = ?, price_per_hour_cents = ?, is_active = ?, updated_at = ? WHERE id = ?`,
		lot.CinemaID, lot.Name, lot.Location, lot.Capacity, lot.PricePerHourCents, lot.IsActive, now, lot.ID,
	)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO parking_lots (`+lotColumns+`) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			lot.ID, lot.CinemaID, lot.Name, lot.Location, lot.Capacity, lot.PricePerHourCents, lot.IsActive, now, now,
		); err != nil {
			return err
		}
	}
	if err := tx.Commit(); err != nil {
		return err
	}
	committed = true
	return nil
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanLot(s rowScanner) (*model.ParkingLot, error) {
	var lot model.ParkingLot
	if err := s.Scan(
		&lot.ID, &lot.CinemaID, &lot.Name, &lot.Location, &lot.Capacity,
		&lot.PricePerHourCents, &lot.IsActive, &lot.CreatedAt, &lot.UpdatedAt,
	); err != nil {
		return nil, err
	}
	lot.CreatedAt = lot.CreatedAt.UTC()
	lot.UpdatedAt = lot.UpdatedAt.UTC()
	return &lot, nil
}
