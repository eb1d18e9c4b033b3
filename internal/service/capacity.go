package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/iliyamo/cinema-parking-reservation/internal/model"
	"github.com/iliyamo/cinema-parking-reservation/internal/repository"
)

const (
	arrivalLead   = 30 * time.Minute
	parkingLength = 3 * time.Hour
	msPerHour     = int64(time.Hour / time.Millisecond)
)

// Window is a half-open interval [Start, End).
type Window struct {
	Start time.Time
	End   time.Time
}

// Valid reports whether Start is strictly before End.
func (w Window) Valid() bool { return w.Start.Before(w.End) }

// Overlaps applies the half-open overlap test: touching endpoints do not
// overlap.
func (w Window) Overlaps(o Window) bool {
	return w.Start.Before(o.End) && w.End.After(o.Start)
}

// WindowAroundShowtime is the conventional parking window for a showtime:
// from 30 minutes before until 3 hours after.
func WindowAroundShowtime(showtime time.Time) Window {
	return Window{Start: showtime.Add(-arrivalLead), End: showtime.Add(parkingLength)}
}

// Price returns the cost of w at pricePerHourCents, charging every started
// hour in full.  Invalid windows cost nothing.
func Price(w Window, pricePerHourCents int64) int64 {
	ms := w.End.Sub(w.Start).Milliseconds()
	if ms <= 0 {
		return 0
	}
	hours := (ms + msPerHour - 1) / msPerHour
	return hours * pricePerHourCents
}

// LotAvailability is one row of the browse listing.
type LotAvailability struct {
	LotID     uint64 `json:"lotId"`
	Name      string `json:"name"`
	Location  string `json:"location"`
	Available int    `json:"available"`
	Capacity  int    `json:"capacity"`
	PriceHint int64  `json:"priceHint"`
}

// remaining clamps at zero so a lot whose capacity was lowered below its
// current bookings simply reports as full.
func remaining(capacity, overlap int) int {
	if overlap >= capacity {
		return 0
	}
	return capacity - overlap
}

// Availability returns how many more reservations lot can take during w.
func (s *ParkingService) Availability(ctx context.Context, lot model.ParkingLot, w Window) (int, error) {
	n, err := s.reservations.CountOverlapping(ctx, lot.ID, w.Start, w.End)
	if err != nil {
		return 0, fmt.Errorf("count overlapping reservations: %w", err)
	}
	return remaining(lot.Capacity, n), nil
}

// LotAvailability is Availability by lot ID.  Missing and inactive lots
// yield ErrLotNotFound.
func (s *ParkingService) LotAvailability(ctx context.Context, lotID uint64, w Window) (int, error) {
	lot, err := s.activeLot(ctx, lotID)
	if err != nil {
		return 0, err
	}
	return s.Availability(ctx, *lot, w)
}

// ListAvailability reports availability during w for every active lot,
// restricted to one cinema when cinemaID is non-nil.
func (s *ParkingService) ListAvailability(ctx context.Context, cinemaID *uint64, w Window) ([]LotAvailability, error) {
	if !w.Valid() {
		return nil, ErrInvalidTimeRange
	}
	lots, err := s.lots.ListActive(ctx, cinemaID)
	if err != nil {
		return nil, fmt.Errorf("list parking lots: %w", err)
	}
	out := make([]LotAvailability, 0, len(lots))
	for _, lot := range lots {
		avail, err := s.Availability(ctx, lot, w)
		if err != nil {
			return nil, err
		}
		out = append(out, LotAvailability{
			LotID:     lot.ID,
			Name:      lot.Name,
			Location:  lot.Location,
			Available: avail,
			Capacity:  lot.Capacity,
			PriceHint: Price(w, lot.PricePerHourCents),
		})
	}
	return out, nil
}

func (s *ParkingService) activeLot(ctx context.Context, lotID uint64) (*model.ParkingLot, error) {
	lot, err := s.lots.GetByID(ctx, lotID)
	if errors.Is(err, repository.ErrLotNotFound) {
		return nil, ErrLotNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("load parking lot: %w", err)
	}
	if !lot.IsActive {
		return nil, ErrLotNotFound
	}
	return lot, nil
}
