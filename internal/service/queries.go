package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/iliyamo/cinema-parking-reservation/internal/model"
	"github.com/iliyamo/cinema-parking-reservation/internal/repository"
)

// GetReservation returns one of the caller's reservations in any status.
func (s *ParkingService) GetReservation(ctx context.Context, id string, callerID uint64) (*model.ParkingReservation, error) {
	res, err := s.reservations.FindForOwner(ctx, id, callerID)
	if errors.Is(err, repository.ErrReservationNotFound) {
		return nil, ErrReservationNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("load reservation: %w", err)
	}
	return res, nil
}

// ListReservations returns the caller's reservations, newest first.
func (s *ParkingService) ListReservations(ctx context.Context, callerID uint64) ([]model.ParkingReservation, error) {
	out, err := s.reservations.ListByOwner(ctx, callerID)
	if err != nil {
		return nil, fmt.Errorf("list reservations: %w", err)
	}
	return out, nil
}
