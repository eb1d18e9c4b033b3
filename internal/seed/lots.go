// Package seed loads reference data shipped with a deployment.
package seed

import (
	"context"
	"errors"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/iliyamo/cinema-parking-reservation/internal/model"
)

// LotsFile is the YAML document listing parking lots:
//
//	lots:
//	  - id: 1
//	    cinema_id: 7
//	    name: Lot A
//	    location: Level -1
//	    capacity: 40
//	    price_per_hour_cents: 500
//	    is_active: true
//
// is_active defaults to true when omitted.
type LotsFile struct {
	Lots []lotEntry `yaml:"lots"`
}

type lotEntry struct {
	ID                uint64 `yaml:"id"`
	CinemaID          uint64 `yaml:"cinema_id"`
	Name              string `yaml:"name"`
	Location          string `yaml:"location"`
	Capacity          int    `yaml:"capacity"`
	PricePerHourCents int64  `yaml:"price_per_hour_cents"`
	IsActive          *bool  `yaml:"is_active"`
}

func (e lotEntry) lot() model.ParkingLot {
	active := e.IsActive == nil || *e.IsActive
	return model.ParkingLot{
		ID:                e.ID,
		CinemaID:          e.CinemaID,
		Name:              e.Name,
		Location:          e.Location,
		Capacity:          e.Capacity,
		PricePerHourCents: e.PricePerHourCents,
		IsActive:          active,
	}
}

// LotUpserter persists one lot.  *repository.ParkingLotRepo implements it.
type LotUpserter interface {
	Upsert(ctx context.Context, lot model.ParkingLot) error
}

// LoadLots parses and validates the lots file at path.
func LoadLots(path string) ([]model.ParkingLot, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read lots file: %w", err)
	}
	var f LotsFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("parse lots file: %w", err)
	}
	seen := make(map[uint64]bool, len(f.Lots))
	lots := make([]model.ParkingLot, 0, len(f.Lots))
	var errs []error
	for i, e := range f.Lots {
		lot := e.lot()
		switch {
		case lot.ID == 0:
			errs = append(errs, fmt.Errorf("lot #%d: id is required", i+1))
		case seen[lot.ID]:
			errs = append(errs, fmt.Errorf("lot %d: duplicate id", lot.ID))
		case lot.Name == "":
			errs = append(errs, fmt.Errorf("lot %d: name is required", lot.ID))
		case lot.Capacity <= 0:
			errs = append(errs, fmt.Errorf("lot %d: capacity must be positive", lot.ID))
		case lot.PricePerHourCents < 0:
			errs = append(errs, fmt.Errorf("lot %d: price must not be negative", lot.ID))
		}
		seen[lot.ID] = true
		lots = append(lots, lot)
	}
	if err := errors.Join(errs...); err != nil {
		return nil, err
	}
	return lots, nil
}

// SeedLots loads path and upserts every lot, returning how many were
// written.
func SeedLots(ctx context.Context, path string, repo LotUpserter) (int, error) {
	lots, err := LoadLots(path)
	if err != nil {
		return 0, err
	}
	for i, lot := range lots {
		if err := repo.Upsert(ctx, lot); err != nil {
			return i, fmt.Errorf("upsert lot %d: %w", lot.ID, err)
		}
	}
	return len(lots), nil
}
