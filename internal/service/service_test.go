package service

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/iliyamo/cinema-parking-reservation/internal/clock"
	"github.com/iliyamo/cinema-parking-reservation/internal/database"
	"github.com/iliyamo/cinema-parking-reservation/internal/model"
	"github.com/iliyamo/cinema-parking-reservation/internal/queue"
	"github.com/iliyamo/cinema-parking-reservation/internal/ratelimit"
	"github.com/iliyamo/cinema-parking-reservation/internal/repository"
)

const (
	alice uint64 = 100
	bob   uint64 = 200

	smallLot    uint64 = 1 // capacity 1, $5/h, cinema 7
	bigLot      uint64 = 2 // capacity 50, $3/h, cinema 7
	closedLot   uint64 = 3 // inactive
	otherCinema uint64 = 4 // capacity 2, cinema 9
)

var now0 = time.Date(2026, 3, 14, 12, 0, 0, 0, time.UTC)

type mockPublisher struct{ mock.Mock }

func (m *mockPublisher) Publish(ctx context.Context, ev queue.ParkingEvent) error {
	return m.Called(ctx, ev).Error(0)
}

func (m *mockPublisher) types() []queue.EventType {
	var out []queue.EventType
	for _, c := range m.Calls {
		out = append(out, c.Arguments.Get(1).(queue.ParkingEvent).Type)
	}
	return out
}

type harness struct {
	svc   *ParkingService
	clock *clock.Manual
	db    *sql.DB
	res   *repository.ParkingReservationRepo
	lots  *repository.ParkingLotRepo
	pub   *mockPublisher
}

type harnessOption func(*Deps)

func withLimiter(l ratelimit.Limiter) harnessOption { return func(d *Deps) { d.Limiter = l } }

func newHarness(t *testing.T, opts ...harnessOption) *harness {
	t.Helper()
	db, err := database.OpenSQLite(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	ctx := context.Background()
	require.NoError(t, database.EnsureSchema(ctx, db, database.DialectSQLite))

	lots := repository.NewParkingLotRepo(db)
	for _, lot := range []model.ParkingLot{
		{ID: smallLot, CinemaID: 7, Name: "Lot A", Location: "Level -1", Capacity: 1, PricePerHourCents: 500, IsActive: true},
		{ID: bigLot, CinemaID: 7, Name: "Lot B", Location: "Street", Capacity: 50, PricePerHourCents: 300, IsActive: true},
		{ID: closedLot, CinemaID: 7, Name: "Lot C", Capacity: 10, PricePerHourCents: 100, IsActive: false},
		{ID: otherCinema, CinemaID: 9, Name: "Lot D", Capacity: 2, PricePerHourCents: 400, IsActive: true},
	} {
		require.NoError(t, lots.Upsert(ctx, lot))
	}
	// bookings 1-9 belong to alice, 11-19 to bob
	for id := 1; id <= 19; id++ {
		owner := alice
		if id > 10 {
			owner = bob
		}
		_, err := db.Exec(`INSERT INTO reservations (id, user_id, status) VALUES (?, ?, 'CONFIRMED')`, id, owner)
		require.NoError(t, err)
	}

	clk := clock.NewManual(now0)
	pub := &mockPublisher{}
	pub.On("Publish", mock.Anything, mock.Anything).Return(nil)

	deps := Deps{
		Reservations: repository.NewParkingReservationRepo(db),
		Lots:         lots,
		Bookings:     repository.NewBookingRepo(db),
		Limiter:      ratelimit.NewSlidingWindow(1000, time.Minute, clk),
		Publisher:    pub,
		Clock:        clk,
	}
	for _, opt := range opts {
		opt(&deps)
	}
	return &harness{
		svc:   NewParkingService(deps, 15*time.Minute),
		clock: clk,
		db:    db,
		res:   deps.Reservations.(*repository.ParkingReservationRepo),
		lots:  lots,
		pub:   pub,
	}
}

func at(hhmm string) time.Time {
	t, err := time.Parse("15:04", hhmm)
	if err != nil {
		panic(err)
	}
	return time.Date(2026, 3, 14, t.Hour(), t.Minute(), 0, 0, time.UTC)
}

func holdInput(booking, lot uint64, from, to string, caller uint64) CreateHoldInput {
	return CreateHoldInput{BookingID: booking, LotID: lot, Start: at(from), End: at(to), CallerID: caller}
}

func (h *harness) status(t *testing.T, id string) model.ReservationStatus {
	t.Helper()
	var s string
	require.NoError(t, h.db.QueryRow(`SELECT status FROM parking_reservations WHERE id = ?`, id).Scan(&s))
	return model.ReservationStatus(s)
}

func (h *harness) countForBooking(t *testing.T, booking uint64, statuses ...model.ReservationStatus) int {
	t.Helper()
	n := 0
	rows, err := h.db.Query(`SELECT status FROM parking_reservations WHERE booking_id = ?`, booking)
	require.NoError(t, err)
	defer rows.Close()
	for rows.Next() {
		var s string
		require.NoError(t, rows.Scan(&s))
		for _, want := range statuses {
			if model.ReservationStatus(s) == want {
				n++
			}
		}
	}
	require.NoError(t, rows.Err())
	return n
}
