package repository

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iliyamo/cinema-parking-reservation/internal/database"
	"github.com/iliyamo/cinema-parking-reservation/internal/model"
)

var t0 = time.Date(2026, 3, 14, 18, 0, 0, 0, time.UTC)

func newTestDB(t *testing.T) *sql.DB {
	t.Helper()
	db, err := database.OpenSQLite(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	require.NoError(t, database.EnsureSchema(context.Background(), db, database.DialectSQLite))
	return db
}

func seedLot(t *testing.T, db *sql.DB, lot model.ParkingLot) {
	t.Helper()
	require.NoError(t, NewParkingLotRepo(db).Upsert(context.Background(), lot))
}

func newReservation(id string, bookingID, ownerID, lotID uint64, start, end time.Time, status model.ReservationStatus) model.ParkingReservation {
	return model.ParkingReservation{
		ID: id, BookingID: bookingID, OwnerID: ownerID, LotID: lotID,
		LotName: "Lot A", Location: "Level -1",
		StartTime: start, EndTime: end, Status: status,
		HoldExpiresAt: t0.Add(15 * time.Minute), PriceCents: 1000,
		CreatedAt: t0, UpdatedAt: t0,
	}
}

func TestParkingLotRepo(t *testing.T) {
	db := newTestDB(t)
	repo := NewParkingLotRepo(db)
	ctx := context.Background()

	seedLot(t, db, model.ParkingLot{ID: 1, CinemaID: 7, Name: "Lot A", Location: "Level -1", Capacity: 2, PricePerHourCents: 500, IsActive: true})
	seedLot(t, db, model.ParkingLot{ID: 2, CinemaID: 7, Name: "Lot B", Capacity: 5, PricePerHourCents: 300, IsActive: false})
	seedLot(t, db, model.ParkingLot{ID: 3, CinemaID: 9, Name: "Lot C", Capacity: 1, PricePerHourCents: 200, IsActive: true})

	t.Run("GetByID", func(t *testing.T) {
		lot, err := repo.GetByID(ctx, 1)
		require.NoError(t, err)
		assert.Equal(t, "Lot A", lot.Name)
		assert.Equal(t, 2, lot.Capacity)
		assert.EqualValues(t, 500, lot.PricePerHourCents)
		assert.True(t, lot.IsActive)

		inactive, err := repo.GetByID(ctx, 2)
		require.NoError(t, err)
		assert.False(t, inactive.IsActive)

		_, err = repo.GetByID(ctx, 99)
		assert.ErrorIs(t, err, ErrLotNotFound)
	})

	t.Run("ListActive", func(t *testing.T) {
		all, err := repo.ListActive(ctx, nil)
		require.NoError(t, err)
		require.Len(t, all, 2)
		assert.EqualValues(t, 1, all[0].ID)
		assert.EqualValues(t, 3, all[1].ID)

		cinema := uint64(7)
		byCinema, err := repo.ListActive(ctx, &cinema)
		require.NoError(t, err)
		require.Len(t, byCinema, 1)
		assert.EqualValues(t, 1, byCinema[0].ID)

		none := uint64(404)
		empty, err := repo.ListActive(ctx, &none)
		require.NoError(t, err)
		assert.NotNil(t, empty)
		assert.Empty(t, empty)
	})

	t.Run("UpsertOverwrites", func(t *testing.T) {
		seedLot(t, db, model.ParkingLot{ID: 1, CinemaID: 7, Name: "Lot A+", Capacity: 1, PricePerHourCents: 600, IsActive: true})
		lot, err := repo.GetByID(ctx, 1)
		require.NoError(t, err)
		assert.Equal(t, "Lot A+", lot.Name)
		assert.Equal(t, 1, lot.Capacity)
	})

	t.Run("UpsertRequiresID", func(t *testing.T) {
		err := repo.Upsert(ctx, model.ParkingLot{Name: "nameless"})
		assert.Error(t, err)
	})
}

func TestParkingReservationRepoOverlap(t *testing.T) {
	db := newTestDB(t)
	repo := NewParkingReservationRepo(db)
	ctx := context.Background()
	seedLot(t, db, model.ParkingLot{ID: 1, CinemaID: 1, Name: "Lot A", Capacity: 3, PricePerHourCents: 500, IsActive: true})

	start, end := t0, t0.Add(3*time.Hour)
	require.NoError(t, repo.Create(ctx, newReservation("held", 10, 100, 1, start, end, model.StatusHeld)))
	require.NoError(t, repo.Create(ctx, newReservation("confirmed", 11, 101, 1, start, end, model.StatusConfirmed)))
	require.NoError(t, repo.Create(ctx, newReservation("released", 12, 102, 1, start, end, model.StatusReleased)))
	require.NoError(t, repo.Create(ctx, newReservation("cancelled", 13, 103, 1, start, end, model.StatusCancelled)))

	cases := []struct {
		name       string
		start, end time.Time
		want       int
	}{
		{"SameWindow", start, end, 2},
		{"Inside", start.Add(time.Hour), start.Add(2 * time.Hour), 2},
		{"StraddlesStart", start.Add(-time.Hour), start.Add(time.Minute), 2},
		{"EndsAtStart", start.Add(-time.Hour), start, 0},
		{"StartsAtEnd", end, end.Add(time.Hour), 0},
		{"Disjoint", end.Add(time.Hour), end.Add(2 * time.Hour), 0},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			n, err := repo.CountOverlapping(ctx, 1, tc.start, tc.end)
			require.NoError(t, err)
			assert.Equal(t, tc.want, n)
		})
	}

	n, err := repo.CountOverlapping(ctx, 2, start, end)
	require.NoError(t, err)
	assert.Zero(t, n)
}

func TestParkingReservationRepoLifecycle(t *testing.T) {
	db := newTestDB(t)
	repo := NewParkingReservationRepo(db)
	ctx := context.Background()
	seedLot(t, db, model.ParkingLot{ID: 1, CinemaID: 1, Name: "Lot A", Capacity: 3, PricePerHourCents: 500, IsActive: true})

	res := newReservation("r-1", 10, 100, 1, t0, t0.Add(time.Hour), model.StatusHeld)
	require.NoError(t, repo.Create(ctx, res))

	got, err := repo.FindForOwner(ctx, "r-1", 100, model.StatusHeld)
	require.NoError(t, err)
	assert.Equal(t, res.BookingID, got.BookingID)
	assert.True(t, got.StartTime.Equal(res.StartTime))
	assert.True(t, got.HoldExpiresAt.Equal(res.HoldExpiresAt))
	assert.Equal(t, model.StatusHeld, got.Status)

	_, err = repo.FindForOwner(ctx, "r-1", 999)
	assert.ErrorIs(t, err, ErrReservationNotFound)
	_, err = repo.FindForOwner(ctx, "r-1", 100, model.StatusConfirmed)
	assert.ErrorIs(t, err, ErrReservationNotFound)

	require.NoError(t, repo.UpdateStatus(ctx, "r-1", model.StatusHeld, model.StatusConfirmed, t0.Add(time.Minute)))
	assert.ErrorIs(t, repo.UpdateStatus(ctx, "r-1", model.StatusHeld, model.StatusReleased, t0.Add(time.Minute)), ErrConflict)

	has, err := repo.HasConfirmedForBooking(ctx, 10)
	require.NoError(t, err)
	assert.True(t, has)

	got, err = repo.FindForOwner(ctx, "r-1", 100, model.StatusHeld, model.StatusConfirmed)
	require.NoError(t, err)
	assert.Equal(t, model.StatusConfirmed, got.Status)
	assert.True(t, got.UpdatedAt.Equal(t0.Add(time.Minute)))
}

func TestParkingReservationRepoDeleteHeldByBooking(t *testing.T) {
	db := newTestDB(t)
	repo := NewParkingReservationRepo(db)
	ctx := context.Background()
	seedLot(t, db, model.ParkingLot{ID: 1, CinemaID: 1, Name: "Lot A", Capacity: 3, PricePerHourCents: 500, IsActive: true})

	require.NoError(t, repo.Create(ctx, newReservation("a", 10, 100, 1, t0, t0.Add(time.Hour), model.StatusHeld)))
	require.NoError(t, repo.Create(ctx, newReservation("b", 10, 100, 1, t0, t0.Add(time.Hour), model.StatusReleased)))
	require.NoError(t, repo.Create(ctx, newReservation("c", 11, 100, 1, t0, t0.Add(time.Hour), model.StatusHeld)))

	n, err := repo.DeleteHeldByBooking(ctx, 10)
	require.NoError(t, err)
	assert.EqualValues(t, 1, n)

	_, err = repo.FindForOwner(ctx, "a", 100)
	assert.ErrorIs(t, err, ErrReservationNotFound)
	_, err = repo.FindForOwner(ctx, "b", 100)
	assert.NoError(t, err)
	_, err = repo.FindForOwner(ctx, "c", 100)
	assert.NoError(t, err)
}

func TestParkingReservationRepoListings(t *testing.T) {
	db := newTestDB(t)
	repo := NewParkingReservationRepo(db)
	ctx := context.Background()
	seedLot(t, db, model.ParkingLot{ID: 1, CinemaID: 1, Name: "Lot A", Capacity: 3, PricePerHourCents: 500, IsActive: true})

	older := newReservation("older", 10, 100, 1, t0, t0.Add(time.Hour), model.StatusHeld)
	older.HoldExpiresAt = t0.Add(-time.Minute)
	newer := newReservation("newer", 11, 100, 1, t0, t0.Add(time.Hour), model.StatusConfirmed)
	newer.CreatedAt = t0.Add(time.Minute)
	other := newReservation("other", 12, 200, 1, t0, t0.Add(time.Hour), model.StatusHeld)
	for _, r := range []model.ParkingReservation{older, newer, other} {
		require.NoError(t, repo.Create(ctx, r))
	}

	mine, err := repo.ListByOwner(ctx, 100)
	require.NoError(t, err)
	require.Len(t, mine, 2)
	assert.Equal(t, "newer", mine[0].ID)
	assert.Equal(t, "older", mine[1].ID)

	expired, err := repo.ListExpiredHolds(ctx, t0, 10)
	require.NoError(t, err)
	require.Len(t, expired, 1)
	assert.Equal(t, "older", expired[0].ID)
}

func TestBookingRepoExistsForOwner(t *testing.T) {
	db := newTestDB(t)
	_, err := db.Exec(`INSERT INTO reservations (id, user_id, status) VALUES (1, 100, 'CONFIRMED')`)
	require.NoError(t, err)
	repo := NewBookingRepo(db)
	ctx := context.Background()

	ok, err := repo.ExistsForOwner(ctx, 1, 100)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = repo.ExistsForOwner(ctx, 1, 200)
	require.NoError(t, err)
	assert.False(t, ok)

	ok, err = repo.ExistsForOwner(ctx, 2, 100)
	require.NoError(t, err)
	assert.False(t, ok)

	b, err := repo.GetByID(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, model.Booking{ID: 1, UserID: 100, Status: "CONFIRMED"}, *b)
	_, err = repo.GetByID(ctx, 2)
	assert.ErrorIs(t, err, ErrBookingNotFound)
}
