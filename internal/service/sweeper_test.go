package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"github.com/iliyamo/cinema-parking-reservation/internal/model"
	"github.com/iliyamo/cinema-parking-reservation/internal/queue"
)

func TestSweepExpired(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	stale, err := h.svc.CreateHold(ctx, holdInput(1, smallLot, "14:00", "16:00", alice))
	require.NoError(t, err)
	confirmed, err := h.svc.CreateHold(ctx, holdInput(2, bigLot, "14:00", "16:00", alice))
	require.NoError(t, err)
	require.NoError(t, h.svc.Confirm(ctx, confirmed.ID, alice, nil))

	h.clock.Advance(10 * time.Minute)
	fresh, err := h.svc.CreateHold(ctx, holdInput(3, bigLot, "14:00", "16:00", alice))
	require.NoError(t, err)

	h.clock.Advance(6 * time.Minute)
	n, err := h.svc.SweepExpired(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, n)
	assert.Equal(t, model.StatusReleased, h.status(t, stale.ID))
	assert.Equal(t, model.StatusConfirmed, h.status(t, confirmed.ID))
	assert.Equal(t, model.StatusHeld, h.status(t, fresh.ID))

	n, err = h.svc.SweepExpired(ctx)
	require.NoError(t, err)
	assert.Zero(t, n)

	types := h.pub.types()
	assert.Equal(t, queue.EventHoldExpired, types[len(types)-1])
}

func TestRunSweeperStopsWithContext(t *testing.T) {
	h := newHarness(t)
	defer goleak.VerifyNone(t, goleak.IgnoreCurrent())

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	res, err := h.svc.CreateHold(ctx, holdInput(1, smallLot, "14:00", "16:00", alice))
	require.NoError(t, err)
	h.clock.Advance(time.Hour)

	done := make(chan struct{})
	go func() {
		h.svc.RunSweeper(ctx, 10*time.Millisecond)
		close(done)
	}()

	require.Eventually(t, func() bool {
		var s string
		if err := h.db.QueryRow(`SELECT status FROM parking_reservations WHERE id = ?`, res.ID).Scan(&s); err != nil {
			return false
		}
		return s == string(model.StatusReleased)
	}, 2*time.Second, 10*time.Millisecond)

	cancel()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("sweeper did not stop")
	}
}

func TestRunSweeperDisabled(t *testing.T) {
	h := newHarness(t)
	done := make(chan struct{})
	go func() {
		h.svc.RunSweeper(context.Background(), 0)
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("disabled sweeper should return immediately")
	}
}
