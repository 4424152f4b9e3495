package service

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"shuttle-bot/internal/shuttle/domain"
)

func newTestEngine(t *testing.T) (*ReservationEngine, *Registry, *fakeTransport, *recordingEvents) {
	t.Helper()
	reg, tr, ev := newTestRegistry(t)
	engine := NewReservationEngine(reg, tr, tr, ev, testLogger(t))
	return engine, reg, tr, ev
}

func TestReserveSuccess(t *testing.T) {
	engine, reg, tr, ev := newTestEngine(t)
	postingID, err := reg.Create(context.Background(), 7, fullDraft())
	require.NoError(t, err)

	passenger := domain.User{ID: 55, Username: "sara"}
	require.NoError(t, engine.Reserve(context.Background(), postingID, 3, passenger))

	// State committed.
	views := reg.Snapshot()
	require.Len(t, views, 1)
	assert.Equal(t, 2, views[0].Remaining)
	assert.Equal(t, 3, views[0].Reserved)

	// Driver notified with handle, count and route.
	msgs := tr.messagesTo(7)
	require.Len(t, msgs, 1)
	assert.Equal(t, "🔔 Reservation: @sara booked 3 seat(s) for Bole → Piassa", msgs[0].Text)

	// Posting caption and buttons regenerated for the new availability.
	require.Len(t, tr.edits, 1)
	assert.Contains(t, tr.edits[0].Caption, "Seats Available: 2\nReserved: 3")
	require.Len(t, tr.edits[0].Keyboard, 1)
	assert.Len(t, tr.edits[0].Keyboard[0], 2)

	assert.Equal(t, []string{"ride.posted", "ride.reserved"}, ev.types())
}

func TestReserveInsufficientLeavesStateUnchanged(t *testing.T) {
	engine, reg, tr, _ := newTestEngine(t)
	postingID, err := reg.Create(context.Background(), 7, fullDraft())
	require.NoError(t, err)

	require.NoError(t, engine.Reserve(context.Background(), postingID, 3, domain.User{ID: 55}))

	err = engine.Reserve(context.Background(), postingID, 3, domain.User{ID: 56})
	require.ErrorIs(t, err, domain.ErrInsufficientSeats)

	views := reg.Snapshot()
	assert.Equal(t, 2, views[0].Remaining)
	assert.Equal(t, 3, views[0].Reserved)
	// The refused request produced no posting edit and no notification.
	assert.Len(t, tr.edits, 1)
	assert.Len(t, tr.messagesTo(7), 1)
}

func TestReserveGone(t *testing.T) {
	engine, _, tr, _ := newTestEngine(t)

	err := engine.Reserve(context.Background(), 999, 1, domain.User{ID: 55})
	require.ErrorIs(t, err, domain.ErrRideGone)
	assert.Empty(t, tr.edits)
}

func TestReserveProtocolViolation(t *testing.T) {
	engine, reg, tr, _ := newTestEngine(t)
	postingID, err := reg.Create(context.Background(), 7, fullDraft())
	require.NoError(t, err)

	for _, seats := range []int{0, -1, 6, 100} {
		err := engine.Reserve(context.Background(), postingID, seats, domain.User{ID: 55})
		assert.ErrorIs(t, err, domain.ErrProtocolViolation, "seats=%d", seats)
	}

	views := reg.Snapshot()
	assert.Equal(t, 5, views[0].Remaining)
	assert.Empty(t, tr.edits)
}

func TestReserveSoldOutRemovesButtons(t *testing.T) {
	engine, reg, tr, _ := newTestEngine(t)
	postingID, err := reg.Create(context.Background(), 7, fullDraft())
	require.NoError(t, err)

	require.NoError(t, engine.Reserve(context.Background(), postingID, 5, domain.User{ID: 55}))

	require.Len(t, tr.edits, 1)
	assert.Contains(t, tr.edits[0].Caption, "Seats Available: 0\nReserved: 5")
	assert.Nil(t, tr.edits[0].Keyboard)
}

func TestReserveNotificationFailureDoesNotRollBack(t *testing.T) {
	engine, reg, tr, _ := newTestEngine(t)
	postingID, err := reg.Create(context.Background(), 7, fullDraft())
	require.NoError(t, err)

	tr.sendErr = assert.AnError
	require.NoError(t, engine.Reserve(context.Background(), postingID, 2, domain.User{ID: 55}))

	views := reg.Snapshot()
	assert.Equal(t, 3, views[0].Remaining)
}

func TestConcurrentReservationsNeverOversell(t *testing.T) {
	engine, reg, _, _ := newTestEngine(t)
	postingID, err := reg.Create(context.Background(), 7, fullDraft())
	require.NoError(t, err)

	const workers = 40
	var wg sync.WaitGroup
	var mu sync.Mutex
	granted := 0

	for i := 0; i < workers; i++ {
		seats := i%3 + 1
		wg.Add(1)
		go func(seats int, passenger int64) {
			defer wg.Done()
			if err := engine.Reserve(context.Background(), postingID, seats, domain.User{ID: passenger}); err == nil {
				mu.Lock()
				granted += seats
				mu.Unlock()
			}
		}(seats, int64(1000+i))
	}
	wg.Wait()

	views := reg.Snapshot()
	require.Len(t, views, 1)
	assert.LessOrEqual(t, granted, 5)
	assert.Equal(t, granted, views[0].Reserved)
	assert.Equal(t, 5-granted, views[0].Remaining)
	assert.GreaterOrEqual(t, views[0].Remaining, 0)
}

func TestConcurrentReserveAndClose(t *testing.T) {
	engine, reg, tr, ev := newTestEngine(t)
	lifecycle := NewLifecycle(reg, tr, ev, testLogger(t))
	postingID, err := reg.Create(context.Background(), 7, fullDraft())
	require.NoError(t, err)

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func(passenger int64) {
			defer wg.Done()
			engine.Reserve(context.Background(), postingID, 1, domain.User{ID: passenger})
		}(int64(2000 + i))
	}
	wg.Add(1)
	go func() {
		defer wg.Done()
		lifecycle.StartTrip(context.Background(), postingID)
	}()
	wg.Wait()

	// Whatever interleaving happened, the ride is gone and reservations
	// against it now report Gone.
	assert.Empty(t, reg.Snapshot())
	err = engine.Reserve(context.Background(), postingID, 1, domain.User{ID: 3000})
	assert.ErrorIs(t, err, domain.ErrRideGone)
}
