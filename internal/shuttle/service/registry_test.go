package service

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"shuttle-bot/internal/shuttle/domain"
)

type recordingEvents struct {
	mu     sync.Mutex
	events []domain.DomainEvent
}

func (r *recordingEvents) Publish(_ context.Context, e domain.DomainEvent) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, e)
	return nil
}

func (r *recordingEvents) types() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []string
	for _, e := range r.events {
		out = append(out, e.EventType())
	}
	return out
}

func fullDraft() *domain.RideDraft {
	return &domain.RideDraft{
		Plate:     "AA123",
		PhotoRef:  "ph1",
		Color:     "red",
		StartName: "Bole",
		EndName:   "Piassa",
		Price:     "150",
	}
}

func newTestRegistry(t *testing.T) (*Registry, *fakeTransport, *recordingEvents) {
	t.Helper()
	tr := newFakeTransport()
	ev := &recordingEvents{}
	return NewRegistry(tr, ev, 5, testLogger(t)), tr, ev
}

func TestRegistryCreate(t *testing.T) {
	reg, tr, ev := newTestRegistry(t)

	postingID, err := reg.Create(context.Background(), 7, fullDraft())
	require.NoError(t, err)
	assert.Equal(t, int64(101), postingID)
	assert.True(t, reg.HasActive(7))

	require.Len(t, tr.published, 1)
	posting := tr.published[0]
	assert.Equal(t, "ph1", posting.PhotoRef)
	assert.Contains(t, posting.Caption, "Seats Available: 5\nReserved: 0")
	assert.Contains(t, posting.Caption, "From: Bole\nTo: Piassa")
	// 5 seat buttons in rows of three.
	require.Len(t, posting.Keyboard, 2)
	assert.Len(t, posting.Keyboard[0], 3)
	assert.Len(t, posting.Keyboard[1], 2)
	assert.Equal(t, "1", posting.Keyboard[0][0].Data)

	assert.Equal(t, []string{"ride.posted"}, ev.types())
}

func TestRegistryCreateAlreadyActive(t *testing.T) {
	reg, tr, _ := newTestRegistry(t)

	driverID := int64(1262116449)
	_, err := reg.Create(context.Background(), driverID, fullDraft())
	require.NoError(t, err)
	published := tr.publishCount()

	_, err = reg.Create(context.Background(), driverID, fullDraft())
	require.ErrorIs(t, err, domain.ErrAlreadyActive)
	// No second publish was attempted and no second ride recorded.
	assert.Equal(t, published, tr.publishCount())
	assert.Len(t, reg.Snapshot(), 1)
}

func TestRegistryCreatePublishFailure(t *testing.T) {
	reg, tr, ev := newTestRegistry(t)
	tr.publishErr = errors.New("channel unreachable")

	_, err := reg.Create(context.Background(), 7, fullDraft())
	require.Error(t, err)
	assert.False(t, reg.HasActive(7))
	assert.Empty(t, reg.Snapshot())
	assert.Empty(t, ev.types())

	// The driver slot is free again once the transport recovers.
	tr.publishErr = nil
	_, err = reg.Create(context.Background(), 7, fullDraft())
	require.NoError(t, err)
}

func TestRegistryCreateIncompleteDraft(t *testing.T) {
	reg, tr, _ := newTestRegistry(t)

	draft := fullDraft()
	draft.EndName = ""
	_, err := reg.Create(context.Background(), 7, draft)
	require.ErrorIs(t, err, domain.ErrDraftIncomplete)
	assert.Zero(t, tr.publishCount())
}

func TestRegistryCloseIsIdempotent(t *testing.T) {
	reg, _, _ := newTestRegistry(t)

	postingID, err := reg.Create(context.Background(), 7, fullDraft())
	require.NoError(t, err)

	closed, ok := reg.Close(postingID)
	require.True(t, ok)
	assert.Equal(t, int64(7), closed.DriverID)
	assert.False(t, reg.HasActive(7))
	assert.Empty(t, reg.Snapshot())

	_, ok = reg.Close(postingID)
	assert.False(t, ok)
}

func TestRegistrySnapshot(t *testing.T) {
	reg, _, _ := newTestRegistry(t)

	p1, err := reg.Create(context.Background(), 7, fullDraft())
	require.NoError(t, err)

	second := fullDraft()
	second.StartName = "Mexico"
	_, err = reg.Create(context.Background(), 8, second)
	require.NoError(t, err)

	_, err = reg.ReserveSeats(p1, 2, domain.User{ID: 55, FirstName: "Sara"})
	require.NoError(t, err)

	views := reg.Snapshot()
	require.Len(t, views, 2)
	for _, v := range views {
		assert.Equal(t, v.Capacity, v.Remaining+v.Reserved)
		if v.PostingID == p1 {
			assert.Equal(t, 3, v.Remaining)
			assert.Equal(t, 2, v.Reserved)
		}
	}
}
