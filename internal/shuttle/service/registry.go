package service

import (
	"context"
	"fmt"
	"sync"
	"time"

	"shuttle-bot/internal/shuttle/domain"
	"shuttle-bot/internal/shuttle/transport"
	"shuttle-bot/pkg/logger"
)

// Registry is the authoritative in-memory table of open ride postings and
// the one-active-ride-per-driver index. A single mutex serializes create,
// reserve and close, which is what keeps the capacity invariant
// (remaining + reserved == capacity, remaining >= 0) unreachable to
// corruption: every check-then-mutate runs as one critical section.
//
// State is deliberately memory-resident; a process restart forgets all
// open rides.
type Registry struct {
	mu       sync.Mutex
	rides    map[int64]*domain.Ride // posting id -> ride
	active   map[int64]int64        // driver id -> posting id
	channel  transport.Publisher
	events   EventPublisher
	capacity int
	log      logger.Logger
}

func NewRegistry(channel transport.Publisher, events EventPublisher, capacity int, log logger.Logger) *Registry {
	return &Registry{
		rides:    make(map[int64]*domain.Ride),
		active:   make(map[int64]int64),
		channel:  channel,
		events:   events,
		capacity: capacity,
		log:      log,
	}
}

// Capacity returns the fixed per-ride seat capacity.
func (r *Registry) Capacity() int {
	return r.capacity
}

// HasActive reports whether the driver currently owns an open ride.
func (r *Registry) HasActive(driverID int64) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	_, ok := r.active[driverID]
	return ok
}

// Create publishes the posting for a completed draft and records the ride.
// The lock is held across the publish so the one-active-ride check, the
// channel post and the table inserts are atomic: a ride gets exactly one
// channel post, and a driver at most one open ride.
func (r *Registry) Create(ctx context.Context, driverID int64, draft *domain.RideDraft) (int64, error) {
	if !draft.IsComplete() {
		return 0, domain.ErrDraftIncomplete
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.active[driverID]; ok {
		return 0, domain.ErrAlreadyActive
	}

	caption := domain.Caption(domain.CaptionHeader(draft), r.capacity, 0, domain.MapLink(draft))
	postingID, err := r.channel.PublishPosting(ctx, transport.Posting{
		PhotoRef: draft.PhotoRef,
		Caption:  caption,
		Keyboard: transport.SeatButtons(r.capacity),
	})
	if err != nil {
		r.log.WithFields(logger.LogFields{
			"driver_id": driverID,
		}).Error("posting_publish_failed", err)
		return 0, fmt.Errorf("publish posting: %w", err)
	}

	ride := domain.NewRide(postingID, driverID, draft, r.capacity)
	r.rides[postingID] = ride
	r.active[driverID] = postingID

	r.log.WithFields(logger.LogFields{
		"driver_id":  driverID,
		"posting_id": postingID,
		"route":      ride.Route(),
	}).Info("ride_created", "Ride posted to channel and recorded")

	r.events.Publish(ctx, domain.RidePostedEvent{
		PostingID: postingID,
		DriverID:  driverID,
		Route:     ride.Route(),
		Price:     draft.Price,
		Capacity:  r.capacity,
		PostedAt:  time.Now(),
	})

	return postingID, nil
}

// reservationResult carries everything the reservation side effects need,
// computed under the registry lock so it reflects one consistent state.
type reservationResult struct {
	DriverID     int64
	Remaining    int
	Reserved     int
	Caption      string
	Notification string
	Route        string
}

// ReserveSeats looks the ride up and decrements its availability as one
// atomic unit. Missing rides fail with ErrRideGone, oversubscription with
// ErrInsufficientSeats; neither mutates anything.
func (r *Registry) ReserveSeats(postingID int64, seats int, requester domain.User) (reservationResult, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	ride, ok := r.rides[postingID]
	if !ok {
		return reservationResult{}, domain.ErrRideGone
	}
	if err := ride.Reserve(seats); err != nil {
		return reservationResult{}, err
	}

	return reservationResult{
		DriverID:     ride.DriverID(),
		Remaining:    ride.Remaining(),
		Reserved:     ride.Reserved(),
		Caption:      ride.Caption(),
		Notification: ride.NotificationText(requester, seats),
		Route:        ride.Route(),
	}, nil
}

// ClosedRide is the snapshot of a ride at the moment it was removed.
type ClosedRide struct {
	PostingID int64
	DriverID  int64
	Route     string
	Reserved  int
}

// Close removes the ride and the owning driver's active-ride entry.
// Returns false when the posting is unknown, which makes repeated close
// calls a no-op.
func (r *Registry) Close(postingID int64) (ClosedRide, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	ride, ok := r.rides[postingID]
	if !ok {
		return ClosedRide{}, false
	}
	delete(r.rides, postingID)
	if r.active[ride.DriverID()] == postingID {
		delete(r.active, ride.DriverID())
	}

	return ClosedRide{
		PostingID: postingID,
		DriverID:  ride.DriverID(),
		Route:     ride.Route(),
		Reserved:  ride.Reserved(),
	}, true
}

// RideView is the read-only projection served by the ops API.
type RideView struct {
	PostingID int64  `json:"posting_id"`
	DriverID  int64  `json:"driver_id"`
	Route     string `json:"route"`
	Capacity  int    `json:"capacity"`
	Remaining int    `json:"remaining"`
	Reserved  int    `json:"reserved"`
}

// Snapshot returns a consistent view of all open rides.
func (r *Registry) Snapshot() []RideView {
	r.mu.Lock()
	defer r.mu.Unlock()

	views := make([]RideView, 0, len(r.rides))
	for _, ride := range r.rides {
		views = append(views, RideView{
			PostingID: ride.PostingID(),
			DriverID:  ride.DriverID(),
			Route:     ride.Route(),
			Capacity:  ride.Capacity(),
			Remaining: ride.Remaining(),
			Reserved:  ride.Reserved(),
		})
	}
	return views
}
