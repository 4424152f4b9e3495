package domain

import "fmt"

// User identifies a chat participant as the transport reports them.
type User struct {
	ID        int64
	Username  string
	FirstName string
}

// DisplayName prefers the public handle and falls back to the given name.
func (u User) DisplayName() string {
	if u.Username != "" {
		return "@" + u.Username
	}
	return u.FirstName
}

// Ride is the core domain entity: one open posting with a fixed seat
// capacity. It is created exactly once per published posting and mutated
// only through Reserve; the registry serializes all access.
type Ride struct {
	postingID     int64
	driverID      int64
	route         string
	captionHeader string
	mapLink       string
	capacity      int
	remaining     int
	reserved      int
}

// NewRide creates an open ride with full availability.
func NewRide(postingID, driverID int64, draft *RideDraft, capacity int) *Ride {
	return &Ride{
		postingID:     postingID,
		driverID:      driverID,
		route:         draft.Route(),
		captionHeader: CaptionHeader(draft),
		mapLink:       MapLink(draft),
		capacity:      capacity,
		remaining:     capacity,
		reserved:      0,
	}
}

// Reserve atomically moves seats from remaining to reserved. The caller
// must hold the registry lock; the invariant remaining+reserved == capacity
// holds before and after.
func (r *Ride) Reserve(seats int) error {
	if seats < 1 || seats > r.capacity {
		return ErrProtocolViolation
	}
	if seats > r.remaining {
		return ErrInsufficientSeats
	}
	r.remaining -= seats
	r.reserved += seats
	return nil
}

// Caption renders the posting text for the current availability.
func (r *Ride) Caption() string {
	return Caption(r.captionHeader, r.remaining, r.reserved, r.mapLink)
}

func (r *Ride) PostingID() int64 { return r.postingID }
func (r *Ride) DriverID() int64  { return r.driverID }
func (r *Ride) Route() string    { return r.route }
func (r *Ride) Capacity() int    { return r.capacity }
func (r *Ride) Remaining() int   { return r.remaining }
func (r *Ride) Reserved() int    { return r.reserved }

// NotificationText is the private alert sent to the driver on a successful
// reservation.
func (r *Ride) NotificationText(requester User, seats int) string {
	return fmt.Sprintf("🔔 Reservation: %s booked %d seat(s) for %s",
		requester.DisplayName(), seats, r.route)
}
