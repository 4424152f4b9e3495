package domain

import "time"

// DomainEvent is the interface for all domain events
type DomainEvent interface {
	EventType() string
	OccurredAt() time.Time
}

// RidePostedEvent is raised when a completed draft is published to the channel
type RidePostedEvent struct {
	PostingID int64     `json:"posting_id"`
	DriverID  int64     `json:"driver_id"`
	Route     string    `json:"route"`
	Price     string    `json:"price"`
	Capacity  int       `json:"capacity"`
	PostedAt  time.Time `json:"posted_at"`
}

func (e RidePostedEvent) EventType() string {
	return "ride.posted"
}

func (e RidePostedEvent) OccurredAt() time.Time {
	return e.PostedAt
}

// SeatsReservedEvent is raised after a successful seat decrement
type SeatsReservedEvent struct {
	PostingID  int64     `json:"posting_id"`
	DriverID   int64     `json:"driver_id"`
	Requester  string    `json:"requester"`
	Seats      int       `json:"seats"`
	Remaining  int       `json:"remaining"`
	Reserved   int       `json:"reserved"`
	ReservedAt time.Time `json:"reserved_at"`
}

func (e SeatsReservedEvent) EventType() string {
	return "ride.reserved"
}

func (e SeatsReservedEvent) OccurredAt() time.Time {
	return e.ReservedAt
}

// RideClosedEvent is raised when the driver starts the trip and the posting
// is taken down
type RideClosedEvent struct {
	PostingID int64     `json:"posting_id"`
	DriverID  int64     `json:"driver_id"`
	Route     string    `json:"route"`
	Reserved  int       `json:"reserved"`
	ClosedAt  time.Time `json:"closed_at"`
}

func (e RideClosedEvent) EventType() string {
	return "ride.closed"
}

func (e RideClosedEvent) OccurredAt() time.Time {
	return e.ClosedAt
}
