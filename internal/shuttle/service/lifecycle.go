package service

import (
	"context"
	"time"

	"shuttle-bot/internal/shuttle/domain"
	"shuttle-bot/internal/shuttle/transport"
	"shuttle-bot/pkg/logger"
)

// Lifecycle moves a ride out of existence: the only transition a ride has
// after Open is Closed, and nothing reopens it.
type Lifecycle struct {
	registry *Registry
	channel  transport.Publisher
	events   EventPublisher
	logger   logger.Logger
}

func NewLifecycle(registry *Registry, channel transport.Publisher, events EventPublisher, log logger.Logger) *Lifecycle {
	return &Lifecycle{
		registry: registry,
		channel:  channel,
		events:   events,
		logger:   log,
	}
}

// StartTripResult reports what the close attempt did.
type StartTripResult struct {
	// Closed is false on repeat invocations: the registry had nothing
	// left to remove.
	Closed bool
	// PostingRemoved is false when the channel post could not be
	// deleted, e.g. because it was already gone. Cleanup proceeds anyway.
	PostingRemoved bool
}

// StartTrip closes the ride: registry entries go first, then the public
// posting is removed best-effort. Idempotent; a second call is a no-op.
func (l *Lifecycle) StartTrip(ctx context.Context, postingID int64) StartTripResult {
	closed, ok := l.registry.Close(postingID)
	if !ok {
		l.logger.WithFields(logger.LogFields{
			"posting_id": postingID,
		}).Debug("start_trip_noop", "Posting already closed, nothing to do")
		return StartTripResult{}
	}

	result := StartTripResult{Closed: true, PostingRemoved: true}
	if err := l.channel.DeletePosting(ctx, postingID); err != nil {
		result.PostingRemoved = false
		l.logger.WithFields(logger.LogFields{
			"posting_id": postingID,
		}).Error("posting_delete_failed", err)
	}

	l.logger.WithFields(logger.LogFields{
		"posting_id": postingID,
		"driver_id":  closed.DriverID,
		"reserved":   closed.Reserved,
	}).Info("ride_closed", "Trip started, posting taken down")

	l.events.Publish(ctx, domain.RideClosedEvent{
		PostingID: closed.PostingID,
		DriverID:  closed.DriverID,
		Route:     closed.Route,
		Reserved:  closed.Reserved,
		ClosedAt:  time.Now(),
	})

	return result
}
