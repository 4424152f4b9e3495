package service

import (
	"context"
	"time"

	"shuttle-bot/internal/shuttle/domain"
	"shuttle-bot/internal/shuttle/transport"
	"shuttle-bot/pkg/logger"
)

// ReservationEngine processes passenger seat requests. The capacity
// mutation happens first, inside the registry's critical section; the
// driver notification and the posting update are best-effort side effects
// that never roll the decrement back.
type ReservationEngine struct {
	registry *Registry
	channel  transport.Publisher
	msgr     transport.Messenger
	events   EventPublisher
	logger   logger.Logger
}

func NewReservationEngine(
	registry *Registry,
	channel transport.Publisher,
	msgr transport.Messenger,
	events EventPublisher,
	log logger.Logger,
) *ReservationEngine {
	return &ReservationEngine{
		registry: registry,
		channel:  channel,
		msgr:     msgr,
		events:   events,
		logger:   log,
	}
}

// Reserve executes one seat request against a posting.
//
// Returns ErrProtocolViolation for counts outside the button menu range,
// ErrRideGone for unknown postings and ErrInsufficientSeats when the
// request exceeds the remaining seats; none of those mutate anything.
func (e *ReservationEngine) Reserve(ctx context.Context, postingID int64, seats int, requester domain.User) error {
	// The button menu only ever offers 1..capacity. Anything else is a
	// forged callback, rejected before the decrement logic runs.
	if seats < 1 || seats > e.registry.Capacity() {
		e.logger.WithFields(logger.LogFields{
			"posting_id": postingID,
			"seats":      seats,
			"user_id":    requester.ID,
		}).Error("reserve_protocol_violation", domain.ErrProtocolViolation)
		return domain.ErrProtocolViolation
	}

	res, err := e.registry.ReserveSeats(postingID, seats, requester)
	if err != nil {
		return err
	}

	e.logger.WithFields(logger.LogFields{
		"posting_id": postingID,
		"seats":      seats,
		"remaining":  res.Remaining,
		"reserved":   res.Reserved,
	}).Info("seats_reserved", "Seat reservation committed")

	// Side effects below are fire-and-forget relative to the committed
	// decrement.
	if err := e.msgr.SendMessage(ctx, res.DriverID, res.Notification, transport.MenuNone); err != nil {
		e.logger.WithFields(logger.LogFields{
			"driver_id": res.DriverID,
		}).Error("driver_notify_failed", err)
	}

	if err := e.channel.EditPosting(ctx, postingID, res.Caption, transport.SeatButtons(res.Remaining)); err != nil {
		e.logger.WithFields(logger.LogFields{
			"posting_id": postingID,
		}).Error("posting_update_failed", err)
	}

	e.events.Publish(ctx, domain.SeatsReservedEvent{
		PostingID:  postingID,
		DriverID:   res.DriverID,
		Requester:  requester.DisplayName(),
		Seats:      seats,
		Remaining:  res.Remaining,
		Reserved:   res.Reserved,
		ReservedAt: time.Now(),
	})

	return nil
}
