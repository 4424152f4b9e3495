// Package bot routes inbound chat events to the ride services: top-level
// commands and dialogue steps to the collector, seat buttons to the
// reservation engine, trip-start buttons to the lifecycle controller.
package bot

import (
	"context"
	"errors"
	"fmt"

	"shuttle-bot/internal/shuttle/domain"
	"shuttle-bot/internal/shuttle/service"
	"shuttle-bot/internal/shuttle/transport"
	"shuttle-bot/pkg/logger"
)

// Top-level commands, matching the driver panel buttons.
const (
	cmdStart       = "/start"
	cmdNewRide     = "New Ride"
	cmdUpdatePlate = "Update Plate"
	cmdUpdatePhoto = "Update Photo"
	cmdMyID        = "My ID"
)

type Bot struct {
	collector *service.Collector
	engine    *service.ReservationEngine
	lifecycle *service.Lifecycle
	msgr      transport.Messenger
	logger    logger.Logger
}

func New(
	collector *service.Collector,
	engine *service.ReservationEngine,
	lifecycle *service.Lifecycle,
	msgr transport.Messenger,
	log logger.Logger,
) *Bot {
	return &Bot{
		collector: collector,
		engine:    engine,
		lifecycle: lifecycle,
		msgr:      msgr,
		logger:    log,
	}
}

// HandleText routes a private text message. Top-level commands abort any
// in-progress dialogue before acting; everything else is a dialogue step.
func (b *Bot) HandleText(ctx context.Context, from domain.User, text string) {
	switch text {
	case cmdStart:
		b.collector.Reset(from.ID)
		if b.collector.Authorized(from.ID) {
			b.reply(ctx, from.ID, "🚖 TITAN Shuttle Driver Panel", transport.MenuDriverPanel)
		} else {
			b.reply(ctx, from.ID, "🚖 TITAN Shuttle", transport.MenuNone)
		}

	case cmdMyID:
		b.reply(ctx, from.ID, fmt.Sprintf("Your Telegram ID is:\n%d", from.ID), transport.MenuNone)

	case cmdNewRide:
		b.collector.Reset(from.ID)
		b.collector.BeginRide(ctx, from)

	case cmdUpdatePlate:
		b.collector.Reset(from.ID)
		b.collector.BeginFieldUpdate(ctx, from, domain.FieldPlate)

	case cmdUpdatePhoto:
		b.collector.Reset(from.ID)
		b.collector.BeginFieldUpdate(ctx, from, domain.FieldPhoto)

	default:
		b.collector.HandleText(ctx, from, text)
	}
}

// HandlePhoto routes an inbound image to the dialogue.
func (b *Bot) HandlePhoto(ctx context.Context, from domain.User, photoRef string) {
	b.collector.HandlePhoto(ctx, from, photoRef)
}

// HandleLocation routes an inbound GPS pair to the dialogue.
func (b *Bot) HandleLocation(ctx context.Context, from domain.User, lat, lon float64) {
	b.collector.HandleLocation(ctx, from, lat, lon)
}

// HandleCallback routes a button press. The press is acknowledged first;
// an acknowledgment timeout is a low-value failure and never stops the
// actual work.
func (b *Bot) HandleCallback(ctx context.Context, cb transport.Callback) {
	if err := b.msgr.AnswerCallback(ctx, cb.ID, "", false); err != nil {
		b.logger.Debug("callback_ack_failed", err.Error())
	}

	if postingID, ok := transport.ParseStartTripToken(cb.Data); ok {
		b.handleStartTrip(ctx, cb, postingID)
		return
	}

	if seats, ok := transport.ParseSeatToken(cb.Data); ok {
		b.handleReservation(ctx, cb, seats)
		return
	}

	b.logger.WithFields(logger.LogFields{
		"data": cb.Data,
	}).Debug("callback_unknown", "Unrecognized callback token ignored")
}

func (b *Bot) handleStartTrip(ctx context.Context, cb transport.Callback, postingID int64) {
	res := b.lifecycle.StartTrip(ctx, postingID)

	text := "✅ Trip Started! The post has been removed from the channel."
	if res.Closed && !res.PostingRemoved {
		text = "⚠️ Could not delete post (maybe already deleted)."
	}

	// The button lives on a private message; rewriting its text also
	// drops the button, so the close control disappears with the ride.
	if err := b.msgr.EditText(ctx, cb.ChatID, cb.MessageID, text); err != nil {
		b.logger.WithFields(logger.LogFields{
			"posting_id": postingID,
		}).Error("start_trip_reply_failed", err)
	}
}

func (b *Bot) handleReservation(ctx context.Context, cb transport.Callback, seats int) {
	// A seat callback originates from the channel posting itself, so the
	// message id is the posting id.
	err := b.engine.Reserve(ctx, cb.MessageID, seats, cb.From)
	switch {
	case err == nil:
		return
	case errors.Is(err, domain.ErrRideGone):
		b.alert(ctx, cb.ID, "Ride no longer available.")
	case errors.Is(err, domain.ErrInsufficientSeats):
		b.alert(ctx, cb.ID, "Not enough seats!")
	case errors.Is(err, domain.ErrProtocolViolation):
		b.alert(ctx, cb.ID, "Invalid request.")
	default:
		b.logger.WithFields(logger.LogFields{
			"posting_id": cb.MessageID,
		}).Error("reservation_failed", err)
	}
}

func (b *Bot) reply(ctx context.Context, to int64, text string, menu transport.ReplyMenu) {
	if err := b.msgr.SendMessage(ctx, to, text, menu); err != nil {
		b.logger.WithFields(logger.LogFields{
			"driver_id": to,
		}).Error("reply_failed", err)
	}
}

func (b *Bot) alert(ctx context.Context, callbackID, text string) {
	if err := b.msgr.AnswerCallback(ctx, callbackID, text, true); err != nil {
		b.logger.Debug("callback_alert_failed", err.Error())
	}
}
