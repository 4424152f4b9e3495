// Package transport defines the port between the ride services and the chat
// delivery mechanism. The services speak in captions, button grids and
// identities; how those render on the wire is the adapter's business.
package transport

import (
	"context"
	"strconv"
	"strings"

	"shuttle-bot/internal/shuttle/domain"
)

// Button is one interactive control carrying an opaque callback token.
type Button struct {
	Text string
	Data string
}

// ButtonGrid is a row-major button layout.
type ButtonGrid [][]Button

// ReplyMenu selects one of the fixed reply keyboards shown under the input
// box in a private chat.
type ReplyMenu int

const (
	MenuNone ReplyMenu = iota
	// MenuDriverPanel shows the New Ride / Update Plate / Update Photo /
	// My ID row.
	MenuDriverPanel
	// MenuShareLocation shows the one-time GPS share button.
	MenuShareLocation
)

// Posting is the public channel message advertising one ride.
type Posting struct {
	PhotoRef string
	Caption  string
	Keyboard ButtonGrid
}

// Publisher is the outbound port for the public channel.
type Publisher interface {
	// PublishPosting publishes the posting and returns its durable
	// message identifier.
	PublishPosting(ctx context.Context, p Posting) (int64, error)
	// EditPosting replaces the caption and button grid of a published
	// posting. A nil keyboard removes the controls entirely.
	EditPosting(ctx context.Context, postingID int64, caption string, kb ButtonGrid) error
	// DeletePosting removes a published posting.
	DeletePosting(ctx context.Context, postingID int64) error
}

// Messenger is the outbound port for private chats.
type Messenger interface {
	SendMessage(ctx context.Context, to int64, text string, menu ReplyMenu) error
	SendInline(ctx context.Context, to int64, text string, kb ButtonGrid) error
	EditText(ctx context.Context, chatID, messageID int64, text string) error
	// AnswerCallback acknowledges a button press, optionally with an
	// alert popup. Best-effort; timeouts are the caller's to swallow.
	AnswerCallback(ctx context.Context, callbackID, text string, alert bool) error
}

// Callback is an inbound button press, tagged with the pressing identity
// and the message it originated from.
type Callback struct {
	ID        string
	From      domain.User
	ChatID    int64
	MessageID int64
	Data      string
}

// Handler consumes the typed inbound events the adapter produces.
type Handler interface {
	HandleText(ctx context.Context, from domain.User, text string)
	HandlePhoto(ctx context.Context, from domain.User, photoRef string)
	HandleLocation(ctx context.Context, from domain.User, lat, lon float64)
	HandleCallback(ctx context.Context, cb Callback)
}

// Callback token encoding. Existing clients of this protocol depend on the
// exact format: seat buttons carry the literal decimal seat count, the
// trip-start button carries "start_trip_" + the decimal posting id.

const startTripPrefix = "start_trip_"

func SeatToken(seats int) string {
	return strconv.Itoa(seats)
}

func ParseSeatToken(data string) (int, bool) {
	seats, err := strconv.Atoi(data)
	if err != nil {
		return 0, false
	}
	return seats, true
}

func StartTripToken(postingID int64) string {
	return startTripPrefix + strconv.FormatInt(postingID, 10)
}

func ParseStartTripToken(data string) (int64, bool) {
	if !strings.HasPrefix(data, startTripPrefix) {
		return 0, false
	}
	id, err := strconv.ParseInt(strings.TrimPrefix(data, startTripPrefix), 10, 64)
	if err != nil {
		return 0, false
	}
	return id, true
}

// SeatButtons builds the reservation menu for 1..seatsLeft, three buttons
// per row. Returns nil when no seats remain.
func SeatButtons(seatsLeft int) ButtonGrid {
	var grid ButtonGrid
	var row []Button
	for i := 1; i <= seatsLeft; i++ {
		row = append(row, Button{
			Text: strconv.Itoa(i) + " Seat",
			Data: SeatToken(i),
		})
		if len(row) == 3 {
			grid = append(grid, row)
			row = nil
		}
	}
	if len(row) > 0 {
		grid = append(grid, row)
	}
	return grid
}

// StartTripButton builds the private control the driver uses to close the
// posting.
func StartTripButton(postingID int64) ButtonGrid {
	return ButtonGrid{{
		{Text: "🚀 Start Ride (Close Post)", Data: StartTripToken(postingID)},
	}}
}
