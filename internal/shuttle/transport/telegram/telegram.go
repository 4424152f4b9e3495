// Package telegram adapts the transport ports to the Telegram Bot API.
package telegram

import (
	"context"
	"fmt"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"shuttle-bot/internal/shuttle/transport"
	"shuttle-bot/pkg/logger"
)

// Client implements transport.Publisher and transport.Messenger over the
// Telegram Bot API, and runs the long-polling inbound loop.
type Client struct {
	api     *tgbotapi.BotAPI
	channel string // public channel username, e.g. "@titanshuttle"
	logger  logger.Logger
}

func New(token, channel string, log logger.Logger) (*Client, error) {
	api, err := tgbotapi.NewBotAPI(token)
	if err != nil {
		return nil, fmt.Errorf("telegram auth: %w", err)
	}

	log.WithFields(logger.LogFields{
		"bot": api.Self.UserName,
	}).Info("telegram_connected", "Bot API session established")

	return &Client{api: api, channel: channel, logger: log}, nil
}

// PublishPosting sends the ride photo with caption and seat keyboard to
// the public channel and returns the channel message id.
func (c *Client) PublishPosting(_ context.Context, p transport.Posting) (int64, error) {
	photo := tgbotapi.NewPhotoToChannel(c.channel, tgbotapi.FileID(p.PhotoRef))
	photo.Caption = p.Caption
	if kb := inlineKeyboard(p.Keyboard); kb != nil {
		photo.ReplyMarkup = *kb
	}

	sent, err := c.api.Send(photo)
	if err != nil {
		return 0, fmt.Errorf("send channel photo: %w", err)
	}
	return int64(sent.MessageID), nil
}

// EditPosting rewrites the caption and seat keyboard of a published
// posting. A nil grid removes the keyboard, which is how a sold-out ride
// loses its buttons.
func (c *Client) EditPosting(_ context.Context, postingID int64, caption string, kb transport.ButtonGrid) error {
	edit := tgbotapi.EditMessageCaptionConfig{
		BaseEdit: tgbotapi.BaseEdit{
			ChannelUsername: c.channel,
			MessageID:       int(postingID),
		},
		Caption: caption,
	}
	if markup := inlineKeyboard(kb); markup != nil {
		edit.ReplyMarkup = markup
	}

	if _, err := c.api.Request(edit); err != nil {
		return fmt.Errorf("edit posting %d: %w", postingID, err)
	}
	return nil
}

// DeletePosting removes a published posting from the channel.
func (c *Client) DeletePosting(_ context.Context, postingID int64) error {
	del := tgbotapi.DeleteMessageConfig{
		ChannelUsername: c.channel,
		MessageID:       int(postingID),
	}
	if _, err := c.api.Request(del); err != nil {
		return fmt.Errorf("delete posting %d: %w", postingID, err)
	}
	return nil
}

// SendMessage delivers a private text, optionally with one of the fixed
// reply keyboards.
func (c *Client) SendMessage(_ context.Context, to int64, text string, menu transport.ReplyMenu) error {
	msg := tgbotapi.NewMessage(to, text)
	switch menu {
	case transport.MenuDriverPanel:
		msg.ReplyMarkup = driverPanel()
	case transport.MenuShareLocation:
		msg.ReplyMarkup = shareLocationKeyboard()
	}

	if _, err := c.api.Send(msg); err != nil {
		return fmt.Errorf("send message to %d: %w", to, err)
	}
	return nil
}

// SendInline delivers a private text with an inline button grid.
func (c *Client) SendInline(_ context.Context, to int64, text string, kb transport.ButtonGrid) error {
	msg := tgbotapi.NewMessage(to, text)
	if markup := inlineKeyboard(kb); markup != nil {
		msg.ReplyMarkup = *markup
	}

	if _, err := c.api.Send(msg); err != nil {
		return fmt.Errorf("send inline message to %d: %w", to, err)
	}
	return nil
}

// EditText rewrites a previously sent private message.
func (c *Client) EditText(_ context.Context, chatID, messageID int64, text string) error {
	edit := tgbotapi.NewEditMessageText(chatID, int(messageID), text)
	if _, err := c.api.Request(edit); err != nil {
		return fmt.Errorf("edit message %d: %w", messageID, err)
	}
	return nil
}

// AnswerCallback acknowledges a button press.
func (c *Client) AnswerCallback(_ context.Context, callbackID, text string, alert bool) error {
	cb := tgbotapi.NewCallback(callbackID, text)
	if alert {
		cb = tgbotapi.NewCallbackWithAlert(callbackID, text)
	}
	if _, err := c.api.Request(cb); err != nil {
		return fmt.Errorf("answer callback: %w", err)
	}
	return nil
}

func inlineKeyboard(grid transport.ButtonGrid) *tgbotapi.InlineKeyboardMarkup {
	if len(grid) == 0 {
		return nil
	}
	var rows [][]tgbotapi.InlineKeyboardButton
	for _, gridRow := range grid {
		var row []tgbotapi.InlineKeyboardButton
		for _, b := range gridRow {
			row = append(row, tgbotapi.NewInlineKeyboardButtonData(b.Text, b.Data))
		}
		rows = append(rows, row)
	}
	markup := tgbotapi.NewInlineKeyboardMarkup(rows...)
	return &markup
}

func driverPanel() tgbotapi.ReplyKeyboardMarkup {
	return tgbotapi.NewReplyKeyboard(
		tgbotapi.NewKeyboardButtonRow(
			tgbotapi.NewKeyboardButton("New Ride"),
			tgbotapi.NewKeyboardButton("Update Plate"),
			tgbotapi.NewKeyboardButton("Update Photo"),
			tgbotapi.NewKeyboardButton("My ID"),
		),
	)
}

func shareLocationKeyboard() tgbotapi.ReplyKeyboardMarkup {
	kb := tgbotapi.NewReplyKeyboard(
		tgbotapi.NewKeyboardButtonRow(
			tgbotapi.NewKeyboardButtonLocation("📍 Share Location"),
		),
	)
	kb.OneTimeKeyboard = true
	return kb
}
