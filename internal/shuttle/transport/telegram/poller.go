package telegram

import (
	"context"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"shuttle-bot/internal/shuttle/domain"
	"shuttle-bot/internal/shuttle/transport"
)

const pollTimeoutSeconds = 30

// Run long-polls the Bot API and dispatches typed events to the handler
// until the context is cancelled. Each update runs on its own goroutine;
// the services serialize whatever needs serializing.
func (c *Client) Run(ctx context.Context, handler transport.Handler) {
	u := tgbotapi.NewUpdate(0)
	u.Timeout = pollTimeoutSeconds
	updates := c.api.GetUpdatesChan(u)

	c.logger.Info("polling_started", "Listening for Telegram updates")

	for {
		select {
		case <-ctx.Done():
			c.api.StopReceivingUpdates()
			c.logger.Info("polling_stopped", "Update loop shut down")
			return
		case update, ok := <-updates:
			if !ok {
				return
			}
			go c.dispatch(ctx, handler, update)
		}
	}
}

func (c *Client) dispatch(ctx context.Context, handler transport.Handler, update tgbotapi.Update) {
	switch {
	case update.CallbackQuery != nil:
		cb := update.CallbackQuery
		if cb.Message == nil {
			return
		}
		handler.HandleCallback(ctx, transport.Callback{
			ID:        cb.ID,
			From:      userOf(cb.From),
			ChatID:    cb.Message.Chat.ID,
			MessageID: int64(cb.Message.MessageID),
			Data:      cb.Data,
		})

	case update.Message != nil:
		m := update.Message
		from := userOf(m.From)
		switch {
		case m.Location != nil:
			handler.HandleLocation(ctx, from, m.Location.Latitude, m.Location.Longitude)
		case len(m.Photo) > 0:
			// The last size is the largest rendition.
			handler.HandlePhoto(ctx, from, m.Photo[len(m.Photo)-1].FileID)
		case m.Text != "":
			handler.HandleText(ctx, from, m.Text)
		}
	}
}

func userOf(u *tgbotapi.User) domain.User {
	if u == nil {
		return domain.User{}
	}
	return domain.User{
		ID:        u.ID,
		Username:  u.UserName,
		FirstName: u.FirstName,
	}
}
