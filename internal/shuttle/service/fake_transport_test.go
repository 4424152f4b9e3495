package service

import (
	"context"
	"sync"
	"testing"

	"shuttle-bot/internal/shuttle/transport"
	"shuttle-bot/pkg/logger"
)

// fakeTransport records every outbound call and implements both the
// Publisher and Messenger ports.
type fakeTransport struct {
	mu sync.Mutex

	nextPostingID int64
	publishErr    error
	deleteErr     error
	sendErr       error

	published []transport.Posting
	edits     []postingEdit
	deleted   []int64
	messages  []sentMessage
	inlines   []sentInline
	textEdits []textEdit
}

type postingEdit struct {
	PostingID int64
	Caption   string
	Keyboard  transport.ButtonGrid
}

type sentMessage struct {
	To   int64
	Text string
	Menu transport.ReplyMenu
}

type sentInline struct {
	To       int64
	Text     string
	Keyboard transport.ButtonGrid
}

type textEdit struct {
	ChatID    int64
	MessageID int64
	Text      string
}

func newFakeTransport() *fakeTransport {
	return &fakeTransport{nextPostingID: 100}
}

func (f *fakeTransport) PublishPosting(_ context.Context, p transport.Posting) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.publishErr != nil {
		return 0, f.publishErr
	}
	f.nextPostingID++
	f.published = append(f.published, p)
	return f.nextPostingID, nil
}

func (f *fakeTransport) EditPosting(_ context.Context, postingID int64, caption string, kb transport.ButtonGrid) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.edits = append(f.edits, postingEdit{PostingID: postingID, Caption: caption, Keyboard: kb})
	return nil
}

func (f *fakeTransport) DeletePosting(_ context.Context, postingID int64) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.deleteErr != nil {
		return f.deleteErr
	}
	f.deleted = append(f.deleted, postingID)
	return nil
}

func (f *fakeTransport) SendMessage(_ context.Context, to int64, text string, menu transport.ReplyMenu) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.sendErr != nil {
		return f.sendErr
	}
	f.messages = append(f.messages, sentMessage{To: to, Text: text, Menu: menu})
	return nil
}

func (f *fakeTransport) SendInline(_ context.Context, to int64, text string, kb transport.ButtonGrid) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.inlines = append(f.inlines, sentInline{To: to, Text: text, Keyboard: kb})
	return nil
}

func (f *fakeTransport) EditText(_ context.Context, chatID, messageID int64, text string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.textEdits = append(f.textEdits, textEdit{ChatID: chatID, MessageID: messageID, Text: text})
	return nil
}

func (f *fakeTransport) AnswerCallback(_ context.Context, callbackID, text string, alert bool) error {
	return nil
}

func (f *fakeTransport) publishCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.published)
}

func (f *fakeTransport) lastMessage() (sentMessage, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if len(f.messages) == 0 {
		return sentMessage{}, false
	}
	return f.messages[len(f.messages)-1], true
}

func (f *fakeTransport) messagesTo(id int64) []sentMessage {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []sentMessage
	for _, m := range f.messages {
		if m.To == id {
			out = append(out, m)
		}
	}
	return out
}

func testLogger(t *testing.T) logger.Logger {
	t.Helper()
	return logger.NewLogger("test")
}
