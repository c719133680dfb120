package telegram

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"

	"github.com/edgard/chatwidget/internal/conversation"
)

const sendMessageTimeout = 10 * time.Second

// Messenger is the part of the Bot API the relay needs. *bot.Bot satisfies it.
type Messenger interface {
	SendMessage(ctx context.Context, params *bot.SendMessageParams) (*models.Message, error)
	SendChatAction(ctx context.Context, params *bot.SendChatActionParams) (bool, error)
}

// chatView renders a widget into one Telegram chat. User messages are already
// visible in the chat and are not echoed. While held, bot messages are kept
// back and only the last one is sent on release.
type chatView struct {
	mu        sync.Mutex
	messenger Messenger
	chatID    int64
	interval  time.Duration
	logger    *slog.Logger

	count   int
	held    bool
	pending *conversation.Message
	stop    context.CancelFunc
	done    chan struct{}
}

func newChatView(m Messenger, chatID int64, typingInterval time.Duration, logger *slog.Logger) *chatView {
	return &chatView{
		messenger: m,
		chatID:    chatID,
		interval:  typingInterval,
		logger:    logger.With("chat_id", chatID),
	}
}

func (v *chatView) Insert(m conversation.Message) {
	v.mu.Lock()
	v.count++
	if m.Type != conversation.SenderBot {
		v.mu.Unlock()
		return
	}
	if v.held {
		v.pending = &m
		v.mu.Unlock()
		return
	}
	v.mu.Unlock()

	v.send(m.Text)
}

func (v *chatView) hold() {
	v.mu.Lock()
	v.held = true
	v.pending = nil
	v.mu.Unlock()
}

func (v *chatView) release() {
	v.mu.Lock()
	pending := v.pending
	v.held = false
	v.pending = nil
	v.mu.Unlock()

	if pending != nil {
		v.send(pending.Text)
	}
}

func (v *chatView) send(text string) {
	ctx, cancel := context.WithTimeout(context.Background(), sendMessageTimeout)
	defer cancel()

	if _, err := v.messenger.SendMessage(ctx, &bot.SendMessageParams{ChatID: v.chatID, Text: text}); err != nil {
		v.logger.ErrorContext(ctx, "Failed to send message", "error", err)
	}
}

// SetTyping sends the typing action at once and then every interval until
// switched off.
func (v *chatView) SetTyping(on bool) {
	v.mu.Lock()
	defer v.mu.Unlock()

	if !on {
		if v.stop != nil {
			v.stop()
			<-v.done
			v.stop, v.done = nil, nil
		}
		return
	}
	if v.stop != nil {
		return
	}

	ctx, cancel := context.WithCancel(context.Background())
	v.stop = cancel
	v.done = make(chan struct{})

	v.sendTyping(ctx)
	go v.keepTyping(ctx, v.done)
}

func (v *chatView) keepTyping(ctx context.Context, done chan struct{}) {
	defer close(done)

	ticker := time.NewTicker(v.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			v.sendTyping(ctx)
		}
	}
}

func (v *chatView) sendTyping(ctx context.Context) {
	if _, err := v.messenger.SendChatAction(ctx, &bot.SendChatActionParams{ChatID: v.chatID, Action: models.ChatActionTyping}); err != nil {
		if ctx.Err() != nil {
			return
		}
		v.logger.DebugContext(ctx, "Typing action failed", "error", err)
	}
}

func (v *chatView) SetOpen(bool) {}

func (v *chatView) ScrollToBottom() {}

func (v *chatView) Clear() {
	v.mu.Lock()
	v.count = 0
	v.mu.Unlock()
}

func (v *chatView) Len() int {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.count
}
