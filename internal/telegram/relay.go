// Package telegram presents the chat widget inside Telegram chats.
package telegram

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"sync"
	"time"

	"github.com/go-telegram/bot"

	"github.com/edgard/chatwidget/internal/conversation"
	"github.com/edgard/chatwidget/internal/storage"
	"github.com/edgard/chatwidget/internal/widget"
)

// RelayConfig wires a relay.
type RelayConfig struct {
	Backend        storage.Backend
	Sender         widget.Sender
	Widget         widget.Options
	ResetMessage   string
	BusyMessage    string
	TypingInterval time.Duration
}

// Relay gives every Telegram chat its own widget, backed by its own storage
// namespace.
type Relay struct {
	cfg    RelayConfig
	logger *slog.Logger

	mu    sync.Mutex
	chats map[int64]*chat
}

type chat struct {
	widget *widget.Widget
	view   *chatView
}

// NewRelay returns a relay with no open chats.
func NewRelay(cfg RelayConfig, logger *slog.Logger) *Relay {
	if logger == nil {
		logger = slog.Default()
	}
	if cfg.TypingInterval <= 0 {
		cfg.TypingInterval = 4 * time.Second
	}
	return &Relay{
		cfg:    cfg,
		logger: logger.With("component", "telegram_relay"),
		chats:  make(map[int64]*chat),
	}
}

// Namespace is the storage namespace of a chat.
func Namespace(chatID int64) string {
	return "tg:" + strconv.FormatInt(chatID, 10)
}

func (r *Relay) chat(m Messenger, chatID int64) *chat {
	r.mu.Lock()
	defer r.mu.Unlock()

	if c, ok := r.chats[chatID]; ok {
		return c
	}

	view := newChatView(m, chatID, r.cfg.TypingInterval, r.logger)
	store := conversation.NewStore(storage.Namespace(r.cfg.Backend, Namespace(chatID)), r.logger)
	c := &chat{
		widget: widget.New(store, r.cfg.Sender, view, r.cfg.Widget, r.logger.With("chat_id", chatID)),
		view:   view,
	}
	r.chats[chatID] = c
	r.logger.Debug("Created chat widget", "chat_id", chatID)
	return c
}

// Open opens the chat's widget. A fresh chat is greeted; a returning chat
// gets the last bot message again rather than the whole history.
func (r *Relay) Open(ctx context.Context, m Messenger, chatID int64) {
	c := r.chat(m, chatID)
	if c.widget.State() == widget.Open {
		return
	}
	c.view.hold()
	c.widget.Open(ctx)
	c.view.release()
}

// Message relays text from the chat to the backend, opening the widget
// first if needed.
func (r *Relay) Message(ctx context.Context, m Messenger, chatID int64, text string) error {
	r.Open(ctx, m, chatID)

	err := r.chat(m, chatID).widget.Send(ctx, text)
	if errors.Is(err, widget.ErrSendInFlight) {
		r.notify(ctx, m, chatID, r.cfg.BusyMessage)
		return nil
	}
	if err != nil {
		return fmt.Errorf("relay message: %w", err)
	}
	return nil
}

// Reset clears the chat's conversation and confirms in the chat.
func (r *Relay) Reset(ctx context.Context, m Messenger, chatID int64) {
	c := r.chat(m, chatID)
	c.view.hold()
	defer c.view.release()

	if err := c.widget.Reset(ctx); errors.Is(err, widget.ErrSendInFlight) {
		r.notify(ctx, m, chatID, r.cfg.BusyMessage)
		return
	}
	r.notify(ctx, m, chatID, r.cfg.ResetMessage)
}

// Close closes the chat's widget. Later messages reopen it.
func (r *Relay) Close(m Messenger, chatID int64) {
	r.chat(m, chatID).widget.Close()
}

func (r *Relay) notify(ctx context.Context, m Messenger, chatID int64, text string) {
	if text == "" {
		return
	}
	if _, err := m.SendMessage(ctx, &bot.SendMessageParams{ChatID: chatID, Text: text}); err != nil {
		r.logger.ErrorContext(ctx, "Failed to send notice", "error", err, "chat_id", chatID)
	}
}
