// Package widget ties the conversation store, the transport client and a
// view into the chat window's behavior.
package widget

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"sync"

	"github.com/edgard/chatwidget/internal/conversation"
	"github.com/edgard/chatwidget/internal/transport"
)

var (
	// ErrWindowClosed is returned by Send while the window is closed.
	ErrWindowClosed = errors.New("chat window is closed")
	// ErrSendInFlight is returned by Send while an earlier message is still
	// awaiting its reply.
	ErrSendInFlight = errors.New("a message is already being sent")
)

// State is the window state.
type State int

const (
	Closed State = iota
	Open
)

func (s State) String() string {
	if s == Open {
		return "open"
	}
	return "closed"
}

// Sender delivers a message to the backend.
type Sender interface {
	Send(ctx context.Context, message, sessionID string) (transport.Reply, error)
}

// SessionEnder is implemented by senders that can close a backend session.
// Reset ends the current session through it when available.
type SessionEnder interface {
	EndSession(ctx context.Context, id string) (transport.Session, error)
}

// Options holds the fixed texts the widget shows.
type Options struct {
	WelcomeMessage string
	ApologyMessage string
}

// Widget is one chat window.
type Widget struct {
	mu      sync.Mutex
	state   State
	sending bool

	store  *conversation.Store
	sender Sender
	view   View
	opts   Options
	logger *slog.Logger
}

// New assembles a closed widget.
func New(store *conversation.Store, sender Sender, view View, opts Options, logger *slog.Logger) *Widget {
	if logger == nil {
		logger = slog.Default()
	}
	return &Widget{
		store:  store,
		sender: sender,
		view:   view,
		opts:   opts,
		logger: logger.With("component", "widget"),
	}
}

// State returns the current window state.
func (w *Widget) State() State {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.state
}

// Open shows the window. The first time the pane is empty it replays the
// persisted history, or greets with the welcome message when there is none.
func (w *Widget) Open(ctx context.Context) {
	w.mu.Lock()
	w.state = Open
	w.mu.Unlock()

	w.view.SetOpen(true)
	if w.view.Len() == 0 {
		w.populate(ctx)
	}
	w.view.ScrollToBottom()
}

// Close hides the window. Any in-flight reply is still rendered when it
// arrives.
func (w *Widget) Close() {
	w.mu.Lock()
	w.state = Closed
	w.mu.Unlock()

	w.view.SetOpen(false)
}

// Toggle flips the window state.
func (w *Widget) Toggle(ctx context.Context) {
	if w.State() == Open {
		w.Close()
		return
	}
	w.Open(ctx)
}

// populate replays stored history or greets. When storage cannot be read the
// store refuses to persist, so the greeting does not replace saved history.
func (w *Widget) populate(ctx context.Context) {
	history, err := w.store.LoadHistory(ctx)
	if err != nil {
		w.logger.WarnContext(ctx, "Failed to load history", "error", err)
	}

	if len(history) == 0 {
		w.addBotMessage(ctx, w.opts.WelcomeMessage)
		return
	}
	for _, m := range history {
		w.view.Insert(m)
	}
	w.logger.DebugContext(ctx, "Replayed history", "count", len(history))
}

// Send delivers text and renders the exchange. Blank text is ignored. A
// failed exchange renders the apology message and leaves the session as it
// was.
func (w *Widget) Send(ctx context.Context, text string) error {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil
	}

	w.mu.Lock()
	switch {
	case w.state != Open:
		w.mu.Unlock()
		return ErrWindowClosed
	case w.sending:
		w.mu.Unlock()
		return ErrSendInFlight
	}
	w.sending = true
	w.mu.Unlock()

	defer func() {
		w.mu.Lock()
		w.sending = false
		w.mu.Unlock()
	}()

	w.addUserMessage(ctx, text)

	w.view.SetTyping(true)
	w.view.ScrollToBottom()

	reply, err := w.sender.Send(ctx, text, w.store.SessionID())
	w.view.SetTyping(false)

	if err != nil {
		w.logger.ErrorContext(ctx, "Failed to get reply", "error", err)
		w.addBotMessage(ctx, w.opts.ApologyMessage)
		return nil
	}

	w.addBotMessage(ctx, reply.Message)
	if err := w.store.SetSession(ctx, reply.SessionID); err != nil {
		w.logger.WarnContext(ctx, "Failed to persist session", "error", err)
	}
	return nil
}

// SessionID returns the backend session of the conversation, if any.
func (w *Widget) SessionID() string {
	return w.store.SessionID()
}

// Reset ends the backend session and forgets the conversation. An open
// window greets again.
func (w *Widget) Reset(ctx context.Context) error {
	w.mu.Lock()
	if w.sending {
		w.mu.Unlock()
		return ErrSendInFlight
	}
	open := w.state == Open
	w.mu.Unlock()

	w.endSession(ctx, w.store.SessionID())

	resetErr := w.store.Reset(ctx)
	if resetErr != nil {
		w.logger.WarnContext(ctx, "Failed to clear stored conversation", "error", resetErr)
	}
	w.view.Clear()
	if !open {
		return nil
	}
	if resetErr != nil {
		// Reloading would bring back whatever storage failed to drop.
		w.addBotMessage(ctx, w.opts.WelcomeMessage)
	} else {
		w.populate(ctx)
	}
	w.view.ScrollToBottom()
	return nil
}

func (w *Widget) endSession(ctx context.Context, id string) {
	ender, ok := w.sender.(SessionEnder)
	if !ok || id == "" {
		return
	}
	if _, err := ender.EndSession(ctx, id); err != nil {
		w.logger.WarnContext(ctx, "Failed to end backend session", "session_id", id, "error", err)
		return
	}
	w.logger.DebugContext(ctx, "Ended backend session", "session_id", id)
}

func (w *Widget) addUserMessage(ctx context.Context, text string) {
	if err := w.store.AppendUserMessage(ctx, text); err != nil {
		w.logger.WarnContext(ctx, "Failed to persist user message", "error", err)
	}
	w.view.Insert(conversation.UserMessage(text))
	w.view.ScrollToBottom()
}

func (w *Widget) addBotMessage(ctx context.Context, text string) {
	if strings.TrimSpace(text) == "" {
		w.logger.DebugContext(ctx, "Skipping empty bot message")
		return
	}
	if err := w.store.AppendBotMessage(ctx, text); err != nil {
		w.logger.WarnContext(ctx, "Failed to persist bot message", "error", err)
	}
	w.view.Insert(conversation.BotMessage(text))
	w.view.ScrollToBottom()
}
