package conversation

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"

	"github.com/edgard/chatwidget/internal/storage"
)

// MaxMessages caps the persisted history. The oldest messages are dropped
// first.
const MaxMessages = 50

// Storage keys.
const (
	SessionKey  = "ai-chatbot-session-id"
	MessagesKey = "ai-chatbot-messages"
)

// ErrHistoryUnavailable is wrapped in the StorageError returned by writes
// after history could not be read. Persisting then would overwrite history
// that was never loaded.
var ErrHistoryUnavailable = errors.New("stored history could not be read")

// StorageError reports a failure to read or write durable state. Memory is
// never rolled back when it happens; callers log it and carry on.
type StorageError struct {
	Op  string
	Err error
}

func (e *StorageError) Error() string {
	return fmt.Sprintf("conversation storage %s: %v", e.Op, e.Err)
}

func (e *StorageError) Unwrap() error {
	return e.Err
}

// Store is the single source of truth for message history and session id.
// It is safe for concurrent use.
type Store struct {
	mu       sync.Mutex
	storage  storage.Storage
	logger   *slog.Logger
	messages []Message
	session  string
	// unread is set while the last LoadHistory failed to read storage.
	unread bool
}

// NewStore returns an empty store persisting into s. Call LoadHistory to pick
// up state left by an earlier run.
func NewStore(s storage.Storage, logger *slog.Logger) *Store {
	if logger == nil {
		logger = slog.Default()
	}
	return &Store{
		storage: s,
		logger:  logger.With("component", "conversation_store"),
	}
}

// AppendUserMessage appends a visitor message and persists. Blank text is
// ignored.
func (s *Store) AppendUserMessage(ctx context.Context, text string) error {
	return s.append(ctx, UserMessage(text))
}

// AppendBotMessage appends a bot message and persists. Blank text is ignored.
func (s *Store) AppendBotMessage(ctx context.Context, text string) error {
	return s.append(ctx, BotMessage(text))
}

func (s *Store) append(ctx context.Context, m Message) error {
	m.Text = strings.TrimSpace(m.Text)
	if m.Text == "" {
		return nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.messages = append(s.messages, m)
	return s.persistLocked(ctx)
}

// SetSession records the backend-issued session id and persists. An empty id
// leaves the current session in place.
func (s *Store) SetSession(ctx context.Context, id string) error {
	if id == "" {
		return nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.session = id
	return s.persistLocked(ctx)
}

// Persist writes the most recent MaxMessages messages and the session id to
// storage.
func (s *Store) Persist(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.persistLocked(ctx)
}

func (s *Store) persistLocked(ctx context.Context) error {
	s.messages = tail(s.messages, MaxMessages)
	if s.unread {
		return &StorageError{Op: "write messages", Err: ErrHistoryUnavailable}
	}

	data, err := json.Marshal(s.messages)
	if err != nil {
		return &StorageError{Op: "encode", Err: err}
	}
	if err := s.storage.SetItem(ctx, MessagesKey, string(data)); err != nil {
		s.logger.WarnContext(ctx, "Failed to persist message history", "error", err, "count", len(s.messages))
		return &StorageError{Op: "write messages", Err: err}
	}

	if s.session != "" {
		if err := s.storage.SetItem(ctx, SessionKey, s.session); err != nil {
			s.logger.WarnContext(ctx, "Failed to persist session id", "error", err)
			return &StorageError{Op: "write session", Err: err}
		}
	}
	return nil
}

// LoadHistory replaces the in-memory state with what storage holds and
// returns the loaded messages. Loading twice without intervening writes
// yields the same sequence. Corrupt history is dropped with a warning.
func (s *Store) LoadHistory(ctx context.Context) ([]Message, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	raw, ok, err := s.storage.GetItem(ctx, MessagesKey)
	if err != nil {
		s.unread = true
		return s.snapshotLocked(), &StorageError{Op: "read messages", Err: err}
	}

	var loaded []Message
	if ok && raw != "" {
		if err := json.Unmarshal([]byte(raw), &loaded); err != nil {
			s.logger.WarnContext(ctx, "Discarding unreadable message history", "error", err)
			loaded = nil
		}
	}
	s.messages = tail(valid(loaded), MaxMessages)

	session, ok, err := s.storage.GetItem(ctx, SessionKey)
	if err != nil {
		s.unread = true
		return s.snapshotLocked(), &StorageError{Op: "read session", Err: err}
	}
	if ok && session != "" {
		s.session = session
	}
	s.unread = false

	s.logger.DebugContext(ctx, "Loaded history", "count", len(s.messages), "has_session", s.session != "")
	return s.snapshotLocked(), nil
}

// Reset forgets the history and session, in memory and in storage. Both keys
// are removed even when the first removal fails. Later writes are allowed
// again since they can only replace what Reset meant to delete.
func (s *Store) Reset(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.messages = nil
	s.session = ""
	s.unread = false

	var errs []error
	if err := s.storage.RemoveItem(ctx, MessagesKey); err != nil {
		errs = append(errs, &StorageError{Op: "remove messages", Err: err})
	}
	if err := s.storage.RemoveItem(ctx, SessionKey); err != nil {
		errs = append(errs, &StorageError{Op: "remove session", Err: err})
	}
	return errors.Join(errs...)
}

// Messages returns a copy of the current history.
func (s *Store) Messages() []Message {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snapshotLocked()
}

// SessionID returns the backend session id, or "" before the backend has
// issued one.
func (s *Store) SessionID() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.session
}

func (s *Store) snapshotLocked() []Message {
	out := make([]Message, len(s.messages))
	copy(out, s.messages)
	return out
}

// tail keeps the last n messages, dropping the head.
func tail(messages []Message, n int) []Message {
	if len(messages) <= n {
		return messages
	}
	return append([]Message(nil), messages[len(messages)-n:]...)
}

func valid(messages []Message) []Message {
	out := messages[:0]
	for _, m := range messages {
		if (m.Type == SenderUser || m.Type == SenderBot) && m.Text != "" {
			out = append(out, m)
		}
	}
	return out
}
