package backend

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/edgard/chatwidget/internal/transport"
)

// ErrSessionNotFound is returned for unknown sessions and for sessions owned
// by another client.
var ErrSessionNotFound = errors.New("chat session not found")

// Service keeps chat sessions and their exchanges in memory.
type Service struct {
	mu        sync.RWMutex
	sessions  map[string]transport.Session
	exchanges map[string][]transport.Exchange
	now       func() time.Time
}

// NewService returns an empty service.
func NewService() *Service {
	return &Service{
		sessions:  make(map[string]transport.Session),
		exchanges: make(map[string][]transport.Exchange),
		now:       func() time.Time { return time.Now().UTC() },
	}
}

// CreateSession opens a session for the client.
func (s *Service) CreateSession(_ context.Context, clientID, userID string) transport.Session {
	session := transport.Session{
		ID:        uuid.NewString(),
		ClientID:  clientID,
		UserID:    userID,
		StartTime: s.now(),
	}

	s.mu.Lock()
	s.sessions[session.ID] = session
	s.exchanges[session.ID] = make([]transport.Exchange, 0, 8)
	s.mu.Unlock()

	return session
}

// GetSession returns the client's session.
func (s *Service) GetSession(_ context.Context, clientID, sessionID string) (transport.Session, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.lookup(clientID, sessionID)
}

func (s *Service) lookup(clientID, sessionID string) (transport.Session, error) {
	session, ok := s.sessions[sessionID]
	if !ok || session.ClientID != clientID {
		return transport.Session{}, ErrSessionNotFound
	}
	return session, nil
}

// EndSession stamps the session's end time. Ending twice keeps the first
// time.
func (s *Service) EndSession(_ context.Context, clientID, sessionID string) (transport.Session, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	session, err := s.lookup(clientID, sessionID)
	if err != nil {
		return transport.Session{}, err
	}
	if session.EndTime == nil {
		end := s.now()
		session.EndTime = &end
		s.sessions[sessionID] = session
	}
	return session, nil
}

// AddExchange records a question and its answer.
func (s *Service) AddExchange(_ context.Context, clientID, sessionID, userMessage, botResponse string) (transport.Exchange, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, err := s.lookup(clientID, sessionID); err != nil {
		return transport.Exchange{}, err
	}

	ex := transport.Exchange{
		ID:          uuid.NewString(),
		ClientID:    clientID,
		SessionID:   sessionID,
		UserMessage: userMessage,
		BotResponse: botResponse,
		CreatedAt:   s.now(),
	}
	s.exchanges[sessionID] = append(s.exchanges[sessionID], ex)
	return ex, nil
}

// Exchanges lists a session's exchanges, oldest first.
func (s *Service) Exchanges(_ context.Context, clientID, sessionID string) ([]transport.Exchange, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if _, err := s.lookup(clientID, sessionID); err != nil {
		return nil, err
	}
	return append([]transport.Exchange(nil), s.exchanges[sessionID]...), nil
}
