// Package backend is a development implementation of the chat API the widget
// talks to. It keeps sessions in memory and answers through a Responder.
package backend

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/google/uuid"

	"github.com/edgard/chatwidget/internal/transport"
)

type clientKey struct{}

// Server serves the chat API.
type Server struct {
	svc       *Service
	responder Responder
	clients   map[string]string
	logger    *slog.Logger
}

// NewServer builds a server accepting the given API keys. Each key acts as a
// separate client.
func NewServer(svc *Service, responder Responder, apiKeys []string, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	clients := make(map[string]string, len(apiKeys))
	for _, key := range apiKeys {
		clients[key] = ClientID(key)
	}
	return &Server{
		svc:       svc,
		responder: responder,
		clients:   clients,
		logger:    logger.With("component", "chat_backend"),
	}
}

// ClientID derives the stable client id owning an API key.
func ClientID(apiKey string) string {
	return uuid.NewSHA1(uuid.NameSpaceOID, []byte(apiKey)).String()
}

// Handler returns the HTTP handler with middleware applied.
func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(s.logRequests)
	r.Use(middleware.Recoverer)

	r.Route("/api/chat", func(api chi.Router) {
		api.Use(s.authenticate)
		s.RegisterRoutes(api)
	})

	return r
}

// RegisterRoutes registers the chat routes on r.
func (s *Server) RegisterRoutes(r chi.Router) {
	r.Post("/", s.handleChat)
	r.Get("/sessions/{sessionID}", s.handleGetSession)
	r.Post("/sessions/{sessionID}/end", s.handleEndSession)
	r.Get("/sessions/{sessionID}/messages", s.handleMessages)
}

func (s *Server) authenticate(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		clientID, ok := s.clients[r.Header.Get(transport.APIKeyHeader)]
		if !ok {
			respondError(w, http.StatusUnauthorized, "Invalid API key")
			return
		}
		next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), clientKey{}, clientID)))
	})
}

func (s *Server) logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)
		s.logger.DebugContext(r.Context(), "Handled request",
			"method", r.Method,
			"path", r.URL.Path,
			"status", ww.Status(),
			"bytes", ww.BytesWritten(),
			"duration", time.Since(start),
			"request_id", middleware.GetReqID(r.Context()),
		)
	})
}

func clientFrom(ctx context.Context) string {
	id, _ := ctx.Value(clientKey{}).(string)
	return id
}

type chatRequest struct {
	Message   string `json:"message"`
	SessionID string `json:"session_id"`
	UserID    string `json:"user_id"`
}

func (s *Server) handleChat(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	clientID := clientFrom(ctx)

	var req chatRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if strings.TrimSpace(req.Message) == "" {
		respondError(w, http.StatusUnprocessableEntity, "message is required")
		return
	}

	sessionID := req.SessionID
	if sessionID == "" {
		sessionID = s.svc.CreateSession(ctx, clientID, req.UserID).ID
	} else if _, err := s.svc.GetSession(ctx, clientID, sessionID); err != nil {
		respondError(w, http.StatusNotFound, "Chat session not found")
		return
	}

	history, err := s.svc.Exchanges(ctx, clientID, sessionID)
	if err != nil {
		respondError(w, http.StatusNotFound, "Chat session not found")
		return
	}
	turns := make([]Turn, len(history))
	for i, ex := range history {
		turns[i] = Turn{User: ex.UserMessage, Bot: ex.BotResponse}
	}

	answer, err := s.responder.Respond(ctx, turns, req.Message)
	if err != nil {
		s.logger.ErrorContext(ctx, "Failed to generate response", "error", err, "session_id", sessionID)
		respondError(w, http.StatusInternalServerError, "Error generating response")
		return
	}

	if _, err := s.svc.AddExchange(ctx, clientID, sessionID, req.Message, answer); err != nil {
		s.logger.WarnContext(ctx, "Failed to record exchange", "error", err, "session_id", sessionID)
	}

	respondJSON(w, http.StatusOK, transport.Reply{Message: answer, SessionID: sessionID})
}

func (s *Server) handleGetSession(w http.ResponseWriter, r *http.Request) {
	session, err := s.svc.GetSession(r.Context(), clientFrom(r.Context()), chi.URLParam(r, "sessionID"))
	s.respondSession(w, session, err)
}

func (s *Server) handleEndSession(w http.ResponseWriter, r *http.Request) {
	session, err := s.svc.EndSession(r.Context(), clientFrom(r.Context()), chi.URLParam(r, "sessionID"))
	s.respondSession(w, session, err)
}

func (s *Server) respondSession(w http.ResponseWriter, session transport.Session, err error) {
	if errors.Is(err, ErrSessionNotFound) {
		respondError(w, http.StatusNotFound, "Chat session not found")
		return
	}
	respondJSON(w, http.StatusOK, session)
}

func (s *Server) handleMessages(w http.ResponseWriter, r *http.Request) {
	exchanges, err := s.svc.Exchanges(r.Context(), clientFrom(r.Context()), chi.URLParam(r, "sessionID"))
	if err != nil {
		respondError(w, http.StatusNotFound, "Chat session not found")
		return
	}
	respondJSON(w, http.StatusOK, exchanges)
}

func respondJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func respondError(w http.ResponseWriter, status int, detail string) {
	respondJSON(w, status, map[string]string{"detail": detail})
}
