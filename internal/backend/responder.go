package backend

import (
	"context"
	"strings"
)

// Turn is one earlier question and answer, given to responders as context.
type Turn struct {
	User string
	Bot  string
}

// Responder produces the bot's answer to a message.
type Responder interface {
	Respond(ctx context.Context, history []Turn, message string) (string, error)
}

// EchoResponder answers by repeating the message. It needs no credentials and
// is the default for local development.
type EchoResponder struct {
	Prefix string
}

func (e EchoResponder) Respond(_ context.Context, _ []Turn, message string) (string, error) {
	return e.Prefix + strings.TrimSpace(message), nil
}
