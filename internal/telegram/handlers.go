package telegram

import (
	"context"
	"log/slog"
	"strings"

	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"
)

// HandlerDeps provides dependencies for Telegram handlers.
type HandlerDeps struct {
	Logger *slog.Logger
	Relay  *Relay
}

// RegisteredHandler represents a handler with its pattern and middleware.
type RegisteredHandler struct {
	HandlerType bot.HandlerType
	Pattern     string
	Handler     bot.HandlerFunc
	Middleware  []bot.Middleware
	MatchType   bot.MatchType
}

// RegisterAllCommands returns the command handlers keyed by command.
func RegisterAllCommands(deps HandlerDeps) map[string]RegisteredHandler {
	commands := map[string]func(ctx context.Context, b *bot.Bot, msg *models.Message){
		"start": func(ctx context.Context, b *bot.Bot, msg *models.Message) {
			deps.Relay.Open(ctx, b, msg.Chat.ID)
		},
		"reset": func(ctx context.Context, b *bot.Bot, msg *models.Message) {
			deps.Relay.Reset(ctx, b, msg.Chat.ID)
		},
		"close": func(_ context.Context, b *bot.Bot, msg *models.Message) {
			deps.Relay.Close(b, msg.Chat.ID)
		},
	}

	handlers := make(map[string]RegisteredHandler, len(commands))
	for name, fn := range commands {
		handlers["/"+name] = RegisteredHandler{
			HandlerType: bot.HandlerTypeMessageText,
			Pattern:     name,
			Handler:     commandHandler(deps, name, fn),
			MatchType:   bot.MatchTypeCommandStartOnly,
		}
	}
	return handlers
}

func commandHandler(deps HandlerDeps, name string, fn func(context.Context, *bot.Bot, *models.Message)) bot.HandlerFunc {
	log := deps.Logger.With("handler", name)
	return func(ctx context.Context, b *bot.Bot, update *models.Update) {
		if update.Message == nil {
			log.WarnContext(ctx, "Command handler received update without message", "update_id", update.ID)
			return
		}
		log.InfoContext(ctx, "Handling command", "chat_id", update.Message.Chat.ID)
		fn(ctx, b, update.Message)
	}
}

// NewMessageHandler returns the default handler. It relays plain text
// messages to the chat's widget.
func NewMessageHandler(deps HandlerDeps) bot.HandlerFunc {
	log := deps.Logger.With("handler", "message")
	return func(ctx context.Context, b *bot.Bot, update *models.Update) {
		msg := update.Message
		if msg == nil || strings.TrimSpace(msg.Text) == "" {
			log.DebugContext(ctx, "Ignoring update without text", "update_id", update.ID)
			return
		}
		if strings.HasPrefix(msg.Text, "/") {
			log.DebugContext(ctx, "Ignoring unknown command", "chat_id", msg.Chat.ID, "command", strings.Fields(msg.Text)[0])
			return
		}
		if err := deps.Relay.Message(ctx, b, msg.Chat.ID, msg.Text); err != nil {
			log.ErrorContext(ctx, "Failed to relay message", "error", err, "chat_id", msg.Chat.ID)
		}
	}
}
