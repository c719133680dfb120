package app

import (
	"context"
	"errors"
	"log/slog"

	tgbot "github.com/go-telegram/bot"
)

// TelegramSurface listens for Telegram updates.
type TelegramSurface struct {
	bot    *tgbot.Bot
	logger *slog.Logger
}

// NewTelegramSurface wraps a configured bot.
func NewTelegramSurface(b *tgbot.Bot, logger *slog.Logger) *TelegramSurface {
	return &TelegramSurface{bot: b, logger: logger.With("component", "telegram_surface")}
}

// Run polls for updates until ctx is cancelled.
func (s *TelegramSurface) Run(ctx context.Context) error {
	s.logger.Info("Starting Telegram bot listener...")
	s.bot.Start(ctx)
	s.logger.Info("Telegram bot listener stopped.")

	if ctx.Err() == nil {
		return errors.New("telegram listener stopped unexpectedly")
	}
	return nil
}
