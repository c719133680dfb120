// Package main runs the chat widget on a terminal or as a Telegram bot.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	tgbot "github.com/go-telegram/bot"

	"github.com/edgard/chatwidget/internal/app"
	"github.com/edgard/chatwidget/internal/app/tasks"
	"github.com/edgard/chatwidget/internal/config"
	"github.com/edgard/chatwidget/internal/conversation"
	"github.com/edgard/chatwidget/internal/crawl"
	"github.com/edgard/chatwidget/internal/logger"
	"github.com/edgard/chatwidget/internal/storage"
	"github.com/edgard/chatwidget/internal/telegram"
	"github.com/edgard/chatwidget/internal/theme"
	"github.com/edgard/chatwidget/internal/transport"
	"github.com/edgard/chatwidget/internal/widget"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	exitCode := run(ctx)
	stop()
	os.Exit(exitCode)
}

func run(ctx context.Context) int {
	configPath := flag.String("config", "./config.yaml", "Path to configuration file")
	markupPath := flag.String("markup", "", "HTML page whose widget script tag overrides the widget settings")
	printCSS := flag.Bool("css", false, "Print the widget color stylesheet and exit")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		slog.Error("Failed to load configuration", "path", *configPath, "error", err)
		return 1
	}

	log := logger.NewLogger(cfg.Logger.Level, cfg.Logger.JSON, os.Stderr)
	slog.SetDefault(log)

	if *markupPath != "" {
		if cfg.Widget, err = widgetFromMarkup(*markupPath); err != nil {
			log.Error("Failed to read widget markup", "path", *markupPath, "error", err)
			return 1
		}
	}
	if !cfg.Widget.HasAPIKey() {
		log.Warn("No API key configured; replies will report a configuration error")
	}

	th, err := theme.New(cfg.Widget.PrimaryColor)
	if err != nil {
		log.Error("Invalid primary color", "color", cfg.Widget.PrimaryColor, "error", err)
		return 1
	}
	if *printCSS {
		fmt.Print(th.CSS())
		return 0
	}

	backend, err := openStorage(cfg.Storage, log)
	if err != nil {
		log.Error("Failed to open storage", "path", cfg.Storage.Path, "error", err)
		return 1
	}
	defer backend.Close()

	client, err := transport.New(transport.Config{
		BaseURL: cfg.Widget.APIURL,
		APIKey:  cfg.Widget.APIKey,
		Timeout: cfg.Transport.Timeout,
	}, log)
	if err != nil {
		log.Error("Failed to create transport client", "error", err)
		return 1
	}

	tDeps := tasks.TaskDeps{Logger: log, Storage: backend}
	terminalOpts := []app.TerminalOption{app.WithSessionClient(client)}
	if cfg.Crawl.BaseURL != "" {
		crawler, err := crawl.NewClient(crawl.Config{BaseURL: cfg.Crawl.BaseURL, Token: cfg.Crawl.Token})
		if err != nil {
			log.Error("Failed to create crawl client", "error", err)
			return 1
		}
		tDeps.Watcher = crawl.NewWatcher(crawler, cfg.Crawl.ClientIDs, log)
		terminalOpts = append(terminalOpts, app.WithCrawler(crawler))
	}

	sched, err := app.NewScheduler(log, &cfg.Scheduler, tasks.RegisterAllTasks(tDeps))
	if err != nil {
		log.Error("Failed to create scheduler", "error", err)
		return 1
	}

	opts := widget.Options{
		WelcomeMessage: cfg.Widget.WelcomeMessage,
		ApologyMessage: cfg.Messages.Apology,
	}

	var surface app.Surface
	switch cfg.Surface {
	case config.SurfaceTelegram:
		surface, err = telegramSurface(cfg, backend, client, opts, log)
		if err != nil {
			log.Error("Failed to set up Telegram", "error", err)
			return 1
		}
	default:
		store := conversation.NewStore(storage.Namespace(backend, cfg.Storage.Namespace), log)
		view := widget.NewTerminal(os.Stdout, cfg.Widget.BotName, th, 72)
		surface = app.NewTerminalSurface(widget.New(store, client, view, opts, log), os.Stdin, os.Stdout, log, terminalOpts...)
	}

	log.Info("Starting widget", "surface", cfg.Surface, "api_url", cfg.Widget.APIURL)
	if err := app.New(log, surface, sched).Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		log.Error("Widget stopped due to error", "error", err)
		return 1
	}
	return 0
}

func widgetFromMarkup(path string) (config.Widget, error) {
	f, err := os.Open(path)
	if err != nil {
		return config.Widget{}, err
	}
	defer f.Close()

	attrs, err := config.AttributesFromMarkup(f)
	if err != nil {
		return config.Widget{}, err
	}
	w := config.FromAttributes(attrs)
	if err := w.Validate(); err != nil {
		return config.Widget{}, fmt.Errorf("invalid widget attributes: %w", err)
	}
	return w, nil
}

func openStorage(cfg config.StorageConfig, log *slog.Logger) (storage.Backend, error) {
	if cfg.Path == "" {
		log.Info("Using in-memory storage; history is lost on exit")
		return storage.NewMemory(), nil
	}
	return storage.OpenSQLite(cfg.Path, log)
}

func telegramSurface(cfg *config.Config, backend storage.Backend, client *transport.Client, opts widget.Options, log *slog.Logger) (app.Surface, error) {
	relay := telegram.NewRelay(telegram.RelayConfig{
		Backend:        backend,
		Sender:         client,
		Widget:         opts,
		ResetMessage:   cfg.Messages.Reset,
		BusyMessage:    cfg.Messages.Busy,
		TypingInterval: cfg.Telegram.TypingInterval,
	}, log)
	hDeps := telegram.HandlerDeps{Logger: log, Relay: relay}

	tg, err := telegram.NewTelegramBot(cfg.Telegram.Token, log,
		tgbot.WithMiddlewares(logger.Middleware(log)),
		tgbot.WithDefaultHandler(telegram.NewMessageHandler(hDeps)),
	)
	if err != nil {
		return nil, err
	}
	if err := telegram.RegisterHandlers(tg, log, telegram.RegisterAllCommands(hDeps)); err != nil {
		return nil, err
	}
	return app.NewTelegramSurface(tg, log), nil
}
