// Package main runs a development chat backend that speaks the widget's
// /api/chat/ protocol.
package main

import (
	"context"
	"errors"
	"flag"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/edgard/chatwidget/internal/backend"
	"github.com/edgard/chatwidget/internal/config"
	"github.com/edgard/chatwidget/internal/gemini"
	"github.com/edgard/chatwidget/internal/logger"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	exitCode := run(ctx)
	stop()
	os.Exit(exitCode)
}

func run(ctx context.Context) int {
	configPath := flag.String("config", "./backend.yaml", "Path to configuration file")
	flag.Parse()

	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		slog.Warn("Failed to load .env file", "error", err)
	}

	cfg, err := config.LoadBackend(*configPath)
	if err != nil {
		slog.Error("Failed to load configuration", "path", *configPath, "error", err)
		return 1
	}

	log := logger.NewLogger(cfg.Logger.Level, cfg.Logger.JSON, os.Stderr)
	slog.SetDefault(log)

	var responder backend.Responder = backend.EchoResponder{Prefix: "You said: "}
	if cfg.Gemini.Enabled() {
		client, err := gemini.NewClient(ctx, cfg.Gemini, cfg.ClientName, log)
		if err != nil {
			log.Error("Failed to create Gemini client", "error", err)
			return 1
		}
		responder = client
		log.Info("Answering with Gemini", "model", cfg.Gemini.ModelName)
	} else {
		log.Info("No Gemini API key configured; echoing messages back")
	}

	srv := &http.Server{
		Addr:              cfg.Addr,
		Handler:           backend.NewServer(backend.NewService(), responder, cfg.APIKeys, log).Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info("Chat backend listening", "addr", cfg.Addr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if !errors.Is(err, http.ErrServerClosed) {
			log.Error("Chat backend stopped due to error", "error", err)
			return 1
		}
		return 0
	case <-ctx.Done():
	}

	log.Info("Shutting down chat backend...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("Graceful shutdown failed", "error", err)
		return 1
	}
	log.Info("Chat backend stopped")
	return 0
}
