// Package config manages application configuration from config files,
// environment variables, and default values, and bootstraps the widget
// configuration from host-page markup attributes.
package config

import (
	"errors"
	"time"
)

// ErrConfiguration wraps every failure to load or validate configuration.
var ErrConfiguration = errors.New("configuration error")

// Surfaces the widget can be presented on.
const (
	SurfaceTerminal = "terminal"
	SurfaceTelegram = "telegram"
)

// Config defines the application configuration. Values can be set via
// environment variables prefixed with WIDGET_ (e.g., WIDGET_WIDGET_API_KEY)
// or through config.yaml.
type Config struct {
	Widget    Widget          `mapstructure:"widget"`
	Messages  MessagesConfig  `mapstructure:"messages"`
	Logger    LoggerConfig    `mapstructure:"logger"`
	Storage   StorageConfig   `mapstructure:"storage"`
	Transport TransportConfig `mapstructure:"transport"`
	Surface   string          `mapstructure:"surface" validate:"required,oneof=terminal telegram"`
	Telegram  TelegramConfig  `mapstructure:"telegram"`
	Scheduler SchedulerConfig `mapstructure:"scheduler"`
	Crawl     CrawlConfig     `mapstructure:"crawl"`
}

// Widget is the per-session widget configuration. It is created once at
// startup and passed by value; nothing mutates it afterwards.
//
// APIKey is deliberately not marked required: a missing key is reported when
// a message is sent, as a scripted bot reply, not as a load failure.
type Widget struct {
	APIURL         string `mapstructure:"api_url"         validate:"required,url"`
	APIKey         string `mapstructure:"api_key"`
	BotName        string `mapstructure:"bot_name"        validate:"required"`
	PrimaryColor   string `mapstructure:"primary_color"   validate:"required,hexcolor"`
	WelcomeMessage string `mapstructure:"welcome_message" validate:"required"`
}

// MessagesConfig holds user-visible fallback texts.
type MessagesConfig struct {
	Apology string `mapstructure:"apology" validate:"required"`
	Reset   string `mapstructure:"reset"   validate:"required"`
	Busy    string `mapstructure:"busy"    validate:"required"`
}

// LoggerConfig controls the slog handler.
type LoggerConfig struct {
	Level string `mapstructure:"level" validate:"required,oneof=debug info warn error"`
	JSON  bool   `mapstructure:"json"`
}

// StorageConfig points at the durable store backing widget history.
// An empty Path selects the in-memory store.
type StorageConfig struct {
	Path      string `mapstructure:"path"`
	Namespace string `mapstructure:"namespace" validate:"required"`
}

// TransportConfig tunes the chat backend client. A zero Timeout leaves the
// platform default in place.
type TransportConfig struct {
	Timeout time.Duration `mapstructure:"timeout" validate:"min=0"`
}

// TelegramConfig configures the Telegram surface.
type TelegramConfig struct {
	Token          string        `mapstructure:"token"`
	TypingInterval time.Duration `mapstructure:"typing_interval" validate:"min=1s"`
}

// TaskConfig enables a single scheduled task. A task runs either on a cron
// Schedule (seconds field included) or every Interval; exactly one is set.
type TaskConfig struct {
	Enabled  bool          `mapstructure:"enabled"`
	Schedule string        `mapstructure:"schedule"`
	Interval time.Duration `mapstructure:"interval"`
}

// SchedulerConfig maps task names to their schedule.
type SchedulerConfig struct {
	Tasks map[string]TaskConfig `mapstructure:"tasks"`
}

// CrawlConfig points the crawler job watcher at the dashboard API.
type CrawlConfig struct {
	BaseURL   string   `mapstructure:"base_url"   validate:"omitempty,url"`
	Token     string   `mapstructure:"token"`
	ClientIDs []string `mapstructure:"client_ids"`
}
