package config

import "time"

// Widget defaults, matching the values a host page gets when it omits the
// corresponding data-* attribute.
const (
	DefaultAPIURL         = "https://api.example.com"
	DefaultBotName        = "AI Assistant"
	DefaultPrimaryColor   = "#4A90E2"
	DefaultWelcomeMessage = "Hi there! How can I help you today?"
)

// Application defaults.
const (
	DefaultLogLevel            = "info"
	DefaultStorageNamespace    = "default"
	DefaultSurface             = SurfaceTerminal
	DefaultTypingInterval      = 4 * time.Second
	DefaultCrawlPollInterval   = 5 * time.Second
	DefaultMaintenanceSchedule = "0 0 3 * * *"

	DefaultApologyMessage = "Sorry, I encountered a problem. Please try again later."
	DefaultResetMessage   = "Conversation cleared."
	DefaultBusyMessage    = "Still working on your previous message..."
)

var defaults = map[string]any{
	"widget.api_url":         DefaultAPIURL,
	"widget.api_key":         "",
	"widget.bot_name":        DefaultBotName,
	"widget.primary_color":   DefaultPrimaryColor,
	"widget.welcome_message": DefaultWelcomeMessage,

	"messages.apology": DefaultApologyMessage,
	"messages.reset":   DefaultResetMessage,
	"messages.busy":    DefaultBusyMessage,

	"logger.level": DefaultLogLevel,
	"logger.json":  false,

	"storage.path":      "",
	"storage.namespace": DefaultStorageNamespace,

	"transport.timeout": time.Duration(0),

	"surface": DefaultSurface,

	"telegram.token":           "",
	"telegram.typing_interval": DefaultTypingInterval,

	"scheduler.tasks": map[string]any{
		"storage_maintenance": map[string]any{"enabled": true, "schedule": DefaultMaintenanceSchedule},
		"crawl_watch":         map[string]any{"enabled": false, "interval": DefaultCrawlPollInterval},
	},

	"crawl.base_url":   "",
	"crawl.token":      "",
	"crawl.client_ids": []string{},
}
