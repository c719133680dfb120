package config

import (
	"errors"
	"fmt"

	"github.com/go-playground/validator/v10"
)

var validate = validator.New(validator.WithRequiredStructEnabled())

// Validate checks struct-level constraints and the cross-field rules the
// validator tags cannot express.
func (c *Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		return err
	}

	if c.Surface == SurfaceTelegram && c.Telegram.Token == "" {
		return errors.New("telegram.token is required when surface is telegram")
	}

	for name, task := range c.Scheduler.Tasks {
		if !task.Enabled {
			continue
		}
		if (task.Schedule == "") == (task.Interval <= 0) {
			return fmt.Errorf("scheduler task %q must set exactly one of schedule or interval", name)
		}
	}

	if watch := c.Scheduler.Tasks["crawl_watch"]; watch.Enabled && c.Crawl.BaseURL == "" {
		return errors.New("crawl.base_url is required when the crawl_watch task is enabled")
	}

	return nil
}

// Validate checks a widget configuration built outside Load, e.g. from
// host-page attributes. A missing API key passes: it is reported at send time.
func (w Widget) Validate() error {
	return validate.Struct(w)
}

// HasAPIKey reports whether the widget can authenticate against the backend.
func (w Widget) HasAPIKey() bool {
	return w.APIKey != ""
}
