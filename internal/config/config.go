package config

import (
	"fmt"
	"io"
	"strings"

	"golang.org/x/net/html"
)

// Host-page attributes recognized on the embedding script tag.
const (
	AttrAPIURL         = "data-api-url"
	AttrAPIKey         = "data-api-key"
	AttrBotName        = "data-bot-name"
	AttrPrimaryColor   = "data-primary-color"
	AttrWelcomeMessage = "data-welcome-message"
)

// FromAttributes builds the widget configuration from host-page markup
// attributes. Absent or blank attributes fall back to the defaults; the API
// key has no default and stays empty when absent.
func FromAttributes(attrs map[string]string) Widget {
	return Widget{
		APIURL:         attrOrDefault(attrs, AttrAPIURL, DefaultAPIURL),
		APIKey:         strings.TrimSpace(attrs[AttrAPIKey]),
		BotName:        attrOrDefault(attrs, AttrBotName, DefaultBotName),
		PrimaryColor:   attrOrDefault(attrs, AttrPrimaryColor, DefaultPrimaryColor),
		WelcomeMessage: attrOrDefault(attrs, AttrWelcomeMessage, DefaultWelcomeMessage),
	}
}

// AttributesFromMarkup returns the data-* attributes of the first <script>
// element in r that carries any recognized widget attribute.
func AttributesFromMarkup(r io.Reader) (map[string]string, error) {
	z := html.NewTokenizer(r)
	for {
		switch z.Next() {
		case html.ErrorToken:
			if z.Err() == io.EOF {
				return nil, fmt.Errorf("no widget script tag found")
			}
			return nil, fmt.Errorf("failed to parse markup: %w", z.Err())
		case html.StartTagToken, html.SelfClosingTagToken:
			tok := z.Token()
			if tok.Data != "script" {
				continue
			}
			attrs := make(map[string]string)
			for _, a := range tok.Attr {
				if strings.HasPrefix(a.Key, "data-") {
					attrs[a.Key] = a.Val
				}
			}
			if isWidgetTag(attrs) {
				return attrs, nil
			}
		}
	}
}

func isWidgetTag(attrs map[string]string) bool {
	for _, key := range []string{AttrAPIURL, AttrAPIKey, AttrBotName, AttrPrimaryColor, AttrWelcomeMessage} {
		if _, ok := attrs[key]; ok {
			return true
		}
	}
	return false
}

func attrOrDefault(attrs map[string]string, key, fallback string) string {
	if v := strings.TrimSpace(attrs[key]); v != "" {
		return v
	}
	return fallback
}
