// Package theme derives the widget's colors from its primary color.
package theme

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/charmbracelet/lipgloss"
)

// HoverDelta darkens the primary color for hover states.
const HoverDelta = -20

// AdjustColor adds delta to each RGB channel of hex, clamping to [0, 255].
// It accepts #rgb, #rgba, #rrggbb and #rrggbbaa; alpha passes through
// unchanged. The result is lowercase with a leading '#'.
func AdjustColor(hex string, delta int) (string, error) {
	digits := strings.TrimPrefix(strings.TrimSpace(hex), "#")
	switch len(digits) {
	case 3, 4:
		var b strings.Builder
		for _, r := range digits {
			b.WriteRune(r)
			b.WriteRune(r)
		}
		digits = b.String()
	case 6, 8:
	default:
		return "", fmt.Errorf("invalid hex color %q", hex)
	}

	v, err := strconv.ParseUint(digits, 16, 32)
	if err != nil {
		return "", fmt.Errorf("invalid hex color %q: %w", hex, err)
	}

	var alpha string
	if len(digits) == 8 {
		alpha = strings.ToLower(digits[6:])
		v >>= 8
	}

	r := clamp(int(v>>16&0xff) + delta)
	g := clamp(int(v>>8&0xff) + delta)
	b := clamp(int(v&0xff) + delta)
	return fmt.Sprintf("#%02x%02x%02x%s", r, g, b, alpha), nil
}

func clamp(c int) int {
	return max(0, min(255, c))
}

// Theme holds the widget palette.
type Theme struct {
	Primary string
	Hover   string
}

// New derives a theme from the primary color.
func New(primary string) (Theme, error) {
	hover, err := AdjustColor(primary, HoverDelta)
	if err != nil {
		return Theme{}, err
	}
	return Theme{Primary: primary, Hover: hover}, nil
}

// CSS returns the style block that applies the palette to the widget's
// button, header and send control.
func (t Theme) CSS() string {
	return fmt.Sprintf(`.ai-chatbot-button, .ai-chatbot-header, .ai-chatbot-send {
  background-color: %s;
}
.ai-chatbot-button:hover {
  background-color: %s;
}
`, t.Primary, t.Hover)
}

// Styles are the terminal renderings of the palette.
type Styles struct {
	Header  lipgloss.Style
	User    lipgloss.Style
	Bot     lipgloss.Style
	Typing  lipgloss.Style
	Divider lipgloss.Style
}

// Styles builds terminal styles from the palette.
func (t Theme) Styles() Styles {
	primary := lipgloss.Color(t.Primary)
	return Styles{
		Header: lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#ffffff")).
			Background(primary).
			Padding(0, 1),
		User: lipgloss.NewStyle().
			Foreground(lipgloss.Color("#ffffff")).
			Background(lipgloss.Color(t.Hover)).
			Padding(0, 1).
			MarginLeft(8),
		Bot: lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(primary).
			Padding(0, 1),
		Typing: lipgloss.NewStyle().
			Faint(true).
			Italic(true),
		Divider: lipgloss.NewStyle().
			Foreground(primary),
	}
}
