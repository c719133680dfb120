package widget

import (
	"fmt"
	"io"
	"sync"

	"github.com/charmbracelet/lipgloss"

	"github.com/edgard/chatwidget/internal/conversation"
	"github.com/edgard/chatwidget/internal/theme"
)

// Terminal renders the widget as styled lines on a terminal. Output is
// append-only, so the typing indicator is printed once when shown and the
// window is scrolled by construction.
type Terminal struct {
	mu      sync.Mutex
	out     io.Writer
	botName string
	styles  theme.Styles
	width   int
	count   int
	typing  bool
}

// NewTerminal returns a view writing to out.
func NewTerminal(out io.Writer, botName string, th theme.Theme, width int) *Terminal {
	if width <= 0 {
		width = 72
	}
	return &Terminal{
		out:     out,
		botName: botName,
		styles:  th.Styles(),
		width:   width,
	}
}

func (t *Terminal) Insert(m conversation.Message) {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.count++
	bubble := t.styles.Bot
	label := t.botName
	if m.Type == conversation.SenderUser {
		bubble = t.styles.User
		label = "You"
	}
	body := bubble.MaxWidth(t.width).Render(lipgloss.NewStyle().Width(t.width - 8).Render(m.Text))
	fmt.Fprintln(t.out, lipgloss.JoinVertical(lipgloss.Left, label, body))
}

func (t *Terminal) SetTyping(on bool) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if on && !t.typing {
		fmt.Fprintln(t.out, t.styles.Typing.Render(t.botName+" is typing..."))
	}
	t.typing = on
}

func (t *Terminal) SetOpen(open bool) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if open {
		fmt.Fprintln(t.out, t.styles.Header.Width(t.width).Render(t.botName))
		return
	}
	fmt.Fprintln(t.out, t.styles.Divider.Render("chat closed, /open to resume"))
}

func (t *Terminal) ScrollToBottom() {}

func (t *Terminal) Clear() {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.count = 0
	fmt.Fprintln(t.out, t.styles.Divider.Render("conversation cleared"))
}

func (t *Terminal) Len() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.count
}
