package widget

import (
	"sync"

	"github.com/edgard/chatwidget/internal/conversation"
)

// View is the rendered projection of a conversation. Implementations must be
// safe for concurrent use.
type View interface {
	// Insert renders m after every message already shown and before the
	// typing indicator.
	Insert(m conversation.Message)
	// SetTyping shows or hides the typing indicator.
	SetTyping(on bool)
	// SetOpen shows or hides the chat window.
	SetOpen(open bool)
	// ScrollToBottom brings the newest content into view.
	ScrollToBottom()
	// Clear removes every rendered message. The typing indicator stays.
	Clear()
	// Len is the number of rendered messages, typing indicator excluded.
	Len() int
}

// NodeKind distinguishes message nodes from the typing indicator.
type NodeKind int

const (
	NodeMessage NodeKind = iota
	NodeTyping
)

// Node is one element of a Pane.
type Node struct {
	Kind    NodeKind
	Message conversation.Message
	// Visible is meaningful for the typing node only.
	Visible bool
}

// Pane is a headless View. It keeps the rendered nodes in memory with the
// typing indicator permanently last. Like the store it holds at most
// conversation.MaxMessages messages, dropping the oldest.
type Pane struct {
	mu       sync.Mutex
	messages []conversation.Message
	typing   bool
	open     bool
	scrolls  int
}

// NewPane returns an empty, closed pane.
func NewPane() *Pane {
	return &Pane{}
}

func (p *Pane) Insert(m conversation.Message) {
	p.mu.Lock()
	p.messages = append(p.messages, m)
	if over := len(p.messages) - conversation.MaxMessages; over > 0 {
		p.messages = append([]conversation.Message(nil), p.messages[over:]...)
	}
	p.mu.Unlock()
}

func (p *Pane) SetTyping(on bool) {
	p.mu.Lock()
	p.typing = on
	p.mu.Unlock()
}

func (p *Pane) SetOpen(open bool) {
	p.mu.Lock()
	p.open = open
	p.mu.Unlock()
}

func (p *Pane) ScrollToBottom() {
	p.mu.Lock()
	p.scrolls++
	p.mu.Unlock()
}

func (p *Pane) Clear() {
	p.mu.Lock()
	p.messages = nil
	p.mu.Unlock()
}

func (p *Pane) Len() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.messages)
}

// Nodes returns the rendered nodes in display order. The last node is always
// the typing indicator.
func (p *Pane) Nodes() []Node {
	p.mu.Lock()
	defer p.mu.Unlock()

	nodes := make([]Node, 0, len(p.messages)+1)
	for _, m := range p.messages {
		nodes = append(nodes, Node{Kind: NodeMessage, Message: m, Visible: true})
	}
	return append(nodes, Node{Kind: NodeTyping, Visible: p.typing})
}

// Messages returns the rendered messages in display order.
func (p *Pane) Messages() []conversation.Message {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]conversation.Message, len(p.messages))
	copy(out, p.messages)
	return out
}

// Typing reports whether the typing indicator is shown.
func (p *Pane) Typing() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.typing
}

// IsOpen reports whether the window is shown.
func (p *Pane) IsOpen() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.open
}

// Scrolls counts ScrollToBottom calls.
func (p *Pane) Scrolls() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.scrolls
}
