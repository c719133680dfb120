// Package conversation owns the widget's message history and backend session
// id, and keeps their durable copy in step with memory.
package conversation

// Sender identifies who wrote a message.
type Sender string

// Message senders.
const (
	SenderUser Sender = "user"
	SenderBot  Sender = "bot"
)

// Message is one entry of the transcript. Insertion order is chronological.
type Message struct {
	Type Sender `json:"type"`
	Text string `json:"text"`
}

// UserMessage returns a message written by the visitor.
func UserMessage(text string) Message {
	return Message{Type: SenderUser, Text: text}
}

// BotMessage returns a message written by the bot.
func BotMessage(text string) Message {
	return Message{Type: SenderBot, Text: text}
}
