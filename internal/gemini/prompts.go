package gemini

import "strings"

// replyRules is appended to every system instruction.
const replyRules = `

Reply in plain text suitable for a small chat window. Keep answers short. If you do not know something about the business, say so instead of guessing.`

// SystemInstruction fills the client name into every %s of the configured
// instruction. Other % sequences are left as written.
func SystemInstruction(template, clientName string) string {
	return strings.ReplaceAll(template, "%s", clientName) + replyRules
}
