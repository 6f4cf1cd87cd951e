package chat

import "time"

// Role identifies who produced a message.
type Role string

const (
	RoleUser           Role = "user"
	RoleAssistant      Role = "assistant"
	RoleSystem         Role = "system"
	RoleRepresentative Role = "representative"
	RoleAdmin          Role = "admin"
)

// Message is a single turn in a conversation. Assistant content is stored
// raw, control tags included, so re-display always has them available.
type Message struct {
	ID        string    `json:"id,omitempty"`
	Role      Role      `json:"role"`
	Content   string    `json:"content"`
	Timestamp time.Time `json:"timestamp"`
}
