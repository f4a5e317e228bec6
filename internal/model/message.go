package model

import (
	"time"
)

// Role identifies the author of a conversation message.
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// Message is one entry in a session's conversation history.
type Message struct {
	ID             string    `json:"id"`
	OrganizationID string    `json:"organization_id"`
	SessionID      string    `json:"session_id"`
	Role           Role      `json:"role"`
	Content        string    `json:"content"`
	CreatedAt      time.Time `json:"created_at"`

	// JetStream metadata, populated on read.
	Sequence uint64 `json:"sequence,omitempty"`
}
