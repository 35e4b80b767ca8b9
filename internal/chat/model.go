package chat

import (
	"time"

	"github.com/google/uuid"
)

// ApologyMessage replaces the AI answer whenever the model cannot be reached.
const ApologyMessage = "I apologize, I m facing some issues, please contact at support@entab.org"

type MessageType string

const (
	MessageTypeFreeform MessageType = "freeform"
	MessageTypeMenu     MessageType = "menu"
)

type Session struct {
	ID        string    `json:"sessionId"`
	CreatedAt time.Time `json:"createdAt"`
}

type Message struct {
	ID        uuid.UUID   `json:"id"`
	SessionID string      `json:"sessionId"`
	Content   string      `json:"content"`
	IsUser    bool        `json:"isUser"`
	NodeKey   string      `json:"nodeKey,omitempty"`
	Type      MessageType `json:"type"`
	Timestamp time.Time   `json:"timestamp"`
}
