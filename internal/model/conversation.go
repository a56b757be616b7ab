package model

import (
	"fmt"
	"time"
)

// Role is the author of a conversation turn.
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// Validate validates the role.
func (r Role) Validate() error {
	switch r {
	case RoleUser, RoleAssistant:
		return nil
	}
	return fmt.Errorf("unknown role %q: %w", r, ErrNotValid)
}

// Conversation groups the turns between an owner and the assistant.
type Conversation struct {
	ID        string
	OwnerID   string
	CreatedAt time.Time
	// UpdatedAt is the last activity on the conversation.
	UpdatedAt time.Time
}

// Turn is a single message of a conversation.
type Turn struct {
	ID             string
	ConversationID string
	OwnerID        string
	Role           Role
	Content        string
	CreatedAt      time.Time
}

// TurnResponse is the outcome of a chat turn.
type TurnResponse struct {
	ConversationID  string
	Reply           string
	ToolInvocations []ToolInvocation
}
