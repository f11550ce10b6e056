package ai

import (
	"context"
	"fmt"
)

// Role is the author of a chat message. Only the constants below are valid.
type Role string

const (
	RoleSystem    Role = "system"
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// Valid reports whether r is one of the known roles.
func (r Role) Valid() bool {
	switch r {
	case RoleSystem, RoleUser, RoleAssistant:
		return true
	}
	return false
}

// ParseRole converts a raw role string into a Role.
func ParseRole(s string) (Role, error) {
	r := Role(s)
	if !r.Valid() {
		return "", fmt.Errorf("unknown message role: %q", s)
	}
	return r, nil
}

// Message represents a chat message.
type Message struct {
	Role    Role
	Content string
}

// Completion is the normalized model response.
type Completion struct {
	Content string
	// TokensUsed is the provider-reported total token usage, 0 when omitted.
	TokensUsed int
}

// ModelClient performs a single chat completion call.
type ModelClient interface {
	Call(ctx context.Context, messages []Message) (*Completion, error)
}

// Helper for creating system prompts
func SystemPrompt(content string) Message {
	return Message{Role: RoleSystem, Content: content}
}

// Helper for creating user messages
func UserMessage(content string) Message {
	return Message{Role: RoleUser, Content: content}
}

// Helper for creating assistant messages
func AssistantMessage(content string) Message {
	return Message{Role: RoleAssistant, Content: content}
}
