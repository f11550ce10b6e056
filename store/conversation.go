package store

// ConversationMode is fixed at creation.
type ConversationMode string

const (
	ConversationModeOpen     ConversationMode = "open"
	ConversationModeGrounded ConversationMode = "grounded"
)

// Valid reports whether m is a known mode.
func (m ConversationMode) Valid() bool {
	return m == ConversationModeOpen || m == ConversationModeGrounded
}

// ConversationState is the lifecycle state of a conversation.
// Transitions only move forward: active -> archived -> deleted, or active -> deleted.
type ConversationState string

const (
	ConversationStateActive   ConversationState = "active"
	ConversationStateArchived ConversationState = "archived"
	ConversationStateDeleted  ConversationState = "deleted"
)

// CanTransitionTo reports whether moving from s to next is allowed.
func (s ConversationState) CanTransitionTo(next ConversationState) bool {
	switch s {
	case ConversationStateActive:
		return next == ConversationStateArchived || next == ConversationStateDeleted
	case ConversationStateArchived:
		return next == ConversationStateDeleted
	}
	return false
}

type Conversation struct {
	ID        int32
	UID       string
	UserID    int32
	Title     string
	Mode      ConversationMode
	State     ConversationState
	CreatedTs int64
	UpdatedTs int64
}

type FindConversation struct {
	ID     *int32
	UID    *string
	UserID *int32
	// ExcludeDeleted hides soft-deleted conversations.
	ExcludeDeleted bool

	Limit  *int
	Offset *int
}

// UpdateConversation updates a conversation. When ExpectedStates is set the
// update only applies if the current state is one of them.
type UpdateConversation struct {
	ID             int32
	Title          *string
	State          *ConversationState
	UpdatedTs      *int64
	ExpectedStates []ConversationState
}

type MessageRole string

const (
	MessageRoleUser      MessageRole = "user"
	MessageRoleAssistant MessageRole = "assistant"
	MessageRoleSystem    MessageRole = "system"
)

// Message is immutable once created.
type Message struct {
	ID             int32
	UID            string
	ConversationID int32
	Role           MessageRole
	Content        string
	CreatedTs      int64
	// TokensUsed is set only for assistant messages.
	TokensUsed *int32
}

type FindMessage struct {
	ID             *int32
	ConversationID *int32
}

type Document struct {
	ID             int32
	ConversationID int32
	Name           string
	Content        string
}

type FindDocument struct {
	IDs            []int32
	ConversationID *int32
}

type User struct {
	ID        int32
	Username  string
	Email     string
	CreatedTs int64
}

type FindUser struct {
	ID       *int32
	Username *string
	Email    *string
}
