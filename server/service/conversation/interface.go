// Package conversation orchestrates multi-turn conversations with a language model.
//
// It decides what goes into each model call (history, optional retrieved document
// context, trimmed to a token budget), persists the resulting user/assistant pair
// atomically, and keeps cached histories and listings consistent with the store.
//
// Known limitation: without WithSerializedAppends, two concurrent AddMessage calls
// on the same conversation can read the same history and append divergent turns.
package conversation

import (
	"context"

	"github.com/hrygo/botgpt/plugin/ai"
	"github.com/hrygo/botgpt/store"
)

// Store is the subset of store operations the orchestrator needs.
type Store interface {
	CreateConversation(ctx context.Context, create *store.Conversation) (*store.Conversation, error)
	GetConversation(ctx context.Context, find *store.FindConversation) (*store.Conversation, error)
	ListConversations(ctx context.Context, find *store.FindConversation) ([]*store.Conversation, error)
	CountConversations(ctx context.Context, find *store.FindConversation) (int, error)
	UpdateConversation(ctx context.Context, update *store.UpdateConversation) (*store.Conversation, error)
	CreateMessages(ctx context.Context, creates []*store.Message) ([]*store.Message, error)
	ListMessages(ctx context.Context, find *store.FindMessage) ([]*store.Message, error)
	ListDocuments(ctx context.Context, find *store.FindDocument) ([]*store.Document, error)
}

// Retriever picks the chunks relevant to a query and joins them.
type Retriever interface {
	Select(query string, chunks []string) string
}

// Trimmer fits a message sequence into the context budget.
type Trimmer interface {
	Trim(messages []ai.Message) []ai.Message
}

// UserChecker resolves user references. It is owned by user management.
type UserChecker interface {
	UserExists(ctx context.Context, userID int32) (bool, error)
}

// CreateRequest represents the request to start a conversation.
type CreateRequest struct {
	UserID       int32
	Title        string
	FirstMessage string
	// Mode defaults to open when empty.
	Mode        store.ConversationMode
	DocumentIDs []int32
}

// Turn is the user message and the assistant reply persisted by one AddMessage.
type Turn struct {
	UserMessage      *store.Message
	AssistantMessage *store.Message
}

// HistoryEntry is one message as returned by History.
type HistoryEntry struct {
	Role      store.MessageRole `json:"role"`
	Content   string            `json:"content"`
	Timestamp int64             `json:"timestamp"`
}

// ListResult is one page of a user's conversations.
type ListResult struct {
	Items []*store.Conversation
	Page  int
	Limit int
	// Total counts every non-deleted conversation of the user.
	Total int
}
