package store

import (
	"context"
	"database/sql"
)

// Driver is an interface for store driver.
// It contains all methods that store database driver should implement.
type Driver interface {
	GetDB() *sql.DB
	Close() error

	// IsInitialized reports whether the schema has been applied.
	IsInitialized(ctx context.Context) (bool, error)

	// Conversation model related methods.
	CreateConversation(ctx context.Context, create *Conversation) (*Conversation, error)
	ListConversations(ctx context.Context, find *FindConversation) ([]*Conversation, error)
	CountConversations(ctx context.Context, find *FindConversation) (int, error)
	// UpdateConversation returns nil without error when no row matched.
	UpdateConversation(ctx context.Context, update *UpdateConversation) (*Conversation, error)

	// Message model related methods.
	// CreateMessages inserts all messages in a single transaction.
	CreateMessages(ctx context.Context, creates []*Message) ([]*Message, error)
	ListMessages(ctx context.Context, find *FindMessage) ([]*Message, error)

	// Document model related methods.
	CreateDocument(ctx context.Context, create *Document) (*Document, error)
	ListDocuments(ctx context.Context, find *FindDocument) ([]*Document, error)

	// User model related methods.
	CreateUser(ctx context.Context, create *User) (*User, error)
	ListUsers(ctx context.Context, find *FindUser) ([]*User, error)
}
