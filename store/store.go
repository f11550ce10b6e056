package store

import (
	"context"

	"github.com/hrygo/botgpt/internal/profile"
)

// Store provides database access to all raw objects.
type Store struct {
	profile *profile.Profile
	driver  Driver
}

// New creates a new instance of Store.
func New(driver Driver, profile *profile.Profile) *Store {
	return &Store{
		profile: profile,
		driver:  driver,
	}
}

func (s *Store) GetDriver() Driver {
	return s.driver
}

func (s *Store) Close() error {
	return s.driver.Close()
}

func (s *Store) CreateConversation(ctx context.Context, create *Conversation) (*Conversation, error) {
	return s.driver.CreateConversation(ctx, create)
}

func (s *Store) ListConversations(ctx context.Context, find *FindConversation) ([]*Conversation, error) {
	return s.driver.ListConversations(ctx, find)
}

// GetConversation returns the conversation or nil if it does not exist.
func (s *Store) GetConversation(ctx context.Context, find *FindConversation) (*Conversation, error) {
	list, err := s.driver.ListConversations(ctx, find)
	if err != nil {
		return nil, err
	}
	if len(list) == 0 {
		return nil, nil
	}
	return list[0], nil
}

func (s *Store) CountConversations(ctx context.Context, find *FindConversation) (int, error) {
	return s.driver.CountConversations(ctx, find)
}

func (s *Store) UpdateConversation(ctx context.Context, update *UpdateConversation) (*Conversation, error) {
	return s.driver.UpdateConversation(ctx, update)
}

func (s *Store) CreateMessages(ctx context.Context, creates []*Message) ([]*Message, error) {
	return s.driver.CreateMessages(ctx, creates)
}

func (s *Store) ListMessages(ctx context.Context, find *FindMessage) ([]*Message, error) {
	return s.driver.ListMessages(ctx, find)
}

func (s *Store) CreateDocument(ctx context.Context, create *Document) (*Document, error) {
	return s.driver.CreateDocument(ctx, create)
}

func (s *Store) ListDocuments(ctx context.Context, find *FindDocument) ([]*Document, error) {
	return s.driver.ListDocuments(ctx, find)
}

func (s *Store) CreateUser(ctx context.Context, create *User) (*User, error) {
	return s.driver.CreateUser(ctx, create)
}

func (s *Store) ListUsers(ctx context.Context, find *FindUser) ([]*User, error) {
	return s.driver.ListUsers(ctx, find)
}

// GetUser returns the user or nil if it does not exist.
func (s *Store) GetUser(ctx context.Context, find *FindUser) (*User, error) {
	list, err := s.driver.ListUsers(ctx, find)
	if err != nil {
		return nil, err
	}
	if len(list) == 0 {
		return nil, nil
	}
	return list[0], nil
}
