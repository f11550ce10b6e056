// Package user manages the user records conversations belong to.
package user

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/mail"
	"strings"
	"time"

	"github.com/hrygo/botgpt/server/internal/errors"
	"github.com/hrygo/botgpt/store"
	"github.com/hrygo/botgpt/store/cache"
)

const (
	// UsersKey caches the full user listing.
	UsersKey = "users"

	DefaultCacheTTL = time.Hour
)

// UserKey is the cache key of one user record.
func UserKey(id int32) string {
	return fmt.Sprintf("user:%d", id)
}

// Store is the subset of store operations the user service needs.
type Store interface {
	CreateUser(ctx context.Context, create *store.User) (*store.User, error)
	GetUser(ctx context.Context, find *store.FindUser) (*store.User, error)
	ListUsers(ctx context.Context, find *store.FindUser) ([]*store.User, error)
}

// Service manages users. It shares the cache instance with the conversation service.
type Service struct {
	store  Store
	cache  cache.Cache
	ttl    time.Duration
	logger *slog.Logger
	now    func() time.Time
}

// NewService creates a user service. A nil cache disables caching.
func NewService(s Store, c cache.Cache, ttl time.Duration, logger *slog.Logger) *Service {
	if c == nil {
		c = cache.NewNilCache()
	}
	if ttl <= 0 {
		ttl = DefaultCacheTTL
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{store: s, cache: c, ttl: ttl, logger: logger, now: time.Now}
}

// CreateUser registers a user. Usernames and emails must be unique.
func (s *Service) CreateUser(ctx context.Context, username, email string) (*store.User, error) {
	username = strings.TrimSpace(username)
	email = strings.TrimSpace(email)
	if username == "" {
		return nil, errors.Validation("username is required")
	}
	if _, err := mail.ParseAddress(email); err != nil {
		return nil, errors.Validationf("invalid email %q", email)
	}

	existing, err := s.store.GetUser(ctx, &store.FindUser{Username: &username})
	if err != nil {
		return nil, errors.Storage("failed to look up username", err)
	}
	if existing != nil {
		return nil, errors.Validation("username already registered")
	}
	existing, err = s.store.GetUser(ctx, &store.FindUser{Email: &email})
	if err != nil {
		return nil, errors.Storage("failed to look up email", err)
	}
	if existing != nil {
		return nil, errors.Validation("email already registered")
	}

	user, err := s.store.CreateUser(ctx, &store.User{
		Username:  username,
		Email:     email,
		CreatedTs: s.now().Unix(),
	})
	if err != nil {
		return nil, errors.Storage("failed to create user", err)
	}

	if err := s.cache.Delete(ctx, UsersKey); err != nil {
		s.logger.Warn("failed to invalidate cache", "key", UsersKey, "error", err)
	}
	s.logger.Info("user created", "user_id", user.ID)
	return user, nil
}

// GetUser returns the user, or a not found error.
func (s *Service) GetUser(ctx context.Context, id int32) (*store.User, error) {
	key := UserKey(id)
	if data, ok := s.cache.Get(ctx, key); ok {
		var cached store.User
		if err := json.Unmarshal(data, &cached); err == nil {
			return &cached, nil
		}
	}

	user, err := s.store.GetUser(ctx, &store.FindUser{ID: &id})
	if err != nil {
		return nil, errors.Storage("failed to get user", err)
	}
	if user == nil {
		return nil, errors.NotFoundf("user %d not found", id)
	}
	s.fill(ctx, key, user)
	return user, nil
}

// ListUsers returns every user ordered by ID.
func (s *Service) ListUsers(ctx context.Context) ([]*store.User, error) {
	if data, ok := s.cache.Get(ctx, UsersKey); ok {
		var cached []*store.User
		if err := json.Unmarshal(data, &cached); err == nil {
			return cached, nil
		}
	}

	users, err := s.store.ListUsers(ctx, &store.FindUser{})
	if err != nil {
		return nil, errors.Storage("failed to list users", err)
	}
	s.fill(ctx, UsersKey, users)
	return users, nil
}

// UserExists reports whether the user is registered.
func (s *Service) UserExists(ctx context.Context, userID int32) (bool, error) {
	_, err := s.GetUser(ctx, userID)
	if err != nil {
		if errors.IsNotFound(err) {
			return false, nil
		}
		return false, err
	}
	return true, nil
}

func (s *Service) fill(ctx context.Context, key string, value any) {
	data, err := json.Marshal(value)
	if err != nil {
		return
	}
	if err := s.cache.Set(ctx, key, data, s.ttl); err != nil {
		s.logger.Warn("failed to fill cache", "key", key, "error", err)
	}
}
