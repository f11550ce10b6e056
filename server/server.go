package server

import (
	"context"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/hrygo/botgpt/internal/profile"
	aicontext "github.com/hrygo/botgpt/plugin/ai/context"
	serverai "github.com/hrygo/botgpt/server/ai"
	"github.com/hrygo/botgpt/server/internal/observability"
	"github.com/hrygo/botgpt/server/middleware"
	apiv1 "github.com/hrygo/botgpt/server/router/api/v1"
	"github.com/hrygo/botgpt/server/service/conversation"
	"github.com/hrygo/botgpt/server/service/user"
	"github.com/hrygo/botgpt/store"
	"github.com/hrygo/botgpt/store/cache"
)

type Server struct {
	Profile *profile.Profile
	Store   *store.Store
	Cache   cache.Cache

	echoServer *echo.Echo
}

// NewServer wires the cache, model provider and services behind the HTTP API.
func NewServer(ctx context.Context, profile *profile.Profile, store *store.Store) (*Server, error) {
	c, err := cache.NewFromProfile(ctx, profile)
	if err != nil {
		return nil, errors.Wrap(err, "failed to create cache")
	}

	if !profile.IsLLMConfigured() {
		slog.Warn("no model API key configured, model calls will fail")
	}
	logger := slog.Default()
	provider := serverai.NewProvider(&serverai.Config{
		BaseURL:   profile.LLMBaseURL,
		APIKey:    profile.LLMAPIKey,
		Model:     profile.LLMModel,
		MaxTokens: profile.LLMMaxTokens,
		Timeout:   profile.LLMTimeout,
	}).WithLogger(logger)
	model := middleware.NewRateLimitedModel(provider, profile.LLMRateLimit, profile.LLMRateBurst)

	users := user.NewService(store, c, profile.CacheTTL, logger)
	conversations := conversation.NewService(store, c, model,
		conversation.WithTrimmer(aicontext.NewTrimmer(profile.ContextBudget, nil)),
		conversation.WithUserChecker(users),
		conversation.WithHistoryTTL(profile.CacheTTL),
		conversation.WithListTTL(profile.CacheTTL),
		conversation.WithSerializedAppends(profile.SerializeAppends),
		conversation.WithLogger(logger),
		conversation.WithMetrics(observability.NewMetrics(0)),
	)

	echoServer := echo.New()
	echoServer.Debug = profile.IsDev()
	echoServer.HideBanner = true
	echoServer.HidePort = true
	apiv1.NewAPIV1Service(profile, conversations, users, logger).RegisterRoutes(echoServer)

	return &Server{
		Profile:    profile,
		Store:      store,
		Cache:      c,
		echoServer: echoServer,
	}, nil
}

// Handler exposes the HTTP handler, mainly for tests.
func (s *Server) Handler() http.Handler {
	return s.echoServer
}

// Start listens on addr:port and serves in the background.
func (s *Server) Start(_ context.Context) error {
	address := fmt.Sprintf("%s:%d", s.Profile.Addr, s.Profile.Port)
	listener, err := net.Listen("tcp", address)
	if err != nil {
		return errors.Wrapf(err, "failed to listen on %s", address)
	}

	go func() {
		if err := s.echoServer.Server.Serve(listener); err != nil && err != http.ErrServerClosed {
			slog.Error("failed to start echo server", "error", err)
		}
	}()
	return nil
}

func (s *Server) Shutdown(ctx context.Context) {
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	slog.Info("server shutting down")
	if err := s.echoServer.Shutdown(ctx); err != nil {
		slog.Error("failed to shutdown server", slog.String("error", err.Error()))
	}
	if err := s.Cache.Close(); err != nil {
		slog.Error("failed to close cache", slog.String("error", err.Error()))
	}
	if err := s.Store.Close(); err != nil {
		slog.Error("failed to close database", slog.String("error", err.Error()))
	}
	slog.Info("botgpt stopped properly")
}
