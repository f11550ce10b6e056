package v1

import (
	"log/slog"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"

	"github.com/hrygo/botgpt/internal/profile"
	"github.com/hrygo/botgpt/server/internal/observability"
	"github.com/hrygo/botgpt/server/service/conversation"
	"github.com/hrygo/botgpt/server/service/user"
)

// HeaderRequestID carries the request ID in and out of the API.
const HeaderRequestID = "X-Request-ID"

type APIV1Service struct {
	Profile       *profile.Profile
	Conversations *conversation.Service
	Users         *user.Service
	Metrics       *observability.Metrics

	logger *slog.Logger
}

func NewAPIV1Service(profile *profile.Profile, conversations *conversation.Service, users *user.Service, logger *slog.Logger) *APIV1Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &APIV1Service{
		Profile:       profile,
		Conversations: conversations,
		Users:         users,
		Metrics:       conversations.Metrics(),
		logger:        logger,
	}
}

// RegisterRoutes registers the JSON API with the given Echo instance.
func (s *APIV1Service) RegisterRoutes(echoServer *echo.Echo) {
	echoServer.Use(middleware.Recover())
	echoServer.GET("/", s.Banner)

	api := echoServer.Group("/api/v1")
	api.Use(middleware.CORSWithConfig(middleware.CORSConfig{
		AllowOriginFunc: func(_ string) (bool, error) {
			return true, nil
		},
		AllowMethods:  []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete, http.MethodOptions},
		AllowHeaders:  []string{"*"},
		ExposeHeaders: []string{HeaderRequestID},
	}))
	api.Use(s.requestContext)

	api.POST("/conversations", s.CreateConversation)
	api.GET("/conversations", s.ListConversations)
	api.GET("/conversations/:id", s.GetConversationHistory)
	api.PUT("/conversations/:id/messages", s.AddMessage)
	api.POST("/conversations/:id/archive", s.ArchiveConversation)
	api.DELETE("/conversations/:id", s.DeleteConversation)

	api.POST("/users", s.CreateUser)
	api.GET("/users", s.ListUsers)
	api.GET("/users/:id", s.GetUser)

	api.GET("/system/metrics", s.GetMetrics)
}

// requestContext attaches a RequestContext so service logs share the request ID.
func (s *APIV1Service) requestContext(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		req := c.Request()
		rc := observability.NewRequestContext(s.logger, c.Path())
		if requestID := req.Header.Get(HeaderRequestID); requestID != "" {
			rc.RequestID = requestID
		}
		c.Response().Header().Set(HeaderRequestID, rc.RequestID)
		c.SetRequest(req.WithContext(observability.WithRequestContext(req.Context(), rc)))

		err := next(c)
		rc.Debug("request served",
			slog.String("method", req.Method),
			slog.Int("status", c.Response().Status),
			slog.Int64(observability.LogFieldDuration, rc.DurationMs()),
		)
		return err
	}
}

// Banner answers the root path so probes can check the process is up.
func (s *APIV1Service) Banner(c echo.Context) error {
	version := ""
	if s.Profile != nil {
		version = s.Profile.Version
	}
	return c.JSON(http.StatusOK, map[string]string{
		"name":    "botgpt",
		"message": "conversation API is running",
		"version": version,
	})
}
