package v1

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/hrygo/botgpt/server/internal/errors"
	"github.com/hrygo/botgpt/store"
)

type CreateUserRequest struct {
	Username string `json:"username"`
	Email    string `json:"email"`
}

type User struct {
	ID        int32  `json:"id"`
	Username  string `json:"username"`
	Email     string `json:"email"`
	CreatedTs int64  `json:"created_ts"`
}

// CreateUser registers a user.
// POST /api/v1/users
func (s *APIV1Service) CreateUser(c echo.Context) error {
	request := &CreateUserRequest{}
	if err := c.Bind(request); err != nil {
		return s.writeError(c, errors.Validation("malformed request body"))
	}
	user, err := s.Users.CreateUser(c.Request().Context(), request.Username, request.Email)
	if err != nil {
		return s.writeError(c, err)
	}
	return c.JSON(http.StatusCreated, convertUserFromStore(user))
}

// ListUsers returns every registered user.
// GET /api/v1/users
func (s *APIV1Service) ListUsers(c echo.Context) error {
	users, err := s.Users.ListUsers(c.Request().Context())
	if err != nil {
		return s.writeError(c, err)
	}
	response := make([]*User, 0, len(users))
	for _, user := range users {
		response = append(response, convertUserFromStore(user))
	}
	return c.JSON(http.StatusOK, response)
}

// GetUser returns a single user.
// GET /api/v1/users/:id
func (s *APIV1Service) GetUser(c echo.Context) error {
	userID, err := parseID(c.Param("id"), "user id")
	if err != nil {
		return s.writeError(c, err)
	}
	user, err := s.Users.GetUser(c.Request().Context(), userID)
	if err != nil {
		return s.writeError(c, err)
	}
	return c.JSON(http.StatusOK, convertUserFromStore(user))
}

func convertUserFromStore(user *store.User) *User {
	return &User{
		ID:        user.ID,
		Username:  user.Username,
		Email:     user.Email,
		CreatedTs: user.CreatedTs,
	}
}
