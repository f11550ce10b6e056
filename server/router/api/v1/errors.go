package v1

import (
	stderrors "errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"

	"github.com/hrygo/botgpt/server/internal/errors"
)

// ErrorResponse is the body of every failed request.
type ErrorResponse struct {
	Code    errors.ErrorCode `json:"code"`
	Message string           `json:"message"`
	// Conversation is set when a create persisted the conversation but its
	// first turn failed, so the client can retry with AddMessage.
	Conversation *Conversation `json:"conversation,omitempty"`
}

func statusOf(code errors.ErrorCode) int {
	switch code {
	case errors.ErrCodeNotFound:
		return http.StatusNotFound
	case errors.ErrCodeValidation:
		return http.StatusBadRequest
	case errors.ErrCodeProvider:
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

func (s *APIV1Service) writeError(c echo.Context, err error) error {
	status, response := s.errorResponse(c, err)
	return c.JSON(status, response)
}

// errorResponse maps a service error onto a status code and JSON body.
// Storage and unknown failures hide their cause from the client.
func (s *APIV1Service) errorResponse(c echo.Context, err error) (int, *ErrorResponse) {
	code := errors.CodeOf(err)
	status := statusOf(code)
	message := err.Error()
	switch code {
	case errors.ErrCodeNotFound, errors.ErrCodeValidation:
		var typed *errors.Error
		if stderrors.As(err, &typed) {
			message = typed.Message
		}
	case errors.ErrCodeProvider:
		// Provider status and body are passed through for diagnosis.
	default:
		s.logger.Error("request failed", slog.String("path", c.Path()), slog.String("error", err.Error()))
		message = "internal error"
	}
	return status, &ErrorResponse{Code: code, Message: message}
}

func parseID(raw, name string) (int32, error) {
	id, err := strconv.ParseInt(raw, 10, 32)
	if err != nil || id <= 0 {
		return 0, errors.Validationf("invalid %s %q", name, raw)
	}
	return int32(id), nil
}

// parseOptionalInt returns 0 when raw is empty.
func parseOptionalInt(raw, name string) (int, error) {
	if raw == "" {
		return 0, nil
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return 0, errors.Validationf("invalid %s %q", name, raw)
	}
	return v, nil
}
