package errors

import (
	"context"
	stderrors "errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCodeOf(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want ErrorCode
	}{
		{"not found", NotFound("conversation not found"), ErrCodeNotFound},
		{"validation", Validationf("unknown mode %q", "x"), ErrCodeValidation},
		{"storage", Storage("failed to list messages", stderrors.New("disk")), ErrCodeStorage},
		{"provider", Provider(500, "boom", nil), ErrCodeProvider},
		{"wrapped provider", fmt.Errorf("add message: %w", Provider(429, "slow down", nil)), ErrCodeProvider},
		{"plain", stderrors.New("plain"), ErrCodeUnknown},
		{"nil", nil, ErrCodeUnknown},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, CodeOf(tt.err))
		})
	}
}

func TestProviderError(t *testing.T) {
	err := Provider(503, "upstream down", nil)
	assert.Equal(t, "[PROVIDER] model call failed: status 503 - upstream down", err.Error())
	assert.True(t, IsProvider(err))

	cancelled := Provider(0, "", context.Canceled)
	assert.True(t, stderrors.Is(cancelled, context.Canceled))

	pe, ok := AsProvider(fmt.Errorf("wrap: %w", err))
	require.True(t, ok)
	assert.Equal(t, 503, pe.StatusCode)
	assert.Equal(t, "upstream down", pe.Body)
}

func TestErrorWithContext(t *testing.T) {
	cause := stderrors.New("constraint violated")
	err := Storage("failed to persist turn", cause).WithContext("conversation_id", 7)

	assert.True(t, IsStorage(err))
	assert.False(t, IsNotFound(err))
	assert.Equal(t, 7, err.Context["conversation_id"])
	assert.ErrorIs(t, err, cause)
	assert.Contains(t, err.Error(), "constraint violated")
}
