package middleware

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hrygo/botgpt/plugin/ai"
	"github.com/hrygo/botgpt/server/internal/errors"
)

type countingModel struct {
	calls int
}

func (m *countingModel) Call(context.Context, []ai.Message) (*ai.Completion, error) {
	m.calls++
	return &ai.Completion{Content: "ok", TokensUsed: 1}, nil
}

func TestNewRateLimitedModelDisabled(t *testing.T) {
	next := &countingModel{}
	assert.Same(t, next, NewRateLimitedModel(next, 0, 5))
}

func TestRateLimitedModelForwards(t *testing.T) {
	next := &countingModel{}
	model := NewRateLimitedModel(next, 50, 2)
	limited, ok := model.(*RateLimitedModel)
	require.True(t, ok)
	assert.Equal(t, 20*time.Millisecond, limited.Every())

	for i := 0; i < 3; i++ {
		completion, err := model.Call(context.Background(), []ai.Message{ai.UserMessage("hi")})
		require.NoError(t, err)
		assert.Equal(t, "ok", completion.Content)
	}
	assert.Equal(t, 3, next.calls)
}

func TestRateLimitedModelHonorsContext(t *testing.T) {
	next := &countingModel{}
	// One call per minute: the second call cannot get a token in time.
	model := NewRateLimitedModel(next, 1.0/60, 1)

	_, err := model.Call(context.Background(), nil)
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	_, err = model.Call(ctx, nil)
	require.Error(t, err)
	pe, ok := errors.AsProvider(err)
	require.True(t, ok)
	assert.Equal(t, 0, pe.StatusCode)
	assert.Equal(t, 1, next.calls)
}
