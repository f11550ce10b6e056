package middleware

import (
	"context"
	"time"

	"golang.org/x/time/rate"

	"github.com/hrygo/botgpt/plugin/ai"
	"github.com/hrygo/botgpt/server/internal/errors"
)

// RateLimitedModel throttles outbound model calls for the whole process.
// Calls wait for a token; a caller whose context ends while waiting gets a
// provider error with status 0 and nothing is sent.
type RateLimitedModel struct {
	next    ai.ModelClient
	limiter *rate.Limiter
}

// NewRateLimitedModel wraps next with a limiter of perSecond calls and the given burst.
// A non-positive rate returns next unchanged.
func NewRateLimitedModel(next ai.ModelClient, perSecond float64, burst int) ai.ModelClient {
	if perSecond <= 0 {
		return next
	}
	if burst <= 0 {
		burst = 1
	}
	return &RateLimitedModel{
		next:    next,
		limiter: rate.NewLimiter(rate.Limit(perSecond), burst),
	}
}

// Call waits for the limiter and forwards the call.
func (m *RateLimitedModel) Call(ctx context.Context, messages []ai.Message) (*ai.Completion, error) {
	if err := m.limiter.Wait(ctx); err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			err = ctxErr
		}
		return nil, errors.Provider(0, "", err)
	}
	return m.next.Call(ctx, messages)
}

// Every returns the minimum spacing between calls once the burst is spent.
func (m *RateLimitedModel) Every() time.Duration {
	return time.Duration(float64(time.Second) / float64(m.limiter.Limit()))
}
