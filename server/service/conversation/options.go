package conversation

import (
	"log/slog"
	"time"

	"github.com/hrygo/botgpt/server/internal/observability"
)

// Option configures a Service.
type Option func(*Service)

// WithRetriever replaces the keyword retriever used in grounded mode.
func WithRetriever(r Retriever) Option {
	return func(s *Service) {
		if r != nil {
			s.retriever = r
		}
	}
}

// WithTrimmer replaces the default word-count trimmer.
func WithTrimmer(t Trimmer) Option {
	return func(s *Service) {
		if t != nil {
			s.trimmer = t
		}
	}
}

// WithUserChecker enables user validation on Create.
func WithUserChecker(c UserChecker) Option {
	return func(s *Service) {
		s.users = c
	}
}

// WithHistoryTTL sets the TTL of cached histories.
func WithHistoryTTL(ttl time.Duration) Option {
	return func(s *Service) {
		if ttl > 0 {
			s.historyTTL = ttl
		}
	}
}

// WithListTTL sets the TTL of cached listings.
func WithListTTL(ttl time.Duration) Option {
	return func(s *Service) {
		if ttl > 0 {
			s.listTTL = ttl
		}
	}
}

func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) {
		if logger != nil {
			s.logger = logger
		}
	}
}

func WithMetrics(m *observability.Metrics) Option {
	return func(s *Service) {
		if m != nil {
			s.metrics = m
		}
	}
}

// WithSerializedAppends serializes AddMessage per conversation within this process.
func WithSerializedAppends(enabled bool) Option {
	return func(s *Service) {
		s.serializeAppends = enabled
	}
}

// WithClock overrides the time source used for timestamps.
func WithClock(now func() time.Time) Option {
	return func(s *Service) {
		if now != nil {
			s.now = now
		}
	}
}
