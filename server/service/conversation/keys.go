package conversation

import (
	"fmt"
	"time"
)

const (
	// DefaultCacheTTL bounds how long a cached history or listing may be stale.
	DefaultCacheTTL = time.Hour

	// MaxCachedListSize is the largest listing kept as a single cache snapshot.
	MaxCachedListSize = 1000

	DefaultPageSize = 20
	MaxPageSize     = 100

	// ContextPrefix introduces retrieved document text in the system message.
	ContextPrefix = "Relevant context: "
)

// HistoryKey is the cache key of a conversation's message history.
func HistoryKey(conversationID int32) string {
	return fmt.Sprintf("conversation:%d:history", conversationID)
}

// ListKey is the cache key of a user's conversation listing.
func ListKey(userID int32) string {
	return fmt.Sprintf("conversations:%d", userID)
}
