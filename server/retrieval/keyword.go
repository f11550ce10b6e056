package retrieval

import (
	"strings"
)

// DefaultMaxChunks is the number of matching chunks returned by Select.
const DefaultMaxChunks = 3

// KeywordRetriever selects document chunks sharing at least one word with
// the query. Matches are returned in original order, not ranked.
type KeywordRetriever struct {
	MaxChunks int
}

// NewKeywordRetriever creates a keyword retriever with the default cap.
func NewKeywordRetriever() *KeywordRetriever {
	return &KeywordRetriever{MaxChunks: DefaultMaxChunks}
}

// Select returns the first MaxChunks chunks whose word set intersects the
// query's word set, joined by a single space. It returns "" when nothing matches.
func (r *KeywordRetriever) Select(query string, chunks []string) string {
	limit := r.MaxChunks
	if limit <= 0 {
		limit = DefaultMaxChunks
	}

	queryWords := wordSet(query)
	if len(queryWords) == 0 {
		return ""
	}

	selected := make([]string, 0, limit)
	for _, chunk := range chunks {
		if len(selected) >= limit {
			break
		}
		if overlaps(queryWords, chunk) {
			selected = append(selected, chunk)
		}
	}

	return strings.Join(selected, " ")
}

func wordSet(text string) map[string]struct{} {
	fields := strings.Fields(strings.ToLower(text))
	set := make(map[string]struct{}, len(fields))
	for _, f := range fields {
		set[f] = struct{}{}
	}
	return set
}

func overlaps(queryWords map[string]struct{}, chunk string) bool {
	for _, w := range strings.Fields(strings.ToLower(chunk)) {
		if _, ok := queryWords[w]; ok {
			return true
		}
	}
	return false
}
