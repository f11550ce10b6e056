package ai

import (
	"strings"
)

// ChunkSeparator delimits document chunks (a blank line).
const ChunkSeparator = "\n\n"

// SplitChunks segments document content into chunks at blank-line
// boundaries. Windows line endings are normalized first. Chunks that are
// empty after trimming are dropped; the remaining chunks keep their order.
func SplitChunks(content string) []string {
	content = strings.ReplaceAll(content, "\r\n", "\n")

	parts := strings.Split(content, ChunkSeparator)
	chunks := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p == "" {
			continue
		}
		chunks = append(chunks, p)
	}
	return chunks
}

// ChunkDocuments segments several documents and concatenates their chunks
// in document order.
func ChunkDocuments(contents ...string) []string {
	var chunks []string
	for _, c := range contents {
		chunks = append(chunks, SplitChunks(c)...)
	}
	return chunks
}
