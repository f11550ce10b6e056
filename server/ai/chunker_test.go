package ai

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSplitChunks(t *testing.T) {
	tests := []struct {
		name    string
		content string
		want    []string
	}{
		{"single paragraph", "one line\nsecond line", []string{"one line\nsecond line"}},
		{"two paragraphs", "alpha\n\nbeta", []string{"alpha", "beta"}},
		{"extra blank lines", "alpha\n\n\n\nbeta\n\n", []string{"alpha", "beta"}},
		{"crlf", "alpha\r\n\r\nbeta", []string{"alpha", "beta"}},
		{"empty", "", []string{}},
		{"whitespace only", " \n\n \n", []string{}},
		{"padded paragraphs", "  alpha \n\n\tbeta\n", []string{"alpha", "beta"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, SplitChunks(tt.content))
		})
	}
}

func TestChunkDocuments(t *testing.T) {
	chunks := ChunkDocuments("a\n\nb", "", "c")
	assert.Equal(t, []string{"a", "b", "c"}, chunks)
}
