package ai

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseRole(t *testing.T) {
	tests := []struct {
		input   string
		want    Role
		wantErr bool
	}{
		{"user", RoleUser, false},
		{"assistant", RoleAssistant, false},
		{"system", RoleSystem, false},
		{"USER", "", true},
		{"tool", "", true},
		{"", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got, err := ParseRole(tt.input)
			if tt.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestMessageHelpers(t *testing.T) {
	assert.Equal(t, Message{Role: RoleSystem, Content: "ctx"}, SystemPrompt("ctx"))
	assert.Equal(t, Message{Role: RoleUser, Content: "hi"}, UserMessage("hi"))
	assert.Equal(t, Message{Role: RoleAssistant, Content: "hello"}, AssistantMessage("hello"))
}
