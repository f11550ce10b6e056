package test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/hrygo/botgpt/store"
)

func TestMessageStore(t *testing.T) {
	ctx := context.Background()
	ts := NewTestingStore(ctx, t)
	conversation := createTestingConversation(ctx, t, ts, "conv", 1, 100)

	tokens := int32(42)
	created, err := ts.CreateMessages(ctx, []*store.Message{
		{UID: "m1", ConversationID: conversation.ID, Role: store.MessageRoleUser, Content: "hello", CreatedTs: 200},
		{UID: "m2", ConversationID: conversation.ID, Role: store.MessageRoleAssistant, Content: "hi there", CreatedTs: 200, TokensUsed: &tokens},
	})
	require.NoError(t, err)
	require.Len(t, created, 2)
	require.Less(t, created[0].ID, created[1].ID)

	list, err := ts.ListMessages(ctx, &store.FindMessage{ConversationID: &conversation.ID})
	require.NoError(t, err)
	require.Len(t, list, 2)
	require.Equal(t, store.MessageRoleUser, list[0].Role)
	require.Nil(t, list[0].TokensUsed)
	require.Equal(t, store.MessageRoleAssistant, list[1].Role)
	require.NotNil(t, list[1].TokensUsed)
	require.Equal(t, int32(42), *list[1].TokensUsed)
}

func TestMessageOrderingByTimestampThenID(t *testing.T) {
	ctx := context.Background()
	ts := NewTestingStore(ctx, t)
	conversation := createTestingConversation(ctx, t, ts, "conv", 1, 100)

	_, err := ts.CreateMessages(ctx, []*store.Message{
		{UID: "late", ConversationID: conversation.ID, Role: store.MessageRoleUser, Content: "late", CreatedTs: 300},
	})
	require.NoError(t, err)
	_, err = ts.CreateMessages(ctx, []*store.Message{
		{UID: "early", ConversationID: conversation.ID, Role: store.MessageRoleUser, Content: "early", CreatedTs: 100},
		{UID: "early-reply", ConversationID: conversation.ID, Role: store.MessageRoleAssistant, Content: "reply", CreatedTs: 100},
	})
	require.NoError(t, err)

	list, err := ts.ListMessages(ctx, &store.FindMessage{ConversationID: &conversation.ID})
	require.NoError(t, err)
	require.Len(t, list, 3)
	require.Equal(t, []string{"early", "reply", "late"}, []string{list[0].Content, list[1].Content, list[2].Content})
}

func TestCreateMessagesIsAtomic(t *testing.T) {
	ctx := context.Background()
	ts := NewTestingStore(ctx, t)
	conversation := createTestingConversation(ctx, t, ts, "conv", 1, 100)

	// The duplicate UID fails the second insert; the first must not survive.
	_, err := ts.CreateMessages(ctx, []*store.Message{
		{UID: "dup", ConversationID: conversation.ID, Role: store.MessageRoleUser, Content: "one", CreatedTs: 100},
		{UID: "dup", ConversationID: conversation.ID, Role: store.MessageRoleAssistant, Content: "two", CreatedTs: 100},
	})
	require.Error(t, err)

	list, err := ts.ListMessages(ctx, &store.FindMessage{ConversationID: &conversation.ID})
	require.NoError(t, err)
	require.Empty(t, list)
}
