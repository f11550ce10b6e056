package test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/hrygo/botgpt/store"
)

func TestDocumentStore(t *testing.T) {
	ctx := context.Background()
	ts := NewTestingStore(ctx, t)

	first, err := ts.CreateDocument(ctx, &store.Document{ConversationID: 1, Name: "notes.txt", Content: "alpha\n\nbeta"})
	require.NoError(t, err)
	second, err := ts.CreateDocument(ctx, &store.Document{ConversationID: 2, Name: "faq.txt", Content: "gamma"})
	require.NoError(t, err)

	list, err := ts.ListDocuments(ctx, &store.FindDocument{IDs: []int32{second.ID, first.ID, 999}})
	require.NoError(t, err)
	require.Len(t, list, 2)

	conversationID := int32(1)
	list, err = ts.ListDocuments(ctx, &store.FindDocument{ConversationID: &conversationID})
	require.NoError(t, err)
	require.Len(t, list, 1)
	require.Equal(t, "notes.txt", list[0].Name)
	require.Equal(t, "alpha\n\nbeta", list[0].Content)

	list, err = ts.ListDocuments(ctx, &store.FindDocument{IDs: []int32{}})
	require.NoError(t, err)
	require.Empty(t, list)
}
