package test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/hrygo/botgpt/store"
)

func createTestingConversation(ctx context.Context, t *testing.T, ts *store.Store, uid string, userID int32, createdTs int64) *store.Conversation {
	t.Helper()
	conversation, err := ts.CreateConversation(ctx, &store.Conversation{
		UID:       uid,
		UserID:    userID,
		Mode:      store.ConversationModeOpen,
		CreatedTs: createdTs,
		UpdatedTs: createdTs,
	})
	require.NoError(t, err)
	return conversation
}

func TestConversationStore(t *testing.T) {
	ctx := context.Background()
	ts := NewTestingStore(ctx, t)

	conversation, err := ts.CreateConversation(ctx, &store.Conversation{
		UID:       "conv-1",
		UserID:    7,
		Title:     "first",
		Mode:      store.ConversationModeGrounded,
		CreatedTs: 100,
		UpdatedTs: 100,
	})
	require.NoError(t, err)
	require.Greater(t, conversation.ID, int32(0))
	require.Equal(t, store.ConversationStateActive, conversation.State)

	found, err := ts.GetConversation(ctx, &store.FindConversation{ID: &conversation.ID})
	require.NoError(t, err)
	require.NotNil(t, found)
	require.Equal(t, "conv-1", found.UID)
	require.Equal(t, "first", found.Title)
	require.Equal(t, store.ConversationModeGrounded, found.Mode)
	require.Equal(t, int64(100), found.CreatedTs)

	missingID := int32(999)
	missing, err := ts.GetConversation(ctx, &store.FindConversation{ID: &missingID})
	require.NoError(t, err)
	require.Nil(t, missing)
}

func TestConversationListOrderingAndPaging(t *testing.T) {
	ctx := context.Background()
	ts := NewTestingStore(ctx, t)

	userID := int32(1)
	first := createTestingConversation(ctx, t, ts, "a", userID, 100)
	second := createTestingConversation(ctx, t, ts, "b", userID, 200)
	// Same timestamp as second: the later insert wins the tie.
	third := createTestingConversation(ctx, t, ts, "c", userID, 200)
	createTestingConversation(ctx, t, ts, "other", 2, 300)

	list, err := ts.ListConversations(ctx, &store.FindConversation{UserID: &userID})
	require.NoError(t, err)
	require.Len(t, list, 3)
	require.Equal(t, []int32{third.ID, second.ID, first.ID}, []int32{list[0].ID, list[1].ID, list[2].ID})

	limit, offset := 2, 2
	page, err := ts.ListConversations(ctx, &store.FindConversation{UserID: &userID, Limit: &limit, Offset: &offset})
	require.NoError(t, err)
	require.Len(t, page, 1)
	require.Equal(t, first.ID, page[0].ID)

	count, err := ts.CountConversations(ctx, &store.FindConversation{UserID: &userID})
	require.NoError(t, err)
	require.Equal(t, 3, count)
}

func TestConversationGuardedUpdate(t *testing.T) {
	ctx := context.Background()
	ts := NewTestingStore(ctx, t)
	conversation := createTestingConversation(ctx, t, ts, "guarded", 1, 100)

	archived := store.ConversationStateArchived
	updatedTs := int64(150)
	updated, err := ts.UpdateConversation(ctx, &store.UpdateConversation{
		ID:             conversation.ID,
		State:          &archived,
		UpdatedTs:      &updatedTs,
		ExpectedStates: []store.ConversationState{store.ConversationStateActive},
	})
	require.NoError(t, err)
	require.NotNil(t, updated)
	require.Equal(t, store.ConversationStateArchived, updated.State)
	require.Equal(t, int64(150), updated.UpdatedTs)

	// Archiving again no longer matches the guard.
	updated, err = ts.UpdateConversation(ctx, &store.UpdateConversation{
		ID:             conversation.ID,
		State:          &archived,
		ExpectedStates: []store.ConversationState{store.ConversationStateActive},
	})
	require.NoError(t, err)
	require.Nil(t, updated)

	deleted := store.ConversationStateDeleted
	updated, err = ts.UpdateConversation(ctx, &store.UpdateConversation{
		ID:             conversation.ID,
		State:          &deleted,
		ExpectedStates: []store.ConversationState{store.ConversationStateActive, store.ConversationStateArchived},
	})
	require.NoError(t, err)
	require.NotNil(t, updated)

	userID := int32(1)
	visible, err := ts.ListConversations(ctx, &store.FindConversation{UserID: &userID, ExcludeDeleted: true})
	require.NoError(t, err)
	require.Empty(t, visible)
	count, err := ts.CountConversations(ctx, &store.FindConversation{UserID: &userID, ExcludeDeleted: true})
	require.NoError(t, err)
	require.Equal(t, 0, count)
}

func TestConversationUpdateWithoutFields(t *testing.T) {
	ctx := context.Background()
	ts := NewTestingStore(ctx, t)
	conversation := createTestingConversation(ctx, t, ts, "noop", 1, 100)

	_, err := ts.UpdateConversation(ctx, &store.UpdateConversation{ID: conversation.ID})
	require.Error(t, err)
}
