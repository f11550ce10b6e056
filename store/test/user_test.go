package test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/hrygo/botgpt/store"
)

func TestUserStore(t *testing.T) {
	ctx := context.Background()
	ts := NewTestingStore(ctx, t)

	user, err := ts.CreateUser(ctx, &store.User{Username: "ada", Email: "ada@example.com", CreatedTs: 10})
	require.NoError(t, err)
	require.Greater(t, user.ID, int32(0))

	found, err := ts.GetUser(ctx, &store.FindUser{ID: &user.ID})
	require.NoError(t, err)
	require.NotNil(t, found)
	require.Equal(t, "ada", found.Username)

	username := "ada"
	found, err = ts.GetUser(ctx, &store.FindUser{Username: &username})
	require.NoError(t, err)
	require.NotNil(t, found)

	email := "nobody@example.com"
	found, err = ts.GetUser(ctx, &store.FindUser{Email: &email})
	require.NoError(t, err)
	require.Nil(t, found)

	_, err = ts.CreateUser(ctx, &store.User{Username: "ada", Email: "other@example.com", CreatedTs: 11})
	require.Error(t, err)

	users, err := ts.ListUsers(ctx, &store.FindUser{})
	require.NoError(t, err)
	require.Len(t, users, 1)
}

func TestMigrateIsIdempotent(t *testing.T) {
	ctx := context.Background()
	ts := NewTestingStore(ctx, t)
	require.NoError(t, ts.Migrate(ctx))

	initialized, err := ts.GetDriver().IsInitialized(ctx)
	require.NoError(t, err)
	require.True(t, initialized)
}
