package conversation

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/hrygo/botgpt/plugin/ai"
	"github.com/hrygo/botgpt/store"
	"github.com/hrygo/botgpt/store/cache"
	teststore "github.com/hrygo/botgpt/store/test"
)

// gatedStore blocks the next ListMessages once armed, either before or after
// it reads from the underlying store.
type gatedStore struct {
	*store.Store
	afterRead bool
	armed     atomic.Bool
	reached   chan struct{}
	release   chan struct{}
}

func newGatedStore(s *store.Store, afterRead bool) *gatedStore {
	return &gatedStore{
		Store:     s,
		afterRead: afterRead,
		reached:   make(chan struct{}),
		release:   make(chan struct{}),
	}
}

func (g *gatedStore) ListMessages(ctx context.Context, find *store.FindMessage) ([]*store.Message, error) {
	if !g.armed.CompareAndSwap(true, false) {
		return g.Store.ListMessages(ctx, find)
	}
	if g.afterRead {
		list, err := g.Store.ListMessages(ctx, find)
		close(g.reached)
		<-g.release
		return list, err
	}
	close(g.reached)
	<-g.release
	return g.Store.ListMessages(ctx, find)
}

type historyResult struct {
	entries []HistoryEntry
	err     error
}

func newGatedService(t *testing.T, afterRead bool) (*Service, *gatedStore, int32) {
	t.Helper()
	ctx := context.Background()
	gate := newGatedStore(teststore.NewTestingStore(ctx, t), afterRead)
	model := &mockModel{}
	model.On("Call", mock.Anything, mock.Anything).Return(&ai.Completion{Content: "ok", TokensUsed: 1}, nil)
	svc := NewService(gate, cache.NewMemoryCache(100, time.Hour), model, WithClock(stepClock()))

	conversation, _, err := svc.Create(ctx, &CreateRequest{UserID: 1, FirstMessage: "first"})
	require.NoError(t, err)
	return svc, gate, conversation.ID
}

func TestHistoryFillRacingAddMessageIsDiscarded(t *testing.T) {
	ctx := context.Background()
	svc, gate, conversationID := newGatedService(t, true)

	gate.armed.Store(true)
	done := make(chan historyResult, 1)
	go func() {
		entries, err := svc.History(ctx, conversationID)
		done <- historyResult{entries, err}
	}()

	// The load has read two messages and has not cached them yet.
	<-gate.reached
	_, err := svc.AddMessage(ctx, conversationID, "second", nil)
	require.NoError(t, err)
	close(gate.release)

	first := <-done
	require.NoError(t, first.err)
	assert.Len(t, first.entries, 2)

	history, err := svc.History(ctx, conversationID)
	require.NoError(t, err)
	require.Len(t, history, 4)
	assert.Equal(t, "second", history[2].Content)
}

func TestHistoryJoinedCallerSurvivesLeaderCancellation(t *testing.T) {
	svc, gate, conversationID := newGatedService(t, false)

	gate.armed.Store(true)
	leaderCtx, cancel := context.WithCancel(context.Background())
	defer cancel()
	leader := make(chan historyResult, 1)
	go func() {
		entries, err := svc.History(leaderCtx, conversationID)
		leader <- historyResult{entries, err}
	}()
	<-gate.reached

	follower := make(chan historyResult, 1)
	go func() {
		entries, err := svc.History(context.Background(), conversationID)
		follower <- historyResult{entries, err}
	}()
	// Give the follower time to join the load in flight.
	time.Sleep(50 * time.Millisecond)

	cancel()
	select {
	case r := <-leader:
		assert.ErrorIs(t, r.err, context.Canceled)
	case <-time.After(time.Second):
		t.Fatal("cancelled caller did not return")
	}

	close(gate.release)
	r := <-follower
	require.NoError(t, r.err)
	assert.Len(t, r.entries, 2)
}

func TestListFillRacingCreateIsDiscarded(t *testing.T) {
	ctx := context.Background()
	svc, _, _ := newGatedService(t, true)
	key := ListKey(1)

	generation := svc.generations.current(key)
	stale := &listSnapshot{Total: 1, Complete: true}
	svc.invalidate(ctx, svc.begin(ctx, "test"), key)
	svc.fill(ctx, svc.begin(ctx, "test"), key, generation, stale, time.Hour)

	_, ok := svc.cache.Get(ctx, key)
	assert.False(t, ok)
}

func TestKeyGenerations(t *testing.T) {
	g := newKeyGenerations()
	assert.Zero(t, g.current("a"))
	g.bump("a")
	g.bump("a")
	assert.Equal(t, uint64(2), g.current("a"))
	assert.Zero(t, g.current("b"))
}
