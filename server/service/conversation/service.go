package conversation

import (
	"context"
	"encoding/json"
	"log/slog"
	"strings"
	"time"

	"github.com/lithammer/shortuuid/v4"
	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/singleflight"

	"github.com/hrygo/botgpt/plugin/ai"
	aicontext "github.com/hrygo/botgpt/plugin/ai/context"
	serverai "github.com/hrygo/botgpt/server/ai"
	"github.com/hrygo/botgpt/server/internal/errors"
	"github.com/hrygo/botgpt/server/internal/observability"
	"github.com/hrygo/botgpt/server/retrieval"
	"github.com/hrygo/botgpt/store"
	"github.com/hrygo/botgpt/store/cache"
)

// documentLoadConcurrency caps parallel document lookups per AddMessage.
const documentLoadConcurrency = 4

// Service is the conversation orchestrator.
type Service struct {
	store Store
	cache cache.Cache
	model ai.ModelClient

	retriever Retriever
	trimmer   Trimmer
	users     UserChecker

	historyTTL time.Duration
	listTTL    time.Duration

	logger  *slog.Logger
	metrics *observability.Metrics
	now     func() time.Time

	serializeAppends bool
	locks            *keyedMutex
	group            singleflight.Group
	generations      *keyGenerations
}

// NewService creates a conversation service. A nil cache disables caching.
func NewService(s Store, c cache.Cache, model ai.ModelClient, opts ...Option) *Service {
	if c == nil {
		c = cache.NewNilCache()
	}
	svc := &Service{
		store:       s,
		cache:       c,
		model:       model,
		retriever:   retrieval.NewKeywordRetriever(),
		trimmer:     aicontext.NewTrimmer(aicontext.DefaultMaxTokens, nil),
		historyTTL:  DefaultCacheTTL,
		listTTL:     DefaultCacheTTL,
		logger:      slog.Default(),
		metrics:     observability.NewMetrics(0),
		now:         time.Now,
		locks:       newKeyedMutex(),
		generations: newKeyGenerations(),
	}
	for _, opt := range opts {
		opt(svc)
	}
	return svc
}

// Metrics returns the collector the service records into.
func (s *Service) Metrics() *observability.Metrics {
	return s.metrics
}

// Create starts a conversation and runs its first turn.
//
// The conversation is committed before the model is called. If the first turn
// fails, the conversation is returned together with the error and stays usable.
func (s *Service) Create(ctx context.Context, req *CreateRequest) (conversation *store.Conversation, turn *Turn, err error) {
	rc := s.begin(ctx, "create")
	defer func() { s.finish(rc, err) }()

	if req == nil {
		return nil, nil, errors.Validation("request is required")
	}
	rc.UserID = req.UserID
	if req.UserID <= 0 {
		return nil, nil, errors.Validation("user_id is required")
	}
	if strings.TrimSpace(req.FirstMessage) == "" {
		return nil, nil, errors.Validation("first message is required")
	}
	mode := req.Mode
	if mode == "" {
		mode = store.ConversationModeOpen
	}
	if !mode.Valid() {
		return nil, nil, errors.Validationf("unknown conversation mode %q", mode)
	}
	if s.users != nil {
		exists, err := s.users.UserExists(ctx, req.UserID)
		if err != nil {
			return nil, nil, errors.Storage("failed to check user", err)
		}
		if !exists {
			return nil, nil, errors.Validationf("user %d does not exist", req.UserID)
		}
	}

	now := s.now().Unix()
	conversation, err = s.store.CreateConversation(ctx, &store.Conversation{
		UID:       shortuuid.New(),
		UserID:    req.UserID,
		Title:     strings.TrimSpace(req.Title),
		Mode:      mode,
		State:     store.ConversationStateActive,
		CreatedTs: now,
		UpdatedTs: now,
	})
	if err != nil {
		return nil, nil, errors.Storage("failed to create conversation", err)
	}
	rc.ConversationID = conversation.ID
	s.invalidate(ctx, rc, ListKey(req.UserID))
	rc.Info("conversation created", slog.String("mode", string(mode)))

	turn, err = s.AddMessage(ctx, conversation.ID, req.FirstMessage, req.DocumentIDs)
	if err != nil {
		return conversation, nil, err
	}
	conversation.UpdatedTs = turn.AssistantMessage.CreatedTs
	return conversation, turn, nil
}

// AddMessage sends text with the conversation history to the model and
// persists the user message and the reply as one unit.
func (s *Service) AddMessage(ctx context.Context, conversationID int32, text string, documentIDs []int32) (turn *Turn, err error) {
	rc := s.begin(ctx, "add_message")
	rc.ConversationID = conversationID
	defer func() { s.finish(rc, err) }()

	if strings.TrimSpace(text) == "" {
		return nil, errors.Validation("message text is required")
	}
	if s.serializeAppends {
		unlock := s.locks.Lock(conversationID)
		defer unlock()
	}

	conversation, err := s.store.GetConversation(ctx, &store.FindConversation{ID: &conversationID})
	if err != nil {
		return nil, errors.Storage("failed to load conversation", err)
	}
	if conversation == nil || conversation.State != store.ConversationStateActive {
		return nil, errors.NotFoundf("conversation %d not found or not active", conversationID)
	}
	rc.UserID = conversation.UserID

	existing, err := s.store.ListMessages(ctx, &store.FindMessage{ConversationID: &conversationID})
	if err != nil {
		return nil, errors.Storage("failed to load messages", err)
	}
	messages, err := renderMessages(existing)
	if err != nil {
		return nil, errors.Storage("stored history is invalid", err)
	}
	messages = append(messages, ai.UserMessage(text))

	if conversation.Mode == store.ConversationModeGrounded && len(documentIDs) > 0 {
		chunks, err := s.loadChunks(ctx, documentIDs)
		if err != nil {
			return nil, err
		}
		if retrieved := s.retriever.Select(text, chunks); retrieved != "" {
			// Index 0: the trimmer drops this first when over budget.
			messages = append([]ai.Message{ai.SystemPrompt(ContextPrefix + retrieved)}, messages...)
			rc.Debug("injected retrieved context", slog.Int("chunks", len(chunks)))
		}
	}

	trimmed := s.trimmer.Trim(messages)
	if dropped := len(messages) - len(trimmed); dropped > 0 {
		rc.Debug("trimmed history to budget", slog.Int("dropped", dropped))
	}

	start := time.Now()
	completion, err := s.model.Call(ctx, trimmed)
	if err != nil {
		s.metrics.RecordModelCall(time.Since(start), 0, err)
		if _, ok := errors.AsProvider(err); ok {
			return nil, err
		}
		return nil, errors.Provider(0, "", err)
	}
	s.metrics.RecordModelCall(time.Since(start), completion.TokensUsed, nil)
	// A caller that gave up while the model was answering gets nothing persisted.
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	now := s.now().Unix()
	tokens := int32(completion.TokensUsed)
	created, err := s.store.CreateMessages(ctx, []*store.Message{
		{
			UID:            shortuuid.New(),
			ConversationID: conversationID,
			Role:           store.MessageRoleUser,
			Content:        text,
			CreatedTs:      now,
		},
		{
			UID:            shortuuid.New(),
			ConversationID: conversationID,
			Role:           store.MessageRoleAssistant,
			Content:        completion.Content,
			CreatedTs:      now,
			TokensUsed:     &tokens,
		},
	})
	if err != nil {
		return nil, errors.Storage("failed to persist messages", err)
	}

	if _, err := s.store.UpdateConversation(ctx, &store.UpdateConversation{ID: conversationID, UpdatedTs: &now}); err != nil {
		// The turn is committed; only the listing timestamp lags.
		rc.Warn("failed to bump conversation updated_ts", slog.String("error", err.Error()))
	}
	s.invalidate(ctx, rc, HistoryKey(conversationID), ListKey(conversation.UserID))

	rc.Info("message added",
		slog.Int(observability.LogFieldMessageLen, len(text)),
		slog.Int(observability.LogFieldTokens, completion.TokensUsed),
	)
	return &Turn{UserMessage: created[0], AssistantMessage: created[1]}, nil
}

// loadChunks fetches the named documents concurrently and returns their
// chunks in the requested order. Unknown IDs are skipped.
func (s *Service) loadChunks(ctx context.Context, documentIDs []int32) ([]string, error) {
	documents := make([]*store.Document, len(documentIDs))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(documentLoadConcurrency)
	for i, id := range documentIDs {
		g.Go(func() error {
			list, err := s.store.ListDocuments(gctx, &store.FindDocument{IDs: []int32{id}})
			if err != nil {
				return errors.Storage("failed to load document", err)
			}
			if len(list) > 0 {
				documents[i] = list[0]
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	var chunks []string
	for _, document := range documents {
		if document == nil {
			continue
		}
		chunks = append(chunks, serverai.SplitChunks(document.Content)...)
	}
	return chunks, nil
}

// History returns the conversation's messages in canonical order.
// Archived conversations stay readable; deleted ones are not found.
func (s *Service) History(ctx context.Context, conversationID int32) (entries []HistoryEntry, err error) {
	rc := s.begin(ctx, "history")
	rc.ConversationID = conversationID
	defer func() { s.finish(rc, err) }()

	key := HistoryKey(conversationID)
	if data, ok := s.cache.Get(ctx, key); ok {
		var cached []HistoryEntry
		if err := json.Unmarshal(data, &cached); err == nil {
			s.metrics.RecordCacheHit()
			return cached, nil
		}
		rc.Warn("discarding undecodable cache entry", slog.String("key", key))
	}
	s.metrics.RecordCacheMiss()

	v, err := s.load(ctx, key, func(ctx context.Context, generation uint64) (any, error) {
		conversation, err := s.store.GetConversation(ctx, &store.FindConversation{ID: &conversationID})
		if err != nil {
			return nil, errors.Storage("failed to load conversation", err)
		}
		if conversation == nil || conversation.State == store.ConversationStateDeleted {
			return nil, errors.NotFoundf("conversation %d not found", conversationID)
		}
		messages, err := s.store.ListMessages(ctx, &store.FindMessage{ConversationID: &conversationID})
		if err != nil {
			return nil, errors.Storage("failed to load messages", err)
		}

		entries := make([]HistoryEntry, 0, len(messages))
		for _, m := range messages {
			entries = append(entries, HistoryEntry{Role: m.Role, Content: m.Content, Timestamp: m.CreatedTs})
		}
		s.fill(ctx, rc, key, generation, entries, s.historyTTL)
		return entries, nil
	})
	if err != nil {
		return nil, err
	}
	shared := v.([]HistoryEntry)
	return append([]HistoryEntry(nil), shared...), nil
}

// listSnapshot is what List caches per user.
type listSnapshot struct {
	Items []*store.Conversation `json:"items"`
	Total int                   `json:"total"`
	// Complete is false when the user has more than MaxCachedListSize rows.
	Complete bool `json:"complete"`
}

// List returns one page of the user's non-deleted conversations, newest first.
// Page defaults to 1 and limit to DefaultPageSize, capped at MaxPageSize.
func (s *Service) List(ctx context.Context, userID int32, page, limit int) (result *ListResult, err error) {
	rc := s.begin(ctx, "list")
	rc.UserID = userID
	defer func() { s.finish(rc, err) }()

	if page < 1 {
		page = 1
	}
	if limit < 1 {
		limit = DefaultPageSize
	}
	if limit > MaxPageSize {
		limit = MaxPageSize
	}

	key := ListKey(userID)
	var snapshot *listSnapshot
	if data, ok := s.cache.Get(ctx, key); ok {
		var cached listSnapshot
		if err := json.Unmarshal(data, &cached); err == nil && cached.Complete {
			s.metrics.RecordCacheHit()
			snapshot = &cached
		}
	}
	if snapshot == nil {
		s.metrics.RecordCacheMiss()
		v, err := s.load(ctx, key, func(ctx context.Context, generation uint64) (any, error) {
			return s.loadListSnapshot(ctx, rc, userID, generation)
		})
		if err != nil {
			return nil, err
		}
		snapshot = v.(*listSnapshot)
	}

	offset := (page - 1) * limit
	if !snapshot.Complete {
		items, err := s.store.ListConversations(ctx, &store.FindConversation{
			UserID:         &userID,
			ExcludeDeleted: true,
			Limit:          &limit,
			Offset:         &offset,
		})
		if err != nil {
			return nil, errors.Storage("failed to list conversations", err)
		}
		return &ListResult{Items: items, Page: page, Limit: limit, Total: snapshot.Total}, nil
	}

	items := []*store.Conversation{}
	if offset < len(snapshot.Items) {
		end := min(offset+limit, len(snapshot.Items))
		items = append(items, snapshot.Items[offset:end]...)
	}
	return &ListResult{Items: items, Page: page, Limit: limit, Total: snapshot.Total}, nil
}

func (s *Service) loadListSnapshot(ctx context.Context, rc *observability.RequestContext, userID int32, generation uint64) (*listSnapshot, error) {
	find := &store.FindConversation{UserID: &userID, ExcludeDeleted: true}
	total, err := s.store.CountConversations(ctx, find)
	if err != nil {
		return nil, errors.Storage("failed to count conversations", err)
	}
	if total > MaxCachedListSize {
		return &listSnapshot{Total: total}, nil
	}

	items, err := s.store.ListConversations(ctx, find)
	if err != nil {
		return nil, errors.Storage("failed to list conversations", err)
	}
	snapshot := &listSnapshot{Items: items, Total: len(items), Complete: true}
	s.fill(ctx, rc, ListKey(userID), generation, snapshot, s.listTTL)
	return snapshot, nil
}

// Archive moves an active conversation to archived.
// A missing or non-active conversation is left untouched without error.
func (s *Service) Archive(ctx context.Context, conversationID int32) error {
	return s.transition(ctx, "archive", conversationID, store.ConversationStateArchived,
		store.ConversationStateActive)
}

// Delete soft-deletes a conversation. Deleting a missing or already deleted
// conversation is a no-op.
func (s *Service) Delete(ctx context.Context, conversationID int32) error {
	return s.transition(ctx, "delete", conversationID, store.ConversationStateDeleted,
		store.ConversationStateActive, store.ConversationStateArchived)
}

func (s *Service) transition(ctx context.Context, operation string, conversationID int32, next store.ConversationState, from ...store.ConversationState) (err error) {
	rc := s.begin(ctx, operation)
	rc.ConversationID = conversationID
	defer func() { s.finish(rc, err) }()

	conversation, err := s.store.GetConversation(ctx, &store.FindConversation{ID: &conversationID})
	if err != nil {
		return errors.Storage("failed to load conversation", err)
	}
	if conversation == nil || !conversation.State.CanTransitionTo(next) {
		rc.Debug("transition skipped")
		return nil
	}
	rc.UserID = conversation.UserID

	now := s.now().Unix()
	updated, err := s.store.UpdateConversation(ctx, &store.UpdateConversation{
		ID:             conversationID,
		State:          &next,
		UpdatedTs:      &now,
		ExpectedStates: from,
	})
	if err != nil {
		return errors.Storage("failed to update conversation state", err)
	}
	if updated == nil {
		// Lost a race with another transition.
		rc.Debug("transition skipped")
		return nil
	}

	s.invalidate(ctx, rc, HistoryKey(conversationID), ListKey(conversation.UserID))
	rc.Info("conversation state changed",
		slog.String("from", string(conversation.State)),
		slog.String("to", string(next)),
	)
	return nil
}

func (s *Service) begin(ctx context.Context, operation string) *observability.RequestContext {
	return observability.RequestContextFor(ctx, s.logger, operation)
}

func (s *Service) finish(rc *observability.RequestContext, err error) {
	s.metrics.RecordOperation(rc.Operation, rc.Duration(), err)
	if err == nil {
		return
	}
	attrs := []slog.Attr{
		slog.String(observability.LogFieldErrorCode, string(errors.CodeOf(err))),
		slog.Int64(observability.LogFieldDuration, rc.DurationMs()),
	}
	switch errors.CodeOf(err) {
	case errors.ErrCodeNotFound, errors.ErrCodeValidation:
		rc.Debug("operation rejected", append(attrs, slog.String("error", err.Error()))...)
	default:
		rc.Error("operation failed", err, attrs...)
	}
}

// invalidate deletes cache keys after a committed write. Failures are logged;
// the entry then expires at its TTL. Loads already in flight for the key are
// detached so later readers do not share their pre-write result.
func (s *Service) invalidate(ctx context.Context, rc *observability.RequestContext, keys ...string) {
	for _, key := range keys {
		s.generations.bump(key)
		s.group.Forget(key)
		if err := s.cache.Delete(ctx, key); err != nil {
			s.metrics.RecordCacheError()
			rc.Warn("failed to invalidate cache", slog.String("key", key), slog.String("error", err.Error()))
		}
	}
}

// load runs fn once per key across concurrent callers. The shared load is
// detached from the caller's cancellation; each caller still returns as soon
// as its own ctx ends. fn receives the key's generation read before any store access.
func (s *Service) load(ctx context.Context, key string, fn func(ctx context.Context, generation uint64) (any, error)) (any, error) {
	shared := context.WithoutCancel(ctx)
	ch := s.group.DoChan(key, func() (any, error) {
		return fn(shared, s.generations.current(key))
	})
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case r := <-ch:
		return r.Val, r.Err
	}
}

// fill caches value unless key was invalidated since generation was read.
// An invalidation racing the Set is caught by the second check, which removes
// the entry again.
func (s *Service) fill(ctx context.Context, rc *observability.RequestContext, key string, generation uint64, value any, ttl time.Duration) {
	if s.generations.current(key) != generation {
		rc.Debug("skipping cache fill after invalidation", slog.String("key", key))
		return
	}
	data, err := json.Marshal(value)
	if err != nil {
		rc.Warn("failed to encode cache value", slog.String("key", key), slog.String("error", err.Error()))
		return
	}
	if err := s.cache.Set(ctx, key, data, ttl); err != nil {
		s.metrics.RecordCacheError()
		rc.Warn("failed to fill cache", slog.String("key", key), slog.String("error", err.Error()))
		return
	}
	if s.generations.current(key) != generation {
		if err := s.cache.Delete(ctx, key); err != nil {
			s.metrics.RecordCacheError()
			rc.Warn("failed to drop superseded cache fill", slog.String("key", key), slog.String("error", err.Error()))
		}
	}
}

// renderMessages converts stored messages into model messages, rejecting unknown roles.
func renderMessages(messages []*store.Message) ([]ai.Message, error) {
	out := make([]ai.Message, 0, len(messages)+2)
	for _, m := range messages {
		role, err := ai.ParseRole(string(m.Role))
		if err != nil {
			return nil, err
		}
		out = append(out, ai.Message{Role: role, Content: m.Content})
	}
	return out, nil
}
