package v1

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/hrygo/botgpt/server/internal/errors"
	"github.com/hrygo/botgpt/server/service/conversation"
	"github.com/hrygo/botgpt/store"
)

type CreateConversationRequest struct {
	UserID       int32   `json:"user_id"`
	Title        string  `json:"title"`
	FirstMessage string  `json:"first_message"`
	Mode         string  `json:"mode"`
	DocumentIDs  []int32 `json:"document_ids"`
}

// AddMessageRequest accepts the text as "message"; "content" is kept as an alias.
type AddMessageRequest struct {
	Message     string  `json:"message"`
	Content     string  `json:"content,omitempty"`
	DocumentIDs []int32 `json:"document_ids"`
}

func (r *AddMessageRequest) text() string {
	if r.Message != "" {
		return r.Message
	}
	return r.Content
}

type Conversation struct {
	ID        int32  `json:"id"`
	UID       string `json:"uid"`
	UserID    int32  `json:"user_id"`
	Title     string `json:"title"`
	Mode      string `json:"mode"`
	State     string `json:"state"`
	CreatedTs int64  `json:"created_ts"`
	UpdatedTs int64  `json:"updated_ts"`
}

type Message struct {
	ID         int32  `json:"id"`
	UID        string `json:"uid"`
	Role       string `json:"role"`
	Content    string `json:"content"`
	CreatedTs  int64  `json:"created_ts"`
	TokensUsed *int32 `json:"tokens_used,omitempty"`
}

type Turn struct {
	UserMessage      *Message `json:"user_message"`
	AssistantMessage *Message `json:"assistant_message"`
}

type CreateConversationResponse struct {
	Conversation *Conversation `json:"conversation"`
	Turn         *Turn         `json:"turn"`
}

type ListConversationsResponse struct {
	Conversations []*Conversation `json:"conversations"`
	Page          int             `json:"page"`
	Limit         int             `json:"limit"`
	Total         int             `json:"total"`
}

type HistoryResponse struct {
	ConversationID int32                       `json:"conversation_id"`
	Messages       []conversation.HistoryEntry `json:"messages"`
}

// CreateConversation starts a conversation and runs its first turn.
// POST /api/v1/conversations
func (s *APIV1Service) CreateConversation(c echo.Context) error {
	request := &CreateConversationRequest{}
	if err := c.Bind(request); err != nil {
		return s.writeError(c, errors.Validation("malformed request body"))
	}

	created, turn, err := s.Conversations.Create(c.Request().Context(), &conversation.CreateRequest{
		UserID:       request.UserID,
		Title:        request.Title,
		FirstMessage: request.FirstMessage,
		Mode:         store.ConversationMode(request.Mode),
		DocumentIDs:  request.DocumentIDs,
	})
	if err != nil {
		status, response := s.errorResponse(c, err)
		response.Conversation = convertConversationFromStore(created)
		return c.JSON(status, response)
	}
	return c.JSON(http.StatusCreated, &CreateConversationResponse{
		Conversation: convertConversationFromStore(created),
		Turn:         convertTurn(turn),
	})
}

// ListConversations returns one page of a user's conversations.
// GET /api/v1/conversations?user_id=&page=&limit=
func (s *APIV1Service) ListConversations(c echo.Context) error {
	userID, err := parseID(c.QueryParam("user_id"), "user_id")
	if err != nil {
		return s.writeError(c, err)
	}
	page, err := parseOptionalInt(c.QueryParam("page"), "page")
	if err != nil {
		return s.writeError(c, err)
	}
	limit, err := parseOptionalInt(c.QueryParam("limit"), "limit")
	if err != nil {
		return s.writeError(c, err)
	}

	result, err := s.Conversations.List(c.Request().Context(), userID, page, limit)
	if err != nil {
		return s.writeError(c, err)
	}
	response := &ListConversationsResponse{
		Conversations: make([]*Conversation, 0, len(result.Items)),
		Page:          result.Page,
		Limit:         result.Limit,
		Total:         result.Total,
	}
	for _, item := range result.Items {
		response.Conversations = append(response.Conversations, convertConversationFromStore(item))
	}
	return c.JSON(http.StatusOK, response)
}

// GetConversationHistory returns the ordered messages of a conversation.
// GET /api/v1/conversations/:id
func (s *APIV1Service) GetConversationHistory(c echo.Context) error {
	conversationID, err := parseID(c.Param("id"), "conversation id")
	if err != nil {
		return s.writeError(c, err)
	}
	history, err := s.Conversations.History(c.Request().Context(), conversationID)
	if err != nil {
		return s.writeError(c, err)
	}
	return c.JSON(http.StatusOK, &HistoryResponse{ConversationID: conversationID, Messages: history})
}

// AddMessage appends a user message and the model reply.
// PUT /api/v1/conversations/:id/messages
func (s *APIV1Service) AddMessage(c echo.Context) error {
	conversationID, err := parseID(c.Param("id"), "conversation id")
	if err != nil {
		return s.writeError(c, err)
	}
	request := &AddMessageRequest{}
	if err := c.Bind(request); err != nil {
		return s.writeError(c, errors.Validation("malformed request body"))
	}

	turn, err := s.Conversations.AddMessage(c.Request().Context(), conversationID, request.text(), request.DocumentIDs)
	if err != nil {
		return s.writeError(c, err)
	}
	return c.JSON(http.StatusOK, convertTurn(turn))
}

// ArchiveConversation makes a conversation read-only.
// POST /api/v1/conversations/:id/archive
func (s *APIV1Service) ArchiveConversation(c echo.Context) error {
	conversationID, err := parseID(c.Param("id"), "conversation id")
	if err != nil {
		return s.writeError(c, err)
	}
	if err := s.Conversations.Archive(c.Request().Context(), conversationID); err != nil {
		return s.writeError(c, err)
	}
	return c.NoContent(http.StatusNoContent)
}

// DeleteConversation soft-deletes a conversation.
// DELETE /api/v1/conversations/:id
func (s *APIV1Service) DeleteConversation(c echo.Context) error {
	conversationID, err := parseID(c.Param("id"), "conversation id")
	if err != nil {
		return s.writeError(c, err)
	}
	if err := s.Conversations.Delete(c.Request().Context(), conversationID); err != nil {
		return s.writeError(c, err)
	}
	return c.NoContent(http.StatusNoContent)
}

func convertConversationFromStore(conversation *store.Conversation) *Conversation {
	if conversation == nil {
		return nil
	}
	return &Conversation{
		ID:        conversation.ID,
		UID:       conversation.UID,
		UserID:    conversation.UserID,
		Title:     conversation.Title,
		Mode:      string(conversation.Mode),
		State:     string(conversation.State),
		CreatedTs: conversation.CreatedTs,
		UpdatedTs: conversation.UpdatedTs,
	}
}

func convertMessageFromStore(message *store.Message) *Message {
	if message == nil {
		return nil
	}
	return &Message{
		ID:         message.ID,
		UID:        message.UID,
		Role:       string(message.Role),
		Content:    message.Content,
		CreatedTs:  message.CreatedTs,
		TokensUsed: message.TokensUsed,
	}
}

func convertTurn(turn *conversation.Turn) *Turn {
	if turn == nil {
		return nil
	}
	return &Turn{
		UserMessage:      convertMessageFromStore(turn.UserMessage),
		AssistantMessage: convertMessageFromStore(turn.AssistantMessage),
	}
}
