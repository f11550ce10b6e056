package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/hrygo/botgpt/store"
)

const conversationColumns = `id, uid, user_id, title, mode, state, created_ts, updated_ts`

func (d *DB) CreateConversation(ctx context.Context, create *store.Conversation) (*store.Conversation, error) {
	if create.State == "" {
		create.State = store.ConversationStateActive
	}
	fields := []string{"uid", "user_id", "title", "mode", "state", "created_ts", "updated_ts"}
	args := []any{create.UID, create.UserID, create.Title, string(create.Mode), string(create.State), create.CreatedTs, create.UpdatedTs}
	stmt := `INSERT INTO conversation (` + strings.Join(fields, ", ") + `)
		VALUES (` + placeholders(len(args)) + `)
		RETURNING id`
	if err := d.db.QueryRowContext(ctx, stmt, args...).Scan(&create.ID); err != nil {
		return nil, fmt.Errorf("failed to create conversation: %w", err)
	}
	return create, nil
}

func conversationWhere(find *store.FindConversation) ([]string, []any) {
	where, args := []string{"1 = 1"}, []any{}
	if find.ID != nil {
		where, args = append(where, "id = "+placeholder(len(args)+1)), append(args, *find.ID)
	}
	if find.UID != nil {
		where, args = append(where, "uid = "+placeholder(len(args)+1)), append(args, *find.UID)
	}
	if find.UserID != nil {
		where, args = append(where, "user_id = "+placeholder(len(args)+1)), append(args, *find.UserID)
	}
	if find.ExcludeDeleted {
		where, args = append(where, "state <> "+placeholder(len(args)+1)), append(args, string(store.ConversationStateDeleted))
	}
	return where, args
}

func (d *DB) ListConversations(ctx context.Context, find *store.FindConversation) ([]*store.Conversation, error) {
	where, args := conversationWhere(find)
	query := `SELECT ` + conversationColumns + ` FROM conversation WHERE ` + strings.Join(where, " AND ") +
		` ORDER BY created_ts DESC, id DESC` + limitClause(find.Limit, find.Offset)
	rows, err := d.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list conversations: %w", err)
	}
	defer rows.Close()

	list := []*store.Conversation{}
	for rows.Next() {
		conversation, err := scanConversation(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan conversation: %w", err)
		}
		list = append(list, conversation)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate conversations: %w", err)
	}
	return list, nil
}

func (d *DB) CountConversations(ctx context.Context, find *store.FindConversation) (int, error) {
	where, args := conversationWhere(find)
	query := `SELECT COUNT(*) FROM conversation WHERE ` + strings.Join(where, " AND ")
	var count int
	if err := d.db.QueryRowContext(ctx, query, args...).Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to count conversations: %w", err)
	}
	return count, nil
}

func (d *DB) UpdateConversation(ctx context.Context, update *store.UpdateConversation) (*store.Conversation, error) {
	set, args := []string{}, []any{}
	if update.Title != nil {
		set, args = append(set, "title = "+placeholder(len(args)+1)), append(args, *update.Title)
	}
	if update.State != nil {
		set, args = append(set, "state = "+placeholder(len(args)+1)), append(args, string(*update.State))
	}
	if update.UpdatedTs != nil {
		set, args = append(set, "updated_ts = "+placeholder(len(args)+1)), append(args, *update.UpdatedTs)
	}
	if len(set) == 0 {
		return nil, fmt.Errorf("no fields to update")
	}

	where := []string{"id = " + placeholder(len(args)+1)}
	args = append(args, update.ID)
	if len(update.ExpectedStates) > 0 {
		holders := make([]string, 0, len(update.ExpectedStates))
		for _, state := range update.ExpectedStates {
			holders, args = append(holders, placeholder(len(args)+1)), append(args, string(state))
		}
		where = append(where, "state IN ("+strings.Join(holders, ", ")+")")
	}

	stmt := `UPDATE conversation SET ` + strings.Join(set, ", ") + ` WHERE ` + strings.Join(where, " AND ") +
		` RETURNING ` + conversationColumns
	conversation, err := scanConversation(d.db.QueryRowContext(ctx, stmt, args...))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to update conversation: %w", err)
	}
	return conversation, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanConversation(row rowScanner) (*store.Conversation, error) {
	var conversation store.Conversation
	var mode, state string
	if err := row.Scan(
		&conversation.ID,
		&conversation.UID,
		&conversation.UserID,
		&conversation.Title,
		&mode,
		&state,
		&conversation.CreatedTs,
		&conversation.UpdatedTs,
	); err != nil {
		return nil, err
	}
	conversation.Mode = store.ConversationMode(mode)
	conversation.State = store.ConversationState(state)
	return &conversation, nil
}
