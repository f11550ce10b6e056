package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/hrygo/botgpt/store"
)

// CreateMessages inserts the messages in a single transaction.
func (d *DB) CreateMessages(ctx context.Context, creates []*store.Message) ([]*store.Message, error) {
	tx, err := d.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	stmt := `INSERT INTO message (uid, conversation_id, role, content, created_ts, tokens_used)
		VALUES (` + placeholders(6) + `)
		RETURNING id`
	for _, create := range creates {
		var tokensUsed sql.NullInt32
		if create.TokensUsed != nil {
			tokensUsed = sql.NullInt32{Int32: *create.TokensUsed, Valid: true}
		}
		args := []any{create.UID, create.ConversationID, string(create.Role), create.Content, create.CreatedTs, tokensUsed}
		if err := tx.QueryRowContext(ctx, stmt, args...).Scan(&create.ID); err != nil {
			return nil, fmt.Errorf("failed to create message: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit messages: %w", err)
	}
	return creates, nil
}

func (d *DB) ListMessages(ctx context.Context, find *store.FindMessage) ([]*store.Message, error) {
	where, args := []string{"1 = 1"}, []any{}
	if find.ID != nil {
		where, args = append(where, "id = "+placeholder(len(args)+1)), append(args, *find.ID)
	}
	if find.ConversationID != nil {
		where, args = append(where, "conversation_id = "+placeholder(len(args)+1)), append(args, *find.ConversationID)
	}

	query := `SELECT id, uid, conversation_id, role, content, created_ts, tokens_used FROM message WHERE ` +
		strings.Join(where, " AND ") + ` ORDER BY created_ts ASC, id ASC`
	rows, err := d.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list messages: %w", err)
	}
	defer rows.Close()

	list := []*store.Message{}
	for rows.Next() {
		var message store.Message
		var role string
		var tokensUsed sql.NullInt32
		if err := rows.Scan(
			&message.ID,
			&message.UID,
			&message.ConversationID,
			&role,
			&message.Content,
			&message.CreatedTs,
			&tokensUsed,
		); err != nil {
			return nil, fmt.Errorf("failed to scan message: %w", err)
		}
		message.Role = store.MessageRole(role)
		if tokensUsed.Valid {
			v := tokensUsed.Int32
			message.TokensUsed = &v
		}
		list = append(list, &message)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate messages: %w", err)
	}
	return list, nil
}
