package postgres

import (
	"context"
	"fmt"
	"strings"

	"github.com/hrygo/botgpt/store"
)

func (d *DB) CreateDocument(ctx context.Context, create *store.Document) (*store.Document, error) {
	args := []any{create.ConversationID, create.Name, create.Content}
	stmt := `INSERT INTO document (conversation_id, name, content)
		VALUES (` + placeholders(len(args)) + `)
		RETURNING id`
	if err := d.db.QueryRowContext(ctx, stmt, args...).Scan(&create.ID); err != nil {
		return nil, fmt.Errorf("failed to create document: %w", err)
	}
	return create, nil
}

func (d *DB) ListDocuments(ctx context.Context, find *store.FindDocument) ([]*store.Document, error) {
	where, args := []string{"1 = 1"}, []any{}
	if find.IDs != nil {
		if len(find.IDs) == 0 {
			return []*store.Document{}, nil
		}
		holders := make([]string, 0, len(find.IDs))
		for _, id := range find.IDs {
			holders, args = append(holders, placeholder(len(args)+1)), append(args, id)
		}
		where = append(where, "id IN ("+strings.Join(holders, ", ")+")")
	}
	if find.ConversationID != nil {
		where, args = append(where, "conversation_id = "+placeholder(len(args)+1)), append(args, *find.ConversationID)
	}

	query := `SELECT id, conversation_id, name, content FROM document WHERE ` + strings.Join(where, " AND ") + ` ORDER BY id ASC`
	rows, err := d.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list documents: %w", err)
	}
	defer rows.Close()

	list := []*store.Document{}
	for rows.Next() {
		var document store.Document
		if err := rows.Scan(&document.ID, &document.ConversationID, &document.Name, &document.Content); err != nil {
			return nil, fmt.Errorf("failed to scan document: %w", err)
		}
		list = append(list, &document)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate documents: %w", err)
	}
	return list, nil
}
