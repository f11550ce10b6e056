package postgres

import (
	"context"
	"fmt"
	"strings"

	"github.com/hrygo/botgpt/store"
)

func (d *DB) CreateUser(ctx context.Context, create *store.User) (*store.User, error) {
	args := []any{create.Username, create.Email, create.CreatedTs}
	stmt := `INSERT INTO app_user (username, email, created_ts)
		VALUES (` + placeholders(len(args)) + `)
		RETURNING id`
	if err := d.db.QueryRowContext(ctx, stmt, args...).Scan(&create.ID); err != nil {
		return nil, fmt.Errorf("failed to create user: %w", err)
	}
	return create, nil
}

func (d *DB) ListUsers(ctx context.Context, find *store.FindUser) ([]*store.User, error) {
	where, args := []string{"1 = 1"}, []any{}
	if find.ID != nil {
		where, args = append(where, "id = "+placeholder(len(args)+1)), append(args, *find.ID)
	}
	if find.Username != nil {
		where, args = append(where, "username = "+placeholder(len(args)+1)), append(args, *find.Username)
	}
	if find.Email != nil {
		where, args = append(where, "email = "+placeholder(len(args)+1)), append(args, *find.Email)
	}

	query := `SELECT id, username, email, created_ts FROM app_user WHERE ` + strings.Join(where, " AND ") + ` ORDER BY id ASC`
	rows, err := d.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list users: %w", err)
	}
	defer rows.Close()

	list := []*store.User{}
	for rows.Next() {
		var user store.User
		if err := rows.Scan(&user.ID, &user.Username, &user.Email, &user.CreatedTs); err != nil {
			return nil, fmt.Errorf("failed to scan user: %w", err)
		}
		list = append(list, &user)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate users: %w", err)
	}
	return list, nil
}
