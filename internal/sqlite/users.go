package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/mesh-intelligence/pantry/pkg/types"
)

// CreateUser adds a user and returns its id. The name is trimmed and must be
// non-empty and unused.
func (b *Backend) CreateUser(ctx context.Context, name string) (int64, error) {
	name = strings.TrimSpace(name)

	var id int64
	err := b.mutate(ctx, "create_user", func(tx *sql.Tx) error {
		if name == "" {
			return types.ErrInvalidName
		}
		var n int
		if err := tx.QueryRowContext(ctx, "SELECT COUNT(*) FROM users WHERE name = ?", name).Scan(&n); err != nil {
			return fmt.Errorf("checking user name: %w", err)
		}
		if n > 0 {
			return fmt.Errorf("user %q: %w", name, types.ErrDuplicateName)
		}

		res, err := tx.ExecContext(ctx,
			"INSERT INTO users (name, created_at) VALUES (?, ?)", name, b.timestamp())
		if err != nil {
			return fmt.Errorf("inserting user: %w", err)
		}
		id, err = res.LastInsertId()
		return err
	})
	if err != nil {
		return 0, err
	}
	b.log.WithField("user_id", id).Debug("user created")
	return id, nil
}

// GetUsers returns every user ordered by name.
func (b *Backend) GetUsers(ctx context.Context) ([]types.User, error) {
	var users []types.User
	err := b.read("get_users", func(q querier) error {
		rows, err := q.QueryContext(ctx, "SELECT "+userColumns+" FROM users ORDER BY name, id")
		if err != nil {
			return fmt.Errorf("querying users: %w", err)
		}
		defer rows.Close()

		for rows.Next() {
			u, err := scanUser(rows)
			if err != nil {
				return fmt.Errorf("scanning user: %w", err)
			}
			users = append(users, u)
		}
		return rows.Err()
	})
	if err != nil {
		return nil, err
	}
	if users == nil {
		users = []types.User{}
	}
	return users, nil
}

// GetUser returns one user.
func (b *Backend) GetUser(ctx context.Context, id int64) (*types.User, error) {
	var user types.User
	err := b.read("get_user", func(q querier) error {
		if err := validID(id); err != nil {
			return err
		}
		u, err := getUser(ctx, q, id)
		user = u
		return err
	})
	if err != nil {
		return nil, err
	}
	return &user, nil
}

func getUser(ctx context.Context, q querier, id int64) (types.User, error) {
	u, err := scanUser(q.QueryRowContext(ctx, "SELECT "+userColumns+" FROM users WHERE id = ?", id))
	if errors.Is(err, sql.ErrNoRows) {
		return types.User{}, notFound("user", id)
	}
	if err != nil {
		return types.User{}, fmt.Errorf("querying user %d: %w", id, err)
	}
	return u, nil
}

// DeleteUser removes a user with its lists, items, purchases and purchase
// items in one transaction.
func (b *Backend) DeleteUser(ctx context.Context, id int64) error {
	return b.mutate(ctx, "delete_user", func(tx *sql.Tx) error {
		if err := validID(id); err != nil {
			return err
		}
		ok, err := exists(ctx, tx, tableUsers, id)
		if err != nil {
			return err
		}
		if !ok {
			return notFound("user", id)
		}

		steps := []struct {
			what  string
			query string
		}{
			{"purchase items", "DELETE FROM purchase_items WHERE purchase_id IN (SELECT id FROM purchases WHERE user_id = ?)"},
			{"purchases", "DELETE FROM purchases WHERE user_id = ?"},
			{"list items", "DELETE FROM list_items WHERE list_id IN (SELECT id FROM lists WHERE user_id = ?)"},
			{"lists", "DELETE FROM lists WHERE user_id = ?"},
			{"user", "DELETE FROM users WHERE id = ?"},
		}
		for _, step := range steps {
			if _, err := tx.ExecContext(ctx, step.query, id); err != nil {
				return fmt.Errorf("deleting %s of user %d: %w", step.what, id, err)
			}
		}
		b.log.WithField("user_id", id).Info("user deleted")
		return nil
	})
}
