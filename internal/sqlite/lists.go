package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/sirupsen/logrus"

	"github.com/mesh-intelligence/pantry/pkg/types"
)

// CreateList adds a draft list, or a template when isTemplate is set, for an
// existing user. A blank name becomes types.DefaultListName.
func (b *Backend) CreateList(ctx context.Context, userID int64, name string, isTemplate bool) (int64, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		name = types.DefaultListName
	}

	var id int64
	err := b.mutate(ctx, "create_list", func(tx *sql.Tx) error {
		if err := requireUser(ctx, tx, userID); err != nil {
			return err
		}
		var err error
		id, err = insertList(ctx, tx, userID, name, isTemplate, b.timestamp())
		return err
	})
	if err != nil {
		return 0, err
	}
	b.log.WithFields(logrus.Fields{"list_id": id, "user_id": userID, "template": isTemplate}).Debug("list created")
	return id, nil
}

func insertList(ctx context.Context, tx *sql.Tx, userID int64, name string, isTemplate bool, created string) (int64, error) {
	res, err := tx.ExecContext(ctx,
		"INSERT INTO lists (user_id, name, status, is_template, created_at) VALUES (?, ?, ?, ?, ?)",
		userID, name, types.ListStatusDraft, boolInt(isTemplate), created)
	if err != nil {
		return 0, fmt.Errorf("inserting list: %w", err)
	}
	return res.LastInsertId()
}

func requireUser(ctx context.Context, q querier, userID int64) error {
	if err := validID(userID); err != nil {
		return err
	}
	ok, err := exists(ctx, q, tableUsers, userID)
	if err != nil {
		return err
	}
	if !ok {
		return notFound("user", userID)
	}
	return nil
}

// GetList returns one list.
func (b *Backend) GetList(ctx context.Context, id int64) (*types.List, error) {
	var list types.List
	err := b.read("get_list", func(q querier) error {
		l, err := getList(ctx, q, id)
		list = l
		return err
	})
	if err != nil {
		return nil, err
	}
	return &list, nil
}

func getList(ctx context.Context, q querier, id int64) (types.List, error) {
	if err := validID(id); err != nil {
		return types.List{}, err
	}
	l, err := scanList(q.QueryRowContext(ctx, "SELECT "+listColumns+" FROM lists WHERE id = ?", id))
	if errors.Is(err, sql.ErrNoRows) {
		return types.List{}, notFound("list", id)
	}
	if err != nil {
		return types.List{}, fmt.Errorf("querying list %d: %w", id, err)
	}
	return l, nil
}

// GetListsByUser returns a user's lists, newest first. Templates are left out
// unless the filter asks for them.
func (b *Backend) GetListsByUser(ctx context.Context, userID int64, filter types.ListFilter) ([]types.List, error) {
	query := "SELECT " + listColumns + " FROM lists WHERE user_id = ?"
	args := []any{userID}
	if filter.Status != "" {
		query += " AND status = ?"
		args = append(args, filter.Status)
	}
	if !filter.IncludeTemplates {
		query += " AND COALESCE(is_template, 0) = 0"
	}
	query += " ORDER BY created_at DESC, id DESC"

	var lists []types.List
	err := b.read("get_lists_by_user", func(q querier) error {
		var err error
		lists, err = queryLists(ctx, q, query, args...)
		return err
	})
	return lists, err
}

// GetTemplatesByUser returns a user's templates, newest first.
func (b *Backend) GetTemplatesByUser(ctx context.Context, userID int64) ([]types.List, error) {
	var lists []types.List
	err := b.read("get_templates_by_user", func(q querier) error {
		var err error
		lists, err = queryLists(ctx, q,
			"SELECT "+listColumns+" FROM lists WHERE user_id = ? AND is_template = 1 ORDER BY created_at DESC, id DESC",
			userID)
		return err
	})
	return lists, err
}

func queryLists(ctx context.Context, q querier, query string, args ...any) ([]types.List, error) {
	rows, err := q.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("querying lists: %w", err)
	}
	defer rows.Close()

	lists := []types.List{}
	for rows.Next() {
		l, err := scanList(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning list: %w", err)
		}
		lists = append(lists, l)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating lists: %w", err)
	}
	return lists, nil
}

// DeleteList removes a list and its items. Purchases made from it keep their
// frozen items and lose only the list name.
func (b *Backend) DeleteList(ctx context.Context, id int64) error {
	return b.mutate(ctx, "delete_list", func(tx *sql.Tx) error {
		if err := validID(id); err != nil {
			return err
		}
		ok, err := exists(ctx, tx, tableLists, id)
		if err != nil {
			return err
		}
		if !ok {
			return notFound("list", id)
		}
		if _, err := tx.ExecContext(ctx, "DELETE FROM list_items WHERE list_id = ?", id); err != nil {
			return fmt.Errorf("deleting items of list %d: %w", id, err)
		}
		if _, err := tx.ExecContext(ctx, "DELETE FROM lists WHERE id = ?", id); err != nil {
			return fmt.Errorf("deleting list %d: %w", id, err)
		}
		return nil
	})
}
