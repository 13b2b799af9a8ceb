package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/mesh-intelligence/pantry/pkg/types"
)

// AddListItem appends an unchecked item to a draft list. Prices are normalized and
// forced to 0 on templates; quantities below 1 become 1.
func (b *Backend) AddListItem(ctx context.Context, listID int64, name string, price float64, quantity int) (int64, error) {
	name = strings.TrimSpace(name)
	price = types.NormalizePrice(price)
	quantity = types.NormalizeQuantity(quantity)

	var id int64
	err := b.mutate(ctx, "add_list_item", func(tx *sql.Tx) error {
		if name == "" {
			return types.ErrInvalidName
		}
		list, err := getList(ctx, tx, listID)
		if err != nil {
			return err
		}
		if err := requireDraft(list); err != nil {
			return err
		}
		if list.IsTemplate {
			price = 0
		}
		res, err := tx.ExecContext(ctx,
			"INSERT INTO list_items (list_id, name, price, quantity, is_completed) VALUES (?, ?, ?, ?, 0)",
			listID, name, price, quantity)
		if err != nil {
			return fmt.Errorf("inserting item: %w", err)
		}
		id, err = res.LastInsertId()
		return err
	})
	if err != nil {
		return 0, err
	}
	return id, nil
}

// GetListItems returns the items of a list in insertion order.
func (b *Backend) GetListItems(ctx context.Context, listID int64) ([]types.ListItem, error) {
	var items []types.ListItem
	err := b.read("get_list_items", func(q querier) error {
		if _, err := getList(ctx, q, listID); err != nil {
			return err
		}
		var err error
		items, err = listItems(ctx, q, listID)
		return err
	})
	return items, err
}

func listItems(ctx context.Context, q querier, listID int64) ([]types.ListItem, error) {
	rows, err := q.QueryContext(ctx,
		"SELECT "+itemColumns+" FROM list_items WHERE list_id = ? ORDER BY id", listID)
	if err != nil {
		return nil, fmt.Errorf("querying items of list %d: %w", listID, err)
	}
	defer rows.Close()

	items := []types.ListItem{}
	for rows.Next() {
		it, err := scanItem(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning item: %w", err)
		}
		items = append(items, it)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating items: %w", err)
	}
	return items, nil
}

// itemList returns the list an item belongs to.
func itemList(ctx context.Context, q querier, id int64) (types.List, error) {
	if err := validID(id); err != nil {
		return types.List{}, err
	}
	var listID int64
	err := q.QueryRowContext(ctx, "SELECT list_id FROM list_items WHERE id = ?", id).Scan(&listID)
	if errors.Is(err, sql.ErrNoRows) {
		return types.List{}, notFound("item", id)
	}
	if err != nil {
		return types.List{}, fmt.Errorf("querying item %d: %w", id, err)
	}
	list, err := getList(ctx, q, listID)
	if errors.Is(err, types.ErrNotFound) {
		// Orphaned item: treat as a regular list.
		return types.List{ID: listID, Status: types.ListStatusDraft}, nil
	}
	return list, err
}

// requireDraft rejects item edits on a completed list.
func requireDraft(list types.List) error {
	if !list.IsDraft() {
		return fmt.Errorf("list %d: %w", list.ID, types.ErrListCompleted)
	}
	return nil
}

// UpdateListItem replaces an item's name and price, and its quantity when
// update.Quantity is set.
func (b *Backend) UpdateListItem(ctx context.Context, id int64, update types.ItemUpdate) error {
	name := strings.TrimSpace(update.Name)
	price := types.NormalizePrice(update.Price)

	return b.mutate(ctx, "update_list_item", func(tx *sql.Tx) error {
		if name == "" {
			return types.ErrInvalidName
		}
		list, err := itemList(ctx, tx, id)
		if err != nil {
			return err
		}
		if err := requireDraft(list); err != nil {
			return err
		}
		if list.IsTemplate {
			price = 0
		}

		query := "UPDATE list_items SET name = ?, price = ?"
		args := []any{name, price}
		if update.Quantity != nil {
			query += ", quantity = ?"
			args = append(args, types.NormalizeQuantity(*update.Quantity))
		}
		query += " WHERE id = ?"
		args = append(args, id)

		if _, err := tx.ExecContext(ctx, query, args...); err != nil {
			return fmt.Errorf("updating item %d: %w", id, err)
		}
		return nil
	})
}

// DeleteListItem removes one item.
func (b *Backend) DeleteListItem(ctx context.Context, id int64) error {
	return b.mutate(ctx, "delete_list_item", func(tx *sql.Tx) error {
		list, err := itemList(ctx, tx, id)
		if err != nil {
			return err
		}
		if err := requireDraft(list); err != nil {
			return err
		}
		if _, err := tx.ExecContext(ctx, "DELETE FROM list_items WHERE id = ?", id); err != nil {
			return fmt.Errorf("deleting item %d: %w", id, err)
		}
		return nil
	})
}

// MarkListItemComplete checks or unchecks one item.
func (b *Backend) MarkListItemComplete(ctx context.Context, id int64, completed bool) error {
	return b.mutate(ctx, "mark_list_item_complete", func(tx *sql.Tx) error {
		list, err := itemList(ctx, tx, id)
		if err != nil {
			return err
		}
		if err := requireDraft(list); err != nil {
			return err
		}
		if _, err := tx.ExecContext(ctx,
			"UPDATE list_items SET is_completed = ? WHERE id = ?", boolInt(completed), id); err != nil {
			return fmt.Errorf("marking item %d: %w", id, err)
		}
		return nil
	})
}

// SetAllItemsComplete checks or unchecks every item of a list.
func (b *Backend) SetAllItemsComplete(ctx context.Context, listID int64, completed bool) error {
	return b.mutate(ctx, "set_all_items_complete", func(tx *sql.Tx) error {
		list, err := getList(ctx, tx, listID)
		if err != nil {
			return err
		}
		if err := requireDraft(list); err != nil {
			return err
		}
		if _, err := tx.ExecContext(ctx,
			"UPDATE list_items SET is_completed = ? WHERE list_id = ?", boolInt(completed), listID); err != nil {
			return fmt.Errorf("marking items of list %d: %w", listID, err)
		}
		return nil
	})
}
