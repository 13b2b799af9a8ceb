package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/sirupsen/logrus"

	"github.com/mesh-intelligence/pantry/pkg/types"
)

// FinishPurchase finalizes a draft list owned by userID. It records a
// purchase whose total is the sum of price times quantity over the included
// items, freezes those items into purchase items, and marks the list
// completed. Which items are included follows the configured finalize policy.
func (b *Backend) FinishPurchase(ctx context.Context, userID, listID int64) (int64, error) {
	var (
		id    int64
		total float64
		count int
	)
	err := b.mutate(ctx, "finish_purchase", func(tx *sql.Tx) error {
		if err := validID(userID); err != nil {
			return err
		}
		list, err := getList(ctx, tx, listID)
		if err != nil {
			return err
		}
		switch {
		case list.UserID != userID:
			return fmt.Errorf("list %d, user %d: %w", listID, userID, types.ErrNotOwner)
		case list.IsTemplate:
			return fmt.Errorf("list %d: %w", listID, types.ErrTemplatePurchase)
		case !list.IsDraft():
			return fmt.Errorf("list %d: %w", listID, types.ErrListCompleted)
		}

		items, err := listItems(ctx, tx, listID)
		if err != nil {
			return err
		}
		included := includedItems(items, b.config.GetFinalizePolicy())
		for _, it := range included {
			total += it.Price * float64(it.Quantity)
		}
		total = types.RoundCents(total)
		count = len(included)

		now := b.timestamp()
		res, err := tx.ExecContext(ctx,
			"INSERT INTO purchases (user_id, list_id, total, date) VALUES (?, ?, ?, ?)",
			userID, listID, total, now)
		if err != nil {
			return fmt.Errorf("inserting purchase: %w", err)
		}
		if id, err = res.LastInsertId(); err != nil {
			return err
		}

		stmt, err := tx.PrepareContext(ctx,
			"INSERT INTO purchase_items (purchase_id, name, price, quantity) VALUES (?, ?, ?, ?)")
		if err != nil {
			return fmt.Errorf("preparing purchase item insert: %w", err)
		}
		defer stmt.Close()
		for _, it := range included {
			if _, err := stmt.ExecContext(ctx, id, it.Name, it.Price, it.Quantity); err != nil {
				return fmt.Errorf("inserting purchase item: %w", err)
			}
		}

		if _, err := tx.ExecContext(ctx,
			"UPDATE lists SET status = ?, completed_at = ? WHERE id = ?",
			types.ListStatusCompleted, now, listID); err != nil {
			return fmt.Errorf("completing list %d: %w", listID, err)
		}
		return nil
	})
	if err != nil {
		return 0, err
	}
	b.log.WithFields(logrus.Fields{
		"purchase_id": id,
		"list_id":     listID,
		"items":       count,
		"total":       total,
	}).Info("purchase finished")
	return id, nil
}

func includedItems(items []types.ListItem, policy string) []types.ListItem {
	if policy == types.FinalizeAll {
		return items
	}
	var checked []types.ListItem
	for _, it := range items {
		if it.IsCompleted {
			checked = append(checked, it)
		}
	}
	return checked
}

// GetPurchasesByUser returns a user's purchases, newest first, with the name
// of the list each came from when that list still exists.
func (b *Backend) GetPurchasesByUser(ctx context.Context, userID int64) ([]types.Purchase, error) {
	var purchases []types.Purchase
	err := b.read("get_purchases_by_user", func(q querier) error {
		var err error
		purchases, err = userPurchases(ctx, q, userID)
		return err
	})
	return purchases, err
}

func userPurchases(ctx context.Context, q querier, userID int64) ([]types.Purchase, error) {
	rows, err := q.QueryContext(ctx,
		"SELECT "+purchaseColumns+" FROM "+purchaseFrom+" WHERE p.user_id = ? ORDER BY p.date DESC, p.id DESC",
		userID)
	if err != nil {
		return nil, fmt.Errorf("querying purchases: %w", err)
	}
	defer rows.Close()

	purchases := []types.Purchase{}
	for rows.Next() {
		p, err := scanPurchase(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning purchase: %w", err)
		}
		purchases = append(purchases, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating purchases: %w", err)
	}
	return purchases, nil
}

// GetPurchaseItems returns the frozen items of a purchase.
func (b *Backend) GetPurchaseItems(ctx context.Context, purchaseID int64) ([]types.PurchaseItem, error) {
	var items []types.PurchaseItem
	err := b.read("get_purchase_items", func(q querier) error {
		if _, err := getPurchase(ctx, q, purchaseID); err != nil {
			return err
		}
		var err error
		items, err = purchaseItems(ctx, q, purchaseID)
		return err
	})
	return items, err
}

// GetReceipt returns a purchase together with its items.
func (b *Backend) GetReceipt(ctx context.Context, purchaseID int64) (*types.Receipt, error) {
	var receipt types.Receipt
	err := b.read("get_receipt", func(q querier) error {
		p, err := getPurchase(ctx, q, purchaseID)
		if err != nil {
			return err
		}
		items, err := purchaseItems(ctx, q, purchaseID)
		if err != nil {
			return err
		}
		receipt = types.Receipt{Purchase: p, Items: items}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &receipt, nil
}

func getPurchase(ctx context.Context, q querier, id int64) (types.Purchase, error) {
	if err := validID(id); err != nil {
		return types.Purchase{}, err
	}
	p, err := scanPurchase(q.QueryRowContext(ctx,
		"SELECT "+purchaseColumns+" FROM "+purchaseFrom+" WHERE p.id = ?", id))
	if errors.Is(err, sql.ErrNoRows) {
		return types.Purchase{}, notFound("purchase", id)
	}
	if err != nil {
		return types.Purchase{}, fmt.Errorf("querying purchase %d: %w", id, err)
	}
	return p, nil
}

func purchaseItems(ctx context.Context, q querier, purchaseID int64) ([]types.PurchaseItem, error) {
	rows, err := q.QueryContext(ctx,
		"SELECT "+purchaseItemColumns+" FROM purchase_items WHERE purchase_id = ? ORDER BY id", purchaseID)
	if err != nil {
		return nil, fmt.Errorf("querying purchase items: %w", err)
	}
	defer rows.Close()

	items := []types.PurchaseItem{}
	for rows.Next() {
		it, err := scanPurchaseItem(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning purchase item: %w", err)
		}
		items = append(items, it)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating purchase items: %w", err)
	}
	return items, nil
}
