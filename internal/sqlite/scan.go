package sqlite

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/mesh-intelligence/pantry/pkg/types"
)

// scanner is satisfied by *sql.Row and *sql.Rows.
type scanner interface {
	Scan(dest ...any) error
}

const userColumns = "id, name, created_at"

func scanUser(s scanner) (types.User, error) {
	var (
		u       types.User
		created sql.NullString
	)
	if err := s.Scan(&u.ID, &u.Name, &created); err != nil {
		return types.User{}, err
	}
	t, err := parseNullTime(created)
	if err != nil {
		return types.User{}, fmt.Errorf("user %d: %w", u.ID, err)
	}
	u.CreatedAt = t
	return u, nil
}

const listColumns = "id, user_id, name, status, is_template, created_at, completed_at"

func scanList(s scanner) (types.List, error) {
	var (
		l         types.List
		status    sql.NullString
		template  sql.NullInt64
		created   sql.NullString
		completed sql.NullString
	)
	if err := s.Scan(&l.ID, &l.UserID, &l.Name, &status, &template, &created, &completed); err != nil {
		return types.List{}, err
	}
	l.Status = types.ListStatusDraft
	if status.Valid && status.String != "" {
		l.Status = status.String
	}
	l.IsTemplate = template.Valid && template.Int64 != 0

	t, err := parseNullTime(created)
	if err != nil {
		return types.List{}, fmt.Errorf("list %d: %w", l.ID, err)
	}
	l.CreatedAt = t
	if completed.Valid && completed.String != "" {
		t, err := parseTime(completed.String)
		if err != nil {
			return types.List{}, fmt.Errorf("list %d: %w", l.ID, err)
		}
		l.CompletedAt = &t
	}
	return l, nil
}

const itemColumns = "id, list_id, name, price, quantity, is_completed"

func scanItem(s scanner) (types.ListItem, error) {
	var (
		it        types.ListItem
		price     sql.NullFloat64
		quantity  sql.NullInt64
		completed sql.NullInt64
	)
	if err := s.Scan(&it.ID, &it.ListID, &it.Name, &price, &quantity, &completed); err != nil {
		return types.ListItem{}, err
	}
	it.Price = price.Float64
	it.Quantity = types.NormalizeQuantity(int(quantity.Int64))
	it.IsCompleted = completed.Int64 != 0
	return it, nil
}

const purchaseColumns = "p.id, p.user_id, p.list_id, COALESCE(l.name, ''), p.total, p.date"

const purchaseFrom = "purchases p LEFT JOIN lists l ON l.id = p.list_id"

func scanPurchase(s scanner) (types.Purchase, error) {
	var (
		p      types.Purchase
		listID sql.NullInt64
		total  sql.NullFloat64
		date   sql.NullString
	)
	if err := s.Scan(&p.ID, &p.UserID, &listID, &p.ListName, &total, &date); err != nil {
		return types.Purchase{}, err
	}
	if listID.Valid {
		id := listID.Int64
		p.ListID = &id
	}
	p.Total = total.Float64
	t, err := parseNullTime(date)
	if err != nil {
		return types.Purchase{}, fmt.Errorf("purchase %d: %w", p.ID, err)
	}
	p.Date = t
	return p, nil
}

const purchaseItemColumns = "id, purchase_id, name, price, quantity"

func scanPurchaseItem(s scanner) (types.PurchaseItem, error) {
	var (
		it       types.PurchaseItem
		price    sql.NullFloat64
		quantity sql.NullInt64
	)
	if err := s.Scan(&it.ID, &it.PurchaseID, &it.Name, &price, &quantity); err != nil {
		return types.PurchaseItem{}, err
	}
	it.Price = price.Float64
	it.Quantity = types.NormalizeQuantity(int(quantity.Int64))
	return it, nil
}

func boolInt(v bool) int {
	if v {
		return 1
	}
	return 0
}

func validID(id int64) error {
	if id <= 0 {
		return fmt.Errorf("%w: %d", types.ErrInvalidID, id)
	}
	return nil
}

func notFound(entity string, id int64) error {
	return fmt.Errorf("%s %d: %w", entity, id, types.ErrNotFound)
}

// exists reports whether a row with the given id exists in table.
func exists(ctx context.Context, q querier, table string, id int64) (bool, error) {
	var n int
	err := q.QueryRowContext(ctx, "SELECT COUNT(*) FROM "+table+" WHERE id = ?", id).Scan(&n)
	if err != nil {
		return false, fmt.Errorf("checking %s %d: %w", table, id, err)
	}
	return n > 0, nil
}
