package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"time"
)

// Table names in dependency order: a table only references tables before it.
const (
	tableUsers         = "users"
	tableLists         = "lists"
	tableListItems     = "list_items"
	tablePurchases     = "purchases"
	tablePurchaseItems = "purchase_items"
)

// dataTables lists every table that holds user data, parents first.
var dataTables = []string{
	tableUsers,
	tableLists,
	tableListItems,
	tablePurchases,
	tablePurchaseItems,
}

// timeLayout is fixed-width so that created_at and date sort lexicographically.
const timeLayout = "2006-01-02T15:04:05.000Z"

// legacyTimeLayout is what SQLite's CURRENT_TIMESTAMP produces.
const legacyTimeLayout = "2006-01-02 15:04:05"

func formatTime(t time.Time) string {
	return t.UTC().Format(timeLayout)
}

// parseTime accepts the layout written by formatTime, any RFC 3339 value and
// CURRENT_TIMESTAMP values (read as UTC).
func parseTime(s string) (time.Time, error) {
	if t, err := time.Parse(time.RFC3339Nano, s); err == nil {
		return t.UTC(), nil
	}
	t, err := time.Parse(legacyTimeLayout, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("parsing timestamp %q: %w", s, err)
	}
	return t.UTC(), nil
}

// parseNullTime returns the zero time for NULL and empty values.
func parseNullTime(ns sql.NullString) (time.Time, error) {
	if !ns.Valid || ns.String == "" {
		return time.Time{}, nil
	}
	return parseTime(ns.String)
}

func tableExists(ctx context.Context, q querier, name string) (bool, error) {
	var n int
	err := q.QueryRowContext(ctx,
		"SELECT COUNT(*) FROM sqlite_master WHERE type = 'table' AND name = ?", name,
	).Scan(&n)
	if err != nil {
		return false, fmt.Errorf("checking table %s: %w", name, err)
	}
	return n > 0, nil
}

// tableColumns returns the column names of a table in declaration order.
func tableColumns(ctx context.Context, q querier, table string) ([]string, error) {
	rows, err := q.QueryContext(ctx, "SELECT name FROM pragma_table_info(?) ORDER BY cid", table)
	if err != nil {
		return nil, fmt.Errorf("reading columns of %s: %w", table, err)
	}
	defer rows.Close()

	var cols []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, fmt.Errorf("scanning column of %s: %w", table, err)
		}
		cols = append(cols, name)
	}
	return cols, rows.Err()
}

func hasColumn(ctx context.Context, q querier, table, column string) (bool, error) {
	cols, err := tableColumns(ctx, q, table)
	if err != nil {
		return false, err
	}
	for _, c := range cols {
		if c == column {
			return true, nil
		}
	}
	return false, nil
}

// RowCounts returns the number of rows in every data table.
func (b *Backend) RowCounts(ctx context.Context) (map[string]int, error) {
	counts := make(map[string]int, len(dataTables))
	err := b.read("row_counts", func(q querier) error {
		for _, table := range dataTables {
			var n int
			if err := q.QueryRowContext(ctx, "SELECT COUNT(*) FROM "+table).Scan(&n); err != nil {
				return fmt.Errorf("counting %s: %w", table, err)
			}
			counts[table] = n
			b.metrics.SetRows(table, n)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return counts, nil
}
