package sqlite

import (
	"context"

	"github.com/mesh-intelligence/pantry/pkg/types"
)

const monthLayout = "2006-01"

// GetHistory groups a user's purchases by calendar month (UTC), newest month
// first, with per-month, all-time and current-month totals.
func (b *Backend) GetHistory(ctx context.Context, userID int64) (*types.History, error) {
	var purchases []types.Purchase
	err := b.read("get_history", func(q querier) error {
		if err := requireUser(ctx, q, userID); err != nil {
			return err
		}
		var err error
		purchases, err = userPurchases(ctx, q, userID)
		return err
	})
	if err != nil {
		return nil, err
	}

	h := &types.History{
		UserID:        userID,
		Months:        []types.MonthSummary{},
		PurchaseCount: len(purchases),
	}
	thisMonth := b.now().UTC().Format(monthLayout)

	// Purchases arrive newest first, so months come out in order.
	for _, p := range purchases {
		month := p.Date.UTC().Format(monthLayout)
		if n := len(h.Months); n == 0 || h.Months[n-1].Month != month {
			h.Months = append(h.Months, types.MonthSummary{Month: month})
		}
		m := &h.Months[len(h.Months)-1]
		m.Purchases = append(m.Purchases, p)
		m.Total += p.Total
		h.TotalAllTime += p.Total
		if month == thisMonth {
			h.TotalThisMonth += p.Total
		}
	}

	for i := range h.Months {
		h.Months[i].Total = types.RoundCents(h.Months[i].Total)
	}
	h.TotalAllTime = types.RoundCents(h.TotalAllTime)
	h.TotalThisMonth = types.RoundCents(h.TotalThisMonth)
	return h, nil
}
