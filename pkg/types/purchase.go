package types

import "time"

// Purchase is the immutable record of a finalized list. ListID is a
// back-reference that may point at a list deleted since; ListName is empty
// in that case.
type Purchase struct {
	ID       int64     `json:"id"`
	UserID   int64     `json:"user_id"`
	ListID   *int64    `json:"list_id,omitempty"`
	ListName string    `json:"list_name,omitempty"`
	Total    float64   `json:"total"`
	Date     time.Time `json:"date"`
}

// PurchaseItem is a frozen copy of a list item taken at finalize time.
type PurchaseItem struct {
	ID         int64   `json:"id"`
	PurchaseID int64   `json:"purchase_id"`
	Name       string  `json:"name"`
	Price      float64 `json:"price"`
	Quantity   int     `json:"quantity"`
}

// Subtotal returns price times quantity, rounded to cents.
func (i *PurchaseItem) Subtotal() float64 {
	return RoundCents(i.Price * float64(NormalizeQuantity(i.Quantity)))
}

// Receipt is the snapshot handed to export collaborators: a purchase and its
// items. It is never written back.
type Receipt struct {
	Purchase Purchase       `json:"purchase"`
	Items    []PurchaseItem `json:"items"`
}

// MonthSummary groups the purchases of one calendar month.
type MonthSummary struct {
	Month     string     `json:"month"` // YYYY-MM
	Total     float64    `json:"total"`
	Purchases []Purchase `json:"purchases"`
}

// History is a user's purchase history grouped by month, newest month first.
type History struct {
	UserID         int64          `json:"user_id"`
	Months         []MonthSummary `json:"months"`
	TotalAllTime   float64        `json:"total_all_time"`
	TotalThisMonth float64        `json:"total_this_month"`
	PurchaseCount  int            `json:"purchase_count"`
}
