package types

import (
	"math"
	"strconv"
	"strings"
)

// ListItem is a product wanted on a list. IsCompleted marks it as checked
// off in shopping mode.
type ListItem struct {
	ID          int64   `json:"id"`
	ListID      int64   `json:"list_id"`
	Name        string  `json:"name"`
	Price       float64 `json:"price"`
	Quantity    int     `json:"quantity"`
	IsCompleted bool    `json:"is_completed"`
}

// Subtotal returns price times quantity, rounded to cents.
func (i *ListItem) Subtotal() float64 {
	return RoundCents(i.Price * float64(NormalizeQuantity(i.Quantity)))
}

// ItemUpdate carries the editable fields of a list item. A nil Quantity keeps
// the stored quantity.
type ItemUpdate struct {
	Name     string
	Price    float64
	Quantity *int
}

// RoundCents rounds a money amount to two decimal places.
func RoundCents(v float64) float64 {
	return math.Round(v*100) / 100
}

// NormalizePrice maps negative and non-finite prices to 0 and rounds the rest
// to cents.
func NormalizePrice(p float64) float64 {
	if math.IsNaN(p) || math.IsInf(p, 0) || p < 0 {
		return 0
	}
	return RoundCents(p)
}

// NormalizeQuantity maps non-positive quantities to 1.
func NormalizeQuantity(q int) int {
	if q < 1 {
		return 1
	}
	return q
}

// ParsePrice converts user input to a price. Non-numeric input yields 0.
// A decimal comma is accepted ("5,50").
func ParsePrice(s string) float64 {
	s = strings.TrimSpace(strings.Replace(s, ",", ".", 1))
	p, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0
	}
	return NormalizePrice(p)
}

// ParseQuantity converts user input to a quantity. Non-numeric or
// non-positive input yields 1.
func ParseQuantity(s string) int {
	q, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil {
		return 1
	}
	return NormalizeQuantity(q)
}
