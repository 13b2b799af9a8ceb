package types

import "time"

// List states. A list starts as a draft and becomes completed when a purchase
// is finished from it. No transition returns a list to draft.
const (
	ListStatusDraft     = "draft"
	ListStatusCompleted = "completed"
)

// DefaultListName is used when a list is created without a name.
const DefaultListName = "Nova Lista"

// List is a shopping list or, when IsTemplate is set, a reusable item shape.
type List struct {
	ID          int64      `json:"id"`
	UserID      int64      `json:"user_id"`
	Name        string     `json:"name"`
	Status      string     `json:"status"`
	IsTemplate  bool       `json:"is_template"`
	CreatedAt   time.Time  `json:"created_at"`
	CompletedAt *time.Time `json:"completed_at,omitempty"`
}

// IsDraft reports whether the list can still be finalized.
func (l *List) IsDraft() bool {
	return l.Status == ListStatusDraft
}

// ListFilter narrows GetListsByUser. An empty Status matches every status.
type ListFilter struct {
	Status           string
	IncludeTemplates bool
}
