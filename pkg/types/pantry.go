package types

import "context"

// Pantry defines the storage operations of the grocery store. Callers attach
// to a backend, run operations, and detach when done. Every operation
// returns ErrNotReady while the backend is detached.
type Pantry interface {
	// Attach opens the store described by config, hydrates the database
	// from the stored snapshot and brings the schema up to date.
	// Returns ErrAlreadyAttached if called while attached.
	Attach(ctx context.Context, config Config) error

	// Detach releases backend resources. Idempotent.
	Detach() error

	CreateUser(ctx context.Context, name string) (int64, error)
	GetUsers(ctx context.Context) ([]User, error)
	GetUser(ctx context.Context, id int64) (*User, error)
	DeleteUser(ctx context.Context, id int64) error

	CreateList(ctx context.Context, userID int64, name string, isTemplate bool) (int64, error)
	GetList(ctx context.Context, id int64) (*List, error)
	GetListsByUser(ctx context.Context, userID int64, filter ListFilter) ([]List, error)
	GetTemplatesByUser(ctx context.Context, userID int64) ([]List, error)
	DeleteList(ctx context.Context, id int64) error

	AddListItem(ctx context.Context, listID int64, name string, price float64, quantity int) (int64, error)
	GetListItems(ctx context.Context, listID int64) ([]ListItem, error)
	UpdateListItem(ctx context.Context, id int64, update ItemUpdate) error
	DeleteListItem(ctx context.Context, id int64) error
	MarkListItemComplete(ctx context.Context, id int64, completed bool) error
	SetAllItemsComplete(ctx context.Context, listID int64, completed bool) error

	FinishPurchase(ctx context.Context, userID, listID int64) (int64, error)
	GetPurchasesByUser(ctx context.Context, userID int64) ([]Purchase, error)
	GetPurchaseItems(ctx context.Context, purchaseID int64) ([]PurchaseItem, error)
	GetReceipt(ctx context.Context, purchaseID int64) (*Receipt, error)
	GetHistory(ctx context.Context, userID int64) (*History, error)

	SaveListAsTemplate(ctx context.Context, listID int64, name string) (int64, error)
	CreateListFromTemplate(ctx context.Context, userID, templateID int64, name string) (int64, error)

	// Export returns the serialized database blob.
	Export(ctx context.Context) ([]byte, error)
	// Import replaces the database with the given blob and persists it.
	Import(ctx context.Context, blob []byte) error
}
