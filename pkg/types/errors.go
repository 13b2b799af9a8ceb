package types

import "errors"

// Lifecycle errors.
var (
	ErrNotReady        = errors.New("pantry is not attached")
	ErrAlreadyAttached = errors.New("pantry is already attached")
)

// Repository errors. Callers match them with errors.Is; the backend wraps
// them with the operation that failed.
var (
	ErrNotFound         = errors.New("entity not found")
	ErrInvalidID        = errors.New("invalid entity ID")
	ErrInvalidName      = errors.New("invalid name")
	ErrDuplicateName    = errors.New("name already exists")
	ErrNotOwner         = errors.New("list does not belong to user")
	ErrListCompleted    = errors.New("list is already completed")
	ErrTemplatePurchase = errors.New("templates cannot be purchased")
)

// Storage errors.
var (
	ErrSchemaRebuild   = errors.New("schema rebuild failed")
	ErrCorruptSnapshot = errors.New("snapshot is corrupt")
)
