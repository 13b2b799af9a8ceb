// Package session keeps the small per-installation values that live next to
// the database snapshot: the active user and the one-time tutorial flag.
package session

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/mesh-intelligence/pantry/internal/kv"
)

// Keys in the key-value store.
const (
	KeyActiveUser   = "active_user"
	KeyTutorialSeen = "tutorial_seen"
)

// Session reads and writes session keys in a kv.Store.
type Session struct {
	store kv.Store
}

// New returns a Session backed by store.
func New(store kv.Store) *Session {
	return &Session{store: store}
}

// ActiveUser returns the active user id. ok is false when none is set or the
// stored value is not a positive id.
func (s *Session) ActiveUser(ctx context.Context) (id int64, ok bool, err error) {
	v, err := s.store.Get(ctx, KeyActiveUser)
	if errors.Is(err, kv.ErrKeyNotFound) {
		return 0, false, nil
	}
	if err != nil {
		return 0, false, fmt.Errorf("reading active user: %w", err)
	}
	id, err = strconv.ParseInt(strings.TrimSpace(string(v)), 10, 64)
	if err != nil || id <= 0 {
		return 0, false, nil
	}
	return id, true, nil
}

// SetActiveUser stores id as the active user.
func (s *Session) SetActiveUser(ctx context.Context, id int64) error {
	if id <= 0 {
		return fmt.Errorf("invalid user id %d", id)
	}
	if err := s.store.Put(ctx, KeyActiveUser, []byte(strconv.FormatInt(id, 10))); err != nil {
		return fmt.Errorf("writing active user: %w", err)
	}
	return nil
}

// ClearActiveUser removes the active user.
func (s *Session) ClearActiveUser(ctx context.Context) error {
	if err := s.store.Delete(ctx, KeyActiveUser); err != nil {
		return fmt.Errorf("clearing active user: %w", err)
	}
	return nil
}

// ClearActiveUserIf removes the active user when it is id. Used after a user
// is deleted.
func (s *Session) ClearActiveUserIf(ctx context.Context, id int64) error {
	current, ok, err := s.ActiveUser(ctx)
	if err != nil || !ok || current != id {
		return err
	}
	return s.ClearActiveUser(ctx)
}

// TutorialSeen reports whether the tutorial was already shown.
func (s *Session) TutorialSeen(ctx context.Context) (bool, error) {
	v, err := s.store.Get(ctx, KeyTutorialSeen)
	if errors.Is(err, kv.ErrKeyNotFound) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("reading tutorial flag: %w", err)
	}
	return strings.TrimSpace(string(v)) == "true", nil
}

// MarkTutorialSeen records that the tutorial was shown.
func (s *Session) MarkTutorialSeen(ctx context.Context) error {
	if err := s.store.Put(ctx, KeyTutorialSeen, []byte("true")); err != nil {
		return fmt.Errorf("writing tutorial flag: %w", err)
	}
	return nil
}
