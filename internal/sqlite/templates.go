package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/sirupsen/logrus"

	"github.com/mesh-intelligence/pantry/pkg/types"
)

// copyItems duplicates the items of one list onto another, keeping names and
// quantities. Copies are unchecked and carry no price.
const copyItems = `INSERT INTO list_items (list_id, name, price, quantity, is_completed)
SELECT ?, name, 0, COALESCE(quantity, 1), 0 FROM list_items WHERE list_id = ? ORDER BY id`

// SaveListAsTemplate copies a list into a new template owned by the same
// user. A blank name keeps the source name. The source list is unchanged.
func (b *Backend) SaveListAsTemplate(ctx context.Context, listID int64, name string) (int64, error) {
	name = strings.TrimSpace(name)

	var id int64
	err := b.mutate(ctx, "save_list_as_template", func(tx *sql.Tx) error {
		src, err := getList(ctx, tx, listID)
		if err != nil {
			return err
		}
		if name == "" {
			name = src.Name
		}
		id, err = copyList(ctx, tx, src.ID, src.UserID, name, true, b.timestamp())
		return err
	})
	if err != nil {
		return 0, err
	}
	b.log.WithFields(logrus.Fields{"template_id": id, "source_id": listID}).Info("template saved")
	return id, nil
}

// CreateListFromTemplate starts a new draft list for userID from any existing
// list, usually a template. A blank name keeps the template name.
func (b *Backend) CreateListFromTemplate(ctx context.Context, userID, templateID int64, name string) (int64, error) {
	name = strings.TrimSpace(name)

	var id int64
	err := b.mutate(ctx, "create_list_from_template", func(tx *sql.Tx) error {
		if err := requireUser(ctx, tx, userID); err != nil {
			return err
		}
		tmpl, err := getList(ctx, tx, templateID)
		if err != nil {
			return err
		}
		if name == "" {
			name = tmpl.Name
		}
		id, err = copyList(ctx, tx, tmpl.ID, userID, name, false, b.timestamp())
		return err
	})
	if err != nil {
		return 0, err
	}
	b.log.WithFields(logrus.Fields{"list_id": id, "template_id": templateID}).Info("list created from template")
	return id, nil
}

func copyList(ctx context.Context, tx *sql.Tx, srcID, userID int64, name string, isTemplate bool, created string) (int64, error) {
	if name == "" {
		name = types.DefaultListName
	}
	id, err := insertList(ctx, tx, userID, name, isTemplate, created)
	if err != nil {
		return 0, err
	}
	if _, err := tx.ExecContext(ctx, copyItems, id, srcID); err != nil {
		return 0, fmt.Errorf("copying items of list %d: %w", srcID, err)
	}
	return id, nil
}
