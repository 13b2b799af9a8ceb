package cli

import (
	"context"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/mesh-intelligence/pantry/pkg/types"
)

func newItemCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "item",
		Short: "Manage the items of a list",
	}
	cmd.AddCommand(
		newItemAddCmd(a),
		newItemUpdateCmd(a),
		newItemDeleteCmd(a),
		newItemCheckCmd(a, "check", true),
		newItemCheckCmd(a, "uncheck", false),
		newItemCheckAllCmd(a),
	)
	return cmd
}

func newItemAddCmd(a *app) *cobra.Command {
	var price, qty string
	cmd := &cobra.Command{
		Use:   "add <list-id> <name>",
		Short: "Add an item to a list",
		Long: "Add an unchecked item. Prices accept a decimal comma (5,50); invalid\n" +
			"prices become 0 and invalid quantities become 1. Template items are\n" +
			"always stored with price 0.",
		Args: cobra.MinimumNArgs(2),
		RunE: a.run(func(ctx context.Context, cmd *cobra.Command, args []string) error {
			listID, err := parseID("list", args[0])
			if err != nil {
				return err
			}
			name := strings.Join(args[1:], " ")
			id, err := a.backend.AddListItem(ctx, listID, name, types.ParsePrice(price), types.ParseQuantity(qty))
			if err != nil {
				return err
			}
			return a.created(cmd.OutOrStdout(), "item", id)
		}),
	}
	cmd.Flags().StringVar(&price, "price", "0", "unit price")
	cmd.Flags().StringVar(&qty, "qty", "1", "quantity")
	return cmd
}

func newItemUpdateCmd(a *app) *cobra.Command {
	var name, price, qty string
	cmd := &cobra.Command{
		Use:   "update <list-id> <item-id>",
		Short: "Edit an item",
		Long:  "Edit an item's name, price or quantity. Fields without a flag keep their value.",
		Args:  cobra.ExactArgs(2),
		RunE: a.run(func(ctx context.Context, cmd *cobra.Command, args []string) error {
			listID, err := parseID("list", args[0])
			if err != nil {
				return err
			}
			itemID, err := parseID("item", args[1])
			if err != nil {
				return err
			}
			items, err := a.backend.GetListItems(ctx, listID)
			if err != nil {
				return err
			}
			var current *types.ListItem
			for i := range items {
				if items[i].ID == itemID {
					current = &items[i]
					break
				}
			}
			if current == nil {
				return fmt.Errorf("item %d on list %d: %w", itemID, listID, types.ErrNotFound)
			}

			update := types.ItemUpdate{Name: current.Name, Price: current.Price}
			flags := cmd.Flags()
			if flags.Changed("name") {
				update.Name = name
			}
			if flags.Changed("price") {
				update.Price = types.ParsePrice(price)
			}
			if flags.Changed("qty") {
				q := types.ParseQuantity(qty)
				update.Quantity = &q
			}
			if err := a.backend.UpdateListItem(ctx, itemID, update); err != nil {
				return err
			}
			return a.done(cmd.OutOrStdout(), "Updated item %d", itemID)
		}),
	}
	cmd.Flags().StringVar(&name, "name", "", "new name")
	cmd.Flags().StringVar(&price, "price", "", "new unit price")
	cmd.Flags().StringVar(&qty, "qty", "", "new quantity")
	return cmd
}

func newItemDeleteCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "delete <item-id>",
		Short: "Remove an item from its list",
		Args:  cobra.ExactArgs(1),
		RunE: a.run(func(ctx context.Context, cmd *cobra.Command, args []string) error {
			id, err := parseID("item", args[0])
			if err != nil {
				return err
			}
			if err := a.backend.DeleteListItem(ctx, id); err != nil {
				return err
			}
			return a.done(cmd.OutOrStdout(), "Deleted item %d", id)
		}),
	}
}

func newItemCheckCmd(a *app, use string, completed bool) *cobra.Command {
	short := "Check an item off"
	verb := "Checked"
	if !completed {
		short = "Uncheck an item"
		verb = "Unchecked"
	}
	return &cobra.Command{
		Use:   use + " <item-id>",
		Short: short,
		Args:  cobra.ExactArgs(1),
		RunE: a.run(func(ctx context.Context, cmd *cobra.Command, args []string) error {
			id, err := parseID("item", args[0])
			if err != nil {
				return err
			}
			if err := a.backend.MarkListItemComplete(ctx, id, completed); err != nil {
				return err
			}
			return a.done(cmd.OutOrStdout(), "%s item %d", verb, id)
		}),
	}
}

func newItemCheckAllCmd(a *app) *cobra.Command {
	var uncheck bool
	cmd := &cobra.Command{
		Use:   "check-all <list-id>",
		Short: "Check every item of a list",
		Args:  cobra.ExactArgs(1),
		RunE: a.run(func(ctx context.Context, cmd *cobra.Command, args []string) error {
			id, err := parseID("list", args[0])
			if err != nil {
				return err
			}
			if err := a.backend.SetAllItemsComplete(ctx, id, !uncheck); err != nil {
				return err
			}
			verb := "Checked"
			if uncheck {
				verb = "Unchecked"
			}
			return a.done(cmd.OutOrStdout(), "%s all items of list %d", verb, id)
		}),
	}
	cmd.Flags().BoolVar(&uncheck, "uncheck", false, "uncheck every item instead")
	return cmd
}
