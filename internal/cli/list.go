package cli

import (
	"context"
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/mesh-intelligence/pantry/pkg/types"
)

func newListCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "list",
		Short: "Manage shopping lists",
	}
	cmd.AddCommand(
		newListCreateCmd(a),
		newListLsCmd(a),
		newListShowCmd(a),
		newListDeleteCmd(a),
	)
	return cmd
}

func newListCreateCmd(a *app) *cobra.Command {
	var template bool
	cmd := &cobra.Command{
		Use:   "create [name]",
		Short: "Create a list for the active user",
		Long:  "Create a draft list. Without a name the list is called \"" + types.DefaultListName + "\".",
		RunE: a.run(func(ctx context.Context, cmd *cobra.Command, args []string) error {
			userID, err := a.currentUser(ctx)
			if err != nil {
				return err
			}
			id, err := a.backend.CreateList(ctx, userID, strings.Join(args, " "), template)
			if err != nil {
				return err
			}
			kind := "list"
			if template {
				kind = "template"
			}
			return a.created(cmd.OutOrStdout(), kind, id)
		}),
	}
	cmd.Flags().BoolVar(&template, "template", false, "create a template instead of a shopping list")
	return cmd
}

func newListLsCmd(a *app) *cobra.Command {
	var filter types.ListFilter
	cmd := &cobra.Command{
		Use:   "ls",
		Short: "List the active user's lists, newest first",
		Args:  cobra.NoArgs,
		RunE: a.run(func(ctx context.Context, cmd *cobra.Command, args []string) error {
			switch filter.Status {
			case "", types.ListStatusDraft, types.ListStatusCompleted:
			default:
				return usagef("invalid status %q (valid: %s, %s)", filter.Status, types.ListStatusDraft, types.ListStatusCompleted)
			}
			userID, err := a.currentUser(ctx)
			if err != nil {
				return err
			}
			lists, err := a.backend.GetListsByUser(ctx, userID, filter)
			if err != nil {
				return err
			}
			return a.emit(cmd.OutOrStdout(), lists, func(w io.Writer) {
				listsTable(w, lists)
			})
		}),
	}
	cmd.Flags().StringVar(&filter.Status, "status", "", "only lists with this status (draft, completed)")
	cmd.Flags().BoolVar(&filter.IncludeTemplates, "templates", false, "include templates")
	return cmd
}

// listView is the --json shape of list show.
type listView struct {
	List  *types.List      `json:"list"`
	Items []types.ListItem `json:"items"`
	Total float64          `json:"total"`
}

func newListShowCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "show <list-id>",
		Short: "Show a list and its items",
		Args:  cobra.ExactArgs(1),
		RunE: a.run(func(ctx context.Context, cmd *cobra.Command, args []string) error {
			id, err := parseID("list", args[0])
			if err != nil {
				return err
			}
			list, err := a.backend.GetList(ctx, id)
			if err != nil {
				return err
			}
			items, err := a.backend.GetListItems(ctx, id)
			if err != nil {
				return err
			}
			view := listView{List: list, Items: items}
			for i := range items {
				view.Total += items[i].Subtotal()
			}
			view.Total = types.RoundCents(view.Total)

			return a.emit(cmd.OutOrStdout(), view, func(w io.Writer) {
				status := list.Status
				if list.IsTemplate {
					status = "template"
				}
				fmt.Fprintf(w, "%s (#%d, %s)\n", list.Name, list.ID, status)
				if len(items) == 0 {
					fmt.Fprintln(w, "No items")
					return
				}
				tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
				fmt.Fprintln(tw, "\tID\tNAME\tQTY\tPRICE\tSUBTOTAL")
				for i := range items {
					it := &items[i]
					mark := "[ ]"
					if it.IsCompleted {
						mark = "[x]"
					}
					fmt.Fprintf(tw, "%s\t%d\t%s\t%d\t%s\t%s\n", mark, it.ID, it.Name, it.Quantity, money(it.Price), money(it.Subtotal()))
				}
				tw.Flush()
				fmt.Fprintf(w, "Total: %s\n", money(view.Total))
			})
		}),
	}
}

func newListDeleteCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "delete <list-id>",
		Short: "Delete a list and its items",
		Long:  "Delete a list and its items. Purchases made from the list are kept.",
		Args:  cobra.ExactArgs(1),
		RunE: a.run(func(ctx context.Context, cmd *cobra.Command, args []string) error {
			id, err := parseID("list", args[0])
			if err != nil {
				return err
			}
			if err := a.backend.DeleteList(ctx, id); err != nil {
				return err
			}
			return a.done(cmd.OutOrStdout(), "Deleted list %d", id)
		}),
	}
}
