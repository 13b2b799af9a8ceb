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

func newUserCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "user",
		Short: "Manage household members",
	}
	cmd.AddCommand(
		newUserAddCmd(a),
		newUserListCmd(a),
		newUserDeleteCmd(a),
		newUserUseCmd(a),
	)
	return cmd
}

func newUserAddCmd(a *app) *cobra.Command {
	var use bool
	cmd := &cobra.Command{
		Use:   "add <name>",
		Short: "Create a user",
		Args:  cobra.MinimumNArgs(1),
		RunE: a.run(func(ctx context.Context, cmd *cobra.Command, args []string) error {
			id, err := a.backend.CreateUser(ctx, strings.Join(args, " "))
			if err != nil {
				return err
			}
			if use {
				if err := a.session.SetActiveUser(ctx, id); err != nil {
					return err
				}
			}
			return a.created(cmd.OutOrStdout(), "user", id)
		}),
	}
	cmd.Flags().BoolVar(&use, "use", false, "make the new user the active one")
	return cmd
}

func newUserListCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:     "ls",
		Aliases: []string{"list"},
		Short:   "List users",
		Args:    cobra.NoArgs,
		RunE: a.run(func(ctx context.Context, cmd *cobra.Command, args []string) error {
			users, err := a.backend.GetUsers(ctx)
			if err != nil {
				return err
			}
			active, ok, err := a.session.ActiveUser(ctx)
			if err != nil {
				return err
			}
			return a.emit(cmd.OutOrStdout(), users, func(w io.Writer) {
				if len(users) == 0 {
					fmt.Fprintln(w, "No users")
					return
				}
				tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
				fmt.Fprintln(tw, "\tID\tNAME\tCREATED")
				for _, u := range users {
					mark := ""
					if ok && u.ID == active {
						mark = "*"
					}
					fmt.Fprintf(tw, "%s\t%d\t%s\t%s\n", mark, u.ID, u.Name, u.CreatedAt.Format("2006-01-02"))
				}
				tw.Flush()
			})
		}),
	}
}

func newUserDeleteCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "delete <user-id>",
		Short: "Delete a user with all lists and purchases",
		Args:  cobra.ExactArgs(1),
		RunE: a.run(func(ctx context.Context, cmd *cobra.Command, args []string) error {
			id, err := parseID("user", args[0])
			if err != nil {
				return err
			}
			if err := a.backend.DeleteUser(ctx, id); err != nil {
				return err
			}
			if err := a.session.ClearActiveUserIf(ctx, id); err != nil {
				return err
			}
			return a.done(cmd.OutOrStdout(), "Deleted user %d", id)
		}),
	}
}

func newUserUseCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "use <user-id>",
		Short: "Select the active user",
		Args:  cobra.ExactArgs(1),
		RunE: a.run(func(ctx context.Context, cmd *cobra.Command, args []string) error {
			id, err := parseID("user", args[0])
			if err != nil {
				return err
			}
			u, err := a.backend.GetUser(ctx, id)
			if err != nil {
				return err
			}
			if err := a.session.SetActiveUser(ctx, u.ID); err != nil {
				return err
			}
			return a.emit(cmd.OutOrStdout(), u, func(w io.Writer) {
				fmt.Fprintf(w, "Active user: %s (%d)\n", u.Name, u.ID)
			})
		}),
	}
}

// listsTable renders lists as a table.
func listsTable(w io.Writer, lists []types.List) {
	if len(lists) == 0 {
		fmt.Fprintln(w, "No lists")
		return
	}
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tNAME\tSTATUS\tCREATED")
	for _, l := range lists {
		status := l.Status
		if l.IsTemplate {
			status = "template"
		}
		fmt.Fprintf(tw, "%d\t%s\t%s\t%s\n", l.ID, l.Name, status, l.CreatedAt.Format("2006-01-02"))
	}
	tw.Flush()
}
