package cli

import (
	"context"
	"io"
	"strings"

	"github.com/spf13/cobra"
)

func newTemplateCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "template",
		Short: "Save and reuse list templates",
	}
	cmd.AddCommand(
		newTemplateSaveCmd(a),
		newTemplateLsCmd(a),
		newTemplateUseCmd(a),
	)
	return cmd
}

func newTemplateSaveCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "save <list-id> [name]",
		Short: "Save a list as a template",
		Long:  "Copy a list's item names and quantities into a new template. Prices are not kept.",
		Args:  cobra.MinimumNArgs(1),
		RunE: a.run(func(ctx context.Context, cmd *cobra.Command, args []string) error {
			listID, err := parseID("list", args[0])
			if err != nil {
				return err
			}
			id, err := a.backend.SaveListAsTemplate(ctx, listID, strings.Join(args[1:], " "))
			if err != nil {
				return err
			}
			return a.created(cmd.OutOrStdout(), "template", id)
		}),
	}
}

func newTemplateLsCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "ls",
		Short: "List the active user's templates",
		Args:  cobra.NoArgs,
		RunE: a.run(func(ctx context.Context, cmd *cobra.Command, args []string) error {
			userID, err := a.currentUser(ctx)
			if err != nil {
				return err
			}
			templates, err := a.backend.GetTemplatesByUser(ctx, userID)
			if err != nil {
				return err
			}
			return a.emit(cmd.OutOrStdout(), templates, func(w io.Writer) {
				listsTable(w, templates)
			})
		}),
	}
}

func newTemplateUseCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "use <template-id> [name]",
		Short: "Start a new list from a template",
		Args:  cobra.MinimumNArgs(1),
		RunE: a.run(func(ctx context.Context, cmd *cobra.Command, args []string) error {
			templateID, err := parseID("template", args[0])
			if err != nil {
				return err
			}
			userID, err := a.currentUser(ctx)
			if err != nil {
				return err
			}
			id, err := a.backend.CreateListFromTemplate(ctx, userID, templateID, strings.Join(args[1:], " "))
			if err != nil {
				return err
			}
			return a.created(cmd.OutOrStdout(), "list", id)
		}),
	}
}
