package cli

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

func newExportCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "export [file]",
		Short: "Write the database snapshot",
		Long: "Write the serialized database, in the same format kept in the store,\n" +
			"to file or to standard output.",
		Args: cobra.MaximumNArgs(1),
		RunE: a.run(func(ctx context.Context, cmd *cobra.Command, args []string) error {
			blob, err := a.backend.Export(ctx)
			if err != nil {
				return err
			}
			if len(args) == 0 {
				_, err := cmd.OutOrStdout().Write(blob)
				return err
			}
			if err := os.WriteFile(args[0], blob, 0o644); err != nil {
				return fmt.Errorf("write export: %w", err)
			}
			return a.done(cmd.OutOrStdout(), "Exported %d bytes to %s", len(blob), args[0])
		}),
	}
}

func newImportCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "import <file>",
		Short: "Replace the database with a snapshot",
		Long: "Replace every user, list and purchase with the contents of a snapshot\n" +
			"written by export. Older snapshots are migrated on import.",
		Args: cobra.ExactArgs(1),
		RunE: a.run(func(ctx context.Context, cmd *cobra.Command, args []string) error {
			blob, err := os.ReadFile(args[0])
			if err != nil {
				return usagef("read import file: %s", err)
			}
			if err := a.backend.Import(ctx, blob); err != nil {
				return err
			}
			if err := a.session.ClearActiveUser(ctx); err != nil {
				return err
			}
			return a.done(cmd.OutOrStdout(), "Imported %s (schema version %d)", args[0], a.backend.SchemaVersion())
		}),
	}
}
