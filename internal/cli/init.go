package cli

import (
	"context"
	"fmt"
	"io"

	"github.com/spf13/cobra"
)

// tutorialTips are printed by the first init.
var tutorialTips = []string{
	"Create a user:          pantry user add Ana --use",
	"Start a shopping list:  pantry list create Feira",
	"Add items:              pantry item add <list-id> Arroz --price 5,00 --qty 2",
	"Check items off:        pantry item check <item-id>",
	"Finish the purchase:    pantry finish <list-id>",
	"Reuse a list:           pantry template save <list-id>",
}

func newInitCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "init",
		Short: "Initialize pantry storage",
		Long:  "Create the configuration file and an empty database if they do not exist yet.",
		Args:  cobra.NoArgs,
		RunE: a.run(func(ctx context.Context, cmd *cobra.Command, args []string) error {
			seen, err := a.session.TutorialSeen(ctx)
			if err != nil {
				return err
			}
			if !seen {
				if err := a.session.MarkTutorialSeen(ctx); err != nil {
					return err
				}
			}

			out := map[string]any{
				"config_dir":     a.configDir,
				"data_dir":       a.config.DataDir,
				"schema_version": a.backend.SchemaVersion(),
			}
			return a.emit(cmd.OutOrStdout(), out, func(w io.Writer) {
				fmt.Fprintln(w, "Pantry initialized successfully")
				if seen {
					return
				}
				fmt.Fprintln(w)
				fmt.Fprintln(w, "Getting started:")
				for _, tip := range tutorialTips {
					fmt.Fprintln(w, "  "+tip)
				}
			})
		}),
	}
}
