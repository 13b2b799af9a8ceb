package cli

import (
	"context"
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/mesh-intelligence/pantry/pkg/types"
)

func newFinishCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "finish <list-id>",
		Short: "Finish shopping and record a purchase",
		Long: "Freeze the list's items into a purchase and mark the list completed.\n" +
			"Which items are included depends on finalize_policy in config.yaml.",
		Args: cobra.ExactArgs(1),
		RunE: a.run(func(ctx context.Context, cmd *cobra.Command, args []string) error {
			listID, err := parseID("list", args[0])
			if err != nil {
				return err
			}
			userID, err := a.currentUser(ctx)
			if err != nil {
				return err
			}
			purchaseID, err := a.backend.FinishPurchase(ctx, userID, listID)
			if err != nil {
				return err
			}
			receipt, err := a.backend.GetReceipt(ctx, purchaseID)
			if err != nil {
				return err
			}
			return a.emit(cmd.OutOrStdout(), receipt, func(w io.Writer) {
				fmt.Fprintf(w, "Recorded purchase %d: %s\n", purchaseID, money(receipt.Purchase.Total))
			})
		}),
	}
}

func newHistoryCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "history",
		Short: "Show the active user's purchases by month",
		Args:  cobra.NoArgs,
		RunE: a.run(func(ctx context.Context, cmd *cobra.Command, args []string) error {
			userID, err := a.currentUser(ctx)
			if err != nil {
				return err
			}
			h, err := a.backend.GetHistory(ctx, userID)
			if err != nil {
				return err
			}
			return a.emit(cmd.OutOrStdout(), h, func(w io.Writer) {
				historyText(w, h)
			})
		}),
	}
}

func historyText(w io.Writer, h *types.History) {
	if h.PurchaseCount == 0 {
		fmt.Fprintln(w, "No purchases")
		return
	}
	for _, m := range h.Months {
		fmt.Fprintf(w, "%s  %s\n", m.Month, money(m.Total))
		tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
		for _, p := range m.Purchases {
			name := p.ListName
			if name == "" {
				name = "(deleted list)"
			}
			fmt.Fprintf(tw, "  %d\t%s\t%s\t%s\n", p.ID, p.Date.Format("2006-01-02"), name, money(p.Total))
		}
		tw.Flush()
	}
	fmt.Fprintf(w, "This month: %s  All time: %s  Purchases: %d\n",
		money(h.TotalThisMonth), money(h.TotalAllTime), h.PurchaseCount)
}

func newReceiptCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "receipt <purchase-id>",
		Short: "Show the items of a purchase",
		Args:  cobra.ExactArgs(1),
		RunE: a.run(func(ctx context.Context, cmd *cobra.Command, args []string) error {
			id, err := parseID("purchase", args[0])
			if err != nil {
				return err
			}
			r, err := a.backend.GetReceipt(ctx, id)
			if err != nil {
				return err
			}
			return a.emit(cmd.OutOrStdout(), r, func(w io.Writer) {
				name := r.Purchase.ListName
				if name == "" {
					name = "(deleted list)"
				}
				fmt.Fprintf(w, "Purchase %d  %s  %s\n", r.Purchase.ID, r.Purchase.Date.Format("2006-01-02 15:04"), name)
				tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
				fmt.Fprintln(tw, "NAME\tQTY\tPRICE\tSUBTOTAL")
				for i := range r.Items {
					it := &r.Items[i]
					fmt.Fprintf(tw, "%s\t%d\t%s\t%s\n", it.Name, it.Quantity, money(it.Price), money(it.Subtotal()))
				}
				tw.Flush()
				fmt.Fprintf(w, "Total: %s\n", money(r.Purchase.Total))
			})
		}),
	}
}
