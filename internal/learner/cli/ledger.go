package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"entangledu/internal/learner/app"
	"entangledu/internal/ledger/models"
)

func newLedgerCommand(open Opener) *cobra.Command {
	var asJSON, watch bool
	cmd := &cobra.Command{
		Use:   "ledger",
		Short: "Show the credential ledger.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withApp(cmd, open, func(ctx context.Context, a *app.App) error {
				show := func() error {
					creds := a.Ledger.Snapshot()
					if !asJSON {
						return printCredentials(cmd, creds)
					}
					data, err := models.EncodeLedger(creds)
					if err != nil {
						return err
					}
					fmt.Fprintln(cmd.OutOrStdout(), string(data))
					return nil
				}
				if err := show(); err != nil {
					return err
				}
				if !watch {
					return nil
				}
				for {
					select {
					case <-ctx.Done():
						return nil
					case <-a.Changes():
						if err := show(); err != nil {
							return err
						}
					}
				}
			})
		},
	}
	cmd.Flags().BoolVar(&asJSON, "json", false, "print the ledger in its persisted JSON form")
	cmd.Flags().BoolVar(&watch, "watch", false, "keep running and reprint when another view changes the ledger")
	return cmd
}

func newClearCommand(open Opener) *cobra.Command {
	return &cobra.Command{
		Use:   "clear",
		Short: "Remove every credential from the ledger.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withApp(cmd, open, func(ctx context.Context, a *app.App) error {
				if err := a.Ledger.Clear(ctx); err != nil {
					return err
				}
				a.Fusion.Selection().Reset()
				if err := a.SaveSelection(ctx); err != nil {
					return err
				}
				fmt.Fprintln(cmd.OutOrStdout(), "LEDGER CLEARED")
				return nil
			})
		},
	}
}
