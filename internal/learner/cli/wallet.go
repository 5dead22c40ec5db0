package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"entangledu/internal/learner/app"
)

func newWalletCommand(open Opener) *cobra.Command {
	walletCmd := &cobra.Command{
		Use:   "wallet",
		Short: "Manage the identifier credentials are minted to",
	}
	walletCmd.AddCommand(
		&cobra.Command{
			Use:   "connect IDENTIFIER",
			Short: "Mint future credentials to IDENTIFIER.",
			Args:  cobra.ExactArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				return withApp(cmd, open, func(ctx context.Context, a *app.App) error {
					if err := a.Wallet.Connect(ctx, args[0]); err != nil {
						return err
					}
					fmt.Fprintf(cmd.OutOrStdout(), "WALLET CONNECTED: %s\n", a.Wallet.Recipient(ctx))
					return nil
				})
			},
		},
		&cobra.Command{
			Use:   "disconnect",
			Short: "Forget the connected identifier.",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, _ []string) error {
				return withApp(cmd, open, func(ctx context.Context, a *app.App) error {
					if err := a.Wallet.Disconnect(ctx); err != nil {
						return err
					}
					fmt.Fprintln(cmd.OutOrStdout(), "WALLET DISCONNECTED")
					return nil
				})
			},
		},
		&cobra.Command{
			Use:   "show",
			Short: "Print the recipient credentials are minted to.",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, _ []string) error {
				return withApp(cmd, open, func(ctx context.Context, a *app.App) error {
					fmt.Fprintln(cmd.OutOrStdout(), a.Wallet.Recipient(ctx))
					return nil
				})
			},
		},
	)
	return walletCmd
}
