package cli

import (
	"context"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"entangledu/internal/learner/app"
	"entangledu/internal/ledger/models"
)

func newSelectCommand(open Opener) *cobra.Command {
	return &cobra.Command{
		Use:   "select CREDENTIAL_ID",
		Short: "Toggle CREDENTIAL_ID in the fusion selection.",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd, open, func(ctx context.Context, a *app.App) error {
				cred, ok := a.Ledger.Get(args[0])
				if !ok || !a.Fusion.Eligible(cred) {
					return fmt.Errorf("credential %s cannot be fused", args[0])
				}
				a.Fusion.Selection().Toggle(cred.ID)
				if err := a.SaveSelection(ctx); err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "selected: [%s]\n", strings.Join(a.Fusion.Selection().Selected(), ", "))
				return nil
			})
		},
	}
}

func newFuseCommand(open Opener) *cobra.Command {
	return &cobra.Command{
		Use:   "fuse [CREDENTIAL_ID CREDENTIAL_ID]",
		Short: "Fuse two credentials, or the current selection, into a synthesis credential.",
		Args: func(cmd *cobra.Command, args []string) error {
			if len(args) != 0 && len(args) != 2 {
				return fmt.Errorf("accepts 0 or 2 arg(s), received %d", len(args))
			}
			return nil
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd, open, func(ctx context.Context, a *app.App) error {
				var (
					cred models.Credential
					err  error
				)
				if len(args) == 2 {
					cred, err = a.Fusion.Fuse(ctx, args[0], args[1])
				} else {
					cred, err = a.Fusion.FuseSelected(ctx)
				}
				if err != nil {
					return err
				}
				if err := a.SaveSelection(ctx); err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "FUSED %s INTO %s\n%s\n", strings.Join(cred.SourceIDs, " + "), cred.ID, cred.Title)
				return nil
			})
		},
	}
}
