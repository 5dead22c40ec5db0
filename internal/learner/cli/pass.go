package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"entangledu/internal/learner/app"
	"entangledu/internal/ledger/models"
)

func newPassCommand(open Opener) *cobra.Command {
	return &cobra.Command{
		Use:   "pass LESSON_ID",
		Short: "Record that LESSON_ID was passed and request its credential.",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd, open, func(ctx context.Context, a *app.App) error {
				cred, err := a.PassLesson(ctx, args[0])
				if err != nil {
					return err
				}
				switch cred.Kind {
				case models.KindVerifiedProof:
					fmt.Fprintf(cmd.OutOrStdout(), "VERIFIED PROOF RECORDED FOR %s\n", cred.ID)
					fmt.Fprintf(cmd.OutOrStdout(), "hash:      %s\nsignature: %s\n", cred.Hash, cred.Signature)
				case models.KindUnverifiedLocal:
					fmt.Fprintf(cmd.OutOrStdout(), "ISSUER UNAVAILABLE, UNVERIFIED CREDENTIAL RECORDED FOR %s\n", cred.ID)
				default:
					fmt.Fprintf(cmd.OutOrStdout(), "%s ALREADY HELD FOR %s\n", cred.Kind, cred.ID)
				}
				return nil
			})
		},
	}
}
