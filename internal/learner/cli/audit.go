package cli

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"entangledu/internal/learner/app"
	"entangledu/internal/ledger/models"
)

func newAuditCommand(open Opener) *cobra.Command {
	return &cobra.Command{
		Use:   "audit",
		Short: "Show the issuer's health and its full mint log.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withApp(cmd, open, func(ctx context.Context, a *app.App) error {
				health, err := a.Issuer.Health(ctx)
				if err != nil {
					return fmt.Errorf("unable to reach issuer: %w", err)
				}
				fmt.Fprintf(cmd.OutOrStdout(), "issuer %s, signer %s, %d mints\n", health.Status, health.Signer, health.Mints)

				mintLog, err := a.Issuer.Audit(ctx)
				if err != nil {
					return fmt.Errorf("unable to read mint log: %w", err)
				}
				tab := newTable(cmd)
				fmt.Fprintln(tab, strings.Join([]string{"ID", "LESSON", "RECIPIENT", "ISSUED"}, "\t"))
				for _, c := range mintLog.Certificates {
					fmt.Fprintln(tab, strings.Join([]string{
						c.ID,
						string(c.LessonID),
						c.Recipient,
						models.Millis(c.Timestamp).Format(time.RFC3339),
					}, "\t"))
				}
				if err := tab.Flush(); err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "total: %d\n", mintLog.Total)
				return nil
			})
		},
	}
}
