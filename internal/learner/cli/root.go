// Package cli is the learner's command line. Each command opens the learner
// app, does one thing against the shared ledger, and closes it again.
package cli

import (
	"context"
	"fmt"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"entangledu/internal/learner/app"
	"entangledu/internal/ledger/models"
)

// Opener builds the learner app for one command run.
type Opener func(ctx context.Context) (*app.App, error)

// NewRootCommand assembles the learner command tree.
func NewRootCommand(open Opener) *cobra.Command {
	root := &cobra.Command{
		Use:   "learner",
		Short: "The learner CLI passes lessons, keeps the credential ledger and fuses credentials.",
		Long: `The learner CLI passes lessons, keeps the credential ledger and fuses credentials.

 Configuration is read from ENTANGLEDU_* environment variables.`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.AddCommand(
		newLessonsCommand(open),
		newPassCommand(open),
		newLedgerCommand(open),
		newClearCommand(open),
		newSelectCommand(open),
		newFuseCommand(open),
		newWalletCommand(open),
		newAuditCommand(open),
	)
	return root
}

// withApp runs fn against a freshly opened app and always closes it.
func withApp(cmd *cobra.Command, open Opener, fn func(ctx context.Context, a *app.App) error) (err error) {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	a, err := open(ctx)
	if err != nil {
		return fmt.Errorf("unable to open learner: %w", err)
	}
	defer func() {
		if cerr := a.Close(); cerr != nil && err == nil {
			err = cerr
		}
	}()
	return fn(ctx, a)
}

func newTable(cmd *cobra.Command) *tabwriter.Writer {
	return tabwriter.NewWriter(cmd.OutOrStdout(), 10, 4, 3, ' ', 0)
}

func printCredentials(cmd *cobra.Command, creds []models.Credential) error {
	if len(creds) == 0 {
		fmt.Fprintln(cmd.OutOrStdout(), "ledger is empty")
		return nil
	}
	tab := newTable(cmd)
	fmt.Fprintln(tab, strings.Join([]string{"ID", "TYPE", "TITLE", "ISSUED", "SOURCES"}, "\t"))
	for _, c := range creds {
		fmt.Fprintln(tab, strings.Join([]string{
			c.ID,
			c.Kind.String(),
			c.Title,
			c.Timestamp.Format(time.RFC3339),
			strings.Join(c.SourceIDs, ","),
		}, "\t"))
	}
	return tab.Flush()
}
