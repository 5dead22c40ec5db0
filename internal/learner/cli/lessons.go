package cli

import (
	"context"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"entangledu/internal/learner/app"
)

func newLessonsCommand(open Opener) *cobra.Command {
	return &cobra.Command{
		Use:   "lessons",
		Short: "List the lesson catalog and whether each lesson is credentialed.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withApp(cmd, open, func(_ context.Context, a *app.App) error {
				tab := newTable(cmd)
				fmt.Fprintln(tab, strings.Join([]string{"ID", "TITLE", "TAG", "CREDENTIAL"}, "\t"))
				for _, l := range a.Catalog.Lessons() {
					status := "-"
					if c, ok := a.Ledger.Get(l.ID); ok {
						status = c.Kind.String()
					}
					fmt.Fprintln(tab, strings.Join([]string{l.ID, l.Title, l.TypeTag, status}, "\t"))
				}
				return tab.Flush()
			})
		},
	}
}
