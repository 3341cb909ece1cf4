package main

import (
	"fmt"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/amiyamandal-dev/contentdesk/internal/app"
	"github.com/amiyamandal-dev/contentdesk/pkg/logger"
)

func reindexCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "reindex",
		Short: "Rebuild the search index from the store",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withApp(func(a *app.App, _ *logger.Logger) error {
				n, err := a.Search.Reindex(cmd.Context())
				if err != nil {
					return fmt.Errorf("reindex failed: %w", err)
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Indexed %s records\n", humanize.Comma(int64(n)))
				return nil
			})
		},
	}
}
