package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/amiyamandal-dev/contentdesk/internal/app"
	"github.com/amiyamandal-dev/contentdesk/internal/domain"
	"github.com/amiyamandal-dev/contentdesk/internal/seed"
	"github.com/amiyamandal-dev/contentdesk/pkg/logger"
)

func seedCommand() *cobra.Command {
	var file string

	cmd := &cobra.Command{
		Use:   "seed",
		Short: "Load sample content into the store",
		Long: `Stores and indexes content records from a YAML seed file. Records
replace existing records with the same id.

Example:
  # Load the built-in sample article and video
  contentctl seed

  # Load your own records
  contentctl seed --file content.yaml`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			records, err := readSeed(file)
			if err != nil {
				return err
			}
			return withApp(func(a *app.App, log *logger.Logger) error {
				n, err := seed.Apply(cmd.Context(), a.ContentRepo, a.Search, records, log)
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Seeded %d records\n", n)
				return nil
			})
		},
	}

	cmd.Flags().StringVarP(&file, "file", "f", "", "seed file (default: built-in samples)")
	return cmd
}

func readSeed(path string) ([]*domain.ContentRecord, error) {
	if path == "" {
		return seed.Samples()
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open seed file: %w", err)
	}
	defer f.Close()
	return seed.Load(f)
}
