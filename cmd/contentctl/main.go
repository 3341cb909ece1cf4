// Command contentctl manages the content store: seeding, reindexing and
// issuing author tokens.
package main

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/amiyamandal-dev/contentdesk/internal/app"
	"github.com/amiyamandal-dev/contentdesk/internal/config"
	"github.com/amiyamandal-dev/contentdesk/pkg/logger"
)

var (
	// cfgFile holds the path to the configuration file
	cfgFile string

	rootCmd = &cobra.Command{
		Use:   "contentctl",
		Short: "Manage the content desk store",
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmd.Help()
		},
		SilenceUsage: true,
	}
)

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is ./configs/config.yaml)")

	rootCmd.AddCommand(seedCommand())
	rootCmd.AddCommand(reindexCommand())
	rootCmd.AddCommand(tokenCommand())
}

func main() {
	if err := rootCmd.ExecuteContext(context.Background()); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func loadConfig() (*config.Config, *logger.Logger, error) {
	cfg, err := config.Load(cfgFile)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to load config: %w", err)
	}
	log, err := logger.New(cfg.Logging.Level, cfg.Logging.Format)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to create logger: %w", err)
	}
	return cfg, log, nil
}

// withApp opens the stores for the duration of fn
func withApp(fn func(a *app.App, log *logger.Logger) error) error {
	cfg, log, err := loadConfig()
	if err != nil {
		return err
	}
	defer log.Sync()

	a, err := app.Open(cfg, log)
	if err != nil {
		return err
	}
	defer a.Close()

	return fn(a, log)
}
