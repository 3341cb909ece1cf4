package main

import (
	"errors"
	"fmt"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/amiyamandal-dev/contentdesk/internal/auth"
	"github.com/amiyamandal-dev/contentdesk/internal/domain"
)

func tokenCommand() *cobra.Command {
	var (
		id     string
		author domain.Author
	)

	cmd := &cobra.Command{
		Use:   "token",
		Short: "Issue an author token for the authoring API and editor",
		Long: `Signs a token with the configured secret. Content submitted with the
token is published under the given byline.

Example:
  contentctl token --name "Mihir Parmar" --bio "Frontend developer"`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, _, err := loadConfig()
			if err != nil {
				return err
			}
			if cfg.Auth.JWTSecret == "" {
				return errors.New("auth.jwt_secret is not set")
			}
			if author.DisplayName == "" {
				return errors.New("--name is required")
			}
			if id == "" {
				id = uuid.NewString()
			}

			manager := auth.NewJWTManager(cfg.Auth.JWTSecret, cfg.Auth.TokenExpiry)
			token, expires, err := manager.GenerateToken(id, author)
			if err != nil {
				return fmt.Errorf("failed to sign token: %w", err)
			}

			out := cmd.OutOrStdout()
			fmt.Fprintln(out, token)
			fmt.Fprintf(cmd.ErrOrStderr(), "author %s, expires %s\n", id, humanize.RelTime(time.Now(), expires, "ago", "from now"))
			return nil
		},
	}

	cmd.Flags().StringVar(&id, "id", "", "author id (default: random)")
	cmd.Flags().StringVar(&author.DisplayName, "name", "", "author display name")
	cmd.Flags().StringVar(&author.AvatarURL, "avatar", "", "author avatar URL")
	cmd.Flags().StringVar(&author.Bio, "bio", "", "author bio")
	return cmd
}
