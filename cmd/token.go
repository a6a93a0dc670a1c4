package cmd

import (
	"encoding/json"
	"fmt"
	"os"
	"strconv"

	"github.com/frahmantamala/access-approval/internal/auth"
	authPostgres "github.com/frahmantamala/access-approval/internal/auth/postgres"
	"github.com/frahmantamala/access-approval/pkg/logger"
	"github.com/spf13/cobra"
)

var tokenCmd = &cobra.Command{
	Use:   "token [user-id]",
	Short: "Issue an access/refresh token pair for a user",
	Long:  `Issue tokens for an active user without a password, for local testing and operations.`,
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		userID, err := strconv.ParseInt(args[0], 10, 64)
		if err != nil || userID <= 0 {
			return fmt.Errorf("invalid user id %q", args[0])
		}

		cfg, err := loadConfig(configPath)
		if err != nil {
			return fmt.Errorf("failed to load config: %w", err)
		}
		initLogger(cfg)
		lg := logger.LoggerWrapper()

		db, reader, err := initDB(cfg.Database, lg)
		if err != nil {
			return err
		}
		defer reader.Close()

		svc := auth.NewService(authPostgres.NewRepository(db), auth.NewJWTTokenGenerator(cfg.Security), lg)
		tokens, err := svc.IssueTokens(cmd.Context(), userID)
		if err != nil {
			return err
		}

		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(tokens)
	},
}
