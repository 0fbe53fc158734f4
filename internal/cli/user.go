package cli

import (
	"encoding/json"
	"fmt"

	"bookofh-service/internal/config"
	"bookofh-service/internal/infra/postgres"
	"github.com/jackc/pgx/v4/pgxpool"
	"github.com/spf13/cobra"
)

// NewUserCmd groups user directory tooling.
func NewUserCmd(configPath *string) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "user",
		Short: "Manage users in the Postgres directory",
	}
	cmd.AddCommand(newUserCreateCmd(configPath))
	return cmd
}

func newUserCreateCmd(configPath *string) *cobra.Command {
	var email string
	cmd := &cobra.Command{
		Use:   "create",
		Short: "Create a user and print it as JSON",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(*configPath)
			if err != nil {
				return err
			}
			if cfg.Postgres.URL == "" {
				return fmt.Errorf("postgres url not configured")
			}
			ctx := cmd.Context()
			if err := runMigrations(ctx, cfg, newLogger(cfg)); err != nil {
				return err
			}
			pool, err := pgxpool.Connect(ctx, cfg.Postgres.URL)
			if err != nil {
				return err
			}
			defer pool.Close()

			u, err := postgres.NewUserDirectory(pool).Create(ctx, email)
			if err != nil {
				return err
			}
			return json.NewEncoder(cmd.OutOrStdout()).Encode(u)
		},
	}
	cmd.Flags().StringVar(&email, "email", "", "email of the new user")
	_ = cmd.MarkFlagRequired("email")
	return cmd
}
