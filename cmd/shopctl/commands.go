package main

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/01moynul/tvshop-golang/internal/auth"
	"github.com/01moynul/tvshop-golang/internal/config"
	"github.com/01moynul/tvshop-golang/internal/database"
	"github.com/01moynul/tvshop-golang/internal/logging"
	"github.com/01moynul/tvshop-golang/internal/store"
	"github.com/01moynul/tvshop-golang/internal/worker"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
)

func migrateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Apply or roll back database migrations",
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "up",
		Short: "Apply all pending migrations",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withDB(cmd.Context(), func(db *sql.DB, _ zerolog.Logger) error {
				if err := database.MigrateUp(db); err != nil {
					return err
				}
				fmt.Fprintln(cmd.OutOrStdout(), "migrations applied")
				return nil
			})
		},
	})

	down := &cobra.Command{
		Use:   "down",
		Short: "Roll back the most recent migrations",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			steps, _ := cmd.Flags().GetInt("steps")
			if steps <= 0 {
				return errors.New("--steps must be positive")
			}
			return withDB(cmd.Context(), func(db *sql.DB, _ zerolog.Logger) error {
				if err := database.MigrateDown(db, steps); err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "rolled back %d migration(s)\n", steps)
				return nil
			})
		},
	}
	down.Flags().Int("steps", 1, "number of migrations to roll back")
	cmd.AddCommand(down)

	return cmd
}

func tokenCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "token",
		Short: "Issue a bearer token for local testing",
		Long: `Issue a signed JWT using JWT_SECRET from the environment.

Examples:
  shopctl token --user 42 --email jane@example.com
  shopctl token --user 1 --role admin --ttl 1h`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load()
			if err != nil {
				return err
			}
			if cfg.JWT.Secret == "" {
				return errors.New("JWT_SECRET is not set")
			}

			user, _ := cmd.Flags().GetString("user")
			email, _ := cmd.Flags().GetString("email")
			role, _ := cmd.Flags().GetString("role")
			ttl, _ := cmd.Flags().GetDuration("ttl")
			if role != auth.RoleCustomer && role != auth.RoleAdmin {
				return fmt.Errorf("unknown role %q", role)
			}

			tok, err := auth.NewManager(cfg.JWT.Secret, ttl).GenerateToken(auth.Identity{
				UserID: user,
				Email:  email,
				Role:   role,
			})
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), tok)
			return nil
		},
	}

	cmd.Flags().StringP("user", "u", "", "user id placed in the sub claim")
	cmd.Flags().StringP("email", "e", "", "email claim")
	cmd.Flags().StringP("role", "r", auth.RoleCustomer, "role claim (customer, admin)")
	cmd.Flags().Duration("ttl", 24*time.Hour, "token lifetime")
	_ = cmd.MarkFlagRequired("user")

	return cmd
}

func sweepCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "sweep",
		Short: "Cancel Pending orders older than PENDING_ORDER_TTL once",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withDB(cmd.Context(), func(db *sql.DB, logger zerolog.Logger) error {
				cfg, err := config.Load()
				if err != nil {
					return err
				}
				ttl, _ := cmd.Flags().GetDuration("older-than")
				if ttl <= 0 {
					ttl = cfg.Worker.PendingOrderTTL
				}
				s := worker.NewSweeper(store.New(db), ttl, cfg.Worker.SweepInterval, logger)
				n, err := s.SweepOnce(cmd.Context())
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "cancelled %d order(s)\n", n)
				return nil
			})
		},
	}
	cmd.Flags().Duration("older-than", 0, "override PENDING_ORDER_TTL")
	return cmd
}

func withDB(ctx context.Context, fn func(db *sql.DB, logger zerolog.Logger) error) error {
	if ctx == nil {
		ctx = context.Background()
	}
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	logger := logging.New(cfg.Log.Level, true)
	db, err := database.OpenDB(ctx, cfg.DB, logger)
	if err != nil {
		return err
	}
	defer db.Close()
	return fn(db, logger)
}
