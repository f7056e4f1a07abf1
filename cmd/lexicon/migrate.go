package main

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"text/tabwriter"

	"github.com/jackc/pgx/v5/stdlib"
	"github.com/spf13/cobra"

	"github.com/heartmarshall/lexicon-backend/internal/app"
	"github.com/heartmarshall/lexicon-backend/internal/config"
	"github.com/heartmarshall/lexicon-backend/migrations"
)

func newMigrateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Manage the database schema",
	}

	cmd.AddCommand(
		&cobra.Command{
			Use:   "up",
			Short: "Apply all pending migrations",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, _ []string) error {
				return withDB(cmd.Context(), func(ctx context.Context, db *sql.DB, log *slog.Logger) error {
					n, err := migrations.Up(ctx, db)
					if err != nil {
						return err
					}
					log.Info("migrations applied", slog.Int("count", n))
					return nil
				})
			},
		},
		&cobra.Command{
			Use:   "down",
			Short: "Roll back the most recent migration",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, _ []string) error {
				return withDB(cmd.Context(), func(ctx context.Context, db *sql.DB, log *slog.Logger) error {
					if err := migrations.Down(ctx, db); err != nil {
						return err
					}
					log.Info("migration rolled back")
					return nil
				})
			},
		},
		&cobra.Command{
			Use:   "status",
			Short: "List migrations and whether they are applied",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, _ []string) error {
				return withDB(cmd.Context(), func(ctx context.Context, db *sql.DB, _ *slog.Logger) error {
					statuses, err := migrations.Status(ctx, db)
					if err != nil {
						return err
					}
					tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
					fmt.Fprintln(tw, "VERSION\tSTATE\tSOURCE")
					for _, s := range statuses {
						state := "pending"
						if s.Applied {
							state = "applied"
						}
						fmt.Fprintf(tw, "%d\t%s\t%s\n", s.Version, state, s.Source)
					}
					return tw.Flush()
				})
			},
		},
	)
	return cmd
}

// withDB opens a database/sql handle over a pgx pool; goose needs *sql.DB.
func withDB(ctx context.Context, fn func(ctx context.Context, db *sql.DB, log *slog.Logger) error) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	logger := app.NewLogger(cfg.Log)

	c, err := app.Open(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer c.Close()

	db := stdlib.OpenDBFromPool(c.Pool)
	defer db.Close()

	return fn(ctx, db, logger)
}
