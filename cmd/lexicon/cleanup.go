package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/spf13/cobra"

	"github.com/heartmarshall/lexicon-backend/internal/app"
	"github.com/heartmarshall/lexicon-backend/internal/config"
)

func newCleanupCmd() *cobra.Command {
	var olderThanDays int

	cmd := &cobra.Command{
		Use:   "cleanup",
		Short: "Permanently remove soft-deleted lexemes",
		Long: `Permanently remove lexemes that were soft-deleted longer ago than the
retention period. Variants and sememes are removed with them; revisions are kept.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if olderThanDays < 0 {
				return errors.New("--older-than-days must not be negative")
			}
			return withContainer(cmd.Context(), func(ctx context.Context, c *app.Container, cfg *config.Config, log *slog.Logger) error {
				var threshold time.Time
				if olderThanDays > 0 {
					threshold = time.Now().AddDate(0, 0, -olderThanDays)
				}
				n, err := c.Lexicon.PurgeDeleted(ctx, threshold)
				if err != nil {
					return err
				}
				days := olderThanDays
				if days == 0 {
					days = cfg.Lexicon.PurgeRetentionDays
				}
				log.Info("cleanup finished", slog.Int64("purged", n), slog.Int("older_than_days", days))
				fmt.Fprintf(cmd.OutOrStdout(), "purged %d lexemes deleted more than %d days ago\n", n, days)
				return nil
			})
		},
	}

	cmd.Flags().IntVar(&olderThanDays, "older-than-days", 0, "retention in days (default from config)")

	return cmd
}
