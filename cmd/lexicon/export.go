package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/heartmarshall/lexicon-backend/internal/app"
	"github.com/heartmarshall/lexicon-backend/internal/config"
	"github.com/heartmarshall/lexicon-backend/internal/importer"
)

func newExportCmd() *cobra.Command {
	var (
		profileName string
		profileFile string
		output      string
	)

	cmd := &cobra.Command{
		Use:   "export <language-code>",
		Short: "Export the lexemes of a language as CSV",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withContainer(cmd.Context(), func(ctx context.Context, c *app.Container, cfg *config.Config, log *slog.Logger) error {
				profile, err := exportProfile(cfg.Importer.ProfileDir, profileName, profileFile)
				if err != nil {
					return err
				}

				lang, err := c.Languages.GetLanguageByCode(ctx, args[0])
				if err != nil {
					return err
				}

				var w io.Writer = cmd.OutOrStdout()
				if output != "" && output != "-" {
					f, err := os.Create(output)
					if err != nil {
						return fmt.Errorf("create %s: %w", output, err)
					}
					defer f.Close()
					w = f
				}

				res, err := c.Lexicon.ExportCSV(ctx, lang.ID, profile, w)
				if err != nil {
					return err
				}
				log.Info("export finished",
					slog.String("language", lang.Code),
					slog.Int("rows", res.Rows),
					slog.Int("dropped_variants", res.DroppedVariants),
					slog.Int("issues", len(res.Issues)),
				)
				return nil
			})
		},
	}

	cmd.Flags().StringVarP(&profileName, "profile", "p", "", "profile name from the profile directory (default: built-in)")
	cmd.Flags().StringVar(&profileFile, "profile-file", "", "path to a YAML profile; overrides --profile")
	cmd.Flags().StringVarP(&output, "output", "o", "", "output file (default: stdout)")

	return cmd
}

func exportProfile(dir, name, file string) (*importer.Profile, error) {
	if file != "" {
		return importer.LoadProfile(file)
	}
	return importer.ResolveProfile(dir, name)
}
