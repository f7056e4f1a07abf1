package main

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/heartmarshall/lexicon-backend/internal/app"
	"github.com/heartmarshall/lexicon-backend/internal/config"
	"github.com/heartmarshall/lexicon-backend/internal/domain"
	"github.com/heartmarshall/lexicon-backend/internal/importer"
	"github.com/heartmarshall/lexicon-backend/internal/service/imports"
)

type importFlags struct {
	language      string
	profile       string
	profileFile   string
	skip          int
	batchSize     int
	maxErrors     int
	dryRun        bool
	validateFirst bool
	stopOnError   bool
	onDuplicate   string
	jsonOutput    bool
}

func newImportCmd() *cobra.Command {
	var f importFlags

	cmd := &cobra.Command{
		Use:   "import <file.csv>",
		Short: "Import lexemes from a CSV file",
		Long: `Import lexemes from a CSV file into one language.

Each row becomes a lexeme with its variants and sememes. Rows with errors are
reported and skipped. Use --skip with the report's last committed row to
resume an interrupted import. The command exits with status 1 when any row
failed.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			input, err := f.input(args[0])
			if err != nil {
				return err
			}
			return withContainer(cmd.Context(), func(ctx context.Context, c *app.Container, _ *config.Config, log *slog.Logger) error {
				return runImport(ctx, c.Imports, args[0], input, f.jsonOutput, cmd.OutOrStdout(), log)
			})
		},
	}

	fl := cmd.Flags()
	fl.StringVarP(&f.language, "language", "l", "", "language code (required)")
	fl.StringVarP(&f.profile, "profile", "p", "", "profile name from the profile directory (default: built-in)")
	fl.StringVar(&f.profileFile, "profile-file", "", "path to a YAML profile; overrides --profile")
	fl.IntVar(&f.skip, "skip", 0, "skip the first N data rows")
	fl.IntVar(&f.batchSize, "batch-size", 0, "rows per transaction (default from config)")
	fl.IntVar(&f.maxErrors, "max-errors", 0, "stop after N errors (default from config)")
	fl.BoolVar(&f.dryRun, "dry-run", false, "validate and resolve without writing")
	fl.BoolVar(&f.validateFirst, "validate-first", false, "validate the whole file before writing anything")
	fl.BoolVar(&f.stopOnError, "stop-on-error", false, "stop at the first failed row")
	fl.StringVar(&f.onDuplicate, "on-duplicate", string(importer.OnDuplicateSkip), "what to do when the main lemma already exists: skip or add")
	fl.BoolVar(&f.jsonOutput, "json", false, "print the report as JSON")
	_ = cmd.MarkFlagRequired("language")

	return cmd
}

func (f *importFlags) input(path string) (imports.ImportInput, error) {
	input := imports.ImportInput{
		LanguageCode:  f.language,
		FileName:      filepath.Base(path),
		ProfileName:   f.profile,
		SkipCount:     f.skip,
		BatchSize:     f.batchSize,
		MaxErrors:     f.maxErrors,
		ValidateFirst: f.validateFirst,
		StopOnError:   f.stopOnError,
		DryRun:        f.dryRun,
		OnDuplicate:   importer.DuplicatePolicy(strings.ToLower(f.onDuplicate)),
	}
	if f.profileFile != "" {
		p, err := importer.LoadProfile(f.profileFile)
		if err != nil {
			return input, err
		}
		input.Profile = p
		input.ProfileName = ""
	}
	return input, nil
}

type importRunner interface {
	Import(ctx context.Context, src io.Reader, input imports.ImportInput) (*imports.ImportResult, error)
}

func runImport(ctx context.Context, svc importRunner, path string, input imports.ImportInput, asJSON bool, out io.Writer, log *slog.Logger) error {
	file, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("open %s: %w", path, err)
	}
	defer file.Close()

	result, runErr := svc.Import(ctx, bufio.NewReader(file), input)
	if result == nil {
		return runErr
	}

	if asJSON {
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		if err := enc.Encode(result.Report); err != nil {
			return err
		}
	} else {
		printReport(out, result)
	}

	if runErr != nil {
		return runErr
	}
	if result.Report.HasErrors() {
		log.Warn("import finished with errors",
			slog.String("run_id", result.Run.ID.String()),
			slog.Int("failed", result.Report.Failed),
		)
		return errReported
	}
	return nil
}

func printReport(w io.Writer, res *imports.ImportResult) {
	r := res.Report
	mode := ""
	if r.DryRun {
		mode = " (dry run)"
	}
	fmt.Fprintf(w, "Import %s: %s%s\n", res.Run.ID, res.Run.Status, mode)
	fmt.Fprintf(w, "  read:      %d\n", r.Read)
	fmt.Fprintf(w, "  imported:  %d\n", r.Imported)
	fmt.Fprintf(w, "  skipped:   %d\n", r.Skipped)
	fmt.Fprintf(w, "  failed:    %d\n", r.Failed)
	if !r.DryRun {
		fmt.Fprintf(w, "  last committed row: %d\n", r.LastCommittedRow)
	}
	fmt.Fprintf(w, "  duration:  %dms\n", r.DurationMS)
	if r.Aborted {
		fmt.Fprintln(w, "  aborted before the end of the file")
	}
	if len(r.Messages) == 0 {
		return
	}
	fmt.Fprintf(w, "\n%d errors, %d warnings\n",
		r.Count(domain.MessageLevelError), r.Count(domain.MessageLevelWarning))
	for _, m := range r.Messages {
		fmt.Fprintln(w, "  "+m.String())
	}
}
