// Package imports runs CSV imports as recorded import runs.
package imports

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"path/filepath"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"

	"github.com/heartmarshall/lexicon-backend/internal/config"
	"github.com/heartmarshall/lexicon-backend/internal/domain"
	"github.com/heartmarshall/lexicon-backend/internal/importer"
	"github.com/heartmarshall/lexicon-backend/internal/metrics"
	"github.com/heartmarshall/lexicon-backend/pkg/ctxutil"
)

type runRepo interface {
	Create(ctx context.Context, run domain.ImportRun) (*domain.ImportRun, error)
	Finish(ctx context.Context, id uuid.UUID, status domain.ImportStatus, report json.RawMessage, finishedAt time.Time) (*domain.ImportRun, error)
	GetByID(ctx context.Context, id uuid.UUID) (*domain.ImportRun, error)
	List(ctx context.Context, limit, offset int) ([]domain.ImportRun, int, error)
}

type languageRepo interface {
	GetByID(ctx context.Context, id uuid.UUID) (*domain.Language, error)
	GetByCode(ctx context.Context, code string) (*domain.Language, error)
}

type runner interface {
	Run(ctx context.Context, src io.Reader, opts importer.Options) (*importer.Report, error)
}

// Service records import runs around the importer.
type Service struct {
	log       *slog.Logger
	runs      runRepo
	languages languageRepo
	importer  runner
	cfg       config.ImporterConfig
	clock     func() time.Time
}

// NewService creates a new imports service.
func NewService(logger *slog.Logger, runs runRepo, languages languageRepo, imp runner, cfg config.ImporterConfig) *Service {
	return &Service{
		log:       logger.With("service", "imports"),
		runs:      runs,
		languages: languages,
		importer:  imp,
		cfg:       cfg,
		clock:     func() time.Time { return time.Now().UTC() },
	}
}

// ImportInput describes one import request. The language is given either by
// ID or by code; the profile either loaded or by name.
type ImportInput struct {
	LanguageID   uuid.UUID
	LanguageCode string
	FileName     string

	Profile     *importer.Profile
	ProfileName string

	SkipCount     int
	BatchSize     int
	MaxErrors     int
	ValidateFirst bool
	StopOnError   bool
	DryRun        bool
	OnDuplicate   importer.DuplicatePolicy
}

// ImportResult is the finished run and its report.
type ImportResult struct {
	Run    *domain.ImportRun
	Report *importer.Report
}

// Import runs src through the importer and records the outcome. The run is
// marked FAILED when the importer returns an error or aborts, COMPLETED
// otherwise, even when individual rows failed.
func (s *Service) Import(ctx context.Context, src io.Reader, input ImportInput) (*ImportResult, error) {
	lang, err := s.resolveLanguage(ctx, input)
	if err != nil {
		return nil, err
	}

	profile := input.Profile
	if profile == nil {
		profile, err = importer.ResolveProfile(s.cfg.ProfileDir, input.ProfileName)
		if err != nil {
			if errors.Is(err, domain.ErrValidation) {
				return nil, err
			}
			return nil, domain.NewValidationError("profile", err.Error())
		}
	}

	opts := importer.Options{
		LanguageID:    lang.ID,
		Profile:       profile,
		BatchSize:     input.BatchSize,
		SkipCount:     input.SkipCount,
		MaxErrors:     input.MaxErrors,
		ValidateFirst: input.ValidateFirst,
		StopOnError:   input.StopOnError,
		DryRun:        input.DryRun,
		OnDuplicate:   input.OnDuplicate,
	}
	if opts.BatchSize == 0 {
		opts.BatchSize = s.cfg.BatchSize
	}
	if opts.MaxErrors == 0 {
		opts.MaxErrors = s.cfg.MaxErrors
	}
	if err := opts.Validate(); err != nil {
		return nil, err
	}

	run, err := s.runs.Create(ctx, domain.ImportRun{
		ID:         uuid.New(),
		UserID:     ctxutil.UserIDPtrFromCtx(ctx),
		LanguageID: lang.ID,
		FileName:   cleanFileName(input.FileName),
		Profile:    profile.Name,
		DryRun:     input.DryRun,
		Status:     domain.ImportStatusRunning,
		StartedAt:  s.clock(),
	})
	if err != nil {
		return nil, fmt.Errorf("imports.Import create run: %w", err)
	}

	log := s.log.With(slog.String("import_id", run.ID.String()))
	log.InfoContext(ctx, "import started",
		slog.String("language", lang.Code),
		slog.String("profile", profile.Name),
		slog.String("file", run.FileName),
		slog.Bool("dry_run", input.DryRun),
	)

	report, runErr := s.importer.Run(ctx, src, opts)

	status := domain.ImportStatusCompleted
	if runErr != nil || report.Aborted {
		status = domain.ImportStatusFailed
	}

	doc, err := json.Marshal(reportDocument(report, runErr))
	if err != nil {
		return nil, fmt.Errorf("imports.Import encode report: %w", err)
	}

	// The run record is closed even when the request context is gone.
	finished, err := s.runs.Finish(context.WithoutCancel(ctx), run.ID, status, doc, s.clock())
	if err != nil {
		return nil, errors.Join(fmt.Errorf("imports.Import finish run: %w", err), runErr)
	}

	metrics.ImportRun(string(status), input.DryRun, report.Duration)

	if runErr != nil {
		log.ErrorContext(ctx, "import failed", slog.String("error", runErr.Error()))
	}

	return &ImportResult{Run: finished, Report: report}, runErr
}

// storedReport is the JSON document kept on the run.
type storedReport struct {
	*importer.Report
	Error string `json:"error,omitempty"`
}

func reportDocument(rep *importer.Report, runErr error) storedReport {
	doc := storedReport{Report: rep}
	if runErr != nil {
		doc.Error = runErr.Error()
	}
	return doc
}

func (s *Service) resolveLanguage(ctx context.Context, input ImportInput) (*domain.Language, error) {
	switch {
	case input.LanguageID != uuid.Nil:
		lang, err := s.languages.GetByID(ctx, input.LanguageID)
		if err != nil {
			return nil, fmt.Errorf("imports.Import: %w", err)
		}
		return lang, nil
	case strings.TrimSpace(input.LanguageCode) != "":
		lang, err := s.languages.GetByCode(ctx, strings.ToLower(strings.TrimSpace(input.LanguageCode)))
		if err != nil {
			return nil, fmt.Errorf("imports.Import: %w", err)
		}
		return lang, nil
	}
	return nil, domain.NewValidationError("language_id", "required")
}

// GetRun returns one import run.
func (s *Service) GetRun(ctx context.Context, id uuid.UUID) (*domain.ImportRun, error) {
	run, err := s.runs.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("imports.GetRun: %w", err)
	}
	return run, nil
}

// ListRuns returns import runs newest first.
func (s *Service) ListRuns(ctx context.Context, limit, offset int) ([]domain.ImportRun, int, error) {
	if limit <= 0 {
		limit = 50
	}
	if limit > 200 {
		limit = 200
	}
	if offset < 0 {
		return nil, 0, domain.NewValidationError("offset", "must be >= 0")
	}
	runs, total, err := s.runs.List(ctx, limit, offset)
	if err != nil {
		return nil, 0, fmt.Errorf("imports.ListRuns: %w", err)
	}
	return runs, total, nil
}

const maxFileNameRunes = 255

func cleanFileName(name string) string {
	name = filepath.Base(strings.TrimSpace(name))
	if name == "." || name == string(filepath.Separator) {
		return ""
	}
	name = strings.ToValidUTF8(name, "")
	if utf8.RuneCountInString(name) > maxFileNameRunes {
		name = string([]rune(name)[:maxFileNameRunes])
	}
	return name
}
