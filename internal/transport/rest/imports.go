package rest

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"

	"github.com/google/uuid"

	"github.com/heartmarshall/lexicon-backend/internal/config"
	"github.com/heartmarshall/lexicon-backend/internal/domain"
	"github.com/heartmarshall/lexicon-backend/internal/importer"
	"github.com/heartmarshall/lexicon-backend/internal/service/imports"
	"github.com/heartmarshall/lexicon-backend/internal/service/lexicon"
)

// Multipart parts above this size spill to temporary files.
const multipartMemory = 8 << 20

type importsService interface {
	Import(ctx context.Context, src io.Reader, input imports.ImportInput) (*imports.ImportResult, error)
	GetRun(ctx context.Context, id uuid.UUID) (*domain.ImportRun, error)
	ListRuns(ctx context.Context, limit, offset int) ([]domain.ImportRun, int, error)
}

type exporter interface {
	ExportCSV(ctx context.Context, languageID uuid.UUID, profile *importer.Profile, w io.Writer) (*lexicon.ExportResult, error)
}

// ImportHandler serves CSV import and export.
type ImportHandler struct {
	svc      importsService
	exporter exporter
	cfg      config.ImporterConfig
	log      *slog.Logger
}

// NewImportHandler creates an ImportHandler.
func NewImportHandler(svc importsService, exp exporter, cfg config.ImporterConfig, logger *slog.Logger) *ImportHandler {
	return &ImportHandler{svc: svc, exporter: exp, cfg: cfg, log: logger.With("handler", "import")}
}

type importResponse struct {
	Run    importRunResponse `json:"run"`
	Report *importer.Report  `json:"report"`
	Error  string            `json:"error,omitempty"`
}

// Import handles POST /imports. The body is multipart/form-data with a
// "file" part and the run options as form fields.
func (h *ImportHandler) Import(w http.ResponseWriter, r *http.Request) {
	if h.cfg.MaxUploadBytes > 0 {
		if r.ContentLength > h.cfg.MaxUploadBytes {
			writeError(w, http.StatusRequestEntityTooLarge, "upload too large")
			return
		}
		r.Body = http.MaxBytesReader(w, r.Body, h.cfg.MaxUploadBytes)
	}
	if err := r.ParseMultipartForm(multipartMemory); err != nil {
		var mbe *http.MaxBytesError
		if errors.As(err, &mbe) {
			writeError(w, http.StatusRequestEntityTooLarge, "upload too large")
			return
		}
		handleError(h.log, w, r, domain.NewValidationError("body", "invalid multipart form"))
		return
	}
	defer r.MultipartForm.RemoveAll() //nolint:errcheck

	file, header, err := r.FormFile("file")
	if err != nil {
		handleError(h.log, w, r, domain.NewValidationError("file", "required"))
		return
	}
	defer file.Close()

	input, err := importInputFromForm(r)
	if err != nil {
		handleError(h.log, w, r, err)
		return
	}
	input.FileName = header.Filename

	result, err := h.svc.Import(r.Context(), file, input)
	if result == nil {
		handleError(h.log, w, r, err)
		return
	}

	out := importResponse{Run: toImportRun(*result.Run), Report: result.Report}
	out.Run.Report = nil
	if err != nil {
		h.log.WarnContext(r.Context(), "import run failed",
			slog.String("run_id", result.Run.ID.String()),
			slog.String("error", err.Error()),
		)
		out.Error = err.Error()
	}
	writeJSON(w, http.StatusOK, out)
}

func importInputFromForm(r *http.Request) (imports.ImportInput, error) {
	q := &queryParams{values: r.MultipartForm.Value}
	input := imports.ImportInput{
		SkipCount:     q.intVal("skip", 0),
		BatchSize:     q.intVal("batch_size", 0),
		MaxErrors:     q.intVal("max_errors", 0),
		ValidateFirst: q.boolVal("validate_first"),
		StopOnError:   q.boolVal("stop_on_error"),
		DryRun:        q.boolVal("dry_run"),
	}
	if id := q.optUUID("language_id"); id != nil {
		input.LanguageID = *id
	}
	if code := q.optString("language_code"); code != nil {
		input.LanguageCode = *code
	}
	if name := q.optString("profile"); name != nil {
		input.ProfileName = *name
	}
	if dup := q.optString("on_duplicate"); dup != nil {
		input.OnDuplicate = importer.DuplicatePolicy(strings.ToLower(*dup))
	}
	return input, q.err()
}

// GetRun handles GET /imports/{id}.
func (h *ImportHandler) GetRun(w http.ResponseWriter, r *http.Request) {
	id, err := pathUUID(r, "id")
	if err != nil {
		handleError(h.log, w, r, err)
		return
	}
	run, err := h.svc.GetRun(r.Context(), id)
	if err != nil {
		handleError(h.log, w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toImportRun(*run))
}

// ListRuns handles GET /imports, newest first.
func (h *ImportHandler) ListRuns(w http.ResponseWriter, r *http.Request) {
	q := newQueryParams(r)
	limit := q.intVal("limit", 0)
	offset := q.intVal("offset", 0)
	if err := q.err(); err != nil {
		handleError(h.log, w, r, err)
		return
	}
	runs, total, err := h.svc.ListRuns(r.Context(), limit, offset)
	if err != nil {
		handleError(h.log, w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, listResponse[importRunResponse]{
		Items:  mapSlice(runs, toImportRunSummary),
		Total:  total,
		Limit:  limit,
		Offset: offset,
	})
}

// Export handles GET /languages/{id}/export. The CSV is streamed, so errors
// after the first row can only be logged.
func (h *ImportHandler) Export(w http.ResponseWriter, r *http.Request) {
	id, err := pathUUID(r, "id")
	if err != nil {
		handleError(h.log, w, r, err)
		return
	}
	profile, err := importer.ResolveProfile(h.cfg.ProfileDir, r.URL.Query().Get("profile"))
	if err != nil {
		handleError(h.log, w, r, err)
		return
	}

	sw := &lazyCSVWriter{w: w, filename: fmt.Sprintf("lexemes-%s.csv", id)}
	res, err := h.exporter.ExportCSV(r.Context(), id, profile, sw)
	if err != nil {
		if !sw.started {
			handleError(h.log, w, r, err)
			return
		}
		h.log.ErrorContext(r.Context(), "export aborted",
			slog.String("language_id", id.String()),
			slog.String("error", err.Error()),
		)
		return
	}
	sw.start()
	h.log.InfoContext(r.Context(), "export finished",
		slog.String("language_id", id.String()),
		slog.Int("rows", res.Rows),
		slog.Int("dropped_variants", res.DroppedVariants),
		slog.Int("issues", len(res.Issues)),
	)
}

// lazyCSVWriter sends CSV headers on the first write so that failures before
// any output still get a JSON error response.
type lazyCSVWriter struct {
	w        http.ResponseWriter
	filename string
	started  bool
}

func (l *lazyCSVWriter) start() {
	if l.started {
		return
	}
	l.started = true
	l.w.Header().Set("Content-Type", "text/csv; charset=utf-8")
	l.w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", l.filename))
	l.w.WriteHeader(http.StatusOK)
}

func (l *lazyCSVWriter) Write(p []byte) (int, error) {
	l.start()
	return l.w.Write(p)
}
