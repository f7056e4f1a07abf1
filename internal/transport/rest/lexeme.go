package rest

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/heartmarshall/lexicon-backend/internal/domain"
	"github.com/heartmarshall/lexicon-backend/internal/service/lexicon"
	"github.com/heartmarshall/lexicon-backend/internal/transport/dataloader"
)

type lexiconService interface {
	CreateLexeme(ctx context.Context, input lexicon.CreateLexemeInput) (*domain.LexemeDetail, error)
	GetLexeme(ctx context.Context, id uuid.UUID) (*domain.LexemeDetail, error)
	FindLexemes(ctx context.Context, filter domain.LexemeFilter) (*lexicon.FindResult, error)
	UpdateLexeme(ctx context.Context, id uuid.UUID, input lexicon.UpdateLexemeInput) (*domain.Lexeme, error)
	DeleteLexeme(ctx context.Context, id uuid.UUID) error
	RestoreLexeme(ctx context.Context, id uuid.UUID) (*domain.Lexeme, error)
	PurgeDeleted(ctx context.Context, threshold time.Time) (int64, error)

	AddVariant(ctx context.Context, lexemeID uuid.UUID, input lexicon.VariantInput) (*domain.Variant, error)
	UpdateVariant(ctx context.Context, id uuid.UUID, input lexicon.UpdateVariantInput) (*domain.Variant, error)
	DeleteVariant(ctx context.Context, id uuid.UUID) error
	SetMainVariant(ctx context.Context, id uuid.UUID) (*domain.Variant, error)

	AddSememe(ctx context.Context, lexemeID uuid.UUID, input lexicon.SememeInput) (*domain.Sememe, error)
	UpdateSememe(ctx context.Context, id uuid.UUID, input lexicon.UpdateSememeInput) (*domain.Sememe, error)
	DeleteSememe(ctx context.Context, id uuid.UUID) error
	ReorderSememes(ctx context.Context, lexemeID uuid.UUID, input lexicon.ReorderSememesInput) ([]domain.Sememe, error)
}

var errNoLoaders = errors.New("dataloaders missing from request context")

// LexemeHandler serves lexemes, variants and sememes.
type LexemeHandler struct {
	svc lexiconService
	log *slog.Logger
}

// NewLexemeHandler creates a LexemeHandler.
func NewLexemeHandler(svc lexiconService, logger *slog.Logger) *LexemeHandler {
	return &LexemeHandler{svc: svc, log: logger.With("handler", "lexeme")}
}

type variantRequest struct {
	OrthographyID uuid.UUID `json:"orthographyId"`
	Lemma         string    `json:"lemma"`
	Pronunciation *string   `json:"pronunciation"`
	IsMain        bool      `json:"isMain"`
}

func (v variantRequest) input() lexicon.VariantInput {
	return lexicon.VariantInput{
		OrthographyID: v.OrthographyID,
		Lemma:         v.Lemma,
		Pronunciation: v.Pronunciation,
		IsMain:        v.IsMain,
	}
}

type sememeRequest struct {
	Gloss              string      `json:"gloss"`
	Definition         *string     `json:"definition"`
	Example            *string     `json:"example"`
	ExampleTranslation *string     `json:"exampleTranslation"`
	DialectIDs         []uuid.UUID `json:"dialectIds"`
}

func (s sememeRequest) input() lexicon.SememeInput {
	return lexicon.SememeInput{
		Gloss:              s.Gloss,
		Definition:         s.Definition,
		Example:            s.Example,
		ExampleTranslation: s.ExampleTranslation,
		DialectIDs:         s.DialectIDs,
	}
}

type createLexemeRequest struct {
	LanguageID   uuid.UUID        `json:"languageId"`
	PartOfSpeech string           `json:"partOfSpeech"`
	Notes        *string          `json:"notes"`
	Tags         []string         `json:"tags"`
	Source       *string          `json:"source"`
	Variants     []variantRequest `json:"variants"`
	Sememes      []sememeRequest  `json:"sememes"`
}

type updateLexemeRequest struct {
	PartOfSpeech *string   `json:"partOfSpeech"`
	Notes        *string   `json:"notes"`
	Tags         *[]string `json:"tags"`
	Source       *string   `json:"source"`
}

type updateVariantRequest struct {
	OrthographyID *uuid.UUID `json:"orthographyId"`
	Lemma         *string    `json:"lemma"`
	Pronunciation *string    `json:"pronunciation"`
}

type updateSememeRequest struct {
	Gloss              *string      `json:"gloss"`
	Definition         *string      `json:"definition"`
	Example            *string      `json:"example"`
	ExampleTranslation *string      `json:"exampleTranslation"`
	DialectIDs         *[]uuid.UUID `json:"dialectIds"`
}

type reorderRequest struct {
	Items []struct {
		ID       uuid.UUID `json:"id"`
		Position int       `json:"position"`
	} `json:"items"`
}

// List handles GET /lexemes. Variants and sememes of the page are loaded
// in two batched queries.
func (h *LexemeHandler) List(w http.ResponseWriter, r *http.Request) {
	q := newQueryParams(r)
	filter := domain.LexemeFilter{
		LanguageID:     q.optUUID("language_id"),
		Search:         q.optString("q"),
		Tag:            q.optString("tag"),
		IncludeDeleted: q.boolVal("include_deleted"),
		Limit:          q.intVal("limit", 0),
		Offset:         q.intVal("offset", 0),
	}
	if pos := q.optString("pos"); pos != nil {
		p, ok := domain.ParsePartOfSpeech(*pos)
		if !ok {
			p = domain.PartOfSpeech(strings.ToUpper(*pos))
		}
		filter.PartOfSpeech = &p
	}
	if v := q.optString("sort"); v != nil {
		filter.SortBy = *v
	}
	if v := q.optString("order"); v != nil {
		filter.SortOrder = *v
	}
	if err := q.err(); err != nil {
		handleError(h.log, w, r, err)
		return
	}

	res, err := h.svc.FindLexemes(r.Context(), filter)
	if err != nil {
		handleError(h.log, w, r, err)
		return
	}

	loaders := dataloader.FromContext(r.Context())
	if loaders == nil {
		handleError(h.log, w, r, errNoLoaders)
		return
	}
	details, err := loaders.LoadDetails(r.Context(), res.Lexemes)
	if err != nil {
		handleError(h.log, w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, listResponse[lexemeDetailResponse]{
		Items:  mapSlice(details, toLexemeDetail),
		Total:  res.Total,
		Limit:  res.Limit,
		Offset: res.Offset,
	})
}

// Create handles POST /lexemes.
func (h *LexemeHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req createLexemeRequest
	if err := decodeJSON(w, r, &req); err != nil {
		handleError(h.log, w, r, err)
		return
	}
	input := lexicon.CreateLexemeInput{
		LanguageID:   req.LanguageID,
		PartOfSpeech: req.PartOfSpeech,
		Notes:        req.Notes,
		Tags:         req.Tags,
		Source:       req.Source,
		Variants:     mapSlice(req.Variants, variantRequest.input),
		Sememes:      mapSlice(req.Sememes, sememeRequest.input),
	}

	detail, err := h.svc.CreateLexeme(r.Context(), input)
	if err != nil {
		handleError(h.log, w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, toLexemeDetail(*detail))
}

// Get handles GET /lexemes/{id}.
func (h *LexemeHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, err := pathUUID(r, "id")
	if err != nil {
		handleError(h.log, w, r, err)
		return
	}
	detail, err := h.svc.GetLexeme(r.Context(), id)
	if err != nil {
		handleError(h.log, w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toLexemeDetail(*detail))
}

// Update handles PATCH /lexemes/{id}.
func (h *LexemeHandler) Update(w http.ResponseWriter, r *http.Request) {
	id, err := pathUUID(r, "id")
	if err != nil {
		handleError(h.log, w, r, err)
		return
	}
	var req updateLexemeRequest
	if err := decodeJSON(w, r, &req); err != nil {
		handleError(h.log, w, r, err)
		return
	}
	lex, err := h.svc.UpdateLexeme(r.Context(), id, lexicon.UpdateLexemeInput{
		PartOfSpeech: req.PartOfSpeech,
		Notes:        req.Notes,
		Tags:         req.Tags,
		Source:       req.Source,
	})
	if err != nil {
		handleError(h.log, w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toLexeme(*lex))
}

// Delete handles DELETE /lexemes/{id}. The lexeme is soft-deleted.
func (h *LexemeHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, err := pathUUID(r, "id")
	if err != nil {
		handleError(h.log, w, r, err)
		return
	}
	if err := h.svc.DeleteLexeme(r.Context(), id); err != nil {
		handleError(h.log, w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// Restore handles POST /lexemes/{id}/restore.
func (h *LexemeHandler) Restore(w http.ResponseWriter, r *http.Request) {
	id, err := pathUUID(r, "id")
	if err != nil {
		handleError(h.log, w, r, err)
		return
	}
	lex, err := h.svc.RestoreLexeme(r.Context(), id)
	if err != nil {
		handleError(h.log, w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toLexeme(*lex))
}

type purgeResponse struct {
	Purged int64 `json:"purged"`
}

// Purge handles POST /lexemes/purge. An optional older_than_days query value
// overrides the configured retention.
func (h *LexemeHandler) Purge(w http.ResponseWriter, r *http.Request) {
	q := newQueryParams(r)
	days := q.intVal("older_than_days", 0)
	if days < 0 {
		q.errs.Add("older_than_days", "must be >= 0")
	}
	if err := q.err(); err != nil {
		handleError(h.log, w, r, err)
		return
	}
	var threshold time.Time
	if days > 0 {
		threshold = time.Now().AddDate(0, 0, -days)
	}
	n, err := h.svc.PurgeDeleted(r.Context(), threshold)
	if err != nil {
		handleError(h.log, w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, purgeResponse{Purged: n})
}

// AddVariant handles POST /lexemes/{id}/variants.
func (h *LexemeHandler) AddVariant(w http.ResponseWriter, r *http.Request) {
	id, err := pathUUID(r, "id")
	if err != nil {
		handleError(h.log, w, r, err)
		return
	}
	var req variantRequest
	if err := decodeJSON(w, r, &req); err != nil {
		handleError(h.log, w, r, err)
		return
	}
	v, err := h.svc.AddVariant(r.Context(), id, req.input())
	if err != nil {
		handleError(h.log, w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, toVariant(*v))
}

// UpdateVariant handles PATCH /variants/{id}.
func (h *LexemeHandler) UpdateVariant(w http.ResponseWriter, r *http.Request) {
	id, err := pathUUID(r, "id")
	if err != nil {
		handleError(h.log, w, r, err)
		return
	}
	var req updateVariantRequest
	if err := decodeJSON(w, r, &req); err != nil {
		handleError(h.log, w, r, err)
		return
	}
	v, err := h.svc.UpdateVariant(r.Context(), id, lexicon.UpdateVariantInput{
		OrthographyID: req.OrthographyID,
		Lemma:         req.Lemma,
		Pronunciation: req.Pronunciation,
	})
	if err != nil {
		handleError(h.log, w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toVariant(*v))
}

// DeleteVariant handles DELETE /variants/{id}.
func (h *LexemeHandler) DeleteVariant(w http.ResponseWriter, r *http.Request) {
	id, err := pathUUID(r, "id")
	if err != nil {
		handleError(h.log, w, r, err)
		return
	}
	if err := h.svc.DeleteVariant(r.Context(), id); err != nil {
		handleError(h.log, w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// SetMainVariant handles POST /variants/{id}/main.
func (h *LexemeHandler) SetMainVariant(w http.ResponseWriter, r *http.Request) {
	id, err := pathUUID(r, "id")
	if err != nil {
		handleError(h.log, w, r, err)
		return
	}
	v, err := h.svc.SetMainVariant(r.Context(), id)
	if err != nil {
		handleError(h.log, w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toVariant(*v))
}

// AddSememe handles POST /lexemes/{id}/sememes.
func (h *LexemeHandler) AddSememe(w http.ResponseWriter, r *http.Request) {
	id, err := pathUUID(r, "id")
	if err != nil {
		handleError(h.log, w, r, err)
		return
	}
	var req sememeRequest
	if err := decodeJSON(w, r, &req); err != nil {
		handleError(h.log, w, r, err)
		return
	}
	s, err := h.svc.AddSememe(r.Context(), id, req.input())
	if err != nil {
		handleError(h.log, w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, toSememe(*s))
}

// UpdateSememe handles PATCH /sememes/{id}.
func (h *LexemeHandler) UpdateSememe(w http.ResponseWriter, r *http.Request) {
	id, err := pathUUID(r, "id")
	if err != nil {
		handleError(h.log, w, r, err)
		return
	}
	var req updateSememeRequest
	if err := decodeJSON(w, r, &req); err != nil {
		handleError(h.log, w, r, err)
		return
	}
	s, err := h.svc.UpdateSememe(r.Context(), id, lexicon.UpdateSememeInput{
		Gloss:              req.Gloss,
		Definition:         req.Definition,
		Example:            req.Example,
		ExampleTranslation: req.ExampleTranslation,
		DialectIDs:         req.DialectIDs,
	})
	if err != nil {
		handleError(h.log, w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toSememe(*s))
}

// DeleteSememe handles DELETE /sememes/{id}.
func (h *LexemeHandler) DeleteSememe(w http.ResponseWriter, r *http.Request) {
	id, err := pathUUID(r, "id")
	if err != nil {
		handleError(h.log, w, r, err)
		return
	}
	if err := h.svc.DeleteSememe(r.Context(), id); err != nil {
		handleError(h.log, w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// ReorderSememes handles PUT /lexemes/{id}/sememes/order.
func (h *LexemeHandler) ReorderSememes(w http.ResponseWriter, r *http.Request) {
	id, err := pathUUID(r, "id")
	if err != nil {
		handleError(h.log, w, r, err)
		return
	}
	var req reorderRequest
	if err := decodeJSON(w, r, &req); err != nil {
		handleError(h.log, w, r, err)
		return
	}
	items := make([]domain.ReorderItem, len(req.Items))
	for i, it := range req.Items {
		items[i] = domain.ReorderItem{ID: it.ID, Position: it.Position}
	}

	sememes, err := h.svc.ReorderSememes(r.Context(), id, lexicon.ReorderSememesInput{Items: items})
	if err != nil {
		handleError(h.log, w, r, err)
		return
	}
	out := mapSlice(sememes, toSememe)
	writeJSON(w, http.StatusOK, listResponse[sememeResponse]{Items: out, Total: len(out)})
}
