package rest

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/google/uuid"

	"github.com/heartmarshall/lexicon-backend/internal/domain"
	"github.com/heartmarshall/lexicon-backend/internal/service/language"
)

type languageService interface {
	CreateLanguage(ctx context.Context, input language.CreateLanguageInput) (*domain.Language, error)
	GetLanguage(ctx context.Context, id uuid.UUID) (*domain.Language, error)
	ListLanguages(ctx context.Context) ([]domain.Language, error)
	UpdateLanguage(ctx context.Context, id uuid.UUID, input language.UpdateLanguageInput) (*domain.Language, error)
	DeleteLanguage(ctx context.Context, id uuid.UUID) error

	CreateOrthography(ctx context.Context, languageID uuid.UUID, input language.CreateOrthographyInput) (*domain.Orthography, error)
	ListOrthographies(ctx context.Context, languageID uuid.UUID) ([]domain.Orthography, error)
	UpdateOrthography(ctx context.Context, id uuid.UUID, input language.UpdateOrthographyInput) (*domain.Orthography, error)
	DeleteOrthography(ctx context.Context, id uuid.UUID) error

	CreateDialect(ctx context.Context, languageID uuid.UUID, input language.CreateDialectInput) (*domain.Dialect, error)
	ListDialects(ctx context.Context, languageID uuid.UUID) ([]domain.Dialect, error)
	DeleteDialect(ctx context.Context, id uuid.UUID) error
}

// LanguageHandler serves languages, orthographies and dialects.
type LanguageHandler struct {
	svc languageService
	log *slog.Logger
}

// NewLanguageHandler creates a LanguageHandler.
func NewLanguageHandler(svc languageService, logger *slog.Logger) *LanguageHandler {
	return &LanguageHandler{svc: svc, log: logger.With("handler", "language")}
}

type createLanguageRequest struct {
	Code        string  `json:"code"`
	Name        string  `json:"name"`
	Description *string `json:"description"`
}

type updateLanguageRequest struct {
	Name        *string `json:"name"`
	Description *string `json:"description"`
}

type createOrthographyRequest struct {
	Name         string  `json:"name"`
	Abbreviation string  `json:"abbreviation"`
	Description  *string `json:"description"`
	IsDefault    bool    `json:"isDefault"`
}

type updateOrthographyRequest struct {
	Name         *string `json:"name"`
	Abbreviation *string `json:"abbreviation"`
	Description  *string `json:"description"`
	IsDefault    *bool   `json:"isDefault"`
}

type createDialectRequest struct {
	Name         string  `json:"name"`
	Abbreviation *string `json:"abbreviation"`
}

// List handles GET /languages.
func (h *LanguageHandler) List(w http.ResponseWriter, r *http.Request) {
	langs, err := h.svc.ListLanguages(r.Context())
	if err != nil {
		handleError(h.log, w, r, err)
		return
	}
	items := mapSlice(langs, toLanguage)
	writeJSON(w, http.StatusOK, listResponse[languageResponse]{Items: items, Total: len(items)})
}

// Create handles POST /languages.
func (h *LanguageHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req createLanguageRequest
	if err := decodeJSON(w, r, &req); err != nil {
		handleError(h.log, w, r, err)
		return
	}
	lang, err := h.svc.CreateLanguage(r.Context(), language.CreateLanguageInput{
		Code:        req.Code,
		Name:        req.Name,
		Description: req.Description,
	})
	if err != nil {
		handleError(h.log, w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, toLanguage(*lang))
}

// Get handles GET /languages/{id}.
func (h *LanguageHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, err := pathUUID(r, "id")
	if err != nil {
		handleError(h.log, w, r, err)
		return
	}
	lang, err := h.svc.GetLanguage(r.Context(), id)
	if err != nil {
		handleError(h.log, w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toLanguage(*lang))
}

// Update handles PATCH /languages/{id}.
func (h *LanguageHandler) Update(w http.ResponseWriter, r *http.Request) {
	id, err := pathUUID(r, "id")
	if err != nil {
		handleError(h.log, w, r, err)
		return
	}
	var req updateLanguageRequest
	if err := decodeJSON(w, r, &req); err != nil {
		handleError(h.log, w, r, err)
		return
	}
	lang, err := h.svc.UpdateLanguage(r.Context(), id, language.UpdateLanguageInput{
		Name:        req.Name,
		Description: req.Description,
	})
	if err != nil {
		handleError(h.log, w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toLanguage(*lang))
}

// Delete handles DELETE /languages/{id}.
func (h *LanguageHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, err := pathUUID(r, "id")
	if err != nil {
		handleError(h.log, w, r, err)
		return
	}
	if err := h.svc.DeleteLanguage(r.Context(), id); err != nil {
		handleError(h.log, w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// ListOrthographies handles GET /languages/{id}/orthographies.
func (h *LanguageHandler) ListOrthographies(w http.ResponseWriter, r *http.Request) {
	id, err := pathUUID(r, "id")
	if err != nil {
		handleError(h.log, w, r, err)
		return
	}
	orths, err := h.svc.ListOrthographies(r.Context(), id)
	if err != nil {
		handleError(h.log, w, r, err)
		return
	}
	items := mapSlice(orths, toOrthography)
	writeJSON(w, http.StatusOK, listResponse[orthographyResponse]{Items: items, Total: len(items)})
}

// CreateOrthography handles POST /languages/{id}/orthographies.
func (h *LanguageHandler) CreateOrthography(w http.ResponseWriter, r *http.Request) {
	id, err := pathUUID(r, "id")
	if err != nil {
		handleError(h.log, w, r, err)
		return
	}
	var req createOrthographyRequest
	if err := decodeJSON(w, r, &req); err != nil {
		handleError(h.log, w, r, err)
		return
	}
	orth, err := h.svc.CreateOrthography(r.Context(), id, language.CreateOrthographyInput{
		Name:         req.Name,
		Abbreviation: req.Abbreviation,
		Description:  req.Description,
		IsDefault:    req.IsDefault,
	})
	if err != nil {
		handleError(h.log, w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, toOrthography(*orth))
}

// UpdateOrthography handles PATCH /orthographies/{id}.
func (h *LanguageHandler) UpdateOrthography(w http.ResponseWriter, r *http.Request) {
	id, err := pathUUID(r, "id")
	if err != nil {
		handleError(h.log, w, r, err)
		return
	}
	var req updateOrthographyRequest
	if err := decodeJSON(w, r, &req); err != nil {
		handleError(h.log, w, r, err)
		return
	}
	orth, err := h.svc.UpdateOrthography(r.Context(), id, language.UpdateOrthographyInput{
		Name:         req.Name,
		Abbreviation: req.Abbreviation,
		Description:  req.Description,
		IsDefault:    req.IsDefault,
	})
	if err != nil {
		handleError(h.log, w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toOrthography(*orth))
}

// DeleteOrthography handles DELETE /orthographies/{id}.
func (h *LanguageHandler) DeleteOrthography(w http.ResponseWriter, r *http.Request) {
	id, err := pathUUID(r, "id")
	if err != nil {
		handleError(h.log, w, r, err)
		return
	}
	if err := h.svc.DeleteOrthography(r.Context(), id); err != nil {
		handleError(h.log, w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// ListDialects handles GET /languages/{id}/dialects.
func (h *LanguageHandler) ListDialects(w http.ResponseWriter, r *http.Request) {
	id, err := pathUUID(r, "id")
	if err != nil {
		handleError(h.log, w, r, err)
		return
	}
	dialects, err := h.svc.ListDialects(r.Context(), id)
	if err != nil {
		handleError(h.log, w, r, err)
		return
	}
	items := mapSlice(dialects, toDialect)
	writeJSON(w, http.StatusOK, listResponse[dialectResponse]{Items: items, Total: len(items)})
}

// CreateDialect handles POST /languages/{id}/dialects.
func (h *LanguageHandler) CreateDialect(w http.ResponseWriter, r *http.Request) {
	id, err := pathUUID(r, "id")
	if err != nil {
		handleError(h.log, w, r, err)
		return
	}
	var req createDialectRequest
	if err := decodeJSON(w, r, &req); err != nil {
		handleError(h.log, w, r, err)
		return
	}
	d, err := h.svc.CreateDialect(r.Context(), id, language.CreateDialectInput{
		Name:         req.Name,
		Abbreviation: req.Abbreviation,
	})
	if err != nil {
		handleError(h.log, w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, toDialect(*d))
}

// DeleteDialect handles DELETE /dialects/{id}.
func (h *LanguageHandler) DeleteDialect(w http.ResponseWriter, r *http.Request) {
	id, err := pathUUID(r, "id")
	if err != nil {
		handleError(h.log, w, r, err)
		return
	}
	if err := h.svc.DeleteDialect(r.Context(), id); err != nil {
		handleError(h.log, w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
