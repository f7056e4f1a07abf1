package rest

import (
	"context"
	"log/slog"
	"net/http"
	"strings"

	"github.com/google/uuid"

	"github.com/heartmarshall/lexicon-backend/internal/domain"
)

type revisionService interface {
	History(ctx context.Context, entityType domain.EntityType, entityID uuid.UUID, limit int) ([]domain.Revision, error)
	List(ctx context.Context, filter domain.RevisionFilter) ([]domain.Revision, int, error)
}

// RevisionHandler serves the audit trail.
type RevisionHandler struct {
	svc revisionService
	log *slog.Logger
}

// NewRevisionHandler creates a RevisionHandler.
func NewRevisionHandler(svc revisionService, logger *slog.Logger) *RevisionHandler {
	return &RevisionHandler{svc: svc, log: logger.With("handler", "revision")}
}

func parseEntityType(s string) (domain.EntityType, bool) {
	et := domain.EntityType(strings.ToUpper(strings.TrimSpace(s)))
	return et, et.IsValid()
}

// List handles GET /revisions.
func (h *RevisionHandler) List(w http.ResponseWriter, r *http.Request) {
	q := newQueryParams(r)
	filter := domain.RevisionFilter{
		UserID: q.optUUID("user_id"),
		Limit:  q.intVal("limit", 0),
		Offset: q.intVal("offset", 0),
	}
	if v := q.optString("entity_type"); v != nil {
		et, ok := parseEntityType(*v)
		if !ok {
			q.errs.Add("entity_type", "unknown entity type")
		}
		filter.EntityType = &et
	}
	if err := q.err(); err != nil {
		handleError(h.log, w, r, err)
		return
	}

	revs, total, err := h.svc.List(r.Context(), filter)
	if err != nil {
		handleError(h.log, w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, listResponse[revisionResponse]{
		Items:  mapSlice(revs, toRevision),
		Total:  total,
		Limit:  filter.Limit,
		Offset: filter.Offset,
	})
}

// History handles GET /revisions/{entityType}/{id}, newest first.
func (h *RevisionHandler) History(w http.ResponseWriter, r *http.Request) {
	et, ok := parseEntityType(r.PathValue("entityType"))
	if !ok {
		handleError(h.log, w, r, domain.NewValidationError("entity_type", "unknown entity type"))
		return
	}
	id, err := pathUUID(r, "id")
	if err != nil {
		handleError(h.log, w, r, err)
		return
	}
	q := newQueryParams(r)
	limit := q.intVal("limit", 0)
	if err := q.err(); err != nil {
		handleError(h.log, w, r, err)
		return
	}

	revs, err := h.svc.History(r.Context(), et, id, limit)
	if err != nil {
		handleError(h.log, w, r, err)
		return
	}
	items := mapSlice(revs, toRevision)
	writeJSON(w, http.StatusOK, listResponse[revisionResponse]{Items: items, Total: len(items)})
}
