// Package revision records and queries the audit trail of lexicon edits.
package revision

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/heartmarshall/lexicon-backend/internal/config"
	"github.com/heartmarshall/lexicon-backend/internal/domain"
	"github.com/heartmarshall/lexicon-backend/pkg/ctxutil"
)

type revisionRepo interface {
	Create(ctx context.Context, rev domain.Revision) error
	CreateBatch(ctx context.Context, revs []domain.Revision) error
	ListByEntity(ctx context.Context, entityType domain.EntityType, entityID uuid.UUID, limit int) ([]domain.Revision, error)
	List(ctx context.Context, filter domain.RevisionFilter) ([]domain.Revision, int, error)
}

// Service writes revisions inside the caller's transaction and serves history queries.
type Service struct {
	log   *slog.Logger
	repo  revisionRepo
	cfg   config.LexiconConfig
	clock func() time.Time
}

// NewService creates a new revision service.
func NewService(logger *slog.Logger, repo revisionRepo, cfg config.LexiconConfig) *Service {
	return &Service{
		log:   logger.With("service", "revision"),
		repo:  repo,
		cfg:   cfg,
		clock: func() time.Time { return time.Now().UTC() },
	}
}

// New builds a revision attributed to the user in ctx, if any.
func (s *Service) New(ctx context.Context, entityType domain.EntityType, entityID uuid.UUID, action domain.RevisionAction, changes map[string]any) domain.Revision {
	if changes == nil {
		changes = map[string]any{}
	}
	return domain.Revision{
		ID:         uuid.New(),
		UserID:     ctxutil.UserIDPtrFromCtx(ctx),
		EntityType: entityType,
		EntityID:   entityID,
		Action:     action,
		Changes:    changes,
		CreatedAt:  s.clock(),
	}
}

// Record persists one revision. Call it with the transaction context of the
// mutation it describes so both commit or roll back together.
func (s *Service) Record(ctx context.Context, entityType domain.EntityType, entityID uuid.UUID, action domain.RevisionAction, changes map[string]any) error {
	if err := s.repo.Create(ctx, s.New(ctx, entityType, entityID, action, changes)); err != nil {
		return fmt.Errorf("record %s %s revision: %w", action, entityType, err)
	}
	return nil
}

// RecordBatch persists several revisions in one round-trip.
func (s *Service) RecordBatch(ctx context.Context, revs []domain.Revision) error {
	if len(revs) == 0 {
		return nil
	}
	if err := s.repo.CreateBatch(ctx, revs); err != nil {
		return fmt.Errorf("record revisions: %w", err)
	}
	return nil
}

// History returns the newest revisions of one entity first.
func (s *Service) History(ctx context.Context, entityType domain.EntityType, entityID uuid.UUID, limit int) ([]domain.Revision, error) {
	if !entityType.IsValid() {
		return nil, domain.NewValidationError("entity_type", "invalid value")
	}
	limit = clampLimit(limit, s.cfg.HistoryLimit, s.cfg.HistoryLimit)
	return s.repo.ListByEntity(ctx, entityType, entityID, limit)
}

// List returns recent revisions, optionally filtered, with the total count.
func (s *Service) List(ctx context.Context, filter domain.RevisionFilter) ([]domain.Revision, int, error) {
	if filter.EntityType != nil && !filter.EntityType.IsValid() {
		return nil, 0, domain.NewValidationError("entity_type", "invalid value")
	}
	if filter.Offset < 0 {
		return nil, 0, domain.NewValidationError("offset", "must be >= 0")
	}
	filter.Limit = clampLimit(filter.Limit, s.cfg.DefaultPageSize, s.cfg.MaxPageSize)
	return s.repo.List(ctx, filter)
}

func clampLimit(limit, defaultVal, max int) int {
	if limit <= 0 {
		return defaultVal
	}
	if limit > max {
		return max
	}
	return limit
}
