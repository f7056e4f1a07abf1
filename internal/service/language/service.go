// Package language manages languages and their orthographies and dialects.
package language

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/heartmarshall/lexicon-backend/internal/domain"
)

// ---------------------------------------------------------------------------
// Consumer-defined interfaces (private)
// ---------------------------------------------------------------------------

type languageRepo interface {
	Create(ctx context.Context, l domain.Language) (*domain.Language, error)
	GetByID(ctx context.Context, id uuid.UUID) (*domain.Language, error)
	GetByCode(ctx context.Context, code string) (*domain.Language, error)
	List(ctx context.Context) ([]domain.Language, error)
	Update(ctx context.Context, id uuid.UUID, params domain.LanguageUpdateParams) (*domain.Language, error)
	Delete(ctx context.Context, id uuid.UUID) error
}

type orthographyRepo interface {
	Create(ctx context.Context, o domain.Orthography) (*domain.Orthography, error)
	GetByID(ctx context.Context, id uuid.UUID) (*domain.Orthography, error)
	ListByLanguage(ctx context.Context, languageID uuid.UUID) ([]domain.Orthography, error)
	Update(ctx context.Context, id uuid.UUID, params domain.OrthographyUpdateParams) (*domain.Orthography, error)
	ClearDefault(ctx context.Context, languageID uuid.UUID) error
	Delete(ctx context.Context, id uuid.UUID) error
}

type dialectRepo interface {
	Create(ctx context.Context, d domain.Dialect) (*domain.Dialect, error)
	GetByID(ctx context.Context, id uuid.UUID) (*domain.Dialect, error)
	ListByLanguage(ctx context.Context, languageID uuid.UUID) ([]domain.Dialect, error)
	Delete(ctx context.Context, id uuid.UUID) error
}

type lexemeCounter interface {
	CountByLanguage(ctx context.Context, languageID uuid.UUID, includeDeleted bool) (int, error)
}

type variantCounter interface {
	CountByOrthography(ctx context.Context, orthographyID uuid.UUID) (int, error)
}

type auditor interface {
	Record(ctx context.Context, entityType domain.EntityType, entityID uuid.UUID, action domain.RevisionAction, changes map[string]any) error
}

type txManager interface {
	RunInTx(ctx context.Context, fn func(ctx context.Context) error) error
}

// ---------------------------------------------------------------------------
// Service
// ---------------------------------------------------------------------------

// Service implements language, orthography and dialect management.
type Service struct {
	log           *slog.Logger
	languages     languageRepo
	orthographies orthographyRepo
	dialects      dialectRepo
	lexemes       lexemeCounter
	variants      variantCounter
	audit         auditor
	tx            txManager
	clock         func() time.Time
}

// NewService creates a new language service.
func NewService(
	logger *slog.Logger,
	languages languageRepo,
	orthographies orthographyRepo,
	dialects dialectRepo,
	lexemes lexemeCounter,
	variants variantCounter,
	audit auditor,
	tx txManager,
) *Service {
	return &Service{
		log:           logger.With("service", "language"),
		languages:     languages,
		orthographies: orthographies,
		dialects:      dialects,
		lexemes:       lexemes,
		variants:      variants,
		audit:         audit,
		tx:            tx,
		clock:         func() time.Time { return time.Now().UTC() },
	}
}
