// Package lexicon manages lexemes together with their variants and sememes.
package lexicon

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/heartmarshall/lexicon-backend/internal/config"
	"github.com/heartmarshall/lexicon-backend/internal/domain"
)

// ---------------------------------------------------------------------------
// Consumer-defined interfaces (private)
// ---------------------------------------------------------------------------

type lexemeRepo interface {
	Create(ctx context.Context, l domain.Lexeme) (*domain.Lexeme, error)
	GetByID(ctx context.Context, id uuid.UUID) (*domain.Lexeme, error)
	Find(ctx context.Context, filter domain.LexemeFilter) ([]domain.Lexeme, int, error)
	ListActiveByLanguage(ctx context.Context, languageID uuid.UUID) ([]domain.Lexeme, error)
	Update(ctx context.Context, id uuid.UUID, params domain.LexemeUpdateParams) (*domain.Lexeme, error)
	Touch(ctx context.Context, id uuid.UUID) error
	SoftDelete(ctx context.Context, id uuid.UUID) error
	Restore(ctx context.Context, id uuid.UUID) (*domain.Lexeme, error)
	PurgeDeleted(ctx context.Context, threshold time.Time) (int64, error)
}

type variantRepo interface {
	Create(ctx context.Context, v domain.Variant) (*domain.Variant, error)
	CreateBatch(ctx context.Context, variants []domain.Variant) error
	Update(ctx context.Context, id uuid.UUID, params domain.VariantUpdateParams, lemmaNormalized *string) (*domain.Variant, error)
	SetMain(ctx context.Context, lexemeID, variantID uuid.UUID) error
	Delete(ctx context.Context, id uuid.UUID) error
	GetByID(ctx context.Context, id uuid.UUID) (*domain.Variant, error)
	ListByLexeme(ctx context.Context, lexemeID uuid.UUID) ([]domain.Variant, error)
	ListByLexemeIDs(ctx context.Context, lexemeIDs []uuid.UUID) ([]domain.Variant, error)
	NextPosition(ctx context.Context, lexemeID uuid.UUID) (int, error)
}

type sememeRepo interface {
	Create(ctx context.Context, s domain.Sememe) (*domain.Sememe, error)
	CreateBatch(ctx context.Context, sememes []domain.Sememe) error
	Update(ctx context.Context, id uuid.UUID, params domain.SememeUpdateParams) (*domain.Sememe, error)
	Reorder(ctx context.Context, lexemeID uuid.UUID, items []domain.ReorderItem) error
	Delete(ctx context.Context, id uuid.UUID) error
	GetByID(ctx context.Context, id uuid.UUID) (*domain.Sememe, error)
	ListByLexeme(ctx context.Context, lexemeID uuid.UUID) ([]domain.Sememe, error)
	ListByLexemeIDs(ctx context.Context, lexemeIDs []uuid.UUID) ([]domain.Sememe, error)
	NextPosition(ctx context.Context, lexemeID uuid.UUID) (int, error)
}

type languageRepo interface {
	GetByID(ctx context.Context, id uuid.UUID) (*domain.Language, error)
}

type orthographyRepo interface {
	ListByLanguage(ctx context.Context, languageID uuid.UUID) ([]domain.Orthography, error)
}

type dialectRepo interface {
	ListByLanguage(ctx context.Context, languageID uuid.UUID) ([]domain.Dialect, error)
}

type auditor interface {
	New(ctx context.Context, entityType domain.EntityType, entityID uuid.UUID, action domain.RevisionAction, changes map[string]any) domain.Revision
	Record(ctx context.Context, entityType domain.EntityType, entityID uuid.UUID, action domain.RevisionAction, changes map[string]any) error
	RecordBatch(ctx context.Context, revs []domain.Revision) error
}

type txManager interface {
	RunInTx(ctx context.Context, fn func(ctx context.Context) error) error
}

// ---------------------------------------------------------------------------
// Service
// ---------------------------------------------------------------------------

// Service implements lexeme, variant and sememe management.
type Service struct {
	log           *slog.Logger
	lexemes       lexemeRepo
	variants      variantRepo
	sememes       sememeRepo
	languages     languageRepo
	orthographies orthographyRepo
	dialects      dialectRepo
	audit         auditor
	tx            txManager
	cfg           config.LexiconConfig
	clock         func() time.Time
}

// NewService creates a new lexicon service.
func NewService(
	logger *slog.Logger,
	lexemes lexemeRepo,
	variants variantRepo,
	sememes sememeRepo,
	languages languageRepo,
	orthographies orthographyRepo,
	dialects dialectRepo,
	audit auditor,
	tx txManager,
	cfg config.LexiconConfig,
) *Service {
	return &Service{
		log:           logger.With("service", "lexicon"),
		lexemes:       lexemes,
		variants:      variants,
		sememes:       sememes,
		languages:     languages,
		orthographies: orthographies,
		dialects:      dialects,
		audit:         audit,
		tx:            tx,
		cfg:           cfg,
		clock:         func() time.Time { return time.Now().UTC() },
	}
}

// activeLexeme loads a lexeme and rejects soft-deleted ones.
func (s *Service) activeLexeme(ctx context.Context, id uuid.UUID) (*domain.Lexeme, error) {
	lex, err := s.lexemes.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if lex.IsDeleted() {
		return nil, fmt.Errorf("lexeme %s is deleted: %w", id, domain.ErrNotFound)
	}
	return lex, nil
}

// languageRefs indexes the orthographies and dialects of a language.
type languageRefs struct {
	defaultOrth   uuid.UUID
	orthographies map[uuid.UUID]domain.Orthography
	dialects      map[uuid.UUID]bool
}

func (s *Service) loadRefs(ctx context.Context, languageID uuid.UUID) (*languageRefs, error) {
	orths, err := s.orthographies.ListByLanguage(ctx, languageID)
	if err != nil {
		return nil, fmt.Errorf("list orthographies: %w", err)
	}
	dialects, err := s.dialects.ListByLanguage(ctx, languageID)
	if err != nil {
		return nil, fmt.Errorf("list dialects: %w", err)
	}

	refs := &languageRefs{
		orthographies: make(map[uuid.UUID]domain.Orthography, len(orths)),
		dialects:      make(map[uuid.UUID]bool, len(dialects)),
	}
	for _, o := range orths {
		refs.orthographies[o.ID] = o
		if o.IsDefault {
			refs.defaultOrth = o.ID
		}
	}
	for _, d := range dialects {
		refs.dialects[d.ID] = true
	}
	return refs, nil
}

// orthography resolves id, with uuid.Nil meaning the default orthography.
func (r *languageRefs) orthography(id uuid.UUID) (uuid.UUID, bool) {
	if id == uuid.Nil {
		return r.defaultOrth, r.defaultOrth != uuid.Nil
	}
	_, ok := r.orthographies[id]
	return id, ok
}

func (r *languageRefs) checkDialects(errs *domain.FieldErrors, field string, ids []uuid.UUID) {
	for _, id := range ids {
		if !r.dialects[id] {
			errs.Add(field, fmt.Sprintf("dialect %s does not belong to the language", id))
		}
	}
}
