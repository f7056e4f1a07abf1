package importer

import (
	"context"
	"sync"

	"github.com/google/uuid"

	"github.com/heartmarshall/lexicon-backend/internal/domain"
)

type languageRepoMock struct {
	GetByIDFunc func(ctx context.Context, id uuid.UUID) (*domain.Language, error)
}

func (m *languageRepoMock) GetByID(ctx context.Context, id uuid.UUID) (*domain.Language, error) {
	return m.GetByIDFunc(ctx, id)
}

type orthographyRepoMock struct {
	ListByLanguageFunc func(ctx context.Context, languageID uuid.UUID) ([]domain.Orthography, error)
}

func (m *orthographyRepoMock) ListByLanguage(ctx context.Context, languageID uuid.UUID) ([]domain.Orthography, error) {
	return m.ListByLanguageFunc(ctx, languageID)
}

type dialectRepoMock struct {
	ListByLanguageFunc func(ctx context.Context, languageID uuid.UUID) ([]domain.Dialect, error)
}

func (m *dialectRepoMock) ListByLanguage(ctx context.Context, languageID uuid.UUID) ([]domain.Dialect, error) {
	return m.ListByLanguageFunc(ctx, languageID)
}

type lexemeRepoMock struct {
	CreateBatchFunc      func(ctx context.Context, lexemes []domain.Lexeme) error
	FindByMainLemmasFunc func(ctx context.Context, languageID uuid.UUID, normalized []string) (map[string][]uuid.UUID, error)
}

func (m *lexemeRepoMock) CreateBatch(ctx context.Context, lexemes []domain.Lexeme) error {
	return m.CreateBatchFunc(ctx, lexemes)
}

func (m *lexemeRepoMock) FindByMainLemmas(ctx context.Context, languageID uuid.UUID, normalized []string) (map[string][]uuid.UUID, error) {
	return m.FindByMainLemmasFunc(ctx, languageID, normalized)
}

type variantRepoMock struct {
	CreateBatchFunc func(ctx context.Context, variants []domain.Variant) error
}

func (m *variantRepoMock) CreateBatch(ctx context.Context, variants []domain.Variant) error {
	return m.CreateBatchFunc(ctx, variants)
}

type sememeRepoMock struct {
	CreateBatchFunc func(ctx context.Context, sememes []domain.Sememe) error
}

func (m *sememeRepoMock) CreateBatch(ctx context.Context, sememes []domain.Sememe) error {
	return m.CreateBatchFunc(ctx, sememes)
}

type revisionRecorderMock struct {
	RecordBatchFunc func(ctx context.Context, revs []domain.Revision) error
}

func (m *revisionRecorderMock) New(_ context.Context, et domain.EntityType, id uuid.UUID, action domain.RevisionAction, changes map[string]any) domain.Revision {
	return domain.Revision{ID: uuid.New(), EntityType: et, EntityID: id, Action: action, Changes: changes}
}

func (m *revisionRecorderMock) RecordBatch(ctx context.Context, revs []domain.Revision) error {
	return m.RecordBatchFunc(ctx, revs)
}

type txManagerMock struct {
	RunInTxFunc func(ctx context.Context, fn func(ctx context.Context) error) error
}

func (m *txManagerMock) RunInTx(ctx context.Context, fn func(ctx context.Context) error) error {
	return m.RunInTxFunc(ctx, fn)
}

// store keeps what committed transactions wrote. Writes of a failed
// transaction are discarded.
type store struct {
	mu        sync.Mutex
	txCalls   int
	lexemes   []domain.Lexeme
	variants  []domain.Variant
	sememes   []domain.Sememe
	revisions []domain.Revision
	existing  map[string][]uuid.UUID

	// failLexemes fails CreateBatch for the n-th transaction (1-based).
	failLexemes int
}

func (s *store) runInTx(ctx context.Context, fn func(ctx context.Context) error) error {
	s.mu.Lock()
	s.txCalls++
	nl, nv, ns, nr := len(s.lexemes), len(s.variants), len(s.sememes), len(s.revisions)
	s.mu.Unlock()

	if err := fn(ctx); err != nil {
		s.mu.Lock()
		s.lexemes, s.variants, s.sememes, s.revisions = s.lexemes[:nl], s.variants[:nv], s.sememes[:ns], s.revisions[:nr]
		s.mu.Unlock()
		return err
	}
	return nil
}
