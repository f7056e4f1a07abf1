package graphql

import (
	"context"
	"sync"

	"github.com/google/uuid"

	"github.com/heartmarshall/lexicon-backend/internal/domain"
	"github.com/heartmarshall/lexicon-backend/internal/service/lexicon"
)

type languageReaderMock struct {
	ListLanguagesFunc     func(ctx context.Context) ([]domain.Language, error)
	GetLanguageFunc       func(ctx context.Context, id uuid.UUID) (*domain.Language, error)
	ListOrthographiesFunc func(ctx context.Context, languageID uuid.UUID) ([]domain.Orthography, error)
	ListDialectsFunc      func(ctx context.Context, languageID uuid.UUID) ([]domain.Dialect, error)
}

func (m *languageReaderMock) ListLanguages(ctx context.Context) ([]domain.Language, error) {
	return m.ListLanguagesFunc(ctx)
}

func (m *languageReaderMock) GetLanguage(ctx context.Context, id uuid.UUID) (*domain.Language, error) {
	return m.GetLanguageFunc(ctx, id)
}

func (m *languageReaderMock) ListOrthographies(ctx context.Context, languageID uuid.UUID) ([]domain.Orthography, error) {
	return m.ListOrthographiesFunc(ctx, languageID)
}

func (m *languageReaderMock) ListDialects(ctx context.Context, languageID uuid.UUID) ([]domain.Dialect, error) {
	return m.ListDialectsFunc(ctx, languageID)
}

type lexiconReaderMock struct {
	GetLexemeFunc   func(ctx context.Context, id uuid.UUID) (*domain.LexemeDetail, error)
	FindLexemesFunc func(ctx context.Context, filter domain.LexemeFilter) (*lexicon.FindResult, error)
	VariantsFunc    func(ctx context.Context, ids []uuid.UUID) (map[uuid.UUID][]domain.Variant, error)
	SememesFunc     func(ctx context.Context, ids []uuid.UUID) (map[uuid.UUID][]domain.Sememe, error)

	mu           sync.Mutex
	variantCalls [][]uuid.UUID
	sememeCalls  [][]uuid.UUID
}

func (m *lexiconReaderMock) GetLexeme(ctx context.Context, id uuid.UUID) (*domain.LexemeDetail, error) {
	return m.GetLexemeFunc(ctx, id)
}

func (m *lexiconReaderMock) FindLexemes(ctx context.Context, filter domain.LexemeFilter) (*lexicon.FindResult, error) {
	return m.FindLexemesFunc(ctx, filter)
}

func (m *lexiconReaderMock) VariantsByLexemeIDs(ctx context.Context, ids []uuid.UUID) (map[uuid.UUID][]domain.Variant, error) {
	m.mu.Lock()
	m.variantCalls = append(m.variantCalls, ids)
	m.mu.Unlock()
	return m.VariantsFunc(ctx, ids)
}

func (m *lexiconReaderMock) SememesByLexemeIDs(ctx context.Context, ids []uuid.UUID) (map[uuid.UUID][]domain.Sememe, error) {
	m.mu.Lock()
	m.sememeCalls = append(m.sememeCalls, ids)
	m.mu.Unlock()
	return m.SememesFunc(ctx, ids)
}

type revisionReaderMock struct {
	HistoryFunc func(ctx context.Context, entityType domain.EntityType, entityID uuid.UUID, limit int) ([]domain.Revision, error)
}

func (m *revisionReaderMock) History(ctx context.Context, entityType domain.EntityType, entityID uuid.UUID, limit int) ([]domain.Revision, error) {
	return m.HistoryFunc(ctx, entityType, entityID, limit)
}
