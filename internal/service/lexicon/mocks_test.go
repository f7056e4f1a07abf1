package lexicon

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/heartmarshall/lexicon-backend/internal/domain"
)

// ===========================================================================
// Manual mocks (moq-style with func fields)
// ===========================================================================

type mockLexemeRepo struct {
	CreateFunc               func(ctx context.Context, l domain.Lexeme) (*domain.Lexeme, error)
	GetByIDFunc              func(ctx context.Context, id uuid.UUID) (*domain.Lexeme, error)
	FindFunc                 func(ctx context.Context, filter domain.LexemeFilter) ([]domain.Lexeme, int, error)
	ListActiveByLanguageFunc func(ctx context.Context, languageID uuid.UUID) ([]domain.Lexeme, error)
	UpdateFunc               func(ctx context.Context, id uuid.UUID, params domain.LexemeUpdateParams) (*domain.Lexeme, error)
	SoftDeleteFunc           func(ctx context.Context, id uuid.UUID) error
	RestoreFunc              func(ctx context.Context, id uuid.UUID) (*domain.Lexeme, error)
	PurgeDeletedFunc         func(ctx context.Context, threshold time.Time) (int64, error)

	Touched []uuid.UUID
}

func (m *mockLexemeRepo) Create(ctx context.Context, l domain.Lexeme) (*domain.Lexeme, error) {
	if m.CreateFunc != nil {
		return m.CreateFunc(ctx, l)
	}
	return &l, nil
}

func (m *mockLexemeRepo) GetByID(ctx context.Context, id uuid.UUID) (*domain.Lexeme, error) {
	if m.GetByIDFunc != nil {
		return m.GetByIDFunc(ctx, id)
	}
	return &domain.Lexeme{ID: id, LanguageID: testLangID, PartOfSpeech: domain.PartOfSpeechNoun, Tags: []string{}}, nil
}

func (m *mockLexemeRepo) Find(ctx context.Context, filter domain.LexemeFilter) ([]domain.Lexeme, int, error) {
	if m.FindFunc != nil {
		return m.FindFunc(ctx, filter)
	}
	return []domain.Lexeme{}, 0, nil
}

func (m *mockLexemeRepo) ListActiveByLanguage(ctx context.Context, languageID uuid.UUID) ([]domain.Lexeme, error) {
	if m.ListActiveByLanguageFunc != nil {
		return m.ListActiveByLanguageFunc(ctx, languageID)
	}
	return []domain.Lexeme{}, nil
}

func (m *mockLexemeRepo) Update(ctx context.Context, id uuid.UUID, params domain.LexemeUpdateParams) (*domain.Lexeme, error) {
	if m.UpdateFunc != nil {
		return m.UpdateFunc(ctx, id, params)
	}
	return &domain.Lexeme{ID: id, LanguageID: testLangID}, nil
}

func (m *mockLexemeRepo) Touch(_ context.Context, id uuid.UUID) error {
	m.Touched = append(m.Touched, id)
	return nil
}

func (m *mockLexemeRepo) SoftDelete(ctx context.Context, id uuid.UUID) error {
	if m.SoftDeleteFunc != nil {
		return m.SoftDeleteFunc(ctx, id)
	}
	return nil
}

func (m *mockLexemeRepo) Restore(ctx context.Context, id uuid.UUID) (*domain.Lexeme, error) {
	if m.RestoreFunc != nil {
		return m.RestoreFunc(ctx, id)
	}
	return &domain.Lexeme{ID: id, LanguageID: testLangID}, nil
}

func (m *mockLexemeRepo) PurgeDeleted(ctx context.Context, threshold time.Time) (int64, error) {
	if m.PurgeDeletedFunc != nil {
		return m.PurgeDeletedFunc(ctx, threshold)
	}
	return 0, nil
}

type mockVariantRepo struct {
	CreateFunc          func(ctx context.Context, v domain.Variant) (*domain.Variant, error)
	UpdateFunc          func(ctx context.Context, id uuid.UUID, params domain.VariantUpdateParams, lemmaNormalized *string) (*domain.Variant, error)
	DeleteFunc          func(ctx context.Context, id uuid.UUID) error
	GetByIDFunc         func(ctx context.Context, id uuid.UUID) (*domain.Variant, error)
	ListByLexemeFunc    func(ctx context.Context, lexemeID uuid.UUID) ([]domain.Variant, error)
	ListByLexemeIDsFunc func(ctx context.Context, lexemeIDs []uuid.UUID) ([]domain.Variant, error)

	Batched []domain.Variant
	MainSet []uuid.UUID
	Deleted []uuid.UUID
}

func (m *mockVariantRepo) Create(ctx context.Context, v domain.Variant) (*domain.Variant, error) {
	if m.CreateFunc != nil {
		return m.CreateFunc(ctx, v)
	}
	return &v, nil
}

func (m *mockVariantRepo) CreateBatch(_ context.Context, variants []domain.Variant) error {
	m.Batched = append(m.Batched, variants...)
	return nil
}

func (m *mockVariantRepo) Update(ctx context.Context, id uuid.UUID, params domain.VariantUpdateParams, lemmaNormalized *string) (*domain.Variant, error) {
	if m.UpdateFunc != nil {
		return m.UpdateFunc(ctx, id, params, lemmaNormalized)
	}
	return &domain.Variant{ID: id}, nil
}

func (m *mockVariantRepo) SetMain(_ context.Context, _, variantID uuid.UUID) error {
	m.MainSet = append(m.MainSet, variantID)
	return nil
}

func (m *mockVariantRepo) Delete(ctx context.Context, id uuid.UUID) error {
	m.Deleted = append(m.Deleted, id)
	if m.DeleteFunc != nil {
		return m.DeleteFunc(ctx, id)
	}
	return nil
}

func (m *mockVariantRepo) GetByID(ctx context.Context, id uuid.UUID) (*domain.Variant, error) {
	if m.GetByIDFunc != nil {
		return m.GetByIDFunc(ctx, id)
	}
	return nil, domain.ErrNotFound
}

func (m *mockVariantRepo) ListByLexeme(ctx context.Context, lexemeID uuid.UUID) ([]domain.Variant, error) {
	if m.ListByLexemeFunc != nil {
		return m.ListByLexemeFunc(ctx, lexemeID)
	}
	return []domain.Variant{}, nil
}

func (m *mockVariantRepo) ListByLexemeIDs(ctx context.Context, lexemeIDs []uuid.UUID) ([]domain.Variant, error) {
	if m.ListByLexemeIDsFunc != nil {
		return m.ListByLexemeIDsFunc(ctx, lexemeIDs)
	}
	return []domain.Variant{}, nil
}

func (m *mockVariantRepo) NextPosition(context.Context, uuid.UUID) (int, error) {
	return 3, nil
}

type mockSememeRepo struct {
	CreateFunc          func(ctx context.Context, s domain.Sememe) (*domain.Sememe, error)
	UpdateFunc          func(ctx context.Context, id uuid.UUID, params domain.SememeUpdateParams) (*domain.Sememe, error)
	GetByIDFunc         func(ctx context.Context, id uuid.UUID) (*domain.Sememe, error)
	ListByLexemeFunc    func(ctx context.Context, lexemeID uuid.UUID) ([]domain.Sememe, error)
	ListByLexemeIDsFunc func(ctx context.Context, lexemeIDs []uuid.UUID) ([]domain.Sememe, error)

	Batched   []domain.Sememe
	Reordered []domain.ReorderItem
	Deleted   []uuid.UUID
}

func (m *mockSememeRepo) Create(ctx context.Context, s domain.Sememe) (*domain.Sememe, error) {
	if m.CreateFunc != nil {
		return m.CreateFunc(ctx, s)
	}
	return &s, nil
}

func (m *mockSememeRepo) CreateBatch(_ context.Context, sememes []domain.Sememe) error {
	m.Batched = append(m.Batched, sememes...)
	return nil
}

func (m *mockSememeRepo) Update(ctx context.Context, id uuid.UUID, params domain.SememeUpdateParams) (*domain.Sememe, error) {
	if m.UpdateFunc != nil {
		return m.UpdateFunc(ctx, id, params)
	}
	return &domain.Sememe{ID: id}, nil
}

func (m *mockSememeRepo) Reorder(_ context.Context, _ uuid.UUID, items []domain.ReorderItem) error {
	m.Reordered = append(m.Reordered, items...)
	return nil
}

func (m *mockSememeRepo) Delete(_ context.Context, id uuid.UUID) error {
	m.Deleted = append(m.Deleted, id)
	return nil
}

func (m *mockSememeRepo) GetByID(ctx context.Context, id uuid.UUID) (*domain.Sememe, error) {
	if m.GetByIDFunc != nil {
		return m.GetByIDFunc(ctx, id)
	}
	return nil, domain.ErrNotFound
}

func (m *mockSememeRepo) ListByLexeme(ctx context.Context, lexemeID uuid.UUID) ([]domain.Sememe, error) {
	if m.ListByLexemeFunc != nil {
		return m.ListByLexemeFunc(ctx, lexemeID)
	}
	return []domain.Sememe{}, nil
}

func (m *mockSememeRepo) ListByLexemeIDs(ctx context.Context, lexemeIDs []uuid.UUID) ([]domain.Sememe, error) {
	if m.ListByLexemeIDsFunc != nil {
		return m.ListByLexemeIDsFunc(ctx, lexemeIDs)
	}
	return []domain.Sememe{}, nil
}

func (m *mockSememeRepo) NextPosition(context.Context, uuid.UUID) (int, error) {
	return 2, nil
}

type mockLanguageRepo struct {
	GetByIDFunc func(ctx context.Context, id uuid.UUID) (*domain.Language, error)
}

func (m *mockLanguageRepo) GetByID(ctx context.Context, id uuid.UUID) (*domain.Language, error) {
	if m.GetByIDFunc != nil {
		return m.GetByIDFunc(ctx, id)
	}
	return &domain.Language{ID: id, Code: "ru", Name: "Russian"}, nil
}

type mockOrthographyRepo struct {
	Orthographies []domain.Orthography
}

func (m *mockOrthographyRepo) ListByLanguage(context.Context, uuid.UUID) ([]domain.Orthography, error) {
	return m.Orthographies, nil
}

type mockDialectRepo struct {
	Dialects []domain.Dialect
}

func (m *mockDialectRepo) ListByLanguage(context.Context, uuid.UUID) ([]domain.Dialect, error) {
	return m.Dialects, nil
}

type mockAuditor struct {
	mu      sync.Mutex
	Records []domain.Revision
}

func (m *mockAuditor) New(_ context.Context, entityType domain.EntityType, entityID uuid.UUID, action domain.RevisionAction, changes map[string]any) domain.Revision {
	return domain.Revision{ID: uuid.New(), EntityType: entityType, EntityID: entityID, Action: action, Changes: changes}
}

func (m *mockAuditor) Record(ctx context.Context, entityType domain.EntityType, entityID uuid.UUID, action domain.RevisionAction, changes map[string]any) error {
	return m.RecordBatch(ctx, []domain.Revision{m.New(ctx, entityType, entityID, action, changes)})
}

func (m *mockAuditor) RecordBatch(_ context.Context, revs []domain.Revision) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Records = append(m.Records, revs...)
	return nil
}

type mockTxManager struct {
	Calls int
}

func (m *mockTxManager) RunInTx(ctx context.Context, fn func(ctx context.Context) error) error {
	m.Calls++
	return fn(ctx)
}
