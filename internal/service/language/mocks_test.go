package language

import (
	"context"

	"github.com/google/uuid"

	"github.com/heartmarshall/lexicon-backend/internal/domain"
)

// ===========================================================================
// Manual mocks (moq-style with func fields)
// ===========================================================================

type mockLanguageRepo struct {
	CreateFunc    func(ctx context.Context, l domain.Language) (*domain.Language, error)
	GetByIDFunc   func(ctx context.Context, id uuid.UUID) (*domain.Language, error)
	GetByCodeFunc func(ctx context.Context, code string) (*domain.Language, error)
	ListFunc      func(ctx context.Context) ([]domain.Language, error)
	UpdateFunc    func(ctx context.Context, id uuid.UUID, params domain.LanguageUpdateParams) (*domain.Language, error)
	DeleteFunc    func(ctx context.Context, id uuid.UUID) error
}

func (m *mockLanguageRepo) Create(ctx context.Context, l domain.Language) (*domain.Language, error) {
	if m.CreateFunc != nil {
		return m.CreateFunc(ctx, l)
	}
	return &l, nil
}

func (m *mockLanguageRepo) GetByID(ctx context.Context, id uuid.UUID) (*domain.Language, error) {
	if m.GetByIDFunc != nil {
		return m.GetByIDFunc(ctx, id)
	}
	return &domain.Language{ID: id, Code: "xx", Name: "X"}, nil
}

func (m *mockLanguageRepo) GetByCode(ctx context.Context, code string) (*domain.Language, error) {
	if m.GetByCodeFunc != nil {
		return m.GetByCodeFunc(ctx, code)
	}
	return nil, domain.ErrNotFound
}

func (m *mockLanguageRepo) List(ctx context.Context) ([]domain.Language, error) {
	if m.ListFunc != nil {
		return m.ListFunc(ctx)
	}
	return nil, nil
}

func (m *mockLanguageRepo) Update(ctx context.Context, id uuid.UUID, params domain.LanguageUpdateParams) (*domain.Language, error) {
	if m.UpdateFunc != nil {
		return m.UpdateFunc(ctx, id, params)
	}
	return &domain.Language{ID: id}, nil
}

func (m *mockLanguageRepo) Delete(ctx context.Context, id uuid.UUID) error {
	if m.DeleteFunc != nil {
		return m.DeleteFunc(ctx, id)
	}
	return nil
}

type mockOrthographyRepo struct {
	CreateFunc         func(ctx context.Context, o domain.Orthography) (*domain.Orthography, error)
	GetByIDFunc        func(ctx context.Context, id uuid.UUID) (*domain.Orthography, error)
	ListByLanguageFunc func(ctx context.Context, languageID uuid.UUID) ([]domain.Orthography, error)
	UpdateFunc         func(ctx context.Context, id uuid.UUID, params domain.OrthographyUpdateParams) (*domain.Orthography, error)
	ClearDefaultFunc   func(ctx context.Context, languageID uuid.UUID) error
	DeleteFunc         func(ctx context.Context, id uuid.UUID) error
}

func (m *mockOrthographyRepo) Create(ctx context.Context, o domain.Orthography) (*domain.Orthography, error) {
	if m.CreateFunc != nil {
		return m.CreateFunc(ctx, o)
	}
	return &o, nil
}

func (m *mockOrthographyRepo) GetByID(ctx context.Context, id uuid.UUID) (*domain.Orthography, error) {
	if m.GetByIDFunc != nil {
		return m.GetByIDFunc(ctx, id)
	}
	return nil, domain.ErrNotFound
}

func (m *mockOrthographyRepo) ListByLanguage(ctx context.Context, languageID uuid.UUID) ([]domain.Orthography, error) {
	if m.ListByLanguageFunc != nil {
		return m.ListByLanguageFunc(ctx, languageID)
	}
	return nil, nil
}

func (m *mockOrthographyRepo) Update(ctx context.Context, id uuid.UUID, params domain.OrthographyUpdateParams) (*domain.Orthography, error) {
	if m.UpdateFunc != nil {
		return m.UpdateFunc(ctx, id, params)
	}
	return &domain.Orthography{ID: id}, nil
}

func (m *mockOrthographyRepo) ClearDefault(ctx context.Context, languageID uuid.UUID) error {
	if m.ClearDefaultFunc != nil {
		return m.ClearDefaultFunc(ctx, languageID)
	}
	return nil
}

func (m *mockOrthographyRepo) Delete(ctx context.Context, id uuid.UUID) error {
	if m.DeleteFunc != nil {
		return m.DeleteFunc(ctx, id)
	}
	return nil
}

type mockDialectRepo struct {
	CreateFunc         func(ctx context.Context, d domain.Dialect) (*domain.Dialect, error)
	GetByIDFunc        func(ctx context.Context, id uuid.UUID) (*domain.Dialect, error)
	ListByLanguageFunc func(ctx context.Context, languageID uuid.UUID) ([]domain.Dialect, error)
	DeleteFunc         func(ctx context.Context, id uuid.UUID) error
}

func (m *mockDialectRepo) Create(ctx context.Context, d domain.Dialect) (*domain.Dialect, error) {
	if m.CreateFunc != nil {
		return m.CreateFunc(ctx, d)
	}
	return &d, nil
}

func (m *mockDialectRepo) GetByID(ctx context.Context, id uuid.UUID) (*domain.Dialect, error) {
	if m.GetByIDFunc != nil {
		return m.GetByIDFunc(ctx, id)
	}
	return nil, domain.ErrNotFound
}

func (m *mockDialectRepo) ListByLanguage(ctx context.Context, languageID uuid.UUID) ([]domain.Dialect, error) {
	if m.ListByLanguageFunc != nil {
		return m.ListByLanguageFunc(ctx, languageID)
	}
	return nil, nil
}

func (m *mockDialectRepo) Delete(ctx context.Context, id uuid.UUID) error {
	if m.DeleteFunc != nil {
		return m.DeleteFunc(ctx, id)
	}
	return nil
}

type mockLexemeCounter struct {
	CountByLanguageFunc func(ctx context.Context, languageID uuid.UUID, includeDeleted bool) (int, error)
}

func (m *mockLexemeCounter) CountByLanguage(ctx context.Context, languageID uuid.UUID, includeDeleted bool) (int, error) {
	if m.CountByLanguageFunc != nil {
		return m.CountByLanguageFunc(ctx, languageID, includeDeleted)
	}
	return 0, nil
}

type mockVariantCounter struct {
	CountByOrthographyFunc func(ctx context.Context, orthographyID uuid.UUID) (int, error)
}

func (m *mockVariantCounter) CountByOrthography(ctx context.Context, orthographyID uuid.UUID) (int, error) {
	if m.CountByOrthographyFunc != nil {
		return m.CountByOrthographyFunc(ctx, orthographyID)
	}
	return 0, nil
}

type recordedRevision struct {
	EntityType domain.EntityType
	EntityID   uuid.UUID
	Action     domain.RevisionAction
	Changes    map[string]any
}

type mockAuditor struct {
	Records []recordedRevision
	Err     error
}

func (m *mockAuditor) Record(_ context.Context, entityType domain.EntityType, entityID uuid.UUID, action domain.RevisionAction, changes map[string]any) error {
	if m.Err != nil {
		return m.Err
	}
	m.Records = append(m.Records, recordedRevision{entityType, entityID, action, changes})
	return nil
}

type mockTxManager struct {
	Calls int
}

func (m *mockTxManager) RunInTx(ctx context.Context, fn func(ctx context.Context) error) error {
	m.Calls++
	return fn(ctx)
}
