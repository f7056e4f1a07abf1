package language

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/heartmarshall/lexicon-backend/internal/domain"
)

// CreateLanguage adds a language. Codes are unique.
func (s *Service) CreateLanguage(ctx context.Context, input CreateLanguageInput) (*domain.Language, error) {
	input.Normalize()
	if err := input.Validate(); err != nil {
		return nil, err
	}

	now := s.clock()
	var created *domain.Language
	err := s.tx.RunInTx(ctx, func(txCtx context.Context) error {
		var err error
		created, err = s.languages.Create(txCtx, domain.Language{
			ID:          uuid.New(),
			Code:        input.Code,
			Name:        input.Name,
			Description: input.Description,
			CreatedAt:   now,
			UpdatedAt:   now,
		})
		if err != nil {
			return fmt.Errorf("create language: %w", err)
		}

		changes := domain.Changes{}.Set("code", created.Code).Set("name", created.Name)
		return s.audit.Record(txCtx, domain.EntityTypeLanguage, created.ID, domain.RevisionActionCreate, changes)
	})
	if err != nil {
		return nil, err
	}

	s.log.InfoContext(ctx, "language created", "language_id", created.ID, "code", created.Code)
	return created, nil
}

// GetLanguage returns a language by ID.
func (s *Service) GetLanguage(ctx context.Context, id uuid.UUID) (*domain.Language, error) {
	return s.languages.GetByID(ctx, id)
}

// GetLanguageByCode returns a language by its code, case-insensitively.
func (s *Service) GetLanguageByCode(ctx context.Context, code string) (*domain.Language, error) {
	return s.languages.GetByCode(ctx, strings.ToLower(strings.TrimSpace(code)))
}

// ListLanguages returns all languages ordered by name.
func (s *Service) ListLanguages(ctx context.Context) ([]domain.Language, error) {
	return s.languages.List(ctx)
}

// UpdateLanguage applies a partial update.
func (s *Service) UpdateLanguage(ctx context.Context, id uuid.UUID, input UpdateLanguageInput) (*domain.Language, error) {
	if err := input.Validate(); err != nil {
		return nil, err
	}

	var updated *domain.Language
	err := s.tx.RunInTx(ctx, func(txCtx context.Context) error {
		before, err := s.languages.GetByID(txCtx, id)
		if err != nil {
			return err
		}

		params := domain.LanguageUpdateParams{Name: trimPtr(input.Name), Description: trimPtr(input.Description)}
		updated, err = s.languages.Update(txCtx, id, params)
		if err != nil {
			return fmt.Errorf("update language: %w", err)
		}

		changes := domain.Changes{}.
			Diff("name", before.Name, updated.Name).
			DiffPtr("description", before.Description, updated.Description)
		if len(changes) == 0 {
			return nil
		}
		return s.audit.Record(txCtx, domain.EntityTypeLanguage, id, domain.RevisionActionUpdate, changes)
	})
	if err != nil {
		return nil, err
	}
	return updated, nil
}

// DeleteLanguage removes a language with its orthographies and dialects.
// Fails with ErrConflict while active lexemes exist.
func (s *Service) DeleteLanguage(ctx context.Context, id uuid.UUID) error {
	err := s.tx.RunInTx(ctx, func(txCtx context.Context) error {
		lang, err := s.languages.GetByID(txCtx, id)
		if err != nil {
			return err
		}

		n, err := s.lexemes.CountByLanguage(txCtx, id, false)
		if err != nil {
			return fmt.Errorf("count lexemes: %w", err)
		}
		if n > 0 {
			return fmt.Errorf("language %s has %d lexemes: %w", lang.Code, n, domain.ErrConflict)
		}

		if err := s.languages.Delete(txCtx, id); err != nil {
			return fmt.Errorf("delete language: %w", err)
		}
		changes := domain.Changes{}.Diff("code", lang.Code, nil)
		return s.audit.Record(txCtx, domain.EntityTypeLanguage, id, domain.RevisionActionDelete, changes)
	})
	if err != nil {
		return err
	}

	s.log.InfoContext(ctx, "language deleted", "language_id", id)
	return nil
}
