package language

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/heartmarshall/lexicon-backend/internal/domain"
)

// CreateOrthography adds a writing system to a language. The first
// orthography of a language becomes its default; a new default replaces the
// old one in the same transaction.
func (s *Service) CreateOrthography(ctx context.Context, languageID uuid.UUID, input CreateOrthographyInput) (*domain.Orthography, error) {
	if err := input.Validate(); err != nil {
		return nil, err
	}

	var created *domain.Orthography
	err := s.tx.RunInTx(ctx, func(txCtx context.Context) error {
		if _, err := s.languages.GetByID(txCtx, languageID); err != nil {
			return err
		}

		existing, err := s.orthographies.ListByLanguage(txCtx, languageID)
		if err != nil {
			return fmt.Errorf("list orthographies: %w", err)
		}
		isDefault := input.IsDefault || len(existing) == 0
		if isDefault && len(existing) > 0 {
			if err := s.orthographies.ClearDefault(txCtx, languageID); err != nil {
				return err
			}
		}

		created, err = s.orthographies.Create(txCtx, domain.Orthography{
			ID:           uuid.New(),
			LanguageID:   languageID,
			Name:         strings.TrimSpace(input.Name),
			Abbreviation: strings.TrimSpace(input.Abbreviation),
			Description:  trimOrNil(input.Description),
			IsDefault:    isDefault,
			CreatedAt:    s.clock(),
		})
		if err != nil {
			return fmt.Errorf("create orthography: %w", err)
		}

		changes := domain.Changes{}.
			Set("abbreviation", created.Abbreviation).
			Set("name", created.Name).
			Set("is_default", created.IsDefault)
		return s.audit.Record(txCtx, domain.EntityTypeOrthography, created.ID, domain.RevisionActionCreate, changes)
	})
	if err != nil {
		return nil, err
	}
	return created, nil
}

// ListOrthographies returns the orthographies of a language, default first.
func (s *Service) ListOrthographies(ctx context.Context, languageID uuid.UUID) ([]domain.Orthography, error) {
	if _, err := s.languages.GetByID(ctx, languageID); err != nil {
		return nil, err
	}
	return s.orthographies.ListByLanguage(ctx, languageID)
}

// UpdateOrthography applies a partial update. Setting IsDefault clears the
// previous default of the language.
func (s *Service) UpdateOrthography(ctx context.Context, id uuid.UUID, input UpdateOrthographyInput) (*domain.Orthography, error) {
	if err := input.Validate(); err != nil {
		return nil, err
	}

	var updated *domain.Orthography
	err := s.tx.RunInTx(ctx, func(txCtx context.Context) error {
		before, err := s.orthographies.GetByID(txCtx, id)
		if err != nil {
			return err
		}

		if input.IsDefault != nil && *input.IsDefault && !before.IsDefault {
			if err := s.orthographies.ClearDefault(txCtx, before.LanguageID); err != nil {
				return err
			}
		}

		updated, err = s.orthographies.Update(txCtx, id, domain.OrthographyUpdateParams{
			Name:         trimPtr(input.Name),
			Abbreviation: trimPtr(input.Abbreviation),
			Description:  trimPtr(input.Description),
			IsDefault:    input.IsDefault,
		})
		if err != nil {
			return fmt.Errorf("update orthography: %w", err)
		}

		changes := domain.Changes{}.
			Diff("name", before.Name, updated.Name).
			Diff("abbreviation", before.Abbreviation, updated.Abbreviation).
			DiffPtr("description", before.Description, updated.Description).
			Diff("is_default", before.IsDefault, updated.IsDefault)
		if len(changes) == 0 {
			return nil
		}
		return s.audit.Record(txCtx, domain.EntityTypeOrthography, id, domain.RevisionActionUpdate, changes)
	})
	if err != nil {
		return nil, err
	}
	return updated, nil
}

// DeleteOrthography removes an orthography no variant uses.
func (s *Service) DeleteOrthography(ctx context.Context, id uuid.UUID) error {
	return s.tx.RunInTx(ctx, func(txCtx context.Context) error {
		orth, err := s.orthographies.GetByID(txCtx, id)
		if err != nil {
			return err
		}

		n, err := s.variants.CountByOrthography(txCtx, id)
		if err != nil {
			return fmt.Errorf("count variants: %w", err)
		}
		if n > 0 {
			return fmt.Errorf("orthography %s is used by %d variants: %w", orth.Abbreviation, n, domain.ErrConflict)
		}

		if err := s.orthographies.Delete(txCtx, id); err != nil {
			return fmt.Errorf("delete orthography: %w", err)
		}
		changes := domain.Changes{}.Diff("abbreviation", orth.Abbreviation, nil)
		return s.audit.Record(txCtx, domain.EntityTypeOrthography, id, domain.RevisionActionDelete, changes)
	})
}
