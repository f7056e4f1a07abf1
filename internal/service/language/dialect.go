package language

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/heartmarshall/lexicon-backend/internal/domain"
)

// CreateDialect adds a dialect to a language.
func (s *Service) CreateDialect(ctx context.Context, languageID uuid.UUID, input CreateDialectInput) (*domain.Dialect, error) {
	if err := input.Validate(); err != nil {
		return nil, err
	}

	var created *domain.Dialect
	err := s.tx.RunInTx(ctx, func(txCtx context.Context) error {
		if _, err := s.languages.GetByID(txCtx, languageID); err != nil {
			return err
		}

		var err error
		created, err = s.dialects.Create(txCtx, domain.Dialect{
			ID:           uuid.New(),
			LanguageID:   languageID,
			Name:         strings.TrimSpace(input.Name),
			Abbreviation: trimOrNil(input.Abbreviation),
			CreatedAt:    s.clock(),
		})
		if err != nil {
			return fmt.Errorf("create dialect: %w", err)
		}
		return s.audit.Record(txCtx, domain.EntityTypeDialect, created.ID, domain.RevisionActionCreate,
			domain.Changes{}.Set("name", created.Name))
	})
	if err != nil {
		return nil, err
	}
	return created, nil
}

// ListDialects returns the dialects of a language ordered by name.
func (s *Service) ListDialects(ctx context.Context, languageID uuid.UUID) ([]domain.Dialect, error) {
	if _, err := s.languages.GetByID(ctx, languageID); err != nil {
		return nil, err
	}
	return s.dialects.ListByLanguage(ctx, languageID)
}

// DeleteDialect removes a dialect. Sememes lose the restriction.
func (s *Service) DeleteDialect(ctx context.Context, id uuid.UUID) error {
	return s.tx.RunInTx(ctx, func(txCtx context.Context) error {
		d, err := s.dialects.GetByID(txCtx, id)
		if err != nil {
			return err
		}
		if err := s.dialects.Delete(txCtx, id); err != nil {
			return fmt.Errorf("delete dialect: %w", err)
		}
		return s.audit.Record(txCtx, domain.EntityTypeDialect, id, domain.RevisionActionDelete,
			domain.Changes{}.Diff("name", d.Name, nil))
	})
}
