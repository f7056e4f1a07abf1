package lexicon

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/heartmarshall/lexicon-backend/internal/domain"
)

// AddSememe appends a meaning to an active lexeme.
func (s *Service) AddSememe(ctx context.Context, lexemeID uuid.UUID, input SememeInput) (*domain.Sememe, error) {
	input.normalize()
	var errs domain.FieldErrors
	input.validate(&errs, "")
	if err := errs.Err(); err != nil {
		return nil, err
	}

	var created *domain.Sememe
	err := s.tx.RunInTx(ctx, func(txCtx context.Context) error {
		lex, err := s.activeLexeme(txCtx, lexemeID)
		if err != nil {
			return err
		}
		if err := s.checkDialects(txCtx, lex.LanguageID, input.DialectIDs); err != nil {
			return err
		}
		pos, err := s.sememes.NextPosition(txCtx, lexemeID)
		if err != nil {
			return err
		}

		now := s.clock()
		created, err = s.sememes.Create(txCtx, domain.Sememe{
			ID:                 uuid.New(),
			LexemeID:           lexemeID,
			Gloss:              input.Gloss,
			Definition:         input.Definition,
			Example:            input.Example,
			ExampleTranslation: input.ExampleTranslation,
			Position:           pos,
			DialectIDs:         input.DialectIDs,
			CreatedAt:          now,
			UpdatedAt:          now,
		})
		if err != nil {
			return fmt.Errorf("create sememe: %w", err)
		}
		if err := s.lexemes.Touch(txCtx, lexemeID); err != nil {
			return err
		}
		return s.audit.Record(txCtx, domain.EntityTypeSememe, created.ID, domain.RevisionActionCreate, sememeChanges(*created))
	})
	if err != nil {
		return nil, err
	}
	return created, nil
}

// UpdateSememe applies a partial update to a sememe.
func (s *Service) UpdateSememe(ctx context.Context, id uuid.UUID, input UpdateSememeInput) (*domain.Sememe, error) {
	if err := input.Validate(); err != nil {
		return nil, err
	}
	params := input.params()

	var updated *domain.Sememe
	err := s.tx.RunInTx(ctx, func(txCtx context.Context) error {
		before, err := s.sememes.GetByID(txCtx, id)
		if err != nil {
			return err
		}
		lex, err := s.activeLexeme(txCtx, before.LexemeID)
		if err != nil {
			return err
		}
		if params.DialectIDs != nil {
			if err := s.checkDialects(txCtx, lex.LanguageID, *params.DialectIDs); err != nil {
				return err
			}
		}

		updated, err = s.sememes.Update(txCtx, id, params)
		if err != nil {
			return fmt.Errorf("update sememe: %w", err)
		}

		changes := domain.Changes{}.
			Diff("gloss", before.Gloss, updated.Gloss).
			DiffPtr("definition", before.Definition, updated.Definition).
			DiffPtr("example", before.Example, updated.Example).
			DiffPtr("example_translation", before.ExampleTranslation, updated.ExampleTranslation)
		if !sameIDs(before.DialectIDs, updated.DialectIDs) {
			changes.Diff("dialect_ids", before.DialectIDs, updated.DialectIDs)
		}
		if len(changes) == 0 {
			return nil
		}
		if err := s.lexemes.Touch(txCtx, before.LexemeID); err != nil {
			return err
		}
		return s.audit.Record(txCtx, domain.EntityTypeSememe, id, domain.RevisionActionUpdate, changes)
	})
	if err != nil {
		return nil, err
	}
	return updated, nil
}

// DeleteSememe removes a sememe.
func (s *Service) DeleteSememe(ctx context.Context, id uuid.UUID) error {
	return s.tx.RunInTx(ctx, func(txCtx context.Context) error {
		sm, err := s.sememes.GetByID(txCtx, id)
		if err != nil {
			return err
		}
		if _, err := s.activeLexeme(txCtx, sm.LexemeID); err != nil {
			return err
		}
		if err := s.sememes.Delete(txCtx, id); err != nil {
			return err
		}
		if err := s.lexemes.Touch(txCtx, sm.LexemeID); err != nil {
			return err
		}
		return s.audit.Record(txCtx, domain.EntityTypeSememe, id, domain.RevisionActionDelete,
			domain.Changes{}.Diff("gloss", sm.Gloss, nil))
	})
}

// ReorderSememes assigns new positions to sememes of a lexeme and returns the
// sememes in their new order.
func (s *Service) ReorderSememes(ctx context.Context, lexemeID uuid.UUID, input ReorderSememesInput) ([]domain.Sememe, error) {
	if err := input.Validate(); err != nil {
		return nil, err
	}

	var result []domain.Sememe
	err := s.tx.RunInTx(ctx, func(txCtx context.Context) error {
		if _, err := s.activeLexeme(txCtx, lexemeID); err != nil {
			return err
		}
		current, err := s.sememes.ListByLexeme(txCtx, lexemeID)
		if err != nil {
			return fmt.Errorf("list sememes: %w", err)
		}
		positions := make(map[uuid.UUID]int, len(current))
		for _, sm := range current {
			positions[sm.ID] = sm.Position
		}

		var errs domain.FieldErrors
		var revs []domain.Revision
		for k, it := range input.Items {
			old, ok := positions[it.ID]
			if !ok {
				errs.Add(domain.FieldIndex("items", k, "id"), "not a sememe of the lexeme")
				continue
			}
			if old != it.Position {
				revs = append(revs, s.audit.New(txCtx, domain.EntityTypeSememe, it.ID, domain.RevisionActionUpdate,
					domain.Changes{}.Diff("position", old, it.Position)))
			}
		}
		if err := errs.Err(); err != nil {
			return err
		}
		if len(revs) == 0 {
			result = current
			return nil
		}

		if err := s.sememes.Reorder(txCtx, lexemeID, input.Items); err != nil {
			return err
		}
		if err := s.lexemes.Touch(txCtx, lexemeID); err != nil {
			return err
		}
		if err := s.audit.RecordBatch(txCtx, revs); err != nil {
			return err
		}
		result, err = s.sememes.ListByLexeme(txCtx, lexemeID)
		return err
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

func (s *Service) checkDialects(ctx context.Context, languageID uuid.UUID, ids []uuid.UUID) error {
	if len(ids) == 0 {
		return nil
	}
	refs, err := s.loadRefs(ctx, languageID)
	if err != nil {
		return err
	}
	var errs domain.FieldErrors
	refs.checkDialects(&errs, "dialect_ids", ids)
	return errs.Err()
}

func sameIDs(a, b []uuid.UUID) bool {
	if len(a) != len(b) {
		return false
	}
	set := make(map[uuid.UUID]bool, len(a))
	for _, id := range a {
		set[id] = true
	}
	for _, id := range b {
		if !set[id] {
			return false
		}
	}
	return true
}
