package lexicon

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/heartmarshall/lexicon-backend/internal/domain"
)

// AddVariant adds a written form to an active lexeme. The first variant of a
// lexeme, or one marked IsMain, becomes the main variant.
func (s *Service) AddVariant(ctx context.Context, lexemeID uuid.UUID, input VariantInput) (*domain.Variant, error) {
	input.normalize()
	var errs domain.FieldErrors
	input.validate(&errs, "")
	if err := errs.Err(); err != nil {
		return nil, err
	}

	var created *domain.Variant
	err := s.tx.RunInTx(ctx, func(txCtx context.Context) error {
		lex, err := s.activeLexeme(txCtx, lexemeID)
		if err != nil {
			return err
		}
		refs, err := s.loadRefs(txCtx, lex.LanguageID)
		if err != nil {
			return err
		}
		orthID, ok := refs.orthography(input.OrthographyID)
		if !ok {
			return domain.NewValidationError("orthography_id", "orthography does not belong to the language")
		}

		siblings, err := s.variants.ListByLexeme(txCtx, lexemeID)
		if err != nil {
			return fmt.Errorf("list variants: %w", err)
		}
		norm := domain.NormalizeText(input.Lemma)
		if hasLemma(siblings, uuid.Nil, orthID, norm) {
			return domain.NewValidationError("lemma", "duplicate lemma in the same orthography")
		}
		pos, err := s.variants.NextPosition(txCtx, lexemeID)
		if err != nil {
			return err
		}

		created, err = s.variants.Create(txCtx, domain.Variant{
			ID:              uuid.New(),
			LexemeID:        lexemeID,
			OrthographyID:   orthID,
			Lemma:           input.Lemma,
			LemmaNormalized: norm,
			Pronunciation:   input.Pronunciation,
			Position:        pos,
			CreatedAt:       s.clock(),
		})
		if err != nil {
			return fmt.Errorf("create variant: %w", err)
		}

		revs := []domain.Revision{}
		if input.IsMain || len(siblings) == 0 {
			if err := s.variants.SetMain(txCtx, lexemeID, created.ID); err != nil {
				return err
			}
			created.IsMain = true
			if prev := mainOf(siblings); prev != nil {
				revs = append(revs, s.audit.New(txCtx, domain.EntityTypeVariant, prev.ID, domain.RevisionActionUpdate,
					domain.Changes{}.Diff("is_main", true, false)))
			}
		}
		revs = append(revs, s.audit.New(txCtx, domain.EntityTypeVariant, created.ID, domain.RevisionActionCreate, variantChanges(*created)))

		if err := s.lexemes.Touch(txCtx, lexemeID); err != nil {
			return err
		}
		return s.audit.RecordBatch(txCtx, revs)
	})
	if err != nil {
		return nil, err
	}
	return created, nil
}

// UpdateVariant changes the lemma, orthography or pronunciation of a variant.
func (s *Service) UpdateVariant(ctx context.Context, id uuid.UUID, input UpdateVariantInput) (*domain.Variant, error) {
	if err := input.Validate(); err != nil {
		return nil, err
	}

	var updated *domain.Variant
	err := s.tx.RunInTx(ctx, func(txCtx context.Context) error {
		before, err := s.variants.GetByID(txCtx, id)
		if err != nil {
			return err
		}
		lex, err := s.activeLexeme(txCtx, before.LexemeID)
		if err != nil {
			return err
		}

		params := domain.VariantUpdateParams{
			OrthographyID: input.OrthographyID,
			Lemma:         trimPtr(input.Lemma),
			Pronunciation: trimPtr(input.Pronunciation),
		}
		orthID := before.OrthographyID
		if params.OrthographyID != nil && *params.OrthographyID != before.OrthographyID {
			refs, err := s.loadRefs(txCtx, lex.LanguageID)
			if err != nil {
				return err
			}
			if _, ok := refs.orthography(*params.OrthographyID); !ok {
				return domain.NewValidationError("orthography_id", "orthography does not belong to the language")
			}
			orthID = *params.OrthographyID
		}

		norm := before.LemmaNormalized
		var normPtr *string
		if params.Lemma != nil {
			norm = domain.NormalizeText(*params.Lemma)
			normPtr = &norm
		}
		if orthID != before.OrthographyID || norm != before.LemmaNormalized {
			siblings, err := s.variants.ListByLexeme(txCtx, before.LexemeID)
			if err != nil {
				return fmt.Errorf("list variants: %w", err)
			}
			if hasLemma(siblings, id, orthID, norm) {
				return domain.NewValidationError("lemma", "duplicate lemma in the same orthography")
			}
		}

		updated, err = s.variants.Update(txCtx, id, params, normPtr)
		if err != nil {
			return fmt.Errorf("update variant: %w", err)
		}

		changes := domain.Changes{}.
			Diff("orthography_id", before.OrthographyID, updated.OrthographyID).
			Diff("lemma", before.Lemma, updated.Lemma).
			DiffPtr("pronunciation", before.Pronunciation, updated.Pronunciation)
		if len(changes) == 0 {
			return nil
		}
		if err := s.lexemes.Touch(txCtx, before.LexemeID); err != nil {
			return err
		}
		return s.audit.Record(txCtx, domain.EntityTypeVariant, id, domain.RevisionActionUpdate, changes)
	})
	if err != nil {
		return nil, err
	}
	return updated, nil
}

// DeleteVariant removes a variant. The last variant of a lexeme cannot be
// deleted; deleting the main variant promotes the next one by position.
func (s *Service) DeleteVariant(ctx context.Context, id uuid.UUID) error {
	return s.tx.RunInTx(ctx, func(txCtx context.Context) error {
		v, err := s.variants.GetByID(txCtx, id)
		if err != nil {
			return err
		}
		if _, err := s.activeLexeme(txCtx, v.LexemeID); err != nil {
			return err
		}

		siblings, err := s.variants.ListByLexeme(txCtx, v.LexemeID)
		if err != nil {
			return fmt.Errorf("list variants: %w", err)
		}
		if len(siblings) <= 1 {
			return fmt.Errorf("cannot delete the last variant of lexeme %s: %w", v.LexemeID, domain.ErrConflict)
		}

		if err := s.variants.Delete(txCtx, id); err != nil {
			return err
		}
		revs := []domain.Revision{
			s.audit.New(txCtx, domain.EntityTypeVariant, id, domain.RevisionActionDelete,
				domain.Changes{}.Diff("lemma", v.Lemma, nil)),
		}

		if v.IsMain {
			next := nextByPosition(siblings, id)
			if err := s.variants.SetMain(txCtx, v.LexemeID, next.ID); err != nil {
				return err
			}
			revs = append(revs, s.audit.New(txCtx, domain.EntityTypeVariant, next.ID, domain.RevisionActionUpdate,
				domain.Changes{}.Diff("is_main", false, true)))
		}

		if err := s.lexemes.Touch(txCtx, v.LexemeID); err != nil {
			return err
		}
		return s.audit.RecordBatch(txCtx, revs)
	})
}

// SetMainVariant makes a variant the main form of its lexeme.
func (s *Service) SetMainVariant(ctx context.Context, id uuid.UUID) (*domain.Variant, error) {
	var result *domain.Variant
	err := s.tx.RunInTx(ctx, func(txCtx context.Context) error {
		v, err := s.variants.GetByID(txCtx, id)
		if err != nil {
			return err
		}
		if _, err := s.activeLexeme(txCtx, v.LexemeID); err != nil {
			return err
		}
		result = v
		if v.IsMain {
			return nil
		}

		siblings, err := s.variants.ListByLexeme(txCtx, v.LexemeID)
		if err != nil {
			return fmt.Errorf("list variants: %w", err)
		}
		if err := s.variants.SetMain(txCtx, v.LexemeID, id); err != nil {
			return err
		}
		result.IsMain = true

		var revs []domain.Revision
		if prev := mainOf(siblings); prev != nil {
			revs = append(revs, s.audit.New(txCtx, domain.EntityTypeVariant, prev.ID, domain.RevisionActionUpdate,
				domain.Changes{}.Diff("is_main", true, false)))
		}
		revs = append(revs, s.audit.New(txCtx, domain.EntityTypeVariant, id, domain.RevisionActionUpdate,
			domain.Changes{}.Diff("is_main", false, true)))

		if err := s.lexemes.Touch(txCtx, v.LexemeID); err != nil {
			return err
		}
		return s.audit.RecordBatch(txCtx, revs)
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

// hasLemma reports whether a variant other than except already has the
// normalized lemma in the orthography.
func hasLemma(variants []domain.Variant, except, orthID uuid.UUID, normalized string) bool {
	for _, v := range variants {
		if v.ID != except && v.OrthographyID == orthID && strings.EqualFold(v.LemmaNormalized, normalized) {
			return true
		}
	}
	return false
}

func mainOf(variants []domain.Variant) *domain.Variant {
	for i := range variants {
		if variants[i].IsMain {
			return &variants[i]
		}
	}
	return nil
}

// nextByPosition returns the variant with the lowest position other than
// except. Callers guarantee one exists.
func nextByPosition(variants []domain.Variant, except uuid.UUID) *domain.Variant {
	var next *domain.Variant
	for i := range variants {
		v := &variants[i]
		if v.ID == except {
			continue
		}
		if next == nil || v.Position < next.Position {
			next = v
		}
	}
	return next
}
