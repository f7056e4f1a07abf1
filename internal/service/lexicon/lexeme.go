package lexicon

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/heartmarshall/lexicon-backend/internal/domain"
	"github.com/heartmarshall/lexicon-backend/internal/metrics"
)

// CreateLexeme creates a lexeme with its variants and sememes in one
// transaction. When no variant is marked main, the first one becomes main.
func (s *Service) CreateLexeme(ctx context.Context, input CreateLexemeInput) (*domain.LexemeDetail, error) {
	input.Normalize()
	if err := input.Validate(); err != nil {
		return nil, err
	}

	var detail *domain.LexemeDetail
	err := s.tx.RunInTx(ctx, func(txCtx context.Context) error {
		if _, err := s.languages.GetByID(txCtx, input.LanguageID); err != nil {
			return err
		}
		refs, err := s.loadRefs(txCtx, input.LanguageID)
		if err != nil {
			return err
		}

		now := s.clock()
		lexID := uuid.New()
		variants, err := buildVariants(refs, lexID, now, input.Variants)
		if err != nil {
			return err
		}
		sememes, err := buildSememes(refs, lexID, now, input.Sememes)
		if err != nil {
			return err
		}

		pos := domain.PartOfSpeech(input.PartOfSpeech)
		if pos == "" {
			pos = domain.PartOfSpeechOther
		}
		lex, err := s.lexemes.Create(txCtx, domain.Lexeme{
			ID:           lexID,
			LanguageID:   input.LanguageID,
			PartOfSpeech: pos,
			Notes:        input.Notes,
			Tags:         input.Tags,
			Source:       input.Source,
			CreatedAt:    now,
			UpdatedAt:    now,
		})
		if err != nil {
			return fmt.Errorf("create lexeme: %w", err)
		}
		if err := s.variants.CreateBatch(txCtx, variants); err != nil {
			return fmt.Errorf("create variants: %w", err)
		}
		if len(sememes) > 0 {
			if err := s.sememes.CreateBatch(txCtx, sememes); err != nil {
				return fmt.Errorf("create sememes: %w", err)
			}
		}

		revs := make([]domain.Revision, 0, 1+len(variants)+len(sememes))
		revs = append(revs, s.audit.New(txCtx, domain.EntityTypeLexeme, lex.ID, domain.RevisionActionCreate,
			domain.Changes{}.
				Set("part_of_speech", lex.PartOfSpeech).
				Set("lemma", mainLemma(variants)).
				Set("tags", lex.Tags)))
		for _, v := range variants {
			revs = append(revs, s.audit.New(txCtx, domain.EntityTypeVariant, v.ID, domain.RevisionActionCreate, variantChanges(v)))
		}
		for _, sm := range sememes {
			revs = append(revs, s.audit.New(txCtx, domain.EntityTypeSememe, sm.ID, domain.RevisionActionCreate, sememeChanges(sm)))
		}
		if err := s.audit.RecordBatch(txCtx, revs); err != nil {
			return err
		}

		detail = &domain.LexemeDetail{Lexeme: *lex, Variants: variants, Sememes: sememes}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.log.DebugContext(ctx, "lexeme created", "lexeme_id", detail.ID, "variants", len(detail.Variants), "sememes", len(detail.Sememes))
	return detail, nil
}

// GetLexeme returns a lexeme with its variants and sememes. Soft-deleted
// lexemes are returned too, with DeletedAt set.
func (s *Service) GetLexeme(ctx context.Context, id uuid.UUID) (*domain.LexemeDetail, error) {
	lex, err := s.lexemes.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	detail := &domain.LexemeDetail{Lexeme: *lex}
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		detail.Variants, err = s.variants.ListByLexeme(gctx, id)
		if err != nil {
			return fmt.Errorf("list variants: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		var err error
		detail.Sememes, err = s.sememes.ListByLexeme(gctx, id)
		if err != nil {
			return fmt.Errorf("list sememes: %w", err)
		}
		return nil
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return detail, nil
}

// FindResult is one page of lexemes and the total number of matches.
type FindResult struct {
	Lexemes []domain.Lexeme
	Total   int
	Limit   int
	Offset  int
}

// FindLexemes searches lexemes. Variants and sememes are not loaded; use
// VariantsByLexemeIDs and SememesByLexemeIDs.
func (s *Service) FindLexemes(ctx context.Context, filter domain.LexemeFilter) (*FindResult, error) {
	if err := s.normalizeFilter(&filter); err != nil {
		return nil, err
	}
	lexemes, total, err := s.lexemes.Find(ctx, filter)
	if err != nil {
		return nil, err
	}
	return &FindResult{Lexemes: lexemes, Total: total, Limit: filter.Limit, Offset: filter.Offset}, nil
}

func (s *Service) normalizeFilter(f *domain.LexemeFilter) error {
	var errs domain.FieldErrors

	f.SortBy = strings.ToLower(strings.TrimSpace(f.SortBy))
	switch f.SortBy {
	case "":
		f.SortBy = "lemma"
	case "lemma", "created_at", "updated_at":
	default:
		errs.Add("sort_by", "must be lemma, created_at or updated_at")
	}
	f.SortOrder = strings.ToUpper(strings.TrimSpace(f.SortOrder))
	switch f.SortOrder {
	case "":
		f.SortOrder = "ASC"
	case "ASC", "DESC":
	default:
		errs.Add("sort_order", "must be asc or desc")
	}
	if f.PartOfSpeech != nil && !f.PartOfSpeech.IsValid() {
		errs.Add("part_of_speech", "unknown part of speech")
	}
	if f.Offset < 0 {
		errs.Add("offset", "must be >= 0")
	}
	if f.Limit < 0 {
		errs.Add("limit", "must be >= 0")
	}
	if f.Search != nil && strings.TrimSpace(*f.Search) == "" {
		f.Search = nil
	}
	if f.Tag != nil {
		if t := strings.TrimSpace(*f.Tag); t == "" {
			f.Tag = nil
		} else {
			f.Tag = &t
		}
	}

	switch {
	case f.Limit == 0:
		f.Limit = s.cfg.DefaultPageSize
	case f.Limit > s.cfg.MaxPageSize:
		f.Limit = s.cfg.MaxPageSize
	}
	return errs.Err()
}

// VariantsByLexemeIDs batch-loads variants grouped by lexeme.
func (s *Service) VariantsByLexemeIDs(ctx context.Context, ids []uuid.UUID) (map[uuid.UUID][]domain.Variant, error) {
	variants, err := s.variants.ListByLexemeIDs(ctx, ids)
	if err != nil {
		return nil, err
	}
	out := make(map[uuid.UUID][]domain.Variant, len(ids))
	for _, v := range variants {
		out[v.LexemeID] = append(out[v.LexemeID], v)
	}
	return out, nil
}

// SememesByLexemeIDs batch-loads sememes grouped by lexeme.
func (s *Service) SememesByLexemeIDs(ctx context.Context, ids []uuid.UUID) (map[uuid.UUID][]domain.Sememe, error) {
	sememes, err := s.sememes.ListByLexemeIDs(ctx, ids)
	if err != nil {
		return nil, err
	}
	out := make(map[uuid.UUID][]domain.Sememe, len(ids))
	for _, sm := range sememes {
		out[sm.LexemeID] = append(out[sm.LexemeID], sm)
	}
	return out, nil
}

// UpdateLexeme applies a partial update to an active lexeme.
func (s *Service) UpdateLexeme(ctx context.Context, id uuid.UUID, input UpdateLexemeInput) (*domain.Lexeme, error) {
	if err := input.Validate(); err != nil {
		return nil, err
	}

	var updated *domain.Lexeme
	err := s.tx.RunInTx(ctx, func(txCtx context.Context) error {
		before, err := s.activeLexeme(txCtx, id)
		if err != nil {
			return err
		}
		updated, err = s.lexemes.Update(txCtx, id, input.params())
		if err != nil {
			return fmt.Errorf("update lexeme: %w", err)
		}

		changes := domain.Changes{}.
			Diff("part_of_speech", string(before.PartOfSpeech), string(updated.PartOfSpeech)).
			DiffPtr("notes", before.Notes, updated.Notes).
			Diff("tags", before.Tags, updated.Tags).
			DiffPtr("source", before.Source, updated.Source)
		if len(changes) == 0 {
			return nil
		}
		return s.audit.Record(txCtx, domain.EntityTypeLexeme, id, domain.RevisionActionUpdate, changes)
	})
	if err != nil {
		return nil, err
	}
	return updated, nil
}

// DeleteLexeme soft-deletes a lexeme.
func (s *Service) DeleteLexeme(ctx context.Context, id uuid.UUID) error {
	return s.tx.RunInTx(ctx, func(txCtx context.Context) error {
		if err := s.lexemes.SoftDelete(txCtx, id); err != nil {
			return err
		}
		return s.audit.Record(txCtx, domain.EntityTypeLexeme, id, domain.RevisionActionDelete, nil)
	})
}

// RestoreLexeme undoes a soft delete.
func (s *Service) RestoreLexeme(ctx context.Context, id uuid.UUID) (*domain.Lexeme, error) {
	var restored *domain.Lexeme
	err := s.tx.RunInTx(ctx, func(txCtx context.Context) error {
		var err error
		restored, err = s.lexemes.Restore(txCtx, id)
		if err != nil {
			return err
		}
		return s.audit.Record(txCtx, domain.EntityTypeLexeme, id, domain.RevisionActionRestore, nil)
	})
	if err != nil {
		return nil, err
	}
	return restored, nil
}

// PurgeDeleted permanently removes lexemes soft-deleted before threshold.
// A zero threshold uses the configured retention period.
func (s *Service) PurgeDeleted(ctx context.Context, threshold time.Time) (int64, error) {
	if threshold.IsZero() {
		threshold = s.clock().AddDate(0, 0, -s.cfg.PurgeRetentionDays)
	}
	n, err := s.lexemes.PurgeDeleted(ctx, threshold)
	if err != nil {
		return 0, err
	}
	metrics.LexemesPurged(n)
	s.log.InfoContext(ctx, "purged deleted lexemes", "count", n, "threshold", threshold)
	return n, nil
}

// ---------------------------------------------------------------------------
// Builders
// ---------------------------------------------------------------------------

// buildVariants resolves orthographies, rejects foreign orthographies and
// repeated lemmas, and picks the main variant.
func buildVariants(refs *languageRefs, lexID uuid.UUID, now time.Time, inputs []VariantInput) ([]domain.Variant, error) {
	var errs domain.FieldErrors
	type lemmaKey struct {
		orth  uuid.UUID
		lemma string
	}
	seen := make(map[lemmaKey]bool, len(inputs))
	hasMain := false

	out := make([]domain.Variant, 0, len(inputs))
	for i, in := range inputs {
		orthID, ok := refs.orthography(in.OrthographyID)
		if !ok {
			field := domain.FieldIndex("variants", i, "orthography_id")
			if in.OrthographyID == uuid.Nil {
				errs.Add(field, "language has no default orthography")
			} else {
				errs.Add(field, "orthography does not belong to the language")
			}
			continue
		}
		norm := domain.NormalizeText(in.Lemma)
		key := lemmaKey{orthID, norm}
		if seen[key] {
			errs.Add(domain.FieldIndex("variants", i, "lemma"), "duplicate lemma in the same orthography")
		}
		seen[key] = true
		hasMain = hasMain || in.IsMain

		out = append(out, domain.Variant{
			ID:              uuid.New(),
			LexemeID:        lexID,
			OrthographyID:   orthID,
			Lemma:           in.Lemma,
			LemmaNormalized: norm,
			Pronunciation:   in.Pronunciation,
			IsMain:          in.IsMain,
			Position:        i,
			CreatedAt:       now,
		})
	}
	if err := errs.Err(); err != nil {
		return nil, err
	}
	if !hasMain && len(out) > 0 {
		out[0].IsMain = true
	}
	return out, nil
}

func buildSememes(refs *languageRefs, lexID uuid.UUID, now time.Time, inputs []SememeInput) ([]domain.Sememe, error) {
	var errs domain.FieldErrors
	out := make([]domain.Sememe, 0, len(inputs))
	for i, in := range inputs {
		refs.checkDialects(&errs, domain.FieldIndex("sememes", i, "dialect_ids"), in.DialectIDs)
		out = append(out, domain.Sememe{
			ID:                 uuid.New(),
			LexemeID:           lexID,
			Gloss:              in.Gloss,
			Definition:         in.Definition,
			Example:            in.Example,
			ExampleTranslation: in.ExampleTranslation,
			Position:           i,
			DialectIDs:         in.DialectIDs,
			CreatedAt:          now,
			UpdatedAt:          now,
		})
	}
	if err := errs.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

func mainLemma(variants []domain.Variant) string {
	for _, v := range variants {
		if v.IsMain {
			return v.Lemma
		}
	}
	return ""
}

func variantChanges(v domain.Variant) domain.Changes {
	c := domain.Changes{}.
		Set("lexeme_id", v.LexemeID).
		Set("orthography_id", v.OrthographyID).
		Set("lemma", v.Lemma).
		Set("is_main", v.IsMain)
	if v.Pronunciation != nil {
		c.Set("pronunciation", *v.Pronunciation)
	}
	return c
}

func sememeChanges(sm domain.Sememe) domain.Changes {
	c := domain.Changes{}.
		Set("lexeme_id", sm.LexemeID).
		Set("gloss", sm.Gloss).
		Set("position", sm.Position)
	if sm.Definition != nil {
		c.Set("definition", *sm.Definition)
	}
	if len(sm.DialectIDs) > 0 {
		c.Set("dialect_ids", sm.DialectIDs)
	}
	return c
}
