package lexicon

import (
	"context"
	"fmt"
	"io"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/heartmarshall/lexicon-backend/internal/domain"
	"github.com/heartmarshall/lexicon-backend/internal/importer"
)

const exportChunkSize = 500

// ExportResult summarizes an export.
type ExportResult struct {
	Rows int
	// DroppedVariants counts variants whose orthography has no column in the profile.
	DroppedVariants int
	// Issues lists lexemes that will not import back unchanged.
	Issues []importer.ExportIssue
}

// ExportCSV writes every active lexeme of a language as CSV in the profile's
// layout, so the output can be imported again with the same profile.
func (s *Service) ExportCSV(ctx context.Context, languageID uuid.UUID, profile *importer.Profile, w io.Writer) (*ExportResult, error) {
	if profile == nil {
		profile = importer.DefaultProfile()
	}
	if _, err := s.languages.GetByID(ctx, languageID); err != nil {
		return nil, err
	}

	var (
		orths    []domain.Orthography
		dialects []domain.Dialect
		lexemes  []domain.Lexeme
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		orths, err = s.orthographies.ListByLanguage(gctx, languageID)
		if err != nil {
			return fmt.Errorf("list orthographies: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		var err error
		dialects, err = s.dialects.ListByLanguage(gctx, languageID)
		if err != nil {
			return fmt.Errorf("list dialects: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		var err error
		lexemes, err = s.lexemes.ListActiveByLanguage(gctx, languageID)
		if err != nil {
			return fmt.Errorf("list lexemes: %w", err)
		}
		return nil
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	enc, err := importer.NewEncoder(w, profile, orths, dialects)
	if err != nil {
		return nil, domain.NewValidationError("profile", err.Error())
	}
	if err := enc.WriteHeader(); err != nil {
		return nil, fmt.Errorf("write header: %w", err)
	}

	res := &ExportResult{}
	for start := 0; start < len(lexemes); start += exportChunkSize {
		chunk := lexemes[start:min(start+exportChunkSize, len(lexemes))]
		if err := s.exportChunk(ctx, enc, chunk); err != nil {
			return nil, err
		}
		res.Rows += len(chunk)
	}
	if err := enc.Flush(); err != nil {
		return nil, fmt.Errorf("flush csv: %w", err)
	}
	res.DroppedVariants = enc.Dropped()
	res.Issues = enc.Issues()
	for _, is := range res.Issues {
		s.log.WarnContext(ctx, "exported lexeme will not import back unchanged",
			"lexeme_id", is.LexemeID, "lemma", is.Lemma, "kind", is.Kind, "column", is.Column, "detail", is.Text)
	}

	s.log.InfoContext(ctx, "lexicon exported",
		"language_id", languageID, "profile", profile.Name, "rows", res.Rows,
		"dropped_variants", res.DroppedVariants, "issues", len(res.Issues))
	return res, nil
}

func (s *Service) exportChunk(ctx context.Context, enc *importer.Encoder, chunk []domain.Lexeme) error {
	ids := make([]uuid.UUID, len(chunk))
	for i, l := range chunk {
		ids[i] = l.ID
	}

	var (
		variants map[uuid.UUID][]domain.Variant
		sememes  map[uuid.UUID][]domain.Sememe
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		variants, err = s.VariantsByLexemeIDs(gctx, ids)
		if err != nil {
			return fmt.Errorf("list variants: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		var err error
		sememes, err = s.SememesByLexemeIDs(gctx, ids)
		if err != nil {
			return fmt.Errorf("list sememes: %w", err)
		}
		return nil
	})
	if err := g.Wait(); err != nil {
		return err
	}

	for _, l := range chunk {
		detail := domain.LexemeDetail{Lexeme: l, Variants: variants[l.ID], Sememes: sememes[l.ID]}
		if err := enc.Write(detail); err != nil {
			return fmt.Errorf("write lexeme %s: %w", l.ID, err)
		}
	}
	return nil
}
