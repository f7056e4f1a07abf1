package importer

import (
	"fmt"
	"strings"

	"github.com/heartmarshall/lexicon-backend/internal/domain"
)

// LexemeCreator fills the lexeme part of a draft from a row.
type LexemeCreator interface {
	CreateLexeme(row Row, draft *Draft, msgs *Messages)
}

// VariantCreator fills the variants of a draft from a row.
type VariantCreator interface {
	CreateVariants(row Row, draft *Draft, msgs *Messages)
}

// SememeCreator fills the sememes of a draft from a row.
type SememeCreator interface {
	CreateSememes(row Row, draft *Draft, msgs *Messages)
}

// Strategies bundles the creators used to turn rows into drafts.
type Strategies struct {
	Lexeme  LexemeCreator
	Variant VariantCreator
	Sememe  SememeCreator
}

// ProfileStrategies returns the creators driven by a profile's column mapping.
func ProfileStrategies(p *Profile) Strategies {
	return Strategies{
		Lexeme:  &ProfileLexemeCreator{Profile: p},
		Variant: &ProfileVariantCreator{Profile: p},
		Sememe:  &ProfileSememeCreator{Profile: p},
	}
}

// Build runs the three creators over a row.
func (s Strategies) Build(row Row, msgs *Messages) *Draft {
	d := &Draft{Row: row.Number, Line: row.Line}
	s.Lexeme.CreateLexeme(row, d, msgs)
	s.Variant.CreateVariants(row, d, msgs)
	s.Sememe.CreateSememes(row, d, msgs)
	return d
}

// ---------------------------------------------------------------------------
// Profile-driven creators
// ---------------------------------------------------------------------------

// ProfileLexemeCreator reads part of speech, notes, tags and source.
type ProfileLexemeCreator struct {
	Profile *Profile
}

func (c *ProfileLexemeCreator) CreateLexeme(row Row, d *Draft, msgs *Messages) {
	cols := c.Profile.Columns

	raw := cell(row, cols.PartOfSpeech)
	switch {
	case raw == "":
		d.Lexeme.PartOfSpeech = string(domain.PartOfSpeechOther)
		if cols.PartOfSpeech != "" {
			msgs.Info(row, cols.PartOfSpeech, "part of speech missing, using OTHER")
		}
	default:
		if pos, ok := domain.ParsePartOfSpeech(raw); ok {
			d.Lexeme.PartOfSpeech = string(pos)
		} else {
			d.Lexeme.PartOfSpeech = raw
		}
	}

	d.Lexeme.Notes = optional(cell(row, cols.Notes))
	d.Lexeme.Source = optional(cell(row, cols.Source))
	d.Lexeme.Tags = splitList(cell(row, cols.Tags), c.Profile.ListSeparator)
}

// ProfileVariantCreator reads one variant per non-empty lemma column.
type ProfileVariantCreator struct {
	Profile *Profile
}

func (c *ProfileVariantCreator) CreateVariants(row Row, d *Draft, msgs *Messages) {
	p := c.Profile
	mainIdx := -1

	for _, vc := range p.Variants {
		lemma := cell(row, vc.Column)
		if lemma == "" {
			if pron := cell(row, vc.Pronunciation); pron != "" {
				msgs.Warning(row, vc.Pronunciation, "pronunciation without lemma ignored")
			}
			continue
		}
		d.Variants = append(d.Variants, VariantDraft{
			Column:        vc.Column,
			Orthography:   vc.Orthography,
			Lemma:         lemma,
			Pronunciation: optional(cell(row, vc.Pronunciation)),
		})
		if p.MainOrthography != "" && strings.EqualFold(vc.Orthography, p.MainOrthography) {
			mainIdx = len(d.Variants) - 1
		}
	}

	if len(d.Variants) == 0 {
		return
	}
	if mainIdx < 0 {
		if p.MainOrthography != "" {
			msgs.Warning(row, "", fmt.Sprintf("no lemma in main orthography %q, using %q", p.MainOrthography, d.Variants[0].Lemma))
		}
		mainIdx = 0
	}
	d.Variants[mainIdx].IsMain = true
}

// ProfileSememeCreator splits the sememe cells on the sememe separator and
// pairs the parts by position.
type ProfileSememeCreator struct {
	Profile *Profile
}

func (c *ProfileSememeCreator) CreateSememes(row Row, d *Draft, msgs *Messages) {
	p := c.Profile
	cols := p.Columns
	sep := p.SememeSeparator

	glosses := splitParts(cell(row, cols.Gloss), sep)
	definitions := splitParts(cell(row, cols.Definition), sep)
	examples := splitParts(cell(row, cols.Example), sep)
	translations := splitParts(cell(row, cols.ExampleTranslation), sep)
	dialects := splitParts(cell(row, cols.Dialects), sep)

	for _, extra := range []struct {
		column string
		parts  []string
	}{
		{cols.Definition, definitions},
		{cols.Example, examples},
		{cols.ExampleTranslation, translations},
		{cols.Dialects, dialects},
	} {
		if len(extra.parts) > len(glosses) {
			msgs.Warning(row, extra.column, fmt.Sprintf("%d values for %d glosses, extra values ignored", len(extra.parts), len(glosses)))
		}
	}

	for i, gloss := range glosses {
		s := SememeDraft{
			Gloss:              gloss,
			Definition:         optional(part(definitions, i)),
			Example:            optional(part(examples, i)),
			ExampleTranslation: optional(part(translations, i)),
			Dialects:           splitList(part(dialects, i), p.ListSeparator),
		}
		if s.Gloss == "" && s.Definition == nil && s.Example == nil && s.ExampleTranslation == nil && len(s.Dialects) == 0 {
			continue
		}
		d.Sememes = append(d.Sememes, s)
	}
}

// ---------------------------------------------------------------------------
// Cell helpers
// ---------------------------------------------------------------------------

func cell(row Row, column string) string {
	if column == "" {
		return ""
	}
	return row.Get(column)
}

func optional(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

func part(parts []string, i int) string {
	if i < len(parts) {
		return parts[i]
	}
	return ""
}

// splitParts splits on sep and trims each part; an empty cell yields no parts.
func splitParts(s, sep string) []string {
	if s == "" {
		return nil
	}
	parts := strings.Split(s, sep)
	for i := range parts {
		parts[i] = strings.TrimSpace(parts[i])
	}
	return parts
}

// splitList splits a list cell, dropping empty and repeated items.
func splitList(s, sep string) []string {
	out := []string{}
	seen := map[string]bool{}
	for _, item := range splitParts(s, sep) {
		if item == "" || seen[item] {
			continue
		}
		seen[item] = true
		out = append(out, item)
	}
	return out
}
