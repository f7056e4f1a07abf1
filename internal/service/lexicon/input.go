package lexicon

import (
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/google/uuid"

	"github.com/heartmarshall/lexicon-backend/internal/domain"
)

const (
	maxVariants      = 20
	maxSememes       = 50
	maxTags          = 50
	maxTagLen        = 100
	maxLemmaLen      = 500
	maxGlossLen      = 1000
	maxTextLen       = 5000
	maxSourceLen     = 500
	maxSememeDialect = 20
)

// VariantInput describes a written form. A zero OrthographyID selects the
// language's default orthography.
type VariantInput struct {
	OrthographyID uuid.UUID
	Lemma         string
	Pronunciation *string
	IsMain        bool
}

func (v *VariantInput) normalize() {
	v.Lemma = strings.TrimSpace(v.Lemma)
	v.Pronunciation = trimOrNil(v.Pronunciation)
}

func (v *VariantInput) validate(errs *domain.FieldErrors, prefix string) {
	field := func(name string) string {
		if prefix == "" {
			return name
		}
		return prefix + "." + name
	}
	if v.Lemma == "" {
		errs.Add(field("lemma"), "required")
	} else if utf8.RuneCountInString(v.Lemma) > maxLemmaLen {
		errs.Add(field("lemma"), fmt.Sprintf("max %d characters", maxLemmaLen))
	}
	checkLen(errs, field("pronunciation"), v.Pronunciation, maxLemmaLen)
}

// SememeInput describes a meaning.
type SememeInput struct {
	Gloss              string
	Definition         *string
	Example            *string
	ExampleTranslation *string
	DialectIDs         []uuid.UUID
}

func (s *SememeInput) normalize() {
	s.Gloss = strings.TrimSpace(s.Gloss)
	s.Definition = trimOrNil(s.Definition)
	s.Example = trimOrNil(s.Example)
	s.ExampleTranslation = trimOrNil(s.ExampleTranslation)
	s.DialectIDs = uniqueIDs(s.DialectIDs)
}

func (s *SememeInput) validate(errs *domain.FieldErrors, prefix string) {
	field := func(name string) string {
		if prefix == "" {
			return name
		}
		return prefix + "." + name
	}
	if s.Gloss == "" {
		errs.Add(field("gloss"), "required")
	} else if utf8.RuneCountInString(s.Gloss) > maxGlossLen {
		errs.Add(field("gloss"), fmt.Sprintf("max %d characters", maxGlossLen))
	}
	checkLen(errs, field("definition"), s.Definition, maxTextLen)
	checkLen(errs, field("example"), s.Example, maxTextLen)
	checkLen(errs, field("example_translation"), s.ExampleTranslation, maxTextLen)
	if len(s.DialectIDs) > maxSememeDialect {
		errs.Add(field("dialect_ids"), fmt.Sprintf("max %d dialects", maxSememeDialect))
	}
}

// CreateLexemeInput holds the parameters for creating a lexeme with its
// variants and sememes.
type CreateLexemeInput struct {
	LanguageID   uuid.UUID
	PartOfSpeech string
	Notes        *string
	Tags         []string
	Source       *string
	Variants     []VariantInput
	Sememes      []SememeInput
}

// Normalize trims text, cleans tags and canonicalizes the part of speech.
func (i *CreateLexemeInput) Normalize() {
	i.PartOfSpeech = normalizePOS(i.PartOfSpeech)
	i.Notes = trimOrNil(i.Notes)
	i.Source = trimOrNil(i.Source)
	i.Tags = cleanTags(i.Tags)
	for k := range i.Variants {
		i.Variants[k].normalize()
	}
	for k := range i.Sememes {
		i.Sememes[k].normalize()
	}
}

// Validate checks all fields and collects all errors. References to
// orthographies and dialects are checked by the service.
func (i *CreateLexemeInput) Validate() error {
	var errs domain.FieldErrors
	if i.LanguageID == uuid.Nil {
		errs.Add("language_id", "required")
	}
	validatePOS(&errs, i.PartOfSpeech)
	checkLen(&errs, "notes", i.Notes, maxTextLen)
	checkLen(&errs, "source", i.Source, maxSourceLen)
	validateTags(&errs, i.Tags)

	switch {
	case len(i.Variants) == 0:
		errs.Add("variants", "at least one variant required")
	case len(i.Variants) > maxVariants:
		errs.Add("variants", fmt.Sprintf("max %d variants", maxVariants))
	}
	mains := 0
	for k := range i.Variants {
		i.Variants[k].validate(&errs, domain.FieldIndex("variants", k, ""))
		if i.Variants[k].IsMain {
			mains++
		}
	}
	if mains > 1 {
		errs.Add("variants", "only one variant can be main")
	}

	if len(i.Sememes) > maxSememes {
		errs.Add("sememes", fmt.Sprintf("max %d sememes", maxSememes))
	}
	for k := range i.Sememes {
		i.Sememes[k].validate(&errs, domain.FieldIndex("sememes", k, ""))
	}
	return errs.Err()
}

// UpdateLexemeInput holds optional fields for a lexeme update.
type UpdateLexemeInput struct {
	PartOfSpeech *string
	Notes        *string
	Tags         *[]string
	Source       *string
}

// Validate checks all fields and collects all errors.
func (i *UpdateLexemeInput) Validate() error {
	var errs domain.FieldErrors
	if i.PartOfSpeech != nil {
		if normalizePOS(*i.PartOfSpeech) == "" {
			errs.Add("part_of_speech", "must not be empty")
		} else {
			validatePOS(&errs, normalizePOS(*i.PartOfSpeech))
		}
	}
	checkLen(&errs, "notes", i.Notes, maxTextLen)
	checkLen(&errs, "source", i.Source, maxSourceLen)
	if i.Tags != nil {
		validateTags(&errs, cleanTags(*i.Tags))
	}
	return errs.Err()
}

func (i *UpdateLexemeInput) params() domain.LexemeUpdateParams {
	var p domain.LexemeUpdateParams
	if i.PartOfSpeech != nil {
		pos := domain.PartOfSpeech(normalizePOS(*i.PartOfSpeech))
		p.PartOfSpeech = &pos
	}
	p.Notes = trimPtr(i.Notes)
	p.Source = trimPtr(i.Source)
	if i.Tags != nil {
		tags := cleanTags(*i.Tags)
		p.Tags = &tags
	}
	return p
}

// UpdateVariantInput holds optional fields for a variant update.
type UpdateVariantInput struct {
	OrthographyID *uuid.UUID
	Lemma         *string
	Pronunciation *string
}

// Validate checks all fields and collects all errors.
func (i *UpdateVariantInput) Validate() error {
	var errs domain.FieldErrors
	if i.OrthographyID != nil && *i.OrthographyID == uuid.Nil {
		errs.Add("orthography_id", "must not be empty")
	}
	if i.Lemma != nil {
		lemma := strings.TrimSpace(*i.Lemma)
		if lemma == "" {
			errs.Add("lemma", "must not be empty")
		} else if utf8.RuneCountInString(lemma) > maxLemmaLen {
			errs.Add("lemma", fmt.Sprintf("max %d characters", maxLemmaLen))
		}
	}
	checkLen(&errs, "pronunciation", i.Pronunciation, maxLemmaLen)
	return errs.Err()
}

// UpdateSememeInput holds optional fields for a sememe update. DialectIDs,
// when set, replaces the whole dialect set.
type UpdateSememeInput struct {
	Gloss              *string
	Definition         *string
	Example            *string
	ExampleTranslation *string
	DialectIDs         *[]uuid.UUID
}

// Validate checks all fields and collects all errors.
func (i *UpdateSememeInput) Validate() error {
	var errs domain.FieldErrors
	if i.Gloss != nil {
		gloss := strings.TrimSpace(*i.Gloss)
		if gloss == "" {
			errs.Add("gloss", "must not be empty")
		} else if utf8.RuneCountInString(gloss) > maxGlossLen {
			errs.Add("gloss", fmt.Sprintf("max %d characters", maxGlossLen))
		}
	}
	checkLen(&errs, "definition", i.Definition, maxTextLen)
	checkLen(&errs, "example", i.Example, maxTextLen)
	checkLen(&errs, "example_translation", i.ExampleTranslation, maxTextLen)
	if i.DialectIDs != nil && len(uniqueIDs(*i.DialectIDs)) > maxSememeDialect {
		errs.Add("dialect_ids", fmt.Sprintf("max %d dialects", maxSememeDialect))
	}
	return errs.Err()
}

func (i *UpdateSememeInput) params() domain.SememeUpdateParams {
	p := domain.SememeUpdateParams{
		Gloss:              trimPtr(i.Gloss),
		Definition:         trimPtr(i.Definition),
		Example:            trimPtr(i.Example),
		ExampleTranslation: trimPtr(i.ExampleTranslation),
	}
	if i.DialectIDs != nil {
		ids := uniqueIDs(*i.DialectIDs)
		p.DialectIDs = &ids
	}
	return p
}

// ReorderSememesInput assigns new positions to sememes of one lexeme.
type ReorderSememesInput struct {
	Items []domain.ReorderItem
}

// Validate checks all fields and collects all errors.
func (i *ReorderSememesInput) Validate() error {
	var errs domain.FieldErrors
	if len(i.Items) == 0 {
		errs.Add("items", "required")
	}
	ids := make(map[uuid.UUID]bool, len(i.Items))
	positions := make(map[int]bool, len(i.Items))
	for k, it := range i.Items {
		if it.ID == uuid.Nil {
			errs.Add(domain.FieldIndex("items", k, "id"), "required")
		} else if ids[it.ID] {
			errs.Add(domain.FieldIndex("items", k, "id"), "duplicate")
		}
		ids[it.ID] = true
		if it.Position < 0 {
			errs.Add(domain.FieldIndex("items", k, "position"), "must be >= 0")
		} else if positions[it.Position] {
			errs.Add(domain.FieldIndex("items", k, "position"), "duplicate")
		}
		positions[it.Position] = true
	}
	return errs.Err()
}

// ---------------------------------------------------------------------------
// Helpers
// ---------------------------------------------------------------------------

// normalizePOS maps abbreviations to the canonical value; unknown input is
// returned upper-cased so validation can report it.
func normalizePOS(raw string) string {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return ""
	}
	if pos, ok := domain.ParsePartOfSpeech(raw); ok {
		return string(pos)
	}
	return strings.ToUpper(raw)
}

func validatePOS(errs *domain.FieldErrors, pos string) {
	if pos != "" && !domain.PartOfSpeech(pos).IsValid() {
		errs.Add("part_of_speech", "unknown part of speech")
	}
}

func validateTags(errs *domain.FieldErrors, tags []string) {
	if len(tags) > maxTags {
		errs.Add("tags", fmt.Sprintf("max %d tags", maxTags))
	}
	for k, t := range tags {
		if utf8.RuneCountInString(t) > maxTagLen {
			errs.Add(domain.FieldIndex("tags", k, ""), fmt.Sprintf("max %d characters", maxTagLen))
		}
	}
}

func checkLen(errs *domain.FieldErrors, field string, s *string, limit int) {
	if s != nil && utf8.RuneCountInString(strings.TrimSpace(*s)) > limit {
		errs.Add(field, fmt.Sprintf("max %d characters", limit))
	}
}

// cleanTags trims tags and drops empty and repeated ones.
func cleanTags(tags []string) []string {
	out := make([]string, 0, len(tags))
	seen := make(map[string]bool, len(tags))
	for _, t := range tags {
		t = strings.TrimSpace(t)
		if t == "" || seen[t] {
			continue
		}
		seen[t] = true
		out = append(out, t)
	}
	return out
}

func uniqueIDs(ids []uuid.UUID) []uuid.UUID {
	out := make([]uuid.UUID, 0, len(ids))
	seen := make(map[uuid.UUID]bool, len(ids))
	for _, id := range ids {
		if seen[id] {
			continue
		}
		seen[id] = true
		out = append(out, id)
	}
	return out
}

func trimOrNil(s *string) *string {
	if s == nil {
		return nil
	}
	t := strings.TrimSpace(*s)
	if t == "" {
		return nil
	}
	return &t
}

// trimPtr trims but keeps "", which clears the field in an update.
func trimPtr(s *string) *string {
	if s == nil {
		return nil
	}
	t := strings.TrimSpace(*s)
	return &t
}
