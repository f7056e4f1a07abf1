package domain

import (
	"time"

	"github.com/google/uuid"
)

// Lexeme is a dictionary word: the abstract unit that groups written
// variants and meanings.
type Lexeme struct {
	ID           uuid.UUID
	LanguageID   uuid.UUID
	PartOfSpeech PartOfSpeech
	Notes        *string
	Tags         []string
	Source       *string
	CreatedAt    time.Time
	UpdatedAt    time.Time
	DeletedAt    *time.Time
}

// IsDeleted returns true if the lexeme has been soft-deleted.
func (l *Lexeme) IsDeleted() bool {
	return l.DeletedAt != nil
}

// LexemeUpdateParams holds optional fields for a partial lexeme update.
type LexemeUpdateParams struct {
	PartOfSpeech *PartOfSpeech
	Notes        *string
	Tags         *[]string
	Source       *string
}

// Variant is a written form of a lexeme in a given orthography.
type Variant struct {
	ID              uuid.UUID
	LexemeID        uuid.UUID
	OrthographyID   uuid.UUID
	Lemma           string
	LemmaNormalized string
	Pronunciation   *string
	IsMain          bool
	Position        int
	CreatedAt       time.Time
}

// VariantUpdateParams holds optional fields for a partial variant update.
type VariantUpdateParams struct {
	OrthographyID *uuid.UUID
	Lemma         *string
	Pronunciation *string
}

// Sememe is a single meaning of a lexeme.
type Sememe struct {
	ID                 uuid.UUID
	LexemeID           uuid.UUID
	Gloss              string
	Definition         *string
	Example            *string
	ExampleTranslation *string
	Position           int
	DialectIDs         []uuid.UUID
	CreatedAt          time.Time
	UpdatedAt          time.Time
}

// SememeUpdateParams holds optional fields for a partial sememe update.
// DialectIDs, when non-nil, replaces the whole dialect set.
type SememeUpdateParams struct {
	Gloss              *string
	Definition         *string
	Example            *string
	ExampleTranslation *string
	DialectIDs         *[]uuid.UUID
}

// LexemeDetail is a lexeme together with its variants and sememes,
// both ordered by position.
type LexemeDetail struct {
	Lexeme
	Variants []Variant
	Sememes  []Sememe
}

// MainVariant returns the main variant, falling back to the first one.
// Returns nil when the lexeme has no variants.
func (d *LexemeDetail) MainVariant() *Variant {
	for i := range d.Variants {
		if d.Variants[i].IsMain {
			return &d.Variants[i]
		}
	}
	if len(d.Variants) > 0 {
		return &d.Variants[0]
	}
	return nil
}
